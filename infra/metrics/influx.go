package metrics

import (
	"context"
	"maps"
	"net/http"
	"slices"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/pulse/core/metrics"
	"github.com/kilianp07/pulse/infra/logger"
)

// InfluxConfig holds the connection settings of an InfluxSink.
type InfluxConfig struct {
	URL    string `json:"url"`
	Token  string `json:"token"`
	Org    string `json:"org"`
	Bucket string `json:"bucket"`
}

// InfluxSink writes bus cycles to an InfluxDB instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(cfg InfluxConfig) *InfluxSink {
	base := strings.TrimSuffix(cfg.URL, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, cfg.Token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(cfg InfluxConfig) coremetrics.MetricsSink {
	sink := NewInfluxSink(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordCycle writes one bus_cycle point plus one event_delivery point per
// event type and mode.
func (s *InfluxSink) RecordCycle(cs coremetrics.CycleStats) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	points := []*write.Point{cyclePoint(cs)}
	points = append(points, deliveryPoints(cs, "each", cs.EachByType)...)
	points = append(points, deliveryPoints(cs, "last", cs.LastByType)...)
	return s.writeAPI.WritePoint(ctx, points...)
}

// Close releases the underlying HTTP client.
func (s *InfluxSink) Close() error {
	s.client.Close()
	return nil
}

func cyclePoint(cs coremetrics.CycleStats) *write.Point {
	return write.NewPointWithMeasurement("bus_cycle").
		AddTag("bus", cs.Bus).
		AddField("cycle", cs.Cycle).
		AddField("duration_ms", float64(cs.Duration.Microseconds())/1000).
		AddField("observers", cs.Observers).
		AddField("expired", cs.Expired).
		AddField("flushes", cs.Flushes).
		AddField("each_delivered", cs.EachDelivered).
		AddField("last_delivered", cs.LastDelivered).
		SetTime(cs.Started)
}

func deliveryPoints(cs coremetrics.CycleStats, mode string, byType map[string]int) []*write.Point {
	points := make([]*write.Point, 0, len(byType))
	for _, typ := range slices.Sorted(maps.Keys(byType)) {
		points = append(points, write.NewPointWithMeasurement("event_delivery").
			AddTag("bus", cs.Bus).
			AddTag("event_type", typ).
			AddTag("mode", mode).
			AddField("count", byType[typ]).
			SetTime(cs.Started))
	}
	return points
}
