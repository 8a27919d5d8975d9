package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/pulse/core/metrics"
)

func TestInfluxSink_RecordCycle(t *testing.T) {
	var (
		mu   sync.Mutex
		body string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		mu.Lock()
		body = string(data)
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	sink := NewInfluxSink(InfluxConfig{URL: srv.URL, Token: "token", Org: "org", Bucket: "bucket"})
	defer func() { _ = sink.Close() }()
	now := time.Now()
	cs := coremetrics.CycleStats{
		Bus:           "frame",
		Cycle:         9,
		Started:       now,
		Duration:      1500 * time.Microsecond,
		Observers:     2,
		Flushes:       3,
		EachDelivered: 2,
		EachByType:    map[string]int{"events.Key": 2},
	}
	if err := sink.RecordCycle(cs); err != nil {
		t.Fatalf("record error: %v", err)
	}

	p1 := write.NewPointWithMeasurement("bus_cycle").
		AddTag("bus", "frame").
		AddField("cycle", uint64(9)).
		AddField("duration_ms", 1.5).
		AddField("observers", 2).
		AddField("expired", 0).
		AddField("flushes", 3).
		AddField("each_delivered", 2).
		AddField("last_delivered", 0).
		SetTime(now)
	p2 := write.NewPointWithMeasurement("event_delivery").
		AddTag("bus", "frame").
		AddTag("event_type", "events.Key").
		AddTag("mode", "each").
		AddField("count", 2).
		SetTime(now)
	expected := []string{
		strings.TrimSpace(write.PointToLineProtocol(p1, time.Nanosecond)),
		strings.TrimSpace(write.PointToLineProtocol(p2, time.Nanosecond)),
	}
	mu.Lock()
	got := strings.Split(strings.TrimSpace(body), "\n")
	mu.Unlock()
	if len(got) != len(expected) {
		t.Fatalf("unexpected body: %q", got)
	}
	for i := range expected {
		if strings.TrimSpace(got[i]) != expected[i] {
			t.Errorf("line %d: got %s want %s", i, got[i], expected[i])
		}
	}
}

func TestNewInfluxSinkWithFallback(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			called = true
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	}))
	defer srv.Close()

	sink := NewInfluxSinkWithFallback(InfluxConfig{
		URL:    srv.URL + "/api/v2/write",
		Token:  "tok",
		Org:    "org",
		Bucket: "bucket",
	})
	if _, ok := sink.(*InfluxSink); ok {
		t.Fatalf("expected NopSink on failing health check")
	}
	if !called {
		t.Fatalf("health endpoint not called")
	}
}
