// Package app assembles the frame loop: a pipeline with the timing stages,
// the input simulator, the optional MQTT bridge and the console observer,
// plus the metrics sink and cycle journal fed after every cycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/kilianp07/pulse/config"
	"github.com/kilianp07/pulse/core/eventbus"
	"github.com/kilianp07/pulse/core/events"
	coremetrics "github.com/kilianp07/pulse/core/metrics"
	"github.com/kilianp07/pulse/core/monitoring"
	"github.com/kilianp07/pulse/core/pipeline"
	"github.com/kilianp07/pulse/core/timing"
	"github.com/kilianp07/pulse/infra/input"
	"github.com/kilianp07/pulse/infra/journal"
	"github.com/kilianp07/pulse/infra/logger"
	"github.com/kilianp07/pulse/infra/metrics"
	infmon "github.com/kilianp07/pulse/infra/monitoring"
	"github.com/kilianp07/pulse/infra/mqtt"
)

// Service drives a pipeline at a fixed frame rate.
type Service struct {
	Pipeline *pipeline.Pipeline

	cfg     *config.Config
	log     logger.Logger
	sink    coremetrics.MetricsSink
	journal journal.Store
	console *Console
	input   *input.Simulator
	bridge  *mqtt.Bridge
	now     func() time.Time
	cycles  uint64
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	if err := logger.Configure(cfg.Logging.Level, cfg.Logging.Backend); err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	logg := logger.New("service")

	mon, err := infmon.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}
	monitoring.Init(mon)

	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}
	if cfg.Metrics.PrometheusPort != "" && !hasSink(cfg, "prometheus") {
		prom, err := metrics.NewPromSink()
		if err != nil {
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		sink = coremetrics.NewMultiSink(sink, prom)
	}

	s := &Service{
		cfg:  cfg,
		log:  logg,
		sink: sink,
		now:  time.Now,
	}
	if cfg.Journal.Enabled {
		if s.journal, err = journal.Open(cfg.Journal); err != nil {
			return nil, fmt.Errorf("journal: %w", err)
		}
	}

	p := pipeline.New(eventbus.WithName(cfg.Loop.Name), eventbus.WithLogger(logger.New("eventbus")))
	p.Once(pipeline.Func("started", func(b *eventbus.Bus) {
		eventbus.RequestSender[events.Started](b).Push(events.Started{Bus: b.Name(), Time: s.now()})
	})).
		Then(timing.NewTicker(nil)).
		Then(timing.NewStats(p.Bus, cfg.Loop.StatsWindow))
	s.Pipeline = p

	s.console = NewConsole(logger.New("console"))
	eventbus.Attach(p.Bus, s.console)
	if cfg.Input.Enabled {
		s.input = input.NewSimulator(cfg.Input)
		eventbus.Attach(p.Bus, s.input)
	}
	if cfg.MQTT.Enabled {
		if s.bridge, err = mqtt.NewBridge(cfg.MQTT, logger.New("mqtt_bridge")); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("mqtt bridge: %w", err)
		}
		eventbus.Attach(p.Bus, s.bridge)
	}
	return s, nil
}

func hasSink(cfg *config.Config, typ string) bool {
	for _, m := range cfg.Metrics.Sinks {
		if m.Type == typ {
			return true
		}
	}
	return false
}

// Run processes the pipeline once per frame interval until ctx is done or
// loop.max_frames cycles ran.
func (s *Service) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if port := s.cfg.Metrics.PrometheusPort; port != "" {
		go func() {
			if err := metrics.StartPromServer(ctx, port); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	var inputDone <-chan struct{}
	if s.input != nil {
		done, err := s.input.Start(ctx)
		if err != nil {
			return fmt.Errorf("input: %w", err)
		}
		inputDone = done
	}

	interval := s.cfg.Loop.Interval()
	s.log.Infof("frame loop %s running every %s", s.cfg.Loop.Name, interval)
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		s.step()
		if limit := s.cfg.Loop.MaxFrames; limit > 0 && s.cycles >= limit {
			break
		}
		select {
		case <-ctx.Done():
			cancel()
			s.waitInput(inputDone)
			return nil
		case <-t.C:
		}
	}
	cancel()
	s.waitInput(inputDone)
	s.log.Infof("frame loop stopped after %d cycles", s.cycles)
	return nil
}

func (s *Service) waitInput(done <-chan struct{}) {
	if done != nil {
		<-done
	}
}

// step runs one cycle and records its statistics.
func (s *Service) step() {
	started := s.now()
	s.Pipeline.Process()
	s.cycles++
	cs := coremetrics.FromStats(s.Pipeline.Bus, s.cycles, started, s.now().Sub(started), s.Pipeline.TakeStats())
	if err := s.sink.RecordCycle(cs); err != nil {
		s.log.Errorf("record cycle %d: %v", cs.Cycle, err)
		monitoring.Capture("metrics", err)
	}
	if s.journal != nil {
		if err := s.journal.Append(context.Background(), cs); err != nil {
			s.log.Errorf("journal cycle %d: %v", cs.Cycle, err)
			monitoring.Capture("journal", err)
		}
	}
}

// Cycles returns the number of processed cycles.
func (s *Service) Cycles() uint64 { return s.cycles }

// Console returns the console observer.
func (s *Service) Console() *Console { return s.console }

// Close releases resources held by the service.
func (s *Service) Close() error {
	var errs []error
	if s.bridge != nil {
		errs = append(errs, s.bridge.Close())
	}
	if c, ok := s.sink.(io.Closer); ok {
		errs = append(errs, c.Close())
	}
	if s.journal != nil {
		errs = append(errs, s.journal.Close())
	}
	if s.Pipeline != nil {
		s.Pipeline.Close()
	}
	monitoring.Flush(2 * time.Second)
	return errors.Join(errs...)
}
