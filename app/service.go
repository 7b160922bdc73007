package app

import (
	"context"
	"fmt"
	"math/rand"
	"path/filepath"

	"github.com/energinet-labs/prosumer/config"
	"github.com/energinet-labs/prosumer/core/inputs"
	coremetrics "github.com/energinet-labs/prosumer/core/metrics"
	"github.com/energinet-labs/prosumer/core/opt"
	"github.com/energinet-labs/prosumer/core/runner"
	"github.com/energinet-labs/prosumer/core/solver"
	"github.com/energinet-labs/prosumer/infra/logger"
	"github.com/energinet-labs/prosumer/infra/metrics"
	"github.com/energinet-labs/prosumer/infra/mqtt"
)

// Service wires the input loaders, solve oracle and observability sinks
// into a runnable optimization batch.
type Service struct {
	cfg    *config.Config
	runner *runner.Runner
	log    logger.Logger

	publisher *mqtt.Publisher
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	log := logger.New("service")

	var sinks []coremetrics.Sink
	if cfg.Metrics.PrometheusAddr != "" {
		sink, err := metrics.NewPromSink()
		if err != nil {
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		sinks = append(sinks, sink)
	}
	if cfg.Metrics.Influx.URL != "" {
		sinks = append(sinks, metrics.NewInfluxSinkWithFallback(
			cfg.Metrics.Influx.URL, cfg.Metrics.Influx.Token,
			cfg.Metrics.Influx.Org, cfg.Metrics.Influx.Bucket))
	}
	var sink coremetrics.Sink = coremetrics.NopSink{}
	if len(sinks) == 1 {
		sink = sinks[0]
	} else if len(sinks) > 1 {
		sink = metrics.NewMultiSink(sinks...)
	}

	svc := &Service{
		cfg: cfg,
		log: log,
		runner: &runner.Runner{
			Solver: solver.NewSimplex(cfg.Solver),
			Sink:   sink,
			Log:    logger.New("runner"),
			Rng:    rand.New(rand.NewSource(cfg.Seed)),
		},
	}
	if cfg.MQTT != nil {
		pub, err := mqtt.NewPublisher(*cfg.MQTT)
		if err != nil {
			return nil, fmt.Errorf("mqtt publisher: %w", err)
		}
		svc.publisher = pub
		svc.runner.Publisher = pub
	}
	return svc, nil
}

// Run loads the question data, solves every selected scenario and blocks
// until done. It fails only when configuration is unusable or no scenario
// solved at all.
func (s *Service) Run(ctx context.Context) (*runner.RunReport, error) {
	if s.cfg.Metrics.PrometheusAddr != "" {
		go func() {
			if err := metrics.StartPromServer(ctx, s.cfg.Metrics.PrometheusAddr); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}

	dir := filepath.Join(s.cfg.DataDir, s.cfg.Question)
	data, err := inputs.LoadQuestion(dir)
	if err != nil {
		return nil, fmt.Errorf("load question %s: %w", s.cfg.Question, err)
	}
	registry, err := inputs.LoadRegistry(dir)
	if err != nil {
		return nil, fmt.Errorf("load scenario registry: %w", err)
	}
	scenarios, err := inputs.LoadScenarios(inputs.SelectScenarios(registry, s.cfg.Scenarios))
	if err != nil {
		return nil, fmt.Errorf("load scenarios: %w", err)
	}
	if len(scenarios) == 0 {
		return nil, fmt.Errorf("no scenarios selected for %s", s.cfg.Question)
	}

	report, err := s.runner.RunAll(ctx, s.cfg.Question, data, scenarios, opt.Options{
		Variant:        s.cfg.Variant(),
		NumHours:       s.cfg.NumHours,
		VaryTariff:     s.cfg.VaryTariff,
		FixedDA:        s.cfg.FixedDA,
		Epsilon:        s.cfg.Epsilon,
		MaxCapacityKWh: s.cfg.MaxCapacityKWh,
	})
	if err != nil {
		return report, err
	}
	if report.Succeeded() == 0 {
		return report, fmt.Errorf("all %d scenarios failed", len(scenarios))
	}
	return report, nil
}

// Close releases resources held by the service.
func (s *Service) Close() {
	if s.publisher != nil {
		s.publisher.Close()
	}
}
