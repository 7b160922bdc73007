package metrics

import (
	coremetrics "github.com/energinet-labs/prosumer/core/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// PromSink records scenario outcomes in Prometheus metrics.
type PromSink struct {
	scenarios *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	objective *prometheus.GaugeVec
	profit    *prometheus.GaugeVec
}

// NewPromSink registers scenario metrics on the default Prometheus
// registerer. The metrics HTTP server is started separately.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	scenarios := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "prosumer_scenarios_total",
		Help: "Total number of scenario solves by outcome",
	}, []string{"question", "scenario", "status"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "prosumer_solve_duration_seconds",
		Help:    "Wall-clock time of one scenario solve",
		Buckets: prometheus.DefBuckets,
	}, []string{"question", "scenario"})
	objective := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "prosumer_objective_dkk",
		Help: "Objective value of the latest solve",
	}, []string{"question", "scenario"})
	profit := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "prosumer_actual_profit_dkk",
		Help: "Grid cash-flow profit of the latest solve",
	}, []string{"question", "scenario"})

	if err := reg.Register(scenarios); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			scenarios = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(duration); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			duration = are.ExistingCollector.(*prometheus.HistogramVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(objective); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			objective = are.ExistingCollector.(*prometheus.GaugeVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(profit); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			profit = are.ExistingCollector.(*prometheus.GaugeVec)
		} else {
			return nil, err
		}
	}

	return &PromSink{scenarios: scenarios, duration: duration, objective: objective, profit: profit}, nil
}

// RecordScenario updates the counters and gauges for one solve.
func (s *PromSink) RecordScenario(ev coremetrics.ScenarioEvent) error {
	s.scenarios.WithLabelValues(ev.Question, ev.Scenario, ev.Status).Inc()
	s.duration.WithLabelValues(ev.Question, ev.Scenario).Observe(ev.SolveTime.Seconds())
	if ev.Status == coremetrics.StatusOptimal {
		s.objective.WithLabelValues(ev.Question, ev.Scenario).Set(ev.Objective)
		s.profit.WithLabelValues(ev.Question, ev.Scenario).Set(ev.ActualProfit)
	}
	return nil
}
