package metrics

import (
	"time"

	"github.com/energinet-labs/prosumer/core/model"
)

// ScenarioEvent captures the outcome of one scenario solve.
type ScenarioEvent struct {
	RunID        string
	Question     string
	Scenario     string
	Status       string
	SolveTime    time.Duration
	Objective    float64
	ActualProfit float64
	Time         time.Time
}

// Scenario solve statuses.
const (
	StatusOptimal    = "optimal"
	StatusInfeasible = "infeasible"
	StatusError      = "error"
)

// Sink records scenario outcomes for observability purposes.
type Sink interface {
	RecordScenario(ev ScenarioEvent) error
}

// ScheduleRecorder is implemented by sinks able to persist the full hourly
// dispatch schedule of a solved scenario.
type ScheduleRecorder interface {
	RecordSchedule(runID, question string, res *model.Result) error
}

// NopSink implements Sink and ScheduleRecorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordScenario(ScenarioEvent) error { return nil }

func (NopSink) RecordSchedule(string, string, *model.Result) error { return nil }
