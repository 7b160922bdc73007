package metrics

import (
	coremetrics "github.com/energinet-labs/prosumer/core/metrics"
	"github.com/energinet-labs/prosumer/core/model"
)

// MultiSink fans scenario outcomes out to multiple sinks.
type MultiSink struct {
	Sinks []coremetrics.Sink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...coremetrics.Sink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordScenario forwards the event to all sinks, returning the first error
// encountered.
func (m *MultiSink) RecordScenario(ev coremetrics.ScenarioEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordScenario(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordSchedule forwards the schedule to the sinks that support it.
func (m *MultiSink) RecordSchedule(runID, question string, res *model.Result) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(coremetrics.ScheduleRecorder); ok {
			if err := rec.RecordSchedule(runID, question, res); err != nil {
				return err
			}
		}
	}
	return nil
}
