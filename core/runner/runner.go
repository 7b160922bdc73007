package runner

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/energinet-labs/prosumer/core/inputs"
	"github.com/energinet-labs/prosumer/core/logger"
	"github.com/energinet-labs/prosumer/core/metrics"
	"github.com/energinet-labs/prosumer/core/model"
	"github.com/energinet-labs/prosumer/core/opt"
	"github.com/energinet-labs/prosumer/core/solver"
)

// SchedulePublisher pushes a solved schedule to an external consumer, for
// example an MQTT broker. Implementations must be safe for sequential reuse.
type SchedulePublisher interface {
	PublishSchedule(ctx context.Context, runID, question string, res *model.Result) error
}

// Runner solves one question's scenarios against a shared solve oracle.
// Scenario failures are isolated: a failed scenario is recorded and skipped
// while its siblings proceed.
type Runner struct {
	Solver    solver.Solver
	Sink      metrics.Sink
	Publisher SchedulePublisher
	Log       logger.Logger
	// Rng feeds tariff perturbation. Nil is valid as long as no scenario
	// requests variation.
	Rng *rand.Rand
}

// Outcome is the per-scenario record of one run.
type Outcome struct {
	Scenario string
	Status   string
	Result   *model.Result
	Err      error
	Elapsed  time.Duration
}

// RunReport aggregates a full question run.
type RunReport struct {
	RunID    string
	Question string
	Variant  model.Variant
	Outcomes []Outcome
}

// Succeeded returns how many scenarios reached an optimal solution.
func (r *RunReport) Succeeded() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == metrics.StatusOptimal {
			n++
		}
	}
	return n
}

// Results returns the solved scenarios keyed by name. Failed scenarios have
// no entry.
func (r *RunReport) Results() map[string]*model.Result {
	out := make(map[string]*model.Result, len(r.Outcomes))
	for _, o := range r.Outcomes {
		if o.Result != nil {
			out[o.Scenario] = o.Result
		}
	}
	return out
}

// RunScenario builds, formulates, solves and extracts a single scenario.
func (r *Runner) RunScenario(ctx context.Context, data *inputs.QuestionData, sc model.Scenario, o opt.Options) (*model.Result, error) {
	consumer, der, grid, err := inputs.BuildEntities(data, sc, o.NumHours)
	if err != nil {
		return nil, fmt.Errorf("scenario %q: %w", sc.Name, err)
	}
	f, err := opt.Formulate(consumer, der, grid, o, r.Rng)
	if err != nil {
		return nil, fmt.Errorf("scenario %q: %w", sc.Name, err)
	}
	sol, err := r.Solver.Solve(ctx, f.Problem)
	if err != nil {
		return nil, fmt.Errorf("scenario %q: %w", sc.Name, err)
	}
	res, err := f.Extract(sc.Name, sol)
	if err != nil {
		return nil, fmt.Errorf("scenario %q: %w", sc.Name, err)
	}
	return res, nil
}

// RunAll solves every scenario in order. It fails fast only on context
// cancellation; any other error is captured in the scenario's outcome.
func (r *Runner) RunAll(ctx context.Context, question string, data *inputs.QuestionData, scenarios []model.Scenario, o opt.Options) (*RunReport, error) {
	report := &RunReport{
		RunID:    uuid.NewString(),
		Question: question,
		Variant:  o.Variant,
		Outcomes: make([]Outcome, 0, len(scenarios)),
	}
	r.Log.Infof("run %s: question %s variant %s, %d scenarios", report.RunID, question, o.Variant, len(scenarios))

	for _, sc := range scenarios {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		start := time.Now()
		res, err := r.RunScenario(ctx, data, sc, o)
		out := Outcome{Scenario: sc.Name, Result: res, Err: err, Elapsed: time.Since(start)}
		out.Status = statusOf(err)

		switch out.Status {
		case metrics.StatusOptimal:
			r.Log.Infof("scenario %q solved in %s: objective=%.4f profit=%.4f",
				sc.Name, out.Elapsed.Round(time.Millisecond), res.Objective, res.ActualProfit)
			r.Log.Debugw("scenario summary", summaryFields(res))
			r.record(ctx, report, out)
		case metrics.StatusInfeasible:
			r.Log.Warnf("scenario %q infeasible: %v", sc.Name, err)
			r.record(ctx, report, out)
		default:
			r.Log.Errorf("scenario %q failed: %v", sc.Name, err)
			r.record(ctx, report, out)
		}
		report.Outcomes = append(report.Outcomes, out)
	}

	r.Log.Infof("run %s finished: %d/%d scenarios optimal", report.RunID, report.Succeeded(), len(scenarios))
	return report, nil
}

// summaryFields condenses a schedule into daily totals for logging.
func summaryFields(res *model.Result) map[string]any {
	sum := func(name string) float64 {
		total := 0.0
		for _, v := range res.Series[name] {
			total += v
		}
		return total
	}
	return map[string]any{
		"scenario":          res.Scenario,
		"import_kWh":        sum(model.SeriesImport),
		"export_kWh":        sum(model.SeriesExport),
		"load_kWh":          sum(model.SeriesLoad),
		"pv_kWh":            sum(model.SeriesPVActual),
		"curtailment_kWh":   sum(model.SeriesCurtailment),
		"battery_cap_kWh":   res.BatteryCapacityKWh,
		"objective_DKK":     res.Objective,
		"actual_profit_DKK": res.ActualProfit,
	}
}

func statusOf(err error) string {
	switch {
	case err == nil:
		return metrics.StatusOptimal
	case errors.Is(err, solver.ErrInfeasible):
		return metrics.StatusInfeasible
	default:
		return metrics.StatusError
	}
}

// record pushes the outcome to the metrics sink and publisher. Observability
// failures are logged, never propagated.
func (r *Runner) record(ctx context.Context, report *RunReport, out Outcome) {
	ev := metrics.ScenarioEvent{
		RunID:     report.RunID,
		Question:  report.Question,
		Scenario:  out.Scenario,
		Status:    out.Status,
		SolveTime: out.Elapsed,
		Time:      time.Now(),
	}
	if out.Result != nil {
		ev.Objective = out.Result.Objective
		ev.ActualProfit = out.Result.ActualProfit
	}
	if r.Sink != nil {
		if err := r.Sink.RecordScenario(ev); err != nil {
			r.Log.Warnf("metrics sink: %v", err)
		}
		if rec, ok := r.Sink.(metrics.ScheduleRecorder); ok && out.Result != nil {
			if err := rec.RecordSchedule(report.RunID, report.Question, out.Result); err != nil {
				r.Log.Warnf("schedule recorder: %v", err)
			}
		}
	}
	if r.Publisher != nil && out.Result != nil {
		if err := r.Publisher.PublishSchedule(ctx, report.RunID, report.Question, out.Result); err != nil {
			r.Log.Warnf("schedule publisher: %v", err)
		}
	}
}
