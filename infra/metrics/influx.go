package metrics

import (
	"context"
	"math"
	"net/http"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/energinet-labs/prosumer/core/metrics"
	"github.com/energinet-labs/prosumer/core/model"
	"github.com/energinet-labs/prosumer/infra/logger"
)

// InfluxSink writes scenario outcomes and dispatch schedules to an InfluxDB
// instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback pings the InfluxDB instance and returns a
// NopSink when the health check fails, so a missing database never blocks a
// run.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.Sink {
	sink := NewInfluxSink(url, token, org, bucket)
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

// RecordScenario writes one solve outcome as a point.
func (s *InfluxSink) RecordScenario(ev coremetrics.ScenarioEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("scenario_solve").
		AddTag("run_id", ev.RunID).
		AddTag("question", ev.Question).
		AddTag("scenario", ev.Scenario).
		AddTag("status", ev.Status).
		AddField("solve_ms", round3(ev.SolveTime.Seconds()*1000)).
		AddField("objective", round3(ev.Objective)).
		AddField("actual_profit", round3(ev.ActualProfit)).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordSchedule writes the hourly dispatch of a solved scenario, one point
// per hour.
func (s *InfluxSink) RecordSchedule(runID, question string, res *model.Result) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	now := time.Now()
	n := len(res.Series[model.SeriesLoad])
	for t := 0; t < n; t++ {
		p := write.NewPointWithMeasurement("dispatch_schedule").
			AddTag("run_id", runID).
			AddTag("question", question).
			AddTag("scenario", res.Scenario).
			AddTag("variant", res.Variant.String()).
			AddField("hour", t)
		for name, series := range res.Series {
			p.AddField(name, round3(series[t]))
		}
		p.SetTime(now)
		if err := s.writeAPI.WritePoint(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the underlying client.
func (s *InfluxSink) Close() {
	s.client.Close()
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
