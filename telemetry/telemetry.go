// Package telemetry collects Prometheus metrics for pipeline runs.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/satishbabariya/prisma-edge/query/planner"
)

const namespace = "prisma_edge"

// Outcomes recorded for every planned statement.
const (
	OutcomeExecuted   = "executed"
	OutcomeSkipped    = "skipped"
	OutcomeSuppressed = "suppressed"
	OutcomeFailed     = "failed"
)

// Metrics implements executor.Observer and records client calls.
type Metrics struct {
	statements        *prometheus.CounterVec
	statementDuration *prometheus.HistogramVec
	calls             *prometheus.CounterVec
	callDuration      *prometheus.HistogramVec
}

// New creates the collectors and registers them on reg. A nil reg uses the
// default registerer.
func New(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		statements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "statements_total",
			Help:      "Planned statements by label and outcome",
		}, []string{"label", "outcome"}),
		statementDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "statement_duration_seconds",
			Help:      "Duration of executed statements",
			Buckets:   []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}, []string{"label"}),
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "calls_total",
			Help:      "Client calls by verb and status",
		}, []string{"verb", "status"}),
		callDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "call_duration_seconds",
			Help:      "Duration of client calls including every statement of the pipeline",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"verb"}),
	}
	for _, c := range []prometheus.Collector{m.statements, m.statementDuration, m.calls, m.callDuration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Skipped records a statement whose condition did not hold.
func (m *Metrics) Skipped(op planner.Operation) {
	m.statements.WithLabelValues(op.Label, OutcomeSkipped).Inc()
}

// Executed records a successful statement.
func (m *Metrics) Executed(op planner.Operation, d time.Duration) {
	m.statements.WithLabelValues(op.Label, OutcomeExecuted).Inc()
	m.statementDuration.WithLabelValues(op.Label).Observe(d.Seconds())
}

// Suppressed records a failure the pipeline expected.
func (m *Metrics) Suppressed(op planner.Operation, _ error) {
	m.statements.WithLabelValues(op.Label, OutcomeSuppressed).Inc()
}

// Failed records a failure that aborted the pipeline.
func (m *Metrics) Failed(op planner.Operation, _ error) {
	m.statements.WithLabelValues(op.Label, OutcomeFailed).Inc()
}

// RecordCall records one client call.
func (m *Metrics) RecordCall(verb string, d time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.calls.WithLabelValues(verb, status).Inc()
	m.callDuration.WithLabelValues(verb).Observe(d.Seconds())
}

// Snapshot is a point-in-time summary, printed by the CLI after exec.
type Snapshot struct {
	Executed   float64 `json:"executed"`
	Skipped    float64 `json:"skipped"`
	Suppressed float64 `json:"suppressed"`
	Failed     float64 `json:"failed"`
	Calls      float64 `json:"calls"`
}

// Snapshot sums the collectors across labels.
func (m *Metrics) Snapshot() Snapshot {
	var s Snapshot
	collect(m.statements, func(d *dto.Metric) {
		v := d.GetCounter().GetValue()
		for _, l := range d.GetLabel() {
			if l.GetName() != "outcome" {
				continue
			}
			switch l.GetValue() {
			case OutcomeExecuted:
				s.Executed += v
			case OutcomeSkipped:
				s.Skipped += v
			case OutcomeSuppressed:
				s.Suppressed += v
			case OutcomeFailed:
				s.Failed += v
			}
		}
	})
	collect(m.calls, func(d *dto.Metric) {
		s.Calls += d.GetCounter().GetValue()
	})
	return s
}

// collect calls do for each metric of the collector.
func collect(col prometheus.Collector, do func(*dto.Metric)) {
	c := make(chan prometheus.Metric)
	go func() {
		col.Collect(c)
		close(c)
	}()
	for x := range c {
		m := dto.Metric{}
		_ = x.Write(&m)
		do(&m)
	}
}
