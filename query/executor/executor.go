// Package executor runs a planned pipeline against a connector, one
// statement at a time, honoring the directives attached to each operation.
package executor

import (
	"context"
	"log/slog"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/satishbabariya/prisma-edge/connector"
	"github.com/satishbabariya/prisma-edge/internal/debug"
	"github.com/satishbabariya/prisma-edge/query/planner"
)

// Observer is notified about every operation of a run.
type Observer interface {
	Skipped(op planner.Operation)
	Executed(op planner.Operation, d time.Duration)
	Suppressed(op planner.Operation, err error)
	Failed(op planner.Operation, err error)
}

// Option configures a run.
type Option func(*runner)

// WithLogger sets the logger, usually one tagged with the call id.
func WithLogger(l *slog.Logger) Option {
	return func(r *runner) { r.logger = l }
}

// WithObserver registers an observer, e.g. metrics.
func WithObserver(o Observer) Option {
	return func(r *runner) {
		if o != nil {
			r.observers = append(r.observers, o)
		}
	}
}

type runner struct {
	logger    *slog.Logger
	observers []Observer
}

// Run executes ops in order and returns the decoded value of the last
// result-bearing operation that ran.
//
// For each operation: a false When skips it; Before bindings rewrite the
// parameters from storage; Silent decides whether a failure is suppressed;
// the result is decoded when the operation is result-bearing or has an
// After capture. A suppressed failure decodes as an empty result. Any
// other failure aborts the run with ErrConnectorExecution, and a required
// capture that finds nothing aborts it with ErrNoValue.
func Run(ctx context.Context, conn connector.Connector, ops []planner.Operation, opts ...Option) (any, error) {
	r := &runner{logger: debug.Logger()}
	for _, opt := range opts {
		opt(r)
	}

	if opener, ok := conn.(connector.SessionOpener); ok && len(ops) > 1 {
		s, err := opener.Session(ctx)
		if err != nil {
			return nil, errors.Mark(errors.Wrap(err, "open session"), ErrConnectorExecution)
		}
		defer func() {
			if cerr := s.Close(); cerr != nil {
				r.logger.Warn("Closing session failed", "error", cerr)
			}
		}()
		conn = s
	}

	storage := NewStorage()
	var result any
	for i, op := range ops {
		d := op.Directive
		if !storage.Holds(d.When) {
			r.logger.Debug("Skipping operation", "index", i, "label", op.Label, "if", d.When.String())
			for _, o := range r.observers {
				o.Skipped(op)
			}
			continue
		}

		params := op.Params
		for _, b := range d.Before {
			v, _ := storage.Get(b.Key)
			params = SetVar(params, b.Placeholder, v)
		}
		silent := d.Silent.IsSet() && storage.Holds(d.Silent)

		start := time.Now()
		res, err := conn.Execute(ctx, op.SQL, params, connector.Options{SilentErrors: silent})
		elapsed := time.Since(start)
		if err != nil {
			if !silent {
				for _, o := range r.observers {
					o.Failed(op, err)
				}
				return nil, errors.WithStack(&ExecutionError{Index: i, Label: op.Label, SQL: op.SQL, Err: err})
			}
			r.logger.Debug("Suppressed operation failure", "index", i, "label", op.Label, "error", err)
			for _, o := range r.observers {
				o.Suppressed(op, err)
			}
			res = nil
		} else {
			for _, o := range r.observers {
				o.Executed(op, elapsed)
			}
		}

		if op.ResultBearing || d.After.IsSet() {
			decoded := connector.FormatOutput(res, op.Cardinality)
			if d.After.IsSet() {
				if err := storage.capture(d.After, decoded); err != nil {
					return nil, errors.Wrapf(err, "operation %d (%s)", i, op.Label)
				}
			}
			if op.ResultBearing {
				result = decoded
			}
		}
	}
	return result, nil
}
