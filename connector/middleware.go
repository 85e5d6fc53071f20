package connector

import (
	"context"
	"log/slog"
	"time"
)

// QueryEvent describes one statement passing through the middleware chain.
type QueryEvent struct {
	SQL      string
	Params   []any
	Silent   bool
	Start    time.Time
	End      time.Time
	Duration time.Duration
	Error    error
	Result   *Result
}

// Middleware intercepts statements. It must call next to run the statement.
type Middleware func(ctx context.Context, event *QueryEvent, next func() error) error

type chain struct {
	inner       Connector
	middlewares []Middleware
}

// Use wraps c so every statement runs through middlewares in order. The
// wrapper keeps session support when c has it.
func Use(c Connector, middlewares ...Middleware) Connector {
	if len(middlewares) == 0 {
		return c
	}
	ch := &chain{inner: c, middlewares: middlewares}
	if _, ok := c.(SessionOpener); ok {
		return &sessionChain{chain: ch}
	}
	return ch
}

func (c *chain) Execute(ctx context.Context, sql string, params []any, opts Options) (*Result, error) {
	event := &QueryEvent{
		SQL:    sql,
		Params: params,
		Silent: opts.SilentErrors,
		Start:  time.Now(),
	}

	index := 0
	var next func() error
	next = func() error {
		if index >= len(c.middlewares) {
			res, err := c.inner.Execute(ctx, sql, params, opts)
			event.End = time.Now()
			event.Duration = event.End.Sub(event.Start)
			event.Result = res
			event.Error = err
			return err
		}
		mw := c.middlewares[index]
		index++
		return mw(ctx, event, next)
	}

	err := next()
	return event.Result, err
}

type sessionChain struct {
	*chain
}

func (c *sessionChain) Session(ctx context.Context) (Session, error) {
	s, err := c.inner.(SessionOpener).Session(ctx)
	if err != nil {
		return nil, err
	}
	return &session{chain: &chain{inner: s, middlewares: c.middlewares}, closer: s}, nil
}

type session struct {
	*chain
	closer Session
}

func (s *session) Close() error { return s.closer.Close() }

// LoggingMiddleware logs every statement at debug level and failures at
// error level. Suppressed failures stay at debug.
func LoggingMiddleware(logger *slog.Logger) Middleware {
	return func(ctx context.Context, event *QueryEvent, next func() error) error {
		logger.Debug("Executing query", "sql", event.SQL, "params", event.Params)
		err := next()
		switch {
		case err != nil && event.Silent:
			logger.Debug("Query failed silently", "sql", event.SQL, "error", err)
		case err != nil:
			logger.Error("Query failed", "sql", event.SQL, "error", err)
		default:
			logger.Debug("Query completed", "duration", event.Duration)
		}
		return err
	}
}

// TimingMiddleware reports the duration of every statement.
func TimingMiddleware(onTiming func(sql string, duration time.Duration)) Middleware {
	return func(ctx context.Context, event *QueryEvent, next func() error) error {
		err := next()
		if onTiming != nil {
			onTiming(event.SQL, event.Duration)
		}
		return err
	}
}

// ErrorMiddleware reports failures that are not suppressed.
func ErrorMiddleware(onError func(sql string, err error)) Middleware {
	return func(ctx context.Context, event *QueryEvent, next func() error) error {
		err := next()
		if err != nil && !event.Silent && onError != nil {
			onError(event.SQL, err)
		}
		return err
	}
}
