// Package client is the per-model runtime surface: every call is normalized,
// planned into a statement pipeline and run on the connector.
package client

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/satishbabariya/prisma-edge/connector"
	"github.com/satishbabariya/prisma-edge/internal/debug"
	"github.com/satishbabariya/prisma-edge/model"
	"github.com/satishbabariya/prisma-edge/query/ast"
	"github.com/satishbabariya/prisma-edge/query/cache"
	"github.com/satishbabariya/prisma-edge/query/executor"
	"github.com/satishbabariya/prisma-edge/query/planner"
	"github.com/satishbabariya/prisma-edge/telemetry"
)

// Client holds the connector and the registered models.
type Client struct {
	conn       connector.Connector
	registry   *model.Registry
	strict     bool
	logger     *slog.Logger
	observers  []executor.Observer
	metrics    *telemetry.Metrics
	extensions *ExtensionChain
	plans      *cache.PlanCache
}

// Option configures a Client.
type Option func(*Client)

// WithStrict rejects malformed query descriptors instead of dropping the
// offending fragment.
func WithStrict(strict bool) Option {
	return func(c *Client) { c.strict = strict }
}

// WithMiddleware wraps the connector. The first middleware is outermost.
func WithMiddleware(mws ...connector.Middleware) Option {
	return func(c *Client) { c.conn = connector.Use(c.conn, mws...) }
}

// WithLogger sets the base logger; every call derives one tagged with its
// call id.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithObserver receives statement outcomes of every pipeline.
func WithObserver(o executor.Observer) Option {
	return func(c *Client) { c.observers = append(c.observers, o) }
}

// WithMetrics records statements and calls on m.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
		c.observers = append(c.observers, m)
	}
}

// WithPlanCache reuses compiled pipelines for repeated descriptors.
func WithPlanCache(pc *cache.PlanCache) Option {
	return func(c *Client) { c.plans = pc }
}

// WithExtension adds call hooks.
func WithExtension(ext Extension) Option {
	return func(c *Client) { c.extensions.Add(ext) }
}

// New returns a client for the registered models.
func New(conn connector.Connector, registry *model.Registry, opts ...Option) *Client {
	c := &Client{
		conn:       conn,
		registry:   registry,
		logger:     debug.Logger(),
		extensions: NewExtensionChain(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Registry returns the registered models.
func (c *Client) Registry() *model.Registry { return c.registry }

// Model returns the client for the model registered under name.
func (c *Client) Model(name string) (*ModelClient, error) {
	m, ok := c.registry.Model(name)
	if !ok {
		return nil, errors.Wrapf(ErrUnknownModel, "%q", name)
	}
	return &ModelClient{client: c, model: m}, nil
}

// ModelClient runs CRUD verbs against one model.
type ModelClient struct {
	client *Client
	model  *model.Descriptor
}

// Descriptor returns the model's descriptor.
func (m *ModelClient) Descriptor() *model.Descriptor { return m.model }

// Plan normalizes args and returns the pipeline without running it.
func (m *ModelClient) Plan(verb ast.Verb, args ast.Args) ([]planner.Operation, error) {
	return m.plan(debug.Logger(), verb, args)
}

func (m *ModelClient) plan(logger *slog.Logger, verb ast.Verb, args ast.Args) ([]planner.Operation, error) {
	c := m.client
	compile := func() ([]planner.Operation, error) {
		q, err := ast.Normalize(verb, args, m.model, c.registry, ast.Options{
			Strict: c.strict,
			Logger: logger,
		})
		if err != nil {
			return nil, err
		}
		return planner.Plan(q)
	}
	if c.plans == nil {
		return compile()
	}
	key, ok := cache.Key(m.model.Name, verb, c.strict, args)
	if !ok {
		return compile()
	}
	return c.plans.GetOrCompile(key, compile)
}

// Do runs verb and returns the decoded result of the pipeline.
func (m *ModelClient) Do(ctx context.Context, verb ast.Verb, args ast.Args) (any, error) {
	c := m.client
	logger, id := debug.Call(c.logger)
	logger = logger.With("model", m.model.Name, "verb", string(verb))

	cc := &CallContext{
		Context: ctx,
		CallID:  id,
		Model:   m.model.Name,
		Verb:    verb,
		Args:    args,
	}
	start := time.Now()
	result, err := c.extensions.Execute(cc, func() (any, error) {
		ops, err := m.plan(logger, verb, args)
		if err != nil {
			return nil, err
		}
		logger.Debug("Prepare " + string(verb) + " SQL statement(s)")
		for _, op := range ops {
			logger.Debug(op.SQL, "params", op.Params, "directive", op.String())
		}
		opts := []executor.Option{executor.WithLogger(logger)}
		for _, o := range c.observers {
			opts = append(opts, executor.WithObserver(o))
		}
		return executor.Run(ctx, c.conn, ops, opts...)
	})
	if c.metrics != nil {
		c.metrics.RecordCall(string(verb), time.Since(start), err)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "%s.%s", m.model.Name, verb)
	}
	return result, nil
}

// FindUnique returns the first matching row, or nil.
func (m *ModelClient) FindUnique(ctx context.Context, args ast.Args) (map[string]any, error) {
	v, err := m.Do(ctx, ast.VerbFindUnique, args)
	if err != nil {
		return nil, err
	}
	return asRow(v)
}

// FindMany returns every matching row.
func (m *ModelClient) FindMany(ctx context.Context, args ast.Args) ([]map[string]any, error) {
	v, err := m.Do(ctx, ast.VerbFindMany, args)
	if err != nil {
		return nil, err
	}
	return asRows(v)
}

// Count returns the number of matching rows.
func (m *ModelClient) Count(ctx context.Context, args ast.Args) (int64, error) {
	v, err := m.Do(ctx, ast.VerbCount, args)
	if err != nil {
		return 0, err
	}
	return asCount(v)
}

// Create inserts a row and returns it as selected.
func (m *ModelClient) Create(ctx context.Context, args ast.Args) (map[string]any, error) {
	return m.row(ctx, ast.VerbCreate, args)
}

// Update changes the matching row and returns it as selected.
func (m *ModelClient) Update(ctx context.Context, args ast.Args) (map[string]any, error) {
	return m.row(ctx, ast.VerbUpdate, args)
}

// Upsert updates the matching row or creates one, and returns it.
func (m *ModelClient) Upsert(ctx context.Context, args ast.Args) (map[string]any, error) {
	return m.row(ctx, ast.VerbUpsert, args)
}

// Delete removes the matching row and returns it as it was.
func (m *ModelClient) Delete(ctx context.Context, args ast.Args) (map[string]any, error) {
	return m.row(ctx, ast.VerbDelete, args)
}

func (m *ModelClient) row(ctx context.Context, verb ast.Verb, args ast.Args) (map[string]any, error) {
	v, err := m.Do(ctx, verb, args)
	if err != nil {
		return nil, err
	}
	return asRow(v)
}

func asRow(v any) (map[string]any, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		return t, nil
	}
	return nil, errors.Wrapf(ErrUnexpectedResult, "want a row, got %T", v)
}

func asRows(v any) ([]map[string]any, error) {
	switch t := v.(type) {
	case nil:
		return []map[string]any{}, nil
	case []any:
		rows := make([]map[string]any, 0, len(t))
		for _, r := range t {
			row, err := asRow(r)
			if err != nil {
				return nil, err
			}
			if row != nil {
				rows = append(rows, row)
			}
		}
		return rows, nil
	case map[string]any:
		return []map[string]any{t}, nil
	}
	return nil, errors.Wrapf(ErrUnexpectedResult, "want rows, got %T", v)
}

// asCount reads the count column. The text protocol delivers it as a
// string, the binary protocol as an integer.
func asCount(v any) (int64, error) {
	if row, ok := v.(map[string]any); ok {
		v = row["count"]
	}
	switch t := v.(type) {
	case nil:
		return 0, nil
	case int64:
		return t, nil
	case int:
		return int64(t), nil
	case uint64:
		return int64(t), nil
	case float64:
		return int64(t), nil
	case string:
		return strconv.ParseInt(t, 10, 64)
	case interface{ Int64() (int64, error) }:
		return t.Int64()
	}
	return 0, errors.Wrapf(ErrUnexpectedResult, "want a count, got %T", v)
}
