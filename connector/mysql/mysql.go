// Package mysql is the connector for MySQL-compatible servers over
// database/sql and go-sql-driver/mysql.
package mysql

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/satishbabariya/prisma-edge/connector"
	"github.com/satishbabariya/prisma-edge/internal/debug"
)

const pingTimeout = 5 * time.Second

// querier is satisfied by *sql.DB and *sql.Conn.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Connector runs statements on a connection pool.
type Connector struct {
	db     *sql.DB
	logger *slog.Logger
}

var _ connector.Connector = (*Connector)(nil)
var _ connector.SessionOpener = (*Connector)(nil)

// Option configures a Connector.
type Option func(*Connector)

// WithLogger sets the connector's logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Connector) { c.logger = l }
}

// Open connects to the database at urlstr, pings it and verifies the
// server supports the JSON functions the generated SQL relies on.
func Open(ctx context.Context, urlstr string, opts ...Option) (*Connector, error) {
	dsn, err := ParseURL(urlstr)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "unable to create connection")
	}
	c := New(db, opts...)
	if err := c.verify(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

// New wraps an open pool without checking it.
func New(db *sql.DB, opts ...Option) *Connector {
	c := &Connector{db: db, logger: debug.Logger()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Connector) verify(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := c.db.PingContext(ctx); err != nil {
		return errors.Wrap(err, "unable to ping db")
	}
	var v string
	if err := c.db.QueryRowContext(ctx, "SELECT VERSION()").Scan(&v); err != nil {
		return errors.Wrap(err, "unable to read server version")
	}
	c.logger.Debug("Connected", "version", v)
	return CheckServerVersion(v)
}

// DB returns the underlying pool.
func (c *Connector) DB() *sql.DB { return c.db }

// Close closes the pool.
func (c *Connector) Close() error { return c.db.Close() }

// Execute runs one statement on any pooled connection.
func (c *Connector) Execute(ctx context.Context, query string, params []any, opts connector.Options) (*connector.Result, error) {
	return execute(ctx, c.db, c.logger, query, params, opts)
}

// Session pins one pooled connection until Close.
func (c *Connector) Session(ctx context.Context) (connector.Session, error) {
	conn, err := c.db.Conn(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "unable to acquire connection")
	}
	return &session{conn: conn, logger: c.logger}, nil
}

type session struct {
	conn   *sql.Conn
	logger *slog.Logger
}

func (s *session) Execute(ctx context.Context, query string, params []any, opts connector.Options) (*connector.Result, error) {
	return execute(ctx, s.conn, s.logger, query, params, opts)
}

func (s *session) Close() error { return s.conn.Close() }

func execute(ctx context.Context, q querier, logger *slog.Logger, query string, params []any, opts connector.Options) (*connector.Result, error) {
	var (
		res *connector.Result
		err error
	)
	if returnsRows(query) {
		res, err = runQuery(ctx, q, query, params)
	} else {
		res, err = runExec(ctx, q, query, params)
	}
	if err != nil {
		// Reporting is left to middleware; a silent failure is expected.
		logger.Debug("Statement failed", "silent", opts.SilentErrors, "error", err)
		return nil, err
	}
	return res, nil
}

func runQuery(ctx context.Context, q querier, query string, params []any) (*connector.Result, error) {
	rows, err := q.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, errors.Wrap(err, "query")
	}
	defer rows.Close()

	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, errors.Wrap(err, "column types")
	}
	res := &connector.Result{Columns: make([]connector.Column, len(types))}
	for i, ct := range types {
		res.Columns[i] = connector.Column{
			Name: ct.Name(),
			JSON: strings.EqualFold(ct.DatabaseTypeName(), "JSON"),
		}
	}

	for rows.Next() {
		cells := make([]any, len(types))
		ptrs := make([]any, len(types))
		for i := range cells {
			ptrs[i] = &cells[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, errors.Wrap(err, "scan")
		}
		for i, col := range res.Columns {
			cells[i], err = decodeCell(cells[i], col.JSON)
			if err != nil {
				return nil, errors.Wrapf(err, "decode column %q", col.Name)
			}
		}
		res.Rows = append(res.Rows, cells)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "rows")
	}
	return res, nil
}

func runExec(ctx context.Context, q querier, query string, params []any) (*connector.Result, error) {
	r, err := q.ExecContext(ctx, query, params...)
	if err != nil {
		return nil, errors.Wrap(err, "exec")
	}
	res := &connector.Result{}
	if n, err := r.RowsAffected(); err == nil {
		res.RowsAffected = n
	}
	if id, err := r.LastInsertId(); err == nil {
		res.LastInsertID = id
	}
	return res, nil
}

// decodeCell turns the driver's text values into strings and parses JSON
// columns. Numbers inside JSON stay json.Number so BIGINT keys survive.
func decodeCell(v any, isJSON bool) (any, error) {
	var raw []byte
	switch t := v.(type) {
	case nil:
		return nil, nil
	case []byte:
		raw = t
	case string:
		if !isJSON {
			return t, nil
		}
		raw = []byte(t)
	default:
		return v, nil
	}
	if !isJSON {
		return string(raw), nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// returnsRows reports whether the statement is read with QueryContext.
func returnsRows(query string) bool {
	s := strings.TrimLeft(query, " \t\r\n(")
	end := strings.IndexAny(s, " \t\r\n(")
	if end < 0 {
		end = len(s)
	}
	switch strings.ToUpper(s[:end]) {
	case "SELECT", "WITH", "SHOW", "DESCRIBE", "EXPLAIN", "VALUES", "TABLE":
		return true
	}
	return false
}
