package client

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/prisma-edge/connector"
	"github.com/satishbabariya/prisma-edge/connector/mysql"
	"github.com/satishbabariya/prisma-edge/internal/blogtest"
	"github.com/satishbabariya/prisma-edge/query/ast"
	"github.com/satishbabariya/prisma-edge/query/cache"
	"github.com/satishbabariya/prisma-edge/query/executor"
	"github.com/satishbabariya/prisma-edge/telemetry"
)

func newClient(t *testing.T, opts ...Option) (*Client, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(mysql.New(db), blogtest.Registry(), opts...), mock
}

func posts(t *testing.T, c *Client) *ModelClient {
	t.Helper()
	m, err := c.Model("Post")
	require.NoError(t, err)
	return m
}

func jsonRows(doc string) *sqlmock.Rows {
	return sqlmock.NewRowsWithColumnDefinition(sqlmock.NewColumn("json").OfType("JSON", "")).AddRow(doc)
}

func sqlOf(t *testing.T, m *ModelClient, verb ast.Verb, args ast.Args) []string {
	t.Helper()
	ops, err := m.Plan(verb, args)
	require.NoError(t, err)
	out := make([]string, len(ops))
	for i, op := range ops {
		out[i] = regexp.QuoteMeta(op.SQL)
	}
	return out
}

func TestFindUnique(t *testing.T) {
	c, mock := newClient(t)
	m := posts(t, c)
	args := ast.Args{Select: ast.O("title", true), Where: ast.O("uuid", "p-1")}
	q := sqlOf(t, m, ast.VerbFindUnique, args)

	mock.ExpectQuery(q[0]).WithArgs("p-1").WillReturnRows(jsonRows(`{"title": "Hello"}`))

	row, err := m.FindUnique(context.Background(), args)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"title": "Hello"}, row)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindUniqueNoRow(t *testing.T) {
	c, mock := newClient(t)
	m := posts(t, c)
	args := ast.Args{Select: ast.O("title", true), Where: ast.O("uuid", "missing")}
	q := sqlOf(t, m, ast.VerbFindUnique, args)

	mock.ExpectQuery(q[0]).WithArgs("missing").
		WillReturnRows(sqlmock.NewRowsWithColumnDefinition(sqlmock.NewColumn("json").OfType("JSON", "")))

	row, err := m.FindUnique(context.Background(), args)
	require.NoError(t, err)
	assert.Nil(t, row)
}

func TestFindManyWithRelation(t *testing.T) {
	c, mock := newClient(t)
	m := posts(t, c)
	args := ast.Args{
		Select: ast.O("title", true, "author", ast.O("select", ast.O("name", true))),
		Where:  ast.O("title", ast.O("contains", "world")),
	}
	q := sqlOf(t, m, ast.VerbFindMany, args)
	assert.Contains(t, q[0], "JSON_ARRAYAGG")

	mock.ExpectQuery(q[0]).WithArgs("%world%").
		WillReturnRows(jsonRows(`[{"title": "Hello world", "author": {"name": "Ada"}}]`))

	rows, err := m.FindMany(context.Background(), args)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, map[string]any{"name": "Ada"}, rows[0]["author"])
}

func TestFindManyEmpty(t *testing.T) {
	c, mock := newClient(t)
	m := posts(t, c)
	args := ast.Args{Select: ast.O("title", true)}
	q := sqlOf(t, m, ast.VerbFindMany, args)

	mock.ExpectQuery(q[0]).
		WillReturnRows(sqlmock.NewRowsWithColumnDefinition(sqlmock.NewColumn("json").OfType("JSON", "")).AddRow(nil))

	rows, err := m.FindMany(context.Background(), args)
	require.NoError(t, err)
	assert.Equal(t, []map[string]any{}, rows)
}

func TestCount(t *testing.T) {
	c, mock := newClient(t)
	m := posts(t, c)
	args := ast.Args{Where: ast.O("published", true)}
	q := sqlOf(t, m, ast.VerbCount, args)

	mock.ExpectQuery(q[0]).WithArgs(true).WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow("3"))

	n, err := m.Count(context.Background(), args)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestCreate(t *testing.T) {
	c, mock := newClient(t)
	m := posts(t, c)
	args := ast.Args{Select: ast.O("uuid", true, "title", true), Data: ast.O("title", "Hello")}
	q := sqlOf(t, m, ast.VerbCreate, args)
	require.Len(t, q, 3)

	mock.ExpectQuery(q[0]).WillReturnRows(jsonRows(`{"pk": "p-new"}`))
	mock.ExpectExec(q[1]).WithArgs("p-new", "Hello").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(q[2]).WithArgs("p-new").WillReturnRows(jsonRows(`{"uuid": "p-new", "title": "Hello"}`))

	row, err := m.Create(context.Background(), args)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"uuid": "p-new", "title": "Hello"}, row)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAutoIncrement(t *testing.T) {
	c, mock := newClient(t)
	m, err := c.Model("Comment")
	require.NoError(t, err)
	args := ast.Args{Select: ast.O("id", true), Data: ast.O("body", "hi")}
	q := sqlOf(t, m, ast.VerbCreate, args)
	require.Len(t, q, 3)

	mock.ExpectExec(q[0]).WithArgs("hi").WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectQuery(q[1]).WillReturnRows(jsonRows(`{"pk": 7}`))
	mock.ExpectQuery(q[2]).WithArgs("7").WillReturnRows(jsonRows(`{"id": 7}`))

	row, err := m.Create(context.Background(), args)
	require.NoError(t, err)
	id, err := Decode[struct{ ID int64 }](row)
	require.NoError(t, err)
	assert.Equal(t, int64(7), id.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func upsertArgs() ast.Args {
	return ast.Args{
		Select: ast.O("title", true),
		Where:  ast.O("uuid", "p-1"),
		Update: ast.O("title", "updated"),
		Create: ast.O("title", "created"),
	}
}

func TestUpsertUpdatesExistingRow(t *testing.T) {
	c, mock := newClient(t)
	m := posts(t, c)
	q := sqlOf(t, m, ast.VerbUpsert, upsertArgs())
	require.Len(t, q, 5)

	mock.ExpectExec(q[0]).WithArgs("updated", "p-1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(q[4]).WithArgs("p-1").WillReturnRows(jsonRows(`{"title": "updated"}`))

	row, err := m.Upsert(context.Background(), upsertArgs())
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"title": "updated"}, row)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertCreatesMissingRow(t *testing.T) {
	c, mock := newClient(t)
	m := posts(t, c)
	q := sqlOf(t, m, ast.VerbUpsert, upsertArgs())

	mock.ExpectExec(q[0]).WithArgs("updated", "p-1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(q[1]).WillReturnRows(jsonRows(`{"pk": "p-2"}`))
	mock.ExpectExec(q[2]).WithArgs("p-2", "created").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(q[3]).WithArgs("p-2").WillReturnRows(jsonRows(`{"title": "created"}`))

	row, err := m.Upsert(context.Background(), upsertArgs())
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"title": "created"}, row)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteReturnsDeletedRow(t *testing.T) {
	c, mock := newClient(t)
	m := posts(t, c)
	args := ast.Args{Select: ast.O("title", true), Where: ast.O("uuid", "p-1")}
	q := sqlOf(t, m, ast.VerbDelete, args)

	mock.ExpectQuery(q[0]).WithArgs("p-1").WillReturnRows(jsonRows(`{"title": "gone"}`))
	mock.ExpectExec(q[1]).WithArgs("p-1").WillReturnResult(sqlmock.NewResult(0, 1))

	row, err := m.Delete(context.Background(), args)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"title": "gone"}, row)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUnknownModel(t *testing.T) {
	c, _ := newClient(t)
	_, err := c.Model("Invoice")
	assert.True(t, errors.Is(err, ErrUnknownModel))
}

func TestStrictRejectsMalformedQuery(t *testing.T) {
	c, mock := newClient(t, WithStrict(true))
	m := posts(t, c)

	_, err := m.FindMany(context.Background(), ast.Args{Where: ast.O("unknown", 1)})
	assert.True(t, errors.Is(err, ast.ErrMalformedDescriptor))
	require.NoError(t, mock.ExpectationsWereMet(), "nothing reaches the database")
}

func TestLenientDropsMalformedFragment(t *testing.T) {
	c, mock := newClient(t)
	m := posts(t, c)
	args := ast.Args{Select: ast.O("title", true), Where: ast.O("unknown", 1, "uuid", "p-1")}
	q := sqlOf(t, m, ast.VerbFindUnique, args)
	assert.NotContains(t, q[0], "unknown")

	mock.ExpectQuery(q[0]).WithArgs("p-1").WillReturnRows(jsonRows(`{"title": "Hello"}`))
	_, err := m.FindUnique(context.Background(), args)
	require.NoError(t, err)
}

func TestConnectorFailure(t *testing.T) {
	c, mock := newClient(t)
	m := posts(t, c)
	args := ast.Args{Data: ast.O("title", "x")}
	q := sqlOf(t, m, ast.VerbCreate, args)

	mock.ExpectQuery(q[0]).WillReturnRows(jsonRows(`{"pk": "p-new"}`))
	mock.ExpectExec(q[1]).WillReturnError(errors.New("Duplicate entry"))

	_, err := m.Create(context.Background(), args)
	require.Error(t, err)
	assert.True(t, errors.Is(err, executor.ErrConnectorExecution))
	assert.Contains(t, err.Error(), "post.create")
}

func TestMiddlewareExtensionsAndMetrics(t *testing.T) {
	metrics, err := telemetry.New(prometheus.NewRegistry())
	require.NoError(t, err)

	var statements []string
	var calls []string
	c, mock := newClient(t,
		WithMiddleware(connector.TimingMiddleware(func(sql string, d time.Duration) {
			statements = append(statements, sql)
		})),
		WithMetrics(metrics),
		WithExtension(TimingExtension(func(model string, verb ast.Verb, d time.Duration) {
			calls = append(calls, model+"."+string(verb))
		})),
	)
	m := posts(t, c)
	q := sqlOf(t, m, ast.VerbUpsert, upsertArgs())
	mock.ExpectExec(q[0]).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(q[4]).WillReturnRows(jsonRows(`{"title": "updated"}`))

	_, err = m.Upsert(context.Background(), upsertArgs())
	require.NoError(t, err)

	assert.Len(t, statements, 2)
	assert.Equal(t, []string{"post.upsert"}, calls)
	snap := metrics.Snapshot()
	assert.Equal(t, 2.0, snap.Executed)
	assert.Equal(t, 3.0, snap.Skipped)
	assert.Equal(t, 1.0, snap.Calls)
}

func TestResultTransformationExtension(t *testing.T) {
	c, mock := newClient(t, WithExtension(ResultTransformationExtension(func(cc *CallContext, result any) any {
		row := result.(map[string]any)
		row["model"] = cc.Model
		return row
	})))
	m := posts(t, c)
	args := ast.Args{Select: ast.O("title", true), Where: ast.O("uuid", "p-1")}
	q := sqlOf(t, m, ast.VerbFindUnique, args)
	mock.ExpectQuery(q[0]).WillReturnRows(jsonRows(`{"title": "Hello"}`))

	row, err := m.FindUnique(context.Background(), args)
	require.NoError(t, err)
	assert.Equal(t, "post", row["model"])
}

func TestBeforeHookCancelsCall(t *testing.T) {
	denied := errors.New("read only")
	c, mock := newClient(t, WithExtension(Extension{
		Name: "read-only",
		BeforeMutation: func(cc *CallContext, next func() error) error {
			return denied
		},
	}))
	m := posts(t, c)

	_, err := m.Delete(context.Background(), ast.Args{Where: ast.O("uuid", "p-1")})
	assert.True(t, errors.Is(err, denied))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAsCount(t *testing.T) {
	for _, v := range []any{int64(4), "4", 4.0, map[string]any{"count": int64(4)}} {
		n, err := asCount(v)
		require.NoError(t, err)
		assert.Equal(t, int64(4), n)
	}
	_, err := asCount([]any{})
	assert.True(t, errors.Is(err, ErrUnexpectedResult))
}

func TestPlanCacheReusesPipeline(t *testing.T) {
	plans := cache.New(8, 0)
	c, mock := newClient(t, WithPlanCache(plans))
	m := posts(t, c)
	args := ast.Args{Select: ast.O("title", true), Where: ast.O("uuid", "p-1")}
	q := sqlOf(t, m, ast.VerbFindUnique, args)

	for i := 0; i < 2; i++ {
		mock.ExpectQuery(q[0]).WithArgs("p-1").WillReturnRows(jsonRows(`{"title": "Hello"}`))
		row, err := m.FindUnique(context.Background(), args)
		require.NoError(t, err)
		assert.Equal(t, "Hello", row["title"])
	}
	require.NoError(t, mock.ExpectationsWereMet())

	s := plans.Stats()
	assert.Equal(t, 1, s.Size)
	assert.Equal(t, int64(1), s.Misses)
	assert.Equal(t, int64(2), s.Hits)

	// A different value compiles a new pipeline.
	_, err := m.Plan(ast.VerbFindUnique, ast.Args{Select: ast.O("title", true), Where: ast.O("uuid", "p-2")})
	require.NoError(t, err)
	assert.Equal(t, 2, plans.Stats().Size)
}
