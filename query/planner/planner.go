package planner

import (
	"github.com/cockroachdb/errors"

	"github.com/satishbabariya/prisma-edge/model"
	"github.com/satishbabariya/prisma-edge/query/ast"
	"github.com/satishbabariya/prisma-edge/query/sqlgen"
)

// ErrUnsupportedVerb is returned for a verb the planner does not know.
var ErrUnsupportedVerb = errors.New("unsupported verb")

// Plan returns the pipeline for q. It is pure: the same query always yields
// the same operations and nothing is executed.
func Plan(q *ast.Query) ([]Operation, error) {
	switch q.Verb {
	case ast.VerbFindUnique:
		return []Operation{findUnique(q)}, nil
	case ast.VerbFindMany:
		return []Operation{findMany(q)}, nil
	case ast.VerbCount:
		return []Operation{count(q)}, nil
	case ast.VerbCreate:
		return create(q, q.Data, branch{}), nil
	case ast.VerbUpdate:
		return update(q), nil
	case ast.VerbUpsert:
		return upsert(q), nil
	case ast.VerbDelete:
		return remove(q), nil
	}
	return nil, errors.Wrapf(ErrUnsupportedVerb, "%q", q.Verb)
}

// selection is the projection for a single-row read, or the model's
// select-all expression when the caller selected nothing.
func selection(q *ast.Query) string {
	if q.Select == nil {
		return q.Model.SelectAll
	}
	return sqlgen.CompileProjection(q.Select, q.Model, model.One)
}

// rows selects expr over the rows of m matched by w. A filter that joins
// related tables is resolved in a derived table of distinct root rows, so
// expr only sees m's columns and a to-many join cannot repeat a row. An
// aggregated expr is paginated the same way, since LIMIT would otherwise
// apply to the single aggregate row.
func rows(expr string, m *model.Descriptor, w sqlgen.Where, skip, take *int, aggregated bool) sqlgen.Builder {
	if !w.Joined() && !(aggregated && paginated(skip, take)) {
		return sqlgen.Select(expr).From(m.Table).Where(w).Limit(skip, take)
	}
	cols := m.Table + ".*"
	if w.Joined() {
		cols = "DISTINCT " + cols
	}
	inner := sqlgen.Select(cols).From(m.Table).Where(w).Limit(skip, take).Exec()
	return sqlgen.Select(expr).FromSubquery(inner, m.Table)
}

func findUnique(q *ast.Query) Operation {
	w := sqlgen.CompileWhere(q.Where, q.Model)
	stmt := rows(selection(q), q.Model, w, q.Skip, q.Take, false).Exec()
	return Operation{
		Label:         "select",
		SQL:           stmt.SQL,
		Params:        stmt.Params,
		Cardinality:   model.One,
		ResultBearing: true,
	}
}

// findMany aggregates every matching row into one JSON array, or returns
// the rows as they are when nothing is selected.
func findMany(q *ast.Query) Operation {
	m := q.Model
	w := sqlgen.CompileWhere(q.Where, m)
	var stmt sqlgen.Statement
	if q.Select == nil {
		stmt = rows(m.SelectAll, m, w, q.Skip, q.Take, false).Exec()
	} else {
		stmt = rows(sqlgen.CompileProjection(q.Select, m, model.Many), m, w, q.Skip, q.Take, true).Exec()
	}
	return Operation{
		Label:         "select",
		SQL:           stmt.SQL,
		Params:        stmt.Params,
		Cardinality:   model.Many,
		ResultBearing: true,
	}
}

func paginated(skip, take *int) bool {
	return (skip != nil && *skip > 0) || take != nil
}

// count counts distinct keys when a join could repeat a row.
func count(q *ast.Query) Operation {
	m := q.Model
	w := sqlgen.CompileWhere(q.Where, m)
	expr := "COUNT(*) AS count"
	if w.Joined() {
		expr = "COUNT(DISTINCT " + m.Table + "." + m.PrimaryKey.Field + ") AS count"
	}
	stmt := sqlgen.Select(expr).From(m.Table).Where(w).Exec()
	return Operation{
		Label:         "count",
		SQL:           stmt.SQL,
		Params:        stmt.Params,
		Cardinality:   model.One,
		ResultBearing: true,
	}
}

// update sets the columns, then reads the row back with the same filter.
func update(q *ast.Query) []Operation {
	ops, stmt := updateStatement(q, q.Data, "update")
	ops = append(ops,
		Operation{
			Label:       "update",
			SQL:         stmt.SQL,
			Params:      stmt.Params,
			Directive:   Directive{Before: connectBindings(q.Data, "update")},
			Cardinality: model.One,
		},
		reread(q),
	)
	return ops
}

// updateStatement returns the connect lookups the UPDATE depends on and the
// UPDATE itself. An empty write map assigns the key to itself so the
// statement still reports the matched rows.
func updateStatement(q *ast.Query, data []ast.Write, scope string) ([]Operation, sqlgen.Statement) {
	m := q.Model
	ops := connectLookups(data, scope)
	b := sqlgen.Update(m.Table)
	for _, w := range data {
		col, value := column(m, w, scope)
		b = b.Set(col, m.Column(col).WriteExpr("?"), value)
	}
	w := sqlgen.CompileWhere(q.Where, m)
	if len(data) == 0 {
		pk := m.PrimaryKey.Field
		self := "`" + pk + "`"
		if w.Joined() {
			self = m.Table + "." + pk
		}
		b = b.Set(pk, self)
	}
	return ops, b.Where(w).Exec()
}

func reread(q *ast.Query) Operation {
	op := findUnique(&ast.Query{Verb: ast.VerbFindUnique, Model: q.Model, Select: q.Select, Where: q.Where})
	return op
}

// remove reads the row before deleting it; the DELETE response carries no
// row data.
func remove(q *ast.Query) []Operation {
	before := findUnique(&ast.Query{Verb: ast.VerbFindUnique, Model: q.Model, Select: q.Select, Where: q.Where})
	stmt := sqlgen.DeleteFrom(q.Model.Table).Where(sqlgen.CompileWhere(q.Where, q.Model)).Exec()
	return []Operation{
		before,
		{
			Label:       "delete",
			SQL:         stmt.SQL,
			Params:      stmt.Params,
			Cardinality: model.One,
		},
	}
}
