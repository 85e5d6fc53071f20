package planner

import (
	"github.com/satishbabariya/prisma-edge/model"
	"github.com/satishbabariya/prisma-edge/query/ast"
	"github.com/satishbabariya/prisma-edge/query/sqlgen"
)

// branch carries the directives every operation of a conditional sequence
// gets, as in the create half of an upsert.
type branch struct {
	when   Condition
	silent Condition
	scope  string
}

func (b branch) apply(op Operation) Operation {
	op.Directive.When = b.when
	op.Directive.Silent = b.silent
	return op
}

func (b branch) scopeOr(def string) string {
	if b.scope != "" {
		return b.scope
	}
	return def
}

// create plans key probe, connect lookups, INSERT and the read-back by
// primary key. A key the client can compute (or the caller supplied) is
// probed before the INSERT; an auto-increment key is read with
// LAST_INSERT_ID() right after it. LAST_INSERT_ID() is per connection and
// survives a failed INSERT, so the key select only reads it when the INSERT
// affected a row.
func create(q *ast.Query, data []ast.Write, br branch) []Operation {
	m := q.Model
	pk := m.PrimaryKey
	scope := br.scopeOr("create")

	supplied, hasSupplied := suppliedKey(data, pk.Field)
	probeFirst := hasSupplied || pk.Strategy != model.KeyAutoIncrement

	var probe Operation
	switch {
	case hasSupplied || pk.Strategy == model.KeySupplied:
		probe = probeOp(`JSON_OBJECT("pk", ?)`, supplied)
	case pk.Strategy == model.KeyExpression:
		probe = probeOp(`JSON_OBJECT("pk", ` + pk.Expression + `)`)
	default:
		probe = probeOp(`JSON_OBJECT("pk", IF(?, LAST_INSERT_ID(), NULL))`, Placeholder(KeyInserted))
		probe.Directive.Before = []Binding{{Placeholder: Placeholder(KeyInserted), Key: KeyInserted}}
	}

	ins := sqlgen.InsertInto(m.Table)
	var binds []Binding
	if pk.Strategy == model.KeyExpression && !hasSupplied {
		ins = ins.Values(pk.Field, m.Column(pk.Field).WriteExpr("?"), Placeholder(KeyInsertID))
		binds = append(binds, Binding{Placeholder: Placeholder(KeyInsertID), Key: KeyInsertID})
	}
	for _, w := range data {
		col, value := column(m, w, scope)
		ins = ins.Values(col, m.Column(col).WriteExpr("?"), value)
	}
	binds = append(binds, connectBindings(data, scope)...)
	stmt := ins.Exec()
	insert := Operation{
		Label:       "insert",
		SQL:         stmt.SQL,
		Params:      stmt.Params,
		Directive:   Directive{Before: binds},
		Cardinality: model.One,
	}
	if !probeFirst {
		insert.Directive.After = Capture{Kind: CaptureTruthy, Key: KeyInserted}
	}

	var ops []Operation
	if probeFirst {
		ops = append(ops, probe)
	}
	ops = append(ops, connectLookups(data, scope)...)
	ops = append(ops, insert)
	if !probeFirst {
		ops = append(ops, probe)
	}
	ops = append(ops, readBack(q))

	for i := range ops {
		ops[i] = br.apply(ops[i])
	}
	return ops
}

func probeOp(expr string, params ...any) Operation {
	stmt := sqlgen.Select(expr).Exec()
	return Operation{
		Label:       "probe",
		SQL:         stmt.SQL,
		Params:      append(stmt.Params, params...),
		Directive:   Directive{After: Capture{Kind: CaptureField, Key: KeyInsertID, Field: "pk"}},
		Cardinality: model.One,
	}
}

// readBack selects the new row by the key held in storage.
func readBack(q *ast.Query) Operation {
	m := q.Model
	w := sqlgen.CompileWhere([]ast.Filter{
		ast.ScalarLeaf{Field: m.PrimaryKey.Field, Value: Placeholder(KeyInsertID)},
	}, m)
	stmt := sqlgen.Select(selection(q)).From(m.Table).Where(w).Exec()
	return Operation{
		Label:         "select",
		SQL:           stmt.SQL,
		Params:        stmt.Params,
		Directive:     Directive{Before: []Binding{{Placeholder: Placeholder(KeyInsertID), Key: KeyInsertID}}},
		Cardinality:   model.One,
		ResultBearing: true,
	}
}

func suppliedKey(data []ast.Write, field string) (any, bool) {
	for _, w := range data {
		if v, ok := w.(ast.Value); ok && v.Field == field {
			return v.Value, true
		}
	}
	return nil, false
}

// column maps a write entry onto the column it sets. A connect writes the
// foreign key: the referenced value when the connect filter names it,
// otherwise a placeholder filled from its lookup.
func column(m *model.Descriptor, w ast.Write, scope string) (string, any) {
	switch w := w.(type) {
	case ast.Value:
		return w.Field, w.Value
	case ast.Connect:
		if w.HasKey {
			return w.Relation.From.Column, w.Key
		}
		return w.Relation.From.Column, Placeholder(connectKey(scope, w.Field))
	}
	return "", nil
}

func connectKey(scope, field string) string {
	return "connect:" + scope + ":" + field
}

// connectLookups emits one SELECT per connect entry resolving the related
// row's key. Lookups whose key is already known run without a directive.
func connectLookups(data []ast.Write, scope string) []Operation {
	var ops []Operation
	for _, w := range data {
		c, ok := w.(ast.Connect)
		if !ok {
			continue
		}
		to := c.Relation.To.Column
		proj := sqlgen.CompileProjection([]ast.Projection{
			ast.Expr{Key: "key", SQL: c.Model.Column(to).ReadExpr("`" + to + "`")},
		}, c.Model, model.One)
		one := 1
		stmt := rows(proj, c.Model, sqlgen.CompileWhere(c.Where, c.Model), nil, &one, false).Exec()
		op := Operation{
			Label:       "connect " + c.Field,
			SQL:         stmt.SQL,
			Params:      stmt.Params,
			Cardinality: model.One,
		}
		if !c.HasKey {
			op.Directive.After = Capture{Kind: CaptureField, Key: connectKey(scope, c.Field), Field: "key", Required: true}
		}
		ops = append(ops, op)
	}
	return ops
}

func connectBindings(data []ast.Write, scope string) []Binding {
	var binds []Binding
	for _, w := range data {
		if c, ok := w.(ast.Connect); ok && !c.HasKey {
			key := connectKey(scope, c.Field)
			binds = append(binds, Binding{Placeholder: Placeholder(key), Key: key})
		}
	}
	return binds
}
