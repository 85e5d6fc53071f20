package planner

import (
	"github.com/satishbabariya/prisma-edge/model"
	"github.com/satishbabariya/prisma-edge/query/ast"
)

// upsert tries the UPDATE first and records whether it matched a row. The
// create sequence runs only when it did not; the trailing SELECT only when
// it did. Exactly one of the two result-bearing reads reaches the connector.
func upsert(q *ast.Query) []Operation {
	ops, stmt := updateStatement(q, q.Update, "update")
	ops = append(ops, Operation{
		Label:  "update",
		SQL:    stmt.SQL,
		Params: stmt.Params,
		Directive: Directive{
			Before: connectBindings(q.Update, "update"),
			After:  Capture{Kind: CaptureTruthy, Key: KeyUpdate},
			Silent: Always(),
		},
		Cardinality: model.One,
	})

	ops = append(ops, create(q, q.Create, branch{
		when:   Falsy(KeyUpdate),
		silent: Falsy(KeyUpdate),
		scope:  "create",
	})...)

	final := reread(&ast.Query{Verb: ast.VerbFindUnique, Model: q.Model, Select: q.Select, Where: q.Where})
	final.Directive.When = Truthy(KeyUpdate)
	return append(ops, final)
}
