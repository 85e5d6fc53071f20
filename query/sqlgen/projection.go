package sqlgen

import (
	"fmt"
	"strings"

	"github.com/satishbabariya/prisma-edge/model"
	"github.com/satishbabariya/prisma-edge/query/ast"
)

// CompileProjection compiles a select tree into one JSON-valued expression:
// JSON_OBJECT(...) for a single row, JSON_ARRAYAGG(JSON_OBJECT(...)) for
// many. Relations become correlated subqueries as deep as the tree goes.
func CompileProjection(nodes []ast.Projection, m *model.Descriptor, card model.Cardinality) string {
	return aggregate(jsonObject(nodes, m), card)
}

func aggregate(object string, card model.Cardinality) string {
	if card == model.Many {
		return "JSON_ARRAYAGG(" + object + ")"
	}
	return object
}

func jsonObject(nodes []ast.Projection, m *model.Descriptor) string {
	pairs := make([]string, 0, len(nodes))
	for _, node := range nodes {
		switch n := node.(type) {
		case ast.Leaf:
			pairs = append(pairs, quoteString(n.Field)+", "+m.Column(n.Field).ReadExpr(quoteIdentifierMySQL(n.Field)))
		case ast.Expr:
			pairs = append(pairs, quoteString(n.Key)+", "+n.SQL)
		case ast.RelationProjection:
			pairs = append(pairs, quoteString(n.Field)+", "+subquery(n))
		}
	}
	return "JSON_OBJECT(" + strings.Join(pairs, ", ") + ")"
}

// subquery renders (SELECT <object> FROM R WHERE R.to = T.from). The
// related model's read transforms apply inside.
func subquery(n ast.RelationProjection) string {
	rel := n.Relation
	return fmt.Sprintf("(SELECT %s FROM %s WHERE %s = %s)",
		aggregate(jsonObject(n.Children, n.Model), rel.Cardinality),
		rel.To.Table, rel.To, rel.From)
}
