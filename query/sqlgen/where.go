package sqlgen

import (
	"fmt"
	"strings"

	"github.com/satishbabariya/prisma-edge/model"
	"github.com/satishbabariya/prisma-edge/query/ast"
)

// Where is a compiled filter tree: one condition per root-level entry, the
// parameters in placeholder order and the JOIN clauses the conditions need.
type Where struct {
	Conditions []string
	Params     []any
	Joins      []string
}

// SQL returns the AND-joined conditions.
func (w Where) SQL() string {
	return strings.Join(w.Conditions, " AND ")
}

// IsEmpty reports whether there is nothing to filter on.
func (w Where) IsEmpty() bool {
	return len(w.Conditions) == 0
}

var comparators = map[ast.ComparisonOperator]string{
	ast.OpEquals: "=",
	ast.OpNot:    "<>",
	ast.OpLt:     "<",
	ast.OpLte:    "<=",
	ast.OpGt:     ">",
	ast.OpGte:    ">=",
}

type whereCompiler struct {
	joins []string
	seen  map[string]bool
}

// CompileWhere compiles filters against m. A relation filter adds one
// LEFT JOIN per relation no matter how many leaves sit under it; its leaves
// compare against the qualified remote column. Once a join is present the
// root leaves are qualified with m's table too.
func CompileWhere(filters []ast.Filter, m *model.Descriptor) Where {
	c := &whereCompiler{seen: make(map[string]bool)}
	conds, params := c.level(filters, m, "")
	if len(c.joins) > 0 {
		c = &whereCompiler{seen: make(map[string]bool)}
		conds, params = c.level(filters, m, m.Table)
	}
	return Where{Conditions: conds, Params: params, Joins: c.joins}
}

// Joined reports whether the conditions read related tables.
func (w Where) Joined() bool {
	return len(w.Joins) > 0
}

func (c *whereCompiler) level(filters []ast.Filter, m *model.Descriptor, qualifier string) ([]string, []any) {
	var conds []string
	var params []any
	for _, f := range filters {
		switch f := f.(type) {
		case ast.ScalarLeaf:
			sql, args := c.leaf(m, qualifier, f.Field, ast.OpEquals, f.Value)
			conds = append(conds, sql)
			params = append(params, args...)
		case ast.OperatorLeaf:
			sql, args := c.leaf(m, qualifier, f.Field, f.Op, f.Value)
			conds = append(conds, sql)
			params = append(params, args...)
		case ast.RelationFilter:
			c.join(f.Relation)
			sub, args := c.level(f.Children, f.Model, f.Relation.To.Table)
			conds = append(conds, sub...)
			params = append(params, args...)
		case ast.Group:
			sql, args := c.group(f, m, qualifier)
			if sql != "" {
				conds = append(conds, sql)
				params = append(params, args...)
			}
		}
	}
	return conds, params
}

func (c *whereCompiler) join(rel model.Relation) {
	clause := fmt.Sprintf("LEFT JOIN %s ON %s = %s", rel.To.Table, rel.To, rel.From)
	if c.seen[clause] {
		return
	}
	c.seen[clause] = true
	c.joins = append(c.joins, clause)
}

func (c *whereCompiler) group(g ast.Group, m *model.Descriptor, qualifier string) (string, []any) {
	var parts []string
	var params []any
	for _, branch := range g.Branches {
		conds, args := c.level(branch, m, qualifier)
		if len(conds) == 0 {
			continue
		}
		sql := strings.Join(conds, " AND ")
		if g.Op == ast.OpNOT {
			sql = "NOT (" + sql + ")"
		} else if len(conds) > 1 {
			sql = "(" + sql + ")"
		}
		parts = append(parts, sql)
		params = append(params, args...)
	}
	if len(parts) == 0 {
		return "", nil
	}
	sep := " AND "
	if g.Op == ast.OpOR {
		sep = " OR "
	}
	if len(parts) == 1 {
		return parts[0], params
	}
	return "(" + strings.Join(parts, sep) + ")", params
}

func (c *whereCompiler) leaf(m *model.Descriptor, qualifier, field string, op ast.ComparisonOperator, value any) (string, []any) {
	col := qualify(qualifier, field)
	ph := m.Column(field).WriteExpr("?")

	switch op {
	case ast.OpContains:
		return col + " LIKE " + ph, []any{fmt.Sprintf("%%%v%%", value)}
	case ast.OpStartsWith:
		return col + " LIKE " + ph, []any{fmt.Sprintf("%v%%", value)}
	case ast.OpEndsWith:
		return col + " LIKE " + ph, []any{fmt.Sprintf("%%%v", value)}
	case ast.OpIn, ast.OpNotIn:
		list, _ := value.([]any)
		if len(list) == 0 {
			if op == ast.OpIn {
				return "1 = 0", nil
			}
			return "1 = 1", nil
		}
		phs := make([]string, len(list))
		for i := range list {
			phs[i] = ph
		}
		kw := "IN"
		if op == ast.OpNotIn {
			kw = "NOT IN"
		}
		return fmt.Sprintf("%s %s (%s)", col, kw, strings.Join(phs, ", ")), append([]any(nil), list...)
	}

	if value == nil {
		switch op {
		case ast.OpEquals:
			return col + " IS NULL", nil
		case ast.OpNot:
			return col + " IS NOT NULL", nil
		}
	}
	return fmt.Sprintf("%s %s %s", col, comparators[op], ph), []any{value}
}
