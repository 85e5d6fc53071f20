package sqlgen

import (
	"fmt"
	"strings"
)

// maxRows is the MySQL idiom for "no row limit" when only an offset is set.
const maxRows = "18446744073709551615"

// Statement is one parameterized SQL statement. Params follow placeholder
// order.
type Statement struct {
	SQL    string
	Params []any
}

type verb int

const (
	verbSelect verb = iota
	verbUpdate
	verbInsert
	verbDelete
)

type assignment struct {
	column string
	expr   string
	params []any
}

// Builder assembles one statement. It is a value: every method returns a
// new Builder and leaves the receiver untouched, so partial builders can be
// shared.
type Builder struct {
	verb   verb
	expr   string
	table  string
	from   *Statement
	joins  []string
	conds  []string
	params []any
	sets   []assignment
	limit  string
}

// Select starts a SELECT of expr.
func Select(expr string) Builder {
	return Builder{verb: verbSelect, expr: expr}
}

// Update starts an UPDATE of table.
func Update(table string) Builder {
	return Builder{verb: verbUpdate, table: table}
}

// InsertInto starts an INSERT into table.
func InsertInto(table string) Builder {
	return Builder{verb: verbInsert, table: table}
}

// DeleteFrom starts a DELETE from table.
func DeleteFrom(table string) Builder {
	return Builder{verb: verbDelete, table: table}
}

func (b Builder) clone() Builder {
	b.joins = append([]string(nil), b.joins...)
	b.conds = append([]string(nil), b.conds...)
	b.params = append([]any(nil), b.params...)
	b.sets = append([]assignment(nil), b.sets...)
	return b
}

// From sets the table a SELECT reads.
func (b Builder) From(table string) Builder {
	b = b.clone()
	b.table = table
	b.from = nil
	return b
}

// FromSubquery reads from a derived table named alias.
func (b Builder) FromSubquery(inner Statement, alias string) Builder {
	b = b.clone()
	b.table = alias
	b.from = &inner
	return b
}

// Where adds compiled conditions. Joins are kept once each, in first-seen
// order.
func (b Builder) Where(w Where) Builder {
	b = b.clone()
	for _, j := range w.Joins {
		if !contains(b.joins, j) {
			b.joins = append(b.joins, j)
		}
	}
	b.conds = append(b.conds, w.Conditions...)
	b.params = append(b.params, w.Params...)
	return b
}

// Set adds `column` = expr to an UPDATE. expr holds the placeholders for
// params, e.g. "UUID_TO_BIN(?, 0)".
func (b Builder) Set(column, expr string, params ...any) Builder {
	b = b.clone()
	b.sets = append(b.sets, assignment{column: column, expr: expr, params: params})
	return b
}

// Values adds a column to an INSERT. Values render in the order they were
// added.
func (b Builder) Values(column, expr string, params ...any) Builder {
	return b.Set(column, expr, params...)
}

// Limit renders LIMIT offset, count when skip > 0 or take is given.
func (b Builder) Limit(skip, take *int) Builder {
	b = b.clone()
	offset := 0
	if skip != nil && *skip > 0 {
		offset = *skip
	}
	switch {
	case take != nil:
		b.limit = fmt.Sprintf("LIMIT %d, %d", offset, *take)
	case offset > 0:
		b.limit = fmt.Sprintf("LIMIT %d, %s", offset, maxRows)
	default:
		b.limit = ""
	}
	return b
}

// Exec renders the statement. SET parameters precede WHERE parameters and
// VALUES parameters follow the column order.
func (b Builder) Exec() Statement {
	var parts []string
	var params []any

	switch b.verb {
	case verbSelect:
		parts = append(parts, "SELECT "+b.expr)
		if b.from != nil {
			parts = append(parts, fmt.Sprintf("FROM (%s) AS %s", b.from.SQL, b.table))
			params = append(params, b.from.Params...)
		} else if b.table != "" {
			parts = append(parts, "FROM "+b.table)
		}
		parts = append(parts, b.joins...)
	case verbUpdate:
		parts = append(parts, "UPDATE "+b.table)
		parts = append(parts, b.joins...)
		sets := make([]string, len(b.sets))
		for i, s := range b.sets {
			col := quoteIdentifierMySQL(s.column)
			if len(b.joins) > 0 {
				col = qualify(b.table, s.column)
			}
			sets[i] = fmt.Sprintf("%s = %s", col, s.expr)
			params = append(params, s.params...)
		}
		parts = append(parts, "SET "+strings.Join(sets, ", "))
	case verbInsert:
		cols := make([]string, len(b.sets))
		vals := make([]string, len(b.sets))
		for i, s := range b.sets {
			cols[i] = quoteIdentifierMySQL(s.column)
			vals[i] = s.expr
			params = append(params, s.params...)
		}
		parts = append(parts,
			fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", b.table, strings.Join(cols, ", "), strings.Join(vals, ", ")))
	case verbDelete:
		if len(b.joins) > 0 {
			parts = append(parts, fmt.Sprintf("DELETE %s FROM %s", b.table, b.table))
			parts = append(parts, b.joins...)
		} else {
			parts = append(parts, "DELETE FROM "+b.table)
		}
	}

	if len(b.conds) > 0 && b.verb != verbInsert {
		parts = append(parts, "WHERE "+strings.Join(b.conds, " AND "))
		params = append(params, b.params...)
	}
	if b.limit != "" && b.verb == verbSelect {
		parts = append(parts, b.limit)
	}
	return Statement{SQL: strings.Join(parts, " "), Params: params}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
