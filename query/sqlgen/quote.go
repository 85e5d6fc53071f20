// Package sqlgen compiles normalized filter and projection trees into MySQL
// fragments and assembles them into single parameterized statements.
package sqlgen

import (
	"strings"
)

// quoteIdentifierMySQL backtick-quotes a column name. Names that already
// carry a table qualifier pass through unchanged.
func quoteIdentifierMySQL(name string) string {
	if strings.Contains(name, ".") {
		return name
	}
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// quoteString renders a JSON_OBJECT key.
func quoteString(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}

// qualify prefixes field with table, or quotes it when table is empty.
func qualify(table, field string) string {
	if table == "" {
		return quoteIdentifierMySQL(field)
	}
	return table + "." + field
}
