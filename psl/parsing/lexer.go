package parsing

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// elided lists the token types the grammar never sees.
var elided = []string{"Space", "EOL", "Comment"}

// schemaLexer tokenizes schema files. Rules are tried in order, so "@@"
// precedes "@" and doc comments fall under Comment.
var schemaLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `//[^\n]*|/\*(?:[^*]|\*[^/])*\*/`},
	{Name: "Keyword", Pattern: `\b(?:model|view|enum|datasource|generator)\b`},
	{Name: "BlockAttr", Pattern: `@@`},
	{Name: "FieldAttr", Pattern: `@`},
	{Name: "String", Pattern: `"(?:\\.|[^"\\])*"`},
	{Name: "Number", Pattern: `-?\d+(?:\.\d+)?`},
	{Name: "Ident", Pattern: `[\p{L}_][\p{L}\p{N}_-]*`},
	{Name: "Punct", Pattern: `[{}()\[\]:,.=?]`},
	{Name: "EOL", Pattern: `[\r\n]+`},
	{Name: "Space", Pattern: `[ \t]+`},
})
