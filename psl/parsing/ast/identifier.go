package ast

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// Identifier represents a named identifier in the schema. Dotted names
// such as db.Binary keep their dots.
type Identifier struct {
	Pos  lexer.Position
	Name string `(@Ident | @Keyword) (@"." (@Ident | @Keyword))*`
}

// String returns the identifier name.
func (i *Identifier) String() string {
	if i == nil {
		return ""
	}
	return i.Name
}
