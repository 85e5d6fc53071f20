package ast

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// Attribute represents a field-level attribute (@attribute).
type Attribute struct {
	Pos       lexer.Position
	Name      *Identifier    `"@" @@`
	Arguments *ArgumentsList `("(" @@ ")")?`
}

// String returns the string representation of the attribute.
func (a *Attribute) String() string {
	args := ""
	if a.Arguments != nil && len(a.Arguments.Arguments) > 0 {
		args = "(" + a.Arguments.String() + ")"
	}
	return "@" + a.Name.Name + args
}

// GetName returns the attribute name.
func (a *Attribute) GetName() string {
	if a.Name == nil {
		return ""
	}
	return a.Name.Name
}

// Argument returns the named argument, or the positional argument at
// index pos when no argument carries that name.
func (a *Attribute) Argument(name string, pos int) (Expression, bool) {
	if a == nil || a.Arguments == nil {
		return nil, false
	}
	return a.Arguments.Lookup(name, pos)
}

// BlockAttribute represents a block-level attribute (@@attribute).
type BlockAttribute struct {
	Pos       lexer.Position
	Name      *Identifier    `"@@" @@`
	Arguments *ArgumentsList `("(" @@ ")")?`
}

// GetName returns the block attribute name.
func (b *BlockAttribute) GetName() string {
	if b.Name == nil {
		return ""
	}
	return b.Name.Name
}

// Argument returns the named or positional argument.
func (b *BlockAttribute) Argument(name string, pos int) (Expression, bool) {
	if b == nil || b.Arguments == nil {
		return nil, false
	}
	return b.Arguments.Lookup(name, pos)
}
