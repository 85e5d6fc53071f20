package ast

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
)

// Expression represents a value expression in the schema.
// This is a union type that can be one of several expression types.
type Expression interface {
	isExpression()
	Span() lexer.Position
	String() string
}

// StringValue represents a quoted string literal. The lexer unquotes it.
type StringValue struct {
	Pos   lexer.Position
	Value string `@String`
}

func (s *StringValue) isExpression() {}

// Span returns the source position.
func (s *StringValue) Span() lexer.Position { return s.Pos }

// String returns the quoted representation.
func (s *StringValue) String() string {
	return fmt.Sprintf("%q", s.Value)
}

// NumericValue represents a numeric literal (int or float).
type NumericValue struct {
	Pos   lexer.Position
	Value string `@Number`
}

func (n *NumericValue) isExpression() {}

// Span returns the source position.
func (n *NumericValue) Span() lexer.Position { return n.Pos }

// String returns the string representation.
func (n *NumericValue) String() string { return n.Value }

// ConstantValue represents a constant/identifier value (true, false, enum values, field references).
type ConstantValue struct {
	Pos   lexer.Position
	Value string `@Ident`
}

func (c *ConstantValue) isExpression() {}

// Span returns the source position.
func (c *ConstantValue) Span() lexer.Position { return c.Pos }

// String returns the string representation.
func (c *ConstantValue) String() string { return c.Value }

// FunctionCall represents a function call expression like env("DATABASE_URL").
type FunctionCall struct {
	Pos       lexer.Position
	Name      string         `@Ident`
	Arguments *ArgumentsList `"(" @@? ")"`
}

func (f *FunctionCall) isExpression() {}

// Span returns the source position.
func (f *FunctionCall) Span() lexer.Position { return f.Pos }

// String returns the string representation, e.g. dbgenerated("uuid()").
func (f *FunctionCall) String() string {
	args := ""
	if f.Arguments != nil {
		args = f.Arguments.String()
	}
	return fmt.Sprintf("%s(%s)", f.Name, args)
}

// ArrayExpression represents an array literal like [1, 2, 3] or [field1, field2].
type ArrayExpression struct {
	Pos      lexer.Position
	Elements []Expression `"[" (@@ ("," @@)*)? "]"`
}

func (a *ArrayExpression) isExpression() {}

// Span returns the source position.
func (a *ArrayExpression) Span() lexer.Position { return a.Pos }

// String returns the string representation.
func (a *ArrayExpression) String() string {
	parts := make([]string, len(a.Elements))
	for i, elem := range a.Elements {
		parts[i] = elem.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Names returns the constant elements of an array, e.g. the field list of
// @relation(fields: [authorUuid]).
func (a *ArrayExpression) Names() []string {
	names := make([]string, 0, len(a.Elements))
	for _, elem := range a.Elements {
		if c, ok := elem.(*ConstantValue); ok {
			names = append(names, c.Value)
		}
	}
	return names
}
