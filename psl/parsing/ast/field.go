package ast

import (
	"fmt"

	"github.com/alecthomas/participle/v2/lexer"
)

// FieldArity represents the arity/cardinality of a field.
type FieldArity int

const (
	// FieldArityRequired means the field must have a value.
	FieldArityRequired FieldArity = iota
	// FieldArityOptional means the field can be null (Type?).
	FieldArityOptional
	// FieldArityList means the field is an array (Type[]).
	FieldArityList
)

// String returns the string representation of the arity.
func (a FieldArity) String() string {
	switch a {
	case FieldArityOptional:
		return "?"
	case FieldArityList:
		return "[]"
	default:
		return ""
	}
}

// Field represents a field in a model.
type Field struct {
	Pos          lexer.Position
	Name         *Identifier  `@@`
	Type         string       `@Ident`
	ListSuffix   *string      `@("[" "]")?`
	OptionalMark *string      `@"?"?`
	Attributes   []*Attribute `@@*`
}

// GetName returns the field name.
func (f *Field) GetName() string {
	if f.Name == nil {
		return ""
	}
	return f.Name.Name
}

// Arity derives the arity from the parsed suffixes.
func (f *Field) Arity() FieldArity {
	switch {
	case f.ListSuffix != nil:
		return FieldArityList
	case f.OptionalMark != nil:
		return FieldArityOptional
	default:
		return FieldArityRequired
	}
}

// Attribute returns the field attribute with the given name.
func (f *Field) Attribute(name string) (*Attribute, bool) {
	for _, attr := range f.Attributes {
		if attr.GetName() == name {
			return attr, true
		}
	}
	return nil, false
}

// HasAttribute reports whether the field carries the named attribute.
func (f *Field) HasAttribute(name string) bool {
	_, ok := f.Attribute(name)
	return ok
}

// String returns a string representation of the field.
func (f *Field) String() string {
	return fmt.Sprintf("%s %s%s", f.GetName(), f.Type, f.Arity().String())
}
