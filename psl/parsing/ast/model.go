package ast

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// Model represents a model or view declaration.
type Model struct {
	Pos     lexer.Position
	Keyword string         `@("model" | "view")`
	Name    *Identifier    `@@`
	Members []*ModelMember `"{" @@* "}"`
}

func (m *Model) isTop() {}

// Span returns the source position.
func (m *Model) Span() lexer.Position { return m.Pos }

// IsView returns true if this is a view declaration.
func (m *Model) IsView() bool {
	return m.Keyword == "view"
}

// GetName returns the model name.
func (m *Model) GetName() string {
	if m.Name == nil {
		return ""
	}
	return m.Name.Name
}

// Fields returns the field declarations in source order.
func (m *Model) Fields() []*Field {
	fields := make([]*Field, 0, len(m.Members))
	for _, member := range m.Members {
		if member.Field != nil {
			fields = append(fields, member.Field)
		}
	}
	return fields
}

// BlockAttributes returns the @@ attributes of the model.
func (m *Model) BlockAttributes() []*BlockAttribute {
	var attrs []*BlockAttribute
	for _, member := range m.Members {
		if member.BlockAttribute != nil {
			attrs = append(attrs, member.BlockAttribute)
		}
	}
	return attrs
}

// BlockAttribute returns the block attribute with the given name.
func (m *Model) BlockAttribute(name string) (*BlockAttribute, bool) {
	for _, attr := range m.BlockAttributes() {
		if attr.GetName() == name {
			return attr, true
		}
	}
	return nil, false
}

// ModelMember is either a field or a block attribute.
type ModelMember struct {
	Pos            lexer.Position
	BlockAttribute *BlockAttribute `  @@`
	Field          *Field          `| @@`
}
