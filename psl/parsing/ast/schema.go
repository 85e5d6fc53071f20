// Package ast holds the parse tree for the subset of the Prisma Schema
// Language used to register models.
package ast

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// SchemaAst is a parsed schema file.
type SchemaAst struct {
	Tops []Top
}

// Top is a top-level declaration: a model, an enum or a config block.
type Top interface {
	isTop()
	GetName() string
	Span() lexer.Position
}

// Models returns the model and view declarations in source order.
func (s *SchemaAst) Models() []*Model {
	var models []*Model
	for _, top := range s.Tops {
		if m, ok := top.(*Model); ok {
			models = append(models, m)
		}
	}
	return models
}

// FindModel returns the model with the given name.
func (s *SchemaAst) FindModel(name string) (*Model, bool) {
	for _, m := range s.Models() {
		if m.GetName() == name {
			return m, true
		}
	}
	return nil, false
}

// Datasource returns the first datasource block, if any.
func (s *SchemaAst) Datasource() (*ConfigBlock, bool) {
	for _, top := range s.Tops {
		if c, ok := top.(*ConfigBlock); ok && c.Kind == "datasource" {
			return c, true
		}
	}
	return nil, false
}

// ConfigBlock is a datasource or generator block.
type ConfigBlock struct {
	Pos        lexer.Position
	Kind       string            `@("datasource" | "generator")`
	Name       *Identifier       `@@`
	Properties []*ConfigProperty `"{" @@* "}"`
}

func (c *ConfigBlock) isTop() {}

// GetName returns the block name.
func (c *ConfigBlock) GetName() string { return c.Name.String() }

// Span returns the source position.
func (c *ConfigBlock) Span() lexer.Position { return c.Pos }

// Property returns the value of a named property.
func (c *ConfigBlock) Property(name string) (Expression, bool) {
	for _, p := range c.Properties {
		if p.Name.String() == name {
			return p.Value, true
		}
	}
	return nil, false
}

// ConfigProperty is a `key = value` line inside a config block.
type ConfigProperty struct {
	Pos   lexer.Position
	Name  *Identifier `@@ "="`
	Value Expression  `@@`
}

// Enum is an enum declaration. Its values are parsed but not used for
// registration.
type Enum struct {
	Pos     lexer.Position
	Name    *Identifier   `"enum" @@`
	Members []*EnumMember `"{" @@* "}"`
}

func (e *Enum) isTop() {}

// GetName returns the enum name.
func (e *Enum) GetName() string { return e.Name.String() }

// Span returns the source position.
func (e *Enum) Span() lexer.Position { return e.Pos }

// EnumMember is either a value or a block attribute.
type EnumMember struct {
	Pos       lexer.Position
	Attribute *BlockAttribute `  @@`
	Value     *Identifier     `| @@`
	ValueAttr []*Attribute    `@@*`
}
