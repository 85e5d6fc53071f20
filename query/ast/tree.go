package ast

import "github.com/satishbabariya/prisma-edge/model"

// Filter is a node of a normalized where tree.
type Filter interface {
	filterNode()
}

// ScalarLeaf compares Field for equality with Value.
type ScalarLeaf struct {
	Field string
	Value any
}

// OperatorLeaf applies Op to Field, e.g. {title: {contains: "world"}}.
type OperatorLeaf struct {
	Field string
	Op    ComparisonOperator
	Value any
}

// RelationFilter filters on the columns of a related table. Its children are
// normalized against Model, the related descriptor.
type RelationFilter struct {
	Field    string
	Relation model.Relation
	Model    *model.Descriptor
	Children []Filter
}

// Group joins branches with Op. Each branch is AND-joined on its own; NOT
// negates every branch.
type Group struct {
	Op       LogicalOperator
	Branches [][]Filter
}

func (ScalarLeaf) filterNode()     {}
func (OperatorLeaf) filterNode()   {}
func (RelationFilter) filterNode() {}
func (Group) filterNode()          {}

// Projection is a node of a normalized select tree.
type Projection interface {
	projectionNode()
}

// Leaf selects one scalar field.
type Leaf struct {
	Field string
}

// Expr selects a raw SQL expression under Key. Only the planner builds
// these, callers cannot.
type Expr struct {
	Key string
	SQL string
}

// RelationProjection selects fields of a related table through a
// correlated subquery.
type RelationProjection struct {
	Field    string
	Relation model.Relation
	Model    *model.Descriptor
	Children []Projection
}

func (Leaf) projectionNode()               {}
func (Expr) projectionNode()               {}
func (RelationProjection) projectionNode() {}

// Write is one entry of a normalized write map.
type Write interface {
	writeNode()
	// Name is the relation or column the entry was declared under.
	Name() string
}

// Value writes a scalar to a column.
type Value struct {
	Field string
	Value any
}

// Connect links the row to an existing related row, e.g.
// {author: {connect: {uuid: "..."}}}. Key holds the referenced column value
// when the connect filter names it directly.
type Connect struct {
	Field    string
	Relation model.Relation
	Model    *model.Descriptor
	Where    []Filter
	Key      any
	HasKey   bool
}

func (Value) writeNode()   {}
func (Connect) writeNode() {}

// Name returns the column name.
func (v Value) Name() string { return v.Field }

// Name returns the relation name.
func (c Connect) Name() string { return c.Field }

// Query is a query descriptor normalized against a model.
type Query struct {
	Verb  Verb
	Model *model.Descriptor
	// Select is nil when the caller selected nothing; the model's select-all
	// expression is used then.
	Select []Projection
	Where  []Filter
	Data   []Write
	Create []Write
	Update []Write
	Skip   *int
	Take   *int
}
