// Package model describes the tables a client can query: primary key strategy,
// per-column read/write transforms and outgoing relations.
//
// Descriptors are plain data. They are built once by Register and shared by
// reference between the compilers, the planner and the client.
package model

import (
	"sort"
	"strings"
)

// KeyStrategy tells the planner how a new row gets its primary key.
type KeyStrategy int

const (
	// KeySupplied means the caller puts the key in the write map.
	KeySupplied KeyStrategy = iota
	// KeyAutoIncrement means the driver assigns the key on insert.
	KeyAutoIncrement
	// KeyExpression means the key is produced by a SQL expression the
	// client can evaluate before inserting, such as UUID().
	KeyExpression
)

// String returns the strategy name.
func (k KeyStrategy) String() string {
	switch k {
	case KeyAutoIncrement:
		return "autoincrement"
	case KeyExpression:
		return "expression"
	default:
		return "supplied"
	}
}

// PrimaryKey is the single key field of a model.
type PrimaryKey struct {
	Field      string
	Strategy   KeyStrategy
	Expression string // only for KeyExpression
}

// ColumnType is the storage representation that drives column transforms.
type ColumnType string

const (
	ColumnInteger  ColumnType = "Integer"
	ColumnBinary16 ColumnType = "Binary(16)"
	ColumnDateTime ColumnType = "DateTime(3)"
)

// Column holds the SQL transforms for one column.
type Column struct {
	Type ColumnType
	// Read wraps a column expression for projection (BIN_TO_UUID(uuid, 0)).
	Read func(expr string) string
	// Write wraps a placeholder for comparisons and writes (UUID_TO_BIN(?, 0)).
	Write func(placeholder string) string
}

// ReadExpr applies the read transform if the column declares one.
func (c Column) ReadExpr(expr string) string {
	if c.Read == nil {
		return expr
	}
	return c.Read(expr)
}

// WriteExpr applies the write transform if the column declares one.
func (c Column) WriteExpr(placeholder string) string {
	if c.Write == nil {
		return placeholder
	}
	return c.Write(placeholder)
}

// Cardinality is the number of rows on the far side of a relation.
type Cardinality string

const (
	One  Cardinality = "one"
	Many Cardinality = "many"
)

// ColumnRef names a column of a table.
type ColumnRef struct {
	Table  string
	Column string
}

// String renders the qualified name Table.Column.
func (c ColumnRef) String() string {
	return c.Table + "." + c.Column
}

// Relation is a directed edge from this model's columns to another table.
type Relation struct {
	Cardinality Cardinality
	// Model is the registry name of the related model.
	Model string
	From  ColumnRef
	To    ColumnRef
}

// Descriptor describes one table.
type Descriptor struct {
	Name       string
	Table      string
	PrimaryKey PrimaryKey
	Columns    map[string]Column
	Relations  map[string]Relation
	// Fields lists the scalar fields in declaration order. An empty list
	// means the descriptor does not restrict field names.
	Fields []string
	// SelectAll is the literal projection used when a query selects nothing.
	SelectAll string
}

// Column returns the column transforms for field, or the zero Column.
func (d *Descriptor) Column(field string) Column {
	if d == nil {
		return Column{}
	}
	return d.Columns[field]
}

// HasField reports whether field is a known scalar field.
func (d *Descriptor) HasField(field string) bool {
	if d == nil || len(d.Fields) == 0 {
		return true
	}
	for _, f := range d.Fields {
		if f == field {
			return true
		}
	}
	return false
}

// Relation returns the relation named field.
func (d *Descriptor) Relation(field string) (Relation, bool) {
	if d == nil {
		return Relation{}, false
	}
	r, ok := d.Relations[field]
	return r, ok
}

// Registry is the immutable set of registered models.
type Registry struct {
	byName  map[string]*Descriptor
	byTable map[string]*Descriptor
}

// NewRegistry indexes descriptors by name and table.
func NewRegistry(models ...*Descriptor) *Registry {
	r := &Registry{
		byName:  make(map[string]*Descriptor, len(models)),
		byTable: make(map[string]*Descriptor, len(models)),
	}
	for _, m := range models {
		r.byName[m.Name] = m
		r.byTable[m.Table] = m
	}
	return r
}

// Model returns the descriptor registered under name.
func (r *Registry) Model(name string) (*Descriptor, bool) {
	if r == nil {
		return nil, false
	}
	m, ok := r.byName[strings.ToLower(name)]
	return m, ok
}

// ByTable returns the descriptor for a table name.
func (r *Registry) ByTable(table string) (*Descriptor, bool) {
	if r == nil {
		return nil, false
	}
	m, ok := r.byTable[table]
	return m, ok
}

// Related resolves the descriptor on the far side of a relation.
func (r *Registry) Related(rel Relation) (*Descriptor, bool) {
	if m, ok := r.Model(rel.Model); ok {
		return m, true
	}
	return r.ByTable(rel.To.Table)
}

// Names returns the registered model names in sorted order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
