package model

import (
	"fmt"
	"regexp"
	"strings"
)

// FieldDefinition is one scalar field of a table as declared in the schema.
type FieldDefinition struct {
	Name string
	// Type is the declared type, for example "String", "DateTime" or
	// "@db.Binary(16)" when a native type attribute is present.
	Type    string
	Default string
	ID      bool
}

// RelationDefinition is one relation field as declared in the schema.
type RelationDefinition struct {
	Name        string
	Cardinality Cardinality
	From        ColumnRef
	To          ColumnRef
}

// Definition is the registration input for one table.
type Definition struct {
	Table     string
	Fields    []FieldDefinition
	Relations []RelationDefinition
}

var (
	reUUIDToBin      = regexp.MustCompile(`(?i)uuid_to_bin\(\s*uuid\(\)\s*(?:,\s*([01]))?\s*\)`)
	reAutoIncrement  = regexp.MustCompile(`(?i)autoincrement\(\)`)
	reUUID           = regexp.MustCompile(`(?i)^uuid\(\)$`)
	reDBGenerated    = regexp.MustCompile(`(?i)^dbgenerated\(\s*"(.*)"\s*\)$`)
	binary16TypeName = "@db.Binary(16)"
)

// Register derives descriptors from definitions and returns them as a
// registry. A definition without an id field, a duplicate table, or a
// relation pointing at an unknown table is a ConfigurationError.
func Register(defs ...Definition) (*Registry, error) {
	models := make([]*Descriptor, 0, len(defs))
	tables := make(map[string]bool, len(defs))
	for _, def := range defs {
		if tables[def.Table] {
			return nil, configErrorf(def.Table, "registered twice")
		}
		tables[def.Table] = true
		m, err := describe(def)
		if err != nil {
			return nil, err
		}
		models = append(models, m)
	}
	for _, m := range models {
		for field, rel := range m.Relations {
			if !tables[rel.To.Table] {
				return nil, configErrorf(m.Table, "relation %q points at unknown table %q", field, rel.To.Table)
			}
		}
	}
	return NewRegistry(models...), nil
}

// MustRegister is like Register but panics on error.
func MustRegister(defs ...Definition) *Registry {
	r, err := Register(defs...)
	if err != nil {
		panic(err)
	}
	return r
}

func describe(def Definition) (*Descriptor, error) {
	if def.Table == "" {
		return nil, configErrorf("<unnamed>", "missing table name")
	}
	m := &Descriptor{
		Name:      strings.ToLower(def.Table),
		Table:     def.Table,
		Columns:   make(map[string]Column),
		Relations: make(map[string]Relation, len(def.Relations)),
	}
	selectAll := []string{"*"}
	var pk *FieldDefinition

	for i := range def.Fields {
		f := def.Fields[i]
		m.Fields = append(m.Fields, f.Name)
		col, ok := columnFor(f)
		if ok {
			m.Columns[f.Name] = col
			name := "`" + f.Name + "`"
			selectAll = append(selectAll, fmt.Sprintf("%s as %s", col.ReadExpr(name), name))
		}
		if f.ID {
			pk = &def.Fields[i]
		}
	}
	if pk == nil {
		return nil, configErrorf(def.Table, "missing 'id' field")
	}
	m.PrimaryKey = primaryKeyFor(*pk, m.Columns[pk.Name])

	for _, rel := range def.Relations {
		m.Relations[rel.Name] = Relation{
			Cardinality: rel.Cardinality,
			Model:       strings.ToLower(rel.To.Table),
			From:        rel.From,
			To:          rel.To,
		}
	}
	m.SelectAll = strings.Join(selectAll, ", ")
	return m, nil
}

func columnFor(f FieldDefinition) (Column, bool) {
	if reAutoIncrement.MatchString(f.Default) {
		return Column{Type: ColumnInteger}, true
	}
	if match := reUUIDToBin.FindStringSubmatch(f.Default); match != nil || f.Type == binary16TypeName {
		swap := "0"
		if match != nil && match[1] != "" {
			swap = match[1]
		}
		return Column{
			Type:  ColumnBinary16,
			Read:  func(expr string) string { return fmt.Sprintf("BIN_TO_UUID(%s, %s)", expr, swap) },
			Write: func(ph string) string { return fmt.Sprintf("UUID_TO_BIN(%s, %s)", ph, swap) },
		}, true
	}
	if f.Type == "DateTime" {
		return Column{
			Type: ColumnDateTime,
			Read: func(expr string) string { return fmt.Sprintf("DATE_FORMAT(%s, '%%Y-%%m-%%dT%%TZ')", expr) },
		}, true
	}
	return Column{}, false
}

func primaryKeyFor(f FieldDefinition, col Column) PrimaryKey {
	switch {
	case col.Type == ColumnInteger:
		return PrimaryKey{Field: f.Name, Strategy: KeyAutoIncrement}
	case col.Type == ColumnBinary16:
		// The probe yields the textual form; the column's write transform
		// encodes it on insert and on lookup.
		return PrimaryKey{Field: f.Name, Strategy: KeyExpression, Expression: "UUID()"}
	case reUUID.MatchString(f.Default):
		return PrimaryKey{Field: f.Name, Strategy: KeyExpression, Expression: "UUID()"}
	}
	if match := reDBGenerated.FindStringSubmatch(f.Default); match != nil {
		return PrimaryKey{Field: f.Name, Strategy: KeyExpression, Expression: match[1]}
	}
	return PrimaryKey{Field: f.Name, Strategy: KeySupplied}
}
