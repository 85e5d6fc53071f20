// Package schema loads a Prisma schema file and registers its models.
package schema

import (
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/afero"

	"github.com/satishbabariya/prisma-edge/model"
	"github.com/satishbabariya/prisma-edge/psl/parsing"
	"github.com/satishbabariya/prisma-edge/psl/parsing/ast"
)

// Schema is a parsed and registered schema file.
type Schema struct {
	// Provider is the datasource provider, "mysql" when present.
	Provider string
	// URL is the datasource url with env() references resolved.
	URL         string
	Definitions []model.Definition
	Registry    *model.Registry
}

// Load reads and registers the schema at path on the OS filesystem.
func Load(path string) (*Schema, error) {
	return LoadFs(afero.NewOsFs(), path)
}

// LoadFs reads and registers the schema at path on fs.
func LoadFs(fs afero.Fs, path string) (*Schema, error) {
	src, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, errors.Wrapf(err, "read schema %s", path)
	}
	return FromString(path, string(src))
}

// FromString parses src and registers every model it declares. Parse
// failures and invalid models are reported as model.ConfigurationError.
func FromString(name, src string) (*Schema, error) {
	tree, err := parsing.ParseSchemaString(name, src)
	if err != nil {
		return nil, errors.WithStack(&model.ConfigurationError{Model: name, Reason: err.Error(), Cause: err})
	}

	s := &Schema{}
	if ds, ok := tree.Datasource(); ok {
		if v, ok := ds.Property("provider"); ok {
			s.Provider = literal(v)
		}
		if v, ok := ds.Property("url"); ok {
			s.URL = resolveURL(v)
		}
	}
	if s.Provider != "" && s.Provider != "mysql" {
		return nil, errors.WithStack(&model.ConfigurationError{
			Model:  name,
			Reason: "unsupported datasource provider " + s.Provider,
		})
	}

	s.Definitions = Definitions(tree)
	s.Registry, err = model.Register(s.Definitions...)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Definitions converts the models of a parsed schema into registration
// input. Views are skipped.
func Definitions(tree *ast.SchemaAst) []model.Definition {
	models := make(map[string]*ast.Model)
	for _, m := range tree.Models() {
		if !m.IsView() {
			models[m.GetName()] = m
		}
	}

	var defs []model.Definition
	for _, m := range tree.Models() {
		if m.IsView() {
			continue
		}
		def := model.Definition{Table: tableName(m)}
		for _, f := range m.Fields() {
			if target, ok := models[f.Type]; ok {
				if rel, ok := relationFor(m, f, target); ok {
					def.Relations = append(def.Relations, rel)
				}
				continue
			}
			def.Fields = append(def.Fields, fieldFor(f))
		}
		defs = append(defs, def)
	}
	return defs
}

func tableName(m *ast.Model) string {
	if attr, ok := m.BlockAttribute("map"); ok {
		if v, ok := attr.Argument("name", 0); ok {
			return literal(v)
		}
	}
	return m.GetName()
}

func fieldFor(f *ast.Field) model.FieldDefinition {
	def := model.FieldDefinition{
		Name: f.GetName(),
		Type: f.Type,
		ID:   f.HasAttribute("id"),
	}
	if attr, ok := f.Attribute("db.Binary"); ok {
		if v, ok := attr.Argument("", 0); ok && v.String() == "16" {
			def.Type = "@db.Binary(16)"
		}
	}
	if attr, ok := f.Attribute("default"); ok {
		if v, ok := attr.Argument("value", 0); ok {
			def.Default = v.String()
		}
	}
	return def
}

// relationFor resolves a relation field. The side carrying
// @relation(fields, references) owns the foreign key; the opposite side
// gets the columns swapped.
func relationFor(owner *ast.Model, f *ast.Field, target *ast.Model) (model.RelationDefinition, bool) {
	rel := model.RelationDefinition{Name: f.GetName(), Cardinality: model.One}
	if f.Arity() == ast.FieldArityList {
		rel.Cardinality = model.Many
	}

	if from, to, ok := relationColumns(f); ok {
		rel.From = model.ColumnRef{Table: tableName(owner), Column: from}
		rel.To = model.ColumnRef{Table: tableName(target), Column: to}
		return rel, true
	}

	// Find the back-reference on the target that names this model.
	for _, back := range target.Fields() {
		if back.Type != owner.GetName() || back == f {
			continue
		}
		if from, to, ok := relationColumns(back); ok {
			rel.From = model.ColumnRef{Table: tableName(owner), Column: to}
			rel.To = model.ColumnRef{Table: tableName(target), Column: from}
			return rel, true
		}
	}
	return rel, false
}

func relationColumns(f *ast.Field) (from, to string, ok bool) {
	attr, found := f.Attribute("relation")
	if !found {
		return "", "", false
	}
	fields, okF := attr.Argument("fields", -1)
	refs, okR := attr.Argument("references", -1)
	if !okF || !okR {
		return "", "", false
	}
	fa, okF := fields.(*ast.ArrayExpression)
	ra, okR := refs.(*ast.ArrayExpression)
	if !okF || !okR {
		return "", "", false
	}
	fn, rn := fa.Names(), ra.Names()
	if len(fn) == 0 || len(rn) == 0 {
		return "", "", false
	}
	return fn[0], rn[0], true
}

func literal(e ast.Expression) string {
	switch v := e.(type) {
	case *ast.StringValue:
		return v.Value
	case nil:
		return ""
	default:
		return e.String()
	}
}

func resolveURL(e ast.Expression) string {
	call, ok := e.(*ast.FunctionCall)
	if !ok || call.Name != "env" {
		return literal(e)
	}
	v, ok := call.Arguments.Lookup("", 0)
	if !ok {
		return ""
	}
	return strings.TrimSpace(os.Getenv(literal(v)))
}
