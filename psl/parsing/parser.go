// Package parsing parses Prisma schema files with Participle.
package parsing

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/satishbabariya/prisma-edge/psl/parsing/ast"
)

// file is the grammar root. Each declaration holds exactly one block.
type file struct {
	Pos   lexer.Position
	Decls []*decl `@@*`
}

type decl struct {
	Model  *ast.Model       `  @@`
	Enum   *ast.Enum        `| @@`
	Config *ast.ConfigBlock `| @@`
}

func (d *decl) top() ast.Top {
	switch {
	case d.Model != nil:
		return d.Model
	case d.Enum != nil:
		return d.Enum
	case d.Config != nil:
		return d.Config
	}
	return nil
}

var grammar = participle.MustBuild[file](
	participle.Lexer(schemaLexer),
	participle.Elide(elided...),
	participle.Unquote("String"),
	participle.UseLookahead(10),
	participle.Union[ast.Expression](
		&ast.FunctionCall{},
		&ast.ArrayExpression{},
		&ast.StringValue{},
		&ast.NumericValue{},
		&ast.ConstantValue{},
	),
)

// ParseSchemaString parses src. Failures are participle.Error values, so
// callers can recover the position.
func ParseSchemaString(filename, src string) (*ast.SchemaAst, error) {
	f, err := grammar.ParseString(filename, src)
	if err != nil {
		return nil, err
	}
	tree := &ast.SchemaAst{Tops: make([]ast.Top, 0, len(f.Decls))}
	for _, d := range f.Decls {
		if t := d.top(); t != nil {
			tree.Tops = append(tree.Tops, t)
		}
	}
	return tree, nil
}

// MustParseSchemaString is ParseSchemaString for fixtures; it panics on error.
func MustParseSchemaString(filename, src string) *ast.SchemaAst {
	tree, err := ParseSchemaString(filename, src)
	if err != nil {
		panic(err)
	}
	return tree
}
