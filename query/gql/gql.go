// Package gql reads a GraphQL document as a query descriptor. The root
// field's selection becomes the projection and its arguments become the
// where, data and paging trees.
package gql

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	gqlast "github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"

	"github.com/satishbabariya/prisma-edge/query/ast"
)

// Query is the root field of a document and the descriptor read from it.
type Query struct {
	Field string
	Args  ast.Args
}

// Parse reads the first root field of the first operation in src. Variables
// resolve $references. When the field has no where or data argument, a
// variable of that name is used instead.
func Parse(src string, vars map[string]any) (*Query, error) {
	doc, err := parser.ParseQuery(&gqlast.Source{Name: "query", Input: src})
	if err != nil {
		return nil, errors.Wrap(err, "parse graphql query")
	}
	if len(doc.Operations) == 0 {
		return nil, errors.New("graphql document has no operation")
	}
	r := reader{doc: doc, vars: vars}
	root, err := r.rootField(doc.Operations[0].SelectionSet)
	if err != nil {
		return nil, err
	}

	q := &Query{Field: root.Name}
	if sel, err := r.selection(root.SelectionSet, 0); err != nil {
		return nil, err
	} else if len(sel) > 0 {
		q.Args.Select = sel
	}

	args := ast.Ordered{}
	for _, a := range root.Arguments {
		v, err := r.value(a.Value)
		if err != nil {
			return nil, errors.Wrapf(err, "argument %s", a.Name)
		}
		args = append(args, ast.Entry{Key: a.Name, Value: v})
	}
	for _, name := range []string{"where", "data"} {
		if _, ok := args.Get(name); !ok {
			if v, ok := vars[name]; ok {
				args = append(args, ast.Entry{Key: name, Value: v})
			}
		}
	}
	if err := q.assign(args); err != nil {
		return nil, err
	}
	return q, nil
}

func (q *Query) assign(args ast.Ordered) error {
	for _, e := range args {
		switch e.Key {
		case "where":
			q.Args.Where = nonEmpty(e.Value)
		case "data":
			q.Args.Data = nonEmpty(e.Value)
		case "create":
			q.Args.Create = nonEmpty(e.Value)
		case "update":
			q.Args.Update = nonEmpty(e.Value)
		case "skip", "take":
			n, err := toInt(e.Value)
			if err != nil {
				return errors.Wrapf(err, "argument %s", e.Key)
			}
			if e.Key == "skip" {
				q.Args.Skip = n
			} else {
				q.Args.Take = n
			}
		default:
			return errors.Newf("unknown argument %q", e.Key)
		}
	}
	return nil
}

type reader struct {
	doc  *gqlast.QueryDocument
	vars map[string]any
}

const maxDepth = 32

func (r reader) rootField(set gqlast.SelectionSet) (*gqlast.Field, error) {
	for _, s := range set {
		switch s := s.(type) {
		case *gqlast.Field:
			return s, nil
		case *gqlast.InlineFragment:
			if f, err := r.rootField(s.SelectionSet); err == nil {
				return f, nil
			}
		case *gqlast.FragmentSpread:
			if def := r.doc.Fragments.ForName(s.Name); def != nil {
				if f, err := r.rootField(def.SelectionSet); err == nil {
					return f, nil
				}
			}
		}
	}
	return nil, errors.New("graphql operation selects no field")
}

// selection turns a selection set into a projection tree. Leaves select
// true, nested sets select their own tree, and connection wrappers named
// edges or node are flattened into their parent.
func (r reader) selection(set gqlast.SelectionSet, depth int) (ast.Ordered, error) {
	if depth > maxDepth {
		return nil, errors.New("graphql selection nests too deeply")
	}
	out := ast.Ordered{}
	add := func(sub ast.Ordered) {
		for _, e := range sub {
			out = merge(out, e)
		}
	}
	for _, s := range set {
		switch s := s.(type) {
		case *gqlast.Field:
			if strings.HasPrefix(s.Name, "__") {
				continue
			}
			if len(s.SelectionSet) == 0 {
				out = merge(out, ast.Entry{Key: s.Name, Value: true})
				continue
			}
			sub, err := r.selection(s.SelectionSet, depth+1)
			if err != nil {
				return nil, err
			}
			if s.Name == "edges" || s.Name == "node" {
				add(sub)
				continue
			}
			out = merge(out, ast.Entry{Key: s.Name, Value: ast.O("select", sub)})
		case *gqlast.InlineFragment:
			sub, err := r.selection(s.SelectionSet, depth+1)
			if err != nil {
				return nil, err
			}
			add(sub)
		case *gqlast.FragmentSpread:
			def := r.doc.Fragments.ForName(s.Name)
			if def == nil {
				return nil, errors.Newf("unknown fragment %q", s.Name)
			}
			sub, err := r.selection(def.SelectionSet, depth+1)
			if err != nil {
				return nil, err
			}
			add(sub)
		}
	}
	return out, nil
}

// merge adds e to o. A field selected twice keeps its first position and
// nested selections are combined.
func merge(o ast.Ordered, e ast.Entry) ast.Ordered {
	for i, cur := range o {
		if cur.Key != e.Key {
			continue
		}
		a, aok := selectOf(cur.Value)
		b, bok := selectOf(e.Value)
		if aok && bok {
			for _, be := range b {
				a = merge(a, be)
			}
			o[i].Value = ast.O("select", a)
		} else if bok {
			o[i].Value = e.Value
		}
		return o
	}
	return append(o, e)
}

func selectOf(v any) (ast.Ordered, bool) {
	o, ok := v.(ast.Ordered)
	if !ok {
		return nil, false
	}
	sel, ok := o.Get("select")
	if !ok {
		return nil, false
	}
	so, ok := sel.(ast.Ordered)
	return so, ok
}

// value converts an argument literal keeping object key order. Numbers
// become json.Number like descriptors decoded from JSON.
func (r reader) value(v *gqlast.Value) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch v.Kind {
	case gqlast.Variable:
		val, ok := r.vars[v.Raw]
		if !ok {
			return nil, errors.Newf("variable $%s is not set", v.Raw)
		}
		return val, nil
	case gqlast.IntValue, gqlast.FloatValue:
		return json.Number(v.Raw), nil
	case gqlast.StringValue, gqlast.BlockValue, gqlast.EnumValue:
		return v.Raw, nil
	case gqlast.BooleanValue:
		return v.Raw == "true", nil
	case gqlast.NullValue:
		return nil, nil
	case gqlast.ListValue:
		list := make([]any, 0, len(v.Children))
		for _, c := range v.Children {
			item, err := r.value(c.Value)
			if err != nil {
				return nil, err
			}
			list = append(list, item)
		}
		return list, nil
	case gqlast.ObjectValue:
		o := make(ast.Ordered, 0, len(v.Children))
		for _, c := range v.Children {
			item, err := r.value(c.Value)
			if err != nil {
				return nil, err
			}
			o = append(o, ast.Entry{Key: c.Name, Value: item})
		}
		return o, nil
	}
	return nil, errors.Newf("unsupported value %s", v.String())
}

// nonEmpty drops empty objects so they read as absent.
func nonEmpty(v any) any {
	switch t := v.(type) {
	case ast.Ordered:
		if len(t) == 0 {
			return nil
		}
	case map[string]any:
		if len(t) == 0 {
			return nil
		}
	}
	return v
}

func toInt(v any) (*int, error) {
	switch n := v.(type) {
	case nil:
		return nil, nil
	case int:
		return ast.Int(n), nil
	case int64:
		return ast.Int(int(n)), nil
	case float64:
		if n != float64(int(n)) {
			return nil, errors.Newf("%v is not an integer", n)
		}
		return ast.Int(int(n)), nil
	case json.Number:
		i, err := strconv.Atoi(n.String())
		if err != nil {
			return nil, errors.Newf("%s is not an integer", n)
		}
		return ast.Int(i), nil
	}
	return nil, errors.Newf("expected an integer, got %T", v)
}
