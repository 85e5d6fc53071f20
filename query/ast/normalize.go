package ast

import (
	"encoding/json"
	"log/slog"
	"reflect"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/satishbabariya/prisma-edge/internal/debug"
	"github.com/satishbabariya/prisma-edge/model"
)

// Options controls normalization.
type Options struct {
	// Strict turns unknown fields and relations into ErrMalformedDescriptor.
	// Otherwise the fragment is dropped and logged at debug level.
	Strict bool
	Logger *slog.Logger
}

type normalizer struct {
	reg  *model.Registry
	opts Options
}

// Normalize checks args against m and returns the typed trees. Relations are
// resolved through reg. The caller's maps are never modified.
func Normalize(verb Verb, args Args, m *model.Descriptor, reg *model.Registry, opts Options) (*Query, error) {
	if opts.Logger == nil {
		opts.Logger = debug.Logger()
	}
	n := &normalizer{reg: reg, opts: opts}
	q := &Query{Verb: verb, Model: m, Skip: args.Skip, Take: args.Take}

	var err error
	if args.Select != nil {
		if q.Select, err = n.projections(m, args.Select, "select"); err != nil {
			return nil, err
		}
	}
	if args.Where != nil {
		if q.Where, err = n.filters(m, args.Where, "where"); err != nil {
			return nil, err
		}
	}
	if args.Data != nil {
		if q.Data, err = n.writes(m, args.Data, "data"); err != nil {
			return nil, err
		}
	}
	if args.Create != nil {
		if q.Create, err = n.writes(m, args.Create, "create"); err != nil {
			return nil, err
		}
	}
	if args.Update != nil {
		if q.Update, err = n.writes(m, args.Update, "update"); err != nil {
			return nil, err
		}
	}
	return q, nil
}

func (n *normalizer) malformed(m *model.Descriptor, path, reason string) error {
	if n.opts.Strict {
		return errors.WithStack(&MalformedDescriptorError{Model: m.Name, Path: path, Reason: reason})
	}
	n.opts.Logger.Debug("Dropping descriptor fragment", "model", m.Name, "path", path, "reason", reason)
	return nil
}

func (n *normalizer) related(m *model.Descriptor, field string) (model.Relation, *model.Descriptor, bool) {
	rel, ok := m.Relation(field)
	if !ok {
		return rel, nil, false
	}
	target, ok := n.reg.Related(rel)
	return rel, target, ok
}

func (n *normalizer) filters(m *model.Descriptor, tree any, path string) ([]Filter, error) {
	pairs, ok := entries(tree)
	if !ok {
		return nil, n.malformed(m, path, "filter is not an object")
	}
	var out []Filter
	for _, e := range pairs {
		at := path + "." + e.Key

		switch LogicalOperator(e.Key) {
		case OpAND, OpOR, OpNOT:
			g, err := n.group(m, LogicalOperator(e.Key), e.Value, at)
			if err != nil {
				return nil, err
			}
			if g != nil {
				out = append(out, *g)
			}
			continue
		}

		if IsTree(e.Value) {
			if rel, target, ok := n.related(m, e.Key); ok {
				children, err := n.filters(target, e.Value, at)
				if err != nil {
					return nil, err
				}
				if len(children) > 0 {
					out = append(out, RelationFilter{Field: e.Key, Relation: rel, Model: target, Children: children})
				}
				continue
			}
			if !m.HasField(e.Key) {
				if err := n.malformed(m, at, "unknown field or relation"); err != nil {
					return nil, err
				}
				continue
			}
			leaves, err := n.operators(m, e.Key, e.Value, at)
			if err != nil {
				return nil, err
			}
			out = append(out, leaves...)
			continue
		}

		if !IsLeaf(e.Value) {
			if err := n.malformed(m, at, "unsupported value type"); err != nil {
				return nil, err
			}
			continue
		}
		if !m.HasField(e.Key) {
			if err := n.malformed(m, at, "unknown field"); err != nil {
				return nil, err
			}
			continue
		}
		out = append(out, ScalarLeaf{Field: e.Key, Value: e.Value})
	}
	return out, nil
}

func (n *normalizer) operators(m *model.Descriptor, field string, tree any, path string) ([]Filter, error) {
	pairs, _ := entries(tree)
	var out []Filter
	for _, e := range pairs {
		at := path + "." + e.Key
		op, known := operators[e.Key]
		if !known {
			if err := n.malformed(m, at, "unknown operator"); err != nil {
				return nil, err
			}
			continue
		}
		value := e.Value
		if op.IsList() {
			list, ok := toList(value)
			if !ok {
				if err := n.malformed(m, at, "operator needs a list"); err != nil {
					return nil, err
				}
				continue
			}
			value = list
		} else if !IsLeaf(value) {
			if err := n.malformed(m, at, "operator needs a scalar"); err != nil {
				return nil, err
			}
			continue
		}
		out = append(out, OperatorLeaf{Field: field, Op: op, Value: value})
	}
	return out, nil
}

func (n *normalizer) group(m *model.Descriptor, op LogicalOperator, v any, path string) (*Group, error) {
	var branches []any
	if list, ok := v.([]any); ok {
		branches = list
	} else {
		branches = []any{v}
	}
	g := &Group{Op: op}
	for i, b := range branches {
		children, err := n.filters(m, b, path+"["+strconv.Itoa(i)+"]")
		if err != nil {
			return nil, err
		}
		if len(children) > 0 {
			g.Branches = append(g.Branches, children)
		}
	}
	if len(g.Branches) == 0 {
		return nil, nil
	}
	return g, nil
}

func (n *normalizer) projections(m *model.Descriptor, tree any, path string) ([]Projection, error) {
	pairs, ok := entries(tree)
	if !ok {
		return nil, n.malformed(m, path, "select is not an object")
	}
	out := make([]Projection, 0, len(pairs))
	for _, e := range pairs {
		at := path + "." + e.Key
		switch v := e.Value.(type) {
		case bool:
			if !v {
				continue
			}
			if rel, target, ok := n.related(m, e.Key); ok {
				// A bare relation selects every scalar of the related model.
				if len(target.Fields) == 0 {
					if err := n.malformed(m, at, "relation needs a nested select"); err != nil {
						return nil, err
					}
					continue
				}
				children := make([]Projection, len(target.Fields))
				for i, f := range target.Fields {
					children[i] = Leaf{Field: f}
				}
				out = append(out, RelationProjection{Field: e.Key, Relation: rel, Model: target, Children: children})
				continue
			}
			if !m.HasField(e.Key) {
				if err := n.malformed(m, at, "unknown field"); err != nil {
					return nil, err
				}
				continue
			}
			out = append(out, Leaf{Field: e.Key})
		default:
			sub, ok := entries(e.Value)
			if !ok {
				if err := n.malformed(m, at, "select value must be true or {select: ...}"); err != nil {
					return nil, err
				}
				continue
			}
			rel, target, isRel := n.related(m, e.Key)
			if !isRel {
				if err := n.malformed(m, at, "unknown relation"); err != nil {
					return nil, err
				}
				continue
			}
			nested, ok := Ordered(sub).Get("select")
			if !ok {
				if err := n.malformed(m, at, "missing nested select"); err != nil {
					return nil, err
				}
				continue
			}
			children, err := n.projections(target, nested, at+".select")
			if err != nil {
				return nil, err
			}
			out = append(out, RelationProjection{Field: e.Key, Relation: rel, Model: target, Children: children})
		}
	}
	return out, nil
}

func (n *normalizer) writes(m *model.Descriptor, tree any, path string) ([]Write, error) {
	pairs, ok := entries(tree)
	if !ok {
		return nil, n.malformed(m, path, "write map is not an object")
	}
	out := make([]Write, 0, len(pairs))
	for _, e := range pairs {
		at := path + "." + e.Key
		if rel, target, ok := n.related(m, e.Key); ok {
			c, err := n.connect(m, e.Key, rel, target, e.Value, at)
			if err != nil {
				return nil, err
			}
			if c != nil {
				out = append(out, *c)
			}
			continue
		}
		if !m.HasField(e.Key) {
			if err := n.malformed(m, at, "unknown field"); err != nil {
				return nil, err
			}
			continue
		}
		if !IsLeaf(e.Value) {
			if err := n.malformed(m, at, "unsupported value type"); err != nil {
				return nil, err
			}
			continue
		}
		out = append(out, Value{Field: e.Key, Value: e.Value})
	}
	return out, nil
}

func (n *normalizer) connect(m *model.Descriptor, field string, rel model.Relation, target *model.Descriptor, v any, path string) (*Connect, error) {
	pairs, ok := entries(v)
	var where any
	if ok {
		where, ok = Ordered(pairs).Get("connect")
	}
	if !ok || !IsTree(where) {
		return nil, n.malformed(m, path, "relation writes support only {connect: filter}")
	}
	if rel.Cardinality != model.One {
		return nil, n.malformed(m, path, "connect needs a one relation")
	}
	filters, err := n.filters(target, where, path+".connect")
	if err != nil {
		return nil, err
	}
	if len(filters) == 0 {
		return nil, n.malformed(m, path, "empty connect filter")
	}
	c := &Connect{Field: field, Relation: rel, Model: target, Where: filters}
	for _, f := range filters {
		switch leaf := f.(type) {
		case ScalarLeaf:
			if leaf.Field == rel.To.Column {
				c.Key, c.HasKey = leaf.Value, true
			}
		case OperatorLeaf:
			if leaf.Field == rel.To.Column && leaf.Op == OpEquals {
				c.Key, c.HasKey = leaf.Value, true
			}
		}
	}
	return c, nil
}

// IsLeaf reports whether v is a scalar the compilers can bind as a
// parameter.
func IsLeaf(v any) bool {
	switch v.(type) {
	case nil, string, bool, []byte, time.Time, json.Number,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return true
	}
	return false
}

func toList(v any) ([]any, bool) {
	if list, ok := v.([]any); ok {
		for _, item := range list {
			if !IsLeaf(item) {
				return nil, false
			}
		}
		return list, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice || rv.Type().Elem().Kind() == reflect.Uint8 {
		return nil, false
	}
	list := make([]any, rv.Len())
	for i := range list {
		list[i] = rv.Index(i).Interface()
		if !IsLeaf(list[i]) {
			return nil, false
		}
	}
	return list, true
}
