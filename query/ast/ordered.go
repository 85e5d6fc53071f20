package ast

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/cockroachdb/errors"
)

// Entry is one key/value pair of an Ordered map.
type Entry struct {
	Key   string
	Value any
}

// Ordered is a map that keeps insertion order. Projections compile their
// JSON keys in this order.
type Ordered []Entry

// O builds an Ordered map from alternating keys and values.
//
//	ast.O("uuid", true, "author", ast.O("select", ast.O("email", true)))
func O(kv ...any) Ordered {
	if len(kv)%2 != 0 {
		panic("ast.O: odd number of arguments")
	}
	o := make(Ordered, 0, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			panic(fmt.Sprintf("ast.O: key %v is not a string", kv[i]))
		}
		o = append(o, Entry{Key: key, Value: kv[i+1]})
	}
	return o
}

// Get returns the value stored under key.
func (o Ordered) Get(key string) (any, bool) {
	for _, e := range o {
		if e.Key == key {
			return e.Value, true
		}
	}
	return nil, false
}

// MarshalJSON writes the entries in order.
func (o Ordered) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(e.Key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(e.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes an object keeping key order. Nested objects become
// Ordered and numbers become json.Number.
func (o *Ordered) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	v, err := decodeValue(dec)
	if err != nil {
		return err
	}
	m, ok := v.(Ordered)
	if !ok {
		return errors.Newf("expected a JSON object, got %T", v)
	}
	*o = m
	return nil
}

// UnmarshalJSON decodes the descriptor keeping key order in every tree.
func (a *Args) UnmarshalJSON(b []byte) error {
	var raw struct {
		Select json.RawMessage `json:"select"`
		Where  json.RawMessage `json:"where"`
		Data   json.RawMessage `json:"data"`
		Create json.RawMessage `json:"create"`
		Update json.RawMessage `json:"update"`
		Skip   *int            `json:"skip"`
		Take   *int            `json:"take"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return errors.Wrap(err, "decode query descriptor")
	}
	fields := []struct {
		src json.RawMessage
		dst *any
	}{
		{raw.Select, &a.Select},
		{raw.Where, &a.Where},
		{raw.Data, &a.Data},
		{raw.Create, &a.Create},
		{raw.Update, &a.Update},
	}
	for _, f := range fields {
		if len(f.src) == 0 || string(f.src) == "null" {
			continue
		}
		var o Ordered
		if err := o.UnmarshalJSON(f.src); err != nil {
			return errors.Wrap(err, "decode query descriptor")
		}
		*f.dst = o
	}
	a.Skip, a.Take = raw.Skip, raw.Take
	return nil
}

func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			o := Ordered{}
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, errors.Newf("unexpected object key %v", keyTok)
				}
				v, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				o = append(o, Entry{Key: key, Value: v})
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return o, nil
		case '[':
			list := []any{}
			for dec.More() {
				v, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				list = append(list, v)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return list, nil
		}
		return nil, errors.Newf("unexpected delimiter %v", t)
	default:
		return tok, nil
	}
}

// entries returns the pairs of a tree value: Ordered keeps its order, Go
// maps are walked in sorted key order.
func entries(v any) ([]Entry, bool) {
	switch m := v.(type) {
	case Ordered:
		return m, true
	case *Ordered:
		if m == nil {
			return nil, true
		}
		return *m, true
	case map[string]any:
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make([]Entry, len(keys))
		for i, k := range keys {
			out[i] = Entry{Key: k, Value: m[k]}
		}
		return out, true
	case map[string]bool:
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make([]Entry, len(keys))
		for i, k := range keys {
			out[i] = Entry{Key: k, Value: m[k]}
		}
		return out, true
	}
	return nil, false
}

// IsTree reports whether v is a nested descriptor rather than a leaf.
func IsTree(v any) bool {
	_, ok := entries(v)
	return ok
}
