package executor

import (
	"encoding/json"
	"reflect"

	"github.com/cockroachdb/errors"

	"github.com/satishbabariya/prisma-edge/query/planner"
)

// Storage is the scratch space one pipeline run shares between its
// operations. A fresh Storage is created per run and dropped with it.
type Storage struct {
	values map[string]any
}

// NewStorage returns an empty storage context.
func NewStorage() *Storage {
	return &Storage{values: make(map[string]any)}
}

// Get returns the value stored under key.
func (s *Storage) Get(key string) (any, bool) {
	v, ok := s.values[key]
	return v, ok
}

// Set stores value under key.
func (s *Storage) Set(key string, value any) {
	s.values[key] = value
}

// Holds evaluates a condition against the stored values. An absent
// condition holds.
func (s *Storage) Holds(c planner.Condition) bool {
	switch c.Kind {
	case planner.CondNone, planner.CondAlways:
		return true
	case planner.CondNever:
		return false
	case planner.CondTruthy:
		v, _ := s.Get(c.Key)
		return Truthy(v)
	case planner.CondFalsy:
		v, _ := s.Get(c.Key)
		return !Truthy(v)
	}
	return false
}

// capture applies an After directive to a decoded result. A required field
// that is missing or NULL is an error and leaves storage untouched.
func (s *Storage) capture(c planner.Capture, decoded any) error {
	switch c.Kind {
	case planner.CaptureField:
		var v any
		if row, ok := decoded.(map[string]any); ok {
			v = row[c.Field]
		}
		if v == nil && c.Required {
			return errors.Wrapf(ErrNoValue, "%s: no %q in result", c.Key, c.Field)
		}
		s.Set(c.Key, v)
	case planner.CaptureTruthy:
		s.Set(c.Key, Truthy(decoded))
	}
	return nil
}

// SetVar returns a copy of params with every entry equal to placeholder
// replaced by value. Only Placeholder entries are compared.
func SetVar(params []any, placeholder planner.Placeholder, value any) []any {
	out := make([]any, len(params))
	for i, p := range params {
		if ph, ok := p.(planner.Placeholder); ok && ph == placeholder {
			out[i] = value
			continue
		}
		out[i] = p
	}
	return out
}

// Truthy follows the usual dynamic-language rules: nil, false, zero
// numbers, empty strings and empty collections are false.
func Truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case json.Number:
		f, err := t.Float64()
		return err != nil || f != 0
	case []byte:
		return len(t) > 0
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		return rv.Float() != 0
	case reflect.Map, reflect.Slice:
		return rv.Len() > 0
	}
	return true
}
