package client

import (
	"encoding/json"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

// timeLayouts are the formats MySQL and the select-all projections emit.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05Z",
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

var timeType = reflect.TypeOf(time.Time{})

// Decode binds a decoded result into a fresh T.
func Decode[T any](v any) (T, error) {
	var out T
	err := Bind(v, &out)
	return out, err
}

// Bind copies a decoded result into dst, a pointer to a struct, a slice of
// structs, a map or a scalar. Row keys are matched to struct fields by json
// tag, db tag, then name (case-insensitive). Unknown keys are ignored.
func Bind(src any, dst any) error {
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return errors.Newf("bind destination must be a non-nil pointer, got %T", dst)
	}
	return assign(rv.Elem(), src, "$")
}

func assign(dst reflect.Value, src any, path string) error {
	if src == nil {
		dst.Set(reflect.Zero(dst.Type()))
		return nil
	}
	if dst.Kind() == reflect.Pointer {
		if dst.IsNil() {
			dst.Set(reflect.New(dst.Type().Elem()))
		}
		return assign(dst.Elem(), src, path)
	}

	sv := reflect.ValueOf(src)
	if dst.Kind() != reflect.Interface && sv.Type().AssignableTo(dst.Type()) {
		dst.Set(sv)
		return nil
	}

	switch dst.Kind() {
	case reflect.Interface:
		if !sv.Type().Implements(dst.Type()) {
			return mismatch(path, dst, src)
		}
		dst.Set(sv)
		return nil
	case reflect.Struct:
		if dst.Type() == timeType {
			t, err := parseTime(src)
			if err != nil {
				return errors.Wrapf(err, "%s", path)
			}
			dst.Set(reflect.ValueOf(t))
			return nil
		}
		row, ok := src.(map[string]any)
		if !ok {
			return mismatch(path, dst, src)
		}
		for key, v := range row {
			f := findFieldByName(dst.Type(), key)
			if f.Name == "" {
				continue
			}
			if err := assign(dst.FieldByIndex(f.Index), v, path+"."+key); err != nil {
				return err
			}
		}
		return nil
	case reflect.Slice:
		if dst.Type().Elem().Kind() == reflect.Uint8 {
			if s, ok := src.(string); ok {
				dst.SetBytes([]byte(s))
				return nil
			}
		}
		list, ok := src.([]any)
		if !ok {
			return mismatch(path, dst, src)
		}
		out := reflect.MakeSlice(dst.Type(), len(list), len(list))
		for i, v := range list {
			if err := assign(out.Index(i), v, path+"["+strconv.Itoa(i)+"]"); err != nil {
				return err
			}
		}
		dst.Set(out)
		return nil
	case reflect.Map:
		row, ok := src.(map[string]any)
		if !ok || dst.Type().Key().Kind() != reflect.String {
			return mismatch(path, dst, src)
		}
		out := reflect.MakeMapWithSize(dst.Type(), len(row))
		for k, v := range row {
			ev := reflect.New(dst.Type().Elem()).Elem()
			if err := assign(ev, v, path+"."+k); err != nil {
				return err
			}
			out.SetMapIndex(reflect.ValueOf(k).Convert(dst.Type().Key()), ev)
		}
		dst.Set(out)
		return nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := toInt(src)
		if err != nil || dst.OverflowInt(n) {
			return mismatch(path, dst, src)
		}
		dst.SetInt(n)
		return nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := toInt(src)
		if err != nil || n < 0 || dst.OverflowUint(uint64(n)) {
			return mismatch(path, dst, src)
		}
		dst.SetUint(uint64(n))
		return nil
	case reflect.Float32, reflect.Float64:
		f, err := toFloat(src)
		if err != nil {
			return mismatch(path, dst, src)
		}
		dst.SetFloat(f)
		return nil
	case reflect.Bool:
		b, ok := toBool(src)
		if !ok {
			return mismatch(path, dst, src)
		}
		dst.SetBool(b)
		return nil
	case reflect.String:
		switch t := src.(type) {
		case json.Number:
			dst.SetString(t.String())
			return nil
		case []byte:
			dst.SetString(string(t))
			return nil
		case int64:
			dst.SetString(strconv.FormatInt(t, 10))
			return nil
		}
		if sv.Kind() != reflect.String {
			return mismatch(path, dst, src)
		}
	}
	if sv.Type().ConvertibleTo(dst.Type()) {
		dst.Set(sv.Convert(dst.Type()))
		return nil
	}
	return mismatch(path, dst, src)
}

func mismatch(path string, dst reflect.Value, src any) error {
	return errors.Newf("%s: cannot bind %T to %s", path, src, dst.Type())
}

func toInt(v any) (int64, error) {
	switch t := v.(type) {
	case json.Number:
		return t.Int64()
	case string:
		return strconv.ParseInt(t, 10, 64)
	case float64:
		if t != float64(int64(t)) {
			return 0, errors.Newf("%v is not an integer", t)
		}
		return int64(t), nil
	case bool:
		if t {
			return 1, nil
		}
		return 0, nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(rv.Uint()), nil
	}
	return 0, errors.Newf("%T is not a number", v)
}

func toFloat(v any) (float64, error) {
	switch t := v.(type) {
	case json.Number:
		return t.Float64()
	case string:
		return strconv.ParseFloat(t, 64)
	case float64:
		return t, nil
	case float32:
		return float64(t), nil
	}
	n, err := toInt(v)
	return float64(n), err
}

// toBool accepts MySQL's TINYINT(1) booleans.
func toBool(v any) (bool, bool) {
	switch t := v.(type) {
	case bool:
		return t, true
	case string:
		b, err := strconv.ParseBool(t)
		return b, err == nil
	}
	n, err := toInt(v)
	if err != nil {
		return false, false
	}
	return n != 0, true
}

func parseTime(v any) (time.Time, error) {
	s, ok := v.(string)
	if !ok {
		return time.Time{}, errors.Newf("cannot read %T as time", v)
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.Newf("unrecognized time %q", s)
}

// findFieldByName finds a struct field by json tag, db tag or field name.
func findFieldByName(typ reflect.Type, key string) reflect.StructField {
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}
		for _, tag := range []string{"json", "db"} {
			if name, _, _ := strings.Cut(field.Tag.Get(tag), ","); name == key {
				return field
			}
		}
	}
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		if field.IsExported() && strings.EqualFold(field.Name, key) {
			return field
		}
	}
	return reflect.StructField{}
}
