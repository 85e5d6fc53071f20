// Package planner turns a normalized query into the ordered list of single
// statements that implement it, wiring statements together through
// declarative directives.
package planner

import (
	"fmt"
	"strings"

	"github.com/satishbabariya/prisma-edge/model"
)

// Storage keys written by directives.
const (
	KeyInsertID = "insertId"
	KeyUpdate   = "update"
	// KeyInserted holds whether an INSERT with a server-assigned key
	// affected a row.
	KeyInserted = "inserted"
)

// Placeholder is a parameter sentinel replaced at run time by the storage
// value a Binding names.
type Placeholder string

func (p Placeholder) String() string { return "<" + string(p) + ">" }

// ConditionKind selects how a Condition reads storage.
type ConditionKind int

const (
	// CondNone is the absent condition.
	CondNone ConditionKind = iota
	CondAlways
	CondNever
	// CondTruthy holds when storage[Key] is truthy.
	CondTruthy
	// CondFalsy holds when storage[Key] is absent or falsy.
	CondFalsy
)

// Condition is a predicate over the storage context.
type Condition struct {
	Kind ConditionKind
	Key  string
}

// Always is the condition that always holds.
func Always() Condition { return Condition{Kind: CondAlways} }

// Truthy holds when storage[key] is truthy.
func Truthy(key string) Condition { return Condition{Kind: CondTruthy, Key: key} }

// Falsy holds when storage[key] is absent or falsy.
func Falsy(key string) Condition { return Condition{Kind: CondFalsy, Key: key} }

// IsSet reports whether the condition is present.
func (c Condition) IsSet() bool { return c.Kind != CondNone }

func (c Condition) String() string {
	switch c.Kind {
	case CondAlways:
		return "always"
	case CondNever:
		return "never"
	case CondTruthy:
		return c.Key
	case CondFalsy:
		return "!" + c.Key
	default:
		return ""
	}
}

// Binding replaces Placeholder in the parameters with storage[Key].
type Binding struct {
	Placeholder Placeholder
	Key         string
}

// CaptureKind selects what an After capture stores.
type CaptureKind int

const (
	CaptureNone CaptureKind = iota
	// CaptureField stores decoded[Field] under Key.
	CaptureField
	// CaptureTruthy stores the truthiness of the decoded result under Key.
	CaptureTruthy
)

// Capture records part of a decoded result into storage.
type Capture struct {
	Kind  CaptureKind
	Key   string
	Field string
	// Required fails the run when a field capture finds no value.
	Required bool
}

// IsSet reports whether the capture is present.
func (c Capture) IsSet() bool { return c.Kind != CaptureNone }

// Directive ties an operation to earlier ones. The executor is the only
// reader.
type Directive struct {
	// When skips the operation if it does not hold.
	When Condition
	// Before binds placeholders right before the statement is sent.
	Before []Binding
	// After captures the decoded result.
	After Capture
	// Silent suppresses a connector failure when it holds.
	Silent Condition
}

// Operation is one statement of a pipeline.
type Operation struct {
	// Label says what the statement is for: "select", "probe", "connect author", ...
	Label       string
	SQL         string
	Params      []any
	Directive   Directive
	Cardinality model.Cardinality
	// ResultBearing operations produce the value the call returns.
	ResultBearing bool
}

// String renders the operation on one line for logs and the CLI.
func (o Operation) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s %v", o.Label, o.SQL, o.Params)
	d := o.Directive
	if d.When.IsSet() {
		fmt.Fprintf(&b, " if=%s", d.When)
	}
	for _, bind := range d.Before {
		fmt.Fprintf(&b, " bind=%s<-%s", bind.Placeholder, bind.Key)
	}
	switch d.After.Kind {
	case CaptureField:
		fmt.Fprintf(&b, " after=%s<-.%s", d.After.Key, d.After.Field)
		if d.After.Required {
			b.WriteString("!")
		}
	case CaptureTruthy:
		fmt.Fprintf(&b, " after=%s<-truthy", d.After.Key)
	}
	if d.Silent.IsSet() {
		fmt.Fprintf(&b, " silent=%s", d.Silent)
	}
	if o.ResultBearing {
		b.WriteString(" result")
	}
	return b.String()
}
