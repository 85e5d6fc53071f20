// Package ast defines the query descriptor a caller hands to a model client
// and the typed trees the compilers consume.
package ast

// Verb is a CRUD operation of the per-model client.
type Verb string

const (
	VerbFindUnique Verb = "findUnique"
	VerbFindMany   Verb = "findMany"
	VerbCount      Verb = "count"
	VerbCreate     Verb = "create"
	VerbUpdate     Verb = "update"
	VerbUpsert     Verb = "upsert"
	VerbDelete     Verb = "delete"
)

// Verbs lists every verb in client method order.
var Verbs = []Verb{VerbFindUnique, VerbFindMany, VerbCount, VerbCreate, VerbUpdate, VerbUpsert, VerbDelete}

// ParseVerb returns the verb named s.
func ParseVerb(s string) (Verb, bool) {
	for _, v := range Verbs {
		if string(v) == s {
			return v, true
		}
	}
	return "", false
}

// Many reports whether the verb returns a list of rows.
func (v Verb) Many() bool {
	return v == VerbFindMany
}

// Reads reports whether the verb leaves the database unchanged.
func (v Verb) Reads() bool {
	return v == VerbFindUnique || v == VerbFindMany || v == VerbCount
}

// ComparisonOperator is a filter operator applied to one field.
type ComparisonOperator string

const (
	OpEquals     ComparisonOperator = "equals"
	OpNot        ComparisonOperator = "not"
	OpLt         ComparisonOperator = "lt"
	OpLte        ComparisonOperator = "lte"
	OpGt         ComparisonOperator = "gt"
	OpGte        ComparisonOperator = "gte"
	OpIn         ComparisonOperator = "in"
	OpNotIn      ComparisonOperator = "notIn"
	OpContains   ComparisonOperator = "contains"
	OpStartsWith ComparisonOperator = "startsWith"
	OpEndsWith   ComparisonOperator = "endsWith"
)

var operators = map[string]ComparisonOperator{
	"equals":     OpEquals,
	"not":        OpNot,
	"lt":         OpLt,
	"lte":        OpLte,
	"gt":         OpGt,
	"gte":        OpGte,
	"in":         OpIn,
	"notIn":      OpNotIn,
	"contains":   OpContains,
	"startsWith": OpStartsWith,
	"endsWith":   OpEndsWith,
}

// IsList reports whether the operator takes a list operand.
func (op ComparisonOperator) IsList() bool {
	return op == OpIn || op == OpNotIn
}

// LogicalOperator combines nested filters.
type LogicalOperator string

const (
	OpAND LogicalOperator = "AND"
	OpOR  LogicalOperator = "OR"
	OpNOT LogicalOperator = "NOT"
)

// Args is the raw query descriptor. Select, Where and the write maps accept
// map[string]any or Ordered; Ordered keeps the caller's key order.
//
//	select: field -> true | {select: subtree}
//	where:  field -> scalar | {operator: value} | nested relation filter
//	data:   field -> scalar | {connect: filter}
type Args struct {
	Select any  `json:"select,omitempty"`
	Where  any  `json:"where,omitempty"`
	Data   any  `json:"data,omitempty"`
	Create any  `json:"create,omitempty"`
	Update any  `json:"update,omitempty"`
	Skip   *int `json:"skip,omitempty"`
	Take   *int `json:"take,omitempty"`
}

// Int returns a pointer to n, for Skip and Take.
func Int(n int) *int {
	return &n
}
