package client

import (
	"context"
	"log/slog"
	"time"

	"github.com/satishbabariya/prisma-edge/query/ast"
)

// CallContext describes one client call to the extension hooks.
type CallContext struct {
	Context   context.Context
	CallID    string
	Model     string
	Verb      ast.Verb
	Args      ast.Args
	Result    any // set for the After hooks
	Error     error
	Duration  time.Duration
	StartTime time.Time
	EndTime   time.Time
}

// Hook runs around a call. Returning an error from a Before hook cancels
// the call; from an After hook it replaces the call's error.
type Hook func(ctx *CallContext, next func() error) error

// Extension hooks into reads (findUnique, findMany, count) and mutations.
type Extension struct {
	Name string

	BeforeQuery Hook
	AfterQuery  Hook

	BeforeMutation Hook
	AfterMutation  Hook
}

// ExtensionChain runs extensions in registration order before a call and
// in reverse order after it.
type ExtensionChain struct {
	extensions []Extension
}

// NewExtensionChain creates an empty chain.
func NewExtensionChain() *ExtensionChain {
	return &ExtensionChain{}
}

// Add appends an extension.
func (ec *ExtensionChain) Add(ext Extension) {
	ec.extensions = append(ec.extensions, ext)
}

// Len returns the number of extensions.
func (ec *ExtensionChain) Len() int { return len(ec.extensions) }

// Execute runs exec between the Before and After hooks matching the verb.
func (ec *ExtensionChain) Execute(cc *CallContext, exec func() (any, error)) (any, error) {
	before, after := func(e Extension) Hook { return e.BeforeMutation }, func(e Extension) Hook { return e.AfterMutation }
	if cc.Verb.Reads() {
		before, after = func(e Extension) Hook { return e.BeforeQuery }, func(e Extension) Hook { return e.AfterQuery }
	}

	cc.StartTime = time.Now()
	for _, ext := range ec.extensions {
		if h := before(ext); h != nil {
			if err := h(cc, func() error { return nil }); err != nil {
				return nil, err
			}
		}
	}

	result, err := exec()
	cc.Result = result
	cc.Error = err
	cc.EndTime = time.Now()
	cc.Duration = cc.EndTime.Sub(cc.StartTime)

	for i := len(ec.extensions) - 1; i >= 0; i-- {
		if h := after(ec.extensions[i]); h != nil {
			if herr := h(cc, func() error { return nil }); herr != nil {
				cc.Error = herr
			}
		}
	}
	return cc.Result, cc.Error
}

// LoggingExtension logs every call with its duration.
func LoggingExtension(logger *slog.Logger) Extension {
	logAfter := func(kind string) Hook {
		return func(cc *CallContext, next func() error) error {
			attrs := []any{"call", cc.CallID, "model", cc.Model, "verb", string(cc.Verb), "duration", cc.Duration}
			if cc.Error != nil {
				logger.Error(kind+" failed", append(attrs, "error", cc.Error)...)
			} else {
				logger.Info(kind+" done", attrs...)
			}
			return next()
		}
	}
	return Extension{
		Name:          "logging",
		AfterQuery:    logAfter("Query"),
		AfterMutation: logAfter("Mutation"),
	}
}

// TimingExtension reports the duration of every call.
func TimingExtension(onTiming func(model string, verb ast.Verb, d time.Duration)) Extension {
	h := func(cc *CallContext, next func() error) error {
		if onTiming != nil {
			onTiming(cc.Model, cc.Verb, cc.Duration)
		}
		return next()
	}
	return Extension{Name: "timing", AfterQuery: h, AfterMutation: h}
}

// ErrorHandlingExtension reports failed calls.
func ErrorHandlingExtension(onError func(model string, verb ast.Verb, err error)) Extension {
	h := func(cc *CallContext, next func() error) error {
		if cc.Error != nil && onError != nil {
			onError(cc.Model, cc.Verb, cc.Error)
		}
		return next()
	}
	return Extension{Name: "error-handling", AfterQuery: h, AfterMutation: h}
}

// ResultTransformationExtension rewrites non-nil results.
func ResultTransformationExtension(transform func(cc *CallContext, result any) any) Extension {
	h := func(cc *CallContext, next func() error) error {
		if cc.Result != nil && transform != nil {
			cc.Result = transform(cc, cc.Result)
		}
		return next()
	}
	return Extension{Name: "result-transformation", AfterQuery: h, AfterMutation: h}
}
