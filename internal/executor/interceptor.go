package executor

import (
	"context"
	"reflect"

	"github.com/canonical/sqlmapper/internal/command"
	"github.com/canonical/sqlmapper/internal/method"
)

// Invocation carries everything Dispatch needs to run one mapper-method
// call: the resolved command, the method's analyzed signature, and the raw
// reflect.Value argument list exactly as the proxy received it.
type Invocation struct {
	Command   *command.Command
	Signature *method.Signature
	Args      []reflect.Value
}

// Invoker runs an Invocation to completion, returning a reflect.Value
// assignable to Signature.ReturnType (the zero Value when the method
// returns void).
type Invoker func(ctx context.Context, inv *Invocation) (reflect.Value, error)

// Interceptor wraps the dispatch of every mapper-method call, in the manner
// of a plugin chain: it may inspect or rewrite the invocation, decline to
// call next at all (e.g. to serve a cached result), or run side effects
// around the call. This is an adaptation of MyBatis's Interceptor/Plugin
// mechanism; since Go has no dynamic-proxy annotation processor, a chain is
// registered explicitly at executor construction time rather than
// discovered from @Intercepts annotations.
type Interceptor interface {
	Intercept(ctx context.Context, inv *Invocation, next Invoker) (reflect.Value, error)
}

// chain composes a base Invoker with zero or more Interceptors, outermost
// first, so that interceptors[0] runs before interceptors[1] and so on,
// with base running last.
func chain(base Invoker, interceptors []Interceptor) Invoker {
	invoker := base
	for i := len(interceptors) - 1; i >= 0; i-- {
		ic := interceptors[i]
		next := invoker
		invoker = func(ctx context.Context, inv *Invocation) (reflect.Value, error) {
			return ic.Intercept(ctx, inv, next)
		}
	}
	return invoker
}
