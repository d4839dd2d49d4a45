package method

import (
	"context"
	"fmt"
	"reflect"

	"github.com/canonical/sqlmapper/internal/errs"
	"github.com/canonical/sqlmapper/session"
)

var (
	errorType         = reflect.TypeOf((*error)(nil)).Elem()
	contextType       = reflect.TypeOf((*context.Context)(nil)).Elem()
	rowBoundsType     = reflect.TypeOf(session.RowBounds{})
	rowBoundsPtrType  = reflect.TypeOf(&session.RowBounds{})
	resultHandlerType = reflect.TypeOf((*session.ResultHandler)(nil)).Elem()
	cursorType        = reflect.TypeOf((*session.Cursor)(nil)).Elem()
)

// Options supplies the information Go's reflection cannot recover from an
// interface method signature alone: Go has no equivalent of @Param or
// @MapKey annotations, so callers register this alongside the method when
// building a mapper's command table.
type Options struct {
	// ParamNames maps a parameter's positional index (0-based, over the
	// full parameter list including context/paging/result-handler slots)
	// to an explicit binding name.
	ParamNames map[int]string
	// MapKey names the result property used as a map key, when the
	// method's return type is a map.
	MapKey string
}

// ParamNameResolver produces, from a method invocation's argument array,
// either the single domain value (if exactly one remaining parameter and
// no explicit name) or a name->value map also populated with param1..paramN
// aliases.
type ParamNameResolver struct {
	remaining []int // indices, in order, of non-special parameters
	names     map[int]string
}

// Resolve returns the value(s) args should be bound as.
func (r *ParamNameResolver) Resolve(args []reflect.Value) (any, error) {
	if len(r.remaining) == 0 {
		return nil, nil
	}
	if len(r.remaining) == 1 {
		if _, named := r.names[r.remaining[0]]; !named {
			return args[r.remaining[0]].Interface(), nil
		}
	}
	out := make(map[string]any, len(r.remaining)*2)
	for pos, idx := range r.remaining {
		val := args[idx].Interface()
		alias := fmt.Sprintf("param%d", pos+1)
		out[alias] = val
		if name, ok := r.names[idx]; ok {
			out[name] = val
		}
	}
	return out, nil
}

// Signature is the analysis of one declared interface method.
type Signature struct {
	ReturnType      reflect.Type
	ReturnsVoid     bool
	ReturnsMany     bool
	ReturnsMap      bool
	ReturnsCursor   bool
	ReturnsOptional bool
	MapKey          string

	RowBoundsIndex     int // -1 if absent
	ResultHandlerIndex int // -1 if absent
	ContextIndex       int // -1 if absent

	Resolver *ParamNameResolver
}

// Analyze classifies methodType (an interface method's func type, with no
// receiver) into a Signature.
func Analyze(methodType reflect.Type, opts Options) (*Signature, error) {
	sig := &Signature{RowBoundsIndex: -1, ResultHandlerIndex: -1, ContextIndex: -1}

	numOut := methodType.NumOut()
	switch {
	case numOut == 0:
		sig.ReturnsVoid = true
	case numOut == 1 && methodType.Out(0) == errorType:
		sig.ReturnsVoid = true
	case numOut == 2 && methodType.Out(1) == errorType:
		sig.ReturnType = methodType.Out(0)
		classifyReturn(sig)
	default:
		return nil, errs.Wrap(errs.BuildError, "unsupported method signature: %d return values", numOut)
	}

	if sig.ReturnsMap && opts.MapKey == "" {
		return nil, errs.Wrap(errs.BuildError, "method returns a map but declares no map key")
	}
	sig.MapKey = opts.MapKey

	remaining := make([]int, 0, methodType.NumIn())
	for i := 0; i < methodType.NumIn(); i++ {
		in := methodType.In(i)
		switch {
		case in == contextType:
			if sig.ContextIndex != -1 {
				return nil, errs.Wrap(errs.BuildError, "duplicate context.Context parameter at index %d", i)
			}
			sig.ContextIndex = i
		case in == rowBoundsType || in == rowBoundsPtrType:
			if sig.RowBoundsIndex != -1 {
				return nil, errs.Wrap(errs.BuildError, "duplicate paging parameter at index %d", i)
			}
			sig.RowBoundsIndex = i
		case in.Implements(resultHandlerType):
			if sig.ResultHandlerIndex != -1 {
				return nil, errs.Wrap(errs.BuildError, "duplicate result-handler parameter at index %d", i)
			}
			sig.ResultHandlerIndex = i
		default:
			remaining = append(remaining, i)
		}
	}

	sig.Resolver = &ParamNameResolver{remaining: remaining, names: opts.ParamNames}
	return sig, nil
}

func classifyReturn(sig *Signature) {
	t := sig.ReturnType
	switch {
	case t == cursorType:
		sig.ReturnsCursor = true
	case t.Kind() == reflect.Map:
		sig.ReturnsMap = true
	case t.Kind() == reflect.Slice || t.Kind() == reflect.Array:
		sig.ReturnsMany = true
	case t.Kind() == reflect.Ptr:
		sig.ReturnsOptional = true
	}
}
