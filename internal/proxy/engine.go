package proxy

import (
	"context"
	"reflect"

	"github.com/canonical/sqlmapper/internal/command"
	"github.com/canonical/sqlmapper/internal/errs"
	"github.com/canonical/sqlmapper/internal/executor"
	"github.com/canonical/sqlmapper/internal/method"
)

// Options supplies the per-mapper-type information command resolution and
// method analysis cannot recover on their own: the embedded "interfaces"
// (in the original sense) to retry statement lookup against, per-method
// Options (param names / map key), and the name of the field that should
// route to a FLUSH command when no statement matches at all.
type Options struct {
	Ancestry      []reflect.Type
	MethodOptions map[string]method.Options
	FlushField    string
}

// Engine holds one mapper type's resolved method table: a Command and
// Signature per operation, computed once. It is immutable after
// construction and safe for concurrent use.
type Engine struct {
	exec       *executor.Executor
	commands   map[string]*command.Command
	signatures map[string]*method.Signature
}

// NewEngine resolves every func-typed field of structType against lookup,
// producing the method table an Engine dispatches through.
func NewEngine(structType reflect.Type, opts Options, lookup command.Lookup, exec *executor.Executor) (*Engine, error) {
	e := &Engine{
		exec:       exec,
		commands:   make(map[string]*command.Command),
		signatures: make(map[string]*method.Signature),
	}

	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)
		if field.Type.Kind() != reflect.Func {
			continue
		}
		hasFlush := opts.FlushField != "" && opts.FlushField == field.Name
		cmd, err := command.Resolve(structType, opts.Ancestry, field.Name, hasFlush, lookup)
		if err != nil {
			return nil, err
		}
		sig, err := method.Analyze(field.Type, opts.MethodOptions[field.Name])
		if err != nil {
			return nil, errs.Wrap(errs.BuildError, "%s.%s: %s", structType.Name(), field.Name, err)
		}
		e.commands[field.Name] = cmd
		e.signatures[field.Name] = sig
	}
	return e, nil
}

// Invoke dispatches a call to the named operation.
func (e *Engine) Invoke(ctx context.Context, name string, args []reflect.Value) (reflect.Value, error) {
	cmd, ok := e.commands[name]
	if !ok {
		return reflect.Value{}, errs.Wrap(errs.MissingStatement, "no resolved command for %q", name)
	}
	return e.exec.Invoke(ctx, &executor.Invocation{
		Command:   cmd,
		Signature: e.signatures[name],
		Args:      args,
	})
}

// Bind fills dest's func-typed fields with closures that dispatch through
// e. dest must be a non-nil pointer to a struct.
func (e *Engine) Bind(dest any) error {
	ptr := reflect.ValueOf(dest)
	if ptr.Kind() != reflect.Ptr || ptr.IsNil() || ptr.Elem().Kind() != reflect.Struct {
		return errs.Wrap(errs.BuildError, "proxy.Bind requires a non-nil pointer to a struct")
	}
	val := ptr.Elem()
	typ := val.Type()

	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		if field.Type.Kind() != reflect.Func {
			continue
		}
		name := field.Name
		methodType := field.Type
		fn := reflect.MakeFunc(methodType, func(args []reflect.Value) []reflect.Value {
			result, err := e.Invoke(context.Background(), name, args)
			return shapeResults(methodType, result, err)
		})
		val.Field(i).Set(fn)
	}
	return nil
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

func shapeResults(methodType reflect.Type, result reflect.Value, callErr error) []reflect.Value {
	switch methodType.NumOut() {
	case 0:
		return nil
	case 1:
		return []reflect.Value{errValue(callErr)}
	default:
		out := result
		if !out.IsValid() {
			out = reflect.Zero(methodType.Out(0))
		}
		return []reflect.Value{out, errValue(callErr)}
	}
}

func errValue(err error) reflect.Value {
	v := reflect.New(errorType).Elem()
	if err != nil {
		v.Set(reflect.ValueOf(err))
	}
	return v
}
