package executor

import (
	"context"
	"database/sql"
	"reflect"

	"github.com/canonical/sqlmapper/internal/command"
	"github.com/canonical/sqlmapper/internal/errs"
	"github.com/canonical/sqlmapper/internal/method"
	"github.com/canonical/sqlmapper/session"
)

// Executor dispatches resolved invocations against a session, running each
// through an interceptor chain built once at construction.
type Executor struct {
	session session.Session
	invoke  Invoker
}

// New builds an Executor bound to sess, wrapping the dispatch table with
// interceptors in the given order (interceptors[0] observes the call
// first).
func New(sess session.Session, interceptors ...Interceptor) *Executor {
	e := &Executor{session: sess}
	e.invoke = chain(e.dispatch, interceptors)
	return e
}

// Invoke runs inv through the interceptor chain and dispatch table.
func (e *Executor) Invoke(ctx context.Context, inv *Invocation) (reflect.Value, error) {
	if idx := inv.Signature.ContextIndex; idx != -1 {
		if c, ok := inv.Args[idx].Interface().(context.Context); ok && c != nil {
			ctx = c
		}
	}
	return e.invoke(ctx, inv)
}

func (e *Executor) dispatch(ctx context.Context, inv *Invocation) (reflect.Value, error) {
	sig := inv.Signature
	cmd := inv.Command

	param, err := sig.Resolver.Resolve(inv.Args)
	if err != nil {
		return reflect.Value{}, err
	}

	switch cmd.Kind {
	case command.Insert:
		n, err := e.session.Insert(ctx, cmd.Name, param)
		return coerceRowCount(sig, n, err)
	case command.Update:
		n, err := e.session.Update(ctx, cmd.Name, param)
		return coerceRowCount(sig, n, err)
	case command.Delete:
		n, err := e.session.Delete(ctx, cmd.Name, param)
		return coerceRowCount(sig, n, err)
	case command.Flush:
		err := e.session.FlushStatements(ctx)
		return reflect.Value{}, err
	case command.Select:
		return e.dispatchSelect(ctx, inv, param)
	default:
		return reflect.Value{}, errs.Wrap(errs.UnknownStatementKind, "command %q", cmd.Name)
	}
}

func (e *Executor) dispatchSelect(ctx context.Context, inv *Invocation, param any) (reflect.Value, error) {
	sig := inv.Signature
	cmd := inv.Command

	switch {
	case sig.ReturnsCursor:
		cur, err := e.session.SelectCursor(ctx, cmd.Name, param)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(cur), nil

	case sig.ResultHandlerIndex != -1:
		handler, _ := inv.Args[sig.ResultHandlerIndex].Interface().(session.ResultHandler)
		bounds := rowBoundsOf(inv, sig)
		err := e.session.Select(ctx, cmd.Name, param, bounds, handler)
		return reflect.Value{}, err

	case sig.ReturnsMany:
		bounds := rowBoundsOf(inv, sig)
		dest := reflect.New(sig.ReturnType)
		if err := e.session.SelectList(ctx, cmd.Name, param, bounds, dest.Interface()); err != nil {
			return reflect.Value{}, err
		}
		return dest.Elem(), nil

	case sig.ReturnsMap:
		bounds := rowBoundsOf(inv, sig)
		dest := reflect.New(sig.ReturnType)
		if err := e.session.SelectMap(ctx, cmd.Name, param, sig.MapKey, bounds, dest.Interface()); err != nil {
			return reflect.Value{}, err
		}
		return dest.Elem(), nil

	case sig.ReturnsOptional:
		elemType := sig.ReturnType.Elem()
		dest := reflect.New(elemType)
		err := e.session.SelectOne(ctx, cmd.Name, param, dest.Interface())
		if err == sql.ErrNoRows {
			return reflect.Zero(sig.ReturnType), nil
		}
		if err != nil {
			return reflect.Value{}, err
		}
		return dest, nil

	case sig.ReturnsVoid:
		return reflect.Value{}, errs.Wrap(errs.BuildError, "select method %q must declare a result handler or a return type", cmd.Name)

	default:
		dest := reflect.New(sig.ReturnType)
		err := e.session.SelectOne(ctx, cmd.Name, param, dest.Interface())
		if err == sql.ErrNoRows {
			return reflect.Value{}, errs.Wrap(errs.UnsupportedReturnType, "%s: no row for non-nullable return type %s", cmd.Name, sig.ReturnType)
		}
		if err != nil {
			return reflect.Value{}, errs.Wrap(errs.SessionError, "%s: %s", cmd.Name, err)
		}
		return dest.Elem(), nil
	}
}

func rowBoundsOf(inv *Invocation, sig *method.Signature) *session.RowBounds {
	if sig.RowBoundsIndex == -1 {
		return nil
	}
	v := inv.Args[sig.RowBoundsIndex]
	switch rb := v.Interface().(type) {
	case session.RowBounds:
		return &rb
	case *session.RowBounds:
		return rb
	default:
		return nil
	}
}

// coerceRowCount maps a DML row count onto the method's declared return
// type: void discards it, int32/int64 pass it through (narrowed as
// needed), bool reports whether any row was affected, and anything else is
// rejected as unsupported.
func coerceRowCount(sig *method.Signature, n int64, callErr error) (reflect.Value, error) {
	if callErr != nil {
		return reflect.Value{}, callErr
	}
	if sig.ReturnsVoid {
		return reflect.Value{}, nil
	}
	switch sig.ReturnType.Kind() {
	case reflect.Int64, reflect.Int, reflect.Int32:
		return reflect.ValueOf(n).Convert(sig.ReturnType), nil
	case reflect.Bool:
		return reflect.ValueOf(n > 0), nil
	default:
		return reflect.Value{}, errs.Wrap(errs.UnsupportedReturnType, "dml return type %s", sig.ReturnType)
	}
}
