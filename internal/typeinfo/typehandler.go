package typeinfo

import (
	"database/sql/driver"
	"sync"

	"github.com/pkg/errors"
)

// TypeHandler converts between an application value and a driver parameter
// or column value. It is the Go shape of org.apache.ibatis.type.TypeHandler:
// the dynamic-SQL core only ever references a TypeHandler by name, never
// implements one; concrete handlers are registered by the application.
type TypeHandler interface {
	// SetParameter converts value into a form the database driver accepts.
	SetParameter(value any) (driver.Value, error)
	// GetResult converts a scanned column value back into an application
	// value of the handler's declared Go type.
	GetResult(column any) (any, error)
}

var (
	handlerMutex   sync.RWMutex
	handlersByName = make(map[string]TypeHandler)
)

// RegisterTypeHandler associates a name (as written in a #{expr,typeHandler=name}
// attribute) with a TypeHandler implementation.
func RegisterTypeHandler(name string, handler TypeHandler) {
	handlerMutex.Lock()
	defer handlerMutex.Unlock()
	handlersByName[name] = handler
}

// LookupTypeHandler returns the TypeHandler registered under name.
func LookupTypeHandler(name string) (TypeHandler, error) {
	handlerMutex.RLock()
	defer handlerMutex.RUnlock()
	handler, ok := handlersByName[name]
	if !ok {
		return nil, errors.Errorf("no type handler registered under name %q", name)
	}
	return handler, nil
}

// passthroughHandler is used when a Parameter node has no declared
// typeHandler: the value is passed to the driver unconverted and scanned
// results are returned unconverted. This is the "fall back to the driver's
// native handling" path described for the type-handler registry.
type passthroughHandler struct{}

func (passthroughHandler) SetParameter(value any) (driver.Value, error) {
	return value, nil
}

func (passthroughHandler) GetResult(column any) (any, error) {
	return column, nil
}

// Passthrough is the zero-configuration TypeHandler used when a parameter
// or output column has no declared typeHandler attribute.
var Passthrough TypeHandler = passthroughHandler{}

// ResolveHandler returns the registered handler for name, or Passthrough if
// name is empty. It mirrors the cross-reference pattern of looking a
// declared attribute up against a registry of known entries, falling back
// to a default when nothing is declared, rather than failing.
func ResolveHandler(name string) (TypeHandler, error) {
	if name == "" {
		return Passthrough, nil
	}
	return LookupTypeHandler(name)
}
