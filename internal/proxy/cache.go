package proxy

import (
	"reflect"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/canonical/sqlmapper/internal/command"
	"github.com/canonical/sqlmapper/internal/executor"
)

// Cache builds and shares one Engine per mapper struct type. Construction
// is collapsed across concurrent first callers with singleflight so the
// reflection and command-resolution work backing a type happens at most
// once; a benign double build (two distinct Cache instances, or a cache
// miss racing a completed build) is acceptable since Engines for the same
// type and registry are equivalent.
type Cache struct {
	lookup command.Lookup
	exec   *executor.Executor

	mu      sync.RWMutex
	engines map[reflect.Type]*Engine

	group singleflight.Group
}

// NewCache builds a Cache resolving statements from lookup and dispatching
// through exec.
func NewCache(lookup command.Lookup, exec *executor.Executor) *Cache {
	return &Cache{
		lookup:  lookup,
		exec:    exec,
		engines: make(map[reflect.Type]*Engine),
	}
}

// Engine returns the Engine for structType, building it on first request.
func (c *Cache) Engine(structType reflect.Type, opts Options) (*Engine, error) {
	if e, ok := c.lookupEngine(structType); ok {
		return e, nil
	}

	v, err, _ := c.group.Do(structType.String(), func() (any, error) {
		if e, ok := c.lookupEngine(structType); ok {
			return e, nil
		}
		e, err := NewEngine(structType, opts, c.lookup, c.exec)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.engines[structType] = e
		c.mu.Unlock()
		return e, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Engine), nil
}

func (c *Cache) lookupEngine(structType reflect.Type) (*Engine, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.engines[structType]
	return e, ok
}

// Bind resolves dest's Engine (building it on first use) and fills dest's
// func-typed fields through it. dest must be a non-nil pointer to a
// struct.
func (c *Cache) Bind(dest any, opts Options) error {
	structType := reflect.TypeOf(dest).Elem()
	e, err := c.Engine(structType, opts)
	if err != nil {
		return err
	}
	return e.Bind(dest)
}
