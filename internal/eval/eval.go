package eval

import (
	"reflect"
	"regexp"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/canonical/sqlmapper/internal/errs"
)

// nullLiteralRx rewrites the Java-flavoured "null" literal used throughout
// MyBatis-style test/value attributes into expr's own "nil".
var nullLiteralRx = regexp.MustCompile(`\bnull\b`)

// Environment is the name->value map an expression is evaluated against.
// Binding-context names and, when the parameter object is a struct, its
// db-tagged fields are flattened into it before evaluation; property-path
// access beyond that (a.b, a[0], a['k']) is handled natively by the
// embedded expression language.
type Environment map[string]any

var programCache = newCompileCache()

// Evaluate compiles (or reuses a cached compilation of) expr and runs it
// against env, returning the resulting value.
func Evaluate(exprStr string, env Environment) (any, error) {
	program, err := programCache.compile(exprStr)
	if err != nil {
		return nil, errs.Wrap(errs.EvaluationError, "compiling %q: %s", exprStr, err)
	}
	out, err := expr.Run(program, map[string]any(env))
	if err != nil {
		return nil, errs.Wrap(errs.EvaluationError, "evaluating %q: %s", exprStr, err)
	}
	return out, nil
}

// Test evaluates exprStr and applies the truthiness rules from §4.2: nil is
// false, a bool is itself, a number is non-zero, a string or a
// collection/array is non-empty, anything else is true.
func Test(exprStr string, env Environment) (bool, error) {
	out, err := Evaluate(exprStr, env)
	if err != nil {
		return false, err
	}
	return truthy(out), nil
}

func truthy(value any) bool {
	if value == nil {
		return false
	}
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Bool:
		return v.Bool()
	case reflect.String:
		return v.Len() > 0
	case reflect.Slice, reflect.Array, reflect.Map:
		return v.Len() > 0
	case reflect.Ptr, reflect.Interface:
		if v.IsNil() {
			return false
		}
		return truthy(v.Elem().Interface())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint() != 0
	case reflect.Float32, reflect.Float64:
		return v.Float() != 0
	default:
		return true
	}
}

// compileCache memoizes expr.Compile results: the same test/collection
// expression typically recurs across many evaluations of a statement.
type compileCache struct {
	mu       sync.RWMutex
	programs map[string]*vm.Program
}

func newCompileCache() *compileCache {
	return &compileCache{programs: make(map[string]*vm.Program)}
}

func (c *compileCache) compile(exprStr string) (*vm.Program, error) {
	c.mu.RLock()
	program, ok := c.programs[exprStr]
	c.mu.RUnlock()
	if ok {
		return program, nil
	}

	program, err := expr.Compile(nullLiteralRx.ReplaceAllString(exprStr, "nil"), expr.Env(Environment{}), expr.AllowUndefinedVariables())
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.programs[exprStr] = program
	c.mu.Unlock()
	return program, nil
}
