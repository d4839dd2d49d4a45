package binding

import (
	"reflect"
	"regexp"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/canonical/sqlmapper/internal/errs"
	"github.com/canonical/sqlmapper/internal/eval"
	"github.com/canonical/sqlmapper/internal/typeinfo"
)

// ParameterRef is one entry in a BoundSql's ordered parameter list: the
// source expression it was derived from, its resolved value, and any
// declared driver type or type handler.
type ParameterRef struct {
	Expression  string
	JdbcType    string
	TypeHandler string
	Value       any
}

// Context is the scoped binding environment a node tree is evaluated
// against. It is stack-local to one evaluation and must never be shared
// across goroutines.
type Context struct {
	// bindings holds the caller's parameter object (flattened, if a
	// struct) plus any names bound during traversal (foreach item/index,
	// bind declarations). It doubles as the eval.Environment passed to
	// the expression evaluator.
	bindings eval.Environment

	builder    strings.Builder
	parameters []ParameterRef

	// counter is shared across the whole evaluation (including any child
	// contexts spawned for Where/Set/Trim/ForEach) so that foreach-scoped
	// parameter names never collide.
	counter *int64
}

// NewContext builds the root Context for evaluating a statement against
// param. A struct param has its db-tagged fields flattened into the
// binding environment so that "#{name}" resolves without a leading
// "Param." prefix; a map[string]any param (as produced by the parameter
// name resolver for multi-argument methods) is used as the binding
// environment directly.
func NewContext(param any) (*Context, error) {
	bindings := eval.Environment{}
	if param != nil {
		if m, ok := param.(map[string]any); ok {
			for k, v := range m {
				bindings[k] = v
			}
		} else {
			v := reflect.Indirect(reflect.ValueOf(param))
			if v.IsValid() && v.Kind() == reflect.Struct {
				info, err := typeinfo.GetTypeInfo(param)
				if err != nil {
					return nil, err
				}
				for tag, field := range info.TagToField {
					bindings[tag] = v.Field(field.Index).Interface()
				}
			} else if v.IsValid() {
				bindings["_value"] = v.Interface()
			}
		}
	}
	var counter int64
	return &Context{bindings: bindings, counter: &counter}, nil
}

// child returns a new Context sharing the parent's counter and a copy of
// its bindings (so writes performed inside a scope, e.g. foreach item
// binding, do not leak back to the parent), but with a fresh builder and
// parameter list.
func (c *Context) child() *Context {
	bindings := make(eval.Environment, len(c.bindings))
	for k, v := range c.bindings {
		bindings[k] = v
	}
	return &Context{bindings: bindings, counter: c.counter}
}

// bind adds or overwrites a name in the current scope.
func (c *Context) bind(name string, value any) {
	c.bindings[name] = value
}

// nextUnique returns a monotonically increasing integer, used to generate
// collision-free parameter names inside foreach expansions.
func (c *Context) nextUnique() int64 {
	return atomic.AddInt64(c.counter, 1)
}

// writeString appends literal SQL text to the builder.
func (c *Context) writeString(s string) {
	c.builder.WriteString(s)
}

// appendParameter records a parameter-list entry and returns the driver
// placeholder text to write into the builder.
func (c *Context) appendParameter(ref ParameterRef) string {
	c.parameters = append(c.parameters, ref)
	return "?"
}

// String returns the SQL text accumulated so far.
func (c *Context) String() string {
	return c.builder.String()
}

var simpleNameRx = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// requireBound enforces §4.5's "strict-lookup map ... on missing key,
// fails with a descriptive error" rule for a bare #{name}/${name}
// reference. A dotted or indexed property path (a.b, a[0]) is left to the
// expression evaluator's own property-path resolution instead, since that
// may legitimately walk through the root parameter object rather than
// stopping at the flattened binding map this check inspects.
func (c *Context) requireBound(name string) error {
	if !simpleNameRx.MatchString(name) {
		return nil
	}
	if _, ok := c.bindings[name]; ok {
		return nil
	}
	return errs.Wrap(errs.MissingParameter, "parameter %q not found, available parameters are %v", name, c.availableNames())
}

func (c *Context) availableNames() []string {
	names := make([]string, 0, len(c.bindings))
	for k := range c.bindings {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
