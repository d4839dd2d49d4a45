package binding

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/canonical/sqlmapper/internal/errs"
	"github.com/canonical/sqlmapper/internal/eval"
)

// Node is the tagged-variant discriminator every SQL-node kind implements.
// There is no open inheritance: the closed set of variants below is the
// entire AST.
type Node interface {
	Apply(ctx *Context) error
}

// StaticText is literal, pre-resolved text.
type StaticText string

func (n StaticText) Apply(ctx *Context) error {
	ctx.writeString(string(n))
	return nil
}

// substitutionSegment is one piece of a TextWithSubstitution template: a
// literal run of characters, or a ${expr} body to evaluate and stringify.
type substitutionSegment struct {
	literal     string
	expr        string
	isExpr      bool
	isParameter bool
	jdbcType    string
	typeHandler string
}

// TextWithSubstitution contains ${name} tokens, evaluated by textual
// substitution at call time. It is pre-split into segments at parse time
// so Apply never re-scans the source text.
type TextWithSubstitution struct {
	segments []substitutionSegment
}

func (n *TextWithSubstitution) Apply(ctx *Context) error {
	for _, seg := range n.segments {
		switch {
		case seg.isParameter:
			if err := ctx.requireBound(seg.expr); err != nil {
				return err
			}
			val, err := eval.Evaluate(seg.expr, ctx.bindings)
			if err != nil {
				return err
			}
			placeholder := ctx.appendParameter(ParameterRef{
				Expression:  seg.expr,
				JdbcType:    seg.jdbcType,
				TypeHandler: seg.typeHandler,
				Value:       val,
			})
			ctx.writeString(placeholder)
		case seg.isExpr:
			if err := ctx.requireBound(seg.expr); err != nil {
				return err
			}
			val, err := eval.Evaluate(seg.expr, ctx.bindings)
			if err != nil {
				return err
			}
			ctx.writeString(stringify(val))
		default:
			ctx.writeString(seg.literal)
		}
	}
	return nil
}

func stringify(val any) string {
	if val == nil {
		return ""
	}
	if s, ok := val.(string); ok {
		return s
	}
	return fmt.Sprint(val)
}

// Parameter originates from a #{...} token. It emits a single driver
// placeholder and one parameter-list entry.
type Parameter struct {
	Expression  string
	JdbcType    string
	TypeHandler string
}

func (n *Parameter) Apply(ctx *Context) error {
	if err := ctx.requireBound(n.Expression); err != nil {
		return err
	}
	val, err := eval.Evaluate(n.Expression, ctx.bindings)
	if err != nil {
		return err
	}
	placeholder := ctx.appendParameter(ParameterRef{
		Expression:  n.Expression,
		JdbcType:    n.JdbcType,
		TypeHandler: n.TypeHandler,
		Value:       val,
	})
	ctx.writeString(placeholder)
	return nil
}

// Mixed is an ordered composition of child nodes.
type Mixed []Node

func (n Mixed) Apply(ctx *Context) error {
	for _, child := range n {
		if err := child.Apply(ctx); err != nil {
			return err
		}
	}
	return nil
}

// If applies Child iff Test evaluates truthy against the current context.
type If struct {
	Test  string
	Child Node
}

func (n *If) Apply(ctx *Context) error {
	ok, err := eval.Test(n.Test, ctx.bindings)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	return n.Child.Apply(ctx)
}

// whenClause is one <when test="...">child</when> branch of a Choose.
type whenClause struct {
	Test  string
	Child Node
}

// Choose applies the first When whose Test is truthy, else Otherwise, else
// nothing.
type Choose struct {
	Whens     []whenClause
	Otherwise Node
}

func (n *Choose) Apply(ctx *Context) error {
	for _, w := range n.Whens {
		ok, err := eval.Test(w.Test, ctx.bindings)
		if err != nil {
			return err
		}
		if ok {
			return w.Child.Apply(ctx)
		}
	}
	if n.Otherwise != nil {
		return n.Otherwise.Apply(ctx)
	}
	return nil
}

// Trim applies Child to a sub-buffer, strips the first matching entry in
// PrefixOverrides/SuffixOverrides, then prepends Prefix / appends Suffix if
// the (post-strip) buffer is non-empty. Where and Set are built on top of
// Trim.
type Trim struct {
	Child           Node
	Prefix          string
	PrefixOverrides []string
	Suffix          string
	SuffixOverrides []string
}

func (n *Trim) Apply(ctx *Context) error {
	sub := ctx.child()
	if err := n.Child.Apply(sub); err != nil {
		return err
	}
	text := strings.TrimSpace(sub.String())
	if text == "" {
		return nil
	}

	text = stripOverride(text, n.PrefixOverrides, true)
	text = stripOverride(text, n.SuffixOverrides, false)
	if text == "" {
		return nil
	}

	var b strings.Builder
	if n.Prefix != "" {
		b.WriteString(n.Prefix)
	}
	b.WriteString(text)
	if n.Suffix != "" {
		b.WriteString(n.Suffix)
	}

	ctx.writeString(b.String())
	ctx.parameters = append(ctx.parameters, sub.parameters...)
	return nil
}

// stripOverride removes the first override matching the start (prefix) or
// end (suffix) of text, case-insensitively, along with any immediately
// adjacent whitespace.
func stripOverride(text string, overrides []string, atStart bool) string {
	upper := strings.ToUpper(text)
	for _, o := range overrides {
		ou := strings.ToUpper(strings.TrimSpace(o))
		if ou == "" {
			continue
		}
		if atStart && strings.HasPrefix(upper, ou) {
			return strings.TrimLeft(text[len(ou):], " \t\n\r")
		}
		if !atStart && strings.HasSuffix(upper, ou) {
			return strings.TrimRight(text[:len(text)-len(ou)], " \t\n\r")
		}
	}
	return text
}

// Where applies Child to a sub-buffer; if the result starts with AND/OR it
// strips that prefix, and prepends "WHERE " when the result is non-empty.
func Where(child Node) Node {
	return &Trim{
		Child:           child,
		Prefix:          " WHERE ",
		PrefixOverrides: []string{"AND ", "OR "},
	}
}

// Set applies Child to a sub-buffer, prepending "SET " and stripping a
// trailing comma, when the result is non-empty.
func Set(child Node) Node {
	return &Trim{
		Child:           child,
		Prefix:          " SET ",
		SuffixOverrides: []string{","},
	}
}

// ForEach iterates the resolved collection, evaluating Child once per
// element with Item/Index bound in a child context, separating iterations
// with Separator and wrapping the result in Open/Close. Parameter entries
// produced inside each iteration are renamed to a unique, suffixed name so
// that repeated #{...} expressions across iterations never collide.
type ForEach struct {
	Child      Node
	Collection string
	Item       string
	Index      string
	Open       string
	Close      string
	Separator  string
}

func (n *ForEach) Apply(ctx *Context) error {
	collVal, err := eval.Evaluate(n.Collection, ctx.bindings)
	if err != nil {
		return err
	}
	if collVal == nil {
		return errs.Wrap(errs.BuildError, "foreach collection %q is null", n.Collection)
	}

	keys, values, err := elementsOf(collVal)
	if err != nil {
		return errs.Wrap(errs.BuildError, "foreach collection %q: %s", n.Collection, err)
	}

	ctx.writeString(n.Open)
	for i := range values {
		child := ctx.child()
		child.bind(n.Item, values[i])
		if n.Index != "" {
			child.bind(n.Index, keys[i])
		}
		if err := n.Child.Apply(child); err != nil {
			return err
		}
		for j := range child.parameters {
			child.parameters[j].Expression = fmt.Sprintf("__frch_%s_%d", n.Item, ctx.nextUnique())
		}
		if i > 0 {
			ctx.writeString(n.Separator)
		}
		ctx.writeString(child.String())
		ctx.parameters = append(ctx.parameters, child.parameters...)
	}
	ctx.writeString(n.Close)
	return nil
}

// elementsOf returns the (key, value) pairs of a slice, array, or map in a
// deterministic order (map keys are sorted by their string form).
func elementsOf(collection any) (keys []any, values []any, err error) {
	v := reflect.Indirect(reflect.ValueOf(collection))
	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			keys = append(keys, i)
			values = append(values, v.Index(i).Interface())
		}
		return keys, values, nil
	case reflect.Map:
		mapKeys := v.MapKeys()
		sort.Slice(mapKeys, func(i, j int) bool {
			return fmt.Sprint(mapKeys[i].Interface()) < fmt.Sprint(mapKeys[j].Interface())
		})
		for _, k := range mapKeys {
			keys = append(keys, k.Interface())
			values = append(values, v.MapIndex(k).Interface())
		}
		return keys, values, nil
	default:
		return nil, nil, fmt.Errorf("not a collection: %s", v.Kind())
	}
}

// VarDecl evaluates Expression and binds its result under Name in the
// current context. It emits no SQL text.
type VarDecl struct {
	Name       string
	Expression string
}

func (n *VarDecl) Apply(ctx *Context) error {
	val, err := eval.Evaluate(n.Expression, ctx.bindings)
	if err != nil {
		return err
	}
	ctx.bind(n.Name, val)
	return nil
}
