package binding

// BoundSql is the product of evaluating a CompiledStatement: the final SQL
// text, its ordered parameter list, and any bindings (e.g. from a top-level
// <bind>) available after evaluation completes.
type BoundSql struct {
	SQL                string
	Parameters         []ParameterRef
	AdditionalBindings map[string]any
}

// CompiledStatement wraps a parsed node tree. IsDynamic is true iff the
// tree contains any variant other than StaticText/Parameter, or any
// TextWithSubstitution. A static tree's SQL text is the same for every
// parameter object (no If/Choose/ForEach/TextWithSubstitution can make it
// branch), but its Parameter nodes still carry a fresh value on every call
// - "static" describes the text, never the bound values.
type CompiledStatement struct {
	Nodes     Mixed
	IsDynamic bool
}

// NewCompiledStatement builds a CompiledStatement from a parsed node tree.
// It does not evaluate the tree: a <foreach> collection or an <if> test
// that references a parameter absent at load time (any parameter at all,
// since no caller argument exists yet) must fail on the statement's first
// real call, not here - spec §4.1's "foreach ... resolves to null ⇒ fail
// ... at evaluation time, not parse time" rules out a construction-time
// dry run as a way to catch malformed expressions early.
func NewCompiledStatement(nodes Mixed, isDynamic bool) (*CompiledStatement, error) {
	return &CompiledStatement{Nodes: nodes, IsDynamic: isDynamic}, nil
}

// Bind evaluates the statement's node tree against param and returns the
// resulting BoundSql. Every call re-evaluates, since even a static tree's
// Parameter nodes must resolve their value against the current param.
func (cs *CompiledStatement) Bind(param any) (*BoundSql, error) {
	return cs.evaluate(param)
}

func (cs *CompiledStatement) evaluate(param any) (*BoundSql, error) {
	ctx, err := NewContext(param)
	if err != nil {
		return nil, err
	}
	seeded := make(map[string]bool, len(ctx.bindings))
	for k := range ctx.bindings {
		seeded[k] = true
	}
	if err := cs.Nodes.Apply(ctx); err != nil {
		return nil, err
	}
	return &BoundSql{
		SQL:                ctx.String(),
		Parameters:         ctx.parameters,
		AdditionalBindings: additionalBindings(ctx, seeded),
	}, nil
}

// additionalBindings returns the bindings introduced by top-level <bind>
// declarations, i.e. everything beyond what NewContext seeded from param.
func additionalBindings(ctx *Context, seeded map[string]bool) map[string]any {
	out := make(map[string]any)
	for k, v := range ctx.bindings {
		if !seeded[k] {
			out[k] = v
		}
	}
	return out
}
