package binding

import (
	"strings"

	"github.com/canonical/sqlmapper/internal/errs"
)

type tokenKind int

const (
	tokenLiteral tokenKind = iota
	tokenSubstitution
	tokenParameter
)

type rawToken struct {
	kind tokenKind
	text string // literal text, or the body between the braces
}

// scanTokens splits s into literal runs and ${...}/#{...} token bodies. It
// is a straightforward left-to-right scan (no nested braces; a body ends at
// the first unescaped '}'), mirroring the character-scanning style used
// elsewhere in this codebase for templated SQL rather than a regex.
func scanTokens(s string) ([]rawToken, error) {
	var tokens []rawToken
	var literal strings.Builder

	flushLiteral := func() {
		if literal.Len() > 0 {
			tokens = append(tokens, rawToken{kind: tokenLiteral, text: literal.String()})
			literal.Reset()
		}
	}

	i := 0
	for i < len(s) {
		if (s[i] == '$' || s[i] == '#') && i+1 < len(s) && s[i+1] == '{' {
			kind := tokenSubstitution
			if s[i] == '#' {
				kind = tokenParameter
			}
			end, body, err := readBraceBody(s, i+2)
			if err != nil {
				return nil, err
			}
			flushLiteral()
			tokens = append(tokens, rawToken{kind: kind, text: body})
			i = end
			continue
		}
		literal.WriteByte(s[i])
		i++
	}
	flushLiteral()
	return tokens, nil
}

// readBraceBody reads forward from start (just past the opening brace)
// until an unescaped '}', returning the index just past it and the body
// with any "\}" escapes resolved to "}".
func readBraceBody(s string, start int) (int, string, error) {
	var body strings.Builder
	i := start
	for i < len(s) {
		if s[i] == '\\' && i+1 < len(s) && s[i+1] == '}' {
			body.WriteByte('}')
			i += 2
			continue
		}
		if s[i] == '}' {
			return i + 1, body.String(), nil
		}
		body.WriteByte(s[i])
		i++
	}
	return 0, "", errs.Wrap(errs.BuildError, "unterminated token starting at %q", s[start:])
}

// parseParameterBody splits a #{expr[,jdbcType=...][,typeHandler=...]} body
// into its expression and declared attributes.
func parseParameterBody(body string) *Parameter {
	parts := strings.Split(body, ",")
	p := &Parameter{Expression: strings.TrimSpace(parts[0])}
	for _, part := range parts[1:] {
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			continue
		}
		key := strings.TrimSpace(kv[0])
		val := strings.TrimSpace(kv[1])
		switch key {
		case "jdbcType":
			p.JdbcType = val
		case "typeHandler":
			p.TypeHandler = val
		}
	}
	return p
}

// parseTextChunk turns one XML text/CDATA run into node(s). If it contains
// any ${...} token the whole chunk becomes a single TextWithSubstitution
// (dynamic); otherwise #{...} tokens are lowered directly to Parameter
// nodes interleaved with StaticText, and the chunk contributes no dynamism.
func parseTextChunk(text string) (Mixed, bool, error) {
	tokens, err := scanTokens(text)
	if err != nil {
		return nil, false, err
	}

	hasSubstitution := false
	for _, t := range tokens {
		if t.kind == tokenSubstitution {
			hasSubstitution = true
			break
		}
	}

	if !hasSubstitution {
		var nodes Mixed
		for _, t := range tokens {
			switch t.kind {
			case tokenLiteral:
				nodes = append(nodes, StaticText(t.text))
			case tokenParameter:
				nodes = append(nodes, parseParameterBody(t.text))
			}
		}
		return nodes, false, nil
	}

	var segments []substitutionSegment
	for _, t := range tokens {
		switch t.kind {
		case tokenLiteral:
			segments = append(segments, substitutionSegment{literal: t.text})
		case tokenSubstitution:
			segments = append(segments, substitutionSegment{expr: t.text, isExpr: true})
		case tokenParameter:
			p := parseParameterBody(t.text)
			segments = append(segments, substitutionSegment{
				expr:        p.Expression,
				isExpr:      false,
				isParameter: true,
				jdbcType:    p.JdbcType,
				typeHandler: p.TypeHandler,
			})
		}
	}
	return Mixed{&TextWithSubstitution{segments: segments}}, true, nil
}
