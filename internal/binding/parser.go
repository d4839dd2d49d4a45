package binding

import (
	"encoding/xml"
	"io"
	"strings"

	"github.com/canonical/sqlmapper/internal/errs"
)

// ParseElement parses the body of start (already consumed from decoder)
// into a Mixed root and an is-dynamic flag, per §4.1: text/CDATA children
// are tokenized by parseTextChunk; element children are dispatched on
// local name to a fixed set of handlers. Encountering any element sets
// is-dynamic; an unrecognized element name is a BuildError.
func ParseElement(decoder *xml.Decoder, start xml.StartElement) (Mixed, bool, error) {
	var nodes Mixed
	isDynamic := false

	for {
		tok, err := decoder.Token()
		if err != nil {
			if err == io.EOF {
				return nil, false, errs.Wrap(errs.BuildError, "unexpected end of document inside <%s>", start.Name.Local)
			}
			return nil, false, errs.Wrap(errs.BuildError, "%s", err)
		}

		switch t := tok.(type) {
		case xml.CharData:
			textNodes, dyn, err := parseTextChunk(string(t))
			if err != nil {
				return nil, false, err
			}
			nodes = append(nodes, textNodes...)
			isDynamic = isDynamic || dyn
		case xml.StartElement:
			node, err := dispatchElement(decoder, t)
			if err != nil {
				return nil, false, err
			}
			nodes = append(nodes, node)
			isDynamic = true
		case xml.EndElement:
			if t.Name == start.Name {
				return nodes, isDynamic, nil
			}
			return nil, false, errs.Wrap(errs.BuildError, "mismatched end element </%s> inside <%s>", t.Name.Local, start.Name.Local)
		default:
			// Comments, processing instructions, directives: ignored.
		}
	}
}

// dispatchElement routes a dynamic-SQL element to its handler, per the
// fixed mapping in §4.1: trim, where, set, foreach, if, choose, when
// (treated as if), otherwise, bind.
func dispatchElement(decoder *xml.Decoder, start xml.StartElement) (Node, error) {
	switch start.Name.Local {
	case "trim":
		return parseTrim(decoder, start)
	case "where":
		child, _, err := ParseElement(decoder, start)
		if err != nil {
			return nil, err
		}
		return Where(child), nil
	case "set":
		child, _, err := ParseElement(decoder, start)
		if err != nil {
			return nil, err
		}
		return Set(child), nil
	case "foreach":
		return parseForEach(decoder, start)
	case "if":
		return parseIf(decoder, start)
	case "choose":
		return parseChoose(decoder, start)
	case "when", "otherwise":
		return nil, errs.Wrap(errs.BuildError, "<%s> is only valid directly inside <choose>", start.Name.Local)
	case "bind":
		return parseBind(decoder, start)
	default:
		return nil, errs.Wrap(errs.BuildError, "unknown dynamic-sql element <%s>", start.Name.Local)
	}
}

func attr(start xml.StartElement, name string) (string, bool) {
	for _, a := range start.Attr {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

func parseIf(decoder *xml.Decoder, start xml.StartElement) (Node, error) {
	test, ok := attr(start, "test")
	if !ok {
		return nil, errs.Wrap(errs.BuildError, "<if> requires a test attribute")
	}
	child, _, err := ParseElement(decoder, start)
	if err != nil {
		return nil, err
	}
	return &If{Test: test, Child: child}, nil
}

func parseTrim(decoder *xml.Decoder, start xml.StartElement) (Node, error) {
	prefix, _ := attr(start, "prefix")
	suffix, _ := attr(start, "suffix")
	prefixOverrides, _ := attr(start, "prefixOverrides")
	suffixOverrides, _ := attr(start, "suffixOverrides")

	child, _, err := ParseElement(decoder, start)
	if err != nil {
		return nil, err
	}

	t := &Trim{Child: child}
	if prefix != "" {
		t.Prefix = prefix + " "
	}
	if suffix != "" {
		t.Suffix = " " + suffix
	}
	t.PrefixOverrides = splitOverrides(prefixOverrides)
	t.SuffixOverrides = splitOverrides(suffixOverrides)
	return t, nil
}

func splitOverrides(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, "|")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseForEach(decoder *xml.Decoder, start xml.StartElement) (Node, error) {
	collection, ok := attr(start, "collection")
	if !ok {
		return nil, errs.Wrap(errs.BuildError, "<foreach> requires a collection attribute")
	}
	item, _ := attr(start, "item")
	index, _ := attr(start, "index")
	open, _ := attr(start, "open")
	close_, _ := attr(start, "close")
	separator, _ := attr(start, "separator")

	child, _, err := ParseElement(decoder, start)
	if err != nil {
		return nil, err
	}
	return &ForEach{
		Child:      child,
		Collection: collection,
		Item:       item,
		Index:      index,
		Open:       open,
		Close:      close_,
		Separator:  separator,
	}, nil
}

func parseBind(decoder *xml.Decoder, start xml.StartElement) (Node, error) {
	name, ok := attr(start, "name")
	if !ok {
		return nil, errs.Wrap(errs.BuildError, "<bind> requires a name attribute")
	}
	value, ok := attr(start, "value")
	if !ok {
		return nil, errs.Wrap(errs.BuildError, "<bind> requires a value attribute")
	}
	if _, _, err := ParseElement(decoder, start); err != nil {
		return nil, err
	}
	return &VarDecl{Name: name, Expression: value}, nil
}

// parseChoose parses <choose><when test="...">...</when>...<otherwise>...</otherwise></choose>,
// evaluating <when> children in document order with at most one <otherwise>.
func parseChoose(decoder *xml.Decoder, start xml.StartElement) (Node, error) {
	choose := &Choose{}
	haveOtherwise := false

	for {
		tok, err := decoder.Token()
		if err != nil {
			if err == io.EOF {
				return nil, errs.Wrap(errs.BuildError, "unexpected end of document inside <choose>")
			}
			return nil, errs.Wrap(errs.BuildError, "%s", err)
		}

		switch t := tok.(type) {
		case xml.CharData:
			if strings.TrimSpace(string(t)) != "" {
				return nil, errs.Wrap(errs.BuildError, "<choose> may only contain <when> and <otherwise>")
			}
		case xml.StartElement:
			switch t.Name.Local {
			case "when":
				test, ok := attr(t, "test")
				if !ok {
					return nil, errs.Wrap(errs.BuildError, "<when> requires a test attribute")
				}
				child, _, err := ParseElement(decoder, t)
				if err != nil {
					return nil, err
				}
				choose.Whens = append(choose.Whens, whenClause{Test: test, Child: child})
			case "otherwise":
				if haveOtherwise {
					return nil, errs.Wrap(errs.BuildError, "<choose> permits at most one <otherwise>")
				}
				child, _, err := ParseElement(decoder, t)
				if err != nil {
					return nil, err
				}
				choose.Otherwise = child
				haveOtherwise = true
			default:
				return nil, errs.Wrap(errs.BuildError, "<choose> may only contain <when> and <otherwise>, found <%s>", t.Name.Local)
			}
		case xml.EndElement:
			if t.Name == start.Name {
				return choose, nil
			}
		}
	}
}
