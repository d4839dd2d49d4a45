package binding

import (
	"encoding/xml"
	"strings"

	"github.com/canonical/sqlmapper/internal/errs"
)

// ParseStatement parses a templated SQL statement body (a fragment of
// text/CDATA interleaved with dynamic-sql elements) into a CompiledStatement.
// The fragment is wrapped in a synthetic root element so callers need not
// supply one (XML mapper documents pass the real <select>/<insert>/... body
// via ParseElement directly, reusing the same parser).
func ParseStatement(body string) (*CompiledStatement, error) {
	decoder := xml.NewDecoder(strings.NewReader("<_root>" + body + "</_root>"))
	tok, err := decoder.Token()
	if err != nil {
		return nil, errs.Wrap(errs.BuildError, "%s", err)
	}
	start, ok := tok.(xml.StartElement)
	if !ok {
		return nil, errs.Wrap(errs.BuildError, "malformed statement body")
	}

	nodes, isDynamic, err := ParseElement(decoder, start)
	if err != nil {
		return nil, err
	}
	return NewCompiledStatement(nodes, isDynamic)
}
