// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

/*
Package registry loads mapper documents - XML files naming a namespace
(an interface's fully qualified name) and a set of SQL statements keyed by
id - into compiled statement sources. This is the "external registry of
parsed statements" spec treats as an out-of-scope collaborator, referenced
here only by contract (command.Lookup).

encoding/xml is the standard library's XML package; it is used because no
example or reference repository in this project's lineage imports a
third-party XML library, and MyBatis's own mapper documents are XML.
*/
package registry

import (
	"encoding/xml"
	"io"
	"os"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/canonical/sqlmapper/internal/binding"
	"github.com/canonical/sqlmapper/internal/command"
	"github.com/canonical/sqlmapper/internal/errs"
)

// Statement is one parsed mapper-document entry.
type Statement struct {
	ID       string
	Kind     command.Kind
	Compiled *binding.CompiledStatement
	MapKey   string
}

// Registry holds every statement loaded from every mapper document, keyed
// by its fully qualified id. It is safe for concurrent use; statements are
// immutable once loaded, matching §5's "compiled statement sources ...
// immutable after construction and may be shared freely across threads".
type Registry struct {
	mu         sync.RWMutex
	statements map[string]*Statement
	log        *zap.SugaredLogger
}

// New returns an empty Registry. A nil logger disables logging.
func New(log *zap.SugaredLogger) *Registry {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Registry{statements: make(map[string]*Statement), log: log}
}

// Kind implements command.Lookup.
func (r *Registry) Kind(statementID string) (command.Kind, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stmt, ok := r.statements[statementID]
	if !ok {
		return command.Unknown, false
	}
	return stmt.Kind, true
}

// Get returns the full Statement for an id.
func (r *Registry) Get(statementID string) (*Statement, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stmt, ok := r.statements[statementID]
	return stmt, ok
}

// All returns every loaded Statement, sorted by id.
func (r *Registry) All() []*Statement {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Statement, 0, len(r.statements))
	for _, stmt := range r.statements {
		out = append(out, stmt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

var elementKinds = map[string]command.Kind{
	"select": command.Select,
	"insert": command.Insert,
	"update": command.Update,
	"delete": command.Delete,
}

// LoadFile reads and merges a mapper document from disk.
func (r *Registry) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return errs.Wrap(errs.BuildError, "opening mapper document %s: %s", path, err)
	}
	defer f.Close()
	return r.Load(f)
}

// Load reads and merges a mapper document.
//
//	<mapper namespace="my/pkg.Mapper">
//	  <select id="FindByID">SELECT * FROM t WHERE id = #{id}</select>
//	</mapper>
func (r *Registry) Load(src io.Reader) error {
	decoder := xml.NewDecoder(src)

	var namespace string
	for {
		tok, err := decoder.Token()
		if err != nil {
			if err == io.EOF {
				break
			}
			return errs.Wrap(errs.BuildError, "%s", err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		if start.Name.Local == "mapper" {
			namespace = attrValue(start, "namespace")
			if namespace == "" {
				return errs.Wrap(errs.BuildError, "<mapper> requires a namespace attribute")
			}
			continue
		}

		kind, known := elementKinds[start.Name.Local]
		if !known {
			return errs.Wrap(errs.BuildError, "unknown mapper element <%s>", start.Name.Local)
		}
		if namespace == "" {
			return errs.Wrap(errs.BuildError, "<%s> declared outside <mapper>", start.Name.Local)
		}

		id := attrValue(start, "id")
		if id == "" {
			return errs.Wrap(errs.BuildError, "<%s> requires an id attribute", start.Name.Local)
		}
		mapKey := attrValue(start, "mapKey")

		nodes, isDynamic, err := binding.ParseElement(decoder, start)
		if err != nil {
			return errs.Wrap(errs.BuildError, "statement %s.%s: %s", namespace, id, err)
		}
		compiled, err := binding.NewCompiledStatement(nodes, isDynamic)
		if err != nil {
			return err
		}

		statementID := namespace + "." + id
		r.mu.Lock()
		r.statements[statementID] = &Statement{
			ID:       statementID,
			Kind:     kind,
			Compiled: compiled,
			MapKey:   mapKey,
		}
		r.mu.Unlock()
		r.log.Debugw("loaded statement", "id", statementID, "kind", kind, "dynamic", isDynamic)
	}
	return nil
}

func attrValue(start xml.StartElement, name string) string {
	for _, a := range start.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}
