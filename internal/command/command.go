// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

/*
Package command resolves a declared interface method to a statement id and
kind.

Unlike a reflective runtime that retains each inherited method's declaring
class, Go's reflect.Type flattens interface embedding into one method set;
there is no runtime API to ask "which embedded interface declared this
method". Resolve therefore accepts an explicit, caller-supplied ancestry
(the embedded interfaces to retry against, in order) rather than
discovering it by reflection - the idiomatic substitute for the original's
super-interface walk.
*/
package command

import (
	"fmt"
	"reflect"

	"github.com/canonical/sqlmapper/internal/errs"
)

// Kind is a statement's SQL command kind.
type Kind int

const (
	Unknown Kind = iota
	Insert
	Update
	Delete
	Select
	Flush
)

func (k Kind) String() string {
	switch k {
	case Insert:
		return "INSERT"
	case Update:
		return "UPDATE"
	case Delete:
		return "DELETE"
	case Select:
		return "SELECT"
	case Flush:
		return "FLUSH"
	default:
		return "UNKNOWN"
	}
}

// Command binds an interface method to a named statement.
type Command struct {
	Name string
	Kind Kind
}

// Lookup resolves a statement id to its kind. It is satisfied by the
// statement registry.
type Lookup interface {
	Kind(statementID string) (Kind, bool)
}

// FQName returns an interface type's fully qualified name, used as the
// prefix of every statement id declared on it.
func FQName(iface reflect.Type) string {
	return fmt.Sprintf("%s.%s", iface.PkgPath(), iface.Name())
}

// Resolve composes "<declaring-interface>.<method-name>" for iface, and
// retries against each type in ancestry (in order) on a miss. If every
// candidate misses and hasFlushMarker is set, it returns the FLUSH command;
// otherwise it fails with MissingStatement.
func Resolve(iface reflect.Type, ancestry []reflect.Type, methodName string, hasFlushMarker bool, lookup Lookup) (*Command, error) {
	candidates := make([]reflect.Type, 0, len(ancestry)+1)
	candidates = append(candidates, iface)
	candidates = append(candidates, ancestry...)

	for _, candidate := range candidates {
		id := FQName(candidate) + "." + methodName
		kind, ok := lookup.Kind(id)
		if !ok {
			continue
		}
		if kind == Unknown {
			return nil, errs.Wrap(errs.UnknownStatementKind, "statement %q", id)
		}
		return &Command{Name: id, Kind: kind}, nil
	}

	if hasFlushMarker {
		return &Command{Kind: Flush}, nil
	}
	return nil, errs.Wrap(errs.MissingStatement, "no statement for %s.%s", FQName(iface), methodName)
}
