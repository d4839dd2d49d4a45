package command_test

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/canonical/sqlmapper/internal/command"
)

type stubLookup map[string]command.Kind

func (s stubLookup) Kind(statementID string) (command.Kind, bool) {
	k, ok := s[statementID]
	return k, ok
}

type Parent struct{}
type Child struct{}

func TestResolveFindsDirectStatement(t *testing.T) {
	lookup := stubLookup{"github.com/canonical/sqlmapper/internal/command_test.Parent.find": command.Select}
	cmd, err := command.Resolve(reflect.TypeOf(Parent{}), nil, "find", false, lookup)
	require.NoError(t, err)
	require.Equal(t, command.Select, cmd.Kind)
	require.Equal(t, "github.com/canonical/sqlmapper/internal/command_test.Parent.find", cmd.Name)
}

// TestResolveFallsBackToAncestry exercises §8 scenario 6: a method declared
// on Parent resolves to "Parent.find", not "Child.find", when invoked
// through a type whose ancestry includes Parent.
func TestResolveFallsBackToAncestry(t *testing.T) {
	lookup := stubLookup{"github.com/canonical/sqlmapper/internal/command_test.Parent.find": command.Select}
	cmd, err := command.Resolve(reflect.TypeOf(Child{}), []reflect.Type{reflect.TypeOf(Parent{})}, "find", false, lookup)
	require.NoError(t, err)
	require.Equal(t, "github.com/canonical/sqlmapper/internal/command_test.Parent.find", cmd.Name)
}

func TestResolveFallsBackToFlushWhenMarked(t *testing.T) {
	cmd, err := command.Resolve(reflect.TypeOf(Child{}), nil, "flushStatements", true, stubLookup{})
	require.NoError(t, err)
	require.Equal(t, command.Flush, cmd.Kind)
}

func TestResolveMissesWithoutFlushMarker(t *testing.T) {
	_, err := command.Resolve(reflect.TypeOf(Child{}), nil, "nowhere", false, stubLookup{})
	require.Error(t, err)
}

func TestResolveRejectsUnknownKind(t *testing.T) {
	lookup := stubLookup{"github.com/canonical/sqlmapper/internal/command_test.Parent.find": command.Unknown}
	_, err := command.Resolve(reflect.TypeOf(Parent{}), nil, "find", false, lookup)
	require.Error(t, err)
}

func TestFQName(t *testing.T) {
	require.Equal(t, "github.com/canonical/sqlmapper/internal/command_test.Parent", command.FQName(reflect.TypeOf(Parent{})))
}

func TestKindString(t *testing.T) {
	require.Equal(t, "SELECT", command.Select.String())
	require.Equal(t, "UNKNOWN", command.Kind(99).String())
}
