package eval_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canonical/sqlmapper/internal/eval"
)

func TestEvaluatePropertyPath(t *testing.T) {
	env := eval.Environment{"a": map[string]any{"b": 7}}
	out, err := eval.Evaluate("a.b", env)
	require.NoError(t, err)
	assert.EqualValues(t, 7, out)
}

func TestEvaluateIndexedAccess(t *testing.T) {
	env := eval.Environment{"a": []int{10, 20, 30}}
	out, err := eval.Evaluate("a[1]", env)
	require.NoError(t, err)
	assert.EqualValues(t, 20, out)
}

func TestTestTruthiness(t *testing.T) {
	cases := []struct {
		expr string
		env  eval.Environment
		want bool
	}{
		{"name", eval.Environment{"name": nil}, false},
		{"name", eval.Environment{"name": ""}, false},
		{"name", eval.Environment{"name": "x"}, true},
		{"age", eval.Environment{"age": 0}, false},
		{"age", eval.Environment{"age": 18}, true},
		{"ids", eval.Environment{"ids": []int{}}, false},
		{"ids", eval.Environment{"ids": []int{1}}, true},
		{"flag", eval.Environment{"flag": false}, false},
		{"flag", eval.Environment{"flag": true}, true},
	}
	for _, c := range cases {
		got, err := eval.Test(c.expr, c.env)
		require.NoError(t, err)
		assert.Equalf(t, c.want, got, "expr %q against %v", c.expr, c.env)
	}
}

func TestEvaluateComparison(t *testing.T) {
	ok, err := eval.Test(`age > 18`, eval.Environment{"age": 21})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEvaluateCompileErrorWrapsEvaluationError(t *testing.T) {
	_, err := eval.Evaluate("???", eval.Environment{})
	assert.Error(t, err)
}
