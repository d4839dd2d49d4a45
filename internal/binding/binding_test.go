package binding_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canonical/sqlmapper/internal/binding"
)

func bind(t *testing.T, template string, param any) *binding.BoundSql {
	t.Helper()
	cs, err := binding.ParseStatement(template)
	require.NoError(t, err)
	bound, err := cs.Bind(param)
	require.NoError(t, err)
	return bound
}

func TestSimpleSelectByID(t *testing.T) {
	bound := bind(t, "SELECT * FROM t WHERE id = #{id}", map[string]any{"id": 7})
	assert.Equal(t, "SELECT * FROM t WHERE id = ?", bound.SQL)
	require.Len(t, bound.Parameters, 1)
	assert.EqualValues(t, 7, bound.Parameters[0].Value)
}

func TestDynamicWhereWithIf(t *testing.T) {
	template := `SELECT * FROM t<where><if test="name != null">AND name = #{name}</if><if test="age != null">AND age &gt; #{age}</if></where>`

	bound := bind(t, template, map[string]any{"name": nil, "age": 18})
	assert.Equal(t, "SELECT * FROM t WHERE age > ?", bound.SQL)
	require.Len(t, bound.Parameters, 1)
	assert.EqualValues(t, 18, bound.Parameters[0].Value)

	bound = bind(t, template, map[string]any{"name": nil, "age": nil})
	assert.Equal(t, "SELECT * FROM t", bound.SQL)
	assert.Empty(t, bound.Parameters)
}

func TestForeachInList(t *testing.T) {
	template := `SELECT * FROM t WHERE id IN <foreach collection="ids" item="x" open="(" close=")" separator=",">#{x}</foreach>`

	bound := bind(t, template, map[string]any{"ids": []int{1, 2, 3}})
	assert.Equal(t, "SELECT * FROM t WHERE id IN (?,?,?)", bound.SQL)
	require.Len(t, bound.Parameters, 3)
	assert.EqualValues(t, 1, bound.Parameters[0].Value)
	assert.EqualValues(t, 2, bound.Parameters[1].Value)
	assert.EqualValues(t, 3, bound.Parameters[2].Value)

	bound = bind(t, template, map[string]any{"ids": []int{}})
	assert.Equal(t, "SELECT * FROM t WHERE id IN ()", bound.SQL)
	assert.Empty(t, bound.Parameters)
}

func TestSubstitutionVsParameter(t *testing.T) {
	bound := bind(t, "ORDER BY ${col} ASC LIMIT #{n}", map[string]any{"col": "created_at", "n": 10})
	assert.Equal(t, "ORDER BY created_at ASC LIMIT ?", bound.SQL)
	require.Len(t, bound.Parameters, 1)
	assert.EqualValues(t, 10, bound.Parameters[0].Value)

	bound = bind(t, "ORDER BY ${col} ASC LIMIT #{n}", map[string]any{"col": "x; DROP TABLE t", "n": 10})
	assert.Equal(t, "ORDER BY x; DROP TABLE t ASC LIMIT ?", bound.SQL)
}

func TestStaticTemplateRoundTrips(t *testing.T) {
	cs, err := binding.ParseStatement("SELECT 1")
	require.NoError(t, err)
	assert.False(t, cs.IsDynamic)

	b1, err := cs.Bind(nil)
	require.NoError(t, err)
	b2, err := cs.Bind(map[string]any{"unused": 1})
	require.NoError(t, err)
	assert.Equal(t, b1, b2)
	assert.Equal(t, "SELECT 1", b1.SQL)
}

func TestWhereNeverEmitsBareKeyword(t *testing.T) {
	template := `SELECT * FROM t<where><if test="false_flag">AND x = 1</if></where>`
	bound := bind(t, template, map[string]any{"false_flag": false})
	assert.Equal(t, "SELECT * FROM t", bound.SQL)
}

func TestSetStripsTrailingComma(t *testing.T) {
	template := `UPDATE t<set><if test="name != null">name = #{name},</if><if test="age != null">age = #{age},</if></set>WHERE id = #{id}`
	bound := bind(t, template, map[string]any{"name": "Ed", "age": nil, "id": 1})
	assert.Equal(t, "UPDATE t SET name = ?WHERE id = ?", bound.SQL)
}

func TestForeachAssignsUniqueParameterNames(t *testing.T) {
	template := `SELECT * FROM t WHERE id IN <foreach collection="ids" item="x" open="(" close=")" separator=",">#{x}</foreach>`
	bound := bind(t, template, map[string]any{"ids": []int{1, 2}})
	require.Len(t, bound.Parameters, 2)
	assert.NotEqual(t, bound.Parameters[0].Expression, bound.Parameters[1].Expression)
}

func TestBindDeclaresVariable(t *testing.T) {
	template := `<bind name="pattern" value="name"/>SELECT * FROM t WHERE name = #{pattern}`
	bound := bind(t, template, map[string]any{"name": "Ed"})
	assert.Equal(t, "SELECT * FROM t WHERE name = ?", bound.SQL)
	require.Len(t, bound.Parameters, 1)
	assert.Equal(t, "Ed", bound.Parameters[0].Value)
}

func TestChooseAtMostOneOtherwise(t *testing.T) {
	_, err := binding.ParseStatement(`<choose><otherwise>A</otherwise><otherwise>B</otherwise></choose>`)
	assert.Error(t, err)
}

func TestUnknownElementIsBuildError(t *testing.T) {
	_, err := binding.ParseStatement(`<bogus>x</bogus>`)
	assert.Error(t, err)
}

func TestPlaceholderCountMatchesParameterCount(t *testing.T) {
	template := `SELECT * FROM t WHERE id IN <foreach collection="ids" item="x" open="(" close=")" separator=",">#{x}</foreach> AND name = #{name}`
	bound := bind(t, template, map[string]any{"ids": []int{1, 2, 3}, "name": "Ed"})
	placeholderCount := 0
	for _, r := range bound.SQL {
		if r == '?' {
			placeholderCount++
		}
	}
	assert.Equal(t, placeholderCount, len(bound.Parameters))
}
