package registry_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/canonical/sqlmapper/internal/command"
	"github.com/canonical/sqlmapper/internal/registry"
)

const sampleMapper = `
<mapper namespace="example.UserMapper">
  <select id="FindByID">SELECT * FROM users WHERE id = #{id}</select>
  <select id="Search">
    SELECT * FROM users
    <where>
      <if test="name != null">name = #{name}</if>
    </where>
  </select>
  <insert id="Insert">INSERT INTO users (name) VALUES (#{name})</insert>
  <update id="Rename" mapKey="id">UPDATE users SET name = #{name} WHERE id = #{id}</update>
  <delete id="Remove">DELETE FROM users WHERE id = #{id}</delete>
</mapper>
`

func TestLoadRegistersEveryStatement(t *testing.T) {
	reg := registry.New(nil)
	require.NoError(t, reg.Load(strings.NewReader(sampleMapper)))

	for id, wantKind := range map[string]command.Kind{
		"example.UserMapper.FindByID": command.Select,
		"example.UserMapper.Search":   command.Select,
		"example.UserMapper.Insert":   command.Insert,
		"example.UserMapper.Rename":   command.Update,
		"example.UserMapper.Remove":   command.Delete,
	} {
		kind, ok := reg.Kind(id)
		require.True(t, ok, "missing statement %s", id)
		require.Equal(t, wantKind, kind)
	}
}

func TestLoadCompilesBoundSql(t *testing.T) {
	reg := registry.New(nil)
	require.NoError(t, reg.Load(strings.NewReader(sampleMapper)))

	stmt, ok := reg.Get("example.UserMapper.FindByID")
	require.True(t, ok)
	bound, err := stmt.Compiled.Bind(map[string]any{"id": 7})
	require.NoError(t, err)
	require.Equal(t, "SELECT * FROM users WHERE id = ?", bound.SQL)
	require.Len(t, bound.Parameters, 1)
	require.Equal(t, 7, bound.Parameters[0].Value)
}

func TestLoadCarriesMapKey(t *testing.T) {
	reg := registry.New(nil)
	require.NoError(t, reg.Load(strings.NewReader(sampleMapper)))

	stmt, ok := reg.Get("example.UserMapper.Rename")
	require.True(t, ok)
	require.Equal(t, "id", stmt.MapKey)
}

func TestLoadDynamicStatementEvaluatesPerBind(t *testing.T) {
	reg := registry.New(nil)
	require.NoError(t, reg.Load(strings.NewReader(sampleMapper)))

	stmt, ok := reg.Get("example.UserMapper.Search")
	require.True(t, ok)

	bound, err := stmt.Compiled.Bind(map[string]any{"name": "ada"})
	require.NoError(t, err)
	require.Contains(t, bound.SQL, "WHERE name = ?")

	bound, err = stmt.Compiled.Bind(map[string]any{"name": nil})
	require.NoError(t, err)
	require.NotContains(t, bound.SQL, "WHERE")
}

func TestLoadRejectsUnknownElement(t *testing.T) {
	reg := registry.New(nil)
	err := reg.Load(strings.NewReader(`<mapper namespace="x"><upsert id="A">X</upsert></mapper>`))
	require.Error(t, err)
}

func TestLoadRejectsMissingNamespace(t *testing.T) {
	reg := registry.New(nil)
	err := reg.Load(strings.NewReader(`<mapper><select id="A">X</select></mapper>`))
	require.Error(t, err)
}

func TestLoadRejectsStatementOutsideMapper(t *testing.T) {
	reg := registry.New(nil)
	err := reg.Load(strings.NewReader(`<select id="A">X</select>`))
	require.Error(t, err)
}

func TestKindUnknownStatementMisses(t *testing.T) {
	reg := registry.New(nil)
	_, ok := reg.Kind("nowhere.Nothing")
	require.False(t, ok)
}

func TestAllReturnsSortedStatements(t *testing.T) {
	reg := registry.New(nil)
	require.NoError(t, reg.Load(strings.NewReader(sampleMapper)))

	all := reg.All()
	require.Len(t, all, 5)
	for i := 1; i < len(all); i++ {
		require.Less(t, all[i-1].ID, all[i].ID)
	}
}
