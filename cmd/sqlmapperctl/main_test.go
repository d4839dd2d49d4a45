package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleDoc = `
<mapper namespace="cli_test.Mapper">
  <select id="FindByID">SELECT id FROM t WHERE id = #{id}</select>
  <insert id="Insert">INSERT INTO t (id) VALUES (#{id})</insert>
</mapper>
`

func writeSampleDoc(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mapper.xml")
	require.NoError(t, os.WriteFile(path, []byte(sampleDoc), 0o600))
	return path
}

func TestValidateCommandReportsStatementCount(t *testing.T) {
	path := writeSampleDoc(t)
	root := newRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"validate", path})
	require.NoError(t, root.Execute())
	require.Contains(t, out.String(), "ok: 2 statements")
}

func TestDumpCommandListsStatements(t *testing.T) {
	path := writeSampleDoc(t)
	root := newRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"dump", path})
	require.NoError(t, root.Execute())
	require.Contains(t, out.String(), "cli_test.Mapper.FindByID")
	require.Contains(t, out.String(), "SELECT")
}

func TestValidateCommandRejectsMalformedDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.xml")
	require.NoError(t, os.WriteFile(path, []byte(`<mapper namespace="x"><upsert id="a">x</upsert></mapper>`), 0o600))

	root := newRootCommand()
	root.SetArgs([]string{"validate", path})
	require.Error(t, root.Execute())
}
