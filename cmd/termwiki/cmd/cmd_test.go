package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// isolate points user config and logs at a temp home so tests never read
// the developer's files.
func isolate(t *testing.T) {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("NO_COLOR", "1")
	for _, v := range []string{"TERMWIKI_DOCS_DIR", "TERMWIKI_EXCLUDE", "TERMWIKI_WATCH", "TERMWIKI_TRANSPORT", "TERMWIKI_ADDR"} {
		t.Setenv(v, "")
	}
}

func writeDoc(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}

// newDocsProject creates a project with a global glossary and one scoped
// document.
func newDocsProject(t *testing.T) string {
	t.Helper()
	isolate(t)
	root := t.TempDir()
	writeDoc(t, root, "global.md", "【暴击】：critical hit\n【伤害】：damage\n")
	writeDoc(t, root, "combat/crit.md", "---\nscope: combat\n---\n【暴击】：combat critical hit\n【暴击伤害】：extra damage on crit\n")
	return root
}

// run executes the root command with args and returns stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	buf := &bytes.Buffer{}
	root.SetOut(buf)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}
