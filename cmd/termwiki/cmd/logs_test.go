package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const serverLog = `{"time":"2026-10-19T09:00:00Z","level":"DEBUG","msg":"document parsed","path":"global.md"}
{"time":"2026-10-19T09:00:01Z","level":"INFO","msg":"index rebuilt","documents":2}
{"time":"2026-10-19T09:00:02Z","level":"WARN","msg":"document skipped","path":"combat/huge.md"}
`

func TestLogsCmd(t *testing.T) {
	isolate(t)
	logPath := filepath.Join(t.TempDir(), "server.log")
	require.NoError(t, os.WriteFile(logPath, []byte(serverLog), 0o644))

	tests := []struct {
		name string
		args []string
		want []string
	}{
		{"all", nil, []string{"document parsed", "index rebuilt", "document skipped"}},
		{"last line", []string{"-n", "1"}, []string{"document skipped"}},
		{"level", []string{"--level", "info"}, []string{"index rebuilt", "document skipped"}},
		{"grep", []string{"--grep", "combat/"}, []string{"document skipped"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, append([]string{"logs", "--file", logPath}, tt.args...)...)
			require.NoError(t, err)

			lines := strings.Split(strings.TrimSpace(out), "\n")
			require.Len(t, lines, len(tt.want))
			for i, msg := range tt.want {
				assert.Contains(t, lines[i], msg)
			}
		})
	}
}

func TestLogsCmd_Errors(t *testing.T) {
	isolate(t)

	_, err := run(t, "logs")
	assert.Error(t, err, "no default log yet")

	logPath := filepath.Join(t.TempDir(), "server.log")
	require.NoError(t, os.WriteFile(logPath, []byte(serverLog), 0o644))
	_, err = run(t, "logs", "--file", logPath, "--grep", "(")
	assert.Error(t, err)
}
