package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsolatedLoggerWritesJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompt.log")
	l := NewIsolatedLogger(path)

	l.Info("PROMPT", "assembled", map[string]interface{}{"chat_id": "c-1"})
	l.Debug("PROMPT", "below file level", nil)
	require.NoError(t, l.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], `"module":"PROMPT"`)
	assert.Contains(t, lines[0], `"message":"assembled"`)
	assert.Contains(t, lines[0], `"chat_id":"c-1"`)
}

func TestNopLoggerAcceptsNilDetails(t *testing.T) {
	var l ILogger = NewNopLogger()
	assert.NotPanics(t, func() {
		l.Warn("TEST", "nothing", nil)
		l.Error("TEST", "nothing", map[string]interface{}{"error": "boom"})
	})
}
