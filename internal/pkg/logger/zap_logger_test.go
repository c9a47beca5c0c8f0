package logger

import (
	"bufio"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"course-buddy-be/pkg/rag"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ rag.Logger = (*ZapLogger)(nil)

func TestIsolatedLogger_WritesJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "llm_rag.log")
	l := NewIsolatedLogger(path)

	l.Info("RAG", "retrieval done", map[string]interface{}{"path": "broad"})
	l.Error("RAG", "model failed", map[string]interface{}{"error": errors.New("boom")})
	l.Debug("RAG", "below file level", nil)
	_ = l.Sync()

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var lines []map[string]interface{}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var m map[string]interface{}
		require.NoError(t, json.Unmarshal(sc.Bytes(), &m))
		lines = append(lines, m)
	}

	require.Len(t, lines, 2)
	assert.Equal(t, "INFO", lines[0]["level"])
	assert.Equal(t, "RAG", lines[0]["module"])
	assert.Equal(t, "retrieval done", lines[0]["message"])
	assert.Equal(t, "boom", lines[1]["error"])
	assert.Equal(t, path, l.FilePath())
}
