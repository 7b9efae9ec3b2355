package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// Canned model replies
const (
	ReplyHello     = `{"speakers": ["S1"], "text": "hello"}`
	ReplyMalformed = `{"speakers": ["S1"], "text": "hel`
	ReplyDialogue  = `{"segments":[{"speaker":"Speaker 1","start":"00:00","text":"um, hi"},{"speaker":"Speaker 2","start":"00:03","text":"hello [overlap]"}]}`
)

// HelloIndented is ReplyHello as written to disk.
const HelloIndented = `{
    "speakers": [
        "S1"
    ],
    "text": "hello"
}`

// CreateAudioDir creates a temporary input directory holding empty files
// with the given names and returns its path.
func CreateAudioDir(t *testing.T, names ...string) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "AudioData")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("RIFF"), 0o644))
	}
	return dir
}

// ReadOutput returns the content of an output file, failing the test if absent.
func ReadOutput(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(content)
}
