package testutils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// WriteFiles writes each name→content pair under dir, creating parent
// directories as needed. It fails the test immediately on error.
func WriteFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755), "Failed to create %s", filepath.Dir(path))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644), "Failed to write %s", path)
	}
}

// TempFiles creates a temporary directory holding files and returns its
// absolute path.
func TempFiles(t *testing.T, files map[string]string) string {
	t.Helper()

	// Ensuring it is absolute keeps relative scene names stable when tests chdir.
	dir, err := filepath.Abs(t.TempDir())
	require.NoError(t, err, "Failed to get absolute path for temp dir")

	WriteFiles(t, dir, files)
	return dir
}
