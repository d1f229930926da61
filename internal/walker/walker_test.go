package walker

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mkFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func relPaths(files []FileInfo) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.RelPath
	}
	return out
}

func TestWalkFindsPythonFiles(t *testing.T) {
	root := t.TempDir()
	mkFile(t, root, "main.py", "x = 1\n")
	mkFile(t, root, "pkg/mod.py", "y = 2\n")
	mkFile(t, root, "pkg/types.pyi", "z: int\n")
	mkFile(t, root, "README.md", "# nope\n")
	mkFile(t, root, "script.sh", "echo hi\n")

	files, err := Walk(root)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"main.py", "pkg/mod.py", "pkg/types.pyi"}, relPaths(files))
}

func TestWalkSkipsDefaultIgnoredDirs(t *testing.T) {
	root := t.TempDir()
	mkFile(t, root, "keep.py", "x = 1\n")
	mkFile(t, root, ".git/hook.py", "x = 1\n")
	mkFile(t, root, "__pycache__/cached.py", "x = 1\n")
	mkFile(t, root, ".venv/lib/pkg.py", "x = 1\n")
	mkFile(t, root, "build/gen.py", "x = 1\n")

	files, err := Walk(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"keep.py"}, relPaths(files))
}

func TestWalkHonorsIgnoreFile(t *testing.T) {
	root := t.TempDir()
	mkFile(t, root, ".cortexignore", "# comment\ngenerated\n")
	mkFile(t, root, "keep.py", "x = 1\n")
	mkFile(t, root, "generated/gen.py", "x = 1\n")
	// Custom ignore file replaces the defaults entirely.
	mkFile(t, root, "build/built.py", "x = 1\n")

	files, err := Walk(root)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"keep.py", "build/built.py"}, relPaths(files))
}

func TestWalkSkipsEmptyAndHugeFiles(t *testing.T) {
	root := t.TempDir()
	mkFile(t, root, "normal.py", "x = 1\n")
	mkFile(t, root, "empty.py", "")

	big := make([]byte, maxFileSize+1)
	require.NoError(t, os.WriteFile(filepath.Join(root, "big.py"), big, 0o644))

	files, err := Walk(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"normal.py"}, relPaths(files))
}
