package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveFileArgs(t *testing.T) {
	root := t.TempDir()

	files, err := resolveFileArgs(root, []string{
		"app.py",
		filepath.Join("pkg", "util.py"),
		filepath.Join(root, "models", "user.py"),
	})
	require.NoError(t, err)
	require.Len(t, files, 3)
	assert.Equal(t, "app.py", files[0].RelPath)
	assert.Equal(t, filepath.Join(root, "app.py"), files[0].Path)
	assert.Equal(t, "pkg/util.py", files[1].RelPath)
	assert.Equal(t, "models/user.py", files[2].RelPath)
}

func TestResolveFileArgsRejectsOutsideRoot(t *testing.T) {
	parent := t.TempDir()
	root := filepath.Join(parent, "proj")
	require.NoError(t, os.Mkdir(root, 0o755))

	for _, arg := range []string{
		filepath.Join(parent, "other.py"),
		filepath.Join("..", "other.py"),
		filepath.Join("sub", "..", "..", "other.py"),
	} {
		_, err := resolveFileArgs(root, []string{arg})
		assert.Error(t, err, "argument %q resolves outside the root", arg)
	}
}
