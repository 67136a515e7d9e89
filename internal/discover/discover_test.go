package discover

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, root string, files ...string) {
	t.Helper()
	for _, f := range files {
		path := filepath.Join(root, filepath.FromSlash(f))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("x = 1\n"), 0o644))
	}
}

func TestFiles_FindsPythonSorted(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeTree(t, root,
		"pkg/mod.py",
		"main.py",
		"pkg/stubs.pyi",
		"README.md",
		"pkg/__pycache__/mod.cpython-312.py",
		".hidden/secret.py",
		"venv/lib/site.py",
		"pkg/.dot.py",
	)

	got, err := Files(root, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"main.py", "pkg/mod.py", "pkg/stubs.pyi"}, got)
}

func TestFiles_HonorsGitignoreAndExcludes(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeTree(t, root,
		"app.py",
		"generated/schema.py",
		"tests/test_app.py",
		"types.pyi",
	)
	require.NoError(t, os.WriteFile(filepath.Join(root, ".gitignore"), []byte("generated/\n"), 0o644))

	got, err := Files(root, []string{"*.pyi", "tests/"})
	require.NoError(t, err)
	assert.Equal(t, []string{"app.py"}, got)
}

func TestFiles_RootMustBeDirectory(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeTree(t, root, "only.py")

	_, err := Files(filepath.Join(root, "only.py"), nil)
	assert.Error(t, err)

	_, err = Files(filepath.Join(root, "missing"), nil)
	assert.Error(t, err)
}
