package staging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestDir_CreatesStagingDirectory(t *testing.T) {
	a := Area{Root: t.TempDir()}
	dir, err := a.Dir("prop1")
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Equal(t, filepath.Join(a.Root, "prop1", DirName), dir)
}

func TestDir_EmptyPropertyID(t *testing.T) {
	a := Area{Root: t.TempDir()}
	_, err := a.Dir("")
	assert.Error(t, err)
}

func TestClear_Idempotent(t *testing.T) {
	a := Area{Root: t.TempDir()}
	writeFile(t, a.Path("prop1", "img.jpg"), "staged")

	require.NoError(t, a.Clear("prop1"))
	_, err := os.Stat(filepath.Join(a.Root, "prop1", DirName))
	assert.True(t, os.IsNotExist(err))

	// Clearing again must not fail.
	assert.NoError(t, a.Clear("prop1"))
}

func TestClearAll_RemovesEveryProperty(t *testing.T) {
	a := Area{Root: t.TempDir()}
	writeFile(t, a.Path("prop1", "a.jpg"), "x")
	writeFile(t, a.Path("prop2", "b.jpg"), "y")
	writeFile(t, filepath.Join(a.Root, "prop1", "keep.jpg"), "original")

	require.NoError(t, a.ClearAll())

	_, err := os.Stat(filepath.Join(a.Root, "prop1", DirName))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(a.Root, "prop2", DirName))
	assert.True(t, os.IsNotExist(err))

	// Originals stay untouched.
	data, err := os.ReadFile(filepath.Join(a.Root, "prop1", "keep.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "original", string(data))
}

func TestClearAll_MissingRoot(t *testing.T) {
	a := Area{Root: filepath.Join(t.TempDir(), "nope")}
	assert.NoError(t, a.ClearAll())
}

func TestPromote_ReplacesOriginalAndRemovesStaged(t *testing.T) {
	a := Area{Root: t.TempDir()}
	writeFile(t, filepath.Join(a.Root, "prop1", "img.jpg"), "original")
	writeFile(t, a.Path("prop1", "img.jpg"), "corrected")

	require.NoError(t, a.Promote("prop1", "img.jpg"))

	data, err := os.ReadFile(filepath.Join(a.Root, "prop1", "img.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "corrected", string(data))

	_, err = os.Stat(a.Path("prop1", "img.jpg"))
	assert.True(t, os.IsNotExist(err))
}

func TestPromote_MissingStagedFile(t *testing.T) {
	a := Area{Root: t.TempDir()}
	writeFile(t, filepath.Join(a.Root, "prop1", "img.jpg"), "original")

	err := a.Promote("prop1", "img.jpg")
	assert.Error(t, err)

	// Original must be untouched on failure.
	data, readErr := os.ReadFile(filepath.Join(a.Root, "prop1", "img.jpg"))
	require.NoError(t, readErr)
	assert.Equal(t, "original", string(data))
}
