package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFrom_MissingFileGivesDefaults(t *testing.T) {
	c, err := LoadFrom(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, err)
	assert.Greater(t, c.Workers, 0)
	assert.Equal(t, 480, c.PreviewWidth)
	assert.Equal(t, 92, c.JPEGQuality)
}

func TestLoadFrom_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := LoadFrom(path)
	assert.Error(t, err)
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.json")

	c, err := LoadFrom(path)
	require.NoError(t, err)
	c.RootDir = "/photos"
	c.Workers = 3
	require.NoError(t, c.Save())

	reloaded, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "/photos", reloaded.RootDir)
	assert.Equal(t, 3, reloaded.Workers)
}

func TestLoadFrom_ZeroWorkersNormalized(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"workers": 0}`), 0o644))

	c, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Greater(t, c.Workers, 0)
}
