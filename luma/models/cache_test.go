package models

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsPopulated(t *testing.T) {
	root := t.TempDir()

	t.Run("missing directory", func(t *testing.T) {
		assert.False(t, IsPopulated(filepath.Join(root, "missing")))
	})

	t.Run("empty directory", func(t *testing.T) {
		empty := filepath.Join(root, "empty")
		require.NoError(t, os.Mkdir(empty, 0o755))
		assert.False(t, IsPopulated(empty))
	})

	t.Run("populated directory", func(t *testing.T) {
		populated := filepath.Join(root, "populated")
		require.NoError(t, os.Mkdir(populated, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(populated, "weights.bin"), []byte("w"), 0o644))
		assert.True(t, IsPopulated(populated))
	})
}

func TestModelDirs(t *testing.T) {
	assert.Equal(t, filepath.Join("cache", "deepseek"), TextModelDir("cache"))
	assert.Equal(t, filepath.Join("cache", "stable-diffusion"), ImageModelDir("cache"))
}
