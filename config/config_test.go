package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAtPath(t *testing.T) {
	c, err := NewAtPath("config.yml")
	require.NoError(t, err)

	assert.Equal(t, "config.yml", c.GetPath())
	assert.False(t, c.Debug)
	assert.Equal(t, 4096, c.System.ChunkSize)
	assert.Equal(t, 32, c.System.DescriptorScanLimit)
	assert.Equal(t, "ISOFORGE", c.Volume.Identifier)
	assert.Equal(t, "LINUX", c.Volume.SystemIdentifier)
}

func TestFromFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("values override defaults", func(t *testing.T) {
		p := filepath.Join(dir, "config.yml")
		data := "debug: true\nvolume:\n  identifier: BACKUPS\nsystem:\n  chunk_size: 8192\n"
		require.NoError(t, os.WriteFile(p, []byte(data), 0o600))

		require.NoError(t, FromFile(p))
		c := Get()
		assert.True(t, c.Debug)
		assert.Equal(t, "BACKUPS", c.Volume.Identifier)
		assert.Equal(t, 8192, c.System.ChunkSize)
		// Unset values keep their defaults.
		assert.Equal(t, "LINUX", c.Volume.SystemIdentifier)
		assert.Equal(t, 32, c.System.DescriptorScanLimit)
	})

	t.Run("missing file keeps defaults", func(t *testing.T) {
		require.NoError(t, FromFile(filepath.Join(dir, "does-not-exist.yml")))
		c := Get()
		assert.False(t, c.Debug)
		assert.Equal(t, "ISOFORGE", c.Volume.Identifier)
	})
}
