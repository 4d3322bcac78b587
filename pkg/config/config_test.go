package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `width: 320
height: 200
jobs: 4
scene: single
background: [0.1, 0.2, 0.3]
server:
  addr: ":9090"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 320, c.Width)
	assert.Equal(t, 200, c.Height)
	assert.Equal(t, 4, c.Jobs)
	assert.Equal(t, "single", c.Scene)
	require.NotNil(t, c.Background)
	assert.Equal(t, [3]float64{0.1, 0.2, 0.3}, *c.Background)
	assert.Equal(t, ":9090", c.Server.Addr)
	assert.Empty(t, c.Server.ScenesDir)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("width: [1, 2"), 0644))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	original := Default()
	original.Background = &[3]float64{0, 0, 0.5}

	require.NoError(t, Save(path, original))
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, original, loaded)
}

func TestMerge(t *testing.T) {
	c := Default()
	c.Merge(&Config{Height: 100, Scene: "empty", Server: Server{Addr: ":1"}})

	assert.Equal(t, 640, c.Width, "unset values are kept")
	assert.Equal(t, 100, c.Height)
	assert.Equal(t, "empty", c.Scene)
	assert.Equal(t, ":1", c.Server.Addr)
	assert.Equal(t, "scenes", c.Server.ScenesDir)
	assert.Nil(t, c.Background)

	c.Merge(nil)
	assert.Equal(t, 100, c.Height)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"zero width", func(c *Config) { c.Width = 0 }},
		{"negative height", func(c *Config) { c.Height = -5 }},
		{"negative jobs", func(c *Config) { c.Jobs = -1 }},
		{"no scene", func(c *Config) { c.Scene = "" }},
		{"infinite background", func(c *Config) { c.Background = &[3]float64{0, math.Inf(1), 0} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.modify(c)
			assert.ErrorIs(t, c.Validate(), ErrInvalidConfig)
		})
	}

	withFile := Default()
	withFile.Scene = ""
	withFile.SceneFile = "scenes/studio.yaml"
	assert.NoError(t, withFile.Validate())
}
