package loaders

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/df07/go-sphere-raytracer/pkg/core"
	"github.com/df07/go-sphere-raytracer/pkg/geometry"
	"github.com/df07/go-sphere-raytracer/pkg/scene"
)

const twoSpheres = `# Description: a subject and a light
name: pair
background: [0.1, 0.2, 0.3]
elements:
  - center: [0, 0, -20]
    radius: 3
    material:
      surfaceColor: [0.8, 0.8, 0.8]
      emissionColor: [0, 0, 0]
      transparency: 0
      reflection: 0.5
  - center: [0, 20, -5]
    radius: 2
    material:
      surfaceColor: [0, 0, 0]
      emissionColor: [1, 1, 1]
      transparency: 0
      reflection: 0
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadSceneFile(t *testing.T) {
	def, err := LoadSceneFile(writeFile(t, "pair.yaml", twoSpheres))
	require.NoError(t, err)

	assert.Equal(t, "pair", def.Name)
	assert.Equal(t, core.NewVec3(0.1, 0.2, 0.3), def.Background)
	require.Equal(t, 2, def.Scene.Len())

	subject := def.Scene.Elements()[0]
	assert.Equal(t, core.NewVec3(0, 0, -20), subject.Center)
	assert.Equal(t, 3.0, subject.Radius())
	assert.Equal(t, 9.0, subject.Radius2())
	assert.Equal(t, 0.5, subject.Material.Reflection)
	assert.True(t, def.Scene.Elements()[1].Material.IsEmissive())
}

func TestLoadSceneFileNameFromFile(t *testing.T) {
	content := strings.Replace(twoSpheres, "name: pair\n", "", 1)
	def, err := LoadSceneFile(writeFile(t, "studio.yml", content))
	require.NoError(t, err)
	assert.Equal(t, "studio", def.Name)
}

func TestLoadSceneFileErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{"unknown key", "background: [0, 0, 0]\nlights: []\n", nil},
		{"short background", "background: [0, 0]\n", nil},
		{"non-finite background", "background: [.nan, 0, 0]\n", ErrInvalidBackground},
		{"zero radius", "background: [0, 0, 0]\nelements:\n  - center: [0, 0, 0]\n    radius: 0\n", geometry.ErrInvalidRadius},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadSceneFile(writeFile(t, "bad.yaml", tt.content))
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}

	_, err := LoadSceneFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSaveSceneFileRoundTrip(t *testing.T) {
	original := scene.NewDefaultScene()
	path := filepath.Join(t.TempDir(), "default.yaml")

	require.NoError(t, SaveSceneFile(path, original))

	loaded, err := LoadSceneFile(path)
	require.NoError(t, err)
	assert.Equal(t, original.Name, loaded.Name)
	assert.Equal(t, original.Background, loaded.Background)
	assert.Equal(t, original.Scene.Serialize(), loaded.Scene.Serialize())
}

func TestParseSceneFileEmpty(t *testing.T) {
	f, err := ParseSceneFile(strings.NewReader(""))
	require.NoError(t, err)

	def, err := f.Definition()
	require.NoError(t, err)
	assert.Equal(t, 0, def.Scene.Len())
}
