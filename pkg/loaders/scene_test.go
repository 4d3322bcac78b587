package loaders

import (
	"path/filepath"
	"testing"

	"github.com/qmuntal/gltf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/df07/go-sphere-raytracer/pkg/scene"
)

func TestLoadSceneDispatchesOnExtension(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "Studio.YML")
	require.NoError(t, SaveSceneFile(yamlPath, scene.NewSingleLightScene()))
	gltfPath := filepath.Join(dir, "spheres.gltf")
	require.NoError(t, gltf.Save(sphereDocument(), gltfPath))

	def, err := LoadScene(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, 2, def.Scene.Len())

	def, err = LoadScene(gltfPath)
	require.NoError(t, err)
	assert.Equal(t, 3, def.Scene.Len())

	_, err = LoadScene(filepath.Join(dir, "scene.pbrt"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}
