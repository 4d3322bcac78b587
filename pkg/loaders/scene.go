package loaders

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/df07/go-sphere-raytracer/pkg/scene"
)

// ErrUnsupportedFormat is returned for scene files with an unknown extension
var ErrUnsupportedFormat = errors.New("unsupported scene file format")

// LoadScene loads a YAML or glTF scene, picking the loader from the file extension
func LoadScene(filename string) (*scene.Definition, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		return LoadSceneFile(filename)
	case ".gltf", ".glb":
		return LoadGLTF(filename)
	default:
		return nil, fmt.Errorf("%s: %w", filename, ErrUnsupportedFormat)
	}
}
