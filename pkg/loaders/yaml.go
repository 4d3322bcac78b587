package loaders

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/df07/go-sphere-raytracer/pkg/core"
	"github.com/df07/go-sphere-raytracer/pkg/geometry"
	"github.com/df07/go-sphere-raytracer/pkg/scene"
)

// ErrInvalidBackground is returned for a scene file whose background is not finite
var ErrInvalidBackground = errors.New("background color is not finite")

// SceneFile is the on-disk YAML form of a scene
type SceneFile struct {
	Name       string                `yaml:"name,omitempty"`
	Background [3]float64            `yaml:"background"`
	Elements   []geometry.SphereData `yaml:"elements"`
}

// ParseSceneFile decodes a YAML scene. Unknown keys are rejected.
func ParseSceneFile(r io.Reader) (*SceneFile, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f SceneFile
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return &f, nil
		}
		return nil, fmt.Errorf("failed to parse scene: %w", err)
	}
	return &f, nil
}

// Definition builds a validated scene from the file contents
func (f *SceneFile) Definition() (*scene.Definition, error) {
	background := core.Vec3FromArray(f.Background)
	if !background.IsFinite() {
		return nil, fmt.Errorf("%v: %w", f.Background, ErrInvalidBackground)
	}

	s, err := scene.FromData(f.Elements)
	if err != nil {
		return nil, err
	}
	return &scene.Definition{Name: f.Name, Scene: s, Background: background}, nil
}

// LoadSceneFile reads a YAML scene from disk. The scene name defaults to the file name.
func LoadSceneFile(filename string) (*scene.Definition, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open scene file: %w", err)
	}
	defer file.Close()

	f, err := ParseSceneFile(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	if f.Name == "" {
		base := filepath.Base(filename)
		f.Name = strings.TrimSuffix(base, filepath.Ext(base))
	}

	def, err := f.Definition()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return def, nil
}

// MarshalScene encodes a scene definition as YAML
func MarshalScene(def *scene.Definition) ([]byte, error) {
	f := SceneFile{
		Name:       def.Name,
		Background: def.Background.Array(),
		Elements:   def.Scene.Serialize(),
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(f); err != nil {
		return nil, fmt.Errorf("failed to encode scene: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// SaveSceneFile writes a scene definition to disk as YAML
func SaveSceneFile(filename string, def *scene.Definition) error {
	b, err := MarshalScene(def)
	if err != nil {
		return err
	}
	return os.WriteFile(filename, b, 0644)
}
