package scene

import (
	"fmt"
	"sort"

	"github.com/df07/go-sphere-raytracer/pkg/core"
	"github.com/df07/go-sphere-raytracer/pkg/geometry"
	"github.com/df07/go-sphere-raytracer/pkg/material"
)

// DefaultBackground is the sky color used by the built-in scenes
var DefaultBackground = core.NewVec3(0.7, 0.8, 0.9)

// Index of the editable sphere in the default scene
const DefaultSubjectIndex = 1

// NewDefaultScene creates the preview scene: a huge ground sphere, one colored subject
// sphere and two lights
func NewDefaultScene() *Definition {
	s := New(
		// ground
		geometry.MustNewSphere(core.NewVec3(10.0, -10004, -20), 10000,
			material.MustNew(core.NewVec3(0.2, 0.2, 0.2), 0.5, 0, core.Vec3{})),
		// subject
		geometry.MustNewSphere(core.NewVec3(0, -1, -20), 3,
			material.MustNew(core.NewVec3(0.100, 0.32, 0.936), 0.1, 0.05, core.NewVec3(0.8, 0, 0))),
		// lights
		geometry.MustNewSphere(core.NewVec3(0, 20, -30), 3,
			material.MustNew(core.NewVec3(0, -20, 0), 0, 0, core.NewVec3(1.2, 1.2, 1.2))),
		geometry.MustNewSphere(core.NewVec3(10, 20, 10), 3,
			material.MustNew(core.Vec3{}, 0, 0, core.NewVec3(1, 1, 1))),
	)

	return &Definition{Name: "default", Scene: s, Background: DefaultBackground}
}

// NewSingleLightScene creates a diffuse sphere lit from above and in front by one white light
func NewSingleLightScene() *Definition {
	s := New(
		geometry.MustNewSphere(core.NewVec3(0, 0, -20), 3,
			material.MustNew(core.NewVec3(0.8, 0.8, 0.8), 0, 0, core.Vec3{})),
		geometry.MustNewSphere(core.NewVec3(0, 20, -5), 2,
			material.MustNew(core.Vec3{}, 0, 0, core.NewVec3(1, 1, 1))),
	)
	return &Definition{Name: "single", Scene: s, Background: core.Vec3{}}
}

// NewEmptyScene creates a scene with no primitives
func NewEmptyScene() *Definition {
	return &Definition{Name: "empty", Scene: New(), Background: DefaultBackground}
}

var builtins = map[string]func() *Definition{
	"default": NewDefaultScene,
	"single":  NewSingleLightScene,
	"empty":   NewEmptyScene,
	"grid":    NewSphereGridScene,
}

// Create returns a fresh copy of the named built-in scene
func Create(name string) (*Definition, error) {
	build, ok := builtins[name]
	if !ok {
		return nil, fmt.Errorf("unknown scene %q (available: %v)", name, Names())
	}
	return build(), nil
}

// Names lists the built-in scenes in sorted order
func Names() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
