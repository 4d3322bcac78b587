package scene

import (
	"fmt"

	"github.com/df07/go-sphere-raytracer/pkg/core"
	"github.com/df07/go-sphere-raytracer/pkg/geometry"
)

// Scene is an ordered collection of primitives.
// Order is significant: the renderer identifies a light by its index when excluding it
// from its own shadow test.
type Scene struct {
	elements []*geometry.Sphere
}

// New creates a scene from the given primitives
func New(elements ...*geometry.Sphere) *Scene {
	s := &Scene{}
	for _, e := range elements {
		s.Add(e)
	}
	return s
}

// Add appends a primitive
func (s *Scene) Add(element *geometry.Sphere) {
	s.elements = append(s.elements, element)
}

// Clear removes every primitive
func (s *Scene) Clear() {
	s.elements = nil
}

// Elements returns the primitives in insertion order
func (s *Scene) Elements() []*geometry.Sphere {
	return s.elements
}

// Len returns the number of primitives
func (s *Scene) Len() int {
	return len(s.elements)
}

// Serialize converts every primitive to plain data, in order
func (s *Scene) Serialize() []geometry.SphereData {
	data := make([]geometry.SphereData, len(s.elements))
	for i, e := range s.elements {
		data[i] = e.Serialize()
	}
	return data
}

// FromData builds a scene from serialized primitives
func FromData(data []geometry.SphereData) (*Scene, error) {
	s := &Scene{}
	if err := s.Load(data); err != nil {
		return nil, err
	}
	return s, nil
}

// Load replaces the contents of the scene with the serialized primitives.
// On error the scene is left unchanged.
func (s *Scene) Load(data []geometry.SphereData) error {
	elements := make([]*geometry.Sphere, 0, len(data))
	for i, d := range data {
		sphere, err := geometry.DeserializeSphere(d)
		if err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
		elements = append(elements, sphere)
	}
	s.elements = elements
	return nil
}

// Definition pairs a scene with the background color it is rendered against
type Definition struct {
	Name       string
	Scene      *Scene
	Background core.Vec3
}
