package geometry

import (
	"errors"
	"fmt"
	"math"

	"github.com/df07/go-sphere-raytracer/pkg/core"
	"github.com/df07/go-sphere-raytracer/pkg/material"
)

var (
	// ErrInvalidRadius is returned for non-positive or non-finite radii
	ErrInvalidRadius = errors.New("sphere radius must be positive and finite")
	// ErrInvalidCenter is returned for a center with non-finite components
	ErrInvalidCenter = errors.New("sphere center must be finite")
)

// Hit holds the two ray parameters where a ray crosses a sphere
type Hit struct {
	T0 float64 // Near intersection
	T1 float64 // Far intersection
}

// Sphere represents a sphere primitive
type Sphere struct {
	Center   core.Vec3
	Material material.Material

	radius  float64
	radius2 float64 // radius², kept in sync by SetRadius
}

// NewSphere creates a new sphere
func NewSphere(center core.Vec3, radius float64, mat material.Material) (*Sphere, error) {
	if !center.IsFinite() {
		return nil, fmt.Errorf("center %v: %w", center, ErrInvalidCenter)
	}
	if err := mat.CheckFinite(); err != nil {
		return nil, err
	}
	s := &Sphere{Center: center, Material: mat}
	if err := s.SetRadius(radius); err != nil {
		return nil, err
	}
	return s, nil
}

// MustNewSphere is NewSphere for spheres known at compile time
func MustNewSphere(center core.Vec3, radius float64, mat material.Material) *Sphere {
	s, err := NewSphere(center, radius, mat)
	if err != nil {
		panic(err)
	}
	return s
}

// Radius returns the sphere radius
func (s *Sphere) Radius() float64 {
	return s.radius
}

// Radius2 returns the precomputed squared radius
func (s *Sphere) Radius2() float64 {
	return s.radius2
}

// SetRadius changes the radius and recomputes the squared radius
func (s *Sphere) SetRadius(radius float64) error {
	if !(radius > 0) || math.IsInf(radius, 0) {
		return fmt.Errorf("radius %v: %w", radius, ErrInvalidRadius)
	}
	s.radius = radius
	s.radius2 = radius * radius
	return nil
}

// SetMaterial replaces the material in place
func (s *Sphere) SetMaterial(mat material.Material) {
	s.Material = mat
}

// Intersect tests a ray against the sphere. rayDir must be unit length.
//
// Spheres whose center lies behind the ray origin are rejected outright, even when the
// origin is inside the sphere. Rendered output depends on this, so it is kept as is.
func (s *Sphere) Intersect(rayOrigin, rayDir core.Vec3) (Hit, bool) {
	l := s.Center.Subtract(rayOrigin)
	tca := l.Dot(rayDir)
	if tca < 0 {
		return Hit{}, false
	}

	d2 := l.Dot(l) - tca*tca
	if d2 > s.radius2 {
		return Hit{}, false
	}

	thc := math.Sqrt(s.radius2 - d2)
	return Hit{T0: tca - thc, T1: tca + thc}, true
}

// Normal returns the unit surface normal at point.
// A point at the exact center yields the zero vector.
func (s *Sphere) Normal(point core.Vec3) core.Vec3 {
	return point.Subtract(s.Center).Normalize()
}
