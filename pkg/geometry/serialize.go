package geometry

import (
	"github.com/df07/go-sphere-raytracer/pkg/core"
	"github.com/df07/go-sphere-raytracer/pkg/material"
)

// MaterialData is the plain-data form of a material
type MaterialData struct {
	SurfaceColor  [3]float64 `json:"surfaceColor" yaml:"surfaceColor"`
	EmissionColor [3]float64 `json:"emissionColor" yaml:"emissionColor"`
	Transparency  float64    `json:"transparency" yaml:"transparency"`
	Reflection    float64    `json:"reflection" yaml:"reflection"`
}

// SphereData is the plain-data form of a sphere. It holds no references and can be
// copied freely across goroutines or written to disk.
type SphereData struct {
	Center   [3]float64   `json:"center" yaml:"center"`
	Radius   float64      `json:"radius" yaml:"radius"`
	Material MaterialData `json:"material" yaml:"material"`
}

// SerializeMaterial converts a material to its plain-data form
func SerializeMaterial(m material.Material) MaterialData {
	return MaterialData{
		SurfaceColor:  m.SurfaceColor.Array(),
		EmissionColor: m.EmissionColor.Array(),
		Transparency:  m.Transparency,
		Reflection:    m.Reflection,
	}
}

// DeserializeMaterial builds a material from its plain-data form
func DeserializeMaterial(d MaterialData) (material.Material, error) {
	return material.New(
		core.Vec3FromArray(d.SurfaceColor),
		d.Reflection,
		d.Transparency,
		core.Vec3FromArray(d.EmissionColor),
	)
}

// Serialize converts the sphere to its plain-data form
func (s *Sphere) Serialize() SphereData {
	return SphereData{
		Center:   s.Center.Array(),
		Radius:   s.radius,
		Material: SerializeMaterial(s.Material),
	}
}

// DeserializeSphere builds a new sphere from its plain-data form
func DeserializeSphere(d SphereData) (*Sphere, error) {
	mat, err := DeserializeMaterial(d.Material)
	if err != nil {
		return nil, err
	}
	return NewSphere(core.Vec3FromArray(d.Center), d.Radius, mat)
}
