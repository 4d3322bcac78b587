package loaders

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/qmuntal/gltf"

	"github.com/df07/go-sphere-raytracer/pkg/core"
	"github.com/df07/go-sphere-raytracer/pkg/geometry"
	"github.com/df07/go-sphere-raytracer/pkg/material"
	"github.com/df07/go-sphere-raytracer/pkg/scene"
)

// ErrNoSpheres is returned for a glTF document with no mesh nodes
var ErrNoSpheres = errors.New("gltf document has no mesh nodes")

// defaultGLTFMaterial is used for meshes without a material
var defaultGLTFMaterial = material.MustNew(core.NewVec3(1, 1, 1), 0, 0, core.Vec3{})

// LoadGLTF imports a .gltf or .glb file as a sphere scene
func LoadGLTF(filename string) (*scene.Definition, error) {
	doc, err := gltf.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open gltf: %w", err)
	}

	def, err := FromGLTFDocument(doc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	base := filepath.Base(filename)
	def.Name = strings.TrimSuffix(base, filepath.Ext(base))
	return def, nil
}

// FromGLTFDocument approximates every mesh node with a sphere.
// The sphere sits at the node translation with a radius of the largest scale component.
// Node transforms are not composed with their parents.
func FromGLTFDocument(doc *gltf.Document) (*scene.Definition, error) {
	s := scene.New()
	for i, node := range doc.Nodes {
		if node.Mesh == nil {
			continue
		}
		if *node.Mesh < 0 || *node.Mesh >= len(doc.Meshes) {
			return nil, fmt.Errorf("node %d: mesh index %d out of range", i, *node.Mesh)
		}

		mat, err := meshMaterial(doc, doc.Meshes[*node.Mesh])
		if err != nil {
			return nil, fmt.Errorf("node %d: %w", i, err)
		}

		t := node.TranslationOrDefault()
		scale := node.ScaleOrDefault()
		radius := math.Max(math.Abs(scale[0]), math.Max(math.Abs(scale[1]), math.Abs(scale[2])))

		sphere, err := geometry.NewSphere(core.NewVec3(t[0], t[1], t[2]), radius, mat)
		if err != nil {
			return nil, fmt.Errorf("node %d (%s): %w", i, node.Name, err)
		}
		s.Add(sphere)
	}

	if s.Len() == 0 {
		return nil, ErrNoSpheres
	}
	return &scene.Definition{Scene: s, Background: scene.DefaultBackground}, nil
}

// meshMaterial converts the material of the first primitive that has one
func meshMaterial(doc *gltf.Document, mesh *gltf.Mesh) (material.Material, error) {
	for _, prim := range mesh.Primitives {
		if prim.Material == nil {
			continue
		}
		if *prim.Material < 0 || *prim.Material >= len(doc.Materials) {
			return material.Material{}, fmt.Errorf("material index %d out of range", *prim.Material)
		}
		return convertMaterial(doc.Materials[*prim.Material])
	}
	return defaultGLTFMaterial, nil
}

// convertMaterial maps metallic-roughness PBR onto the renderer's material:
// base color rgb is the surface color, 1-alpha is transparency, metallic is reflection.
func convertMaterial(m *gltf.Material) (material.Material, error) {
	base := [4]float64{1, 1, 1, 1}
	metallic := 0.0
	if pbr := m.PBRMetallicRoughness; pbr != nil {
		base = pbr.BaseColorFactorOrDefault()
		metallic = pbr.MetallicFactorOrDefault()
	}

	return material.New(
		core.NewVec3(base[0], base[1], base[2]),
		metallic,
		1-base[3],
		core.Vec3FromArray(m.EmissiveFactor),
	)
}
