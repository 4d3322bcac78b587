package renderer

import (
	"errors"
	"fmt"

	"github.com/df07/go-sphere-raytracer/pkg/core"
	"github.com/df07/go-sphere-raytracer/pkg/scene"
)

const (
	// MaxRayDepth bounds secondary bounces. Trace computes direct lighting only, so the
	// limit is not consulted yet.
	MaxRayDepth = 1
	// Infinity is the initial nearest-hit distance; anything farther is never hit
	Infinity = 1e8
	// ShadowBias offsets shadow ray origins along the normal to avoid self-intersection
	ShadowBias = 1e-4
)

// ErrInvalidDimensions is returned for render requests outside the image
var ErrInvalidDimensions = errors.New("invalid render dimensions")

// RayTracer shades rays against a scene using direct lighting from emissive spheres.
// It keeps no per-render state and can be invoked repeatedly; nothing is cached
// between renders.
type RayTracer struct {
	scene      *scene.Scene
	background core.Vec3
}

// NewRayTracer creates a ray tracer for the scene
func NewRayTracer(background core.Vec3, s *scene.Scene) *RayTracer {
	return &RayTracer{scene: s, background: background}
}

// Background returns the color seen by rays that hit nothing
func (rt *RayTracer) Background() core.Vec3 {
	return rt.background
}

// Intersect returns the index of the nearest primitive along the ray and the distance
// to it, or -1 on a miss. rayDir must be unit length.
func (rt *RayTracer) Intersect(rayOrigin, rayDir core.Vec3) (index int, distance float64) {
	tnear := Infinity
	nearest := -1
	for i, el := range rt.scene.Elements() {
		hit, ok := el.Intersect(rayOrigin, rayDir)
		if !ok {
			continue
		}
		t0 := hit.T0
		if t0 < 0 {
			t0 = hit.T1
		}
		if t0 < tnear {
			tnear = t0
			nearest = i
		}
	}
	return nearest, tnear
}

// Trace returns the unclamped color seen along a ray. rayDir must be unit length.
// depth is reserved for multi-bounce shading and currently ignored.
func (rt *RayTracer) Trace(rayOrigin, rayDir core.Vec3, depth int) core.Vec3 {
	nearest, tnear := rt.Intersect(rayOrigin, rayDir)
	if nearest < 0 {
		return rt.background
	}

	elements := rt.scene.Elements()
	element := elements[nearest]
	mat := element.Material
	point := rayOrigin.Add(rayDir.Multiply(tnear))
	normal := element.Normal(point)
	if rayDir.Dot(normal) > 0 {
		// Leaving the sphere from inside
		normal = normal.Negate()
	}
	shadowOrigin := point.Add(normal.Multiply(ShadowBias))

	surfaceColor := core.Vec3{}
	for i, light := range elements {
		lightMat := light.Material
		if !lightMat.IsEmissive() {
			continue
		}

		transmission := core.NewVec3(1, 1, 1)
		lightDir := light.Center.Subtract(point).Normalize()
		for j, other := range elements {
			if i == j {
				continue
			}
			if _, blocked := other.Intersect(shadowOrigin, lightDir); blocked {
				transmission = core.Vec3{}
				break
			}
		}

		lightRatio := max(0, normal.Dot(lightDir))
		surfaceColor = surfaceColor.Add(
			mat.SurfaceColor.MultiplyVec(transmission).MultiplyVec(lightMat.EmissionColor.Multiply(lightRatio)))
	}

	return surfaceColor.Add(mat.EmissionColor)
}

// Render renders the full image into a packed pixel buffer
func (rt *RayTracer) Render(width, height int) ([]byte, error) {
	return rt.RenderRows(width, height, 0, height)
}

// RenderRows renders rowCount rows starting at startRow of a width x height image.
// The returned buffer holds width*rowCount pixels, 4 bytes each in R,G,B,A order.
func (rt *RayTracer) RenderRows(width, height, startRow, rowCount int) ([]byte, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%dx%d: %w", width, height, ErrInvalidDimensions)
	}
	if startRow < 0 || rowCount < 0 || startRow+rowCount > height {
		return nil, fmt.Errorf("rows [%d,%d) of %d: %w", startRow, startRow+rowCount, height, ErrInvalidDimensions)
	}

	buffer := make([]byte, width*rowCount*BytesPerPixel)
	camera := NewCamera(width, height)
	origin := camera.Origin()

	pixelIndex := 0
	for y := startRow; y < startRow+rowCount; y++ {
		for x := 0; x < width; x++ {
			color := rt.Trace(origin, camera.Direction(x, y), 0)
			putPixel(buffer, pixelIndex, color)
			pixelIndex++
		}
	}

	return buffer, nil
}
