package renderer

import (
	"math"

	"github.com/df07/go-sphere-raytracer/pkg/core"
)

// FieldOfView is the vertical field of view in degrees
const FieldOfView = 30.0

// Camera is a fixed pinhole camera at the origin looking down -Z
type Camera struct {
	origin      core.Vec3
	invWidth    float64
	invHeight   float64
	angle       float64 // tan(fov/2)
	aspectRatio float64
}

// NewCamera creates a camera for an image of the given size
func NewCamera(width, height int) *Camera {
	return &Camera{
		origin:      core.NewVec3(0, 0, 0),
		invWidth:    1 / float64(width),
		invHeight:   1 / float64(height),
		angle:       math.Tan(math.Pi * 0.5 * FieldOfView / 180),
		aspectRatio: float64(width) / float64(height),
	}
}

// Origin returns the eye position
func (c *Camera) Origin() core.Vec3 {
	return c.origin
}

// Direction returns the unit ray direction through the center of pixel (x, y).
// y grows downwards, so row 0 is the top of the image.
func (c *Camera) Direction(x, y int) core.Vec3 {
	xx := (2*((float64(x)+0.5)*c.invWidth) - 1) * c.angle * c.aspectRatio
	yy := (1 - 2*((float64(y)+0.5)*c.invHeight)) * c.angle
	return core.NewVec3(xx, yy, -1).Normalize()
}
