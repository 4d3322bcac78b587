package scene

import (
	"math"

	"github.com/df07/go-sphere-raytracer/pkg/core"
	"github.com/df07/go-sphere-raytracer/pkg/geometry"
	"github.com/df07/go-sphere-raytracer/pkg/material"
)

// Sphere grid layout
const (
	gridColumns = 5
	gridRows    = 3
	gridSpacing = 3.0
	gridRadius  = 1.2
	gridDepth   = -30.0
)

// oklchToRGB converts OKLCH color values to RGB
// L: lightness (0-1), C: chroma (0-0.4+), H: hue (0-360 degrees)
func oklchToRGB(l, c, h float64) core.Vec3 {
	hRad := h * math.Pi / 180.0

	// OKLCH to OKLAB
	a := c * math.Cos(hRad)
	b := c * math.Sin(hRad)

	// OKLAB to LMS
	l_ := l + 0.3963377774*a + 0.2158037573*b
	m_ := l - 0.1055613458*a - 0.0638541728*b
	s_ := l - 0.0894841775*a - 1.2914855480*b

	l_ = l_ * l_ * l_
	m_ = m_ * m_ * m_
	s_ = s_ * s_ * s_

	// LMS to linear RGB
	r := +4.0767416621*l_ - 3.3077115913*m_ + 0.2309699292*s_
	g := -1.2684380046*l_ + 2.6097574011*m_ - 0.3413193965*s_
	blue := -0.0041960863*l_ - 0.7034186147*m_ + 1.7076147010*s_

	return core.NewVec3(r, g, blue).Clamp(0, 1)
}

// NewSphereGridScene creates a grid of rainbow spheres in front of the camera.
// Hue changes along the grid and reflection grows from left to right.
func NewSphereGridScene() *Definition {
	s := New(
		// ground
		geometry.MustNewSphere(core.NewVec3(0, -10006, gridDepth), 10000,
			material.MustNew(core.NewVec3(0.5, 0.5, 0.5), 0, 0, core.Vec3{})),
	)

	originX := -gridSpacing * float64(gridColumns-1) / 2
	originY := -gridSpacing * float64(gridRows-1) / 2
	total := gridColumns * gridRows
	for row := 0; row < gridRows; row++ {
		for col := 0; col < gridColumns; col++ {
			i := row*gridColumns + col
			hue := 360.0 * float64(i) / float64(total)
			center := core.NewVec3(originX+float64(col)*gridSpacing, originY+float64(row)*gridSpacing, gridDepth)
			reflection := float64(col) / float64(gridColumns-1)
			s.Add(geometry.MustNewSphere(center, gridRadius,
				material.MustNew(oklchToRGB(0.7, 0.15, hue), reflection, 0, core.Vec3{})))
		}
	}

	// lights: warm key light high and to the side, dim fill from the left
	s.Add(geometry.MustNewSphere(core.NewVec3(20, 25, 0), 4,
		material.MustNew(core.Vec3{}, 0, 0, core.NewVec3(1, 0.95, 0.85))))
	s.Add(geometry.MustNewSphere(core.NewVec3(-20, 10, -10), 2,
		material.MustNew(core.Vec3{}, 0, 0, core.NewVec3(0.3, 0.3, 0.35))))

	return &Definition{Name: "grid", Scene: s, Background: DefaultBackground}
}
