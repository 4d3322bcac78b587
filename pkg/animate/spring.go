// Package animate eases material edits toward their target over several frames
package animate

import (
	"math"

	"github.com/charmbracelet/harmonica"

	"github.com/df07/go-sphere-raytracer/pkg/core"
	"github.com/df07/go-sphere-raytracer/pkg/material"
)

const (
	// DefaultFPS is the frame rate assumed when stepping a spring
	DefaultFPS = 30
	// DefaultFrequency controls how fast the material approaches its target
	DefaultFrequency = 6.0
	// DefaultDamping of 1 is critically damped: no overshoot
	DefaultDamping = 1.0
	// settleEpsilon is how close position and velocity must be before snapping to target
	settleEpsilon = 1e-3
)

// channel is one animated scalar
type channel struct {
	pos, vel float64
}

// MaterialSpring moves every component of a material toward a target using a damped spring
type MaterialSpring struct {
	spring   harmonica.Spring
	channels [8]channel
	target   [8]float64
	settled  bool
}

// NewMaterialSpring starts a spring at current with the default tuning
func NewMaterialSpring(current material.Material) *MaterialSpring {
	return NewMaterialSpringWith(current, DefaultFPS, DefaultFrequency, DefaultDamping)
}

// NewMaterialSpringWith starts a spring at current with explicit tuning
func NewMaterialSpringWith(current material.Material, fps int, frequency, damping float64) *MaterialSpring {
	s := &MaterialSpring{
		spring:  harmonica.NewSpring(harmonica.FPS(fps), frequency, damping),
		settled: true,
	}
	values := flatten(current)
	for i, v := range values {
		s.channels[i].pos = v
	}
	s.target = values
	return s
}

// SetTarget retargets the spring. Velocity is kept so retargeting mid-flight stays smooth.
func (s *MaterialSpring) SetTarget(target material.Material) {
	s.target = flatten(target)
	s.settled = false
}

// Target returns the material the spring is moving toward
func (s *MaterialSpring) Target() material.Material {
	return unflatten(s.target)
}

// Current returns the material at the current position
func (s *MaterialSpring) Current() material.Material {
	var values [8]float64
	for i, c := range s.channels {
		values[i] = c.pos
	}
	return unflatten(values)
}

// Settled reports whether the spring has reached its target
func (s *MaterialSpring) Settled() bool {
	return s.settled
}

// Step advances one frame and returns the new material. done is true once the material
// has reached the target, at which point it equals the target exactly.
func (s *MaterialSpring) Step() (m material.Material, done bool) {
	if s.settled {
		return s.Current(), true
	}

	settled := true
	for i := range s.channels {
		c := &s.channels[i]
		c.pos, c.vel = s.spring.Update(c.pos, c.vel, s.target[i])
		if math.Abs(c.pos-s.target[i]) > settleEpsilon || math.Abs(c.vel) > settleEpsilon {
			settled = false
		}
	}

	if settled {
		for i := range s.channels {
			s.channels[i] = channel{pos: s.target[i]}
		}
		s.settled = true
	}
	return s.Current(), s.settled
}

func flatten(m material.Material) [8]float64 {
	return [8]float64{
		m.SurfaceColor.X, m.SurfaceColor.Y, m.SurfaceColor.Z,
		m.Reflection, m.Transparency,
		m.EmissionColor.X, m.EmissionColor.Y, m.EmissionColor.Z,
	}
}

func unflatten(v [8]float64) material.Material {
	return material.Material{
		SurfaceColor:  core.NewVec3(v[0], v[1], v[2]),
		Reflection:    v[3],
		Transparency:  v[4],
		EmissionColor: core.NewVec3(v[5], v[6], v[7]),
	}
}
