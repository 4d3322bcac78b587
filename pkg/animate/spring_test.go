package animate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/df07/go-sphere-raytracer/pkg/core"
	"github.com/df07/go-sphere-raytracer/pkg/material"
)

func runToRest(t *testing.T, s *MaterialSpring) (material.Material, int) {
	t.Helper()
	for i := 1; i <= 1000; i++ {
		if m, done := s.Step(); done {
			return m, i
		}
	}
	require.FailNow(t, "spring never settled")
	return material.Material{}, 0
}

func TestMaterialSpring_StartsSettled(t *testing.T) {
	start := material.MustNew(core.NewVec3(0.1, 0.2, 0.3), 0.4, 0.5, core.NewVec3(0.6, 0.7, 0.8))
	s := NewMaterialSpring(start)

	assert.True(t, s.Settled())
	m, done := s.Step()
	assert.True(t, done)
	assert.True(t, start.Equal(m))
	assert.True(t, start.Equal(s.Target()))
}

func TestMaterialSpring_ReachesTarget(t *testing.T) {
	start := material.MustNew(core.NewVec3(0, 0, 0), 0, 0, core.Vec3{})
	target := material.MustNew(core.NewVec3(0.2, 0.4, 1), 0.5, 0.25, core.NewVec3(1, 0, 0))

	s := NewMaterialSpring(start)
	s.SetTarget(target)
	assert.False(t, s.Settled())

	first, done := s.Step()
	assert.False(t, done)
	assert.Greater(t, first.SurfaceColor.Z, 0.0, "first step moves toward the target")
	assert.Less(t, first.SurfaceColor.Z, 1.0)

	final, steps := runToRest(t, s)
	assert.Greater(t, steps, 1)
	assert.True(t, target.Equal(final), "settles exactly on the target")
	assert.True(t, s.Settled())
}

func TestMaterialSpring_CriticallyDampedDoesNotOvershoot(t *testing.T) {
	s := NewMaterialSpring(material.Material{})
	s.SetTarget(material.Material{Reflection: 1})

	for i := 0; i < 1000; i++ {
		m, done := s.Step()
		assert.LessOrEqual(t, m.Reflection, 1.0+1e-9)
		if done {
			break
		}
	}
}

func TestMaterialSpring_Retarget(t *testing.T) {
	s := NewMaterialSpring(material.Material{})
	s.SetTarget(material.Material{Transparency: 1})
	for i := 0; i < 3; i++ {
		s.Step()
	}

	back := material.Material{Transparency: 0.5}
	s.SetTarget(back)
	final, _ := runToRest(t, s)
	assert.True(t, back.Equal(final))
}
