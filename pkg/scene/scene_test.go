package scene

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/df07/go-sphere-raytracer/pkg/core"
	"github.com/df07/go-sphere-raytracer/pkg/geometry"
	"github.com/df07/go-sphere-raytracer/pkg/material"
)

func sphereAt(z float64) *geometry.Sphere {
	return geometry.MustNewSphere(core.NewVec3(0, 0, z), 1, material.MustNew(core.NewVec3(1, 1, 1), 0, 0, core.Vec3{}))
}

func TestScene_AddPreservesOrder(t *testing.T) {
	s := New()
	a, b, c := sphereAt(-1), sphereAt(-2), sphereAt(-3)
	s.Add(a)
	s.Add(b)
	s.Add(c)

	require.Equal(t, 3, s.Len())
	assert.Same(t, a, s.Elements()[0])
	assert.Same(t, b, s.Elements()[1])
	assert.Same(t, c, s.Elements()[2])
}

func TestScene_AllowsDuplicates(t *testing.T) {
	a := sphereAt(-1)
	s := New(a, a)
	assert.Equal(t, 2, s.Len())
}

func TestScene_Clear(t *testing.T) {
	s := New(sphereAt(-1), sphereAt(-2))
	s.Clear()
	assert.Equal(t, 0, s.Len())
	assert.Empty(t, s.Elements())
}

func TestScene_SerializeLoadRoundTrip(t *testing.T) {
	def := NewDefaultScene()
	data := def.Scene.Serialize()
	require.Len(t, data, def.Scene.Len())

	restored, err := FromData(data)
	require.NoError(t, err)
	require.Equal(t, def.Scene.Len(), restored.Len())

	for i, e := range def.Scene.Elements() {
		r := restored.Elements()[i]
		assert.NotSame(t, e, r)
		assert.Equal(t, e.Center, r.Center)
		assert.Equal(t, e.Radius(), r.Radius())
		assert.True(t, e.Material.Equal(r.Material))
	}
}

func TestScene_LoadErrorLeavesSceneUnchanged(t *testing.T) {
	s := New(sphereAt(-1))
	err := s.Load([]geometry.SphereData{{Radius: 1}, {Radius: 0}})
	assert.ErrorIs(t, err, geometry.ErrInvalidRadius)
	assert.Contains(t, err.Error(), "element 1")
	assert.Equal(t, 1, s.Len())
}

func TestNewDefaultScene(t *testing.T) {
	def := NewDefaultScene()
	require.Equal(t, 4, def.Scene.Len())
	assert.Equal(t, core.NewVec3(0.7, 0.8, 0.9), def.Background)

	emissive := 0
	for _, e := range def.Scene.Elements() {
		if e.Material.IsEmissive() {
			emissive++
		}
	}
	// The subject sphere glows red as well as the two lights
	assert.Equal(t, 3, emissive)

	subject := def.Scene.Elements()[DefaultSubjectIndex]
	assert.Equal(t, core.NewVec3(0, -1, -20), subject.Center)
}

func TestCreate(t *testing.T) {
	tests := []struct {
		name        string
		sceneName   string
		expectError bool
	}{
		{"default scene", "default", false},
		{"single light scene", "single", false},
		{"empty scene", "empty", false},
		{"sphere grid scene", "grid", false},
		{"unknown scene", "cornell", true},
		{"empty name", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def, err := Create(tt.sceneName)
			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, def)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.sceneName, def.Name)
			assert.NotNil(t, def.Scene)
		})
	}
}

func TestCreate_ReturnsIndependentScenes(t *testing.T) {
	a, err := Create("default")
	require.NoError(t, err)
	b, err := Create("default")
	require.NoError(t, err)

	a.Scene.Elements()[0].Material.SurfaceColor = core.NewVec3(1, 0, 0)
	assert.Equal(t, core.NewVec3(0.2, 0.2, 0.2), b.Scene.Elements()[0].Material.SurfaceColor)
}

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"default", "empty", "grid", "single"}, Names())
}
