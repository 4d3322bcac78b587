package material

import (
	"errors"
	"fmt"
	"math"

	"github.com/df07/go-sphere-raytracer/pkg/core"
)

var (
	// ErrNonFinite is returned when a material component is NaN or infinite
	ErrNonFinite = errors.New("material value is not finite")
	// ErrOutOfUnitRange is returned by the editor-facing validation for values outside [0,1]
	ErrOutOfUnitRange = errors.New("material value outside [0,1]")
)

// Material bundles the surface and light properties of a primitive.
// Materials are compared by value; identity carries no meaning.
type Material struct {
	SurfaceColor  core.Vec3 // Diffuse color
	Reflection    float64   // Reflection coefficient
	Transparency  float64   // Transparency coefficient
	EmissionColor core.Vec3 // Emitted light; any positive component makes this a light source
}

// New creates a material, rejecting non-finite components.
// Range is deliberately not checked here: negative surface colors and emission above 1
// are valid scene input.
func New(surfaceColor core.Vec3, reflection, transparency float64, emissionColor core.Vec3) (Material, error) {
	m := Material{
		SurfaceColor:  surfaceColor,
		Reflection:    reflection,
		Transparency:  transparency,
		EmissionColor: emissionColor,
	}
	if err := m.CheckFinite(); err != nil {
		return Material{}, err
	}
	return m, nil
}

// MustNew is New for materials known at compile time
func MustNew(surfaceColor core.Vec3, reflection, transparency float64, emissionColor core.Vec3) Material {
	m, err := New(surfaceColor, reflection, transparency, emissionColor)
	if err != nil {
		panic(err)
	}
	return m
}

// CheckFinite returns ErrNonFinite if any component is NaN or infinite
func (m Material) CheckFinite() error {
	switch {
	case !m.SurfaceColor.IsFinite():
		return fmt.Errorf("surfaceColor %v: %w", m.SurfaceColor, ErrNonFinite)
	case !m.EmissionColor.IsFinite():
		return fmt.Errorf("emissionColor %v: %w", m.EmissionColor, ErrNonFinite)
	case math.IsNaN(m.Reflection) || math.IsInf(m.Reflection, 0):
		return fmt.Errorf("reflection %v: %w", m.Reflection, ErrNonFinite)
	case math.IsNaN(m.Transparency) || math.IsInf(m.Transparency, 0):
		return fmt.Errorf("transparency %v: %w", m.Transparency, ErrNonFinite)
	}
	return nil
}

// IsEmissive reports whether the material acts as a light source
func (m Material) IsEmissive() bool {
	return m.EmissionColor.AnyPositive()
}

// Equal reports field equality
func (m Material) Equal(other Material) bool {
	return m.SurfaceColor.Equals(other.SurfaceColor) &&
		m.Reflection == other.Reflection &&
		m.Transparency == other.Transparency &&
		m.EmissionColor.Equals(other.EmissionColor)
}

// Validate applies the editor rule that every editable value sits in [0,1].
// The renderer never calls this; it is for surfaces that accept user edits.
func (m Material) Validate() error {
	if err := m.CheckFinite(); err != nil {
		return err
	}
	checks := []struct {
		name  string
		value float64
	}{
		{"surfaceColor.r", m.SurfaceColor.X},
		{"surfaceColor.g", m.SurfaceColor.Y},
		{"surfaceColor.b", m.SurfaceColor.Z},
		{"reflection", m.Reflection},
		{"transparency", m.Transparency},
		{"emissionColor.r", m.EmissionColor.X},
		{"emissionColor.g", m.EmissionColor.Y},
		{"emissionColor.b", m.EmissionColor.Z},
	}
	for _, c := range checks {
		if err := ValidateUnit(c.name, c.value); err != nil {
			return err
		}
	}
	return nil
}

// ValidateUnit returns an error unless v is a finite value in [0,1]
func ValidateUnit(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%s: %w", name, ErrNonFinite)
	}
	if v < 0 || v > 1 {
		return fmt.Errorf("%s=%g: %w", name, v, ErrOutOfUnitRange)
	}
	return nil
}
