package render

import (
	"fmt"
	"math"
	"strings"

	"github.com/taigrr/softengine/pkg/math3d"
)

// ShadingMode selects how the lighting term is computed for a triangle.
type ShadingMode int

const (
	// ShadingGouraud lights each vertex and interpolates across the triangle.
	ShadingGouraud ShadingMode = iota
	// ShadingFlat lights the triangle once, at its centroid with the
	// averaged vertex normal.
	ShadingFlat
)

func (m ShadingMode) String() string {
	switch m {
	case ShadingGouraud:
		return "gouraud"
	case ShadingFlat:
		return "flat"
	}
	return fmt.Sprintf("ShadingMode(%d)", int(m))
}

// ParseShadingMode accepts "gouraud" or "flat", case-insensitively.
func ParseShadingMode(s string) (ShadingMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "gouraud", "smooth":
		return ShadingGouraud, nil
	case "flat":
		return ShadingFlat, nil
	}
	return 0, fmt.Errorf("unknown shading mode %q", s)
}

// DefaultLight is the world position of the point light.
var DefaultLight = math3d.V3(0, 10, 10)

// ComputeNDotL returns the Lambert term for a surface point: the cosine of
// the angle between its normal and the direction to the light, floored at
// zero. Neither vector needs to be unit length.
func ComputeNDotL(position, normal, light math3d.Vec3) float64 {
	dir := light.Sub(position)
	normal.Normalize()
	dir.Normalize()
	return math.Max(0, math3d.Dot(normal, dir))
}

// clamp limits v to [0, 1]. NaN passes through unchanged.
func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// interpolate blends lo to hi by gradient clamped to [0, 1].
func interpolate(lo, hi, gradient float64) float64 {
	return lo + (hi-lo)*clamp(gradient)
}
