package scene

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/taigrr/softengine/pkg/math3d"
)

// ParseColor accepts "#rrggbb" / "#rgb" hex or "R,G,B" decimal triples and
// returns an opaque color.
func ParseColor(s string) (color.RGBA, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "#") {
		c, err := colorful.Hex(s)
		if err != nil {
			return color.RGBA{}, fmt.Errorf("parse color %q: %w", s, err)
		}
		r, g, b := c.RGB255()
		return color.RGBA{r, g, b, 255}, nil
	}

	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return color.RGBA{}, fmt.Errorf("parse color %q: want #rrggbb or R,G,B", s)
	}
	var rgb [3]uint8
	for i, p := range parts {
		v, err := strconv.ParseUint(strings.TrimSpace(p), 10, 8)
		if err != nil {
			return color.RGBA{}, fmt.Errorf("parse color %q: %w", s, err)
		}
		rgb[i] = uint8(v)
	}
	return color.RGBA{rgb[0], rgb[1], rgb[2], 255}, nil
}

// ParseVec3 parses an "X,Y,Z" triple such as a light position.
func ParseVec3(s string) (math3d.Vec3, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return math3d.Vec3{}, fmt.Errorf("parse vector %q: want X,Y,Z", s)
	}
	var xyz [3]float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return math3d.Vec3{}, fmt.Errorf("parse vector %q: %w", s, err)
		}
		xyz[i] = v
	}
	v := math3d.V3(xyz[0], xyz[1], xyz[2])
	if !v.IsFinite() {
		return math3d.Vec3{}, fmt.Errorf("parse vector %q: not finite", s)
	}
	return v, nil
}
