package models

import "github.com/taigrr/softengine/pkg/math3d"

// NewCube returns the 8-vertex, 12-face unit cube spanning [-1,1] on every
// axis. Each corner's normal points away from the center.
func NewCube(name string) *Mesh {
	m := NewMesh(name, 8, 12)

	corners := [8]math3d.Vec3{
		{X: -1, Y: 1, Z: 1},
		{X: 1, Y: 1, Z: 1},
		{X: -1, Y: -1, Z: 1},
		{X: 1, Y: -1, Z: 1},
		{X: -1, Y: 1, Z: -1},
		{X: 1, Y: 1, Z: -1},
		{X: 1, Y: -1, Z: -1},
		{X: -1, Y: -1, Z: -1},
	}
	for i, c := range corners {
		m.Vertices[i] = Vertex{
			Coordinates: c,
			Normal:      c.Normalized(),
			TextureCoordinates: math3d.V2(
				(c.X+1)/2,
				(1-c.Y)/2,
			),
		}
	}

	copy(m.Faces, []Face{
		{0, 1, 2},
		{1, 2, 3},
		{1, 3, 6},
		{1, 5, 6},
		{0, 1, 4},
		{1, 4, 5},
		{2, 3, 7},
		{3, 6, 7},
		{0, 2, 7},
		{0, 4, 7},
		{4, 5, 6},
		{4, 6, 7},
	})
	return m
}
