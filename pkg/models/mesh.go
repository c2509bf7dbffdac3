// Package models provides the scene data model of the soft engine: meshes,
// their vertices and faces, and loaders that build them from files.
package models

import (
	"errors"
	"fmt"

	"github.com/taigrr/softengine/pkg/math3d"
	"github.com/taigrr/softengine/pkg/texture"
)

var (
	// ErrNoMeshes is returned by loaders when a file contains no usable mesh.
	ErrNoMeshes = errors.New("models: no meshes found")
	// ErrUnsupportedFormat is returned for files the loaders cannot read.
	ErrUnsupportedFormat = errors.New("models: unsupported format")
	// ErrBadIndex is returned by Validate for a face that references a
	// vertex out of range.
	ErrBadIndex = errors.New("models: face index out of range")
)

// Vertex holds the object-space attributes of one mesh vertex.
type Vertex struct {
	Coordinates        math3d.Vec3
	Normal             math3d.Vec3
	TextureCoordinates math3d.Vec2
}

// Face is a triangle given by three indices into Mesh.Vertices.
type Face struct {
	A, B, C int
}

// Mesh is a triangle mesh placed in the world by Position and Rotation.
// Rotation holds Euler angles in radians (pitch on X, yaw on Y, roll on Z)
// and is typically advanced by an animation driver between frames.
type Mesh struct {
	Name     string
	Vertices []Vertex
	Faces    []Face
	Position math3d.Vec3
	Rotation math3d.Vec3
	Texture  *texture.Texture // nil renders untextured
}

// NewMesh creates a mesh with zeroed vertex and face arrays of the given sizes.
func NewMesh(name string, vertexCount, faceCount int) *Mesh {
	return &Mesh{
		Name:     name,
		Vertices: make([]Vertex, vertexCount),
		Faces:    make([]Face, faceCount),
	}
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices)
}

// FaceCount returns the number of triangles.
func (m *Mesh) FaceCount() int {
	return len(m.Faces)
}

// Bounds returns the object-space axis-aligned bounding box.
func (m *Mesh) Bounds() (lo, hi math3d.Vec3) {
	if len(m.Vertices) == 0 {
		return
	}
	lo = m.Vertices[0].Coordinates
	hi = lo
	for _, v := range m.Vertices[1:] {
		lo = lo.Min(v.Coordinates)
		hi = hi.Max(v.Coordinates)
	}
	return lo, hi
}

// Center returns the center of the bounding box.
func (m *Mesh) Center() math3d.Vec3 {
	lo, hi := m.Bounds()
	return lo.Add(hi).Scale(0.5)
}

// Size returns the dimensions of the bounding box.
func (m *Mesh) Size() math3d.Vec3 {
	lo, hi := m.Bounds()
	return hi.Sub(lo)
}

// Normalize recenters the mesh on the origin and scales it so its largest
// dimension equals extent. Empty or flat meshes are left unchanged.
func (m *Mesh) Normalize(extent float64) {
	center := m.Center()
	size := m.Size()
	maxDim := max(size.X, size.Y, size.Z)
	if maxDim <= 0 {
		return
	}
	s := extent / maxDim
	for i := range m.Vertices {
		m.Vertices[i].Coordinates = m.Vertices[i].Coordinates.Sub(center).Scale(s)
	}
}

// Validate reports the first face that references a missing vertex.
// The renderer itself never checks indices.
func (m *Mesh) Validate() error {
	n := len(m.Vertices)
	for i, f := range m.Faces {
		if f.A < 0 || f.A >= n || f.B < 0 || f.B >= n || f.C < 0 || f.C >= n {
			return fmt.Errorf("mesh %q face %d {%d %d %d} with %d vertices: %w",
				m.Name, i, f.A, f.B, f.C, n, ErrBadIndex)
		}
	}
	return nil
}

// CalculateSmoothNormals replaces vertex normals with the area-weighted
// average of the adjacent face normals.
func (m *Mesh) CalculateSmoothNormals() {
	for i := range m.Vertices {
		m.Vertices[i].Normal = math3d.Zero3()
	}

	for _, f := range m.Faces {
		v0 := m.Vertices[f.A].Coordinates
		v1 := m.Vertices[f.B].Coordinates
		v2 := m.Vertices[f.C].Coordinates

		// Unnormalized, so larger faces weigh more.
		n := v1.Sub(v0).Cross(v2.Sub(v0))

		m.Vertices[f.A].Normal = m.Vertices[f.A].Normal.Add(n)
		m.Vertices[f.B].Normal = m.Vertices[f.B].Normal.Add(n)
		m.Vertices[f.C].Normal = m.Vertices[f.C].Normal.Add(n)
	}

	for i := range m.Vertices {
		m.Vertices[i].Normal.Normalize()
	}
}
