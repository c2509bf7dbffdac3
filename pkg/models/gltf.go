package models

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/taigrr/softengine/internal/logging"
	"github.com/taigrr/softengine/pkg/math3d"
	"github.com/taigrr/softengine/pkg/texture"
)

// GLTFLoader loads glTF/GLB files into a single Mesh.
type GLTFLoader struct {
	// CalculateNormals derives smooth normals when the file has none.
	CalculateNormals bool
	// Textures attaches the first decodable image as the mesh texture.
	Textures bool
}

// NewGLTFLoader creates a loader with default options.
func NewGLTFLoader() *GLTFLoader {
	return &GLTFLoader{
		CalculateNormals: true,
		Textures:         true,
	}
}

// LoadGLB loads a glTF or GLB file with the default loader.
func LoadGLB(path string) (*Mesh, error) {
	return NewGLTFLoader().Load(path)
}

// meshInstance is one placement of a glTF mesh in the scene graph.
type meshInstance struct {
	mesh  int
	world math3d.Mat4
}

// Load reads every triangle primitive of every mesh placed in the default
// scene, bakes node transforms into the vertices and merges the result
// into one Mesh.
func (l *GLTFLoader) Load(path string) (*Mesh, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gltf: %w", err)
	}

	instances, err := meshInstances(doc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	mesh := NewMesh(filepath.Base(path), 0, 0)
	for _, inst := range instances {
		m := doc.Meshes[inst.mesh]
		if err := l.processMesh(doc, m, inst.world, mesh); err != nil {
			return nil, fmt.Errorf("process mesh %q: %w", m.Name, err)
		}
	}
	if len(mesh.Faces) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrNoMeshes)
	}
	if err := mesh.Validate(); err != nil {
		return nil, err
	}

	hasNormals := false
	for _, v := range mesh.Vertices {
		if v.Normal.LenSq() > 1e-6 {
			hasNormals = true
			break
		}
	}
	if l.CalculateNormals && !hasNormals {
		mesh.CalculateSmoothNormals()
	}

	if l.Textures {
		img, err := firstImage(doc, filepath.Dir(path))
		switch {
		case err != nil:
			logging.Logger().Warn("gltf texture unusable, rendering untextured",
				"path", path, "err", err)
		case img != nil:
			mesh.Texture = texture.FromImage(mesh.Name, img)
		}
	}

	return mesh, nil
}

// meshInstances walks the default scene (or the first one) and returns
// every mesh reference with its node's world matrix. Documents without
// scenes use their root nodes, and documents without nodes place each mesh
// once at the origin.
func meshInstances(doc *gltf.Document) ([]meshInstance, error) {
	if len(doc.Nodes) == 0 {
		out := make([]meshInstance, len(doc.Meshes))
		for i := range doc.Meshes {
			out[i] = meshInstance{mesh: i, world: math3d.Identity()}
		}
		return out, nil
	}

	var roots []int
	switch {
	case doc.Scene != nil && *doc.Scene >= 0 && *doc.Scene < len(doc.Scenes):
		roots = doc.Scenes[*doc.Scene].Nodes
	case len(doc.Scenes) > 0:
		roots = doc.Scenes[0].Nodes
	default:
		child := make([]bool, len(doc.Nodes))
		for _, n := range doc.Nodes {
			for _, c := range n.Children {
				if c >= 0 && c < len(child) {
					child[c] = true
				}
			}
		}
		for i, isChild := range child {
			if !isChild {
				roots = append(roots, i)
			}
		}
	}

	var out []meshInstance
	visited := make([]bool, len(doc.Nodes))
	var walk func(idx int, parent math3d.Mat4) error
	walk = func(idx int, parent math3d.Mat4) error {
		if idx < 0 || idx >= len(doc.Nodes) {
			return fmt.Errorf("node %d out of range", idx)
		}
		if visited[idx] {
			return fmt.Errorf("node %d reached twice", idx)
		}
		visited[idx] = true

		n := doc.Nodes[idx]
		world := nodeMatrix(n).Mul(parent)
		if n.Mesh != nil {
			if *n.Mesh < 0 || *n.Mesh >= len(doc.Meshes) {
				return fmt.Errorf("node %d: mesh %d out of range", idx, *n.Mesh)
			}
			out = append(out, meshInstance{mesh: *n.Mesh, world: world})
		}
		for _, c := range n.Children {
			if err := walk(c, world); err != nil {
				return err
			}
		}
		return nil
	}
	for _, r := range roots {
		if err := walk(r, math3d.Identity()); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// nodeMatrix returns the local transform of n. glTF stores column-major
// matrices for column vectors, which is the same memory layout as a
// row-major Mat4 applied to row vectors.
func nodeMatrix(n *gltf.Node) math3d.Mat4 {
	if m := n.MatrixOrDefault(); m != gltf.DefaultMatrix {
		return math3d.Mat4(m)
	}
	s := n.ScaleOrDefault()
	r := n.RotationOrDefault()
	t := n.TranslationOrDefault()
	return math3d.Scaling(s[0], s[1], s[2]).
		Mul(math3d.RotationQuaternion(r[0], r[1], r[2], r[3])).
		Mul(math3d.Translation(t[0], t[1], t[2]))
}

// processMesh appends the geometry of one glTF mesh placed by world.
func (l *GLTFLoader) processMesh(doc *gltf.Document, m *gltf.Mesh, world math3d.Mat4, mesh *Mesh) error {
	for _, prim := range m.Primitives {
		if prim.Mode != gltf.PrimitiveTriangles {
			continue
		}

		posIdx, ok := prim.Attributes[gltf.POSITION]
		if !ok {
			continue
		}
		acc, err := accessor(doc, posIdx)
		if err != nil {
			return fmt.Errorf("read positions: %w", err)
		}
		positions, err := modeler.ReadPosition(doc, acc, nil)
		if err != nil {
			return fmt.Errorf("read positions: %w", err)
		}

		var normals [][3]float32
		if normIdx, ok := prim.Attributes[gltf.NORMAL]; ok {
			if acc, err = accessor(doc, normIdx); err == nil {
				normals, err = modeler.ReadNormal(doc, acc, nil)
			}
			if err != nil {
				return fmt.Errorf("read normals: %w", err)
			}
		}

		// Integer UVs are denormalized to [0,1] by the reader.
		var uvs [][2]float32
		if uvIdx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
			if acc, err = accessor(doc, uvIdx); err == nil {
				uvs, err = modeler.ReadTextureCoord(doc, acc, nil)
			}
			if err != nil {
				return fmt.Errorf("read uvs: %w", err)
			}
		}

		base := len(mesh.Vertices)
		for i, p := range positions {
			v := Vertex{Coordinates: math3d.TransformCoordinates(vec3(p), world)}
			if i < len(normals) {
				v.Normal = math3d.TransformNormal(vec3(normals[i]), world).Normalized()
			}
			// glTF puts the UV origin at the top-left, same as texel rows.
			if i < len(uvs) {
				v.TextureCoordinates = math3d.V2(float64(uvs[i][0]), float64(uvs[i][1]))
			}
			mesh.Vertices = append(mesh.Vertices, v)
		}

		if prim.Indices != nil {
			acc, err := accessor(doc, *prim.Indices)
			if err != nil {
				return fmt.Errorf("read indices: %w", err)
			}
			indices, err := modeler.ReadIndices(doc, acc, nil)
			if err != nil {
				return fmt.Errorf("read indices: %w", err)
			}
			for i := 0; i+2 < len(indices); i += 3 {
				mesh.Faces = append(mesh.Faces, Face{
					A: base + int(indices[i]),
					B: base + int(indices[i+1]),
					C: base + int(indices[i+2]),
				})
			}
		} else {
			for i := 0; i+2 < len(positions); i += 3 {
				mesh.Faces = append(mesh.Faces, Face{A: base + i, B: base + i + 1, C: base + i + 2})
			}
		}
	}
	return nil
}

func vec3(p [3]float32) math3d.Vec3 {
	return math3d.V3(float64(p[0]), float64(p[1]), float64(p[2]))
}

// accessor returns accessor idx after checking that it and the buffer
// view it reads from exist, so the readers cannot index past the document.
func accessor(doc *gltf.Document, idx int) (*gltf.Accessor, error) {
	if idx < 0 || idx >= len(doc.Accessors) {
		return nil, fmt.Errorf("accessor %d out of range", idx)
	}
	acc := doc.Accessors[idx]
	if acc.Count < 0 {
		return nil, fmt.Errorf("accessor %d: negative count", idx)
	}
	if acc.BufferView == nil {
		return acc, nil
	}
	view, err := bufferView(doc, *acc.BufferView)
	if err != nil {
		return nil, fmt.Errorf("accessor %d: %w", idx, err)
	}
	if acc.ByteOffset < 0 || acc.ByteOffset > view.ByteLength {
		return nil, fmt.Errorf("accessor %d: offset %d past buffer view end", idx, acc.ByteOffset)
	}
	return acc, nil
}

// bufferView returns view idx after checking it and its buffer range.
func bufferView(doc *gltf.Document, idx int) (*gltf.BufferView, error) {
	if idx < 0 || idx >= len(doc.BufferViews) {
		return nil, fmt.Errorf("buffer view %d out of range", idx)
	}
	view := doc.BufferViews[idx]
	if view.Buffer < 0 || view.Buffer >= len(doc.Buffers) {
		return nil, fmt.Errorf("buffer view %d: buffer %d out of range", idx, view.Buffer)
	}
	if view.ByteOffset < 0 || view.ByteLength < 0 ||
		view.ByteOffset+view.ByteLength > len(doc.Buffers[view.Buffer].Data) {
		return nil, fmt.Errorf("buffer view %d reads past buffer end", idx)
	}
	return view, nil
}

// imageData returns the encoded bytes of im from a buffer view, a base64
// data URI or a file relative to dir.
func imageData(doc *gltf.Document, im *gltf.Image, dir string) ([]byte, error) {
	switch {
	case im.BufferView != nil:
		view, err := bufferView(doc, *im.BufferView)
		if err != nil {
			return nil, err
		}
		return modeler.ReadBufferView(doc, view)
	case im.IsEmbeddedResource():
		data, err := im.MarshalData()
		if err != nil {
			return nil, fmt.Errorf("decode data uri: %w", err)
		}
		return data, nil
	case strings.HasPrefix(im.URI, "data:"):
		mime, _, _ := strings.Cut(strings.TrimPrefix(im.URI, "data:"), ";")
		return nil, fmt.Errorf("image %s: %w", mime, ErrUnsupportedFormat)
	case im.URI != "":
		data, err := os.ReadFile(filepath.Join(dir, im.URI))
		if err != nil {
			return nil, fmt.Errorf("read image: %w", err)
		}
		return data, nil
	}
	return nil, nil
}

// firstImage decodes the first image in the document that decodes cleanly.
// A document with no images returns nil and no error.
func firstImage(doc *gltf.Document, dir string) (image.Image, error) {
	var lastErr error
	for _, im := range doc.Images {
		data, err := imageData(doc, im, dir)
		if err != nil {
			lastErr = err
			continue
		}
		if data == nil {
			continue
		}

		img, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			lastErr = fmt.Errorf("decode image: %w", err)
			continue
		}
		return img, nil
	}
	if lastErr == nil && len(doc.Images) > 0 {
		lastErr = errors.New("no image has data")
	}
	return nil, lastErr
}
