package models

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/color"
	pngenc "image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/qmuntal/gltf"

	"github.com/taigrr/softengine/pkg/math3d"
)

func TestLoadGLBInvalidPath(t *testing.T) {
	_, err := LoadGLB("/nonexistent/path.glb")
	if err == nil {
		t.Error("Expected error for nonexistent file")
	}
}

func TestGLTFLoaderDefaults(t *testing.T) {
	loader := NewGLTFLoader()
	if !loader.CalculateNormals {
		t.Error("CalculateNormals should default to true")
	}
	if !loader.Textures {
		t.Error("Textures should default to true")
	}
}

// writeTriangleGLTF writes a one-triangle glTF with an embedded base64
// buffer: three VEC3 float positions followed by three ushort indices.
func writeTriangleGLTF(t *testing.T, dir string) string {
	t.Helper()

	buf := make([]byte, 0, 44)
	for _, f := range []float32{0, 0, 0, 1, 0, 0, 0, 1, 0} {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
	}
	for _, i := range []uint16{0, 1, 2} {
		buf = binary.LittleEndian.AppendUint16(buf, i)
	}
	uri := "data:application/octet-stream;base64," + base64.StdEncoding.EncodeToString(buf)

	doc := `{
	  "asset": {"version": "2.0"},
	  "buffers": [{"byteLength": 42, "uri": "` + uri + `"}],
	  "bufferViews": [
	    {"buffer": 0, "byteOffset": 0, "byteLength": 36},
	    {"buffer": 0, "byteOffset": 36, "byteLength": 6}
	  ],
	  "accessors": [
	    {"bufferView": 0, "componentType": 5126, "count": 3, "type": "VEC3",
	     "min": [0, 0, 0], "max": [1, 1, 0]},
	    {"bufferView": 1, "componentType": 5123, "count": 3, "type": "SCALAR"}
	  ],
	  "meshes": [{"name": "tri", "primitives": [{"attributes": {"POSITION": 0}, "indices": 1}]}]
	}`

	path := filepath.Join(dir, "tri.gltf")
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadGLTFTriangle(t *testing.T) {
	mesh, err := LoadGLB(writeTriangleGLTF(t, t.TempDir()))
	if err != nil {
		t.Fatalf("LoadGLB() = %v", err)
	}
	if mesh.Name != "tri.gltf" {
		t.Errorf("name = %q", mesh.Name)
	}
	if mesh.VertexCount() != 3 || mesh.FaceCount() != 1 {
		t.Fatalf("counts = %d/%d, want 3/1", mesh.VertexCount(), mesh.FaceCount())
	}
	if mesh.Faces[0] != (Face{0, 1, 2}) {
		t.Errorf("face = %v", mesh.Faces[0])
	}
	if mesh.Vertices[1].Coordinates != math3d.V3(1, 0, 0) {
		t.Errorf("vertex 1 = %v", mesh.Vertices[1].Coordinates)
	}
	// No normals in the file, so smooth normals are derived.
	if mesh.Vertices[0].Normal != math3d.V3(0, 0, 1) {
		t.Errorf("normal = %v, want (0,0,1)", mesh.Vertices[0].Normal)
	}
	if mesh.Texture != nil {
		t.Error("document without images should not produce a texture")
	}
}

func TestLoadGLTFNoMeshes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.gltf")
	if err := os.WriteFile(path, []byte(`{"asset":{"version":"2.0"}}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadGLB(path); !errors.Is(err, ErrNoMeshes) {
		t.Errorf("err = %v, want ErrNoMeshes", err)
	}
}

// writeGLTF writes doc as name under dir and returns the path.
func writeGLTF(t *testing.T, dir, name, doc string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// quadBuffer returns a data URI holding three float positions, three
// normals pointing +Z and three normalized ushort UVs, in that order.
func quadBuffer() string {
	buf := make([]byte, 0, 84)
	for _, f := range []float32{0, 0, 0, 1, 0, 0, 0, 1, 0} {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
	}
	for range 3 {
		for _, f := range []float32{0, 0, 1} {
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
		}
	}
	for _, u := range []uint16{0, 0, 65535, 0, 0, 32768} {
		buf = binary.LittleEndian.AppendUint16(buf, u)
	}
	return "data:application/octet-stream;base64," + base64.StdEncoding.EncodeToString(buf)
}

const quadViews = `
	  "bufferViews": [
	    {"buffer": 0, "byteOffset": 0, "byteLength": 36},
	    {"buffer": 0, "byteOffset": 36, "byteLength": 36},
	    {"buffer": 0, "byteOffset": 72, "byteLength": 12}
	  ],
	  "accessors": [
	    {"bufferView": 0, "componentType": 5126, "count": 3, "type": "VEC3",
	     "min": [0, 0, 0], "max": [1, 1, 0]},
	    {"bufferView": 1, "componentType": 5126, "count": 3, "type": "VEC3"},
	    {"bufferView": 2, "componentType": 5123, "normalized": true, "count": 3, "type": "VEC2"}
	  ],
	  "meshes": [{"name": "tri", "primitives": [{"attributes": {"POSITION": 0, "NORMAL": 1, "TEXCOORD_0": 2}}]}]`

func TestLoadGLTFNodeTransform(t *testing.T) {
	// Scale by 2, turn 90 degrees about Y, then move up 5. The child
	// inherits the parent's translation on top of its own.
	s := math.Sqrt2 / 2
	doc := fmt.Sprintf(`{
	  "asset": {"version": "2.0"},
	  "buffers": [{"byteLength": 84, "uri": %q}],%s,
	  "scene": 0,
	  "scenes": [{"nodes": [0]}],
	  "nodes": [
	    {"mesh": 0, "scale": [2, 2, 2], "rotation": [0, %v, 0, %v], "translation": [0, 5, 0], "children": [1]},
	    {"mesh": 0, "translation": [10, 0, 0]}
	  ]
	}`, quadBuffer(), quadViews, s, s)

	mesh, err := LoadGLB(writeGLTF(t, t.TempDir(), "node.gltf", doc))
	if err != nil {
		t.Fatalf("LoadGLB() = %v", err)
	}
	if mesh.VertexCount() != 6 || mesh.FaceCount() != 2 {
		t.Fatalf("counts = %d/%d, want 6/2", mesh.VertexCount(), mesh.FaceCount())
	}
	if mesh.Faces[1] != (Face{3, 4, 5}) {
		t.Errorf("second instance face = %v, want {3 4 5}", mesh.Faces[1])
	}

	tests := []struct {
		name       string
		idx        int
		pos, norml math3d.Vec3
	}{
		// RotationY(90) maps +X to -Z and +Z to +X.
		{"parent x", 1, math3d.V3(0, 5, -2), math3d.V3(1, 0, 0)},
		{"parent y", 2, math3d.V3(0, 7, 0), math3d.V3(1, 0, 0)},
		{"child origin", 3, math3d.V3(0, 5, -20), math3d.V3(1, 0, 0)},
		{"child x", 4, math3d.V3(0, 5, -22), math3d.V3(1, 0, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := mesh.Vertices[tt.idx]
			if v.Coordinates.Sub(tt.pos).Len() > 1e-5 {
				t.Errorf("position = %v, want %v", v.Coordinates, tt.pos)
			}
			if v.Normal.Sub(tt.norml).Len() > 1e-5 {
				t.Errorf("normal = %v, want %v", v.Normal, tt.norml)
			}
		})
	}
}

func TestLoadGLTFNormalizedUVs(t *testing.T) {
	doc := fmt.Sprintf(`{
	  "asset": {"version": "2.0"},
	  "buffers": [{"byteLength": 84, "uri": %q}],%s
	}`, quadBuffer(), quadViews)

	mesh, err := LoadGLB(writeGLTF(t, t.TempDir(), "uv.gltf", doc))
	if err != nil {
		t.Fatalf("LoadGLB() = %v", err)
	}
	want := []math3d.Vec2{math3d.V2(0, 0), math3d.V2(1, 0), math3d.V2(0, 32768.0/65535)}
	for i, w := range want {
		got := mesh.Vertices[i].TextureCoordinates
		if math.Abs(got.X-w.X) > 1e-6 || math.Abs(got.Y-w.Y) > 1e-6 {
			t.Errorf("uv %d = %v, want %v", i, got, w)
		}
	}
}

func TestLoadGLTFEmbeddedImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(1, 0, color.RGBA{255, 0, 0, 255})
	var png bytes.Buffer
	if err := pngenc.Encode(&png, img); err != nil {
		t.Fatal(err)
	}
	uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString(png.Bytes())

	doc := fmt.Sprintf(`{
	  "asset": {"version": "2.0"},
	  "buffers": [{"byteLength": 84, "uri": %q}],%s,
	  "images": [{"uri": %q}]
	}`, quadBuffer(), quadViews, uri)

	mesh, err := LoadGLB(writeGLTF(t, t.TempDir(), "img.gltf", doc))
	if err != nil {
		t.Fatalf("LoadGLB() = %v", err)
	}
	if mesh.Texture == nil {
		t.Fatal("embedded png should produce a texture")
	}
	if mesh.Texture.Width != 2 || mesh.Texture.Height != 2 || !mesh.Texture.Ready() {
		t.Errorf("texture = %dx%d ready=%v, want a ready 2x2", mesh.Texture.Width, mesh.Texture.Height, mesh.Texture.Ready())
	}
}

func TestLoadGLTFMalformedIndices(t *testing.T) {
	buffer := fmt.Sprintf(`"buffers": [{"byteLength": 84, "uri": %q}]`, quadBuffer())
	tests := []struct {
		name string
		body string
	}{
		{"accessor view out of range", `
		  "bufferViews": [{"buffer": 0, "byteLength": 36}],
		  "accessors": [{"bufferView": 7, "componentType": 5126, "count": 3, "type": "VEC3"}],
		  "meshes": [{"primitives": [{"attributes": {"POSITION": 0}}]}]`},
		{"view buffer out of range", `
		  "bufferViews": [{"buffer": 3, "byteLength": 36}],
		  "accessors": [{"bufferView": 0, "componentType": 5126, "count": 3, "type": "VEC3"}],
		  "meshes": [{"primitives": [{"attributes": {"POSITION": 0}}]}]`},
		{"accessor offset past view", `
		  "bufferViews": [{"buffer": 0, "byteLength": 36}],
		  "accessors": [{"bufferView": 0, "byteOffset": 400, "componentType": 5126, "count": 3, "type": "VEC3"}],
		  "meshes": [{"primitives": [{"attributes": {"POSITION": 0}}]}]`},
		{"position accessor out of range", `
		  "meshes": [{"primitives": [{"attributes": {"POSITION": 9}}]}]`},
		{"node mesh out of range", `
		  "bufferViews": [{"buffer": 0, "byteLength": 36}],
		  "accessors": [{"bufferView": 0, "componentType": 5126, "count": 3, "type": "VEC3"}],
		  "meshes": [{"primitives": [{"attributes": {"POSITION": 0}}]}],
		  "nodes": [{"mesh": 4}]`},
		{"node cycle", `
		  "bufferViews": [{"buffer": 0, "byteLength": 36}],
		  "accessors": [{"bufferView": 0, "componentType": 5126, "count": 3, "type": "VEC3"}],
		  "meshes": [{"primitives": [{"attributes": {"POSITION": 0}}]}],
		  "scenes": [{"nodes": [0]}],
		  "nodes": [{"mesh": 0, "children": [1]}, {"children": [0]}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := `{"asset": {"version": "2.0"}, ` + buffer + `,` + tt.body + `}`
			path := writeGLTF(t, t.TempDir(), "bad.gltf", doc)
			if _, err := LoadGLB(path); err == nil {
				t.Error("expected an error for a malformed document")
			}
		})
	}
}

func TestFirstImageMalformed(t *testing.T) {
	view := 5
	tests := []struct {
		name string
		doc  *gltf.Document
	}{
		{"view out of range", &gltf.Document{Images: []*gltf.Image{{BufferView: &view}}}},
		{"view past buffer", &gltf.Document{
			Buffers:     []*gltf.Buffer{{Data: make([]byte, 4)}},
			BufferViews: []*gltf.BufferView{{Buffer: 0, ByteLength: 64}},
			Images:      []*gltf.Image{{BufferView: new(int)}},
		}},
		{"unsupported data uri", &gltf.Document{Images: []*gltf.Image{{URI: "data:image/webp;base64,AAAA"}}}},
		{"missing file", &gltf.Document{Images: []*gltf.Image{{URI: "missing.png"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := firstImage(tt.doc, t.TempDir())
			if err == nil || img != nil {
				t.Errorf("firstImage() = %v, %v; want an error", img, err)
			}
		})
	}
}
