package models

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/taigrr/softengine/pkg/math3d"
)

const triangleNoUV = `{
  "materials": [],
  "meshes": [{
    "name": "tri",
    "uvCount": 0,
    "position": [1, 2, 3],
    "vertices": [
      0, 0, 0,  0, 0, -1,
      1, 0, 0,  0, 0, -1,
      0, 1, 0,  0, 0, -1
    ],
    "indices": [0, 1, 2]
  }]
}`

func TestLoadBabylonStrides(t *testing.T) {
	tests := []struct {
		name    string
		uvCount int
		extra   []string // per-vertex floats after the normal
		wantUV  math3d.Vec2
	}{
		{"no uv", 0, nil, math3d.Vec2{}},
		{"one uv set", 1, []string{"0.25", "0.75"}, math3d.V2(0.25, 0.75)},
		{"two uv sets", 2, []string{"0.25", "0.75", "0.9", "0.1"}, math3d.V2(0.25, 0.75)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var verts []string
			for i := range 3 {
				v := []string{"0", "0", "0", "0", "1", "0"}
				v[i] = "1"
				verts = append(verts, strings.Join(append(v, tt.extra...), ","))
			}
			doc := `{"meshes":[{"name":"m","uvCount":` + strconv.Itoa(tt.uvCount) +
				`,"position":[0,0,0],"vertices":[` + strings.Join(verts, ",") +
				`],"indices":[0,1,2]}]}`

			meshes, err := LoadBabylon(context.Background(), strings.NewReader(doc), t.TempDir())
			if err != nil {
				t.Fatalf("LoadBabylon() = %v", err)
			}
			if len(meshes) != 1 {
				t.Fatalf("got %d meshes", len(meshes))
			}
			m := meshes[0]
			if m.VertexCount() != 3 || m.FaceCount() != 1 {
				t.Fatalf("counts = %d/%d, want 3/1", m.VertexCount(), m.FaceCount())
			}
			if m.Vertices[2].Coordinates != math3d.V3(0, 0, 1) {
				t.Errorf("vertex 2 = %v", m.Vertices[2].Coordinates)
			}
			if m.Vertices[0].Normal != math3d.V3(0, 1, 0) {
				t.Errorf("normal = %v", m.Vertices[0].Normal)
			}
			if got := m.Vertices[1].TextureCoordinates; got != tt.wantUV {
				t.Errorf("uv = %v, want %v", got, tt.wantUV)
			}
		})
	}
}

func TestLoadBabylonPositionAndFaces(t *testing.T) {
	meshes, err := LoadBabylon(context.Background(), strings.NewReader(triangleNoUV), "")
	if err != nil {
		t.Fatal(err)
	}
	m := meshes[0]
	if m.Name != "tri" {
		t.Errorf("name = %q", m.Name)
	}
	if m.Position != math3d.V3(1, 2, 3) {
		t.Errorf("position = %v", m.Position)
	}
	if m.Faces[0] != (Face{0, 1, 2}) {
		t.Errorf("face = %v", m.Faces[0])
	}
	if m.Texture != nil {
		t.Error("mesh without UVs should not get a texture")
	}
}

func TestLoadBabylonErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want error
	}{
		{"no meshes", `{"meshes":[]}`, ErrNoMeshes},
		{"bad uv count", `{"meshes":[{"uvCount":3,"vertices":[],"indices":[]}]}`, ErrUnsupportedFormat},
		{"ragged vertices", `{"meshes":[{"uvCount":0,"vertices":[1,2,3,4,5],"indices":[]}]}`, ErrUnsupportedFormat},
		{"ragged indices", `{"meshes":[{"uvCount":0,"vertices":[0,0,0,0,0,1],"indices":[0,0]}]}`, ErrUnsupportedFormat},
		{"bad index", `{"meshes":[{"uvCount":0,"vertices":[0,0,0,0,0,1],"indices":[0,0,1]}]}`, ErrBadIndex},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadBabylon(context.Background(), strings.NewReader(tt.doc), "")
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}

	if _, err := LoadBabylon(context.Background(), strings.NewReader("{"), ""); err == nil {
		t.Error("truncated JSON should fail")
	}
}

func TestLoadBabylonFileWithTexture(t *testing.T) {
	dir := t.TempDir()

	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := range 4 {
		for x := range 4 {
			img.SetRGBA(x, y, color.RGBA{255, 0, 0, 255})
		}
	}
	f, err := os.Create(filepath.Join(dir, "red.png"))
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	f.Close()

	scene := `{
	  "materials": [{"name": "mat", "id": "m1", "diffuseTexture": {"name": "red.png"}}],
	  "meshes": [{
	    "name": "tri", "uvCount": 1, "materialId": "m1", "position": [0, 0, 0],
	    "vertices": [0,0,0, 0,0,1, 0,0,  1,0,0, 0,0,1, 1,0,  0,1,0, 0,0,1, 0,1],
	    "indices": [0, 1, 2]
	  }]
	}`
	path := filepath.Join(dir, "scene.babylon")
	if err := os.WriteFile(path, []byte(scene), 0o644); err != nil {
		t.Fatal(err)
	}

	meshes, err := LoadBabylonFile(context.Background(), path)
	if err != nil {
		t.Fatalf("LoadBabylonFile() = %v", err)
	}
	tex := meshes[0].Texture
	if tex == nil {
		t.Fatal("textured mesh has no texture")
	}
	if tex.Width != BabylonTextureSize || tex.Height != BabylonTextureSize {
		t.Errorf("texture size = %dx%d", tex.Width, tex.Height)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := tex.Wait(ctx); err != nil {
		t.Fatalf("texture Wait() = %v", err)
	}
	got := tex.Map(0.5, 0.5).RGBA8()
	if got.R < 250 || got.G > 5 || got.B > 5 {
		t.Errorf("texel = %v, want red", got)
	}
}

func TestLoadBabylonFileMissing(t *testing.T) {
	_, err := LoadBabylonFile(context.Background(), filepath.Join(t.TempDir(), "nope.babylon"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("err = %v, want ErrNotExist", err)
	}
}
