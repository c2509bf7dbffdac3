package models

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/taigrr/softengine/internal/logging"
	"github.com/taigrr/softengine/pkg/math3d"
	"github.com/taigrr/softengine/pkg/texture"
)

// BabylonTextureSize is the declared size of textures referenced by Babylon
// materials. Images of other sizes are resampled to it.
const BabylonTextureSize = 512

// babylonFile mirrors the subset of the Babylon.js scene format the loader reads.
type babylonFile struct {
	Materials []babylonMaterial `json:"materials"`
	Meshes    []babylonMesh     `json:"meshes"`
}

type babylonMaterial struct {
	Name           string          `json:"name"`
	ID             string          `json:"id"`
	DiffuseTexture *babylonTexture `json:"diffuseTexture"`
}

type babylonTexture struct {
	Name string `json:"name"`
}

type babylonMesh struct {
	Name       string    `json:"name"`
	Vertices   []float64 `json:"vertices"`
	Indices    []int     `json:"indices"`
	UVCount    int       `json:"uvCount"`
	Position   []float64 `json:"position"`
	MaterialID string    `json:"materialId"`
}

// vertexStride returns the number of floats per vertex for a given UV set
// count: position and normal, plus two floats per UV set.
func vertexStride(uvCount int) (int, bool) {
	switch uvCount {
	case 0:
		return 6, true
	case 1:
		return 8, true
	case 2:
		return 10, true
	}
	return 0, false
}

// LoadBabylonFile reads a Babylon JSON scene. Diffuse textures are resolved
// relative to the file's directory and decode in the background.
func LoadBabylonFile(ctx context.Context, path string) ([]*Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open babylon: %w", err)
	}
	defer f.Close()

	return LoadBabylon(ctx, f, filepath.Dir(path))
}

// LoadBabylon parses a Babylon JSON scene from r. Meshes with at least one
// UV set get the diffuse texture of their material, loaded from dir.
func LoadBabylon(ctx context.Context, r io.Reader, dir string) ([]*Mesh, error) {
	var doc babylonFile
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode babylon: %w", err)
	}
	if len(doc.Meshes) == 0 {
		return nil, ErrNoMeshes
	}

	diffuse := make(map[string]string, len(doc.Materials))
	for _, mat := range doc.Materials {
		if mat.DiffuseTexture != nil && mat.DiffuseTexture.Name != "" {
			diffuse[mat.ID] = mat.DiffuseTexture.Name
		}
	}

	meshes := make([]*Mesh, 0, len(doc.Meshes))
	for _, bm := range doc.Meshes {
		mesh, err := bm.build()
		if err != nil {
			return nil, err
		}

		if bm.UVCount > 0 {
			if name, ok := diffuse[bm.MaterialID]; ok {
				mesh.Texture = texture.Load(ctx, filepath.Join(dir, name),
					BabylonTextureSize, BabylonTextureSize)
			} else {
				logging.Logger().Warn("babylon mesh has UVs but no diffuse texture",
					"mesh", bm.Name, "material", bm.MaterialID)
			}
		}

		meshes = append(meshes, mesh)
	}

	logging.Logger().Debug("babylon scene loaded", "meshes", len(meshes))
	return meshes, nil
}

func (bm *babylonMesh) build() (*Mesh, error) {
	stride, ok := vertexStride(bm.UVCount)
	if !ok {
		return nil, fmt.Errorf("mesh %q: uvCount %d: %w", bm.Name, bm.UVCount, ErrUnsupportedFormat)
	}
	if len(bm.Vertices)%stride != 0 {
		return nil, fmt.Errorf("mesh %q: %d vertex floats not a multiple of %d: %w",
			bm.Name, len(bm.Vertices), stride, ErrUnsupportedFormat)
	}
	if len(bm.Indices)%3 != 0 {
		return nil, fmt.Errorf("mesh %q: %d indices not a multiple of 3: %w",
			bm.Name, len(bm.Indices), ErrUnsupportedFormat)
	}

	mesh := NewMesh(bm.Name, len(bm.Vertices)/stride, len(bm.Indices)/3)

	for i := range mesh.Vertices {
		v := bm.Vertices[i*stride : (i+1)*stride]
		vert := Vertex{
			Coordinates: math3d.V3(v[0], v[1], v[2]),
			Normal:      math3d.V3(v[3], v[4], v[5]),
		}
		// Only the first UV set is used.
		if bm.UVCount > 0 {
			vert.TextureCoordinates = math3d.V2(v[6], v[7])
		}
		mesh.Vertices[i] = vert
	}

	for i := range mesh.Faces {
		mesh.Faces[i] = Face{
			A: bm.Indices[i*3],
			B: bm.Indices[i*3+1],
			C: bm.Indices[i*3+2],
		}
	}
	if err := mesh.Validate(); err != nil {
		return nil, err
	}

	if len(bm.Position) >= 3 {
		mesh.Position = math3d.V3(bm.Position[0], bm.Position[1], bm.Position[2])
	}
	return mesh, nil
}
