// Package scene assembles what the viewers draw: meshes loaded from disk,
// texture overrides, colors from flags and the animated rotation state.
package scene

import (
	"context"
	"fmt"
	"image/color"
	"path/filepath"
	"strings"

	"github.com/taigrr/softengine/internal/logging"
	"github.com/taigrr/softengine/pkg/models"
	"github.com/taigrr/softengine/pkg/texture"
)

// GLTFExtent is the size glTF models are normalized to, matching the
// default cube.
const GLTFExtent = 2.0

// CheckerTexture is the --texture value that selects the built-in
// checkerboard instead of an image file.
const CheckerTexture = "checker"

// checkerCells is the number of squares along each side of the checkerboard.
const checkerCells = 8

// Load returns the meshes of the model at path, dispatching on the file
// extension. An empty path yields the demo cube.
func Load(ctx context.Context, path string) ([]*models.Mesh, error) {
	if path == "" {
		return []*models.Mesh{models.NewCube("cube")}, nil
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".babylon", ".json":
		meshes, err := models.LoadBabylonFile(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("load model: %w", err)
		}
		return meshes, nil
	case ".glb", ".gltf":
		mesh, err := models.LoadGLB(path)
		if err != nil {
			return nil, fmt.Errorf("load model: %w", err)
		}
		// glTF assets come in arbitrary units.
		mesh.Normalize(GLTFExtent)
		return []*models.Mesh{mesh}, nil
	default:
		return nil, fmt.Errorf("%s: %w (use .babylon, .json, .glb or .gltf)",
			ext, models.ErrUnsupportedFormat)
	}
}

// ApplyTexture starts loading the image at path and assigns it to every
// mesh. Meshes render untextured until the decode finishes. The path
// CheckerTexture yields a procedural checkerboard that is ready at once.
func ApplyTexture(ctx context.Context, meshes []*models.Mesh, path string, width, height int) *texture.Texture {
	var tex *texture.Texture
	if path == CheckerTexture {
		tex = texture.NewChecker(CheckerTexture, width, height, max(width/checkerCells, 1),
			color.RGBA{235, 235, 235, 255}, color.RGBA{40, 40, 48, 255})
	} else {
		tex = texture.Load(ctx, path, width, height)
	}
	for _, m := range meshes {
		m.Texture = tex
	}
	return tex
}

// Stats sums vertices and faces over meshes.
func Stats(meshes []*models.Mesh) (vertices, faces int) {
	for _, m := range meshes {
		vertices += m.VertexCount()
		faces += m.FaceCount()
	}
	return vertices, faces
}

// LogLoaded reports the loaded meshes at debug level.
func LogLoaded(path string, meshes []*models.Mesh) {
	v, f := Stats(meshes)
	logging.Logger().Debug("scene loaded", "path", path, "meshes", len(meshes),
		"vertices", v, "faces", f)
}
