package main

import (
	"context"
	"fmt"
	"image/color"
	"os"
	"time"

	"github.com/charmbracelet/x/exp/charmtone"
	"github.com/taigrr/softengine/internal/scene"
	"github.com/taigrr/softengine/pkg/models"
	"github.com/taigrr/softengine/pkg/render"
)

// textureTimeout bounds how long a snapshot waits for texture decodes.
const textureTimeout = 30 * time.Second

// wireColor is the x-ray line color.
var wireColor = color.RGBAModel.Convert(charmtone.Guac).(color.RGBA)

// axisLength reaches just past the unit cube and normalized glTF models.
const axisLength = 1.5

// loadScene loads the model and applies the --texture override.
func loadScene(ctx context.Context, modelPath string, opts *options) ([]*models.Mesh, error) {
	meshes, err := scene.Load(ctx, modelPath)
	if err != nil {
		return nil, err
	}
	if opts.texturePath != "" {
		scene.ApplyTexture(ctx, meshes, opts.texturePath,
			models.BabylonTextureSize, models.BabylonTextureSize)
	}
	scene.LogLoaded(modelPath, meshes)
	return meshes, nil
}

// drawFrame clears the device and draws every mesh, filled or as edges,
// with the world axes on top when axes is set.
func drawFrame(dev *render.Device, cam *render.Camera, meshes []*models.Mesh, wireframe, axes bool) {
	dev.Clear()
	w := render.NewWireframe(cam, dev)
	if wireframe {
		for _, m := range meshes {
			w.DrawMesh(m, wireColor)
		}
	} else {
		dev.Render(cam, meshes)
	}
	if axes {
		w.DrawAxes(axisLength)
	}
}

// runSnapshot renders a single frame headless and writes it as PNG.
func runSnapshot(ctx context.Context, modelPath string, opts *options) error {
	meshes, err := loadScene(ctx, modelPath, opts)
	if err != nil {
		return err
	}

	// A snapshot should show the textures, so wait for the decodes.
	waitCtx, cancel := context.WithTimeout(ctx, textureTimeout)
	defer cancel()
	for _, m := range meshes {
		if m.Texture == nil {
			continue
		}
		if err := m.Texture.Wait(waitCtx); err != nil {
			render.Logger().Warn("texture unavailable, rendering white",
				"mesh", m.Name, "texture", m.Texture.Name, "err", err)
		}
	}

	dev := render.NewDevice(opts.width, opts.height,
		render.WithShading(opts.shadingMode),
		render.WithClearColor(opts.bgColor),
		render.WithLight(opts.lightPos))
	cam := opts.camera()

	rot := scene.NewRotationState(opts.fps)
	for range opts.frames {
		rot.Update()
	}
	rot.Apply(meshes)

	drawFrame(dev, cam, meshes, opts.wireframe, opts.axes)
	render.Logger().Debug("snapshot rendered", "stats", dev.Stats.String())

	if err := dev.Framebuffer().SavePNG(opts.snapshot); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "wrote %s (%dx%d, %s)\n", opts.snapshot, opts.width, opts.height, dev.Stats)
	return nil
}
