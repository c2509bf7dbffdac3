package texture

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"os"

	_ "golang.org/x/image/bmp"  // Register BMP decoder
	_ "golang.org/x/image/tiff" // Register TIFF decoder
	_ "golang.org/x/image/webp" // Register WebP decoder

	"github.com/taigrr/softengine/internal/logging"
)

// Load returns a texture of the declared size immediately and decodes path
// in the background. The texture samples as white until decoding succeeds;
// on failure it stays white and Err reports why.
func Load(ctx context.Context, path string, width, height int) *Texture {
	t := New(path, width, height)
	t.loading.Store(true)
	go func() {
		img, err := decodeFile(ctx, path)
		if err != nil {
			logging.Logger().Warn("texture load failed, sampling white",
				"path", path, "err", err)
			t.finish(err)
			return
		}
		t.SetImage(img)
		logging.Logger().Debug("texture ready", "path", path,
			"width", width, "height", height)
	}()
	return t
}

// Wait blocks until a pending load finishes or ctx is done.
// It returns the load error, or ctx.Err() on cancellation. A texture with
// no image and no load in flight returns ErrNotLoaded at once.
func (t *Texture) Wait(ctx context.Context) error {
	if !t.loading.Load() && !t.Ready() {
		return ErrNotLoaded
	}
	select {
	case <-t.done:
		return t.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func decodeFile(ctx context.Context, path string) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open texture: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}
