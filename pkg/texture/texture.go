// Package texture provides the texture sampler used by the rasterizer.
//
// A Texture can exist before its image is decoded. Until then Map returns
// opaque white, so meshes render untextured while a file is still loading.
package texture

import (
	"errors"
	"image"
	"image/color"
	"math"
	"sync"
	"sync/atomic"

	xdraw "golang.org/x/image/draw"

	"github.com/taigrr/softengine/pkg/math3d"
)

// ErrNotLoaded is reported by Err when a texture has no decoded image yet
// and no load is in flight.
var ErrNotLoaded = errors.New("texture: image not loaded")

// Texture is a fixed-size RGBA texel grid that may be filled after creation.
type Texture struct {
	Name   string
	Width  int
	Height int

	buf     atomic.Pointer[image.RGBA]
	loading atomic.Bool
	done    chan struct{}
	once    sync.Once
	err     error // set before done is closed
}

// New creates a texture of the declared size with no image yet.
func New(name string, width, height int) *Texture {
	return &Texture{
		Name:   name,
		Width:  width,
		Height: height,
		done:   make(chan struct{}),
	}
}

// FromImage creates a texture that is ready immediately, sized to img.
func FromImage(name string, img image.Image) *Texture {
	b := img.Bounds()
	t := New(name, b.Dx(), b.Dy())
	t.SetImage(img)
	return t
}

// NewChecker creates a procedural checkerboard texture.
func NewChecker(name string, width, height, cell int, a, b color.RGBA) *Texture {
	if cell < 1 {
		cell = 1
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := range height {
		for x := range width {
			if (x/cell+y/cell)%2 == 0 {
				img.SetRGBA(x, y, a)
			} else {
				img.SetRGBA(x, y, b)
			}
		}
	}
	return FromImage(name, img)
}

// SetImage draws img into the declared texture size and publishes the
// result. Images of a different size are resampled with Catmull-Rom.
func (t *Texture) SetImage(img image.Image) {
	dst := image.NewRGBA(image.Rect(0, 0, t.Width, t.Height))
	sb := img.Bounds()
	if sb.Dx() == t.Width && sb.Dy() == t.Height {
		xdraw.Copy(dst, image.Point{}, img, sb, xdraw.Src, nil)
	} else {
		xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, sb, xdraw.Src, nil)
	}
	t.buf.Store(dst)
	t.finish(nil)
}

// Ready reports whether decoded texels are available.
func (t *Texture) Ready() bool {
	return t.buf.Load() != nil
}

// Err returns the load error, if loading finished with one. A texture
// that is neither ready nor loading reports ErrNotLoaded.
func (t *Texture) Err() error {
	select {
	case <-t.done:
		return t.err
	default:
		if t.Ready() || t.loading.Load() {
			return nil
		}
		return ErrNotLoaded
	}
}

func (t *Texture) finish(err error) {
	t.once.Do(func() {
		t.err = err
		close(t.done)
	})
}

// Map samples the texel at (u, v) with nearest-texel wrap addressing.
// It returns opaque white until the image is ready.
func (t *Texture) Map(u, v float64) math3d.Color4 {
	img := t.buf.Load()
	if img == nil {
		return math3d.White
	}
	w, h := img.Rect.Dx(), img.Rect.Dy()
	if w == 0 || h == 0 {
		return math3d.White
	}
	x := wrap(u, w)
	y := wrap(v, h)
	i := (x + y*w) * 4
	p := img.Pix[i : i+4 : i+4]
	return math3d.FromRGBA8(color.RGBA{p[0], p[1], p[2], p[3]})
}

// wrap maps a texture coordinate onto [0, size). The remainder keeps the
// sign of the dividend, so negative coordinates mirror about zero.
func wrap(c float64, size int) int {
	s := float64(size)
	m := math.Abs(math.Mod(c*s, s))
	if !(m < s) { // NaN or Inf
		return 0
	}
	return int(m)
}
