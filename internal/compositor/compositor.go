// Package compositor stacks per-trait layer images into one item image.
//
// Layers live at <traits dir>/<Category>/<Value>.png and are alpha-composited onto
// a transparent canvas in catalog order. When the item carries one of the
// configured rare values in the rare category, the rare order is used instead.
// Layers whose size differs from the canvas are scaled with nearest-neighbour
// sampling so pixel art stays crisp.
package compositor

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sync"

	"github.com/dyluth/traitforge/pkg/engine"
	"github.com/fogleman/gg"
	"golang.org/x/image/draw"
)

// Options configures canvas size and the rare layering override.
type Options struct {
	Width        int
	Height       int
	RareCategory string
	RareValues   []string
	RareOrder    []string
}

// LayerLoadError reports a layer image that could not be opened or decoded.
// It matches engine.ErrLayerLoad under errors.Is.
type LayerLoadError struct {
	Category string
	Value    string
	Path     string
	Err      error
}

func (e *LayerLoadError) Error() string {
	return fmt.Sprintf("failed to load layer %s=%s from %s: %v", e.Category, e.Value, e.Path, e.Err)
}

func (e *LayerLoadError) Unwrap() error { return e.Err }

func (e *LayerLoadError) Is(target error) bool { return target == engine.ErrLayerLoad }

// Compositor renders assignments to images. Decoded layers are cached, so one
// Compositor should be reused for a whole run. Safe for concurrent use.
type Compositor struct {
	traitsDir string
	order     []string
	opts      Options
	rare      map[string]bool

	mu    sync.Mutex
	cache map[string]image.Image
}

// New creates a compositor reading layers from traitsDir. order is the catalog
// trait order used for normal items.
func New(traitsDir string, order []string, opts Options) *Compositor {
	if opts.Width <= 0 {
		opts.Width = 960
	}
	if opts.Height <= 0 {
		opts.Height = 960
	}
	rare := make(map[string]bool, len(opts.RareValues))
	for _, v := range opts.RareValues {
		rare[v] = true
	}
	return &Compositor{
		traitsDir: traitsDir,
		order:     append([]string(nil), order...),
		opts:      opts,
		rare:      rare,
		cache:     make(map[string]image.Image),
	}
}

// LayerOrder returns the category stacking order for a. The rare order replaces
// the catalog order entirely; categories it does not list are not drawn.
func (c *Compositor) LayerOrder(a *engine.Assignment) []string {
	if c.opts.RareCategory != "" && len(c.opts.RareOrder) > 0 {
		if v, ok := a.Get(c.opts.RareCategory); ok && c.rare[v] {
			return append([]string(nil), c.opts.RareOrder...)
		}
	}
	return append([]string(nil), c.order...)
}

// LayerPath is where the image for category=value is expected.
func (c *Compositor) LayerPath(category, value string) string {
	return filepath.Join(c.traitsDir, category, value+".png")
}

// Compose stacks the layers of a onto a transparent canvas.
func (c *Compositor) Compose(a *engine.Assignment) (*image.RGBA, error) {
	canvas := image.NewRGBA(image.Rect(0, 0, c.opts.Width, c.opts.Height))

	for _, category := range c.LayerOrder(a) {
		value, ok := a.Get(category)
		if !ok {
			continue
		}
		layer, err := c.layer(category, value)
		if err != nil {
			return nil, err
		}

		if layer.Bounds().Size() == canvas.Bounds().Size() {
			draw.Draw(canvas, canvas.Bounds(), layer, layer.Bounds().Min, draw.Over)
		} else {
			draw.NearestNeighbor.Scale(canvas, canvas.Bounds(), layer, layer.Bounds(), draw.Over, nil)
		}
	}
	return canvas, nil
}

// Render composes a and writes it as PNG to path, creating parent directories.
func (c *Compositor) Render(a *engine.Assignment, path string) error {
	img, err := c.Compose(a)
	if err != nil {
		return err
	}
	return Save(img, path)
}

// Save writes img as PNG to path, creating parent directories.
func Save(img *image.RGBA, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create image directory: %w", err)
	}
	if err := gg.NewContextForRGBA(img).SavePNG(path); err != nil {
		return fmt.Errorf("failed to write image %s: %w", path, err)
	}
	return nil
}

func (c *Compositor) layer(category, value string) (image.Image, error) {
	path := c.LayerPath(category, value)

	c.mu.Lock()
	defer c.mu.Unlock()

	if img, ok := c.cache[path]; ok {
		return img, nil
	}
	img, err := gg.LoadPNG(path)
	if err != nil {
		return nil, &LayerLoadError{Category: category, Value: value, Path: path, Err: err}
	}
	c.cache[path] = img
	return img, nil
}
