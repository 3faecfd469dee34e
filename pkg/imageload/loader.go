// Package imageload decodes an uploaded image into the reference element the
// overlay is drawn against.
package imageload

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"

	"github.com/disintegration/imaging"
	"golang.org/x/net/context"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// DefaultMaxPixels bounds both the decoded and the displayed size.
const DefaultMaxPixels = 40_000_000

var (
	ErrEmptyImage    = errors.New("image has no pixels")
	ErrTooManyPixels = errors.New("image exceeds the pixel limit")
)

// Element is a decoded image plus the size it is displayed at. A nil
// *Element is never loaded.
type Element struct {
	Image   image.Image
	Format  string
	natural image.Point
	display image.Point
}

func (e *Element) Loaded() bool {
	return e != nil && e.Image != nil
}

func (e *Element) NaturalSize() (int, int) {
	if e == nil {
		return 0, 0
	}
	return e.natural.X, e.natural.Y
}

func (e *Element) DisplaySize() (int, int) {
	if e == nil {
		return 0, 0
	}
	return e.display.X, e.display.Y
}

// Display controls the size the element is laid out at. Zero values mean
// "derive from the natural size".
type Display struct {
	Width    int
	Height   int
	MaxWidth int
}

type Loader struct {
	display   Display
	maxPixels int64
}

type Option func(*Loader)

// WithMaxPixels overrides DefaultMaxPixels. Values <= 0 keep the default.
func WithMaxPixels(n int64) Option {
	return func(l *Loader) {
		if n > 0 {
			l.maxPixels = n
		}
	}
}

func New(display Display, opts ...Option) *Loader {
	l := &Loader{display: display, maxPixels: DefaultMaxPixels}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

type result struct {
	el  *Element
	err error
}

// Load decodes data off the caller's goroutine and returns once the decode
// finished or ctx is done, whichever happens first.
func (l *Loader) Load(ctx context.Context, data []byte, override Display) (*Element, error) {
	done := make(chan result, 1)
	go func() {
		el, err := l.decode(data, override)
		done <- result{el, err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-done:
		return res.el, res.err
	}
}

func (l *Loader) decode(data []byte, override Display) (*Element, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	if err := l.checkPixels(cfg.Width, cfg.Height); err != nil {
		return nil, err
	}
	// EXIF orientation is applied the way browsers lay out an <img>, so box
	// coordinates from the detector line up with what the user sees.
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	size := img.Bounds().Size()
	if size.X <= 0 || size.Y <= 0 {
		return nil, ErrEmptyImage
	}

	display := l.display
	if override.Width > 0 || override.Height > 0 {
		display.Width, display.Height = override.Width, override.Height
	}
	if override.MaxWidth > 0 {
		display.MaxWidth = override.MaxWidth
	}

	shown := DisplaySize(size, display)
	if err := l.checkPixels(shown.X, shown.Y); err != nil {
		return nil, fmt.Errorf("display size: %w", err)
	}

	return &Element{
		Image:   img,
		Format:  format,
		natural: size,
		display: shown,
	}, nil
}

func (l *Loader) checkPixels(w, h int) error {
	if int64(w)*int64(h) > l.maxPixels {
		return fmt.Errorf("%w: %dx%d exceeds %d", ErrTooManyPixels, w, h, l.maxPixels)
	}
	return nil
}

// DisplaySize mirrors how a browser lays out an <img>: explicit dimensions
// win, a single explicit dimension keeps the aspect ratio, and max-width
// shrinks but never enlarges.
func DisplaySize(natural image.Point, d Display) image.Point {
	w, h := natural.X, natural.Y

	switch {
	case d.Width > 0 && d.Height > 0:
		w, h = d.Width, d.Height
	case d.Width > 0:
		w, h = d.Width, scaleDim(natural.Y, d.Width, natural.X)
	case d.Height > 0:
		w, h = scaleDim(natural.X, d.Height, natural.Y), d.Height
	}

	if d.MaxWidth > 0 && w > d.MaxWidth {
		h = scaleDim(h, d.MaxWidth, w)
		w = d.MaxWidth
	}

	return image.Point{X: w, Y: h}
}

func scaleDim(v, num, den int) int {
	if den == 0 {
		return 0
	}
	return int(math.Round(float64(v) * float64(num) / float64(den)))
}
