package overlay

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"sync"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

const DefaultFontSize = 16

var (
	labelFont     *opentype.Font
	labelFontErr  error
	labelFontOnce sync.Once
)

// NewLabelFace returns a sans-serif face for box labels. Faces cache glyphs
// and must not be shared between goroutines.
func NewLabelFace(size float64) (font.Face, error) {
	labelFontOnce.Do(func() {
		labelFont, labelFontErr = opentype.Parse(goregular.TTF)
	})
	if labelFontErr != nil {
		return nil, fmt.Errorf("parse label font: %w", labelFontErr)
	}

	return opentype.NewFace(labelFont, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}

// Canvas is a transparent RGBA Surface.
type Canvas struct {
	img  *image.RGBA
	face font.Face
}

func NewCanvas(face font.Face) *Canvas {
	return &Canvas{
		img:  image.NewRGBA(image.Rect(0, 0, 0, 0)),
		face: face,
	}
}

func (c *Canvas) Resize(width, height int) {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	c.img = image.NewRGBA(image.Rect(0, 0, width, height))
}

func (c *Canvas) Size() (int, int) {
	b := c.img.Bounds()
	return b.Dx(), b.Dy()
}

func (c *Canvas) Clear() {
	draw.Draw(c.img, c.img.Bounds(), image.Transparent, image.Point{}, draw.Src)
}

// StrokeRect paints an outline centred on the rectangle path, so half the
// line width falls outside the box.
func (c *Canvas) StrokeRect(x, y, w, h float64, col color.Color, lineWidth float64) {
	if lineWidth <= 0 || c.img.Bounds().Empty() {
		return
	}
	half := lineWidth / 2
	src := image.NewUniform(col)

	x0, y0, x1, y1 := x, y, x+w, y+h
	if x1 < x0 {
		x0, x1 = x1, x0
	}
	if y1 < y0 {
		y0, y1 = y1, y0
	}

	bands := []image.Rectangle{
		pixelRect(x0-half, y0-half, x1+half, y0+half),
		pixelRect(x0-half, y1-half, x1+half, y1+half),
		pixelRect(x0-half, y0+half, x0+half, y1-half),
		pixelRect(x1-half, y0+half, x1+half, y1-half),
	}
	for _, band := range bands {
		draw.Draw(c.img, band.Intersect(c.img.Bounds()), src, image.Point{}, draw.Over)
	}
}

func (c *Canvas) FillText(text string, x, y float64, col color.Color) {
	if c.face == nil || c.img.Bounds().Empty() {
		return
	}
	d := &font.Drawer{
		Dst:  c.img,
		Src:  image.NewUniform(col),
		Face: c.face,
		Dot:  fixed.Point26_6{X: toFixed(x), Y: toFixed(y)},
	}
	d.DrawString(text)
}

func (c *Canvas) Image() *image.RGBA {
	return c.img
}

func pixelRect(x0, y0, x1, y1 float64) image.Rectangle {
	return image.Rect(
		int(math.Round(x0)), int(math.Round(y0)),
		int(math.Round(x1)), int(math.Round(y1)),
	)
}

func toFixed(v float64) fixed.Int26_6 {
	return fixed.Int26_6(math.Round(v * 64))
}
