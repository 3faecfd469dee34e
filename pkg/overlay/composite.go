package overlay

import (
	"bytes"
	"image"
	"image/png"

	"golang.org/x/image/draw"
)

// Composite scales base to the overlay's size and paints the overlay on top.
func Composite(base image.Image, layer *image.RGBA) *image.RGBA {
	bounds := layer.Bounds()
	out := image.NewRGBA(bounds)
	if bounds.Empty() {
		return out
	}

	if base != nil {
		if base.Bounds().Size() == bounds.Size() {
			draw.Draw(out, bounds, base, base.Bounds().Min, draw.Src)
		} else {
			draw.CatmullRom.Scale(out, bounds, base, base.Bounds(), draw.Src, nil)
		}
	}
	draw.Draw(out, bounds, layer, bounds.Min, draw.Over)

	return out
}

func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
