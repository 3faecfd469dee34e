package overlay

import (
	"image/color"
)

// Surface is a 2D drawing target. Coordinates are in display pixels with
// the origin at the top left; text is positioned by its baseline.
type Surface interface {
	Resize(width, height int)
	Size() (width, height int)
	Clear()
	StrokeRect(x, y, w, h float64, c color.Color, lineWidth float64)
	FillText(text string, x, y float64, c color.Color)
}

// ImageElement is the reference image the surface is laid over.
type ImageElement interface {
	Loaded() bool
	NaturalSize() (width, height int)
	DisplaySize() (width, height int)
}

type OpKind string

const (
	OpStrokeRect OpKind = "stroke_rect"
	OpFillText   OpKind = "fill_text"
)

type Op struct {
	Kind      OpKind
	X, Y      float64
	W, H      float64
	LineWidth float64
	Text      string
	Color     color.RGBA
}

// Recorder is a Surface that keeps the operations currently visible on it.
// Resize and Clear drop everything drawn so far, like a canvas does.
type Recorder struct {
	width, height int
	ops           []Op
	clears        int
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Resize(width, height int) {
	r.width, r.height = width, height
	r.ops = nil
}

func (r *Recorder) Size() (int, int) {
	return r.width, r.height
}

func (r *Recorder) Clear() {
	r.ops = nil
	r.clears++
}

func (r *Recorder) StrokeRect(x, y, w, h float64, c color.Color, lineWidth float64) {
	if r.width == 0 || r.height == 0 {
		return
	}
	r.ops = append(r.ops, Op{Kind: OpStrokeRect, X: x, Y: y, W: w, H: h, LineWidth: lineWidth, Color: toRGBA(c)})
}

func (r *Recorder) FillText(text string, x, y float64, c color.Color) {
	if r.width == 0 || r.height == 0 {
		return
	}
	r.ops = append(r.ops, Op{Kind: OpFillText, X: x, Y: y, Text: text, Color: toRGBA(c)})
}

func (r *Recorder) Ops() []Op {
	out := make([]Op, len(r.ops))
	copy(out, r.ops)
	return out
}

func (r *Recorder) Clears() int {
	return r.clears
}

func toRGBA(c color.Color) color.RGBA {
	if rgba, ok := c.(color.RGBA); ok {
		return rgba
	}
	return color.RGBAModel.Convert(c).(color.RGBA)
}
