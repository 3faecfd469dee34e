// Package overlay paints detection results over the uploaded image.
//
// Bounding boxes are expected in the display space of the reference image.
// When the detector reports coordinates in the image's native resolution,
// enable scaling so boxes are multiplied by display/natural per axis.
package overlay

import (
	"errors"
	"fmt"

	"DetectionViewer/internal/entity"
	"DetectionViewer/pkg/detail"

	"github.com/sirupsen/logrus"
)

const (
	DefaultLineWidth = 3

	labelAboveOffset = 5
	labelBelowOffset = 20
	labelFlipLimit   = 20
)

var ErrImageNotLoaded = errors.New("reference image has not finished loading")

type Renderer struct {
	lineWidth      float64
	palette        Palette
	scaleToDisplay bool
	log            *logrus.Logger
}

type Option func(*Renderer)

func WithLineWidth(w float64) Option {
	return func(r *Renderer) {
		r.lineWidth = w
	}
}

func WithPalette(p Palette) Option {
	return func(r *Renderer) {
		r.palette = p
	}
}

func WithScaleToDisplay(enabled bool) Option {
	return func(r *Renderer) {
		r.scaleToDisplay = enabled
	}
}

func WithLogger(log *logrus.Logger) Option {
	return func(r *Renderer) {
		r.log = log
	}
}

func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{
		lineWidth: DefaultLineWidth,
		palette:   DefaultPalette(),
		log:       logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render sizes the surface to the element's display size, clears it and
// paints every result in order. Later results are painted on top.
func (r *Renderer) Render(surface Surface, element ImageElement, results []entity.ResultModel) error {
	return r.render(surface, element, results, r.scaleToDisplay)
}

// RenderScaled is Render with an explicit scaling choice for one call.
func (r *Renderer) RenderScaled(surface Surface, element ImageElement, results []entity.ResultModel, scaleToDisplay bool) error {
	return r.render(surface, element, results, scaleToDisplay)
}

func (r *Renderer) render(surface Surface, element ImageElement, results []entity.ResultModel, scaleToDisplay bool) error {
	if element == nil || !element.Loaded() {
		return ErrImageNotLoaded
	}

	width, height := element.DisplaySize()
	surface.Resize(width, height)
	surface.Clear()

	if width <= 0 || height <= 0 {
		return nil
	}

	sx, sy := 1.0, 1.0
	if scaleToDisplay {
		sx, sy = displayScale(element)
	}

	for i, res := range results {
		box := res.BBox.Scale(sx, sy)
		if !box.Finite() {
			r.log.WithFields(logrus.Fields{
				"index": i,
				"label": res.Label,
				"bbox":  fmt.Sprint(res.BBox),
			}).Warn("Skipping result with non-finite bounding box")
			continue
		}

		c := r.palette.Color(i, res.Label)
		surface.StrokeRect(box.X1(), box.Y1(), box.X2()-box.X1(), box.Y2()-box.Y1(), c, r.lineWidth)

		x, y := LabelAnchor(box)
		surface.FillText(LabelText(res), x, y, c)
	}

	return nil
}

// LabelText is "<label>: <score as percent>".
func LabelText(res entity.ResultModel) string {
	return fmt.Sprintf("%s: %s", res.Label, detail.Percent(res.Score))
}

// LabelAnchor places the label above the box unless that would clip it at
// the top edge.
func LabelAnchor(box entity.BBox) (float64, float64) {
	if box.Y1() > labelFlipLimit {
		return box.X1(), box.Y1() - labelAboveOffset
	}
	return box.X1(), box.Y1() + labelBelowOffset
}

func displayScale(element ImageElement) (float64, float64) {
	nw, nh := element.NaturalSize()
	dw, dh := element.DisplaySize()
	if nw <= 0 || nh <= 0 {
		return 1, 1
	}
	return float64(dw) / float64(nw), float64(dh) / float64(nh)
}
