package overlay

import (
	"hash/fnv"
	"image/color"
	"math"

	"DetectionViewer/internal/entity"

	"github.com/lucasb-eyer/go-colorful"
)

// goldenAngle spreads consecutive hues as far apart as possible.
const goldenAngle = 137.50776405003785

type Palette interface {
	Color(index int, label entity.Label) color.RGBA
}

// IndexPalette colors boxes by their position in the result list.
type IndexPalette struct {
	Saturation float64
	Value      float64
}

func (p IndexPalette) Color(index int, _ entity.Label) color.RGBA {
	hue := math.Mod(float64(index)*goldenAngle, 360)
	return hsv(hue, p.Saturation, p.Value)
}

// LabelPalette gives every box of the same class the same color.
type LabelPalette struct {
	Saturation float64
	Value      float64
}

func (p LabelPalette) Color(_ int, label entity.Label) color.RGBA {
	h := fnv.New32a()
	_, _ = h.Write([]byte(label))
	hue := math.Mod(float64(h.Sum32()%360)*goldenAngle, 360)
	return hsv(hue, p.Saturation, p.Value)
}

func DefaultPalette() Palette {
	return IndexPalette{Saturation: 0.85, Value: 0.95}
}

func hsv(h, s, v float64) color.RGBA {
	r, g, b := colorful.Hsv(h, s, v).Clamped().RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 0xff}
}
