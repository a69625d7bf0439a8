package stream

import (
	"math"

	"github.com/fogleman/ease"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/winsx/libavg/anim"
)

// OffsetAttr shifts the gradient along the strip, in strip lengths.
const OffsetAttr = "offset"

// A Source exposes the node attributes a Glow renders.
type Source interface {
	Attr(name string) (float64, bool)
}

// A Glow is an Animation that lays a gradient along the strip, scrolled by the
// node's offset and dimmed by its opacity.
type Glow struct {
	source     Source
	gradient   GradientTable
	numPixels  int
	saturation float64
	luminance  float64
}

// NewGlow creates an instance of a Glow object.
func NewGlow(source Source, gradient GradientTable, numPixels int) *Glow {
	if len(gradient) == 0 {
		gradient = DefaultGradient
	}

	g := new(Glow)
	g.source = source
	g.gradient = gradient
	g.numPixels = numPixels
	g.saturation = 1.0
	g.luminance = 0.05
	return g
}

// CalculateFrame creates a new Frame instance.
func (g *Glow) CalculateFrame(runtimeMs int64) *Frame {
	f := NewFrame(g.numPixels)

	// Missing attributes render as dark and unshifted.
	opacity, _ := g.source.Attr(anim.OpacityAttr)
	offset, _ := g.source.Attr(OffsetAttr)

	// LEDs look far brighter than their duty cycle at the low end.
	brightness := ease.InQuad(math.Max(0, math.Min(1, opacity)))
	black := colorful.Color{}

	for i := 0; i < g.numPixels; i++ {
		t := math.Mod(float64(i)/float64(g.numPixels)+offset, 1)
		if t < 0 {
			t++
		}
		c := g.gradient.GetColor(t, g.saturation, g.luminance)
		f.pixels[i] = black.BlendRgb(c, brightness)
	}

	return f
}
