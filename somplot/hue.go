package somplot

import (
	"image/color"
	"math"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/pkg/errors"
	"golang.org/x/image/colornames"
)

// ParseColor reads "#rgb", "#rrggbb", "#rrggbbaa" (alpha ignored) or a web colour name.
func ParseColor(s string) (colorful.Color, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "#") {
		if len(s) == 9 {
			s = s[:7]
		}
		c, err := colorful.Hex(s)
		if err != nil {
			return colorful.Color{}, errors.Wrapf(err, "parsing colour %q", s)
		}
		return c, nil
	}
	if rgba, ok := colornames.Map[strings.ToLower(s)]; ok {
		c, _ := colorful.MakeColor(rgba)
		return c, nil
	}
	return colorful.Color{}, errors.Errorf("unknown colour %q", s)
}

// Hue maps values in [min, max] onto a ramp of evenly spaced colours,
// values outside the range (and NaN) get the default colour.
type Hue struct {
	min, max     float64
	ramp         []colorful.Color
	defaultColor color.Color
}

func NewHue(min, max float64, colors []string, defaultColor string) (*Hue, error) {
	if len(colors) == 0 {
		return nil, errors.New("colour ramp needs at least one colour")
	}
	if min > max {
		return nil, errors.Errorf("colour range is inverted, %g > %g", min, max)
	}
	h := &Hue{min: min, max: max}
	for _, s := range colors {
		c, err := ParseColor(s)
		if err != nil {
			return nil, err
		}
		h.ramp = append(h.ramp, c)
	}
	c, err := ParseColor(defaultColor)
	if err != nil {
		return nil, err
	}
	h.defaultColor = c
	return h, nil
}

func (h *Hue) Min() float64 { return h.min }
func (h *Hue) Max() float64 { return h.max }

// DefaultColor is used for empty cells and out of range values.
func (h *Hue) DefaultColor() color.Color { return h.defaultColor }

func (h *Hue) At(v float64) color.Color {
	if math.IsNaN(v) || v < h.min || v > h.max {
		return h.defaultColor
	}
	if len(h.ramp) == 1 || h.max == h.min {
		return h.ramp[0]
	}

	interval := (h.max - h.min) / float64(len(h.ramp)-1)
	idx := int((v - h.min) / interval)
	if idx > len(h.ramp)-2 {
		idx = len(h.ramp) - 2
	}
	frac := (v - h.min - float64(idx)*interval) / interval
	return h.ramp[idx].BlendRgb(h.ramp[idx+1], frac).Clamped()
}
