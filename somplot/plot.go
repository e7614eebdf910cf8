// Package somplot draws the cells of a trained map with the cases assigned to them.
package somplot

import (
	"fmt"
	"image/color"
	"io"
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/voievodin/batchsom/runner"
	"github.com/voievodin/batchsom/som"
)

// Options controls colouring. Zero values select defaults.
type Options struct {
	Title string

	// Colors is the colour ramp, yellow to red if empty.
	Colors []string
	// DefaultColor fills empty cells, #A0A0A0 if empty.
	DefaultColor string

	// Min and Max bound the colour ramp, the range of cell values if nil.
	Min, Max *float64

	// Labels draws case labels next to their markers.
	Labels bool

	// CellSize is the drawn size of a cell, 40pt if 0.
	CellSize vg.Length
}

func (o *Options) setDefaults() {
	if len(o.Colors) == 0 {
		o.Colors = []string{"yellow", "red"}
	}
	if o.DefaultColor == "" {
		o.DefaultColor = "#A0A0A0"
	}
	if o.CellSize == 0 {
		o.CellSize = vg.Points(40)
	}
}

// CellValues computes the value each occupied cell is coloured by: the number
// of cases when values is nil, otherwise the mean of the cases' values
// (NaN values are skipped).
func CellValues(a *runner.Assignments, values []float64) (map[som.Coord]float64, error) {
	if values != nil && len(values) != a.Len() {
		return nil, errors.Wrapf(som.ErrShape, "%d values for %d cases", len(values), a.Len())
	}

	cellValues := make(map[som.Coord]float64)
	for cell, members := range a.Members() {
		if values == nil {
			cellValues[cell] = float64(len(members))
			continue
		}
		x := make([]float64, 0, len(members))
		for _, i := range members {
			if !math.IsNaN(values[i]) {
				x = append(x, values[i])
			}
		}
		if len(x) > 0 {
			cellValues[cell] = stat.Mean(x, nil)
		}
	}
	return cellValues, nil
}

// Plot draws the map grid of a. Cells are coloured by frequency (values == nil)
// or by the mean of values, and every assigned case is drawn as a marker.
func Plot(a *runner.Assignments, values []float64, opts Options) (*plot.Plot, error) {
	opts.setDefaults()

	cellValues, err := CellValues(a, values)
	if err != nil {
		return nil, err
	}
	min, max := valueRange(cellValues, values == nil)
	if opts.Min != nil {
		min = *opts.Min
	}
	if opts.Max != nil {
		max = *opts.Max
	}
	hue, err := NewHue(min, max, opts.Colors, opts.DefaultColor)
	if err != nil {
		return nil, err
	}

	p := plot.New()
	p.Title.Text = opts.Title
	p.X.Label.Text = "x"
	p.Y.Label.Text = "y"
	p.Y.Scale = plot.InvertedScale{Normalizer: plot.LinearScale{}}
	p.X.Min, p.X.Max = 0, float64(a.GridWidth)
	p.Y.Min, p.Y.Max = 0, float64(a.GridHeight)

	grid := &cells{width: a.GridWidth, height: a.GridHeight, colors: make(map[som.Coord]color.Color), empty: hue.DefaultColor()}
	for cell, v := range cellValues {
		grid.colors[cell] = hue.At(v)
	}
	p.Add(grid)

	markers, cases := casePositions(a)
	if len(markers) > 0 {
		scatter, err := plotter.NewScatter(markers)
		if err != nil {
			return nil, errors.Wrap(err, "plotting cases")
		}
		scatter.GlyphStyle = draw.GlyphStyle{Color: color.Gray{Y: 0x80}, Radius: vg.Points(2), Shape: draw.CircleGlyph{}}
		if values != nil {
			scatter.GlyphStyleFunc = func(i int) draw.GlyphStyle {
				style := scatter.GlyphStyle
				style.Color = hue.At(values[cases[i]])
				return style
			}
		}
		p.Add(scatter)

		if opts.Labels {
			names := make([]string, len(cases))
			for k, i := range cases {
				names[k] = a.Label(i)
			}
			l, err := plotter.NewLabels(plotter.XYLabels{XYs: markers, Labels: names})
			if err != nil {
				return nil, errors.Wrap(err, "plotting labels")
			}
			l.Offset = vg.Point{X: vg.Points(4)}
			p.Add(l)
		}
	}

	p.Legend.Add(fmt.Sprintf("%.2f", hue.Max()), swatch{hue.At(hue.Max())})
	p.Legend.Add(fmt.Sprintf("%.2f", hue.Min()), swatch{hue.At(hue.Min())})
	p.Legend.Left = false
	p.Legend.XOffs = opts.CellSize

	return p, nil
}

// Size returns the drawing size for a grid: one CellSize per cell plus margins for axes and legend.
func Size(a *runner.Assignments, opts Options) (vg.Length, vg.Length) {
	opts.setDefaults()
	return vg.Length(a.GridWidth+3) * opts.CellSize, vg.Length(a.GridHeight+1) * opts.CellSize
}

// Save plots a and writes it to path, the format follows the extension (.svg, .png, .pdf, ...).
func Save(path string, a *runner.Assignments, values []float64, opts Options) error {
	p, err := Plot(a, values, opts)
	if err != nil {
		return err
	}
	w, h := Size(a, opts)
	return errors.Wrapf(p.Save(w, h, path), "saving plot to %s", path)
}

// WriteSVG plots a as SVG to w.
func WriteSVG(w io.Writer, a *runner.Assignments, values []float64, opts Options) error {
	p, err := Plot(a, values, opts)
	if err != nil {
		return err
	}
	width, height := Size(a, opts)
	wt, err := p.WriterTo(width, height, "svg")
	if err != nil {
		return errors.Wrap(err, "rendering svg")
	}
	_, err = wt.WriteTo(w)
	return errors.Wrap(err, "writing svg")
}

// valueRange is [0, max frequency] for frequencies, else the range of cell values.
func valueRange(cellValues map[som.Coord]float64, frequencies bool) (float64, float64) {
	if len(cellValues) == 0 {
		return 0, 0
	}
	min, max := math.Inf(1), math.Inf(-1)
	if frequencies {
		min = 0
	}
	for _, v := range cellValues {
		min = math.Min(min, v)
		max = math.Max(max, v)
	}
	return min, max
}

// casePositions stacks the markers of a cell vertically inside it.
// The second result holds the case index of every marker.
func casePositions(a *runner.Assignments) (plotter.XYs, []int) {
	var xys plotter.XYs
	var cases []int
	byCell := a.Members()
	for x := 0; x < a.GridWidth; x++ {
		for y := 0; y < a.GridHeight; y++ {
			members := byCell[som.Coord{X: x, Y: y}]
			for k, i := range members {
				dy := 0.0
				if len(members) > 1 {
					dy = 0.6 * float64(k) / float64(len(members)-1)
				}
				xys = append(xys, plotter.XY{X: float64(x) + 0.3, Y: float64(y) + 0.2 + dy})
				cases = append(cases, i)
			}
		}
	}
	return xys, cases
}

// cells fills every grid cell with its colour.
type cells struct {
	width, height int
	colors        map[som.Coord]color.Color
	empty         color.Color
}

func (c *cells) Plot(canvas draw.Canvas, p *plot.Plot) {
	trX, trY := p.Transforms(&canvas)
	for x := 0; x < c.width; x++ {
		for y := 0; y < c.height; y++ {
			fill, ok := c.colors[som.Coord{X: x, Y: y}]
			if !ok {
				fill = c.empty
			}
			x0, x1 := trX(float64(x)), trX(float64(x+1))
			y0, y1 := trY(float64(y)), trY(float64(y+1))
			canvas.FillPolygon(fill, []vg.Point{{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1}})
		}
	}
}

func (c *cells) DataRange() (xmin, xmax, ymin, ymax float64) {
	return 0, float64(c.width), 0, float64(c.height)
}

// swatch is a legend thumbnail filled with one colour.
type swatch struct {
	color color.Color
}

func (s swatch) Thumbnail(c *draw.Canvas) {
	r := c.Rectangle
	c.FillPolygon(s.color, []vg.Point{r.Min, {X: r.Max.X, Y: r.Min.Y}, r.Max, {X: r.Min.X, Y: r.Max.Y}})
}
