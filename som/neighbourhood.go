package som

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Kernel calculates how much a unit at squared grid distance sqDist from the
// BMU takes part in an update when the neighbourhood radius is radius.
// A zero result excludes the unit.
type Kernel interface {
	Apply(sqDist float64, radius int) float64
}

// StepKernel is the binary neighbourhood: 1 within the radius, 0 outside.
type StepKernel struct{}

func (StepKernel) Apply(sqDist float64, radius int) float64 {
	if sqDist <= float64(radius*radius) {
		return 1
	}
	return 0
}

// GaussianKernel calculates relevance as exp(-d**2 / (2*r**2)) so every unit
// takes part with a weight decaying with grid distance.
// Radius 0 still degenerates to the BMU only.
type GaussianKernel struct{}

func (GaussianKernel) Apply(sqDist float64, radius int) float64 {
	if radius == 0 {
		if sqDist == 0 {
			return 1
		}
		return 0
	}
	q := float64(radius)
	return math.Exp(-sqDist / (2 * q * q))
}

// NeighbourhoodTable holds, for every radius 0..MaxRadius, the U×U matrix where
// entry (i, j) is the relevance of unit j to an update won by unit i.
// It is never modified after construction and may be shared freely.
type NeighbourhoodTable struct {
	width, height int
	relevance     []*mat.Dense
}

// NewNeighbourhoodTable precomputes relevance matrices for a width×height grid.
// A nil kernel means StepKernel.
func NewNeighbourhoodTable(width, height, maxRadius int, kernel Kernel) (*NeighbourhoodTable, error) {
	if width < 1 || height < 1 {
		return nil, errors.Wrapf(ErrConfiguration, "grid must be at least 1x1, got %dx%d", width, height)
	}
	if maxRadius < 0 {
		return nil, errors.Wrapf(ErrConfiguration, "neighbourhood radius must not be negative, got %d", maxRadius)
	}
	if kernel == nil {
		kernel = StepKernel{}
	}

	units := width * height
	sqDists := make([]float64, units*units)
	for i := 0; i < units; i++ {
		xi, yi := i%width, i/width
		for j := 0; j < units; j++ {
			dx := float64(j%width - xi)
			dy := float64(j/width - yi)
			sqDists[i*units+j] = dx*dx + dy*dy
		}
	}

	table := &NeighbourhoodTable{
		width:     width,
		height:    height,
		relevance: make([]*mat.Dense, maxRadius+1),
	}
	for r := 0; r <= maxRadius; r++ {
		data := make([]float64, len(sqDists))
		for k, d := range sqDists {
			data[k] = kernel.Apply(d, r)
		}
		table.relevance[r] = mat.NewDense(units, units, data)
	}
	return table, nil
}

// MaxRadius is the largest radius the table was built for.
func (nt *NeighbourhoodTable) MaxRadius() int {
	return len(nt.relevance) - 1
}

// Units returns the number of grid units.
func (nt *NeighbourhoodTable) Units() int {
	return nt.width * nt.height
}

// Relevance returns the relevance matrix for radius, clamped to [0, MaxRadius].
// The result must not be modified.
func (nt *NeighbourhoodTable) Relevance(radius int) *mat.Dense {
	if radius < 0 {
		radius = 0
	}
	if radius > nt.MaxRadius() {
		radius = nt.MaxRadius()
	}
	return nt.relevance[radius]
}
