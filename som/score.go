package som

import "gonum.org/v1/gonum/mat"

// Coord is a position on the map grid.
type Coord struct {
	X, Y int
}

// UnitCoord converts a unit index to its grid position.
func UnitCoord(unit, gridWidth int) Coord {
	return Coord{X: unit % gridWidth, Y: unit / gridWidth}
}

// ComputeScores returns the grid position of the BMU of every row of instances.
// A positive minibatchSize processes instances in contiguous chunks of that
// size; the result is the same as scoring all rows at once.
func ComputeScores(b Backend, instances, weights mat.Matrix, gridWidth, minibatchSize int) []Coord {
	n, f := instances.Dims()
	batchSize := n
	if minibatchSize > 0 {
		batchSize = minibatchSize
	}

	scores := make([]Coord, 0, n)
	for index := 0; index < n; index += batchSize {
		last := index + batchSize
		if last > n {
			last = n
		}
		for _, bmu := range FindBMUs(b, sliceRows(instances, index, last, f), weights) {
			scores = append(scores, UnitCoord(bmu, gridWidth))
		}
	}
	return scores
}

// sliceRows returns rows [lo, hi) of m, sharing storage when m is a *mat.Dense.
func sliceRows(m mat.Matrix, lo, hi, cols int) mat.Matrix {
	if d, ok := m.(*mat.Dense); ok {
		return d.Slice(lo, hi, 0, cols)
	}
	out := mat.NewDense(hi-lo, cols, nil)
	for i := lo; i < hi; i++ {
		for j := 0; j < cols; j++ {
			out.Set(i-lo, j, m.At(i, j))
		}
	}
	return out
}
