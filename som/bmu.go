package som

import "gonum.org/v1/gonum/mat"

// FindBMUs returns, for every row of instances, the index of the closest row of
// weights by squared euclidean distance. Ties go to the lowest unit index.
func FindBMUs(b Backend, instances, weights mat.Matrix) []int {
	m, _ := instances.Dims()
	u, _ := weights.Dims()

	distances := mat.NewDense(m, u, nil)
	b.SquaredDistances(distances, instances, weights)

	bmus := make([]int, m)
	b.ArgMinRows(bmus, distances)
	return bmus
}
