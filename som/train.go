package som

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// TrainBatch moves weights towards the instances of one batch in a single pass.
//
// Every instance pulls each unit j that neighbours its BMU b by
// learnRate * relevance[b, j] * (instance - w_j). A unit receives the mean of
// the pulls it collects: their sum divided by the number of contributing
// (instance, unit) pairs. Units nobody pulls keep their weights.
//
// The sums are formed per BMU first (scatter-add of instances and counts) and
// then spread to neighbours with relevanceᵀ products, which equals summing the
// individual pulls.
func TrainBatch(b Backend, instances, weights *mat.Dense, learnRate float64, relevance mat.Matrix) {
	m, f := instances.Dims()
	u, _ := weights.Dims()

	winners := FindBMUs(b, instances, weights)

	// per-winner instance sums and hit counts
	sums := mat.NewDense(u, f, nil)
	b.ScatterAdd(sums, winners, instances)
	hits := mat.NewDense(u, 1, nil)
	b.ScatterAdd(hits, winners, ones(m))

	// pulled_j = Σ_b rel[b,j] * sums_b, mass_j = Σ_b rel[b,j] * hits_b
	pulled := mat.NewDense(u, f, nil)
	b.Mul(pulled, relevance.T(), sums)
	mass := mat.NewDense(u, 1, nil)
	b.Mul(mass, relevance.T(), hits)

	// contributors_j = Σ_b [rel[b,j] != 0] * hits_b
	contributors := mat.NewDense(u, 1, nil)
	b.Mul(contributors, support(relevance).T(), hits)

	for j := 0; j < u; j++ {
		n := contributors.At(j, 0)
		if n == 0 {
			// nothing pulls this unit; the numerator is zero as well
			n = 1
		}
		w := weights.RawRowView(j)
		numerator := pulled.RawRowView(j)
		floats.AddScaled(numerator, -mass.At(j, 0), w)
		floats.AddScaled(w, learnRate/n, numerator)
	}
}

func ones(n int) *mat.Dense {
	data := make([]float64, n)
	for i := range data {
		data[i] = 1
	}
	return mat.NewDense(n, 1, data)
}

// support returns the 0/1 mask of non-zero relevance entries.
func support(relevance mat.Matrix) mat.Matrix {
	r, c := relevance.Dims()
	mask := mat.NewDense(r, c, nil)
	mask.Apply(func(i, j int, v float64) float64 {
		if v != 0 {
			return 1
		}
		return 0
	}, relevance)
	return mask
}
