package som_test

import (
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/voievodin/batchsom/som"
)

func identity(n int) *mat.Dense {
	m := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		m.Set(i, i, 1)
	}
	return m
}

func TestTrainBatchWithIdentityAveragesTowardsWinners(t *testing.T) {
	weights := mat.NewDense(2, 1, []float64{0, 10})
	instances := mat.NewDense(3, 1, []float64{1, 3, 9})

	som.TrainBatch(&som.CPUBackend{}, instances, weights, 0.5, identity(2))

	// unit 0 wins 1 and 3: 0 + 0.5 * mean(1, 3) = 1
	// unit 1 wins 9: 10 + 0.5 * (9 - 10) = 9.5
	assertEq(t, weights.At(0, 0), 1.0)
	assertEq(t, weights.At(1, 0), 9.5)
}

func TestTrainBatchLeavesUnpulledUnitsUnchanged(t *testing.T) {
	weights := mat.NewDense(3, 2, []float64{
		0, 0,
		10, 10,
		100, 100,
	})
	instances := mat.NewDense(2, 2, []float64{
		1, 0,
		0, 1,
	})

	som.TrainBatch(&som.CPUBackend{}, instances, weights, 0.1, identity(3))

	assertEq(t, weights.At(1, 0), 10.0)
	assertEq(t, weights.At(1, 1), 10.0)
	assertEq(t, weights.At(2, 0), 100.0)
	assertEq(t, weights.At(2, 1), 100.0)
}

func TestTrainBatchDividesByContributors(t *testing.T) {
	weights := mat.NewDense(2, 1, []float64{0, 10})
	instances := mat.NewDense(3, 1, []float64{1, 3, 9})
	everyone := mat.NewDense(2, 2, []float64{1, 1, 1, 1})

	som.TrainBatch(&som.CPUBackend{}, instances, weights, 0.75, everyone)

	// both units are pulled by all three instances
	// unit 0: 0 + 0.75 * (13 - 3*0) / 3 = 3.25
	// unit 1: 10 + 0.75 * (13 - 3*10) / 3 = 5.75
	assertEq(t, weights.At(0, 0), 3.25)
	assertEq(t, weights.At(1, 0), 5.75)
}

// trainBatchReference applies every (instance, unit) pull one by one.
func trainBatchReference(instances, weights *mat.Dense, learnRate float64, relevance mat.Matrix) {
	m, f := instances.Dims()
	u, _ := weights.Dims()
	winners := som.FindBMUs(&som.CPUBackend{}, instances, weights)

	numerator := mat.NewDense(u, f, nil)
	denominator := make([]float64, u)
	for i := 0; i < m; i++ {
		for j := 0; j < u; j++ {
			rel := relevance.At(winners[i], j)
			if rel == 0 {
				continue
			}
			for k := 0; k < f; k++ {
				pull := -learnRate * rel * (weights.At(j, k) - instances.At(i, k))
				numerator.Set(j, k, numerator.At(j, k)+pull)
			}
			denominator[j]++
		}
	}
	for j := 0; j < u; j++ {
		d := denominator[j]
		if d == 0 {
			d = 1
		}
		for k := 0; k < f; k++ {
			weights.Set(j, k, weights.At(j, k)+numerator.At(j, k)/d)
		}
	}
}

func TestTrainBatchMatchesPairwiseUpdates(t *testing.T) {
	rng := rand.New(rand.NewSource(31))
	for _, kernel := range []som.Kernel{som.StepKernel{}, som.GaussianKernel{}} {
		table := mustTable(t, 6, 5, 3, kernel)
		for r := 0; r <= 3; r++ {
			instances := randInstances(rng, 150, 7)
			weights := randInstances(rng, 30, 7)
			expected := mat.DenseCopyOf(weights)

			trainBatchReference(instances, expected, 0.05, table.Relevance(r))
			for name, b := range backends() {
				actual := mat.DenseCopyOf(weights)
				som.TrainBatch(b, instances, actual, 0.05, table.Relevance(r))
				if !mat.EqualApprox(expected, actual, 1e-12) {
					t.Fatalf("%s, kernel %T, radius %d: batch update differs from pairwise update", name, kernel, r)
				}
			}
		}
	}
}

func BenchmarkTrainBatch(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	instances := randInstances(rng, 1000, 50)
	weights := randInstances(rng, 100, 50)
	table, err := som.NewNeighbourhoodTable(10, 10, 5, nil)
	if err != nil {
		b.Fatal(err)
	}
	backend := &som.CPUBackend{}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		som.TrainBatch(backend, instances, weights, 0.01, table.Relevance(3))
	}
}
