package som_test

import (
	"math"
	"testing"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/voievodin/batchsom/som"
)

func mustTable(t *testing.T, width, height, maxRadius int, kernel som.Kernel) *som.NeighbourhoodTable {
	t.Helper()
	table, err := som.NewNeighbourhoodTable(width, height, maxRadius, kernel)
	if err != nil {
		t.Fatal(err)
	}
	return table
}

func TestNeighbourhoodRadiusZeroIsIdentity(t *testing.T) {
	table := mustTable(t, 5, 3, 2, nil)

	relevance := table.Relevance(0)
	units := table.Units()
	for i := 0; i < units; i++ {
		for j := 0; j < units; j++ {
			expected := 0.0
			if i == j {
				expected = 1
			}
			if relevance.At(i, j) != expected {
				t.Fatalf("Expected identity at radius 0 but (%d, %d) = %f", i, j, relevance.At(i, j))
			}
		}
	}
}

func TestNeighbourhoodLargeRadiusCoversGrid(t *testing.T) {
	width, height := 3, 4
	table := mustTable(t, width, height, height*height, nil)

	relevance := table.Relevance(height * height)
	units := width * height
	for i := 0; i < units; i++ {
		for j := 0; j < units; j++ {
			if relevance.At(i, j) != 1 {
				t.Fatalf("Expected every unit to be a neighbour at the largest radius, (%d, %d) = %f", i, j, relevance.At(i, j))
			}
		}
	}
}

func TestNeighbourhoodIsSymmetricAndBinary(t *testing.T) {
	table := mustTable(t, 6, 4, 3, som.StepKernel{})

	for r := 0; r <= table.MaxRadius(); r++ {
		relevance := table.Relevance(r)
		if !mat.Equal(relevance, relevance.T()) {
			t.Fatalf("Relevance at radius %d is not symmetric", r)
		}
		units := table.Units()
		for i := 0; i < units; i++ {
			for j := 0; j < units; j++ {
				if v := relevance.At(i, j); v != 0 && v != 1 {
					t.Fatalf("Relevance at radius %d (%d, %d) = %f is not binary", r, i, j, v)
				}
			}
		}
	}
}

func TestNeighbourhoodFollowsUnitIndexConvention(t *testing.T) {
	// 4x2 grid:
	// 0 1 2 3
	// 4 5 6 7
	table := mustTable(t, 4, 2, 1, nil)

	relevance := table.Relevance(1)
	expected := map[int]bool{1: true, 4: true, 5: true, 6: true}
	for j := 0; j < 8; j++ {
		got := relevance.At(5, j) == 1
		if got != expected[j] {
			t.Fatalf("Unit %d neighbourship of unit 5 at radius 1: expected %v, got %v", j, expected[j], got)
		}
	}

	// radius 1 keeps diagonals out, sqrt(2) > 1
	if relevance.At(0, 5) != 0 {
		t.Fatal("Diagonal unit must not be within radius 1")
	}
}

func TestNeighbourhoodRelevanceIsClamped(t *testing.T) {
	table := mustTable(t, 3, 3, 2, nil)

	if table.Relevance(-1) != table.Relevance(0) {
		t.Fatal("Negative radius must clamp to 0")
	}
	if table.Relevance(9) != table.Relevance(2) {
		t.Fatal("Radius above max must clamp to max")
	}
}

func TestNeighbourhoodRejectsInvalidGrid(t *testing.T) {
	for _, aCase := range []struct{ w, h, r int }{{0, 1, 0}, {1, 0, 0}, {2, 2, -1}} {
		_, err := som.NewNeighbourhoodTable(aCase.w, aCase.h, aCase.r, nil)
		if errors.Cause(err) != som.ErrConfiguration {
			t.Fatalf("Expected configuration error for %+v, got %v", aCase, err)
		}
	}
}

func TestGaussianKernel(t *testing.T) {
	table := mustTable(t, 4, 4, 2, som.GaussianKernel{})

	if !mat.Equal(table.Relevance(0), mustTable(t, 4, 4, 0, nil).Relevance(0)) {
		t.Fatal("Gaussian kernel at radius 0 must be the identity")
	}

	relevance := table.Relevance(2)
	// unit 0 is (0,0), unit 5 is (1,1), unit 15 is (3,3)
	assertClose(t, relevance.At(0, 0), 1)
	assertClose(t, relevance.At(0, 5), math.Exp(-2.0/8))
	assertClose(t, relevance.At(0, 15), math.Exp(-18.0/8))
	if relevance.At(0, 5) <= relevance.At(0, 15) {
		t.Fatal("Relevance must decay with grid distance")
	}
}

func assertClose(t *testing.T, actual, expected float64) {
	t.Helper()
	if math.Abs(actual-expected) > 1e-12 {
		t.Fatalf("Expected %g, got %g", expected, actual)
	}
}
