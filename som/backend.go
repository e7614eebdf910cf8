package som

import (
	"runtime"

	"github.com/klauspost/cpuid/v2"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/voievodin/batchsom/internal/parallel"
)

// Backend is the set of array operations the training engine is built on.
// Implementations must produce results equal to CPUBackend.
type Backend interface {
	// Name identifies the backend in logs.
	Name() string

	// SquaredDistances fills dst (M×U) with the squared euclidean distance
	// between every row of x (M×F) and every row of w (U×F).
	SquaredDistances(dst *mat.Dense, x, w mat.Matrix)

	// ArgMinRows writes the column index of the smallest value of each row of d to dst.
	// Ties resolve to the lowest column index.
	ArgMinRows(dst []int, d mat.Matrix)

	// ScatterAdd adds row i of src to row idx[i] of dst.
	// Indices may repeat.
	ScatterAdd(dst *mat.Dense, idx []int, src mat.Matrix)

	// Mul stores the matrix product a·b in dst.
	Mul(dst *mat.Dense, a, b mat.Matrix)
}

// BackendKind selects a Backend implementation.
type BackendKind int

const (
	// BackendCPU runs every operation on the calling goroutine.
	BackendCPU BackendKind = iota

	// BackendParallel shards every operation across goroutines.
	BackendParallel

	// BackendAuto probes the CPU and picks BackendParallel on multi-core machines.
	BackendAuto
)

func (k BackendKind) String() string {
	switch k {
	case BackendCPU:
		return "cpu"
	case BackendParallel:
		return "parallel"
	case BackendAuto:
		return "auto"
	default:
		return "unknown"
	}
}

// ParseBackendKind is the inverse of BackendKind.String.
func ParseBackendKind(s string) (BackendKind, bool) {
	for _, k := range []BackendKind{BackendCPU, BackendParallel, BackendAuto} {
		if k.String() == s {
			return k, true
		}
	}
	return BackendCPU, false
}

// NewBackend creates the backend of the given kind.
func NewBackend(kind BackendKind) Backend {
	switch kind {
	case BackendParallel:
		return &ParallelBackend{Workers: defaultWorkers()}
	case BackendAuto:
		if cpuid.CPU.LogicalCores > 1 || runtime.NumCPU() > 1 {
			return &ParallelBackend{Workers: defaultWorkers()}
		}
		return &CPUBackend{}
	default:
		return &CPUBackend{}
	}
}

func defaultWorkers() int {
	if n := cpuid.CPU.PhysicalCores; n > 0 {
		return n
	}
	return runtime.NumCPU()
}

// CPUBackend is the sequential reference implementation.
type CPUBackend struct{}

func (*CPUBackend) Name() string { return "cpu" }

func (*CPUBackend) SquaredDistances(dst *mat.Dense, x, w mat.Matrix) {
	m, _ := x.Dims()
	squaredDistanceRows(dst, x, w, 0, m)
}

func (*CPUBackend) ArgMinRows(dst []int, d mat.Matrix) {
	m, _ := d.Dims()
	argMinRows(dst, d, 0, m)
}

func (*CPUBackend) ScatterAdd(dst *mat.Dense, idx []int, src mat.Matrix) {
	rows, _ := dst.Dims()
	scatterAddRows(dst, idx, src, 0, rows)
}

func (*CPUBackend) Mul(dst *mat.Dense, a, b mat.Matrix) {
	dst.Mul(a, b)
}

// ParallelBackend splits work into contiguous row ranges, one goroutine per range.
// Each output row is computed by exactly one goroutine in the same order as
// CPUBackend, so results are bit-identical.
type ParallelBackend struct {
	Workers int
}

func (pb *ParallelBackend) Name() string { return "parallel" }

func (pb *ParallelBackend) SquaredDistances(dst *mat.Dense, x, w mat.Matrix) {
	m, _ := x.Dims()
	parallel.Chunks(m, pb.Workers, func(lo, hi int) {
		squaredDistanceRows(dst, x, w, lo, hi)
	})
}

func (pb *ParallelBackend) ArgMinRows(dst []int, d mat.Matrix) {
	m, _ := d.Dims()
	parallel.Chunks(m, pb.Workers, func(lo, hi int) {
		argMinRows(dst, d, lo, hi)
	})
}

func (pb *ParallelBackend) ScatterAdd(dst *mat.Dense, idx []int, src mat.Matrix) {
	rows, _ := dst.Dims()
	parallel.Chunks(rows, pb.Workers, func(lo, hi int) {
		scatterAddRows(dst, idx, src, lo, hi)
	})
}

// Mul relies on gonum, which already splits large products across goroutines.
func (pb *ParallelBackend) Mul(dst *mat.Dense, a, b mat.Matrix) {
	dst.Mul(a, b)
}

func squaredDistanceRows(dst *mat.Dense, x, w mat.Matrix, lo, hi int) {
	u, f := w.Dims()
	diff := make([]float64, f)
	xBuf := make([]float64, f)
	wBuf := make([]float64, f)
	for i := lo; i < hi; i++ {
		xi := rowView(x, i, xBuf)
		out := dst.RawRowView(i)
		for j := 0; j < u; j++ {
			floats.SubTo(diff, xi, rowView(w, j, wBuf))
			out[j] = floats.Dot(diff, diff)
		}
	}
}

func argMinRows(dst []int, d mat.Matrix, lo, hi int) {
	_, u := d.Dims()
	buf := make([]float64, u)
	for i := lo; i < hi; i++ {
		dst[i] = floats.MinIdx(rowView(d, i, buf))
	}
}

// scatterAddRows handles destination rows in [lo, hi) only,
// visiting idx in order so every row accumulates in the same sequence.
func scatterAddRows(dst *mat.Dense, idx []int, src mat.Matrix, lo, hi int) {
	_, f := src.Dims()
	buf := make([]float64, f)
	for i, target := range idx {
		if target < lo || target >= hi {
			continue
		}
		floats.Add(dst.RawRowView(target), rowView(src, i, buf))
	}
}

// rowView returns row i of m without copying when m is backed by a *mat.Dense.
func rowView(m mat.Matrix, i int, buf []float64) []float64 {
	if d, ok := m.(mat.RawRowViewer); ok {
		return d.RawRowView(i)
	}
	return mat.Row(buf, i, m)
}
