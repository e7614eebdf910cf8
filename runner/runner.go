// Package runner trains a map on a data set and returns the cell assignments
// together with the parameters of the run.
package runner

import (
	"io"
	"log"
	"os"
	"time"

	"github.com/pkg/errors"

	"github.com/voievodin/batchsom/som"
)

// Runner is a high level interface to the SOM algorithm.
type Runner struct {
	GridWidth  int
	GridHeight int // same as GridWidth if 0

	// MinibatchSize divides the input into mini batches, weights are updated after each batch.
	MinibatchSize int

	// Iterations is the number of passes over the whole input.
	Iterations int

	InitialNeighbourhood int
	Seed                 int64

	// Scale min-max scales every feature column into [0, 1] before training.
	Scale bool

	Backend som.Backend
	Kernel  som.Kernel

	// Verbose prints a progress bar to Out (os.Stdout if nil).
	Verbose bool
	Out     io.Writer

	l *log.Logger
}

// New returns a Runner with the defaults of the command line program.
func New() *Runner {
	return &Runner{
		GridWidth:     10,
		MinibatchSize: 1000,
		Iterations:    100,
		Seed:          1,
		Verbose:       true,
	}
}

// SetLogger sets the logger for run summaries. Nothing is logged without one.
func (r *Runner) SetLogger(l *log.Logger) {
	r.l = l
}

func (r *Runner) logf(format string, args ...interface{}) {
	if r.l != nil {
		r.l.Printf(format, args...)
	}
}

// FitTransform fits a map on ds and returns the assignment of every vector.
// ds is not modified.
func (r *Runner) FitTransform(ds *som.DataSet) (*Assignments, error) {
	if ds.Len() == 0 {
		return nil, som.ErrNoDataLeft
	}
	gridHeight := r.GridHeight
	if gridHeight == 0 {
		gridHeight = r.GridWidth
	}

	instances := ds.Matrix()
	if r.Scale {
		scaled := &som.DataSet{Vectors: append([]som.DataVector(nil), ds.Vectors...)}
		scaled.Adapt(som.NewScalingDataAdapterFromSet(ds))
		instances = scaled.Matrix()
	}

	var progress *Progress
	cfg := som.Config{
		GridWidth:            r.GridWidth,
		GridHeight:           gridHeight,
		Iterations:           r.Iterations,
		InitialNeighbourhood: r.InitialNeighbourhood,
		Seed:                 r.Seed,
		MinibatchSize:        r.MinibatchSize,
		Backend:              r.Backend,
		Kernel:               r.Kernel,
		Logger:               r.l,
	}
	if r.Verbose {
		out := r.Out
		if out == nil {
			out = os.Stdout
		}
		progress = NewProgress("SOM", out)
		cfg.Progress = progress.Report
	}

	somap, err := som.New(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "creating map")
	}

	start := time.Now()
	scores, err := somap.FitTransform(instances)
	if err != nil {
		return nil, errors.Wrap(err, "training map")
	}
	if progress != nil {
		if err := progress.Complete("Fit-Transform completed"); err != nil {
			return nil, err
		}
	}
	r.logf("trained %dx%d map on %d cases in %s", r.GridWidth, gridHeight, ds.Len(), time.Since(start).Round(time.Millisecond))

	return &Assignments{
		Scores:        scores,
		Labels:        append([]string(nil), ds.Labels...),
		GridWidth:     r.GridWidth,
		GridHeight:    gridHeight,
		Iterations:    r.Iterations,
		MinibatchSize: r.MinibatchSize,
	}, nil
}
