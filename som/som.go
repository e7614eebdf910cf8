// Package som provides batch training of Self-Organizing Maps.
// See https://en.wikipedia.org/wiki/Self-organizing_map.
//
// SOM - Self-Organizing Map
// BMU - Best Matching Unit
//
// The map is a GridWidth×GridHeight grid of units, each holding a weight vector.
// Unit u sits at x = u % GridWidth, y = u / GridWidth. Every epoch moves the
// weights towards the whole (optionally minibatched) training set at once,
// with a learning rate and neighbourhood radius that shrink linearly.
package som

import (
	"fmt"
	"io"
	"log"
	"math"
	"math/rand"
	"time"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

const (
	DefaultLearnRateInitial = 0.01
	DefaultLearnRateFinal   = 0.001
)

// Config describes a training run. Zero values select defaults.
type Config struct {
	GridWidth, GridHeight int

	// Iterations is the number of epochs.
	Iterations int

	// InitialNeighbourhood is the starting radius in cells, GridWidth/2 if 0.
	InitialNeighbourhood int

	// Seed makes shuffling and weight initialization repeatable, 0 seeds from the clock.
	Seed int64

	// MinibatchSize splits the training set into chunks updated one after another, 0 means one chunk.
	MinibatchSize int

	LearnRateInitial float64
	LearnRateFinal   float64

	// Backend runs the array operations, CPUBackend if nil.
	Backend Backend

	// Kernel builds the neighbourhood table, StepKernel if nil.
	Kernel Kernel

	// Progress is called between epochs. It must not touch the SOM.
	Progress ProgressFunc

	Logger *log.Logger
}

func (cfg *Config) setDefaults() {
	if cfg.InitialNeighbourhood == 0 {
		cfg.InitialNeighbourhood = cfg.GridWidth / 2
	}
	if cfg.LearnRateInitial == 0 {
		cfg.LearnRateInitial = DefaultLearnRateInitial
	}
	if cfg.LearnRateFinal == 0 {
		cfg.LearnRateFinal = DefaultLearnRateFinal
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	if cfg.Backend == nil {
		cfg.Backend = &CPUBackend{}
	}
	if cfg.Kernel == nil {
		cfg.Kernel = StepKernel{}
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard, "", 0)
	}
}

func (cfg *Config) validate() error {
	if cfg.GridWidth < 1 || cfg.GridHeight < 1 {
		return errors.Wrapf(ErrConfiguration, "grid must be at least 1x1, got %dx%d", cfg.GridWidth, cfg.GridHeight)
	}
	if cfg.Iterations < 1 {
		return errors.Wrapf(ErrConfiguration, "iterations must be positive, got %d", cfg.Iterations)
	}
	if cfg.InitialNeighbourhood < 0 {
		return errors.Wrapf(ErrConfiguration, "initial neighbourhood must not be negative, got %d", cfg.InitialNeighbourhood)
	}
	if cfg.MinibatchSize < 0 {
		return errors.Wrapf(ErrConfiguration, "minibatch size must not be negative, got %d", cfg.MinibatchSize)
	}
	if cfg.LearnRateFinal <= 0 || cfg.LearnRateInitial <= cfg.LearnRateFinal {
		return errors.Wrapf(ErrConfiguration, "learning rate must decay from %g to %g above zero", cfg.LearnRateInitial, cfg.LearnRateFinal)
	}
	return nil
}

// WeightsInitializer sets initial unit weights from the (shuffled) training instances.
// Called within FitTransform before anything else.
type WeightsInitializer interface {
	Init(rng *rand.Rand, instances, weights *mat.Dense)
}

// RandDataSetVectorsWeightsInitializer copies a randomly chosen instance into
// every unit, sampling with replacement, so weights start within the data.
type RandDataSetVectorsWeightsInitializer struct{}

func (*RandDataSetVectorsWeightsInitializer) Init(rng *rand.Rand, instances, weights *mat.Dense) {
	n, _ := instances.Dims()
	units, _ := weights.Dims()
	for u := 0; u < units; u++ {
		weights.SetRow(u, instances.RawRowView(rng.Intn(n)))
	}
}

// SOM is a map itself.
// It carries the neighbourhood table and, once trained, the weight matrix.
// A SOM must not be trained from several goroutines at once.
type SOM struct {
	Initializer WeightsInitializer
	Restraint   RestraintFunc

	cfg     Config
	table   *NeighbourhoodTable
	rng     *rand.Rand
	weights *mat.Dense
}

// New validates cfg and builds the neighbourhood table.
func New(cfg Config) (*SOM, error) {
	cfg.setDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	table, err := NewNeighbourhoodTable(cfg.GridWidth, cfg.GridHeight, cfg.InitialNeighbourhood, cfg.Kernel)
	if err != nil {
		return nil, err
	}

	return &SOM{
		Initializer: &RandDataSetVectorsWeightsInitializer{},
		Restraint:   &LinearRestraintFunc{InitialRate: cfg.LearnRateInitial, FinalRate: cfg.LearnRateFinal},
		cfg:         cfg,
		table:       table,
		rng:         rand.New(rand.NewSource(cfg.Seed)),
	}, nil
}

// Units returns the number of grid units.
func (som *SOM) Units() int {
	return som.cfg.GridWidth * som.cfg.GridHeight
}

// Config returns the configuration with defaults applied.
func (som *SOM) Config() Config {
	return som.cfg
}

// Neighbourhood returns the precomputed neighbourhood table.
func (som *SOM) Neighbourhood() *NeighbourhoodTable {
	return som.table
}

// FitTransform trains the map on instances (cases×features) and returns the
// grid x,y of every case's BMU. Rows containing NaN take no part in training
// and get NaN,NaN. If no row is valid the result is all NaN and no error.
func (som *SOM) FitTransform(instances *mat.Dense) (*mat.Dense, error) {
	cfg := som.cfg
	n, f := instances.Dims()
	valid, validInstances := validRows(instances)
	if len(valid) == 0 {
		cfg.Logger.Printf("all %d cases contain NaN, nothing to train on", n)
		return nanMatrix(n, 2), nil
	}
	cfg.Logger.Printf("training %dx%d map on %d of %d cases (%d features), backend=%s",
		cfg.GridWidth, cfg.GridHeight, len(valid), n, f, cfg.Backend.Name())
	cfg.Logger.Printf("neighbourhood table holds %d radii of %dx%d", som.table.MaxRadius()+1, som.Units(), som.Units())

	training := mat.DenseCopyOf(validInstances)
	shuffleRows(som.rng, training)

	weights := mat.NewDense(som.Units(), f, nil)
	som.Initializer.Init(som.rng, training, weights)

	progress := &progressThrottle{sink: cfg.Progress}
	if err := progress.report("Starting", 0); err != nil {
		return nil, errors.Wrap(err, "reporting progress")
	}

	nValid := len(valid)
	batchSize := nValid
	if cfg.MinibatchSize > 0 {
		batchSize = cfg.MinibatchSize
	}
	for it := 0; it < cfg.Iterations; it++ {
		learnRate := som.Restraint.Apply(it, cfg.Iterations)
		radius := NeighbourhoodRadius(cfg.InitialNeighbourhood, it, cfg.Iterations)
		relevance := som.table.Relevance(radius)

		for index := 0; index < nValid; index += batchSize {
			last := index + batchSize
			if last > nValid {
				last = nValid
			}
			TrainBatch(cfg.Backend, training.Slice(index, last, 0, f).(*mat.Dense), weights, learnRate, relevance)
		}

		status := fmt.Sprintf("Training neighbourhood=%d", radius)
		if err := progress.report(status, float64(it)/float64(cfg.Iterations)); err != nil {
			return nil, errors.Wrapf(err, "reporting progress at epoch %d", it)
		}
	}
	som.weights = weights

	scores := nanMatrix(n, 2)
	coords := ComputeScores(cfg.Backend, validInstances, weights, cfg.GridWidth, cfg.MinibatchSize)
	for k, row := range valid {
		scores.Set(row, 0, float64(coords[k].X))
		scores.Set(row, 1, float64(coords[k].Y))
	}
	return scores, nil
}

// Transform returns BMU grid positions of instances against the trained
// weights, with the same NaN handling as FitTransform.
func (som *SOM) Transform(instances *mat.Dense) (*mat.Dense, error) {
	if som.weights == nil {
		return nil, ErrNotTrained
	}
	n, f := instances.Dims()
	if _, wf := som.weights.Dims(); wf != f {
		return nil, errors.Wrapf(ErrShape, "map trained on %d features, got %d", wf, f)
	}

	scores := nanMatrix(n, 2)
	valid, validInstances := validRows(instances)
	if len(valid) == 0 {
		return scores, nil
	}
	coords := ComputeScores(som.cfg.Backend, validInstances, som.weights, som.cfg.GridWidth, som.cfg.MinibatchSize)
	for k, row := range valid {
		scores.Set(row, 0, float64(coords[k].X))
		scores.Set(row, 1, float64(coords[k].Y))
	}
	return scores, nil
}

// BMU returns the grid position of the unit closest to vector.
func (som *SOM) BMU(vector DataVector) (Coord, error) {
	if som.weights == nil {
		return Coord{}, ErrNotTrained
	}
	if _, wf := som.weights.Dims(); wf != len(vector) {
		return Coord{}, errors.Wrapf(ErrShape, "map trained on %d features, got %d", wf, len(vector))
	}
	x := mat.NewDense(1, len(vector), append([]float64(nil), vector...))
	return UnitCoord(FindBMUs(som.cfg.Backend, x, som.weights)[0], som.cfg.GridWidth), nil
}

// Weights returns a copy of the trained unit×feature weight matrix, nil before training.
func (som *SOM) Weights() *mat.Dense {
	if som.weights == nil {
		return nil
	}
	return mat.DenseCopyOf(som.weights)
}

// validRows returns the indices of rows without NaN and a matrix holding those rows.
func validRows(instances *mat.Dense) ([]int, *mat.Dense) {
	n, f := instances.Dims()
	valid := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if !DataVector(instances.RawRowView(i)).HasNaN() {
			valid = append(valid, i)
		}
	}
	if len(valid) == 0 {
		return nil, nil
	}
	out := mat.NewDense(len(valid), f, nil)
	for k, i := range valid {
		out.SetRow(k, instances.RawRowView(i))
	}
	return valid, out
}

func shuffleRows(rng *rand.Rand, m *mat.Dense) {
	rows, cols := m.Dims()
	tmp := make([]float64, cols)
	rng.Shuffle(rows, func(i, j int) {
		ri, rj := m.RawRowView(i), m.RawRowView(j)
		copy(tmp, ri)
		copy(ri, rj)
		copy(rj, tmp)
	})
}

func nanMatrix(rows, cols int) *mat.Dense {
	data := make([]float64, rows*cols)
	for i := range data {
		data[i] = math.NaN()
	}
	return mat.NewDense(rows, cols, data)
}
