package som

import (
	"encoding/csv"
	"io"
	"math"
	"math/rand"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

type DataVector []float64

// HasNaN reports whether any element of the vector is not a number.
func (dv DataVector) HasNaN() bool {
	for _, v := range dv {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}

// DataSet is an ordered collection of equally sized vectors,
// optionally labelled and with named columns.
type DataSet struct {
	Vectors []DataVector
	Labels  []string
	Columns []string
}

func (ds *DataSet) Add(vector DataVector) {
	if len(ds.Vectors) != 0 && ds.Width() != len(vector) {
		panic("data set must contain vectors of the same length")
	}
	ds.Vectors = append(ds.Vectors, vector)
}

func (ds *DataSet) AddRaw(vector ...float64) {
	ds.Add(DataVector(vector))
}

// AddLabelled adds a vector with a label. Labels are kept only
// when every vector of the set is labelled.
func (ds *DataSet) AddLabelled(label string, vector DataVector) {
	if len(ds.Labels) != len(ds.Vectors) {
		panic("cannot mix labelled and unlabelled vectors")
	}
	ds.Add(vector)
	ds.Labels = append(ds.Labels, label)
}

func (ds *DataSet) Len() int {
	return len(ds.Vectors)
}

func (ds *DataSet) Width() int {
	if ds.Len() == 0 {
		panic("data set contains no elements")
	}
	return len(ds.Vectors[0])
}

// Shuffle reorders vectors (and labels) using rng.
func (ds *DataSet) Shuffle(rng *rand.Rand) {
	labelled := len(ds.Labels) == len(ds.Vectors)
	rng.Shuffle(ds.Len(), func(i, j int) {
		ds.Vectors[i], ds.Vectors[j] = ds.Vectors[j], ds.Vectors[i]
		if labelled {
			ds.Labels[i], ds.Labels[j] = ds.Labels[j], ds.Labels[i]
		}
	})
}

// Matrix copies the vectors into a Len×Width matrix.
func (ds *DataSet) Matrix() *mat.Dense {
	m := mat.NewDense(ds.Len(), ds.Width(), nil)
	for i, v := range ds.Vectors {
		m.SetRow(i, v)
	}
	return m
}

// Column returns the values of the named column, or false if there is no such column.
func (ds *DataSet) Column(name string) ([]float64, bool) {
	for j, c := range ds.Columns {
		if c == name {
			values := make([]float64, ds.Len())
			for i, v := range ds.Vectors {
				values[i] = v[j]
			}
			return values, true
		}
	}
	return nil, false
}

// ReadCSV reads a data set from CSV with a header row. Every column is a
// feature except labelColumn (if not empty) which supplies the labels.
// Empty, "NaN" and "NA" fields are read as NaN.
func ReadCSV(r io.Reader, labelColumn string) (*DataSet, error) {
	reader := csv.NewReader(r)
	reader.Comment = '#'
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, ErrNoDataLeft
	}
	if err != nil {
		return nil, errors.Wrap(err, "reading csv header")
	}

	labelIdx := -1
	ds := &DataSet{}
	for i, name := range header {
		if labelColumn != "" && name == labelColumn {
			labelIdx = i
			continue
		}
		ds.Columns = append(ds.Columns, name)
	}
	if labelColumn != "" && labelIdx < 0 {
		return nil, errors.Errorf("label column %q not found in csv header", labelColumn)
	}
	if len(ds.Columns) == 0 {
		return nil, errors.New("csv has no feature columns")
	}

	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "reading csv line %d", line)
		}

		vector := make(DataVector, 0, len(ds.Columns))
		label := ""
		for i, field := range record {
			if i == labelIdx {
				label = field
				continue
			}
			v, err := parseField(field)
			if err != nil {
				return nil, errors.Wrapf(err, "csv line %d, column %q", line, header[i])
			}
			vector = append(vector, v)
		}
		if labelIdx >= 0 {
			ds.AddLabelled(label, vector)
		} else {
			ds.Add(vector)
		}
	}

	if ds.Len() == 0 {
		return nil, ErrNoDataLeft
	}
	return ds, nil
}

func parseField(field string) (float64, error) {
	field = strings.TrimSpace(field)
	switch strings.ToLower(field) {
	case "", "nan", "na":
		return math.NaN(), nil
	}
	return strconv.ParseFloat(field, 64)
}

// DataAdapter transforms a vector before it reaches the map.
type DataAdapter interface {
	Adapt(vector []float64) []float64
}

type DataAdapterFunc func(vector []float64) []float64

func (f DataAdapterFunc) Adapt(vector []float64) []float64 { return f(vector) }

// ScalingDataAdapter scales every element into [0, 1] using per-column bounds.
// NaN elements stay NaN; a column with equal bounds maps to 0.
type ScalingDataAdapter struct {
	min, max []float64
}

func NewScalingDataAdapter(min, max []float64) *ScalingDataAdapter {
	if len(min) != len(max) {
		panic("min and max bounds must have the same length")
	}
	return &ScalingDataAdapter{min: min, max: max}
}

// NewScalingDataAdapterFromSet derives bounds from the non-NaN values of the data set.
func NewScalingDataAdapterFromSet(ds *DataSet) *ScalingDataAdapter {
	width := ds.Width()
	min := make([]float64, width)
	max := make([]float64, width)
	for j := 0; j < width; j++ {
		min[j] = math.Inf(1)
		max[j] = math.Inf(-1)
	}
	for _, vector := range ds.Vectors {
		for j, v := range vector {
			if math.IsNaN(v) {
				continue
			}
			min[j] = math.Min(min[j], v)
			max[j] = math.Max(max[j], v)
		}
	}
	for j := range min {
		// all NaN column
		if math.IsInf(min[j], 1) {
			min[j], max[j] = 0, 0
		}
	}
	return NewScalingDataAdapter(min, max)
}

func (sda *ScalingDataAdapter) Adapt(vector []float64) []float64 {
	adapted := make([]float64, len(vector))
	for i, v := range vector {
		span := sda.max[i] - sda.min[i]
		if span == 0 {
			if math.IsNaN(v) {
				adapted[i] = v
			}
			continue
		}
		adapted[i] = (v - sda.min[i]) / span
	}
	return adapted
}

// Adapt applies the adapter to every vector of the set in place.
func (ds *DataSet) Adapt(adapter DataAdapter) {
	for i, v := range ds.Vectors {
		ds.Vectors[i] = adapter.Adapt(v)
	}
}
