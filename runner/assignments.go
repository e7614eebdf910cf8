package runner

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/voievodin/batchsom/som"
)

// Assignments holds the grid cell assigned to every case of a run
// and the parameters the map was trained with.
type Assignments struct {
	// Scores is cases×2, x and y per case, NaN for cases that could not be assigned.
	Scores *mat.Dense
	// Labels names the cases, may be empty.
	Labels []string

	GridWidth     int
	GridHeight    int
	Iterations    int
	MinibatchSize int
}

func (a *Assignments) Len() int {
	n, _ := a.Scores.Dims()
	return n
}

// Label returns the label of case i, or its index if the cases are unlabelled.
func (a *Assignments) Label(i int) string {
	if i < len(a.Labels) {
		return a.Labels[i]
	}
	return strconv.Itoa(i)
}

// Cell returns the cell of case i and false if the case was not assigned.
func (a *Assignments) Cell(i int) (som.Coord, bool) {
	x, y := a.Scores.At(i, 0), a.Scores.At(i, 1)
	if math.IsNaN(x) || math.IsNaN(y) {
		return som.Coord{}, false
	}
	return som.Coord{X: int(x), Y: int(y)}, true
}

// Members groups case indexes by assigned cell, in case order.
func (a *Assignments) Members() map[som.Coord][]int {
	members := make(map[som.Coord][]int)
	for i := 0; i < a.Len(); i++ {
		if cell, ok := a.Cell(i); ok {
			members[cell] = append(members[cell], i)
		}
	}
	return members
}

var metadataKeys = []string{"grid_width", "grid_height", "iterations", "minibatch_size"}

func (a *Assignments) metadata() []*int {
	return []*int{&a.GridWidth, &a.GridHeight, &a.Iterations, &a.MinibatchSize}
}

// WriteCSV writes the run parameters as "# key=value" lines
// followed by a label,som_x,som_y table.
func (a *Assignments) WriteCSV(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for i, v := range a.metadata() {
		if _, err := fmt.Fprintf(bw, "# %s=%d\n", metadataKeys[i], *v); err != nil {
			return errors.Wrap(err, "writing assignments metadata")
		}
	}

	cw := csv.NewWriter(bw)
	if err := cw.Write([]string{"label", "som_x", "som_y"}); err != nil {
		return errors.Wrap(err, "writing assignments header")
	}
	for i := 0; i < a.Len(); i++ {
		record := []string{a.Label(i), "NaN", "NaN"}
		if cell, ok := a.Cell(i); ok {
			record[1], record[2] = strconv.Itoa(cell.X), strconv.Itoa(cell.Y)
		}
		if err := cw.Write(record); err != nil {
			return errors.Wrapf(err, "writing assignment %d", i)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return errors.Wrap(err, "writing assignments")
	}
	return bw.Flush()
}

// ReadAssignmentsCSV reads what WriteCSV wrote.
func ReadAssignmentsCSV(r io.Reader) (*Assignments, error) {
	a := &Assignments{}
	br := bufio.NewReader(r)
	for {
		b, err := br.Peek(1)
		if err != nil || b[0] != '#' {
			break
		}
		line, err := br.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, errors.Wrap(err, "reading assignments metadata")
		}
		if err := a.parseMetadata(line); err != nil {
			return nil, err
		}
	}

	cr := csv.NewReader(br)
	header, err := cr.Read()
	if err != nil {
		return nil, errors.Wrap(err, "reading assignments header")
	}
	if len(header) != 3 {
		return nil, errors.Errorf("expected label,som_x,som_y header, got %v", header)
	}

	var labels []string
	var data []float64
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "reading assignment %d", len(labels))
		}
		labels = append(labels, record[0])
		for _, field := range record[1:] {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, errors.Wrapf(err, "assignment %d", len(labels)-1)
			}
			data = append(data, v)
		}
	}
	if len(labels) == 0 {
		return nil, som.ErrNoDataLeft
	}

	a.Scores = mat.NewDense(len(labels), 2, data)
	a.Labels = labels
	if a.GridWidth < 1 || a.GridHeight < 1 {
		return nil, errors.Wrapf(som.ErrConfiguration, "assignments have no valid grid size (%dx%d)", a.GridWidth, a.GridHeight)
	}
	return a, nil
}

func (a *Assignments) parseMetadata(line string) error {
	line = strings.TrimSpace(strings.TrimPrefix(line, "#"))
	key, value, ok := strings.Cut(line, "=")
	if !ok {
		return nil
	}
	for i, v := range a.metadata() {
		if metadataKeys[i] != strings.TrimSpace(key) {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return errors.Wrapf(err, "metadata %s", key)
		}
		*v = n
	}
	return nil
}
