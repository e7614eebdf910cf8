package som

import "github.com/pkg/errors"

var (
	// ErrNoDataLeft is returned when a data set has no vectors to read from.
	ErrNoDataLeft = errors.New("no data left")

	// ErrConfiguration is the cause of every error returned for invalid
	// grid, schedule or table parameters. Use errors.Cause to test for it.
	ErrConfiguration = errors.New("invalid configuration")

	// ErrShape is the cause of errors returned when matrix dimensions
	// do not agree, e.g. scoring vectors of a different width than the map was trained on.
	ErrShape = errors.New("mismatched dimensions")

	// ErrNotTrained is returned when scoring with a map that has no weights yet.
	ErrNotTrained = errors.New("map is not trained")
)
