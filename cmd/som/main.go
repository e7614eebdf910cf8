package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/voievodin/batchsom/runner"
	"github.com/voievodin/batchsom/som"
	"github.com/voievodin/batchsom/somplot"
)

func main() {
	gridWidth := flag.Int("grid-width", 10, "map width in cells")
	gridHeight := flag.Int("grid-height", 0, "map height in cells, same as width if 0")
	iterations := flag.Int("iterations", 100, "training epochs")
	minibatchSize := flag.Int("minibatch-size", 1000, "cases per weight update, 0 for the whole set")
	neighbourhood := flag.Int("neighbourhood", 0, "initial neighbourhood radius, half the width if 0")
	seed := flag.Int64("seed", 1, "random seed, 0 seeds from the clock")
	backend := flag.String("backend", "cpu", "array backend: cpu, parallel or auto")
	kernel := flag.String("kernel", "step", "neighbourhood kernel: step or gaussian")
	labelColumn := flag.String("label-column", "", "csv column holding case labels")
	scale := flag.Bool("scale", false, "scale every feature into [0, 1] before training")
	output := flag.String("o", "", "assignments csv destination, stdout if empty")
	svgPath := flag.String("svg", "", "draw the map into this file (.svg, .png, .pdf)")
	colorColumn := flag.String("color-column", "", "colour cells by the mean of this column instead of case counts")
	colors := flag.String("colors", "yellow,red", "comma separated colour ramp")
	defaultColor := flag.String("default-color", "#A0A0A0", "colour of empty cells")
	quiet := flag.Bool("quiet", false, "do not print progress")
	flag.Parse()

	l := log.New(os.Stderr, "som: ", log.LstdFlags)

	ds, err := readDataSet(flag.Arg(0), *labelColumn)
	if err != nil {
		l.Fatalf("reading data set: %v", err)
	}
	l.Printf("read %d cases with %d features from %s", ds.Len(), ds.Width(), inputName(flag.Arg(0)))

	kind, ok := som.ParseBackendKind(*backend)
	if !ok {
		l.Fatalf("unknown backend %q", *backend)
	}
	k, err := parseKernel(*kernel)
	if err != nil {
		l.Fatal(err)
	}

	r := runner.New()
	r.GridWidth = *gridWidth
	r.GridHeight = *gridHeight
	r.Iterations = *iterations
	r.MinibatchSize = *minibatchSize
	r.InitialNeighbourhood = *neighbourhood
	r.Seed = *seed
	r.Scale = *scale
	r.Backend = som.NewBackend(kind)
	r.Kernel = k
	r.Verbose = !*quiet
	r.Out = os.Stderr
	r.SetLogger(l)

	a, err := r.FitTransform(ds)
	if err != nil {
		l.Fatal(err)
	}

	if err := writeAssignments(*output, a); err != nil {
		l.Fatal(err)
	}
	if *output != "" {
		l.Printf("assignments written to %s", *output)
	}

	if *svgPath == "" {
		return
	}
	var values []float64
	if *colorColumn != "" {
		var ok bool
		if values, ok = ds.Column(*colorColumn); !ok {
			l.Fatalf("no column %q to colour by", *colorColumn)
		}
	}
	opts := somplot.Options{
		Title:        fmt.Sprintf("%dx%d map, %d iterations", a.GridWidth, a.GridHeight, a.Iterations),
		Colors:       strings.Split(*colors, ","),
		DefaultColor: *defaultColor,
		Labels:       *labelColumn != "",
	}
	if err := somplot.Save(*svgPath, a, values, opts); err != nil {
		l.Fatal(err)
	}
	l.Printf("map drawn to %s", *svgPath)
}

func inputName(path string) string {
	if path == "" || path == "-" {
		return "stdin"
	}
	return path
}

func readDataSet(path, labelColumn string) (*som.DataSet, error) {
	var r io.Reader = os.Stdin
	if path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	return som.ReadCSV(r, labelColumn)
}

func writeAssignments(path string, a *runner.Assignments) error {
	if path == "" {
		return a.WriteCSV(os.Stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "creating assignments file")
	}
	if err := a.WriteCSV(f); err != nil {
		f.Close()
		return err
	}
	return errors.Wrap(f.Close(), "closing assignments file")
}

func parseKernel(name string) (som.Kernel, error) {
	switch strings.ToLower(name) {
	case "step", "":
		return som.StepKernel{}, nil
	case "gaussian":
		return som.GaussianKernel{}, nil
	}
	return nil, errors.Errorf("unknown kernel %q", name)
}
