package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/voievodin/batchsom/runner"
	"github.com/voievodin/batchsom/som"
)

func TestParseKernel(t *testing.T) {
	if k, err := parseKernel("Gaussian"); err != nil || k != (som.GaussianKernel{}) {
		t.Fatalf("Expected gaussian kernel, got %v %v", k, err)
	}
	if k, err := parseKernel(""); err != nil || k != (som.StepKernel{}) {
		t.Fatalf("Expected step kernel, got %v %v", k, err)
	}
	if _, err := parseKernel("mexican-hat"); err == nil {
		t.Fatal("Expected error for unknown kernel")
	}
}

func TestReadTrainWrite(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.csv")
	data := "name,a,b\nx,0,0\ny,0,1\nz,1,1\nw,NA,1\n"
	if err := os.WriteFile(in, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	ds, err := readDataSet(in, "name")
	if err != nil {
		t.Fatal(err)
	}
	r := runner.New()
	r.GridWidth = 2
	r.Iterations = 5
	r.Verbose = false
	a, err := r.FitTransform(ds)
	if err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(dir, "out.csv")
	if err := writeAssignments(out, a); err != nil {
		t.Fatal(err)
	}
	f, err := os.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	back, err := runner.ReadAssignmentsCSV(f)
	if err != nil {
		t.Fatal(err)
	}
	if back.Len() != 4 || back.GridWidth != 2 || back.GridHeight != 2 {
		t.Fatalf("Unexpected assignments %+v", back)
	}
	for i := 0; i < 3; i++ {
		got, _ := back.Cell(i)
		want, _ := a.Cell(i)
		if got != want {
			t.Fatalf("Case %d moved from %v to %v", i, want, got)
		}
	}
	if strings.Join(back.Labels, "") != "xyzw" {
		t.Fatalf("Unexpected labels %v", back.Labels)
	}
	if _, ok := back.Cell(3); ok {
		t.Fatal("Case with NA must stay unassigned")
	}
}
