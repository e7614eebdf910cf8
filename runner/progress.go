package runner

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Progress prints a single line progress banner.
type Progress struct {
	label string
	w     io.Writer
}

func NewProgress(label string, w io.Writer) *Progress {
	return &Progress{label: label, w: w}
}

// Report redraws the banner. It satisfies som.ProgressFunc.
func (p *Progress) Report(msg string, fraction float64) error {
	percent := int(100 * fraction)
	if percent > 100 {
		percent = 100
	}
	_, err := fmt.Fprintf(p.w, "\r%s %s %-5s %s", p.label, msg, strconv.Itoa(percent)+"%", strings.Repeat("#", percent/2))
	return err
}

// Complete ends the banner line and prints msg on its own line.
func (p *Progress) Complete(msg string) error {
	_, err := fmt.Fprintf(p.w, "\n%s %s\n", p.label, msg)
	return err
}
