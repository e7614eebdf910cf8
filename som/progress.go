package som

// ProgressFunc receives a status label and the fraction of training completed.
// A non-nil error aborts training.
type ProgressFunc func(status string, fraction float64) error

// progressThrottle forwards at most one report per percent of progress.
type progressThrottle struct {
	sink ProgressFunc
	last float64
	sent bool
}

func (pt *progressThrottle) report(status string, fraction float64) error {
	if pt.sink == nil {
		return nil
	}
	if pt.sent && fraction-pt.last < 0.01-1e-9 {
		return nil
	}
	pt.sent = true
	pt.last = fraction
	return pt.sink(status, fraction)
}
