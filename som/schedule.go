package som

import "math"

// RestraintFunc calculates the learning rate for an epoch
// based on the epoch index and overall iterations number.
type RestraintFunc interface {
	// currentIt => [0, iterationsNumber)
	Apply(currentIt, iterationsNumber int) float64
}

// LinearRestraintFunc decays linearly from InitialRate towards FinalRate,
// reaching FinalRate at the last epoch:
// InitialRate - (InitialRate - FinalRate) * (t+1)/T.
type LinearRestraintFunc struct {
	InitialRate, FinalRate float64
}

func (lr *LinearRestraintFunc) Apply(currentIt, iterationsNumber int) float64 {
	progress := float64(currentIt+1) / float64(iterationsNumber)
	return lr.InitialRate - (lr.InitialRate-lr.FinalRate)*progress
}

// ExpRestraintFunc calculates coefficient as => InitialRate * exp(-(t+1)/T).
type ExpRestraintFunc struct {
	InitialRate float64
}

func (erf *ExpRestraintFunc) Apply(currentIt, iterationsNumber int) float64 {
	t := float64(currentIt + 1)
	T := float64(iterationsNumber)
	return erf.InitialRate * math.Exp(-t/T)
}

// NeighbourhoodRadius shrinks the radius linearly from initial to 0 at the last epoch.
// Halves round to even.
func NeighbourhoodRadius(initial, currentIt, iterationsNumber int) int {
	progress := float64(currentIt+1) / float64(iterationsNumber)
	return int(math.RoundToEven(float64(initial) * (1 - progress)))
}
