package main

// Iterates are clamped back into the open interval so float rounding can never
// land the orbit on the absorbing points 0 or 1.
const (
	clampLow  = 0.000001
	clampHigh = 0.999999
)

// logisticStep computes one iterate of x -> r*x*(1-x) with clamping.
func logisticStep(x, r float64) float64 {
	next := r * x * (1.0 - x)
	if next <= 0.0 {
		next = clampLow
	}
	if next >= 1.0 {
		next = clampHigh
	}
	return next
}

// LogisticSequence returns the first n iterates of the logistic map starting
// from seed. The seed itself is not part of the output.
func LogisticSequence(seed, r float64, n int) []float64 {
	if n <= 0 {
		return []float64{}
	}

	seq := make([]float64, n)
	x := seed
	for i := range seq {
		x = logisticStep(x, r)
		seq[i] = x
	}
	return seq
}
