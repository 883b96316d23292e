package simworld

import (
	"math"
	"math/rand"
)

// gammaSample draws from Gamma(shape, 1) using the Marsaglia-Tsang method.
// Only shape >= 1 is needed by betaSample below (shapes 1, 2 and 5 here); for
// shape < 1 we boost via the standard shape+1 transform.
func gammaSample(rng *rand.Rand, shape float64) float64 {
	if shape < 1 {
		u := rng.Float64()
		return gammaSample(rng, shape+1) * math.Pow(u, 1/shape)
	}

	d := shape - 1.0/3.0
	c := 1.0 / math.Sqrt(9*d)
	for {
		x := rng.NormFloat64()
		v := 1 + c*x
		if v <= 0 {
			continue
		}
		v = v * v * v
		u := rng.Float64()
		if u < 1-0.0331*x*x*x*x {
			return d * v
		}
		if math.Log(u) < 0.5*x*x+d*(1-v+math.Log(v)) {
			return d * v
		}
	}
}

// betaSample draws from Beta(alpha, beta) via the standard Gamma ratio
// construction: X/(X+Y) for X ~ Gamma(alpha), Y ~ Gamma(beta).
func betaSample(rng *rand.Rand, alpha, beta float64) float64 {
	x := gammaSample(rng, alpha)
	y := gammaSample(rng, beta)
	if x+y == 0 {
		return 0.5
	}
	return x / (x + y)
}
