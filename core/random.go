package core

import (
	"math"
)

// Draws used by the statistical opcodes.  Each takes randomness only
// from the given Rand.

func drawUniform(r Rand, lo, hi float64) float64 {
	return lo + (hi-lo)*r.Float64()
}

func drawNormal(r Rand, mu, sigma float64) float64 {
	return mu + sigma*r.NormFloat64()
}

func drawLognormal(r Rand, mu, sigma float64) float64 {
	return math.Exp(drawNormal(r, mu, sigma))
}

// drawExponential returns a draw with the given rate.
func drawExponential(r Rand, rate float64) float64 {
	if rate == 0 {
		return 0
	}
	return r.ExpFloat64() / rate
}

// drawGeometric returns the number of failures before the first
// success with probability p.
func drawGeometric(r Rand, p float64) float64 {
	if 1 <= p {
		return 0
	}
	u := r.Float64()
	if u == 0 {
		u = math.SmallestNonzeroFloat64
	}
	return math.Floor(math.Log(u) / math.Log(1-p))
}

// Planar small-area distance constants, in km per degree.
const (
	kmPerDegreeLatitude  = 110.996
	kmPerDegreeLongitude = 87.832
)

// XYDistance is the planar distance in km between two lat/lon
// points.  It is only good over small areas.
func XYDistance(lat1, lon1, lat2, lon2 float64) float64 {
	dx := (lon2 - lon1) * kmPerDegreeLongitude
	dy := (lat2 - lat1) * kmPerDegreeLatitude
	return math.Sqrt(dx*dx + dy*dy)
}
