// Package floatutils provides utilities for working with floats
package floatutils

import "math"

// Clip clips a floating point to within a minimum and maximum value.
func Clip(value, min, max float64) float64 {
	clipped := math.Min(value, max)
	return math.Max(clipped, min)
}

// ArgMax returns the index of the maximum value in a slice of float64.
// Ties are broken in favour of the first maximal index.
func ArgMax(values []float64) int {
	argMax := 0
	for i, value := range values {
		if value > values[argMax] {
			argMax = i
		}
	}
	return argMax
}

// Max calculates and returns the maximum float64 in a list
func Max(floats ...float64) float64 {
	max := floats[0]
	for _, val := range floats {
		if val > max {
			max = val
		}
	}
	return max
}

// Mean computes the arithmetic mean of a list of float64
func Mean(floats []float64) float64 {
	var sum float64
	for _, val := range floats {
		sum += val
	}
	return sum / float64(len(floats))
}
