package utils

import (
	"math"
)

// Tolerance is the default absolute tolerance used for float comparisons
const Tolerance = 1e-9

// Clamp clamps a value between min and max
func Clamp(value, min, max int) int {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// ClampFloat64 clamps a float64 value between min and max
func ClampFloat64(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// CeilTol returns the smallest integer >= x, treating values within Tolerance
// of an integer as that integer. Used when turning fractions into ply counts.
func CeilTol(x float64) int {
	r := math.Round(x)
	if math.Abs(x-r) <= Tolerance {
		return int(r)
	}
	return int(math.Ceil(x))
}

// FloorTol is the floor counterpart of CeilTol
func FloorTol(x float64) int {
	r := math.Round(x)
	if math.Abs(x-r) <= Tolerance {
		return int(r)
	}
	return int(math.Floor(x))
}

// Mean calculates the mean of a slice of float64 values
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return Sum(values) / float64(len(values))
}

// Sum calculates the sum of a slice of float64 values
func Sum(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum
}

// Round rounds a float64 to the specified number of decimal places
func Round(value float64, decimals int) float64 {
	multiplier := math.Pow(10, float64(decimals))
	return math.Round(value*multiplier) / multiplier
}
