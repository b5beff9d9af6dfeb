// Package series holds the statistical primitives shared by the calculators.
// Every function returns 0 for empty input rather than an error.
package series

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Fit is an ordinary least squares line over the index axis
type Fit struct {
	Slope     float64
	Intercept float64
}

// Mean calculates the arithmetic mean of values
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}

// StdDev calculates the population standard deviation (divides by N, not N-1)
func StdDev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	_, std := stat.PopMeanStdDev(values, nil)
	return std
}

// LinearRegression fits values[i] against i = 0..N-1.
// Fewer than two points cannot define a slope, so the fit is flat through the mean.
func LinearRegression(values []float64) Fit {
	n := len(values)
	if n < 2 {
		return Fit{Slope: 0, Intercept: Mean(values)}
	}

	xs := make([]float64, n)
	for i := range xs {
		xs[i] = float64(i)
	}

	intercept, slope := stat.LinearRegression(xs, values, nil, false)
	if math.IsNaN(slope) || math.IsInf(slope, 0) {
		return Fit{Slope: 0, Intercept: Mean(values)}
	}
	return Fit{Slope: slope, Intercept: intercept}
}

// Sum adds up values
func Sum(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum
}

// Max returns the largest value, or 0 for an empty slice
func Max(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := values[0]
	for _, v := range values[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

// Min returns the smallest value, or 0 for an empty slice
func Min(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

// Round rounds half up (2.5 -> 3, -2.5 -> -2)
func Round(v float64) int {
	return int(math.Floor(v + 0.5))
}

// Round1 rounds to one decimal place, half up
func Round1(v float64) float64 {
	return math.Floor(v*10+0.5) / 10
}
