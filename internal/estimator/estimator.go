// File: internal/estimator/estimator.go

// Package estimator computes the difference-in-means treatment effect
// estimate, its heteroskedasticity-robust variance, and Wald interval
// coverage for one observed sample.
package estimator

import (
	"math"

	"github.com/xkilldash9x/atesim/internal/design"
)

// zCrit is the two-sided 95% asymptotic normal critical value.
const zCrit = 1.96

// Estimate returns the difference in sample means of Y between treated and
// untreated groups (the OLS slope on a treatment indicator with intercept)
// together with its HC1 robust variance estimate:
//
//	vhat = n/(n-2) * (Σ_treated e² / n1² + Σ_control e² / n0²)
//
// where e are within-group residuals. The same HC1 small-sample factor
// n/(n-2) applies under both experiment designs. Degenerate inputs surface
// as NaN or Inf in the results, never as a panic.
func Estimate(sample design.ObservedSample) (b, vhat float64) {
	var n1, n0 int
	var sum1, sum0 float64
	for i, y := range sample.Y {
		if sample.Treated[i] {
			n1++
			sum1 += y
		} else {
			n0++
			sum0 += y
		}
	}

	mean1 := sum1 / float64(n1)
	mean0 := sum0 / float64(n0)
	b = mean1 - mean0

	var ss1, ss0 float64
	for i, y := range sample.Y {
		if sample.Treated[i] {
			d := y - mean1
			ss1 += d * d
		} else {
			d := y - mean0
			ss0 += d * d
		}
	}

	n := float64(len(sample.Y))
	hc0 := ss1/float64(n1)/float64(n1) + ss0/float64(n0)/float64(n0)
	vhat = n / (n - 2) * hc0
	return b, vhat
}

// ConfidenceInterval returns the two-sided 95% Wald interval b ± 1.96*sqrt(vhat).
func ConfidenceInterval(b, vhat float64) (lo, hi float64) {
	half := zCrit * math.Sqrt(vhat)
	return b - half, b + half
}

// Covers reports whether target lies in [lo, hi], bounds inclusive.
func Covers(target, lo, hi float64) bool {
	return target >= lo && target <= hi
}
