// File: internal/design/design.go

// Package design generates the raw material of one simulated experiment: a
// population with linear potential outcomes and a completely randomized
// treatment assignment over it.
package design

import (
	"errors"
	"fmt"
	"sort"

	"github.com/xkilldash9x/atesim/internal/randstream"
)

// ErrInvalidParams marks a configuration error caught before any random
// draws are consumed. Callers should test for it with errors.Is.
var ErrInvalidParams = errors.New("invalid design parameters")

// Unit is one simulated individual. Y0 and V are independent standard
// normals; Y1 follows the linear potential-outcomes model
// y1 = 0.5*y0 + 0.5*v + tau0, and TE = Y1 - Y0 is the unit-level
// treatment effect.
type Unit struct {
	Y0 float64
	V  float64
	Y1 float64
	TE float64
}

// Population is an ordered collection of units.
type Population []Unit

// ATE returns the realized finite-population average treatment effect,
// the mean of TE over the population.
func (p Population) ATE() float64 {
	var sum float64
	for _, u := range p {
		sum += u.TE
	}
	return sum / float64(len(p))
}

// GeneratePopulation draws n independent (y0, v) standard-normal pairs from
// rs and fills in the derived potential outcomes with additive effect tau0.
func GeneratePopulation(rs *randstream.Stream, n int, tau0 float64) (Population, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: population size %d must be positive", ErrInvalidParams, n)
	}

	pop := make(Population, n)
	for i := range pop {
		y0 := rs.Normal()
		v := rs.Normal()
		y1 := 0.5*y0 + 0.5*v + tau0
		pop[i] = Unit{Y0: y0, V: v, Y1: y1, TE: y1 - y0}
	}
	return pop, nil
}

// Assignment is a treatment indicator vector over a population.
type Assignment []bool

// TreatedCount returns the number of treated units.
func (a Assignment) TreatedCount() int {
	n := 0
	for _, treated := range a {
		if treated {
			n++
		}
	}
	return n
}

// GenerateAssignment draws a completely randomized assignment of exactly
// ntreat treated units out of n, uniform over all C(n, ntreat) such vectors.
// Each unit gets an independent uniform key; units are ranked by key and the
// first ntreat in rank order are treated. Rank-order assignment hits the
// exact count by construction, so no rejection step is needed.
func GenerateAssignment(rs *randstream.Stream, n, ntreat int) (Assignment, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: sample size %d must be positive", ErrInvalidParams, n)
	}
	if ntreat < 1 || ntreat > n-1 {
		return nil, fmt.Errorf("%w: ntreat %d must be in [1, %d]", ErrInvalidParams, ntreat, n-1)
	}

	type keyed struct {
		idx int
		key float64
	}
	keys := make([]keyed, n)
	for i := range keys {
		keys[i] = keyed{idx: i, key: rs.Uniform()}
	}
	// Ties have probability zero under continuous draws.
	sort.Slice(keys, func(i, j int) bool { return keys[i].key < keys[j].key })

	asg := make(Assignment, n)
	for rank := 0; rank < ntreat; rank++ {
		asg[keys[rank].idx] = true
	}
	return asg, nil
}

// ObservedSample is the view an analyst would actually see: one realized
// outcome per unit plus the treatment indicator. It is recomputed for every
// repetition and never outlives it.
type ObservedSample struct {
	Y       []float64
	Treated Assignment
}

// Observe reveals y1 for treated units and y0 for the rest.
func Observe(pop Population, asg Assignment) ObservedSample {
	y := make([]float64, len(pop))
	for i, u := range pop {
		if asg[i] {
			y[i] = u.Y1
		} else {
			y[i] = u.Y0
		}
	}
	return ObservedSample{Y: y, Treated: asg}
}
