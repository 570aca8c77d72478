// Copyright (C) The Crosstrait Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package crosstrait

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// KSGoodnessOfFit returns the two-sided p-value of a two-sample
// Kolmogorov-Smirnov test of sample against population, with the
// population first trimmed to ±2 standard deviations around its
// untrimmed mean. Undefined when either side ends up with fewer than
// two values.
func KSGoodnessOfFit(sample, population []float64) Stat {
	if len(sample) < 2 || len(population) < 2 {
		return Undefined
	}
	mean, std := stat.MeanStdDev(population, nil)
	trimmed := make([]float64, 0, len(population))
	for _, v := range population {
		if math.Abs(v-mean) <= 2*std {
			trimmed = append(trimmed, v)
		}
	}
	if len(trimmed) < 2 {
		return Undefined
	}
	x := append([]float64(nil), sample...)
	sort.Float64s(x)
	sort.Float64s(trimmed)
	d := stat.KolmogorovSmirnov(x, nil, trimmed, nil)

	n1, n2 := float64(len(x)), float64(len(trimmed))
	ne := n1 * n2 / (n1 + n2)
	lambda := (math.Sqrt(ne) + 0.12 + 0.11/math.Sqrt(ne)) * d
	return Defined(ksSurvival(lambda))
}

// ksSurvival is the asymptotic Kolmogorov distribution tail
// Q(λ) = 2 Σ_{j≥1} (-1)^{j-1} exp(-2 j² λ²), clamped to [0,1].
func ksSurvival(lambda float64) float64 {
	if lambda <= 0 {
		return 1
	}
	sum := 0.0
	sign := 1.0
	for j := 1; j <= 100; j++ {
		term := sign * math.Exp(-2*float64(j*j)*lambda*lambda)
		sum += term
		if math.Abs(term) < 1e-12*math.Abs(sum) {
			break
		}
		sign = -sign
	}
	p := 2 * sum
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// EvaluateGoodnessOfFit computes, per disease, the KS p-value of the
// disease-linked SNP effect sizes against that disease's own trimmed
// effect-size population.
func EvaluateGoodnessOfFit(cohort *Cohort) []Stat {
	out := make([]Stat, len(cohort.Diseases))
	for d := range cohort.Diseases {
		var sample []float64
		for _, snp := range cohort.Registry.LinkedSnps(d) {
			if v, ok := cohort.Store.Effect(d, snp); ok {
				sample = append(sample, v)
			}
		}
		out[d] = KSGoodnessOfFit(sample, cohort.Store.Population(d))
	}
	return out
}
