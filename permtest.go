// Copyright (C) The Crosstrait Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package crosstrait

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// PermutationResult holds the outcome of one resampling test.
// TrialStats keeps the per-trial statistics for downstream plotting.
type PermutationResult struct {
	Observed     Stat
	Empirical    Stat
	NormalApprox Stat
	TrialStats   []float64
}

// PermutationTester runs a resampling test of an observed sample
// statistic against samples drawn without replacement from a reference
// population. Rand may be nil, in which case every Test call draws its
// own nondeterministic source.
type PermutationTester struct {
	Trials    int
	Statistic StatisticFunc
	Rand      *rand.Rand
}

// Test computes the statistic of sample and compares it against Trials
// draws of sampleSize values, each drawn without replacement from
// population. The empirical p-value is the continuity-corrected
// fraction of trials at or above the observed statistic,
// (Trials + 1 - countBelow) / (Trials + 1), so it lies in
// [1/(Trials+1), 1] and is never exactly 0. The normal approximation
// treats the trial
// statistics as normal with their own mean and standard deviation and
// takes the upper-tail survival at the observed z-score.
//
// An empty sample, a sampleSize exceeding the population, or an
// undefined observed statistic yields an all-Undefined result. A
// zero-variance set of trial statistics leaves only NormalApprox
// undefined.
func (t *PermutationTester) Test(sample, population []float64, sampleSize int) PermutationResult {
	observed := t.Statistic(sample)
	if sampleSize <= 0 || sampleSize > len(population) || !observed.OK {
		return PermutationResult{Observed: Undefined, Empirical: Undefined, NormalApprox: Undefined}
	}
	rng := t.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Uint64()))
	}

	idx := make([]int, len(population))
	for i := range idx {
		idx[i] = i
	}
	draw := make([]float64, sampleSize)
	trialStats := make([]float64, 0, t.Trials)
	countBelow := 0
	for trial := 0; trial < t.Trials; trial++ {
		// Partial Fisher-Yates: after the loop idx[:sampleSize] is a
		// uniform without-replacement draw, whatever permutation the
		// previous trial left behind.
		for i := 0; i < sampleSize; i++ {
			j := i + rng.Intn(len(idx)-i)
			idx[i], idx[j] = idx[j], idx[i]
			draw[i] = population[idx[i]]
		}
		s := t.Statistic(draw)
		if !s.OK {
			continue
		}
		trialStats = append(trialStats, s.Value)
		if s.Value < observed.Value {
			countBelow++
		}
	}
	if len(trialStats) == 0 {
		return PermutationResult{Observed: observed, Empirical: Undefined, NormalApprox: Undefined}
	}

	n := float64(len(trialStats))
	empirical := Defined((n + 1 - float64(countBelow)) / (n + 1))

	normalApprox := Undefined
	mean, std := stat.MeanStdDev(trialStats, nil)
	if std > 0 && !math.IsNaN(std) {
		z := (observed.Value - mean) / std
		normalApprox = Defined(distuv.Normal{Mu: 0, Sigma: 1}.Survival(z))
	}

	return PermutationResult{
		Observed:     observed,
		Empirical:    empirical,
		NormalApprox: normalApprox,
		TrialStats:   trialStats,
	}
}
