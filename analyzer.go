// Copyright (C) The Crosstrait Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package crosstrait

import (
	"context"
	"math"
	"runtime"
	"sync"

	log "github.com/sirupsen/logrus"
	"golang.org/x/exp/rand"
)

// DiagonalSample is the same-disease cell's raw material, retained for
// scatter/violin plotting: the linked-SNP effect sizes, the per-trial
// statistics, and the observed statistic.
type DiagonalSample struct {
	Sample     []float64
	TrialStats []float64
	Observed   Stat
}

// CrossDiseaseResult holds the five disease × disease matrices plus
// the retained diagonal samples. Matrices are indexed [d1][d2]: d1's
// linked SNPs evaluated against d2's summary statistics.
type CrossDiseaseResult struct {
	Diseases      []DiseaseInfo
	SampleSize    [][]int
	MeanEffect    [][]Stat
	PermutationP  [][]Stat
	NegLog10P     [][]Stat
	NormalApproxP [][]Stat
	SameDisease   []DiagonalSample
}

// CrossDiseaseAnalyzer runs the permutation test for every ordered
// disease pair. Seed == 0 means nondeterministic; any other seed makes
// the whole result matrix reproducible bit for bit, regardless of
// worker scheduling, because each cell derives its own RNG stream from
// (Seed, d1, d2). Workers == 0 means GOMAXPROCS.
type CrossDiseaseAnalyzer struct {
	Trials    int
	Statistic StatisticFunc
	Seed      uint64
	Workers   int
}

// Analyze computes the cross-disease matrices for cohort. Each cell is
// an independent unit of work writing to a distinct matrix slot, so
// cells run on a bounded worker pool with no locking. Returns
// ctx.Err() if the context is cancelled before all cells are
// scheduled.
func (a *CrossDiseaseAnalyzer) Analyze(ctx context.Context, cohort *Cohort) (*CrossDiseaseResult, error) {
	n := len(cohort.Diseases)
	result := &CrossDiseaseResult{
		Diseases:      cohort.Diseases,
		SampleSize:    make([][]int, n),
		MeanEffect:    make([][]Stat, n),
		PermutationP:  make([][]Stat, n),
		NegLog10P:     make([][]Stat, n),
		NormalApproxP: make([][]Stat, n),
		SameDisease:   make([]DiagonalSample, n),
	}
	for i := 0; i < n; i++ {
		result.SampleSize[i] = make([]int, n)
		result.MeanEffect[i] = make([]Stat, n)
		result.PermutationP[i] = make([]Stat, n)
		result.NegLog10P[i] = make([]Stat, n)
		result.NormalApproxP[i] = make([]Stat, n)
	}

	// Population caching is lazy and not goroutine-safe on first use.
	linked := make([][]string, n)
	for d := 0; d < n; d++ {
		cohort.Store.Population(d)
		linked[d] = cohort.Registry.LinkedSnps(d)
	}

	workers := a.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	var wg sync.WaitGroup
	sem := make(chan bool, workers)
	for d1 := 0; d1 < n; d1++ {
		for d2 := 0; d2 < n; d2++ {
			select {
			case <-ctx.Done():
				wg.Wait()
				return nil, ctx.Err()
			case sem <- true:
			}
			d1, d2 := d1, d2
			wg.Add(1)
			go func() {
				defer wg.Done()
				defer func() { <-sem }()
				a.analyzeCell(cohort, result, linked[d1], d1, d2)
			}()
		}
	}
	wg.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	log.Infof("analyzed %d disease pairs, %d trials each", n*n, a.Trials)
	return result, nil
}

func (a *CrossDiseaseAnalyzer) analyzeCell(cohort *Cohort, result *CrossDiseaseResult, linked []string, d1, d2 int) {
	target := make([]float64, 0, len(linked))
	for _, snp := range linked {
		// SNPs with no known effect under d2 are skipped, never
		// treated as zero.
		if v, ok := cohort.Store.Effect(d2, snp); ok {
			target = append(target, v)
		}
	}

	tester := &PermutationTester{Trials: a.Trials, Statistic: a.Statistic}
	if a.Seed != 0 {
		tester.Rand = rand.New(rand.NewSource(a.Seed + uint64(d1*len(cohort.Diseases)+d2)))
	}
	res := tester.Test(target, cohort.Store.Population(d2), len(target))

	result.SampleSize[d1][d2] = len(target)
	result.MeanEffect[d1][d2] = res.Observed
	result.PermutationP[d1][d2] = res.Empirical
	result.NormalApproxP[d1][d2] = res.NormalApprox
	if res.Empirical.OK {
		result.NegLog10P[d1][d2] = Defined(-math.Log10(res.Empirical.Value))
	}
	if d1 == d2 {
		result.SameDisease[d1] = DiagonalSample{
			Sample:     target,
			TrialStats: res.TrialStats,
			Observed:   res.Observed,
		}
	}
}

// Significant lists, for disease d1, the other diseases whose p-value
// in the given matrix is defined and below threshold.
func (r *CrossDiseaseResult) Significant(pvalues [][]Stat, d1 int, threshold float64) []string {
	var names []string
	for d2, p := range pvalues[d1] {
		if d2 != d1 && p.OK && p.Value < threshold {
			names = append(names, r.Diseases[d2].Name)
		}
	}
	return names
}
