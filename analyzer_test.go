// Copyright (C) The Crosstrait Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package crosstrait

import (
	"context"
	"time"

	"gopkg.in/check.v1"
)

type analyzerSuite struct{}

var _ = check.Suite(&analyzerSuite{})

// testCohort builds a small fixture: disease A linked to {s1, s2},
// disease B knowing effects {s1: 0.2, s2: 0.3, s3: 0.1, s4: 0.25},
// plus a disease C whose only linked SNP has no effect size anywhere.
func (s *analyzerSuite) testCohort() *Cohort {
	diseases := []DiseaseInfo{
		{Name: "DiseaseA", Effect: EffectBeta},
		{Name: "DiseaseB", Effect: EffectBeta},
		{Name: "DiseaseC", Effect: EffectOddsRatio},
	}
	store := NewEffectSizeStore(len(diseases))
	store.Add(0, "s1", 0.5)
	store.Add(0, "s2", 0.6)
	store.Add(0, "s5", 0.1)
	store.Add(0, "s6", 0.2)
	store.Add(1, "s1", 0.2)
	store.Add(1, "s2", 0.3)
	store.Add(1, "s3", 0.1)
	store.Add(1, "s4", 0.25)
	store.Add(2, "s7", 1.2)
	store.Add(2, "s8", 0.9)

	registry := RegistryFromRows(diseases, []AssociationRow{
		{Paper: "p1", Snp: "s1", Phenotype: "diseasea risk", PValue: "1e-8"},
		{Paper: "p1", Snp: "s2", Phenotype: "DiseaseA severity", PValue: "2e-6"},
		{Paper: "p2", Snp: "s9", Phenotype: "diseasec onset", PValue: "1e-5"},
	})
	return &Cohort{Diseases: diseases, Store: store, Registry: registry}
}

func (s *analyzerSuite) analyzer(seed uint64) *CrossDiseaseAnalyzer {
	mean, _ := StatisticByName("mean")
	return &CrossDiseaseAnalyzer{Trials: 4, Statistic: mean, Seed: seed}
}

func (s *analyzerSuite) TestMatrixShape(c *check.C) {
	result, err := s.analyzer(7).Analyze(context.Background(), s.testCohort())
	c.Assert(err, check.IsNil)
	c.Assert(result.SampleSize, check.HasLen, 3)
	for d1 := 0; d1 < 3; d1++ {
		c.Check(result.SampleSize[d1], check.HasLen, 3)
		c.Check(result.MeanEffect[d1], check.HasLen, 3)
		c.Check(result.PermutationP[d1], check.HasLen, 3)
		c.Check(result.NegLog10P[d1], check.HasLen, 3)
		c.Check(result.NormalApproxP[d1], check.HasLen, 3)
	}
}

func (s *analyzerSuite) TestCrossCellValues(c *check.C) {
	result, err := s.analyzer(7).Analyze(context.Background(), s.testCohort())
	c.Assert(err, check.IsNil)
	// (A, B): both of A's SNPs have an effect under B.
	c.Check(result.SampleSize[0][1], check.Equals, 2)
	c.Check(result.MeanEffect[0][1], check.Equals, Stat{Value: 0.25, OK: true})
	c.Check(result.PermutationP[0][1].OK, check.Equals, true)
	c.Check(result.NegLog10P[0][1].OK, check.Equals, true)
}

func (s *analyzerSuite) TestDiagonalSampleSize(c *check.C) {
	cohort := s.testCohort()
	result, err := s.analyzer(7).Analyze(context.Background(), cohort)
	c.Assert(err, check.IsNil)
	// Diagonal sample size is |linked ∩ known|.
	c.Check(result.SampleSize[0][0], check.Equals, 2)
	c.Check(result.SampleSize[2][2], check.Equals, 0)
	c.Check(result.SameDisease[0].Sample, check.DeepEquals, []float64{0.5, 0.6})
	c.Check(result.SameDisease[0].TrialStats, check.HasLen, 4)
	c.Check(result.SameDisease[0].Observed.OK, check.Equals, true)
}

func (s *analyzerSuite) TestEmptyOverlapSentinel(c *check.C) {
	result, err := s.analyzer(7).Analyze(context.Background(), s.testCohort())
	c.Assert(err, check.IsNil)
	// Disease C's linked SNP s9 has no effect size anywhere: every C
	// row cell is the explicit insufficient-data sentinel.
	for d2 := 0; d2 < 3; d2++ {
		c.Check(result.SampleSize[2][d2], check.Equals, 0)
		c.Check(result.MeanEffect[2][d2], check.Equals, Undefined)
		c.Check(result.PermutationP[2][d2], check.Equals, Undefined)
		c.Check(result.NegLog10P[2][d2], check.Equals, Undefined)
		c.Check(result.NormalApproxP[2][d2], check.Equals, Undefined)
	}
}

func (s *analyzerSuite) TestSeededDeterminism(c *check.C) {
	cohort := s.testCohort()
	result1, err := s.analyzer(99).Analyze(context.Background(), cohort)
	c.Assert(err, check.IsNil)
	result2, err := s.analyzer(99).Analyze(context.Background(), cohort)
	c.Assert(err, check.IsNil)
	c.Check(result1.PermutationP, check.DeepEquals, result2.PermutationP)
	c.Check(result1.NormalApproxP, check.DeepEquals, result2.NormalApproxP)
	c.Check(result1.NegLog10P, check.DeepEquals, result2.NegLog10P)
	c.Check(result1.SameDisease, check.DeepEquals, result2.SameDisease)
}

func (s *analyzerSuite) TestUnseededStableColumns(c *check.C) {
	cohort := s.testCohort()
	result1, err := s.analyzer(0).Analyze(context.Background(), cohort)
	c.Assert(err, check.IsNil)
	result2, err := s.analyzer(0).Analyze(context.Background(), cohort)
	c.Assert(err, check.IsNil)
	// Randomness may move the p-values, never the non-random columns.
	c.Check(result1.SampleSize, check.DeepEquals, result2.SampleSize)
	c.Check(result1.MeanEffect, check.DeepEquals, result2.MeanEffect)
}

func (s *analyzerSuite) TestCancelledContext(c *check.C) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.analyzer(7).Analyze(ctx, s.testCohort())
	c.Check(err, check.Equals, context.Canceled)
}

func (s *analyzerSuite) TestDeadline(c *check.C) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	time.Sleep(time.Millisecond)
	_, err := s.analyzer(7).Analyze(ctx, s.testCohort())
	c.Check(err, check.Equals, context.DeadlineExceeded)
}

func (s *analyzerSuite) TestSignificantList(c *check.C) {
	result := &CrossDiseaseResult{
		Diseases: []DiseaseInfo{{Name: "A"}, {Name: "B"}, {Name: "C"}},
		PermutationP: [][]Stat{
			{Defined(0.001), Defined(0.01), Undefined},
			{Defined(0.2), Defined(0.001), Defined(0.04)},
			{Undefined, Undefined, Undefined},
		},
	}
	// The diagonal and undefined cells never count.
	c.Check(result.Significant(result.PermutationP, 0, 0.05), check.DeepEquals, []string{"B"})
	c.Check(result.Significant(result.PermutationP, 1, 0.05), check.DeepEquals, []string{"C"})
	c.Check(result.Significant(result.PermutationP, 2, 0.05), check.IsNil)
}
