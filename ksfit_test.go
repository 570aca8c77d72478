// Copyright (C) The Crosstrait Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package crosstrait

import (
	"gopkg.in/check.v1"
)

type ksfitSuite struct{}

var _ = check.Suite(&ksfitSuite{})

func (s *ksfitSuite) TestPValueRange(c *check.C) {
	sample := []float64{0.1, 0.4, 0.2, 0.9, 0.5}
	population := make([]float64, 300)
	for i := range population {
		population[i] = float64(i%71) / 70
	}
	p := KSGoodnessOfFit(sample, population)
	c.Assert(p.OK, check.Equals, true)
	c.Check(p.Value >= 0, check.Equals, true)
	c.Check(p.Value <= 1, check.Equals, true)
}

func (s *ksfitSuite) TestIdenticalDistributions(c *check.C) {
	// Sample drawn straight from the population: no evidence against
	// the null.
	population := make([]float64, 200)
	for i := range population {
		population[i] = float64(i) / 200
	}
	sample := append([]float64(nil), population...)
	p := KSGoodnessOfFit(sample, population)
	c.Assert(p.OK, check.Equals, true)
	c.Check(p.Value > 0.5, check.Equals, true)
}

func (s *ksfitSuite) TestDisjointDistributions(c *check.C) {
	population := make([]float64, 200)
	sample := make([]float64, 50)
	for i := range population {
		population[i] = float64(i) / 200
	}
	for i := range sample {
		sample[i] = 10 + float64(i)
	}
	p := KSGoodnessOfFit(sample, population)
	c.Assert(p.OK, check.Equals, true)
	c.Check(p.Value < 1e-6, check.Equals, true)
}

func (s *ksfitSuite) TestTrimDropsOutliers(c *check.C) {
	// The 2-sigma trim happens on the population side only; a sample
	// sitting exactly where the outliers were still gets compared to
	// the trimmed bulk.
	population := []float64{0, 0.1, 0.2, 0.1, 0, 0.2, 0.1, 0.15, 0.05, 100}
	p := KSGoodnessOfFit([]float64{100, 100, 100}, population)
	c.Assert(p.OK, check.Equals, true)
	c.Check(p.Value < 0.05, check.Equals, true)
}

func (s *ksfitSuite) TestShortInputsUndefined(c *check.C) {
	c.Check(KSGoodnessOfFit(nil, []float64{1, 2, 3}), check.Equals, Undefined)
	c.Check(KSGoodnessOfFit([]float64{1}, []float64{1, 2, 3}), check.Equals, Undefined)
	c.Check(KSGoodnessOfFit([]float64{1, 2}, []float64{1}), check.Equals, Undefined)
}

func (s *ksfitSuite) TestKsSurvivalLimits(c *check.C) {
	c.Check(ksSurvival(0), check.Equals, 1.0)
	c.Check(ksSurvival(10) < 1e-10, check.Equals, true)
	mid := ksSurvival(1)
	c.Check(mid > 0, check.Equals, true)
	c.Check(mid < 1, check.Equals, true)
}

func (s *ksfitSuite) TestEvaluateGoodnessOfFit(c *check.C) {
	diseases := []DiseaseInfo{{Name: "A"}, {Name: "B"}}
	store := NewEffectSizeStore(2)
	for i := 0; i < 50; i++ {
		store.Add(0, "rsA"+string(rune('0'+i%10))+string(rune('a'+i/10)), float64(i)/50)
	}
	store.Add(1, "rsB1", 0.5)
	registry := RegistryFromRows(diseases, []AssociationRow{
		{Snp: "rsA0a", Phenotype: "a trait"},
		{Snp: "rsA1a", Phenotype: "a trait"},
		{Snp: "rsA2a", Phenotype: "a trait"},
	})
	cohort := &Cohort{Diseases: diseases, Store: store, Registry: registry}
	ks := EvaluateGoodnessOfFit(cohort)
	c.Assert(ks, check.HasLen, 2)
	c.Check(ks[0].OK, check.Equals, true)
	// Disease B has no linked SNPs with effect sizes.
	c.Check(ks[1], check.Equals, Undefined)
}
