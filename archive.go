// Copyright (C) The Crosstrait Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package crosstrait

import (
	"bufio"
	"encoding/gob"
	"fmt"
	"io"

	"github.com/klauspost/pgzip"
)

// Cohort is one batch run's worth of in-memory state: the disease
// list, every disease's effect-size population, and the disease-linked
// SNP sets with provenance. Built once by `crosstrait import`, then
// read-only for analysis.
type Cohort struct {
	Diseases []DiseaseInfo
	Store    *EffectSizeStore
	Registry *DiseaseSnpRegistry
}

// cohortEntry is the gob wire form of a Cohort.
type cohortEntry struct {
	Diseases   []DiseaseInfo
	Effects    []map[string]float64
	Linked     [][]string
	Provenance map[string]Provenance
}

// Save writes the cohort as a pgzip-compressed gob stream.
func (c *Cohort) Save(w io.Writer) error {
	bufw := bufio.NewWriterSize(w, 1<<20)
	gzw := pgzip.NewWriter(bufw)
	ent := cohortEntry{
		Diseases:   c.Diseases,
		Effects:    c.Store.effects,
		Linked:     make([][]string, len(c.Diseases)),
		Provenance: c.Registry.prov,
	}
	for i := range c.Diseases {
		ent.Linked[i] = c.Registry.LinkedSnps(i)
	}
	if err := gob.NewEncoder(gzw).Encode(ent); err != nil {
		return fmt.Errorf("gob encode: %w", err)
	}
	if err := gzw.Close(); err != nil {
		return err
	}
	return bufw.Flush()
}

// LoadCohort reads a cohort archive written by Save.
func LoadCohort(r io.Reader) (*Cohort, error) {
	gzr, err := pgzip.NewReader(bufio.NewReaderSize(r, 1<<20))
	if err != nil {
		return nil, err
	}
	defer gzr.Close()
	var ent cohortEntry
	if err := gob.NewDecoder(gzr).Decode(&ent); err != nil {
		return nil, fmt.Errorf("gob decode: %w", err)
	}
	if len(ent.Effects) != len(ent.Diseases) || len(ent.Linked) != len(ent.Diseases) {
		return nil, fmt.Errorf("invalid archive: %d diseases, %d effect maps, %d linked sets",
			len(ent.Diseases), len(ent.Effects), len(ent.Linked))
	}
	store := NewEffectSizeStore(len(ent.Diseases))
	for i, m := range ent.Effects {
		if m != nil {
			store.effects[i] = m
		}
	}
	registry := &DiseaseSnpRegistry{
		linked: make([]map[string]bool, len(ent.Diseases)),
		prov:   ent.Provenance,
	}
	if registry.prov == nil {
		registry.prov = map[string]Provenance{}
	}
	for i, snps := range ent.Linked {
		registry.linked[i] = make(map[string]bool, len(snps))
		for _, snp := range snps {
			registry.linked[i][snp] = true
		}
	}
	return &Cohort{Diseases: ent.Diseases, Store: store, Registry: registry}, nil
}
