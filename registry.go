// Copyright (C) The Crosstrait Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package crosstrait

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/klauspost/pgzip"
	log "github.com/sirupsen/logrus"
)

// ErrNoProvenance is returned by Provenance for SNPs that appear in a
// linked set but have no association record.
var ErrNoProvenance = errors.New("no association record")

// Provenance is the association-source metadata for a linked SNP. The
// fields are opaque strings from the source file, never reparsed.
type Provenance struct {
	Phenotype string
	Paper     string
	PValue    string
}

// AssociationRow is one row of the filtered-associations file.
type AssociationRow struct {
	Paper     string
	Snp       string
	Phenotype string
	Score     string
	PValue    string
}

// DiseaseSnpRegistry holds, per disease, the set of SNPs reported as
// disease-linked, plus per-SNP provenance.
type DiseaseSnpRegistry struct {
	linked []map[string]bool
	prov   map[string]Provenance
}

// RegistryFromRows attributes each association row to the FIRST
// disease (in the given canonical order) whose name appears as a
// case-insensitive substring of the row's phenotype text. A phenotype
// mentioning two disease names counts only for the earlier one; rows
// matching no disease are dropped. Callers must keep the disease
// ordering stable across runs for reproducible attribution.
func RegistryFromRows(diseases []DiseaseInfo, rows []AssociationRow) *DiseaseSnpRegistry {
	r := &DiseaseSnpRegistry{
		linked: make([]map[string]bool, len(diseases)),
		prov:   map[string]Provenance{},
	}
	for i := range r.linked {
		r.linked[i] = map[string]bool{}
	}
	names := make([]string, len(diseases))
	for i, d := range diseases {
		names[i] = strings.ToLower(d.Name)
	}
	for _, row := range rows {
		pheno := strings.ToLower(row.Phenotype)
		for i, name := range names {
			if !strings.Contains(pheno, name) {
				continue
			}
			r.linked[i][row.Snp] = true
			r.prov[row.Snp] = Provenance{
				Phenotype: row.Phenotype,
				Paper:     row.Paper,
				PValue:    row.PValue,
			}
			break
		}
	}
	return r
}

// LinkedSnps returns the SNPs linked to disease, in sorted order.
func (r *DiseaseSnpRegistry) LinkedSnps(disease int) []string {
	snps := make([]string, 0, len(r.linked[disease]))
	for snp := range r.linked[disease] {
		snps = append(snps, snp)
	}
	sort.Strings(snps)
	return snps
}

// LinkedCount returns the number of SNPs linked to disease.
func (r *DiseaseSnpRegistry) LinkedCount(disease int) int {
	return len(r.linked[disease])
}

// Provenance returns the association metadata for snp, or a
// ErrNoProvenance-wrapped error.
func (r *DiseaseSnpRegistry) Provenance(snp string) (Provenance, error) {
	p, ok := r.prov[snp]
	if !ok {
		return Provenance{}, fmt.Errorf("%s: %w", snp, ErrNoProvenance)
	}
	return p, nil
}

// LoadAssociations reads the filtered-associations file. Rows with too
// few fields are skipped silently, matching the permissive policy of
// the summary-statistics loader.
func LoadAssociations(cfg AssociationConfig) ([]AssociationRow, error) {
	f, err := os.Open(cfg.File)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var rdr io.Reader = bufio.NewReaderSize(f, 1<<20)
	if strings.HasSuffix(cfg.File, ".gz") {
		gz, err := pgzip.NewReader(rdr)
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		rdr = gz
	}
	maxcol := cfg.PaperColumn
	for _, col := range []int{cfg.SnpColumn, cfg.PhenotypeColumn, cfg.ScoreColumn, cfg.PValueColumn} {
		if col > maxcol {
			maxcol = col
		}
	}
	var rows []AssociationRow
	scanner := bufio.NewScanner(rdr)
	scanner.Buffer(make([]byte, 1<<20), 1<<20)
	for scanner.Scan() {
		fields := strings.Split(scanner.Text(), cfg.Delimiter)
		if len(fields) <= maxcol {
			continue
		}
		rows = append(rows, AssociationRow{
			Paper:     fields[cfg.PaperColumn],
			Snp:       fields[cfg.SnpColumn],
			Phenotype: fields[cfg.PhenotypeColumn],
			Score:     fields[cfg.ScoreColumn],
			PValue:    fields[cfg.PValueColumn],
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	log.Infof("%s: %d association rows", cfg.File, len(rows))
	return rows, nil
}
