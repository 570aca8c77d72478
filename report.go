// Copyright (C) The Crosstrait Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package crosstrait

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// formatStat renders a possibly-undefined statistic for text reports.
// Undefined values become "N/A"; NaN never appears in a report.
func formatStat(s Stat) string {
	if !s.OK {
		return "N/A"
	}
	return fmt.Sprintf("%.6g", s.Value)
}

// WriteReport writes the full analysis report: per-disease linked-SNP
// counts, the five cross-disease matrices, the KS goodness-of-fit
// p-values, and the per-disease significance lists for both p-value
// kinds.
func WriteReport(w io.Writer, cohort *Cohort, result *CrossDiseaseResult, ks []Stat, threshold float64) error {
	bufw := bufio.NewWriter(w)

	fmt.Fprintf(bufw, "Disease-linked SNP counts\n")
	for d, info := range cohort.Diseases {
		fmt.Fprintf(bufw, "%-40s %6d linked, %8d with effect size (%s)\n",
			info.Name, cohort.Registry.LinkedCount(d), cohort.Store.Len(d), info.Effect)
	}

	writeIntMatrix(bufw, "Sample size (row disease SNPs with effect under column disease)", result.Diseases, result.SampleSize)
	writeStatMatrix(bufw, "Mean effect size", result.Diseases, result.MeanEffect)
	writeStatMatrix(bufw, "Permutation p-value", result.Diseases, result.PermutationP)
	writeStatMatrix(bufw, "-log10 permutation p-value", result.Diseases, result.NegLog10P)
	writeStatMatrix(bufw, "Normal-approximation p-value", result.Diseases, result.NormalApproxP)

	fmt.Fprintf(bufw, "\nKolmogorov-Smirnov goodness of fit (linked SNPs vs 2-sigma-trimmed population)\n")
	for d, info := range cohort.Diseases {
		fmt.Fprintf(bufw, "%-40s %s\n", info.Name, formatStat(ks[d]))
	}

	writeSignificance(bufw, "permutation", result, result.PermutationP, threshold)
	writeSignificance(bufw, "normal-approximation", result, result.NormalApproxP, threshold)

	return bufw.Flush()
}

func writeStatMatrix(w io.Writer, title string, diseases []DiseaseInfo, m [][]Stat) {
	writeMatrix(w, title, diseases, func(d1, d2 int) string { return formatStat(m[d1][d2]) })
}

func writeIntMatrix(w io.Writer, title string, diseases []DiseaseInfo, m [][]int) {
	writeMatrix(w, title, diseases, func(d1, d2 int) string { return fmt.Sprintf("%d", m[d1][d2]) })
}

func writeMatrix(w io.Writer, title string, diseases []DiseaseInfo, cell func(d1, d2 int) string) {
	fmt.Fprintf(w, "\n%s\n%-24s", title, "")
	for _, info := range diseases {
		fmt.Fprintf(w, " %14s", abbreviate(info.Name, 14))
	}
	fmt.Fprintf(w, "\n")
	for d1 := range diseases {
		fmt.Fprintf(w, "%-24s", abbreviate(diseases[d1].Name, 24))
		for d2 := range diseases {
			fmt.Fprintf(w, " %14s", cell(d1, d2))
		}
		fmt.Fprintf(w, "\n")
	}
}

func abbreviate(name string, max int) string {
	if len(name) <= max {
		return name
	}
	return name[:max-3] + "..."
}

func writeSignificance(w io.Writer, kind string, result *CrossDiseaseResult, pvalues [][]Stat, threshold float64) {
	fmt.Fprintf(w, "\nDiseases with %s p-value < %g\n", kind, threshold)
	for d1, info := range result.Diseases {
		names := result.Significant(pvalues, d1, threshold)
		if len(names) == 0 {
			fmt.Fprintf(w, "%-40s (none)\n", info.Name)
			continue
		}
		fmt.Fprintf(w, "%-40s %s\n", info.Name, strings.Join(names, ", "))
	}
}

// WriteSnpListing writes, per disease, every linked SNP with its
// provenance. A linked SNP with no association record is an error
// (wrapping ErrNoProvenance): the listing depends on provenance even
// though the analyzer does not.
func WriteSnpListing(w io.Writer, cohort *Cohort) error {
	bufw := bufio.NewWriter(w)
	for d, info := range cohort.Diseases {
		fmt.Fprintf(bufw, "# %s\n", info.Name)
		for _, snp := range cohort.Registry.LinkedSnps(d) {
			prov, err := cohort.Registry.Provenance(snp)
			if err != nil {
				return fmt.Errorf("%s: %w", info.Name, err)
			}
			fmt.Fprintf(bufw, "%s\t%s\t%s\t%s\n", snp, prov.Phenotype, prov.Paper, prov.PValue)
		}
	}
	return bufw.Flush()
}
