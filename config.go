// Copyright (C) The Crosstrait Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package crosstrait

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/BurntSushi/toml"
)

// EffectKind distinguishes summary statistics reporting a regression
// coefficient (Beta, centered at 0) from an odds ratio (centered at 1,
// log-transformed before magnitude comparisons).
type EffectKind int

const (
	EffectBeta EffectKind = iota
	EffectOddsRatio
)

func (k EffectKind) String() string {
	if k == EffectOddsRatio {
		return "oddsratio"
	}
	return "beta"
}

func (k *EffectKind) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "beta":
		*k = EffectBeta
	case "or", "oddsratio", "odds-ratio":
		*k = EffectOddsRatio
	default:
		return fmt.Errorf("unknown effect kind %q (want beta or oddsratio)", text)
	}
	return nil
}

// DiseaseConfig describes one disease and the summary-statistics file
// its effect sizes come from. Column indices are 0-based. Files ending
// in .gz are read through pgzip.
type DiseaseConfig struct {
	Name         string     `toml:"name"`
	File         string     `toml:"file"`
	SnpColumn    int        `toml:"snp_column"`
	EffectColumn int        `toml:"effect_column"`
	Delimiter    string     `toml:"delimiter"`
	Effect       EffectKind `toml:"effect"`
}

// AssociationConfig describes the filtered-associations file mapping
// papers to SNP/phenotype/p-value rows.
type AssociationConfig struct {
	File            string `toml:"file"`
	Delimiter       string `toml:"delimiter"`
	PaperColumn     int    `toml:"paper_column"`
	SnpColumn       int    `toml:"snp_column"`
	PhenotypeColumn int    `toml:"phenotype_column"`
	ScoreColumn     int    `toml:"score_column"`
	PValueColumn    int    `toml:"pvalue_column"`
}

// Config is the cohort configuration. The order of Diseases is the
// canonical disease ordering: SNP-to-disease attribution and all
// report/matrix layouts follow it.
type Config struct {
	Trials       int               `toml:"trials"`
	Threshold    float64           `toml:"threshold"`
	Statistic    string            `toml:"statistic"`
	Associations AssociationConfig `toml:"associations"`
	Diseases     []DiseaseConfig   `toml:"diseases"`
}

// LoadConfig reads and validates a TOML cohort configuration, filling
// in defaults (1000 trials, 0.05 threshold, mean statistic, tab
// delimiters).
func LoadConfig(filename string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(filename, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	if cfg.Trials == 0 {
		cfg.Trials = 1000
	}
	if cfg.Threshold == 0 {
		cfg.Threshold = 0.05
	}
	if cfg.Statistic == "" {
		cfg.Statistic = "mean"
	}
	if cfg.Associations.Delimiter == "" {
		cfg.Associations.Delimiter = "\t"
	}
	for i := range cfg.Diseases {
		if cfg.Diseases[i].Delimiter == "" {
			cfg.Diseases[i].Delimiter = "\t"
		}
	}
	if err := cfg.check(); err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return &cfg, nil
}

func (cfg *Config) check() error {
	if len(cfg.Diseases) < 2 {
		return fmt.Errorf("need at least 2 diseases, have %d", len(cfg.Diseases))
	}
	if cfg.Trials < 1 {
		return fmt.Errorf("trials must be positive, have %d", cfg.Trials)
	}
	if cfg.Threshold <= 0 || cfg.Threshold >= 1 {
		return fmt.Errorf("threshold must be in (0,1), have %g", cfg.Threshold)
	}
	if _, err := StatisticByName(cfg.Statistic); err != nil {
		return err
	}
	if cfg.Associations.File == "" {
		return fmt.Errorf("associations.file not set")
	}
	if utf8.RuneCountInString(cfg.Associations.Delimiter) != 1 {
		return fmt.Errorf("associations.delimiter must be a single character, have %q", cfg.Associations.Delimiter)
	}
	seen := map[string]bool{}
	for i, d := range cfg.Diseases {
		if d.Name == "" {
			return fmt.Errorf("disease %d: name not set", i)
		}
		if seen[strings.ToLower(d.Name)] {
			return fmt.Errorf("disease %q listed twice", d.Name)
		}
		seen[strings.ToLower(d.Name)] = true
		if d.File == "" {
			return fmt.Errorf("disease %q: file not set", d.Name)
		}
		if utf8.RuneCountInString(d.Delimiter) != 1 {
			return fmt.Errorf("disease %q: delimiter must be a single character, have %q", d.Name, d.Delimiter)
		}
		if d.SnpColumn < 0 || d.EffectColumn < 0 || d.SnpColumn == d.EffectColumn {
			return fmt.Errorf("disease %q: snp_column and effect_column must be distinct non-negative indices", d.Name)
		}
	}
	return nil
}

// DiseaseInfo is the per-disease identity carried through analysis and
// into the cohort archive: name plus effect-size kind.
type DiseaseInfo struct {
	Name   string
	Effect EffectKind
}

// Infos projects the configured diseases into their archive form.
func (cfg *Config) Infos() []DiseaseInfo {
	infos := make([]DiseaseInfo, len(cfg.Diseases))
	for i, d := range cfg.Diseases {
		infos[i] = DiseaseInfo{Name: d.Name, Effect: d.Effect}
	}
	return infos
}
