// Copyright (C) The Crosstrait Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package crosstrait

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/klauspost/pgzip"
	log "github.com/sirupsen/logrus"
)

// EffectSizeStore holds, per disease, the SNP id → effect size mapping
// from that disease's genome-wide summary statistics, plus a cached
// population slice for resampling.
type EffectSizeStore struct {
	effects     []map[string]float64
	populations [][]float64
}

// NewEffectSizeStore allocates a store for n diseases.
func NewEffectSizeStore(n int) *EffectSizeStore {
	s := &EffectSizeStore{
		effects:     make([]map[string]float64, n),
		populations: make([][]float64, n),
	}
	for i := range s.effects {
		s.effects[i] = map[string]float64{}
	}
	return s
}

// Add records an effect size. A later Add for the same (disease, snp)
// pair overwrites the earlier one.
func (s *EffectSizeStore) Add(disease int, snp string, effect float64) {
	s.effects[disease][snp] = effect
	s.populations[disease] = nil
}

// Effect returns the effect size of snp under disease, if known.
func (s *EffectSizeStore) Effect(disease int, snp string) (float64, bool) {
	v, ok := s.effects[disease][snp]
	return v, ok
}

// Has reports whether disease has an effect size for snp.
func (s *EffectSizeStore) Has(disease int, snp string) bool {
	_, ok := s.effects[disease][snp]
	return ok
}

// Len returns the number of SNPs with a known effect size for disease.
func (s *EffectSizeStore) Len(disease int) int {
	return len(s.effects[disease])
}

// Snps returns the SNP ids with a known effect size for disease, in
// sorted order.
func (s *EffectSizeStore) Snps(disease int) []string {
	snps := make([]string, 0, len(s.effects[disease]))
	for snp := range s.effects[disease] {
		snps = append(snps, snp)
	}
	sort.Strings(snps)
	return snps
}

// Population returns all effect sizes known for disease. The slice is
// cached and must not be modified. Not safe for concurrent first use:
// callers running workers should touch every disease once beforehand.
func (s *EffectSizeStore) Population(disease int) []float64 {
	if s.populations[disease] == nil {
		pop := make([]float64, 0, len(s.effects[disease]))
		for _, snp := range s.Snps(disease) {
			pop = append(pop, s.effects[disease][snp])
		}
		s.populations[disease] = pop
	}
	return s.populations[disease]
}

// LoadEffectSizes reads every configured summary-statistics file into
// a fresh store, one worker per file up to GOMAXPROCS. Rows whose
// effect-size field does not parse as a finite number are skipped
// silently; the last parsed value for a SNP wins.
func LoadEffectSizes(cfgs []DiseaseConfig) (*EffectSizeStore, error) {
	store := NewEffectSizeStore(len(cfgs))
	var (
		wg       sync.WaitGroup
		sem      = make(chan bool, runtime.GOMAXPROCS(0))
		errOnce  sync.Once
		firstErr error
	)
	for i, cfg := range cfgs {
		i, cfg := i, cfg
		wg.Add(1)
		sem <- true
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			n, err := loadSummaryStats(store.effects[i], cfg)
			if err != nil {
				errOnce.Do(func() { firstErr = fmt.Errorf("%s: %w", cfg.Name, err) })
				return
			}
			log.Infof("%s: %d effect sizes from %s", cfg.Name, n, cfg.File)
		}()
	}
	wg.Wait()
	if firstErr != nil {
		return nil, firstErr
	}
	return store, nil
}

func loadSummaryStats(dst map[string]float64, cfg DiseaseConfig) (int, error) {
	f, err := os.Open(cfg.File)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	var rdr io.Reader = bufio.NewReaderSize(f, 1<<20)
	if strings.HasSuffix(cfg.File, ".gz") {
		gz, err := pgzip.NewReader(rdr)
		if err != nil {
			return 0, err
		}
		defer gz.Close()
		rdr = gz
	}
	maxcol := cfg.SnpColumn
	if cfg.EffectColumn > maxcol {
		maxcol = cfg.EffectColumn
	}
	scanner := bufio.NewScanner(rdr)
	scanner.Buffer(make([]byte, 1<<20), 1<<20)
	for scanner.Scan() {
		fields := strings.Split(scanner.Text(), cfg.Delimiter)
		if len(fields) <= maxcol {
			continue
		}
		effect, err := strconv.ParseFloat(fields[cfg.EffectColumn], 64)
		if err != nil || math.IsNaN(effect) || math.IsInf(effect, 0) {
			// header rows and malformed numerics land here
			continue
		}
		dst[fields[cfg.SnpColumn]] = effect
	}
	if err := scanner.Err(); err != nil {
		return 0, err
	}
	return len(dst), nil
}
