// Copyright (C) The Crosstrait Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package crosstrait

import (
	"context"
	"flag"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	_ "net/http/pprof"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
)

// analyzecmd runs the cross-disease permutation analysis on a cohort
// archive and writes the report, SNP listing, and .npy matrices for
// plotting.
type analyzecmd struct {
	trials    int
	seed      uint64
	statistic string
	threshold float64
	workers   int
	timeout   time.Duration
}

func (cmd *analyzecmd) RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var err error
	defer func() {
		if err != nil {
			fmt.Fprintf(stderr, "%s\n", err)
		}
	}()
	flags := flag.NewFlagSet("", flag.ContinueOnError)
	flags.SetOutput(stderr)
	inputFilename := flags.String("i", "-", "input cohort archive `file`")
	outputDir := flags.String("output-dir", ".", "output `directory`")
	flags.IntVar(&cmd.trials, "trials", 1000, "number of permutation trials per disease pair")
	flags.Uint64Var(&cmd.seed, "seed", 0, "random `seed` (0 = nondeterministic)")
	flags.StringVar(&cmd.statistic, "stat", "mean", "sample statistic (mean, median, or p<k>)")
	flags.Float64Var(&cmd.threshold, "threshold", 0.05, "significance threshold for report lists")
	flags.IntVar(&cmd.workers, "workers", 0, "max concurrent disease pairs (0 = GOMAXPROCS)")
	flags.DurationVar(&cmd.timeout, "timeout", 0, "abort the analysis after this `duration` (0 = no limit)")
	pprof := flags.String("pprof", "", "serve Go profile data at http://`[addr]:port`")
	loglevel := flags.String("loglevel", "info", "logging threshold (trace, debug, info, warn, error, fatal, or panic)")
	err = flags.Parse(args)
	if err == flag.ErrHelp {
		err = nil
		return 0
	} else if err != nil {
		return 2
	}

	if *pprof != "" {
		go func() {
			log.Println(http.ListenAndServe(*pprof, nil))
		}()
	}

	lvl, err := log.ParseLevel(*loglevel)
	if err != nil {
		return 2
	}
	log.SetLevel(lvl)

	statistic, err := StatisticByName(cmd.statistic)
	if err != nil {
		return 2
	}

	var input io.ReadCloser
	if *inputFilename == "-" {
		input = ioutil.NopCloser(stdin)
	} else {
		input, err = os.Open(*inputFilename)
		if err != nil {
			return 1
		}
		defer input.Close()
	}
	cohort, err := LoadCohort(input)
	if err != nil {
		return 1
	}
	input.Close()

	ctx := context.Background()
	if cmd.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cmd.timeout)
		defer cancel()
	}

	analyzer := &CrossDiseaseAnalyzer{
		Trials:    cmd.trials,
		Statistic: statistic,
		Seed:      cmd.seed,
		Workers:   cmd.workers,
	}
	t0 := time.Now()
	result, err := analyzer.Analyze(ctx, cohort)
	if err != nil {
		return 1
	}
	log.Infof("analysis finished in %v", time.Since(t0))

	ks := EvaluateGoodnessOfFit(cohort)

	err = cmd.writeOutputs(*outputDir, cohort, result, ks)
	if err != nil {
		return 1
	}
	return 0
}

func (cmd *analyzecmd) writeOutputs(dir string, cohort *Cohort, result *CrossDiseaseResult, ks []Stat) error {
	if err := os.MkdirAll(dir, 0777); err != nil {
		return err
	}

	report, err := os.OpenFile(dir+"/report.txt", os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0777)
	if err != nil {
		return err
	}
	defer report.Close()
	if err = WriteReport(report, cohort, result, ks, cmd.threshold); err != nil {
		return err
	}
	if err = report.Close(); err != nil {
		return err
	}

	listing, err := os.OpenFile(dir+"/snps.txt", os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0777)
	if err != nil {
		return err
	}
	defer listing.Close()
	if err = WriteSnpListing(listing, cohort); err != nil {
		return err
	}
	if err = listing.Close(); err != nil {
		return err
	}

	for _, m := range []struct {
		filename string
		matrix   [][]Stat
	}{
		{"meaneffect.npy", result.MeanEffect},
		{"permutation_p.npy", result.PermutationP},
		{"neglog10_p.npy", result.NegLog10P},
		{"normal_p.npy", result.NormalApproxP},
	} {
		data, shape := statMatrix2array(m.matrix)
		if err := writeNpy(dir+"/"+m.filename, shape, data); err != nil {
			return err
		}
	}
	data, shape := intMatrix2array(result.SampleSize)
	if err := writeNpy(dir+"/samplesize.npy", shape, data); err != nil {
		return err
	}
	if err := writeNpy(dir+"/ks_p.npy", []int{len(ks)}, stats2array(ks)); err != nil {
		return err
	}
	for d := range cohort.Diseases {
		diag := result.SameDisease[d]
		sample := diag.Sample
		if sample == nil {
			sample = []float64{}
		}
		trials := diag.TrialStats
		if trials == nil {
			trials = []float64{}
		}
		population := cohort.Store.Population(d)
		if err := writeNpy(fmt.Sprintf("%s/sample_%d.npy", dir, d), []int{len(sample)}, sample); err != nil {
			return err
		}
		if err := writeNpy(fmt.Sprintf("%s/trials_%d.npy", dir, d), []int{len(trials)}, trials); err != nil {
			return err
		}
		if err := writeNpy(fmt.Sprintf("%s/population_%d.npy", dir, d), []int{len(population)}, population); err != nil {
			return err
		}
	}

	// plot.py reads disease names and effect kinds from here.
	diseases, err := os.OpenFile(dir+"/diseases.txt", os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0777)
	if err != nil {
		return err
	}
	defer diseases.Close()
	for _, info := range cohort.Diseases {
		if _, err = fmt.Fprintf(diseases, "%s\t%s\n", info.Name, info.Effect); err != nil {
			return err
		}
	}
	return diseases.Close()
}
