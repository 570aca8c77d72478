// Copyright (C) The Crosstrait Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package crosstrait

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"io/ioutil"
	"os"
)

// statscmd summarizes a cohort archive as JSON: per-disease linked and
// population counts plus the linked/known overlap that determines the
// diagonal sample sizes.
type statscmd struct{}

func (cmd *statscmd) RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var err error
	defer func() {
		if err != nil {
			fmt.Fprintf(stderr, "%s\n", err)
		}
	}()
	flags := flag.NewFlagSet("", flag.ContinueOnError)
	flags.SetOutput(stderr)
	inputFilename := flags.String("i", "-", "input `file`")
	outputFilename := flags.String("o", "-", "output `file`")
	err = flags.Parse(args)
	if err == flag.ErrHelp {
		err = nil
		return 0
	} else if err != nil {
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

	var output io.WriteCloser
	if *outputFilename == "-" {
		output = nopCloser{stdout}
	} else {
		output, err = os.OpenFile(*outputFilename, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0777)
		if err != nil {
			return 1
		}
		defer output.Close()
	}

	bufw := bufio.NewWriter(output)
	err = cmd.doStats(input, bufw)
	if err != nil {
		return 1
	}
	err = bufw.Flush()
	if err != nil {
		return 1
	}
	err = output.Close()
	if err != nil {
		return 1
	}
	return 0
}

func (cmd *statscmd) doStats(input io.Reader, output io.Writer) error {
	cohort, err := LoadCohort(input)
	if err != nil {
		return err
	}

	type diseaseStats struct {
		Name           string
		EffectKind     string
		LinkedSnps     int
		PopulationSize int
		Overlap        int // linked SNPs that also have an effect size
	}
	var ret struct {
		Diseases       []diseaseStats
		TotalLinked    int
		DistinctLinked int
	}

	distinct := map[string]bool{}
	for d, info := range cohort.Diseases {
		overlap := 0
		for _, snp := range cohort.Registry.LinkedSnps(d) {
			distinct[snp] = true
			if cohort.Store.Has(d, snp) {
				overlap++
			}
		}
		ret.Diseases = append(ret.Diseases, diseaseStats{
			Name:           info.Name,
			EffectKind:     info.Effect.String(),
			LinkedSnps:     cohort.Registry.LinkedCount(d),
			PopulationSize: cohort.Store.Len(d),
			Overlap:        overlap,
		})
		ret.TotalLinked += cohort.Registry.LinkedCount(d)
	}
	ret.DistinctLinked = len(distinct)

	return json.NewEncoder(output).Encode(ret)
}
