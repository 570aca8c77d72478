// Copyright (C) The Crosstrait Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package crosstrait

import (
	"flag"
	"fmt"
	"io"
	"net/http"
	_ "net/http/pprof"
	"os"

	log "github.com/sirupsen/logrus"
)

// importer loads the association source and every disease's summary
// statistics into a cohort archive, so the expensive flat-file parsing
// happens once per cohort.
type importer struct {
	configFile string
	outputFile string
}

func (cmd *importer) RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var err error
	defer func() {
		if err != nil {
			fmt.Fprintf(stderr, "%s\n", err)
		}
	}()
	flags := flag.NewFlagSet("", flag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.StringVar(&cmd.configFile, "config", "", "cohort configuration `file` (TOML)")
	flags.StringVar(&cmd.outputFile, "o", "-", "output `file`")
	pprof := flags.String("pprof", "", "serve Go profile data at http://`[addr]:port`")
	loglevel := flags.String("loglevel", "info", "logging threshold (trace, debug, info, warn, error, fatal, or panic)")
	err = flags.Parse(args)
	if err == flag.ErrHelp {
		err = nil
		return 0
	} else if err != nil {
		return 2
	} else if cmd.configFile == "" {
		fmt.Fprintln(stderr, "cannot import without -config argument")
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

	cfg, err := LoadConfig(cmd.configFile)
	if err != nil {
		return 1
	}

	rows, err := LoadAssociations(cfg.Associations)
	if err != nil {
		return 1
	}
	registry := RegistryFromRows(cfg.Infos(), rows)

	store, err := LoadEffectSizes(cfg.Diseases)
	if err != nil {
		return 1
	}

	cohort := &Cohort{Diseases: cfg.Infos(), Store: store, Registry: registry}
	for d, info := range cohort.Diseases {
		log.Infof("%s: %d linked SNPs", info.Name, registry.LinkedCount(d))
	}

	var output io.WriteCloser
	if cmd.outputFile == "-" {
		output = nopCloser{stdout}
	} else {
		output, err = os.OpenFile(cmd.outputFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0777)
		if err != nil {
			return 1
		}
		defer output.Close()
	}
	err = cohort.Save(output)
	if err != nil {
		return 1
	}
	err = output.Close()
	if err != nil {
		return 1
	}
	return 0
}
