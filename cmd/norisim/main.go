package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"norifarm/observability/logging"
	"norifarm/tools/scenario"
)

func main() {
	var verbose bool
	flag.BoolVar(&verbose, "v", false, "log every applied step")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: norisim [-v] scenario.yaml...\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	level := "info"
	if verbose {
		level = "debug"
	}
	logger := logging.Setup("norisim", "", logging.Options{Level: level, Output: os.Stderr})

	failed := false
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	for _, path := range flag.Args() {
		sc, err := scenario.Load(path)
		if err != nil {
			logger.Error("load scenario", "path", path, "error", err)
			failed = true
			continue
		}
		res, err := scenario.Run(sc, logger)
		if err != nil {
			logger.Error("scenario failed", "path", path, "error", err)
			failed = true
			if res == nil {
				continue
			}
		}
		rep, err := res.Report(sc)
		if err != nil {
			logger.Error("summarise scenario", "path", path, "error", err)
			failed = true
			continue
		}
		if err := enc.Encode(rep); err != nil {
			logger.Error("write report", "error", err)
			os.Exit(1)
		}
	}
	if failed {
		os.Exit(1)
	}
}
