// Command orbgen generates numerical atomic orbital files from a YAML
// plan and a directory of reference electronic-structure runs.
//
// Usage:
//
//	orbgen -plan plan.yaml [-root .] [-v]
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/katalvlaran/orbgen/pipeline"
)

func main() {
	var (
		planPath = flag.String("plan", "", "path to the generation plan (YAML)")
		root     = flag.String("root", ".", "directory holding the reference runs; output goes here too")
		verbose  = flag.Bool("v", false, "enable debug logging")
	)
	flag.Parse()

	if *planPath == "" {
		fmt.Fprintln(os.Stderr, "orbgen: -plan is required")
		flag.Usage()
		os.Exit(2)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	plan, err := pipeline.LoadPlan(*planPath)
	if err != nil {
		log.Error("loading plan", "err", err)
		os.Exit(1)
	}
	if err := pipeline.Generate(plan, *root, log); err != nil {
		log.Error("generating orbitals", "err", err)
		os.Exit(1)
	}
}
