package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/pflag"
)

func main() {
	flags := pflag.NewFlagSet(filepath.Base(os.Args[0]), pflag.ExitOnError)
	strict := flags.Bool("strict", false, "treat unused layer table rows as violations")
	flags.Usage = func() {
		if _, err := fmt.Fprintf(flags.Output(), "Usage: %s [--strict] [paths...]\n", filepath.Base(os.Args[0])); err != nil {
			panic(err)
		}
		if _, err := fmt.Fprintf(flags.Output(), "\nLint fallback fixture catalogs for records the normalizer would drop or misread.\n\n"); err != nil {
			panic(err)
		}
		flags.PrintDefaults()
	}
	_ = flags.Parse(os.Args[1:])

	paths := flags.Args()
	if len(paths) == 0 {
		paths = []string{"internal/fixture/catalog/floorplan.yaml"}
	}

	var violations []violation
	for _, path := range paths {
		raw, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "lint %s: read file: %v\n", path, err)
			os.Exit(1)
		}
		linted, err := lintCatalog(path, raw, *strict)
		if err != nil {
			fmt.Fprintf(os.Stderr, "lint %s: %v\n", path, err)
			os.Exit(1)
		}
		violations = append(violations, linted...)
	}

	if len(violations) > 0 {
		sort.SliceStable(violations, func(i, j int) bool {
			return violations[i].file < violations[j].file
		})
		for _, v := range violations {
			fmt.Fprintf(os.Stderr, "%s: %s -> %s\n", v.file, v.location, v.message)
		}
		os.Exit(1)
	}
}
