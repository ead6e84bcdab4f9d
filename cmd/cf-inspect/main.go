// Command cf-inspect is a thin CLI for describing and querying a compiled
// Context-Fabric store, mainly useful for smoke-testing a corpus build.
// It is not the .tf importer or a query server: neither is part of this
// module.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/context-fabric/fabric"
	"github.com/context-fabric/fabric/logging"
	"github.com/context-fabric/fabric/spin"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "cf-inspect:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		return usageError()
	}

	switch args[0] {
	case "describe":
		return runDescribe(args[1:])
	case "search":
		return runSearch(args[1:])
	default:
		return usageError()
	}
}

func usageError() error {
	fmt.Fprintln(os.Stderr, `usage: cf-inspect <command> [flags]

commands:
  describe -corpus <path> [-version N]
        print the corpus's type table, feature catalog, and text formats
  search -corpus <path> -template <src> [-version N] [-return results|count|statistics|passages] [-limit N]
        run a SPIN template against the corpus and print the result as JSON`)
	return flag.ErrHelp
}

func openFabric(corpus string, version uint, verbose bool) (*fabric.Fabric, error) {
	var opts []fabric.Option
	if verbose {
		opts = append(opts, fabric.WithLogger(logging.NewText(slog.LevelDebug)))
	}
	return fabric.Open(corpus, uint32(version), opts...)
}

func runDescribe(args []string) error {
	fs := flag.NewFlagSet("describe", flag.ExitOnError)
	corpus := fs.String("corpus", "", "path to a compiled v{N}/ corpus directory's parent")
	version := fs.Uint("version", 0, "corpus version to open (0 = latest)")
	verbose := fs.Bool("v", false, "log at debug level")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *corpus == "" {
		return usageError()
	}

	fab, err := openFabric(*corpus, *version, *verbose)
	if err != nil {
		return err
	}
	defer fab.Close()

	return json.NewEncoder(os.Stdout).Encode(fab.Describe())
}

func runSearch(args []string) error {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	corpus := fs.String("corpus", "", "path to a compiled v{N}/ corpus directory's parent")
	version := fs.Uint("version", 0, "corpus version to open (0 = latest)")
	template := fs.String("template", "", "SPIN template source")
	returnType := fs.String("return", "results", "results|count|statistics|passages")
	limit := fs.Int("limit", 20, "max rows for return=results")
	verbose := fs.Bool("v", false, "log at debug level")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *corpus == "" || *template == "" {
		return usageError()
	}

	rt, err := parseReturnType(*returnType)
	if err != nil {
		return err
	}

	fab, err := openFabric(*corpus, *version, *verbose)
	if err != nil {
		return err
	}
	defer fab.Close()

	api, err := fab.Load("all")
	if err != nil {
		return err
	}

	page, err := api.S.Search(context.Background(), *template, spin.SearchOptions{ReturnType: rt, Limit: *limit})
	if err != nil {
		return err
	}
	return json.NewEncoder(os.Stdout).Encode(page)
}

func parseReturnType(s string) (spin.ReturnType, error) {
	switch s {
	case "results":
		return spin.ReturnResults, nil
	case "count":
		return spin.ReturnCount, nil
	case "statistics":
		return spin.ReturnStatistics, nil
	case "passages":
		return spin.ReturnPassages, nil
	default:
		return 0, fmt.Errorf("unknown -return %q", s)
	}
}
