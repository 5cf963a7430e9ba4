// Command modquery runs a catalog search without the terminal UI and prints
// the results, for scripts and for checking a catalog file.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/mmcdole/modbrowse/internal/adapter"
	"github.com/mmcdole/modbrowse/internal/adapter/source"
	"github.com/mmcdole/modbrowse/internal/domain"
	"github.com/mmcdole/modbrowse/internal/headless"
	"github.com/mmcdole/modbrowse/internal/worker"
	"github.com/spf13/pflag"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, out, errOut io.Writer) int {
	v := adapter.NewViper()
	fs := pflag.NewFlagSet("modquery", pflag.ContinueOnError)
	fs.SetOutput(errOut)

	configFile := fs.StringP("config", "c", "", "config file")
	pages := fs.IntP("pages", "p", 1, "pages to load")
	details := fs.IntP("details", "d", 0, "show versions for the first N results")
	timeout := fs.Duration("timeout", time.Minute, "give up after this long")
	if err := adapter.RegisterFlags(fs, v); err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}

	cfg, err := adapter.LoadConfig(v, *configFile)
	if err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(errOut, "error: invalid config:", err)
		return 1
	}

	logger, closer, err := adapter.SetupLogger(&cfg.Logging)
	if err != nil {
		logger = adapter.NullLogger()
	} else {
		defer closer.Close()
	}

	catalog, err := source.NewCatalog(cfg, logger)
	if err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}

	pool := worker.NewPool(worker.Config{Workers: cfg.Workers.Count}, logger)
	defer pool.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	opts := headless.Options{
		Criteria: domain.SearchCriteria{
			Query:     strings.Join(fs.Args(), " "),
			Modpacks:  cfg.Search.Modpacks,
			MCVersion: cfg.Search.MCVersion,
		},
		Pages:   *pages,
		Details: *details,
	}
	rep, err := headless.Run(ctx, catalog, pool, opts, logger)
	if rep != nil {
		printReport(out, rep)
	}
	if err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}
	return 0
}

func printReport(out io.Writer, rep *headless.Report) {
	if len(rep.Items) == 0 {
		fmt.Fprintln(out, "no results")
		return
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tSRC\tID\tTITLE\tDOWNLOADS")
	for i, it := range rep.Items {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\n", i+1, it.Source.Badge(), it.ID, it.Title, it.Downloads)
	}
	_ = tw.Flush()

	more := ""
	if !rep.EndOfData {
		more = ", more available"
	}
	fmt.Fprintf(out, "\n%d of %d results in %d page(s)%s\n", len(rep.Items), rep.TotalHits, rep.Pages, more)

	for _, d := range rep.Details {
		fmt.Fprintf(out, "\n%s\n", d.Item.Title)
		switch {
		case d.Err != nil:
			fmt.Fprintf(out, "  details unavailable: %v\n", d.Err)
		case len(d.Versions) == 0:
			fmt.Fprintln(out, "  no versions")
		default:
			for _, name := range d.Versions {
				fmt.Fprintf(out, "  %s\n", name)
			}
		}
	}
}
