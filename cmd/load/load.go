// Package load provides the load command, which ingests definition files.
package load

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/tphakala/zclstore/cmd/output"
	"github.com/tphakala/zclstore/internal/app"
	"github.com/tphakala/zclstore/internal/buildinfo"
	"github.com/tphakala/zclstore/internal/conf"
	"github.com/tphakala/zclstore/internal/definition"
	"github.com/tphakala/zclstore/internal/ingest"
	"github.com/tphakala/zclstore/internal/logger"
	"github.com/tphakala/zclstore/internal/zcl"
)

// Command creates and returns the load command
func Command(settings *conf.Settings) *cobra.Command {
	var (
		jobs   int
		format string
	)

	cmd := &cobra.Command{
		Use:   "load <definition.yaml>...",
		Short: "Load definition files into the store",
		Long: `Load parses each definition file and stores it as a package. Files are
processed in parallel; loading a file that is already stored is a no-op that
reports the existing package.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := output.ParseFormat(format)
			if err != nil {
				return err
			}

			a, err := app.Open(settings, buildinfo.Current().GetVersion())
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			return Run(cmd.Context(), a.Loader, a.Log, args, jobs, f, cmd.OutOrStdout())
		},
	}

	cmd.Flags().IntVarP(&jobs, "jobs", "j", 0, "Files parsed in parallel (default: ingest.maxconcurrentloads)")
	cmd.Flags().StringVarP(&format, "output", "o", string(output.FormatTable), "Output format: table, json")

	return cmd
}

// FileResult is the outcome of loading one file.
type FileResult struct {
	File     string         `json:"file"`
	Identity zcl.Identity   `json:"identity"`
	Result   *ingest.Result `json:"result,omitempty"`
	Error    string         `json:"error,omitempty"`
}

// Run loads every path, at most jobs at a time, prints one row per file and
// returns an error if any file failed. Results keep the argument order.
func Run(ctx context.Context, loader *ingest.Loader, log logger.Logger, paths []string, jobs int, format output.Format, w io.Writer) error {
	if jobs <= 0 {
		jobs = ingest.DefaultMaxConcurrentLoads
	}

	results := make([]FileResult, len(paths))

	var g errgroup.Group
	g.SetLimit(jobs)
	for i, path := range paths {
		g.Go(func() error {
			results[i] = loadFile(ctx, loader, path)
			if results[i].Error != "" {
				log.Error("definition failed to load",
					logger.String("file", path),
					logger.String("error", results[i].Error))
			}
			return nil
		})
	}
	// Failures are reported per file; the group never returns an error.
	_ = g.Wait()

	var err error
	if format == output.FormatJSON {
		err = output.JSON(w, results)
	} else {
		printTable(w, results)
	}
	if err != nil {
		return err
	}

	failed := 0
	for i := range results {
		if results[i].Error != "" {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d definition files failed to load", failed, len(results))
	}
	return nil
}

func loadFile(ctx context.Context, loader *ingest.Loader, path string) FileResult {
	fr := FileResult{File: path}

	desc, id, err := definition.LoadPackage(path)
	fr.Identity = id
	if err != nil {
		fr.Error = err.Error()
		return fr
	}

	res, err := loader.LoadPackage(ctx, desc, id)
	if err != nil {
		fr.Error = err.Error()
		return fr
	}
	fr.Result = res
	return fr
}

func printTable(w io.Writer, results []FileResult) {
	table := output.NewTable(w,
		"File", "Version", "Category", "Package", "Status",
		"Rows", "Linked", "Unmatched\nRequests", "Duration",
	)

	for i := range results {
		r := &results[i]
		if r.Result == nil {
			table.Append([]string{r.File, r.Identity.Version, r.Identity.Category, "-", "failed: " + r.Error, "", "", "", ""})
			continue
		}

		status := "existing"
		if r.Result.IsNew {
			status = "loaded"
		}
		table.Append([]string{
			r.File,
			r.Identity.Version,
			r.Identity.Category,
			strconv.FormatUint(uint64(r.Result.PackageID), 10),
			status,
			strconv.Itoa(r.Result.Counts.Total()),
			strconv.Itoa(r.Result.Resolution.Linked),
			strconv.Itoa(r.Result.Resolution.UnmatchedRequests),
			r.Result.Duration.Round(time.Millisecond).String(),
		})
	}
	table.Render()
}
