// Package packages provides the packages command for inspecting and removing
// stored packages.
package packages

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/tphakala/zclstore/cmd/output"
	"github.com/tphakala/zclstore/internal/app"
	"github.com/tphakala/zclstore/internal/buildinfo"
	"github.com/tphakala/zclstore/internal/conf"
	"github.com/tphakala/zclstore/internal/datastore/entities"
	"github.com/tphakala/zclstore/internal/datastore/repository"
	"github.com/tphakala/zclstore/internal/zcl"
)

// Command creates and returns the packages command
func Command(settings *conf.Settings) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "packages",
		Short: "List, inspect and delete stored packages",
	}
	cmd.PersistentFlags().StringVarP(&format, "output", "o", string(output.FormatTable), "Output format: table, json")

	var category string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List stored packages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(settings, format, func(a *app.App, f output.Format) error {
				return List(cmd.Context(), a.Packages, category, f, cmd.OutOrStdout())
			})
		},
	}
	listCmd.Flags().StringVar(&category, "category", "", "Only list packages of this category")

	showCmd := &cobra.Command{
		Use:   "show <package-id>",
		Short: "Show a package with its per-table row counts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := ParseID(args[0])
			if err != nil {
				return err
			}
			return withApp(settings, format, func(a *app.App, f output.Format) error {
				return Show(cmd.Context(), a.Packages, a.Queries, id, f, cmd.OutOrStdout())
			})
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <package-id>",
		Short: "Delete a package and every row normalized from it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := ParseID(args[0])
			if err != nil {
				return err
			}
			return withApp(settings, format, func(a *app.App, _ output.Format) error {
				if err := a.Loader.Unload(cmd.Context(), id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Package %d deleted\n", id)
				return nil
			})
		},
	}

	cmd.AddCommand(listCmd, showCmd, deleteCmd)
	return cmd
}

func withApp(settings *conf.Settings, format string, fn func(*app.App, output.Format) error) error {
	f, err := output.ParseFormat(format)
	if err != nil {
		return err
	}
	a, err := app.Open(settings, buildinfo.Current().GetVersion())
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()
	return fn(a, f)
}

// ParseID parses a package id argument.
func ParseID(s string) (uint, error) {
	id, err := strconv.ParseUint(s, 10, 0)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid package id %q", s)
	}
	return uint(id), nil
}

// List prints stored packages, optionally of one category.
func List(ctx context.Context, repo repository.PackageRepository, category string, f output.Format, w io.Writer) error {
	var (
		pkgs []*entities.Package
		err  error
	)
	if category != "" {
		if !zcl.IsKnownCategory(category) {
			return fmt.Errorf("unknown package category %q", category)
		}
		pkgs, err = repo.GetByCategory(ctx, category)
	} else {
		pkgs, err = repo.GetAll(ctx)
	}
	if err != nil {
		return err
	}

	if f == output.FormatJSON {
		if pkgs == nil {
			pkgs = []*entities.Package{}
		}
		return output.JSON(w, pkgs)
	}

	table := output.NewTable(w, "ID", "Category", "Version", "Path", "Created")
	for _, p := range pkgs {
		table.Append([]string{
			strconv.FormatUint(uint64(p.ID), 10),
			p.Category,
			p.Version,
			p.Path,
			p.CreatedAt.Local().Format(time.DateTime),
		})
	}
	table.Render()
	return nil
}

// PackageDetail is the JSON shape of packages show.
type PackageDetail struct {
	Package   *entities.Package        `json:"package"`
	Tables    []repository.TableCount  `json:"tables"`
	Responses repository.ResponseStats `json:"responses"`
}

// Show prints one package with its row counts and response linking stats.
func Show(ctx context.Context, packages repository.PackageRepository, queries repository.QueryRepository, id uint, f output.Format, w io.Writer) error {
	pkg, err := packages.GetByID(ctx, id)
	if err != nil {
		return err
	}
	counts, err := queries.Stats(ctx, id)
	if err != nil {
		return err
	}
	responses, err := queries.ResponseStats(ctx, id)
	if err != nil {
		return err
	}

	if f == output.FormatJSON {
		return output.JSON(w, PackageDetail{Package: pkg, Tables: counts, Responses: responses})
	}

	fmt.Fprintf(w, "Package:  %d\n", pkg.ID)
	fmt.Fprintf(w, "Path:     %s\n", pkg.Path)
	fmt.Fprintf(w, "Version:  %s\n", pkg.Version)
	fmt.Fprintf(w, "Category: %s\n", pkg.Category)
	fmt.Fprintf(w, "Commands with response: %d of %d, unmatched requests: %d\n",
		responses.WithResponse, responses.Commands, responses.UnmatchedRequests)

	table := output.NewTable(w, "Table", "Rows")
	var total int64
	for _, tc := range counts {
		table.Append([]string{tc.Table, strconv.FormatInt(tc.Rows, 10)})
		total += tc.Rows
	}
	table.SetFooter([]string{"Total", strconv.FormatInt(total, 10)})
	table.Render()
	return nil
}
