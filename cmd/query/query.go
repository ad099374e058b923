// Package query provides the query command, a read-only view over one stored
// package.
package query

import (
	"context"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tphakala/zclstore/cmd/output"
	"github.com/tphakala/zclstore/internal/app"
	"github.com/tphakala/zclstore/internal/buildinfo"
	"github.com/tphakala/zclstore/internal/conf"
	"github.com/tphakala/zclstore/internal/datastore/entities"
	"github.com/tphakala/zclstore/internal/datastore/repository"
	"github.com/tphakala/zclstore/internal/zcl"
)

// Options narrow a query. Only the fields a kind understands are used.
type Options struct {
	PackageID uint
	Side      string
	Category  string
	Table     string
	Codes     []int64
}

// view is a rendered query: table rows plus the value printed as JSON.
type view struct {
	header []string
	rows   [][]string
	data   any
}

type queryFunc func(ctx context.Context, q repository.QueryRepository, opts Options) (view, error)

var kinds = map[string]queryFunc{
	"clusters":     clusters,
	"commands":     commands,
	"args":         commandArgs,
	"domains":      domains,
	"attributes":   attributes,
	"enums":        enums,
	"enum-items":   enumItems,
	"bitmaps":      bitmaps,
	"structs":      structs,
	"device-types": deviceTypes,
	"atomics":      atomics,
	"options":      options,
	"mfg-codes":    manufacturerCodes,
	"duplicates":   duplicates,
	"stats":        stats,
}

// Kinds returns the accepted query kinds in sorted order.
func Kinds() []string {
	return slices.Sorted(maps.Keys(kinds))
}

// Command creates and returns the query command
func Command(settings *conf.Settings) *cobra.Command {
	var (
		opts      Options
		packageID uint
		codes     string
		format    string
	)

	cmd := &cobra.Command{
		Use:   "query <kind>",
		Short: "Query the normalized rows of a stored package",
		Long: "Query prints the rows of one package. Kinds: " + strings.Join(Kinds(), ", ") + `.

  attributes   --side server|client filters by side
  options      --category is required
  mfg-codes    --table clusters|commands|attributes (default clusters)
  duplicates   --table enums|bitmaps|structs (default enums)
  clusters     --codes 6,0x0008 looks up clusters by code`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: Kinds(),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := output.ParseFormat(format)
			if err != nil {
				return err
			}
			opts.PackageID = packageID
			if codes != "" {
				if opts.Codes, err = ParseCodes(codes); err != nil {
					return err
				}
			}

			a, err := app.Open(settings, buildinfo.Current().GetVersion())
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			return Run(cmd.Context(), a.Queries, args[0], opts, f, cmd.OutOrStdout())
		},
	}

	cmd.Flags().UintVarP(&packageID, "package", "p", 0, "Package id (required)")
	cmd.Flags().StringVar(&opts.Side, "side", "", "Attribute side: server or client")
	cmd.Flags().StringVar(&opts.Category, "category", "", "Option category")
	cmd.Flags().StringVar(&opts.Table, "table", "", "Table for mfg-codes and duplicates")
	cmd.Flags().StringVar(&codes, "codes", "", "Comma separated cluster codes")
	cmd.Flags().StringVarP(&format, "output", "o", string(output.FormatTable), "Output format: table, json")
	_ = cmd.MarkFlagRequired("package")

	return cmd
}

// Run executes one query kind and prints the result.
func Run(ctx context.Context, q repository.QueryRepository, kind string, opts Options, f output.Format, w io.Writer) error {
	fn, ok := kinds[kind]
	if !ok {
		return fmt.Errorf("unknown query kind %q, expected one of: %s", kind, strings.Join(Kinds(), ", "))
	}
	if opts.PackageID == 0 {
		return fmt.Errorf("a package id is required")
	}

	v, err := fn(ctx, q, opts)
	if err != nil {
		return err
	}

	if f == output.FormatJSON {
		return output.JSON(w, v.data)
	}
	table := output.NewTable(w, v.header...)
	table.AppendBulk(v.rows)
	table.Render()
	return nil
}

// ParseCodes parses a comma separated list of decimal or 0x prefixed codes.
func ParseCodes(s string) ([]int64, error) {
	var codes []int64
	for part := range strings.SplitSeq(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		code, err := strconv.ParseInt(part, 0, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid code %q", part)
		}
		codes = append(codes, code)
	}
	if len(codes) == 0 {
		return nil, fmt.Errorf("no codes in %q", s)
	}
	return codes, nil
}

func itoa[T ~int | ~int64](v T) string { return strconv.FormatInt(int64(v), 10) }

func id(v uint) string { return strconv.FormatUint(uint64(v), 10) }

func clusters(ctx context.Context, q repository.QueryRepository, opts Options) (view, error) {
	header := []string{"ID", "Code", "Mfg", "Name", "Domain", "Revision"}

	if len(opts.Codes) > 0 {
		list, err := q.ClustersByCodes(ctx, opts.PackageID, opts.Codes)
		if err != nil {
			return view{}, err
		}
		v := view{header: header, data: list}
		for i, c := range list {
			if c == nil {
				v.rows = append(v.rows, []string{"-", output.Hex(opts.Codes[i]), "", "(not found)", "", ""})
				continue
			}
			v.rows = append(v.rows, []string{id(c.ID), output.Hex(c.Code), output.Mfg(c.ManufacturerCode), c.Name, output.Ref(c.DomainRef), itoa(c.Revision)})
		}
		return v, nil
	}

	list, err := q.Clusters(ctx, opts.PackageID)
	if err != nil {
		return view{}, err
	}
	v := view{header: header, data: list}
	for _, c := range list {
		v.rows = append(v.rows, []string{id(c.ID), output.Hex(c.Code), output.Mfg(c.ManufacturerCode), c.Name, output.Ref(c.DomainRef), itoa(c.Revision)})
	}
	return v, nil
}

func commands(ctx context.Context, q repository.QueryRepository, opts Options) (view, error) {
	list, err := q.Commands(ctx, opts.PackageID)
	if err != nil {
		return view{}, err
	}
	v := view{header: []string{"ID", "Cluster", "Code", "Mfg", "Name", "Source", "Response"}, data: list}
	for _, c := range list {
		v.rows = append(v.rows, []string{id(c.ID), id(c.ClusterRef), output.Hex(c.Code), output.Mfg(c.ManufacturerCode), c.Name, c.Source, output.Ref(c.ResponseRef)})
	}
	return v, nil
}

func commandArgs(ctx context.Context, q repository.QueryRepository, opts Options) (view, error) {
	list, err := q.CommandArguments(ctx, opts.PackageID)
	if err != nil {
		return view{}, err
	}
	v := view{header: []string{"Command", "#", "Name", "Type", "Array", "Optional", "Nullable"}, data: list}
	for _, a := range list {
		v.rows = append(v.rows, []string{id(a.CommandRef), itoa(a.Ordinal), a.Name, a.Type, output.Bool(a.IsArray), output.Bool(a.IsOptional), output.Bool(a.IsNullable)})
	}
	return v, nil
}

func domains(ctx context.Context, q repository.QueryRepository, opts Options) (view, error) {
	list, err := q.Domains(ctx, opts.PackageID)
	if err != nil {
		return view{}, err
	}
	v := view{header: []string{"ID", "Name"}, data: list}
	for _, d := range list {
		v.rows = append(v.rows, []string{id(d.ID), d.Name})
	}
	return v, nil
}

func attributes(ctx context.Context, q repository.QueryRepository, opts Options) (view, error) {
	var (
		list []*entities.Attribute
		err  error
	)
	switch opts.Side {
	case "":
		list, err = q.Attributes(ctx, opts.PackageID)
	case zcl.SideServer, zcl.SideClient:
		list, err = q.AttributesBySide(ctx, opts.PackageID, opts.Side)
	default:
		return view{}, fmt.Errorf("invalid side %q, expected %s or %s", opts.Side, zcl.SideServer, zcl.SideClient)
	}
	if err != nil {
		return view{}, err
	}
	v := view{header: []string{"ID", "Cluster", "Code", "Mfg", "Name", "Type", "Side", "Writable"}, data: list}
	for _, a := range list {
		v.rows = append(v.rows, []string{id(a.ID), id(a.ClusterRef), output.Hex(a.Code), output.Mfg(a.ManufacturerCode), a.Name, a.Type, a.Side, output.Bool(a.IsWritable)})
	}
	return v, nil
}

func enums(ctx context.Context, q repository.QueryRepository, opts Options) (view, error) {
	list, err := q.Enums(ctx, opts.PackageID)
	if err != nil {
		return view{}, err
	}
	v := view{header: []string{"ID", "Name", "Type"}, data: list}
	for _, e := range list {
		v.rows = append(v.rows, []string{id(e.ID), e.Name, e.Type})
	}
	return v, nil
}

func enumItems(ctx context.Context, q repository.QueryRepository, opts Options) (view, error) {
	list, err := q.EnumItems(ctx, opts.PackageID)
	if err != nil {
		return view{}, err
	}
	v := view{header: []string{"Enum", "#", "Name", "Value"}, data: list}
	for _, e := range list {
		v.rows = append(v.rows, []string{id(e.EnumRef), itoa(e.Ordinal), e.Name, itoa(e.Value)})
	}
	return v, nil
}

func bitmaps(ctx context.Context, q repository.QueryRepository, opts Options) (view, error) {
	list, err := q.Bitmaps(ctx, opts.PackageID)
	if err != nil {
		return view{}, err
	}
	fields, err := q.BitmapFields(ctx, opts.PackageID)
	if err != nil {
		return view{}, err
	}
	perBitmap := make(map[uint]int, len(list))
	for _, f := range fields {
		perBitmap[f.BitmapRef]++
	}
	v := view{header: []string{"ID", "Name", "Type", "Fields"}, data: list}
	for _, b := range list {
		v.rows = append(v.rows, []string{id(b.ID), b.Name, b.Type, itoa(perBitmap[b.ID])})
	}
	return v, nil
}

func structs(ctx context.Context, q repository.QueryRepository, opts Options) (view, error) {
	list, err := q.StructsWithItemCount(ctx, opts.PackageID)
	if err != nil {
		return view{}, err
	}
	v := view{header: []string{"ID", "Name", "Items"}, data: list}
	for _, s := range list {
		v.rows = append(v.rows, []string{id(s.ID), s.Name, itoa(s.ItemCount)})
	}
	return v, nil
}

func deviceTypes(ctx context.Context, q repository.QueryRepository, opts Options) (view, error) {
	list, err := q.DeviceTypes(ctx, opts.PackageID)
	if err != nil {
		return view{}, err
	}
	links, err := q.DeviceTypeClusters(ctx, opts.PackageID)
	if err != nil {
		return view{}, err
	}
	names := make(map[uint][]string, len(list))
	for _, l := range links {
		names[l.DeviceTypeRef] = append(names[l.DeviceTypeRef], l.ClusterName)
	}
	v := view{header: []string{"ID", "Code", "Profile", "Name", "Clusters"}, data: list}
	for _, d := range list {
		v.rows = append(v.rows, []string{id(d.ID), output.Hex(d.Code), output.Hex(d.ProfileID), d.Name, strings.Join(names[d.ID], ", ")})
	}
	return v, nil
}

func atomics(ctx context.Context, q repository.QueryRepository, opts Options) (view, error) {
	list, err := q.Atomics(ctx, opts.PackageID)
	if err != nil {
		return view{}, err
	}
	v := view{header: []string{"Name", "Type ID", "Size", "Discrete", "String"}, data: list}
	for _, a := range list {
		v.rows = append(v.rows, []string{a.Name, output.Hex(a.TypeID), itoa(a.Size), output.Bool(a.IsDiscrete), output.Bool(a.IsString)})
	}
	return v, nil
}

func options(ctx context.Context, q repository.QueryRepository, opts Options) (view, error) {
	if opts.Category == "" {
		return view{}, fmt.Errorf("options requires --category")
	}
	list, err := q.OptionValues(ctx, opts.PackageID, opts.Category)
	if err != nil {
		return view{}, err
	}
	v := view{header: []string{"Code", "Label"}, data: list}
	for _, o := range list {
		v.rows = append(v.rows, []string{o.Code, o.Label})
	}
	return v, nil
}

func manufacturerCodes(ctx context.Context, q repository.QueryRepository, opts Options) (view, error) {
	table := opts.Table
	if table == "" {
		table = "clusters"
	}
	if !slices.Contains(repository.ManufacturerCodeTables(), table) {
		return view{}, fmt.Errorf("table %q has no manufacturer codes", table)
	}
	list, err := q.ManufacturerCodeRows(ctx, opts.PackageID, table)
	if err != nil {
		return view{}, err
	}
	v := view{header: []string{"ID", "Name", "Mfg"}, data: list}
	for _, r := range list {
		v.rows = append(v.rows, []string{id(r.ID), r.Name, output.Hex(r.ManufacturerCode)})
	}
	return v, nil
}

func duplicates(ctx context.Context, q repository.QueryRepository, opts Options) (view, error) {
	table := opts.Table
	if table == "" {
		table = "enums"
	}
	list, err := q.DuplicateNames(ctx, opts.PackageID, table)
	if err != nil {
		return view{}, err
	}
	v := view{header: []string{"Name", "Count"}, data: list}
	for _, d := range list {
		v.rows = append(v.rows, []string{d.Name, itoa(d.Count)})
	}
	return v, nil
}

func stats(ctx context.Context, q repository.QueryRepository, opts Options) (view, error) {
	counts, err := q.Stats(ctx, opts.PackageID)
	if err != nil {
		return view{}, err
	}
	v := view{header: []string{"Table", "Rows"}, data: counts}
	for _, c := range counts {
		v.rows = append(v.rows, []string{c.Table, itoa(c.Rows)})
	}
	return v, nil
}
