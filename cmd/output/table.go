// Package output renders command results as text tables or JSON.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
)

// Format selects how a command prints its result.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
)

// ParseFormat validates a --output flag value.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatTable, "":
		return FormatTable, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q, want table or json", s)
	}
}

// NewTable returns a bordered table writing to w with the given header.
func NewTable(w io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_CENTER)
	table.SetAutoFormatHeaders(false)
	table.SetBorder(true)
	table.SetHeader(header)
	return table
}

// JSON writes v indented.
func JSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Hex formats a ZCL code the way definition files write them.
func Hex(code int64) string {
	return fmt.Sprintf("0x%04X", code)
}

// Mfg formats an optional manufacturer code, "-" for standard rows.
func Mfg(code *int64) string {
	if code == nil {
		return "-"
	}
	return Hex(*code)
}

// Ref formats an optional row reference, "-" when unresolved.
func Ref(id *uint) string {
	if id == nil {
		return "-"
	}
	return strconv.FormatUint(uint64(*id), 10)
}

// Bool renders a flag compactly.
func Bool(b bool) string {
	if b {
		return "yes"
	}
	return ""
}
