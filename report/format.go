package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"
)

// Format is an output encoding
type Format string

const (
	FormatTable Format = "table"
	FormatCSV   Format = "csv"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// Formats lists the supported output formats
var Formats = []Format{FormatTable, FormatCSV, FormatJSON, FormatYAML}

// ParseFormat parses a format name, case-insensitively
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatTable, FormatCSV, FormatJSON, FormatYAML:
		return f, nil
	case "":
		return FormatTable, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown output format %q (expected table, csv, json or yaml)", s)
	}
}

// Tabular is data with a fixed column layout
type Tabular interface {
	Header() []string
	Records() [][]string
}

// Write encodes v to w. Table and CSV use the column layout, JSON and YAML
// encode v itself.
func Write(w io.Writer, format Format, v Tabular) error {
	switch format {
	case FormatTable, "":
		return writeTable(w, v)
	case FormatCSV:
		return writeCSV(w, v)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func writeTable(w io.Writer, v Tabular) error {
	records := v.Records()
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "No results")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	header := v.Header()
	upper := make([]string, len(header))
	for i, h := range header {
		upper[i] = strings.ToUpper(h)
	}
	fmt.Fprintln(tw, strings.Join(upper, "\t"))
	for _, r := range records {
		fmt.Fprintln(tw, strings.Join(r, "\t"))
	}
	return tw.Flush()
}

func writeCSV(w io.Writer, v Tabular) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(v.Header()); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	if err := cw.WriteAll(v.Records()); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return nil
}
