// Package formatting renders configuration values for the command line.
//
// The same tree can be shown as a key/value table, as YAML or as JSON.
// Table output flattens nested sections into dotted keys.
package formatting

import (
	"fmt"
	"strings"

	"confkeeper/internal/tree"
)

// OutputFormat represents the desired output format
type OutputFormat string

const (
	FormatTable OutputFormat = "table" // Rich table output
	FormatYAML  OutputFormat = "yaml"  // YAML output
	FormatJSON  OutputFormat = "json"  // JSON output
)

// ParseFormat converts a flag value to an OutputFormat.
func ParseFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatTable, FormatYAML, FormatJSON:
		return f, nil
	case "":
		return FormatTable, nil
	default:
		return "", fmt.Errorf("unsupported output format %q (use table, yaml or json)", s)
	}
}

// Options configures the formatter behavior
type Options struct {
	Format OutputFormat
	Color  bool // Enable colored output
}

// Formatter renders trees and single values.
type Formatter interface {
	FormatTree(t tree.Tree) (string, error)
	FormatValue(v any) (string, error)
}

// New creates the formatter for options.Format.
func New(options Options) Formatter {
	switch options.Format {
	case FormatJSON:
		return &JSONFormatter{options: options}
	case FormatYAML:
		return &YAMLFormatter{options: options}
	default:
		return &TableFormatter{options: options}
	}
}
