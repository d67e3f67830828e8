// Package output renders estimates, comparison tables and recommendations
// for people (cli, markdown) and machines (json, export).
package output

import (
	"io"
	"sort"

	"agent-cost/core/compare"
	"agent-cost/core/engine"
	"agent-cost/internal/errors"
)

// Format represents output format type
type Format string

const (
	// FormatCLI is a human-readable terminal table
	FormatCLI Format = "cli"

	// FormatJSON is machine-readable JSON
	FormatJSON Format = "json"

	// FormatMarkdown is a markdown report
	FormatMarkdown Format = "markdown"
)

// Formatter produces output in a specific format
type Formatter interface {
	// Format returns the format type
	Format() Format

	// Render writes every non-empty part of result
	Render(w io.Writer, result *Result) error
}

// Result is everything a command may print. Any part may be empty.
type Result struct {
	Report          *engine.Report           `json:"report,omitempty"`
	Tables          []*compare.Table         `json:"tables,omitempty"`
	Recommendations []compare.Recommendation `json:"recommendations,omitempty"`

	// Details adds components, free tier and assumptions to text output
	Details bool `json:"-"`
}

var formatters = map[Format]Formatter{
	FormatCLI:      &CLIFormatter{},
	FormatJSON:     &JSONFormatter{Indent: "  "},
	FormatMarkdown: &MarkdownFormatter{},
}

// Get returns the formatter for a format name
func Get(format Format) (Formatter, error) {
	f, ok := formatters[format]
	if !ok {
		return nil, errors.Inputf("unknown output format %q: use one of %v", format, Formats())
	}
	return f, nil
}

// Formats lists the supported formats
func Formats() []Format {
	out := make([]Format, 0, len(formatters))
	for f := range formatters {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
