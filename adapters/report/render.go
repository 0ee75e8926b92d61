package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"abverdict/domain/core"
	"abverdict/domain/verdict"
	"abverdict/internal/errors"

	"gopkg.in/yaml.v3"
)

// Format names an output encoding of a verdict.Report
type Format string

const (
	FormatText     Format = "text"
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

// Formats lists every supported format
func Formats() []Format {
	return []Format{FormatText, FormatJSON, FormatYAML, FormatMarkdown, FormatHTML}
}

// ParseFormat accepts a format name, case-insensitively; "md" and "yml" are aliases
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "html":
		return FormatHTML, nil
	}
	return "", errors.Validation("output format",
		fmt.Errorf("%w: unknown format %q", core.ErrInvalidParameter, s))
}

// ContentType returns the MIME type of the format
func (f Format) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json; charset=utf-8"
	case FormatYAML:
		return "application/yaml; charset=utf-8"
	case FormatMarkdown:
		return "text/markdown; charset=utf-8"
	case FormatHTML:
		return "text/html; charset=utf-8"
	default:
		return "text/plain; charset=utf-8"
	}
}

// Options controls optional report content
type Options struct {
	// IncludeDistribution keeps every bootstrap difference in JSON and YAML output
	IncludeDistribution bool
	// HistogramBins is the number of bars in text and Markdown histograms; 0 hides them
	HistogramBins int
}

// DefaultOptions returns the options used by the CLI
func DefaultOptions() Options {
	return Options{IncludeDistribution: false, HistogramBins: 20}
}

// Render writes r to w in format f
func Render(w io.Writer, r *verdict.Report, f Format, opts Options) error {
	if r == nil {
		return errors.InvalidInput("no report to render")
	}
	switch f {
	case FormatText:
		return writeText(w, r, opts)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(prepare(r, opts))
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(prepare(r, opts)); err != nil {
			return errors.Wrap(err, "failed to encode YAML report")
		}
		return enc.Close()
	case FormatMarkdown:
		_, err := io.WriteString(w, Markdown(r, opts))
		return err
	case FormatHTML:
		_, err := w.Write(HTML(r, opts))
		return err
	}
	return errors.Validation("output format", fmt.Errorf("%w: unknown format %q", core.ErrInvalidParameter, f))
}

// prepare drops the raw distribution unless requested. The caller's report is
// left untouched.
func prepare(r *verdict.Report, opts Options) *verdict.Report {
	if opts.IncludeDistribution || r.Bootstrap == nil {
		return r
	}
	out := *r
	boot := *r.Bootstrap
	boot.Differences = nil
	out.Bootstrap = &boot
	return &out
}
