package dataset

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"abverdict/domain/core"
	"abverdict/internal/errors"
)

// Metric selects which measurement of a Record a statistic is computed over
type Metric int

const (
	MetricRetention Metric = iota
	MetricEngagement
)

func (m Metric) String() string {
	switch m {
	case MetricRetention:
		return "retention"
	case MetricEngagement:
		return "engagement"
	default:
		return fmt.Sprintf("metric(%d)", int(m))
	}
}

// Record is one experiment subject
type Record struct {
	Group      string  `json:"group"`
	Retention  float64 `json:"retention"`
	Engagement float64 `json:"engagement"`
}

// Value returns the measurement selected by m
func (r Record) Value(m Metric) float64 {
	if m == MetricEngagement {
		return r.Engagement
	}
	return r.Retention
}

// Dataset is an ordered, read-only sequence of records. Functions in this package
// never modify Records in place; derived datasets get their own slice.
type Dataset struct {
	Records []Record
}

// New wraps records into a Dataset
func New(records []Record) *Dataset {
	return &Dataset{Records: records}
}

// Len returns the number of records
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Records)
}

// Values extracts one metric for every record, in order
func (d *Dataset) Values(m Metric) []float64 {
	values := make([]float64, len(d.Records))
	for i, r := range d.Records {
		values[i] = r.Value(m)
	}
	return values
}

// Row is one raw table row keyed by header
type Row map[string]string

// Table is the caller-supplied tabular input with named columns
type Table struct {
	Headers []string
	Rows    []Row
}

// HasColumn reports whether name is one of the table headers
func (t *Table) HasColumn(name string) bool {
	for _, h := range t.Headers {
		if h == name {
			return true
		}
	}
	return false
}

// Column returns the raw cells of one column in row order
func (t *Table) Column(name string) []string {
	cells := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		cells[i] = row[name]
	}
	return cells
}

// ColumnSelection names the three columns an analysis reads. All three are required;
// nothing is guessed from header names.
type ColumnSelection struct {
	Group      string `json:"group" yaml:"group"`
	Retention  string `json:"retention" yaml:"retention"`
	Engagement string `json:"engagement" yaml:"engagement"`
}

// Validate checks that every column is named
func (c ColumnSelection) Validate() error {
	missing := []string{}
	if strings.TrimSpace(c.Group) == "" {
		missing = append(missing, "group")
	}
	if strings.TrimSpace(c.Retention) == "" {
		missing = append(missing, "retention")
	}
	if strings.TrimSpace(c.Engagement) == "" {
		missing = append(missing, "engagement")
	}
	if len(missing) > 0 {
		return errors.Validation("column selection",
			fmt.Errorf("%w: no column chosen for %s", core.ErrInvalidParameter, strings.Join(missing, ", ")))
	}
	return nil
}

// FromTable converts raw rows into a Dataset using the chosen columns. Every cell must
// parse; the first offending cell is reported with its 1-based data row number.
func FromTable(table *Table, cols ColumnSelection) (*Dataset, error) {
	if err := cols.Validate(); err != nil {
		return nil, err
	}
	if table == nil {
		return nil, errors.ValidationError("no table supplied")
	}
	for _, name := range []string{cols.Group, cols.Retention, cols.Engagement} {
		if !table.HasColumn(name) {
			return nil, errors.Validation("missing column", fmt.Errorf("%w: %q", core.ErrMissingColumn, name))
		}
	}

	records := make([]Record, 0, len(table.Rows))
	for i, row := range table.Rows {
		line := i + 1

		group := strings.TrimSpace(row[cols.Group])
		if group == "" {
			return nil, errors.Validation("missing group label",
				fmt.Errorf("%w: %q is empty in row %d", core.ErrMissingColumn, cols.Group, line))
		}

		retention, err := ParseBinaryOrNumeric(row[cols.Retention])
		if err != nil {
			return nil, errors.Validation("non-numeric metric column",
				fmt.Errorf("%w: %q row %d: %v", core.ErrNonNumeric, cols.Retention, line, err))
		}

		engagement, err := ParseNumeric(row[cols.Engagement])
		if err != nil {
			return nil, errors.Validation("non-numeric metric column",
				fmt.Errorf("%w: %q row %d: %v", core.ErrNonNumeric, cols.Engagement, line, err))
		}
		if engagement < 0 {
			return nil, errors.Validation("invalid continuous metric",
				fmt.Errorf("%w: %q row %d is %g", core.ErrNegativeValue, cols.Engagement, line, engagement))
		}

		records = append(records, Record{Group: group, Retention: retention, Engagement: engagement})
	}

	return New(records), nil
}

// ParseNumeric parses a finite float from a cell
func ParseNumeric(cell string) (float64, error) {
	s := strings.TrimSpace(cell)
	if s == "" {
		return 0, fmt.Errorf("empty cell")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("cannot parse %q", s)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%q is not finite", s)
	}
	return v, nil
}

// ParseBinaryOrNumeric accepts true/false (any case) as 1/0, otherwise a number
func ParseBinaryOrNumeric(cell string) (float64, error) {
	s := strings.TrimSpace(cell)
	switch strings.ToLower(s) {
	case "true":
		return 1, nil
	case "false":
		return 0, nil
	}
	return ParseNumeric(s)
}

// Fingerprint is a content hash over the records in order
func (d *Dataset) Fingerprint() core.Hash {
	h := core.NewHasher().Int(int64(d.Len()))
	for _, r := range d.Records {
		h.Text(r.Group).Float(r.Retention).Float(r.Engagement)
	}
	return h.Sum()
}
