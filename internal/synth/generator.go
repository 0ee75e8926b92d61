package synth

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"math/rand"
	"strconv"

	"abverdict/domain/core"
	"abverdict/domain/dataset"
	"abverdict/internal/errors"

	"github.com/xuri/excelize/v2"
)

// Experiment is a generated two-group mobile game test in the layout of the public
// Cookie Cats export.
//
// Columns:
// - userid
// - version
// - sum_gamerounds
// - retention_1
// - retention_7
type Experiment struct {
	Headers []string
	Rows    [][]string

	// Per-row values for tests
	Groups    []string
	Rounds    []float64
	Retention []bool
}

// Arm describes one group of the experiment
type Arm struct {
	Label      string
	Retention1 float64
	Retention7 float64
	// MeanRounds is the mean of the exponential engagement distribution
	MeanRounds float64
}

type Config struct {
	Users int
	Seed  int64
	A, B  Arm

	// Outliers are extreme engagement values injected into group A, like the single
	// 49854-round user of the real export
	Outliers     int
	OutlierValue float64
}

// DefaultConfig mirrors the observed Cookie Cats rates: gate_30 retains slightly better
// at day 7 and engagement is the same in both groups.
func DefaultConfig() Config {
	return Config{
		Users:        10000,
		Seed:         42,
		A:            Arm{Label: "gate_30", Retention1: 0.448, Retention7: 0.190, MeanRounds: 51},
		B:            Arm{Label: "gate_40", Retention1: 0.442, Retention7: 0.182, MeanRounds: 51},
		Outliers:     1,
		OutlierValue: 49854,
	}
}

// Generate draws users alternately from A and B with a fixed seed
func Generate(cfg Config) (*Experiment, error) {
	if cfg.Users < 2 {
		return nil, errors.Validation("users", fmt.Errorf("%w: need at least 2 users, got %d", core.ErrInvalidParameter, cfg.Users))
	}
	if cfg.A.Label == "" || cfg.B.Label == "" || cfg.A.Label == cfg.B.Label {
		return nil, errors.Validation("group labels", fmt.Errorf("%w: two distinct labels required", core.ErrInvalidParameter))
	}
	for _, arm := range []Arm{cfg.A, cfg.B} {
		if !unit(arm.Retention1) || !unit(arm.Retention7) || arm.MeanRounds < 0 {
			return nil, errors.Validation("arm "+arm.Label, fmt.Errorf("%w: rates must be in [0, 1] and mean rounds non-negative", core.ErrInvalidParameter))
		}
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	exp := &Experiment{
		Headers:   []string{"userid", "version", "sum_gamerounds", "retention_1", "retention_7"},
		Rows:      make([][]string, 0, cfg.Users),
		Groups:    make([]string, 0, cfg.Users),
		Rounds:    make([]float64, 0, cfg.Users),
		Retention: make([]bool, 0, cfg.Users),
	}

	outliers := cfg.Outliers
	for i := 0; i < cfg.Users; i++ {
		arm := cfg.A
		if i%2 == 1 {
			arm = cfg.B
		}

		rounds := math.Floor(rng.ExpFloat64() * arm.MeanRounds)
		if outliers > 0 && arm.Label == cfg.A.Label {
			rounds = cfg.OutlierValue
			outliers--
		}
		ret1 := rng.Float64() < arm.Retention1
		// day 7 retention is drawn independently of day 1
		ret7 := rng.Float64() < arm.Retention7

		exp.Rows = append(exp.Rows, []string{
			strconv.Itoa(116 + i*37),
			arm.Label,
			strconv.FormatFloat(rounds, 'f', -1, 64),
			boolText(ret1),
			boolText(ret7),
		})
		exp.Groups = append(exp.Groups, arm.Label)
		exp.Rounds = append(exp.Rounds, rounds)
		exp.Retention = append(exp.Retention, ret7)
	}
	return exp, nil
}

// Table converts the experiment into the reader's table form
func (e *Experiment) Table() *dataset.Table {
	t := &dataset.Table{Headers: append([]string(nil), e.Headers...), Rows: make([]dataset.Row, 0, len(e.Rows))}
	for _, r := range e.Rows {
		row := make(dataset.Row, len(e.Headers))
		for i, h := range e.Headers {
			row[h] = r[i]
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

func WriteCSV(w io.Writer, e *Experiment) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(e.Headers); err != nil {
		return err
	}
	if err := cw.WriteAll(e.Rows); err != nil {
		return err
	}
	return cw.Error()
}

// WriteXLSX writes the experiment to a single sheet named sheet, or Sheet1
func WriteXLSX(w io.Writer, e *Experiment, sheet string) error {
	f := excelize.NewFile()
	defer f.Close()

	if sheet == "" {
		sheet = "Sheet1"
	}
	if sheet != "Sheet1" {
		if err := f.SetSheetName("Sheet1", sheet); err != nil {
			return err
		}
	}

	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return err
	}
	if err := sw.SetRow("A1", cells(e.Headers)); err != nil {
		return err
	}
	for r, row := range e.Rows {
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, cells(row)); err != nil {
			return err
		}
	}
	if err := sw.Flush(); err != nil {
		return err
	}
	return f.Write(w)
}

func cells(row []string) []interface{} {
	out := make([]interface{}, len(row))
	for i, v := range row {
		out[i] = v
	}
	return out
}

func boolText(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

func unit(p float64) bool { return p >= 0 && p <= 1 }
