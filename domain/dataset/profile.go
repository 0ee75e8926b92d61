package dataset

import (
	"strings"
)

// ColumnProfile describes what a raw column could be used for
type ColumnProfile struct {
	Name     string `json:"name"`
	Numeric  bool   `json:"numeric"`
	Boolean  bool   `json:"boolean"`
	Distinct int    `json:"distinct"`
	Empty    int    `json:"empty"`
}

// GroupCandidate reports whether the column has exactly two distinct non-empty values
func (c ColumnProfile) GroupCandidate() bool {
	return c.Distinct == 2
}

// ProfileColumns inspects every header of the table. It only describes columns; it
// never chooses them.
func ProfileColumns(table *Table) []ColumnProfile {
	profiles := make([]ColumnProfile, 0, len(table.Headers))
	for _, name := range table.Headers {
		p := ColumnProfile{Name: name, Numeric: true, Boolean: true}
		distinct := make(map[string]struct{})
		nonEmpty := 0
		for _, cell := range table.Column(name) {
			s := strings.TrimSpace(cell)
			if s == "" {
				p.Empty++
				continue
			}
			nonEmpty++
			distinct[s] = struct{}{}
			if _, err := ParseNumeric(s); err != nil {
				p.Numeric = false
			}
			if v, err := ParseBinaryOrNumeric(s); err != nil || (v != 0 && v != 1) {
				p.Boolean = false
			}
		}
		if nonEmpty == 0 {
			p.Numeric, p.Boolean = false, false
		}
		p.Distinct = len(distinct)
		profiles = append(profiles, p)
	}
	return profiles
}
