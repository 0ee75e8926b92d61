package dataset

import (
	"fmt"

	"abverdict/domain/core"
	"abverdict/internal/errors"
)

// GroupPair holds the two labels of an experiment. A is the label seen first in the
// dataset, B the second; every directional statement is relative to this order.
type GroupPair struct {
	A string `json:"a" yaml:"a"`
	B string `json:"b" yaml:"b"`
}

// ValidateGroups returns the two distinct group labels in first-seen order, or a
// "group cardinality" ValidationError when there are not exactly two.
func ValidateGroups(ds *Dataset) (GroupPair, error) {
	var labels []string
	seen := make(map[string]struct{}, 2)
	if ds != nil {
		for _, r := range ds.Records {
			if _, ok := seen[r.Group]; ok {
				continue
			}
			seen[r.Group] = struct{}{}
			labels = append(labels, r.Group)
		}
	}

	if len(labels) != 2 {
		return GroupPair{}, errors.Validation("group cardinality",
			fmt.Errorf("%w, found %d %q", core.ErrGroupCardinality, len(labels), preview(labels, 5)))
	}
	return GroupPair{A: labels[0], B: labels[1]}, nil
}

// Split partitions one metric into the samples of group A and group B. Records with
// any other label are ignored.
func Split(ds *Dataset, groups GroupPair, m Metric) (a, b []float64) {
	for _, r := range ds.Records {
		switch r.Group {
		case groups.A:
			a = append(a, r.Value(m))
		case groups.B:
			b = append(b, r.Value(m))
		}
	}
	return a, b
}

// RequireNonEmptyGroups fails with an "empty group" ValidationError when either label has
// no records in ds.
func RequireNonEmptyGroups(ds *Dataset, groups GroupPair) error {
	var nA, nB int
	for _, r := range ds.Records {
		switch r.Group {
		case groups.A:
			nA++
		case groups.B:
			nB++
		}
	}
	if nA == 0 {
		return errors.Validation("empty group", fmt.Errorf("%w: %q", core.ErrEmptyGroup, groups.A))
	}
	if nB == 0 {
		return errors.Validation("empty group", fmt.Errorf("%w: %q", core.ErrEmptyGroup, groups.B))
	}
	return nil
}

func preview(labels []string, max int) []string {
	if len(labels) <= max {
		return labels
	}
	return append(labels[:max:max], "...")
}
