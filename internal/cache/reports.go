package cache

import (
	"abverdict/domain/core"
	"abverdict/domain/verdict"
)

// Reports memoizes analysis reports by the hash of everything that determines them.
// Stored reports are never handed out directly; callers receive a deep copy flagged Cached.
type Reports struct {
	lru *LRU[core.Hash, *verdict.Report]
}

// NewReports creates a report cache; capacity 0 disables storage
func NewReports(capacity int) *Reports {
	return &Reports{lru: NewLRU[core.Hash, *verdict.Report](capacity)}
}

// Get returns a copy of the report stored under key
func (r *Reports) Get(key core.Hash) (*verdict.Report, bool) {
	if r == nil || key.IsEmpty() {
		return nil, false
	}
	stored, ok := r.lru.Get(key)
	if !ok {
		return nil, false
	}
	out := clone(stored)
	out.Cached = true
	return out, true
}

// Put stores a copy of report under key
func (r *Reports) Put(key core.Hash, report *verdict.Report) {
	if r == nil || key.IsEmpty() || report == nil {
		return
	}
	stored := clone(report)
	stored.Cached = false
	r.lru.Set(key, stored)
}

// clone copies report together with the results it points to
func clone(report *verdict.Report) *verdict.Report {
	out := *report
	if report.Bootstrap != nil {
		boot := *report.Bootstrap
		boot.Differences = append([]float64(nil), report.Bootstrap.Differences...)
		out.Bootstrap = &boot
	}
	if report.RankTest != nil {
		rank := *report.RankTest
		out.RankTest = &rank
	}
	return &out
}

// Stats exposes the underlying counters
func (r *Reports) Stats() Stats {
	if r == nil {
		return Stats{}
	}
	return r.lru.Stats()
}

// Purge drops every stored report
func (r *Reports) Purge() {
	if r != nil {
		r.lru.Purge()
	}
}
