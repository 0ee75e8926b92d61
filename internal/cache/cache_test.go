package cache

import (
	"sync"
	"testing"

	"abverdict/domain/core"
	"abverdict/domain/stats"
	"abverdict/domain/verdict"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLRU_EvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRU[string, int](2)
	c.Set("a", 1)
	c.Set("b", 2)

	_, ok := c.Get("a")
	require.True(t, ok)

	c.Set("c", 3)

	_, ok = c.Get("b")
	assert.False(t, ok, "b was least recently used")
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
	assert.Equal(t, 2, c.Len())

	st := c.Stats()
	assert.Equal(t, int64(1), st.Evictions)
	assert.Equal(t, int64(2), st.Hits)
	assert.Equal(t, int64(1), st.Misses)
}

func TestLRU_UpdateKeepsSize(t *testing.T) {
	c := NewLRU[string, int](2)
	c.Set("a", 1)
	c.Set("a", 5)

	v, _ := c.Get("a")
	assert.Equal(t, 5, v)
	assert.Equal(t, 1, c.Len())
}

func TestLRU_DeleteAndPurge(t *testing.T) {
	c := NewLRU[int, string](4)
	for i := 0; i < 4; i++ {
		c.Set(i, "x")
	}
	c.Delete(2)
	_, ok := c.Get(2)
	assert.False(t, ok)
	assert.Equal(t, 3, c.Len())

	c.Purge()
	assert.Zero(t, c.Len())
}

func TestLRU_ZeroCapacityStoresNothing(t *testing.T) {
	c := NewLRU[string, int](0)
	c.Set("a", 1)
	_, ok := c.Get("a")
	assert.False(t, ok)
}

func TestLRU_Concurrent(t *testing.T) {
	c := NewLRU[int, int](16)
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				c.Set(i%32, w)
				c.Get((i + w) % 32)
			}
		}(w)
	}
	wg.Wait()
	assert.LessOrEqual(t, c.Len(), 16)
}

func TestReports_CopiesAndFlagsCached(t *testing.T) {
	r := NewReports(4)
	key := core.NewHasher().Text("run").Sum()
	report := &verdict.Report{RunID: core.NewRunID(), RawSize: 10}

	r.Put(key, report)
	report.RawSize = 99

	got, ok := r.Get(key)
	require.True(t, ok)
	assert.True(t, got.Cached)
	assert.Equal(t, 10, got.RawSize)
	assert.False(t, report.Cached)

	got.RawSize = 7
	again, _ := r.Get(key)
	assert.Equal(t, 10, again.RawSize)
}

func TestReports_CopiesNestedResults(t *testing.T) {
	r := NewReports(4)
	key := core.NewHasher().Text("nested").Sum()
	report := &verdict.Report{
		RunID:     core.NewRunID(),
		Bootstrap: &stats.BootstrapResult{ProbabilityABetter: 0.99, Differences: []float64{1, 2}},
		RankTest:  &stats.RankTestResult{PValue: 0.01, Method: stats.RankMethodAsymptotic},
	}

	r.Put(key, report)
	report.Bootstrap.ProbabilityABetter = 0.1
	report.Bootstrap.Differences[0] = -5
	report.RankTest.PValue = 0.9

	got, ok := r.Get(key)
	require.True(t, ok)
	assert.Equal(t, 0.99, got.Bootstrap.ProbabilityABetter)
	assert.Equal(t, []float64{1, 2}, got.Bootstrap.Differences)
	assert.Equal(t, 0.01, got.RankTest.PValue)

	got.Bootstrap.Differences[1] = 42
	got.Bootstrap.ProbabilityABetter = 0.5
	got.RankTest.PValue = 0.5

	again, _ := r.Get(key)
	assert.Equal(t, 0.99, again.Bootstrap.ProbabilityABetter)
	assert.Equal(t, []float64{1, 2}, again.Bootstrap.Differences)
	assert.Equal(t, 0.01, again.RankTest.PValue)
	assert.NotSame(t, got.Bootstrap, again.Bootstrap)
}

func TestReports_NilResultsStayNil(t *testing.T) {
	r := NewReports(4)
	key := core.NewHasher().Text("bare").Sum()
	r.Put(key, &verdict.Report{RunID: core.NewRunID()})

	got, ok := r.Get(key)
	require.True(t, ok)
	assert.Nil(t, got.Bootstrap)
	assert.Nil(t, got.RankTest)
}

func TestReports_EmptyKeyIgnored(t *testing.T) {
	r := NewReports(4)
	r.Put("", &verdict.Report{})
	_, ok := r.Get("")
	assert.False(t, ok)
	assert.Zero(t, r.Stats().Size)
}

func TestReports_NilSafe(t *testing.T) {
	var r *Reports
	r.Put("k", &verdict.Report{})
	_, ok := r.Get("k")
	assert.False(t, ok)
}
