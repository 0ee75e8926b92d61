package verdict

import (
	"time"

	"abverdict/domain/core"
	"abverdict/domain/dataset"
	"abverdict/domain/stats"
)

// Report is the structured result of one analysis run
type Report struct {
	RunID       core.RunID              `json:"run_id" yaml:"run_id"`
	Fingerprint core.Hash               `json:"fingerprint" yaml:"fingerprint"`
	Columns     dataset.ColumnSelection `json:"columns" yaml:"columns"`
	Groups      dataset.GroupPair       `json:"groups" yaml:"groups"`

	RawSize          int     `json:"raw_size" yaml:"raw_size"`
	CleanedSize      int     `json:"cleaned_size" yaml:"cleaned_size"`
	RemovedOutliers  int     `json:"removed_outliers" yaml:"removed_outliers"`
	OutlierThreshold float64 `json:"outlier_threshold" yaml:"outlier_threshold"`

	RetentionA        stats.GroupStats `json:"retention_a" yaml:"retention_a"`
	RetentionB        stats.GroupStats `json:"retention_b" yaml:"retention_b"`
	RawRateDifference float64          `json:"raw_rate_difference" yaml:"raw_rate_difference"`
	EngagementA       stats.Summary    `json:"engagement_a" yaml:"engagement_a"`
	EngagementB       stats.Summary    `json:"engagement_b" yaml:"engagement_b"`

	Bootstrap *stats.BootstrapResult `json:"bootstrap" yaml:"bootstrap"`
	RankTest  *stats.RankTestResult  `json:"rank_test" yaml:"rank_test"`
	Verdict   Verdict                `json:"verdict" yaml:"verdict"`

	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	RuntimeMs int64     `json:"runtime_ms" yaml:"runtime_ms"`
	Cached    bool      `json:"cached" yaml:"cached"`
}
