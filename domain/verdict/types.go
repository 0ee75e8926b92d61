package verdict

// Outcome is the retention recommendation
type Outcome string

const (
	AWins        Outcome = "A_WINS"
	BWins        Outcome = "B_WINS"
	Inconclusive Outcome = "INCONCLUSIVE"
)

// Thresholds are the fixed cut-offs of the decision rules
type Thresholds struct {
	// A wins when probability_a_better is strictly above this
	WinProbability float64 `json:"win_probability" yaml:"win_probability"`
	// B wins when probability_a_better is strictly below this
	LoseProbability float64 `json:"lose_probability" yaml:"lose_probability"`
	// engagement differs when the rank test p-value is strictly below this
	Alpha float64 `json:"alpha" yaml:"alpha"`
}

// DefaultThresholds returns 0.95 / 0.05 / 0.05
func DefaultThresholds() Thresholds {
	return Thresholds{
		WinProbability:  0.95,
		LoseProbability: 0.05,
		Alpha:           0.05,
	}
}

// Verdict carries both recommendations together with the evidence behind them.
// The retention and engagement rules are independent and never merged.
type Verdict struct {
	Retention          Outcome `json:"retention" yaml:"retention"`
	Winner             string  `json:"winner,omitempty" yaml:"winner,omitempty"`
	ProbabilityABetter float64 `json:"probability_a_better" yaml:"probability_a_better"`
	RetentionMessage   string  `json:"retention_message" yaml:"retention_message"`

	EngagementSignificant bool    `json:"engagement_significant" yaml:"engagement_significant"`
	PValue                float64 `json:"p_value" yaml:"p_value"`
	EngagementMessage     string  `json:"engagement_message" yaml:"engagement_message"`

	Thresholds Thresholds `json:"thresholds" yaml:"thresholds"`
}
