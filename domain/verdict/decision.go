package verdict

import (
	"fmt"

	"abverdict/domain/dataset"
	"abverdict/domain/stats"
)

// DecisionEngine turns estimator output into recommendations using fixed thresholds
type DecisionEngine struct {
	thresholds Thresholds
}

// NewDecisionEngine creates an engine with the default thresholds
func NewDecisionEngine() *DecisionEngine {
	return &DecisionEngine{thresholds: DefaultThresholds()}
}

// Thresholds returns the cut-offs in use
func (e *DecisionEngine) Thresholds() Thresholds {
	return e.thresholds
}

// RetentionOutcome applies the probability rule on its own
func (e *DecisionEngine) RetentionOutcome(probabilityABetter float64) Outcome {
	switch {
	case probabilityABetter > e.thresholds.WinProbability:
		return AWins
	case probabilityABetter < e.thresholds.LoseProbability:
		return BWins
	default:
		return Inconclusive
	}
}

// EngagementSignificant applies the p-value rule on its own
func (e *DecisionEngine) EngagementSignificant(pValue float64) bool {
	return pValue < e.thresholds.Alpha
}

// Decide evaluates both rules. Winner names the label behind A_WINS or B_WINS.
func (e *DecisionEngine) Decide(groups dataset.GroupPair, boot *stats.BootstrapResult, rank *stats.RankTestResult) Verdict {
	v := Verdict{
		Retention:             e.RetentionOutcome(boot.ProbabilityABetter),
		ProbabilityABetter:    boot.ProbabilityABetter,
		EngagementSignificant: e.EngagementSignificant(rank.PValue),
		PValue:                rank.PValue,
		Thresholds:            e.thresholds,
	}

	switch v.Retention {
	case AWins:
		v.Winner = groups.A
		v.RetentionMessage = fmt.Sprintf("%s is the statistically significant winner", groups.A)
	case BWins:
		v.Winner = groups.B
		v.RetentionMessage = fmt.Sprintf("%s is the statistically significant winner", groups.B)
	default:
		v.RetentionMessage = "No significant difference detected. Stick to the control or investigate further."
	}

	if v.EngagementSignificant {
		v.EngagementMessage = "The distributions are significantly different"
	} else {
		v.EngagementMessage = "No significant difference in engagement"
	}

	return v
}
