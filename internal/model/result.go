package model

// OptionScore is the derived score of one option for one evaluation
type OptionScore struct {
	OptionID int64    `json:"option_id"`
	Name     string   `json:"name,omitempty"`
	Score    float64  `json:"score"`
	Reasons  []string `json:"reasons"` // Direct reasons first, then augmented ones
	Error    string   `json:"error,omitempty"`
}

// DecisionResult is the ranked outcome of evaluating a decision.
// Options are sorted by descending score; ties keep fetch order. Options
// that failed to score (Error set) come after all scored options.
type DecisionResult struct {
	DecisionID    int64         `json:"decision_id"`
	RankedOptions []OptionScore `json:"ranked_options"`
}

// Best returns the top-ranked option, or false when there are none
func (r *DecisionResult) Best() (OptionScore, bool) {
	if r == nil || len(r.RankedOptions) == 0 {
		return OptionScore{}, false
	}
	return r.RankedOptions[0], true
}
