package model

// Decision groups the alternatives being ranked
type Decision struct {
	ID          int64  `json:"id" yaml:"id"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// DecisionOption is one candidate alternative under a decision
type DecisionOption struct {
	ID         int64  `json:"id" yaml:"id"`
	DecisionID int64  `json:"decision_id" yaml:"decision_id"`
	Name       string `json:"name" yaml:"name"`
}

// DecisionClaimLink binds a claim to an option with an effect and a weight
type DecisionClaimLink struct {
	ID       int64   `json:"id" yaml:"id"`
	OptionID int64   `json:"option_id" yaml:"option_id"`
	ClaimID  int64   `json:"claim_id" yaml:"claim_id"`
	Effect   Effect  `json:"effect" yaml:"effect"`
	Weight   float64 `json:"weight" yaml:"weight"` // Caller-assigned importance

	// Claim is eager-loaded with its outgoing relations
	Claim *Claim `json:"-" yaml:"-"`
}

// Effect is the qualitative relationship between a claim and an option
type Effect string

const (
	EffectSupports Effect = "supports"
	EffectWeakens  Effect = "weakens"
	EffectBlocks   Effect = "blocks"
)

// Valid reports whether e is one of the known effects
func (e Effect) Valid() bool {
	switch e {
	case EffectSupports, EffectWeakens, EffectBlocks:
		return true
	}
	return false
}
