package model

// Claim represents an atomic, attributed statement extracted from a document
type Claim struct {
	ID             int64     `json:"id" yaml:"id"`
	Text           string    `json:"text" yaml:"text"`                                           // The claim text itself
	NormalizedText string    `json:"normalized_text,omitempty" yaml:"normalized_text,omitempty"` // Optional normalized form (backfilled)
	Confidence     float64   `json:"confidence" yaml:"confidence"`                               // Extraction confidence in [0,1]
	Type           ClaimType `json:"claim_type" yaml:"claim_type"`
	DocumentID     int64     `json:"document_id" yaml:"document_id"`

	// Outgoing holds the claim's outgoing relations, eager-loaded by the store
	Outgoing []ClaimRelation `json:"-" yaml:"-"`
}

// ClaimType categorizes the nature of the claim
type ClaimType string

const (
	ClaimTypeEmpirical   ClaimType = "empirical"
	ClaimTypeTheoretical ClaimType = "theoretical"
	ClaimTypeOpinion     ClaimType = "opinion"
)

// Valid reports whether t is one of the known claim types
func (t ClaimType) Valid() bool {
	switch t {
	case ClaimTypeEmpirical, ClaimTypeTheoretical, ClaimTypeOpinion:
		return true
	}
	return false
}

// ClaimRelation is a directed, typed edge of the claim graph
type ClaimRelation struct {
	ID       int64        `json:"id" yaml:"id"`
	FromID   int64        `json:"from_claim_id" yaml:"from_claim_id"`
	ToID     int64        `json:"to_claim_id" yaml:"to_claim_id"`
	Kind     RelationKind `json:"relation_type" yaml:"relation_type"`
	Strength float64      `json:"strength" yaml:"strength"` // (0,1], not used for decay

	// To is the target claim, eager-loaded by the store
	To *Claim `json:"-" yaml:"-"`
}

// RelationKind classifies a claim-to-claim relation
type RelationKind string

const (
	RelationSupports    RelationKind = "supports"
	RelationContradicts RelationKind = "contradicts"
	RelationRefines     RelationKind = "refines"
	RelationAssumes     RelationKind = "assumes"
)

// Valid reports whether k is one of the known relation kinds
func (k RelationKind) Valid() bool {
	switch k {
	case RelationSupports, RelationContradicts, RelationRefines, RelationAssumes:
		return true
	}
	return false
}

// Document is a source text that owns claims
type Document struct {
	ID      int64  `json:"id" yaml:"id"`
	Title   string `json:"title" yaml:"title"`
	Source  string `json:"source,omitempty" yaml:"source,omitempty"` // Provenance, e.g. "upload"
	URL     string `json:"url,omitempty" yaml:"url,omitempty"`       // Fetched into Content when Content is empty
	Content string `json:"content,omitempty" yaml:"content,omitempty"`

	// DecisionID attaches the document to a decision as general context
	DecisionID *int64 `json:"decision_id,omitempty" yaml:"decision_id,omitempty"`
}
