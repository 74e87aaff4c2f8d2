package store

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/claimrank/internal/model"
)

// Snapshot is a complete, self-contained dataset: decisions, their options,
// the documents and claims behind them and the claim graph.
// It is read from YAML or JSON.
type Snapshot struct {
	Decisions []model.Decision          `yaml:"decisions"`
	Options   []model.DecisionOption    `yaml:"options"`
	Documents []model.Document          `yaml:"documents"`
	Claims    []model.Claim             `yaml:"claims"`
	Relations []model.ClaimRelation     `yaml:"relations"`
	Links     []model.DecisionClaimLink `yaml:"links"`
}

// Load reads and validates a snapshot file
func Load(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	snap, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return snap, nil
}

// Parse decodes and validates a snapshot
func Parse(data []byte) (*Snapshot, error) {
	var snap Snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parse snapshot: %w", err)
	}
	if err := snap.Validate(); err != nil {
		return nil, err
	}
	return &snap, nil
}

// Marshal encodes the snapshot as YAML
func (s *Snapshot) Marshal() ([]byte, error) {
	return yaml.Marshal(s)
}

// Validate checks ids, references, value ranges and uniqueness constraints.
// All problems are reported together.
func (s *Snapshot) Validate() error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	decisions := make(map[int64]bool)
	for _, d := range s.Decisions {
		if decisions[d.ID] {
			fail("decision %d: duplicate id", d.ID)
		}
		decisions[d.ID] = true
	}

	options := make(map[int64]bool)
	for _, o := range s.Options {
		if options[o.ID] {
			fail("option %d: duplicate id", o.ID)
		}
		options[o.ID] = true
		if !decisions[o.DecisionID] {
			fail("option %d: unknown decision %d", o.ID, o.DecisionID)
		}
	}

	documents := make(map[int64]bool)
	for _, d := range s.Documents {
		if documents[d.ID] {
			fail("document %d: duplicate id", d.ID)
		}
		documents[d.ID] = true
		if d.DecisionID != nil && !decisions[*d.DecisionID] {
			fail("document %d: unknown decision %d", d.ID, *d.DecisionID)
		}
	}

	claims := make(map[int64]bool)
	for _, c := range s.Claims {
		if claims[c.ID] {
			fail("claim %d: duplicate id", c.ID)
		}
		claims[c.ID] = true
		if c.Confidence < 0 || c.Confidence > 1 {
			fail("claim %d: confidence %v out of range [0,1]", c.ID, c.Confidence)
		}
		if c.Type != "" && !c.Type.Valid() {
			fail("claim %d: unknown claim type %q", c.ID, c.Type)
		}
		if c.DocumentID != 0 && !documents[c.DocumentID] {
			fail("claim %d: unknown document %d", c.ID, c.DocumentID)
		}
	}

	type relationKey struct {
		from, to int64
		kind     model.RelationKind
	}
	relations := make(map[relationKey]bool)
	for _, r := range s.Relations {
		if !claims[r.FromID] {
			fail("relation %d: unknown from claim %d", r.ID, r.FromID)
		}
		if !claims[r.ToID] {
			fail("relation %d: unknown to claim %d", r.ID, r.ToID)
		}
		if !r.Kind.Valid() {
			fail("relation %d: unknown relation type %q", r.ID, r.Kind)
		}
		key := relationKey{r.FromID, r.ToID, r.Kind}
		if relations[key] {
			fail("relation %d: duplicate %d -%s-> %d", r.ID, r.FromID, r.Kind, r.ToID)
		}
		relations[key] = true
	}

	type linkKey struct {
		option, claim int64
		effect        model.Effect
	}
	links := make(map[linkKey]bool)
	for _, l := range s.Links {
		if !options[l.OptionID] {
			fail("link %d: unknown option %d", l.ID, l.OptionID)
		}
		if !claims[l.ClaimID] {
			fail("link %d: unknown claim %d", l.ID, l.ClaimID)
		}
		if !l.Effect.Valid() {
			fail("link %d: unknown effect %q", l.ID, l.Effect)
		}
		key := linkKey{l.OptionID, l.ClaimID, l.Effect}
		if links[key] {
			fail("link %d: duplicate option %d claim %d effect %s", l.ID, l.OptionID, l.ClaimID, l.Effect)
		}
		links[key] = true
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid snapshot: %w", errors.Join(errs...))
	}
	return nil
}
