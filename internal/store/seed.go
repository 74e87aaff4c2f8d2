package store

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/ppiankov/claimrank/internal/model"
)

// SeedOptions sizes a synthetic snapshot
type SeedOptions struct {
	Decisions          int
	OptionsPerDecision int
	Documents          int
	Claims             int
	Relations          int // Attempts; self-loops and duplicates are skipped
	Clusters           int
	ClusterSize        int
}

// DefaultSeedOptions returns the standard synthetic dataset size
func DefaultSeedOptions() SeedOptions {
	return SeedOptions{
		Decisions:          10,
		OptionsPerDecision: 3,
		Documents:          50,
		Claims:             1000,
		Relations:          2000,
		Clusters:           50,
		ClusterSize:        10,
	}
}

var (
	claimTypes    = []model.ClaimType{model.ClaimTypeEmpirical, model.ClaimTypeTheoretical, model.ClaimTypeOpinion}
	relationKinds = []model.RelationKind{model.RelationSupports, model.RelationContradicts, model.RelationRefines, model.RelationAssumes}
)

// Generate builds a random snapshot that always passes validation.
// The same r state yields the same snapshot.
func Generate(r *rand.Rand, opts SeedOptions) *Snapshot {
	snap := &Snapshot{}

	for i := 0; i < opts.Decisions; i++ {
		snap.Decisions = append(snap.Decisions, model.Decision{
			ID:          int64(i + 1),
			Title:       fmt.Sprintf("Decision %d: Strategic Move", i+1),
			Description: "Synthetic decision scenario for testing.",
		})
	}

	for _, d := range snap.Decisions {
		for j := 0; j < opts.OptionsPerDecision; j++ {
			snap.Options = append(snap.Options, model.DecisionOption{
				ID:         int64(len(snap.Options) + 1),
				DecisionID: d.ID,
				Name:       fmt.Sprintf("Option %d for %s", j+1, d.Title),
			})
		}
	}

	for i := 0; i < opts.Documents; i++ {
		doc := model.Document{
			ID:      int64(i + 1),
			Title:   fmt.Sprintf("Document %d", i+1),
			Source:  "synthetic_seed",
			Content: fmt.Sprintf("This is synthetic document %d. It contains important claims about the world.", i+1),
		}
		// About a third of the documents give decision-wide context
		if len(snap.Decisions) > 0 && r.Float64() < 0.3 {
			id := snap.Decisions[r.IntN(len(snap.Decisions))].ID
			doc.DecisionID = &id
		}
		snap.Documents = append(snap.Documents, doc)
	}

	for i := 0; i < opts.Claims; i++ {
		c := model.Claim{
			ID:         int64(i + 1),
			Text:       fmt.Sprintf("Claim %d: something something important", i+1),
			Type:       claimTypes[r.IntN(len(claimTypes))],
			Confidence: round3(0.3 + r.Float64()*0.69),
		}
		if len(snap.Documents) > 0 {
			c.DocumentID = snap.Documents[r.IntN(len(snap.Documents))].ID
		}
		snap.Claims = append(snap.Claims, c)
	}

	if len(snap.Claims) > 1 {
		type relationKey struct {
			from, to int64
			kind     model.RelationKind
		}
		existing := make(map[relationKey]bool)
		for i := 0; i < opts.Relations; i++ {
			a := snap.Claims[r.IntN(len(snap.Claims))]
			b := snap.Claims[r.IntN(len(snap.Claims))]
			if a.ID == b.ID {
				continue
			}
			kind := relationKinds[r.IntN(len(relationKinds))]
			key := relationKey{a.ID, b.ID, kind}
			if existing[key] {
				continue
			}
			existing[key] = true
			snap.Relations = append(snap.Relations, model.ClaimRelation{
				ID:       int64(len(snap.Relations) + 1),
				FromID:   a.ID,
				ToID:     b.ID,
				Kind:     kind,
				Strength: round3(0.1 + r.Float64()*0.9),
			})
		}
	}

	if len(snap.Claims) == 0 || opts.Clusters <= 0 {
		return snap
	}

	size := min(opts.ClusterSize, len(snap.Claims))
	clusters := make([][]model.Claim, opts.Clusters)
	for i := range clusters {
		perm := r.Perm(len(snap.Claims))[:size]
		for _, idx := range perm {
			clusters[i] = append(clusters[i], snap.Claims[idx])
		}
	}

	for _, o := range snap.Options {
		for _, c := range clusters[r.IntN(len(clusters))] {
			snap.Links = append(snap.Links, model.DecisionClaimLink{
				ID:       int64(len(snap.Links) + 1),
				OptionID: o.ID,
				ClaimID:  c.ID,
				Effect:   pickEffect(r),
				Weight:   round3(0.5 + r.Float64()),
			})
		}
	}

	return snap
}

// pickEffect draws supports, weakens and blocks with weights 6:3:1
func pickEffect(r *rand.Rand) model.Effect {
	switch p := r.Float64(); {
	case p < 0.6:
		return model.EffectSupports
	case p < 0.9:
		return model.EffectWeakens
	default:
		return model.EffectBlocks
	}
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
