package score

import (
	"fmt"
	"strings"

	"github.com/ppiankov/claimrank/internal/model"
)

const (
	// DefaultMaxDepth is the default number of propagation hops
	DefaultMaxDepth = 2

	// Decay is the per-hop influence factor
	Decay = 0.5

	// ReasonPreviewRunes is the number of claim characters quoted in a reason
	ReasonPreviewRunes = 80
)

// Scorer computes option scores from claim links and the claim graph
type Scorer struct{}

// NewScorer creates a new scorer
func NewScorer() *Scorer {
	return &Scorer{}
}

// Breakdown is the detailed result of one scoring pass
type Breakdown struct {
	Total   float64
	Reasons []string

	// Accumulated holds the influence accumulated by every touched claim
	Accumulated map[int64]float64

	// Order lists claim ids in the order they first accumulated influence
	Order []int64
}

// edge is one outgoing relation in the per-call adjacency view
type edge struct {
	to       *model.Claim
	kind     model.RelationKind
	strength float64
}

// visitKey identifies a (claim, depth) expansion
type visitKey struct {
	claimID int64
	depth   int
}

// frame is a pending expansion on the traversal stack
type frame struct {
	claim     *model.Claim
	influence float64
	depth     int
}

// Score returns the total score and one direct-evidence reason per link
func (s *Scorer) Score(links []model.DecisionClaimLink, maxDepth int) (float64, []string) {
	b := s.ScoreDetailed(links, maxDepth)
	return b.Total, b.Reasons
}

// ScoreDetailed runs a scoring pass and returns the full breakdown.
//
// Each link contributes confidence * weight * multiplier at its own claim
// and that influence halves with every hop through outgoing relations, up
// to maxDepth hops. A (claim, depth) pair is expanded at most once per call,
// so the same claim reached at another depth contributes again.
func (s *Scorer) ScoreDetailed(links []model.DecisionClaimLink, maxDepth int) Breakdown {
	if maxDepth < 0 {
		maxDepth = 0
	}

	b := Breakdown{
		Reasons:     make([]string, 0, len(links)),
		Accumulated: make(map[int64]float64),
	}
	if len(links) == 0 {
		return b
	}

	// 1. Direct contributions
	base := make([]float64, len(links))
	for i, link := range links {
		claim := link.Claim
		if claim == nil {
			claim = &model.Claim{ID: link.ClaimID}
		}
		contribution := claim.Confidence * link.Weight * Multiplier(link.Effect)
		base[i] = contribution
		b.Reasons = append(b.Reasons, formatReason(link.Effect, claim.Text, contribution))
	}

	// 2. Local adjacency view over everything reachable from the links
	adjacency := buildAdjacency(links)

	// 3. Propagation with a global accumulator
	visited := make(map[visitKey]struct{})
	for i, link := range links {
		source := link.Claim
		if source == nil {
			source = &model.Claim{ID: link.ClaimID}
		}

		stack := []frame{{claim: source, influence: base[i], depth: 0}}
		for len(stack) > 0 {
			f := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			if f.depth > maxDepth {
				continue
			}
			key := visitKey{claimID: f.claim.ID, depth: f.depth}
			if _, seen := visited[key]; seen {
				continue
			}
			visited[key] = struct{}{}

			if _, ok := b.Accumulated[f.claim.ID]; !ok {
				b.Order = append(b.Order, f.claim.ID)
			}
			b.Accumulated[f.claim.ID] += f.influence

			if f.depth == maxDepth {
				continue
			}

			// Push in reverse so relations are expanded in their stored order
			edges := adjacency[f.claim.ID]
			for j := len(edges) - 1; j >= 0; j-- {
				stack = append(stack, frame{
					claim:     edges[j].to,
					influence: f.influence * Decay,
					depth:     f.depth + 1,
				})
			}
		}
	}

	// Sum in first-touch order so the total is bit-for-bit reproducible
	for _, id := range b.Order {
		b.Total += b.Accumulated[id]
	}

	return b
}

// buildAdjacency maps claim id to outgoing edges for every claim reachable
// through the eager-loaded relations of the linked claims
func buildAdjacency(links []model.DecisionClaimLink) map[int64][]edge {
	adjacency := make(map[int64][]edge)
	seen := make(map[int64]bool)

	var queue []*model.Claim
	for _, link := range links {
		if link.Claim != nil {
			queue = append(queue, link.Claim)
		}
	}

	for len(queue) > 0 {
		claim := queue[0]
		queue = queue[1:]
		if seen[claim.ID] {
			continue
		}
		seen[claim.ID] = true

		for _, rel := range claim.Outgoing {
			target := rel.To
			if target == nil {
				target = &model.Claim{ID: rel.ToID}
			}
			adjacency[claim.ID] = append(adjacency[claim.ID], edge{
				to:       target,
				kind:     rel.Kind,
				strength: rel.Strength,
			})
			if !seen[target.ID] {
				queue = append(queue, target)
			}
		}
	}

	return adjacency
}

// formatReason renders a direct-evidence reason line
func formatReason(effect model.Effect, text string, contribution float64) string {
	return fmt.Sprintf("%s: %s... => %.3f", strings.ToUpper(string(effect)), Preview(text, ReasonPreviewRunes), contribution)
}

// Preview returns at most n runes of s
func Preview(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
