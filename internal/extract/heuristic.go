package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/ppiankov/claimrank/internal/model"
)

// cue is a keyword that marks a sentence as a claim of a given type
type cue struct {
	keyword    string
	claimType  model.ClaimType
	confidence float64
}

// HeuristicExtractor extracts claims offline by keyword matching.
// It needs no network access and never fails transiently.
type HeuristicExtractor struct {
	cues []cue
}

// NewHeuristicExtractor creates a new heuristic extractor
func NewHeuristicExtractor() *HeuristicExtractor {
	return &HeuristicExtractor{
		cues: []cue{
			// Empirical: measured or reported facts
			{"according to", model.ClaimTypeEmpirical, 0.7},
			{"measured", model.ClaimTypeEmpirical, 0.75},
			{"data shows", model.ClaimTypeEmpirical, 0.75},
			{"study found", model.ClaimTypeEmpirical, 0.75},
			{"reported", model.ClaimTypeEmpirical, 0.65},
			{"percent", model.ClaimTypeEmpirical, 0.7},
			{"increased", model.ClaimTypeEmpirical, 0.6},
			{"decreased", model.ClaimTypeEmpirical, 0.6},
			{"established", model.ClaimTypeEmpirical, 0.6},
			{"founded", model.ClaimTypeEmpirical, 0.6},
			{"originated", model.ClaimTypeEmpirical, 0.6},

			// Theoretical: inferences and predictions
			{"suggests", model.ClaimTypeTheoretical, 0.5},
			{"implies", model.ClaimTypeTheoretical, 0.5},
			{"is expected to", model.ClaimTypeTheoretical, 0.45},
			{"is likely", model.ClaimTypeTheoretical, 0.45},
			{"will", model.ClaimTypeTheoretical, 0.4},
			{"could", model.ClaimTypeTheoretical, 0.35},

			// Opinion: judgements and recommendations
			{"we believe", model.ClaimTypeOpinion, 0.35},
			{"should", model.ClaimTypeOpinion, 0.35},
			{"recommend", model.ClaimTypeOpinion, 0.35},
			{"best", model.ClaimTypeOpinion, 0.3},
			{"must", model.ClaimTypeOpinion, 0.3},
		},
	}
}

// Name returns the provider name
func (e *HeuristicExtractor) Name() string {
	return "heuristic"
}

// ExtractClaims extracts claims from plain text or HTML
func (e *HeuristicExtractor) ExtractClaims(ctx context.Context, text string) ([]ExtractedClaim, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if LooksLikeHTML(text) {
		visible, err := VisibleText(text)
		if err != nil {
			return nil, fmt.Errorf("%w: parse html: %v", ErrMalformedOutput, err)
		}
		text = visible
	}

	// Newlines become spaces so sentence spans index into the same text
	text = strings.ReplaceAll(text, "\n", " ")

	var claims []ExtractedClaim
	seen := make(map[string]bool)
	offset := 0

	for _, sentence := range SplitSentences(text) {
		lower := strings.ToLower(sentence)
		key := strings.TrimSpace(lower)
		if seen[key] {
			continue
		}

		for _, c := range e.cues {
			if !containsWord(lower, c.keyword) {
				continue
			}

			start := strings.Index(text[offset:], sentence)
			if start < 0 {
				start = 0
			} else {
				start += offset
				offset = start + len(sentence)
			}

			seen[key] = true
			claims = append(claims, ExtractedClaim{
				Text:           sentence,
				NormalizedText: normalize(sentence),
				Confidence:     c.confidence,
				SpanStart:      start,
				SpanEnd:        start + len(sentence),
				Type:           c.claimType,
			})
			break // Only match once per sentence
		}
	}

	return claims, nil
}

// containsWord reports whether keyword occurs in s on word boundaries
func containsWord(s, keyword string) bool {
	for from := 0; ; {
		idx := strings.Index(s[from:], keyword)
		if idx < 0 {
			return false
		}
		idx += from
		end := idx + len(keyword)
		if (idx == 0 || !isLetter(s[idx-1])) && (end == len(s) || !isLetter(s[end])) {
			return true
		}
		from = idx + 1
	}
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// normalize lowercases and collapses whitespace and trailing punctuation
func normalize(sentence string) string {
	fields := strings.Fields(strings.ToLower(sentence))
	return strings.TrimRight(strings.Join(fields, " "), ".!?")
}
