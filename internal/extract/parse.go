package extract

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ppiankov/claimrank/internal/model"
)

type claimsEnvelope struct {
	Claims []rawClaim `json:"claims"`
}

type rawClaim struct {
	Text           string   `json:"claim_text"`
	NormalizedText string   `json:"normalized_text"`
	Confidence     *float64 `json:"confidence"`
	SpanStart      int      `json:"span_start"`
	SpanEnd        int      `json:"span_end"`
	Type           string   `json:"claim_type"`
}

// ParseClaimsJSON decodes a provider's raw response into claims.
// Markdown code fences around the JSON are tolerated.
func ParseClaimsJSON(raw string) ([]ExtractedClaim, error) {
	clean := stripFences(raw)
	if clean == "" {
		return nil, fmt.Errorf("%w: empty response", ErrMalformedOutput)
	}

	var env claimsEnvelope
	if err := json.Unmarshal([]byte(clean), &env); err != nil {
		return nil, fmt.Errorf("%w: output is not valid JSON: %v", ErrMalformedOutput, err)
	}

	claims := make([]ExtractedClaim, 0, len(env.Claims))
	for i, c := range env.Claims {
		text := strings.TrimSpace(c.Text)
		if text == "" {
			return nil, fmt.Errorf("%w: claim %d has no text", ErrMalformedOutput, i)
		}
		if c.Confidence == nil {
			return nil, fmt.Errorf("%w: claim %d has no confidence", ErrMalformedOutput, i)
		}
		if *c.Confidence < 0 || *c.Confidence > 1 {
			return nil, fmt.Errorf("%w: claim %d confidence %.3f outside [0,1]", ErrMalformedOutput, i, *c.Confidence)
		}

		claims = append(claims, ExtractedClaim{
			Text:           text,
			NormalizedText: strings.TrimSpace(c.NormalizedText),
			Confidence:     *c.Confidence,
			SpanStart:      c.SpanStart,
			SpanEnd:        c.SpanEnd,
			Type:           NormalizeType(c.Type),
		})
	}

	return claims, nil
}

// NormalizeType maps provider claim labels onto model claim types
func NormalizeType(label string) model.ClaimType {
	switch strings.ToUpper(strings.TrimSpace(label)) {
	case "FACT", "EMPIRICAL":
		return model.ClaimTypeEmpirical
	case "INFERENCE", "THEORETICAL":
		return model.ClaimTypeTheoretical
	default:
		return model.ClaimTypeOpinion
	}
}

func stripFences(raw string) string {
	clean := strings.TrimSpace(raw)
	clean = strings.TrimPrefix(clean, "```json")
	clean = strings.TrimPrefix(clean, "```")
	clean = strings.TrimSuffix(clean, "```")
	return strings.TrimSpace(clean)
}
