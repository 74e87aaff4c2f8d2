package extract

import (
	"errors"
	"testing"

	"github.com/ppiankov/claimrank/internal/model"
)

func TestParseClaimsJSON_Valid(t *testing.T) {
	raw := "```json\n" + `{"claims":[{"claim_text":" Sales grew 12 percent. ","normalized_text":"sales grew 12%","confidence":0.9,"span_start":0,"span_end":22,"claim_type":"FACT"}]}` + "\n```"

	claims, err := ParseClaimsJSON(raw)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(claims) != 1 {
		t.Fatalf("expected 1 claim, got %d", len(claims))
	}

	c := claims[0]
	if c.Text != "Sales grew 12 percent." {
		t.Errorf("expected trimmed text, got %q", c.Text)
	}
	if c.Confidence != 0.9 || c.SpanEnd != 22 {
		t.Errorf("unexpected claim fields: %+v", c)
	}
	if c.Type != model.ClaimTypeEmpirical {
		t.Errorf("expected FACT to map to empirical, got %s", c.Type)
	}
}

func TestParseClaimsJSON_Malformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty", "   "},
		{"not json", "Sorry, I cannot help with that."},
		{"missing text", `{"claims":[{"claim_text":"","confidence":0.5}]}`},
		{"missing confidence", `{"claims":[{"claim_text":"x"}]}`},
		{"confidence out of range", `{"claims":[{"claim_text":"x","confidence":1.5}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseClaimsJSON(tt.raw)
			if !errors.Is(err, ErrMalformedOutput) {
				t.Errorf("expected ErrMalformedOutput, got %v", err)
			}
		})
	}
}

func TestParseClaimsJSON_NoClaims(t *testing.T) {
	claims, err := ParseClaimsJSON(`{"claims":[]}`)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(claims) != 0 {
		t.Errorf("expected no claims, got %d", len(claims))
	}
}

func TestNormalizeType(t *testing.T) {
	tests := map[string]model.ClaimType{
		"FACT":      model.ClaimTypeEmpirical,
		"fact":      model.ClaimTypeEmpirical,
		"INFERENCE": model.ClaimTypeTheoretical,
		"OPINION":   model.ClaimTypeOpinion,
		"":          model.ClaimTypeOpinion,
	}
	for label, want := range tests {
		if got := NormalizeType(label); got != want {
			t.Errorf("NormalizeType(%q) = %s, want %s", label, got, want)
		}
	}
}
