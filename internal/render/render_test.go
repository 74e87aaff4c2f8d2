package render

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ppiankov/claimrank/internal/model"
)

func sampleResult() *model.DecisionResult {
	return &model.DecisionResult{
		DecisionID: 7,
		RankedOptions: []model.OptionScore{
			{OptionID: 11, Name: "Strong", Score: 0.9, Reasons: []string{"SUPPORTS: Claim Z... => 0.900", "GEMINI ERROR: gave up after 3 attempts: 429"}},
			{OptionID: 10, Name: "Mixed | risky", Score: -0.2, Reasons: []string{"SUPPORTS: Claim X... => 0.800", "BLOCKS: Claim Y... => -1.000"}},
			{OptionID: 12, Score: 0, Reasons: []string{"ERROR: get claim links: boom"}, Error: "get claim links: boom"},
		},
	}
}

func TestJSON_WireFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := JSON(&buf, sampleResult()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if decoded["decision_id"].(float64) != 7 {
		t.Errorf("expected decision_id 7, got %v", decoded["decision_id"])
	}
	ranked := decoded["ranked_options"].([]any)
	first := ranked[0].(map[string]any)
	for _, key := range []string{"option_id", "score", "reasons"} {
		if _, ok := first[key]; !ok {
			t.Errorf("missing key %q in %v", key, first)
		}
	}
	if _, ok := first["error"]; ok {
		t.Error("error must be omitted when empty")
	}
}

func TestMarkdown(t *testing.T) {
	x := &model.Claim{ID: 1, Text: `Claim "X"`, Confidence: 0.8}
	z := &model.Claim{ID: 3, Text: "Claim Z", Confidence: 0.4}
	x.Outgoing = []model.ClaimRelation{{FromID: 1, ToID: 3, Kind: model.RelationSupports, To: z}}
	z.Outgoing = []model.ClaimRelation{{FromID: 3, ToID: 1, Kind: model.RelationRefines, To: x}}

	links := map[int64][]model.DecisionClaimLink{
		10: {{OptionID: 10, ClaimID: 1, Effect: model.EffectSupports, Weight: 1, Claim: x}},
	}

	var buf bytes.Buffer
	decision := model.Decision{ID: 7, Title: "Pick a vendor", Description: "Q3 choice"}
	if err := Markdown(&buf, decision, sampleResult(), links); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"# Pick a vendor",
		"| 1 | Strong | 0.900 |",
		`| 2 | Mixed \| risky | -0.200 |`,
		"## Option 12",
		"> **Error:** get claim links: boom",
		"- BLOCKS: Claim Y... => -1.000",
		"```mermaid\ngraph LR\n",
		`c1["Claim #quot;X#quot; (0.80)"]`,
		"c1 -->|supports 1.00| o10",
		"c1 -.->|supports| c3",
		"c3 -.->|refines| c1",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown missing %q\n%s", want, out)
		}
	}

	// Cycles are drawn once
	if strings.Count(out, "c3 -.->|refines| c1") != 1 {
		t.Error("cyclic relation drawn more than once")
	}
}

func TestSummary(t *testing.T) {
	var buf bytes.Buffer
	Summary(&buf, model.Decision{ID: 7, Title: "Pick a vendor"}, sampleResult())
	out := buf.String()

	if !strings.Contains(out, "★ 1. Strong") {
		t.Errorf("expected winner marker, got:\n%s", out)
	}
	if !strings.Contains(out, "option 12") {
		t.Errorf("expected fallback option name, got:\n%s", out)
	}
	if !strings.Contains(out, "1 evidence lookups failed") {
		t.Errorf("expected evidence failure count, got:\n%s", out)
	}
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "result.json")
	err := WriteFile(path, func(w io.Writer) error { return JSON(w, sampleResult()) })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil || !bytes.Contains(data, []byte(`"ranked_options"`)) {
		t.Errorf("unexpected file content: %s (%v)", data, err)
	}
}
