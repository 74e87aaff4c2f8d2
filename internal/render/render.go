// Package render writes decision results as JSON, Markdown and terminal
// summaries.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/claimrank/internal/model"
	"github.com/ppiankov/claimrank/internal/score"
)

// JSON writes the result as indented JSON
func JSON(w io.Writer, result *model.DecisionResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// WriteFile creates path (and its directory) and renders into it
func WriteFile(path string, fn func(io.Writer) error) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := fn(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// Summary prints a short ranked overview for the terminal
func Summary(w io.Writer, decision model.Decision, result *model.DecisionResult) {
	fmt.Fprintf(w, "\nDecision %d: %s\n", decision.ID, decision.Title)
	fmt.Fprintln(w, strings.Repeat("─", 60))

	if len(result.RankedOptions) == 0 {
		fmt.Fprintln(w, "No options to rank.")
		return
	}

	for i, o := range result.RankedOptions {
		marker := " "
		if i == 0 {
			marker = "★"
		}
		name := o.Name
		if name == "" {
			name = fmt.Sprintf("option %d", o.OptionID)
		}
		fmt.Fprintf(w, "%s %d. %-40s %8.3f\n", marker, i+1, name, o.Score)
		if o.Error != "" {
			fmt.Fprintf(w, "     ⚠ %s\n", o.Error)
		}
	}

	failed := 0
	for _, o := range result.RankedOptions {
		failed += countErrors(o.Reasons)
	}
	if failed > 0 {
		fmt.Fprintf(w, "\n%d evidence lookups failed; see reasons for details.\n", failed)
	}
}

// countErrors counts augmentation error reasons such as "GEMINI ERROR: ..."
func countErrors(reasons []string) int {
	n := 0
	for _, r := range reasons {
		if strings.Contains(r, " ERROR: ") {
			n++
		}
	}
	return n
}

// Markdown writes a report with the ranking, every option's reasons and a
// Mermaid diagram of the claim graph behind each option. links maps option
// id to its eager-loaded links; a nil map omits the diagrams.
func Markdown(w io.Writer, decision model.Decision, result *model.DecisionResult, links map[int64][]model.DecisionClaimLink) error {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", decision.Title)
	if decision.Description != "" {
		fmt.Fprintf(&b, "%s\n\n", decision.Description)
	}

	b.WriteString("## Ranking\n\n")
	b.WriteString("| Rank | Option | Score |\n")
	b.WriteString("|-----:|--------|------:|\n")
	for i, o := range result.RankedOptions {
		fmt.Fprintf(&b, "| %d | %s | %.3f |\n", i+1, escapeCell(optionName(o)), o.Score)
	}
	b.WriteString("\n")

	for _, o := range result.RankedOptions {
		fmt.Fprintf(&b, "## %s\n\n", optionName(o))
		if o.Error != "" {
			fmt.Fprintf(&b, "> **Error:** %s\n\n", o.Error)
		}

		if len(o.Reasons) == 0 {
			b.WriteString("_No linked claims._\n\n")
		} else {
			for _, r := range o.Reasons {
				fmt.Fprintf(&b, "- %s\n", r)
			}
			b.WriteString("\n")
		}

		if optionLinks := links[o.OptionID]; len(optionLinks) > 0 {
			b.WriteString("```mermaid\n")
			b.WriteString(Mermaid(o, optionLinks))
			b.WriteString("```\n\n")
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// Mermaid renders a left-to-right graph of an option, its linked claims and
// every relation reachable from them
func Mermaid(option model.OptionScore, links []model.DecisionClaimLink) string {
	var b strings.Builder
	b.WriteString("graph LR\n")

	optionNode := fmt.Sprintf("o%d", option.OptionID)
	fmt.Fprintf(&b, "  %s([\"%s\"])\n", optionNode, escapeLabel(optionName(option)))

	declared := make(map[int64]bool)
	declare := func(c *model.Claim) {
		if declared[c.ID] {
			return
		}
		declared[c.ID] = true
		fmt.Fprintf(&b, "  c%d[\"%s\"]\n", c.ID, escapeLabel(claimLabel(c)))
	}

	var queue []*model.Claim
	for _, l := range links {
		if l.Claim == nil {
			continue
		}
		declare(l.Claim)
		fmt.Fprintf(&b, "  c%d -->|%s %.2f| %s\n", l.Claim.ID, l.Effect, l.Weight, optionNode)
		queue = append(queue, l.Claim)
	}

	expanded := make(map[int64]bool)
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		if expanded[c.ID] {
			continue
		}
		expanded[c.ID] = true

		for _, r := range c.Outgoing {
			if r.To == nil {
				continue
			}
			declare(r.To)
			fmt.Fprintf(&b, "  c%d -.->|%s| c%d\n", c.ID, r.Kind, r.To.ID)
			queue = append(queue, r.To)
		}
	}

	return b.String()
}

func optionName(o model.OptionScore) string {
	if o.Name != "" {
		return o.Name
	}
	return fmt.Sprintf("Option %d", o.OptionID)
}

func claimLabel(c *model.Claim) string {
	text := score.Preview(c.Text, 40)
	if text != c.Text {
		text += "…"
	}
	return fmt.Sprintf("%s (%.2f)", text, c.Confidence)
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, `"`, "#quot;")
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
