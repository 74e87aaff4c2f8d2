package extract

import "fmt"

const systemPrompt = "You extract atomic, attributable claims from documents and answer with JSON only."

// BuildPrompt constructs the extraction prompt for a document text
func BuildPrompt(text string) string {
	return fmt.Sprintf(`Extract claims from the text below.
Return JSON exactly in this format:

{
    "claims": [
        {
            "claim_text": "...",
            "normalized_text": "...",
            "confidence": 0.0-1.0,
            "span_start": integer,
            "span_end": integer,
            "claim_type": "FACT|OPINION|INFERENCE"
        }
    ]
}

Text:
"""%s"""
`, text)
}
