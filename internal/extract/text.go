package extract

import (
	"strings"

	"golang.org/x/net/html"
)

// VisibleText extracts text nodes from HTML, skipping scripts and styles
func VisibleText(htmlContent string) (string, error) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return "", err
	}

	var buf strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe", "template":
				return
			}
		}

		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				buf.WriteString(text)
				buf.WriteString(" ")
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(doc)
	return strings.TrimSpace(buf.String()), nil
}

// LooksLikeHTML reports whether content appears to be an HTML document
func LooksLikeHTML(content string) bool {
	head := strings.ToLower(strings.TrimSpace(content))
	if len(head) > 512 {
		head = head[:512]
	}
	return strings.HasPrefix(head, "<!doctype html") ||
		strings.HasPrefix(head, "<html") ||
		strings.Contains(head, "<body") ||
		strings.Contains(head, "<p>")
}

// SplitSentences splits text into sentences between 30 and 500 bytes long
func SplitSentences(text string) []string {
	text = strings.ReplaceAll(text, "\n", " ")

	var sentences []string
	var current strings.Builder

	keep := func() {
		sentence := strings.TrimSpace(current.String())
		if len(sentence) >= 30 && len(sentence) <= 500 {
			sentences = append(sentences, sentence)
		}
		current.Reset()
	}

	for i, r := range text {
		current.WriteRune(r)

		if r == '.' || r == '!' || r == '?' {
			// Only split when followed by whitespace to spare abbreviations like "e.g."
			if i+1 < len(text) && (text[i+1] == ' ' || text[i+1] == '\t') {
				keep()
			}
		}
	}

	if current.Len() > 0 {
		keep()
	}

	return sentences
}
