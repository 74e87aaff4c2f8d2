package extract

import (
	"fmt"
	"strings"
)

const geminiOpenAIBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai"

// NewExtractor creates an extraction provider based on configuration
func NewExtractor(config Config) (Extractor, error) {
	switch strings.ToLower(config.Provider) {
	case "openai":
		return NewOpenAIExtractor(config)

	case "gemini":
		// Gemini serves an OpenAI-compatible endpoint
		if config.BaseURL == "" {
			config.BaseURL = geminiOpenAIBaseURL
		}
		if config.Model == "" {
			config.Model = "gemini-2.5-flash"
		}
		p, err := NewOpenAIExtractor(config)
		if err != nil {
			return nil, err
		}
		p.name = "gemini"
		return p, nil

	case "anthropic", "claude":
		return NewAnthropicExtractor(config)

	case "ollama":
		return NewOllamaExtractor(config)

	case "", "heuristic":
		return NewHeuristicExtractor(), nil

	default:
		return nil, fmt.Errorf("unknown extraction provider: %s (supported: openai, anthropic, ollama, heuristic)", config.Provider)
	}
}
