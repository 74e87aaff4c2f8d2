package extract

import (
	"context"
	"errors"

	"github.com/ppiankov/claimrank/internal/model"
)

// Extractor is the external claim-extraction capability
type Extractor interface {
	// Name returns the provider name
	Name() string

	// ExtractClaims returns the structured claims found in text.
	// Errors must carry enough information (a wrapped ErrTransient or a
	// status/message substring) for callers to tell transient from fatal.
	ExtractClaims(ctx context.Context, text string) ([]ExtractedClaim, error)
}

// ExtractedClaim is one claim returned by an Extractor
type ExtractedClaim struct {
	Text           string          `json:"claim_text"`
	NormalizedText string          `json:"normalized_text"`
	Confidence     float64         `json:"confidence"`
	SpanStart      int             `json:"span_start"`
	SpanEnd        int             `json:"span_end"`
	Type           model.ClaimType `json:"claim_type"`
}

var (
	// ErrTransient marks rate-limited or temporarily unavailable failures
	ErrTransient = errors.New("transient extraction failure")

	// ErrMalformedOutput marks provider output that is not valid claims JSON
	ErrMalformedOutput = errors.New("malformed extraction output")
)

// Config holds extraction provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", "ollama", "heuristic", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI/Anthropic
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama, OpenAI-compatible gateways)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// MaxTokens for response generation
	MaxTokens int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:  "heuristic",
		Timeout:   30,
		MaxTokens: 2000,
	}
}

// ConfigFromModel converts model.LLMConfig to extract.Config
func ConfigFromModel(modelConfig model.LLMConfig) Config {
	return Config{
		Provider:  modelConfig.Provider,
		Model:     modelConfig.Model,
		APIKey:    modelConfig.APIKey,
		BaseURL:   modelConfig.BaseURL,
		Timeout:   modelConfig.Timeout,
		MaxTokens: modelConfig.MaxTokens,
	}
}
