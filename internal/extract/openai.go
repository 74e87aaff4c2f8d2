package extract

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"
)

// OpenAIExtractor implements Extractor for OpenAI-compatible chat APIs
type OpenAIExtractor struct {
	client *openai.Client
	config Config
	name   string
}

// NewOpenAIExtractor creates a new OpenAI extractor
func NewOpenAIExtractor(config Config) (*OpenAIExtractor, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	return &OpenAIExtractor{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
		name:   "openai",
	}, nil
}

// Name returns the provider name
func (p *OpenAIExtractor) Name() string {
	return p.name
}

// ExtractClaims extracts claims using the Chat Completions API in JSON mode
func (p *OpenAIExtractor) ExtractClaims(ctx context.Context, text string) ([]ExtractedClaim, error) {
	model := p.config.Model
	if model == "" {
		model = openai.GPT4oMini
	}

	maxTokens := p.config.MaxTokens
	if maxTokens == 0 {
		maxTokens = 2000
	}

	timeout := time.Duration(p.config.Timeout) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	ctxWithTimeout, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	chatReq := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: BuildPrompt(text)},
		},
		MaxTokens:   maxTokens,
		Temperature: 0.1,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	resp, err := p.client.CreateChatCompletion(ctxWithTimeout, chatReq)
	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", classifyOpenAIError(err))
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices in OpenAI response", ErrMalformedOutput)
	}

	return ParseClaimsJSON(resp.Choices[0].Message.Content)
}

// classifyOpenAIError marks rate-limit and server-side failures as transient
func classifyOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return wrapStatus(apiErr.HTTPStatusCode, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return wrapStatus(reqErr.HTTPStatusCode, err)
	}
	return err
}

// wrapStatus wraps err with ErrTransient for retryable HTTP statuses
func wrapStatus(status int, err error) error {
	if status == http.StatusTooManyRequests || status >= http.StatusInternalServerError {
		return fmt.Errorf("%w: %w", ErrTransient, err)
	}
	return err
}
