// Package client issues chat completions against OpenRouter. One client is
// constructed per API key and passed to callers explicitly; there is no
// shared singleton.
package client

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/schema"
)

const (
	// BaseURL is OpenRouter's OpenAI-compatible endpoint.
	BaseURL = "https://openrouter.ai/api/v1"

	// Model, temperature and token budget are fixed for every completion.
	// Callers needing different behavior construct a different client config.
	Model       = "anthropic/claude-3.5-sonnet:beta"
	Temperature = float32(0.7)
	MaxTokens   = 2000

	// Identification headers sent with every request.
	SiteURL  = "https://genspecs.vercel.app"
	SiteName = "GenSpecs"
)

// Completer is the single-request completion contract. Complete issues
// exactly one request; retry and timeout policy is layered on top.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Client wraps an eino chat model configured for OpenRouter.
type Client struct {
	model *openai.ChatModel
}

// Config carries the per-client settings. Only APIKey is required; the
// zero value of every other field selects the fixed defaults above.
type Config struct {
	APIKey   string
	BaseURL  string
	Model    string
	SiteURL  string
	SiteName string

	// HTTPClient overrides the transport, mainly for tests.
	HTTPClient *http.Client
}

// New builds a completion client for the given API key with the fixed
// model configuration.
func New(ctx context.Context, apiKey string) (*Client, error) {
	return NewWithConfig(ctx, Config{APIKey: apiKey})
}

// NewWithConfig builds a completion client from cfg.
func NewWithConfig(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = BaseURL
	}
	if cfg.Model == "" {
		cfg.Model = Model
	}
	if cfg.SiteURL == "" {
		cfg.SiteURL = SiteURL
	}
	if cfg.SiteName == "" {
		cfg.SiteName = SiteName
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	httpClient = &http.Client{
		Timeout: httpClient.Timeout,
		Transport: &openRouterTransport{
			base:     httpClient.Transport,
			siteURL:  cfg.SiteURL,
			siteName: cfg.SiteName,
		},
	}

	temperature := Temperature
	maxTokens := MaxTokens

	model, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:      cfg.APIKey,
		BaseURL:     cfg.BaseURL,
		Model:       cfg.Model,
		Temperature: &temperature,
		MaxTokens:   &maxTokens,
		HTTPClient:  httpClient,
	})
	if err != nil {
		log.Printf("Error creating OpenRouter client: %v", err)
		return nil, err
	}

	return &Client{model: model}, nil
}

// Complete sends one non-streaming completion with a system and user prompt
// and returns the generated text. Provider failures surface as
// *ProviderError; timeouts and network failures surface as transport errors.
func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	messages := []*schema.Message{
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(userPrompt),
	}

	out, err := c.model.Generate(ctx, messages)
	if err != nil {
		return "", normalizeError(err)
	}
	if out == nil {
		return "", nil
	}
	return out.Content, nil
}
