package providers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"insight_gateway/internal/utils"
)

const (
	groqBaseURL      = "https://api.groq.com/openai/v1"
	groqDefaultModel = "llama-3.3-70b-versatile"
)

// Groq talks to the Groq API, which is OpenAI-compatible, through the
// go-openai client pointed at Groq's base URL.
type Groq struct {
	client *openai.Client
	logger *utils.Logger
}

// NewGroq creates a Groq adapter. The timeout bounds each API call.
func NewGroq(apiKey string, timeout time.Duration, logger *utils.Logger) *Groq {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = groqBaseURL
	cfg.HTTPClient = &http.Client{Timeout: timeout}
	return newGroqWithConfig(cfg, logger)
}

// NewGroqWithBaseURL creates a Groq adapter against a custom endpoint. Used
// in tests to point the client at a local server.
func NewGroqWithBaseURL(apiKey, baseURL string, timeout time.Duration, logger *utils.Logger) *Groq {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL
	cfg.HTTPClient = &http.Client{Timeout: timeout}
	return newGroqWithConfig(cfg, logger)
}

func newGroqWithConfig(cfg openai.ClientConfig, logger *utils.Logger) *Groq {
	if logger == nil {
		logger = utils.NewLogger("GROQ")
	}
	return &Groq{
		client: openai.NewClientWithConfig(cfg),
		logger: logger,
	}
}

// Name returns the provider identifier.
func (p *Groq) Name() string {
	return "groq"
}

// Complete sends a single-prompt completion request.
func (p *Groq) Complete(ctx context.Context, prompt string, opts Options) (string, error) {
	model := opts.Model
	if model == "" {
		model = groqDefaultModel
	}

	req := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}
	if opts.Temperature > 0 {
		req.Temperature = opts.Temperature
	}
	if opts.MaxTokens > 0 {
		req.MaxTokens = opts.MaxTokens
	}
	if opts.JSONMode {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	p.logger.Debug("starting request", "model", model, "promptLength", len(prompt))
	start := time.Now()

	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", &ProviderError{Provider: p.Name(), Err: fmt.Errorf("request failed: %w", err)}
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", &ProviderError{Provider: p.Name(), Err: fmt.Errorf("empty response")}
	}

	text := resp.Choices[0].Message.Content
	p.logger.Debug("request complete",
		"model", model, "duration", time.Since(start), "responseLength", len(text))
	return text, nil
}

// GenerateInsight produces a structured insight from a dataset summary.
func (p *Groq) GenerateInsight(ctx context.Context, data DataSummary) (*InsightResponse, error) {
	return generateInsight(ctx, p, data)
}

// Chat handles a conversational message.
func (p *Groq) Chat(ctx context.Context, message string, chatContext any) (string, error) {
	return chat(ctx, p, message, chatContext)
}
