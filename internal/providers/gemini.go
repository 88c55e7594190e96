package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"insight_gateway/internal/utils"
)

const (
	geminiDefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	geminiDefaultModel   = "gemini-2.5-flash"
)

// Gemini talks to the Google Generative Language API over plain HTTP.
type Gemini struct {
	apiKey  string
	baseURL string
	client  *http.Client
	logger  *utils.Logger
}

type geminiRequest struct {
	Contents         []geminiContent         `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenerationConfig struct {
	Temperature      *float32 `json:"temperature,omitempty"`
	MaxOutputTokens  int      `json:"maxOutputTokens,omitempty"`
	ResponseMimeType string   `json:"responseMimeType,omitempty"`
}

type geminiCandidate struct {
	Content      geminiContent `json:"content"`
	FinishReason string        `json:"finishReason"`
}

type geminiResponse struct {
	Candidates []geminiCandidate `json:"candidates"`
}

// NewGemini creates a Gemini adapter. The timeout bounds each API call.
func NewGemini(apiKey string, timeout time.Duration, logger *utils.Logger) *Gemini {
	if logger == nil {
		logger = utils.NewLogger("GEMINI")
	}
	return &Gemini{
		apiKey:  apiKey,
		baseURL: geminiDefaultBaseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// Name returns the provider identifier.
func (p *Gemini) Name() string {
	return "gemini"
}

// Complete sends a single-prompt completion request.
func (p *Gemini) Complete(ctx context.Context, prompt string, opts Options) (string, error) {
	model := opts.Model
	if model == "" {
		model = geminiDefaultModel
	}

	req := geminiRequest{
		Contents: []geminiContent{
			{Role: "user", Parts: []geminiPart{{Text: prompt}}},
		},
	}

	cfg := &geminiGenerationConfig{}
	if opts.Temperature > 0 {
		temp := opts.Temperature
		cfg.Temperature = &temp
	}
	if opts.MaxTokens > 0 {
		cfg.MaxOutputTokens = opts.MaxTokens
	}
	if opts.JSONMode {
		cfg.ResponseMimeType = "application/json"
	}
	if cfg.Temperature != nil || cfg.MaxOutputTokens > 0 || cfg.ResponseMimeType != "" {
		req.GenerationConfig = cfg
	}

	p.logger.Debug("starting request", "model", model, "promptLength", len(prompt))
	start := time.Now()

	body, err := json.Marshal(req)
	if err != nil {
		return "", &ProviderError{Provider: p.Name(), Err: fmt.Errorf("failed to marshal request: %w", err)}
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", p.baseURL, model, p.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", &ProviderError{Provider: p.Name(), Err: fmt.Errorf("failed to create request: %w", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return "", &ProviderError{Provider: p.Name(), Err: fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &ProviderError{Provider: p.Name(), Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return "", &ProviderError{
			Provider: p.Name(),
			Err:      fmt.Errorf("unexpected status %d: %s", resp.StatusCode, respBody),
		}
	}

	var geminiResp geminiResponse
	if err := json.Unmarshal(respBody, &geminiResp); err != nil {
		return "", &ProviderError{Provider: p.Name(), Err: fmt.Errorf("failed to parse response: %w", err)}
	}

	if len(geminiResp.Candidates) == 0 {
		return "", &ProviderError{Provider: p.Name(), Err: fmt.Errorf("no candidates in response")}
	}

	var text string
	for _, part := range geminiResp.Candidates[0].Content.Parts {
		text += part.Text
	}
	if text == "" {
		return "", &ProviderError{Provider: p.Name(), Err: fmt.Errorf("empty response")}
	}

	p.logger.Debug("request complete",
		"model", model, "duration", time.Since(start), "responseLength", len(text))
	return text, nil
}

// GenerateInsight produces a structured insight from a dataset summary.
func (p *Gemini) GenerateInsight(ctx context.Context, data DataSummary) (*InsightResponse, error) {
	return generateInsight(ctx, p, data)
}

// Chat handles a conversational message.
func (p *Gemini) Chat(ctx context.Context, message string, chatContext any) (string, error) {
	return chat(ctx, p, message, chatContext)
}
