package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Options are the completion parameters passed through to a provider. Zero
// values mean "use the provider default".
type Options struct {
	Model       string
	Temperature float32
	MaxTokens   int
	JSONMode    bool
}

// AIProvider is implemented by each concrete vendor adapter.
type AIProvider interface {
	// Name returns the provider identifier ("gemini", "groq")
	Name() string

	// Complete sends a single-prompt completion request
	Complete(ctx context.Context, prompt string, opts Options) (string, error)

	// GenerateInsight produces a structured insight from a dataset summary
	GenerateInsight(ctx context.Context, data DataSummary) (*InsightResponse, error)

	// Chat handles a conversational message, optionally with context
	Chat(ctx context.Context, message string, chatContext any) (string, error)
}

// ProviderError wraps a vendor failure with the provider name so callers can
// attribute it.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s provider error: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// DataSummary is the pre-computed dataset profile an insight is generated
// from.
type DataSummary struct {
	TotalRows            int                           `json:"totalRows"`
	Columns              []ColumnInfo                  `json:"columns"`
	NumericSummaries     map[string]NumericSummary     `json:"numericSummaries"`
	CategoricalSummaries map[string]CategoricalSummary `json:"categoricalSummaries"`
	DateSummaries        map[string]DateSummary        `json:"dateSummaries"`
}

// ColumnInfo describes one column of the dataset.
type ColumnInfo struct {
	Name         string   `json:"name"`
	Type         string   `json:"type"` // numeric, categorical, date, unknown
	SampleValues []string `json:"sampleValues"`
}

// NumericSummary holds descriptive statistics for a numeric column.
type NumericSummary struct {
	Sum   float64 `json:"sum"`
	Avg   float64 `json:"avg"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Count int     `json:"count"`
}

// CategoryCount is one category value with its occurrence count.
type CategoryCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// CategoricalSummary holds the category distribution for a text column.
type CategoricalSummary struct {
	TopCategories    []CategoryCount `json:"topCategories"`
	BottomCategories []CategoryCount `json:"bottomCategories"`
	UniqueCount      int             `json:"uniqueCount"`
	TotalCount       int             `json:"totalCount"`
}

// DateSummary holds the range of a date column.
type DateSummary struct {
	Earliest string `json:"earliest"`
	Latest   string `json:"latest"`
	Count    int    `json:"count"`
}

// InsightResponse is the fixed five-key insight structure the prompt demands.
type InsightResponse struct {
	WhatHappened       string `json:"What happened"`
	WhyItHappened      string `json:"Why it happened"`
	ActionToTakeNext   string `json:"Action to take next"`
	KeyMetricNumbers   string `json:"Key metric numbers"`
	SuggestedChartType string `json:"Suggested chart type"`
}

const (
	insightTemperature = 0.1
	insightMaxTokens   = 1000
	chatTemperature    = 0.7
	chatMaxTokens      = 1500
)

// BuildInsightPrompt renders the dataset summary into the insight prompt.
// Map sections are emitted in sorted column order so the same summary always
// produces the same prompt.
func BuildInsightPrompt(summary DataSummary) string {
	var b strings.Builder

	b.WriteString("Analyze this dataset summary and provide ONE actionable business insight.\n\n")
	b.WriteString("DATASET SUMMARY:\n")
	fmt.Fprintf(&b, "- Total rows: %d\n", summary.TotalRows)

	cols := make([]string, len(summary.Columns))
	for i, c := range summary.Columns {
		cols[i] = fmt.Sprintf("%s (%s)", c.Name, c.Type)
	}
	fmt.Fprintf(&b, "- Columns: %s\n", strings.Join(cols, ", "))

	b.WriteString("\nNUMERIC DATA:")
	for _, col := range sortedKeys(summary.NumericSummaries) {
		stats := summary.NumericSummaries[col]
		fmt.Fprintf(&b, "\n- %s: sum=%.2f, avg=%.2f, min=%g, max=%g",
			col, stats.Sum, stats.Avg, stats.Min, stats.Max)
	}

	b.WriteString("\n\nCATEGORICAL DATA:")
	for _, col := range sortedKeys(summary.CategoricalSummaries) {
		stats := summary.CategoricalSummaries[col]
		top := stats.TopCategories
		if len(top) > 3 {
			top = top[:3]
		}
		parts := make([]string, len(top))
		for i, t := range top {
			parts[i] = fmt.Sprintf("%s(%d)", t.Value, t.Count)
		}
		fmt.Fprintf(&b, "\n- %s: %d unique values, top: %s",
			col, stats.UniqueCount, strings.Join(parts, ", "))
	}

	if len(summary.DateSummaries) > 0 {
		b.WriteString("\n\nDATE DATA:")
		for _, col := range sortedKeys(summary.DateSummaries) {
			stats := summary.DateSummaries[col]
			fmt.Fprintf(&b, "\n- %s: %s to %s (%d records)",
				col, stats.Earliest, stats.Latest, stats.Count)
		}
	}

	b.WriteString(`

Return ONLY a JSON object in this exact format:
{
  "What happened": "One clear statement about the main finding",
  "Why it happened": "Brief explanation of the likely cause",
  "Action to take next": "Specific actionable recommendation",
  "Key metric numbers": "The most important numbers from the data",
  "Suggested chart type": "bar|line|pie|scatter|area"
}

Rules:
- Be specific and data-driven
- No motivational language
- No disclaimers
- Focus on the most significant pattern
- Keep each field to 1-2 sentences maximum`)

	return b.String()
}

// StripCodeFences removes markdown code fences a model may wrap its JSON in.
func StripCodeFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// generateInsight runs the shared insight flow on top of a provider's
// Complete: deterministic prompt, low temperature, strict JSON parse.
func generateInsight(ctx context.Context, p AIProvider, data DataSummary) (*InsightResponse, error) {
	prompt := BuildInsightPrompt(data)

	raw, err := p.Complete(ctx, prompt, Options{
		Temperature: insightTemperature,
		MaxTokens:   insightMaxTokens,
		JSONMode:    true,
	})
	if err != nil {
		return nil, err
	}

	var insight InsightResponse
	if err := json.Unmarshal([]byte(StripCodeFences(raw)), &insight); err != nil {
		return nil, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("failed to parse insight response: %w", err)}
	}
	return &insight, nil
}

// chat runs the shared chat flow: context prepended as a JSON blob, higher
// temperature, raw text back.
func chat(ctx context.Context, p AIProvider, message string, chatContext any) (string, error) {
	prompt := message
	if chatContext != nil {
		encoded, err := json.Marshal(chatContext)
		if err != nil {
			return "", &ProviderError{Provider: p.Name(), Err: fmt.Errorf("failed to encode chat context: %w", err)}
		}
		prompt = fmt.Sprintf("Context: %s\n\nUser: %s", encoded, message)
	}

	return p.Complete(ctx, prompt, Options{
		Temperature: chatTemperature,
		MaxTokens:   chatMaxTokens,
	})
}

func sortedKeys[M map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
