package providers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSummary() DataSummary {
	return DataSummary{
		TotalRows: 120,
		Columns: []ColumnInfo{
			{Name: "revenue", Type: "numeric"},
			{Name: "region", Type: "categorical"},
			{Name: "date", Type: "date"},
		},
		NumericSummaries: map[string]NumericSummary{
			"revenue": {Sum: 54321.5, Avg: 452.68, Min: 10, Max: 2000, Count: 120},
		},
		CategoricalSummaries: map[string]CategoricalSummary{
			"region": {
				TopCategories: []CategoryCount{
					{Value: "north", Count: 60},
					{Value: "south", Count: 40},
					{Value: "east", Count: 15},
					{Value: "west", Count: 5},
				},
				UniqueCount: 4,
				TotalCount:  120,
			},
		},
		DateSummaries: map[string]DateSummary{
			"date": {Earliest: "2025-01-01", Latest: "2025-03-31", Count: 120},
		},
	}
}

func TestBuildInsightPrompt(t *testing.T) {
	prompt := BuildInsightPrompt(sampleSummary())

	assert.Contains(t, prompt, "Total rows: 120")
	assert.Contains(t, prompt, "revenue (numeric), region (categorical), date (date)")
	assert.Contains(t, prompt, "revenue: sum=54321.50, avg=452.68, min=10, max=2000")
	assert.Contains(t, prompt, "region: 4 unique values, top: north(60), south(40), east(15)")
	assert.NotContains(t, prompt, "west", "only the top three categories are included")
	assert.Contains(t, prompt, "date: 2025-01-01 to 2025-03-31 (120 records)")
	assert.Contains(t, prompt, `"Suggested chart type"`)
}

func TestBuildInsightPrompt_Deterministic(t *testing.T) {
	first := BuildInsightPrompt(sampleSummary())
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, BuildInsightPrompt(sampleSummary()))
	}
}

func TestBuildInsightPrompt_NoDateSection(t *testing.T) {
	summary := sampleSummary()
	summary.DateSummaries = nil

	prompt := BuildInsightPrompt(summary)
	assert.NotContains(t, prompt, "DATE DATA")
}

func TestStripCodeFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, StripCodeFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, StripCodeFences("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, StripCodeFences(`{"a":1}`))
}

func geminiServer(t *testing.T, handler func(w http.ResponseWriter, body geminiRequest)) *Gemini {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req geminiRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		handler(w, req)
	}))
	t.Cleanup(server.Close)

	p := NewGemini("test-key", 5*time.Second, nil)
	p.baseURL = server.URL
	return p
}

func geminiTextResponse(text string) geminiResponse {
	return geminiResponse{
		Candidates: []geminiCandidate{
			{
				Content:      geminiContent{Role: "model", Parts: []geminiPart{{Text: text}}},
				FinishReason: "STOP",
			},
		},
	}
}

func TestGemini_Complete(t *testing.T) {
	p := geminiServer(t, func(w http.ResponseWriter, req geminiRequest) {
		require.Len(t, req.Contents, 1)
		assert.Equal(t, "hello", req.Contents[0].Parts[0].Text)
		require.NotNil(t, req.GenerationConfig)
		assert.Equal(t, "application/json", req.GenerationConfig.ResponseMimeType)
		assert.Equal(t, 1000, req.GenerationConfig.MaxOutputTokens)

		json.NewEncoder(w).Encode(geminiTextResponse(`{"ok":true}`))
	})

	out, err := p.Complete(context.Background(), "hello", Options{
		Temperature: 0.1,
		MaxTokens:   1000,
		JSONMode:    true,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, out)
}

func TestGemini_CompleteErrorStatus(t *testing.T) {
	p := geminiServer(t, func(w http.ResponseWriter, _ geminiRequest) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	})

	_, err := p.Complete(context.Background(), "hello", Options{})
	require.Error(t, err)

	var provErr *ProviderError
	require.True(t, errors.As(err, &provErr))
	assert.Equal(t, "gemini", provErr.Provider)
	assert.Contains(t, err.Error(), "429")
}

func TestGemini_CompleteEmptyCandidates(t *testing.T) {
	p := geminiServer(t, func(w http.ResponseWriter, _ geminiRequest) {
		json.NewEncoder(w).Encode(geminiResponse{})
	})

	_, err := p.Complete(context.Background(), "hello", Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no candidates")
}

func TestGemini_GenerateInsight(t *testing.T) {
	insight := InsightResponse{
		WhatHappened:       "Revenue concentrated in the north region.",
		WhyItHappened:      "Half of all rows are north sales.",
		ActionToTakeNext:   "Investigate underperforming west region.",
		KeyMetricNumbers:   "north=60 of 120 rows",
		SuggestedChartType: "bar",
	}
	payload, err := json.Marshal(insight)
	require.NoError(t, err)

	p := geminiServer(t, func(w http.ResponseWriter, req geminiRequest) {
		assert.Contains(t, req.Contents[0].Parts[0].Text, "DATASET SUMMARY")
		json.NewEncoder(w).Encode(geminiTextResponse("```json\n" + string(payload) + "\n```"))
	})

	got, err := p.GenerateInsight(context.Background(), sampleSummary())
	require.NoError(t, err)
	assert.Equal(t, &insight, got)
}

func TestGemini_GenerateInsightBadJSON(t *testing.T) {
	p := geminiServer(t, func(w http.ResponseWriter, _ geminiRequest) {
		json.NewEncoder(w).Encode(geminiTextResponse("not json at all"))
	})

	_, err := p.GenerateInsight(context.Background(), sampleSummary())
	require.Error(t, err)

	var provErr *ProviderError
	require.True(t, errors.As(err, &provErr))
}

func TestGroq_Complete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"))

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "llama-3.3-70b-versatile", req["model"])
		format, ok := req["response_format"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "json_object", format["type"])

		json.NewEncoder(w).Encode(map[string]any{
			"id":     "chatcmpl-test",
			"object": "chat.completion",
			"choices": []map[string]any{
				{
					"index":         0,
					"message":       map[string]any{"role": "assistant", "content": `{"ok":true}`},
					"finish_reason": "stop",
				},
			},
		})
	}))
	defer server.Close()

	p := NewGroqWithBaseURL("test-key", server.URL, 5*time.Second, nil)
	out, err := p.Complete(context.Background(), "hello", Options{JSONMode: true})
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, out)
}

func TestGroq_Chat_PrependsContext(t *testing.T) {
	var gotPrompt string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotPrompt = req.Messages[0].Content

		json.NewEncoder(w).Encode(map[string]any{
			"id":     "chatcmpl-test",
			"object": "chat.completion",
			"choices": []map[string]any{
				{
					"index":         0,
					"message":       map[string]any{"role": "assistant", "content": "answer"},
					"finish_reason": "stop",
				},
			},
		})
	}))
	defer server.Close()

	p := NewGroqWithBaseURL("test-key", server.URL, 5*time.Second, nil)
	out, err := p.Chat(context.Background(), "what changed?", map[string]string{"dataset": "sales"})
	require.NoError(t, err)
	assert.Equal(t, "answer", out)
	assert.True(t, strings.HasPrefix(gotPrompt, "Context: "))
	assert.Contains(t, gotPrompt, "User: what changed?")
}
