package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"insight_gateway/internal/cache"
	"insight_gateway/internal/providers"
	"insight_gateway/internal/settings"
	"insight_gateway/internal/utils"
)

// ErrFeatureDisabled is returned when a feature flag gates off the requested
// operation. Wrapped with the feature name at each call site.
var ErrFeatureDisabled = errors.New("feature is currently disabled")

const cacheTTLHours = 24

// Invoker is the orchestrator surface the services need.
type Invoker interface {
	Invoke(ctx context.Context, prompt string, opts providers.Options) (string, error)
}

// FlagChecker reports effective feature flag values.
type FlagChecker interface {
	IsEnabled(ctx context.Context, name string) bool
}

// ResultCache is the cache surface the services need.
type ResultCache interface {
	Get(ctx context.Context, hash string) json.RawMessage
	Set(ctx context.Context, hash string, result json.RawMessage, userID string, ttlHours int)
}

// Service exposes the three AI operations: structured insights, chat, and
// data extraction. Each is flag-gated; insights and extraction are cached by
// request fingerprint.
type Service struct {
	llm    Invoker
	flags  FlagChecker
	cache  ResultCache
	logger *utils.Logger
}

// NewService creates the application service layer.
func NewService(llm Invoker, flags FlagChecker, resultCache ResultCache, logger *utils.Logger) *Service {
	if logger == nil {
		logger = utils.NewLogger("AI_SERVICES")
	}
	return &Service{llm: llm, flags: flags, cache: resultCache, logger: logger}
}

// GenerateStructuredInsight turns a stats JSON blob into structured insights.
// Identical (statsJSON, userID) pairs are served from cache while the flag is
// on.
func (s *Service) GenerateStructuredInsight(ctx context.Context, statsJSON, userID string) (json.RawMessage, error) {
	if !s.flags.IsEnabled(ctx, settings.FlagInsights) {
		return nil, fmt.Errorf("insights %w", ErrFeatureDisabled)
	}

	cacheEnabled := s.flags.IsEnabled(ctx, settings.FlagCache)
	cacheKey := cache.GenerateHash("insights:"+statsJSON, userID)

	if cacheEnabled {
		if cached := s.cache.Get(ctx, cacheKey); cached != nil {
			s.logger.Debug("cache hit for insights")
			return cached, nil
		}
	}

	response, err := s.llm.Invoke(ctx, buildStructuredInsightPrompt(statsJSON), providers.Options{JSONMode: true})
	if err != nil {
		return nil, err
	}

	result := json.RawMessage(response)
	if !json.Valid(result) {
		s.logger.Error("insight response is not valid JSON")
		return json.RawMessage(`{"insights":[],"summary":"Error generating insights","metrics":{}}`), nil
	}

	if cacheEnabled {
		s.cache.Set(ctx, cacheKey, result, userID, cacheTTLHours)
	}
	return result, nil
}

// GenerateChatResponse answers a conversational message. Chat is not cached.
func (s *Service) GenerateChatResponse(ctx context.Context, message, userID string) (string, error) {
	if !s.flags.IsEnabled(ctx, settings.FlagChat) {
		return "", fmt.Errorf("chat %w", ErrFeatureDisabled)
	}
	return s.llm.Invoke(ctx, buildChatPrompt(message), providers.Options{})
}

// ExtractDataInsights analyzes raw CSV content. Identical (csvData, fileName,
// userID) triples are served from cache while the flag is on.
func (s *Service) ExtractDataInsights(ctx context.Context, csvData, fileName, userID string) (json.RawMessage, error) {
	if !s.flags.IsEnabled(ctx, settings.FlagExtraction) {
		return nil, fmt.Errorf("data extraction %w", ErrFeatureDisabled)
	}

	cacheEnabled := s.flags.IsEnabled(ctx, settings.FlagCache)
	cacheKey := cache.GenerateHash("extraction:"+fileName+":"+csvData, userID)

	if cacheEnabled {
		if cached := s.cache.Get(ctx, cacheKey); cached != nil {
			s.logger.Debug("cache hit for extraction")
			return cached, nil
		}
	}

	response, err := s.llm.Invoke(ctx, buildExtractionPrompt(csvData, fileName), providers.Options{JSONMode: true})
	if err != nil {
		return nil, err
	}

	result := json.RawMessage(response)
	if !json.Valid(result) {
		s.logger.Error("extraction response is not valid JSON")
		return json.RawMessage(`{"data_quality":"Unknown","key_patterns":[],"recommendations":[],"data_summary":{}}`), nil
	}

	if cacheEnabled {
		s.cache.Set(ctx, cacheKey, result, userID, cacheTTLHours)
	}
	return result, nil
}
