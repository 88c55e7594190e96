package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"insight_gateway/internal/monitoring"
	"insight_gateway/internal/providers"
	"insight_gateway/internal/settings"
	"insight_gateway/internal/utils"
)

// FallbackMessage is returned to the caller when every provider attempt has
// failed. Total provider failure degrades the answer, it does not error.
const FallbackMessage = "AI is temporarily unavailable. Please try again in 10-20 seconds."

// MaxPromptLength is the hard ceiling on prompt size.
const MaxPromptLength = 100000

const endpointLLM = "llm"

var (
	// ErrEmptyPrompt is returned for empty or whitespace-only prompts
	ErrEmptyPrompt = errors.New("empty prompt provided")

	// ErrPromptTooLong is returned when the prompt exceeds MaxPromptLength
	ErrPromptTooLong = errors.New("prompt too long (max 100k characters)")
)

// RetryPolicy controls the primary-provider retry loop. Sleep is injectable
// so tests do not wait out real backoffs.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     time.Duration
	Sleep       func(time.Duration)
}

// DefaultRetryPolicy returns the production policy: two attempts with a one
// second pause between them.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 2,
		Backoff:     time.Second,
		Sleep:       time.Sleep,
	}
}

// SettingsLoader supplies the active provider selection.
type SettingsLoader interface {
	LoadSettings(ctx context.Context) *settings.ProviderSettings
}

// RequestLogger records one monitoring entry per invocation sequence.
type RequestLogger interface {
	LogRequest(ctx context.Context, entry monitoring.RequestLog)
}

// Orchestrator routes prompts to the active provider with retry and
// cross-provider failover.
type Orchestrator struct {
	registry    map[settings.ProviderKind]providers.AIProvider
	settings    SettingsLoader
	monitor     RequestLogger
	policy      RetryPolicy
	callTimeout time.Duration
	logger      *utils.Logger
}

// NewOrchestrator creates an orchestrator over the configured providers.
// Zero-valued policy fields and callTimeout fall back to production defaults.
func NewOrchestrator(
	registry map[settings.ProviderKind]providers.AIProvider,
	settingsLoader SettingsLoader,
	monitor RequestLogger,
	policy RetryPolicy,
	callTimeout time.Duration,
	logger *utils.Logger,
) *Orchestrator {
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = DefaultRetryPolicy().MaxAttempts
	}
	if policy.Sleep == nil {
		policy.Sleep = time.Sleep
	}
	if callTimeout <= 0 {
		callTimeout = 12 * time.Second
	}
	if logger == nil {
		logger = utils.NewLogger("LLM")
	}
	return &Orchestrator{
		registry:    registry,
		settings:    settingsLoader,
		monitor:     monitor,
		policy:      policy,
		callTimeout: callTimeout,
		logger:      logger,
	}
}

// Invoke sends the prompt to the active provider, retrying and then failing
// over to the alternate provider. Validation problems return an error;
// provider failure returns the degraded fallback message with a nil error.
func (o *Orchestrator) Invoke(ctx context.Context, prompt string, opts providers.Options) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", ErrEmptyPrompt
	}
	if len(prompt) > MaxPromptLength {
		return "", ErrPromptTooLong
	}

	active := o.settings.LoadSettings(ctx).ActiveProvider
	o.logger.Info("invoking provider", "provider", active, "promptLength", len(prompt))

	start := time.Now()
	var lastErr error

	if primary, ok := o.registry[active]; ok {
		for attempt := 1; attempt <= o.policy.MaxAttempts; attempt++ {
			o.logger.Debug("primary attempt",
				"provider", active, "attempt", attempt, "maxAttempts", o.policy.MaxAttempts)

			response, err := o.invokeOnce(ctx, primary, prompt, opts)
			if err == nil {
				o.monitor.LogRequest(ctx, monitoring.RequestLog{
					Provider:     string(active),
					Endpoint:     endpointLLM,
					Success:      true,
					ResponseTime: msSince(start),
				})
				return response, nil
			}

			lastErr = err
			o.logger.Error("primary attempt failed",
				"provider", active, "attempt", attempt, "error", err)

			if attempt < o.policy.MaxAttempts {
				o.policy.Sleep(o.policy.Backoff)
			}
		}
	} else {
		lastErr = fmt.Errorf("provider %s is not configured", active)
	}

	fallbackKind := active.Other()
	o.logger.Warn("trying fallback provider", "provider", fallbackKind)

	if fallback, ok := o.registry[fallbackKind]; ok {
		response, err := o.invokeOnce(ctx, fallback, prompt, opts)
		if err == nil {
			o.monitor.LogRequest(ctx, monitoring.RequestLog{
				Provider:     fmt.Sprintf("%s (fallback)", fallbackKind),
				Endpoint:     endpointLLM,
				Success:      true,
				ResponseTime: msSince(start),
			})
			return response, nil
		}
		o.logger.Error("fallback failed", "provider", fallbackKind, "error", err)
	}

	// The failure entry carries the primary's last error so the monitoring
	// trail points at the provider an operator selected
	errMsg := "Multiple provider failures"
	if lastErr != nil {
		errMsg = lastErr.Error()
	}
	o.monitor.LogRequest(ctx, monitoring.RequestLog{
		Provider:     "both (failed)",
		Endpoint:     endpointLLM,
		Success:      false,
		ResponseTime: msSince(start),
		Error:        errMsg,
	})

	if opts.JSONMode {
		envelope, _ := json.Marshal(map[string]string{
			"error":  FallbackMessage,
			"status": "temporary_failure",
		})
		return string(envelope), nil
	}
	return FallbackMessage, nil
}

func (o *Orchestrator) invokeOnce(ctx context.Context, p providers.AIProvider, prompt string, opts providers.Options) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, o.callTimeout)
	defer cancel()

	raw, err := p.Complete(callCtx, prompt, opts)
	if err != nil {
		return "", err
	}

	normalized, err := normalizeResponse(raw)
	if err != nil {
		return "", err
	}

	if opts.JSONMode && !json.Valid([]byte(normalized)) {
		return "", fmt.Errorf("invalid JSON response from %s", p.Name())
	}
	return normalized, nil
}

var whitespaceRun = regexp.MustCompile(`\s+`)

func normalizeResponse(response string) (string, error) {
	normalized := strings.TrimSpace(response)
	normalized = whitespaceRun.ReplaceAllString(normalized, " ")
	if normalized == "" {
		return "", errors.New("empty response from AI provider")
	}
	return normalized, nil
}

func msSince(start time.Time) int {
	return int(time.Since(start).Milliseconds())
}
