package settings

import (
	"context"
	"errors"
	"fmt"

	"insight_gateway/internal/utils"
)

// Known feature flags. Each gates a whole feature without a redeploy.
const (
	FlagInsights   = "useInsights"
	FlagChat       = "useChat"
	FlagExtraction = "useExtraction"
	FlagCache      = "useCache"
	FlagRateLimit  = "useRateLimit"
)

// ErrUnknownFlag is returned when an update names a flag outside the known set
var ErrUnknownFlag = errors.New("unknown feature flag")

var knownFlags = []string{FlagInsights, FlagChat, FlagExtraction, FlagCache, FlagRateLimit}

// DefaultFlags returns the built-in flag values. Everything defaults to
// enabled so a freshly added flag is on even for existing deployments.
func DefaultFlags() map[string]bool {
	flags := make(map[string]bool, len(knownFlags))
	for _, name := range knownFlags {
		flags[name] = true
	}
	return flags
}

// FlagService reads and updates feature flags. Flags live inside the
// settings record, so persistence rides on the settings repository. Load
// errors surface defaults rather than failing: flags gate optional
// functionality and must never be the reason a request fails outright.
type FlagService struct {
	settings *Service
	logger   *utils.Logger
}

// NewFlagService creates a flag service over the settings service.
func NewFlagService(settings *Service, logger *utils.Logger) *FlagService {
	if logger == nil {
		logger = utils.NewLogger("FEATURE_FLAGS")
	}
	return &FlagService{settings: settings, logger: logger}
}

// GetFlags merges persisted flags over the defaults.
func (f *FlagService) GetFlags(ctx context.Context) map[string]bool {
	flags := DefaultFlags()
	stored := f.settings.LoadSettings(ctx)
	for name, value := range stored.FeatureFlags {
		flags[name] = value
	}
	return flags
}

// UpdateFlag persists a single flag value through the settings service.
func (f *FlagService) UpdateFlag(ctx context.Context, name string, value bool) error {
	if !IsKnownFlag(name) {
		return fmt.Errorf("%w: %q", ErrUnknownFlag, name)
	}

	current := f.settings.LoadSettings(ctx)
	if current.FeatureFlags == nil {
		current.FeatureFlags = make(map[string]bool)
	}
	current.FeatureFlags[name] = value

	if err := f.settings.SaveSettings(ctx, current); err != nil {
		return err
	}
	f.logger.Info("flag updated", "flag", name, "value", value)
	return nil
}

// IsEnabled reports the effective value of a flag.
func (f *FlagService) IsEnabled(ctx context.Context, name string) bool {
	return f.GetFlags(ctx)[name]
}

// IsKnownFlag reports whether name is one of the defined flags.
func IsKnownFlag(name string) bool {
	for _, known := range knownFlags {
		if known == name {
			return true
		}
	}
	return false
}
