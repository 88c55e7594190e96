package settings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"insight_gateway/internal/utils"
)

// ProviderKind identifies one of the supported AI vendors. The set is
// closed: callers switch on it rather than dispatching on arbitrary strings.
type ProviderKind string

const (
	ProviderGemini ProviderKind = "gemini"
	ProviderGroq   ProviderKind = "groq"
)

// Valid reports whether k is one of the two known providers.
func (k ProviderKind) Valid() bool {
	return k == ProviderGemini || k == ProviderGroq
}

// Other returns the alternate provider, used for failover.
func (k ProviderKind) Other() ProviderKind {
	if k == ProviderGroq {
		return ProviderGemini
	}
	return ProviderGroq
}

// ProviderSettings is the singleton operational settings record. Feature
// flags are embedded so they share the settings persistence path.
type ProviderSettings struct {
	ActiveProvider ProviderKind    `bson:"activeProvider" json:"activeProvider"`
	LastUpdated    time.Time       `bson:"lastUpdated" json:"lastUpdated"`
	UpdatedBy      string          `bson:"updatedBy" json:"updatedBy"`
	FeatureFlags   map[string]bool `bson:"featureFlags,omitempty" json:"featureFlags,omitempty"`
}

// DefaultSettings returns the settings used when nothing has been persisted
// yet or the stored record cannot be read.
func DefaultSettings() *ProviderSettings {
	return &ProviderSettings{
		ActiveProvider: ProviderGemini,
		LastUpdated:    time.Now().UTC(),
		UpdatedBy:      "system",
	}
}

// Validate checks structural validity: shape plus enum membership.
func (s *ProviderSettings) Validate() error {
	if s == nil {
		return fmt.Errorf("%w: settings are nil", ErrInvalidSettings)
	}
	if !s.ActiveProvider.Valid() {
		return fmt.Errorf("%w: unknown provider %q", ErrInvalidProvider, s.ActiveProvider)
	}
	if s.UpdatedBy == "" {
		return fmt.Errorf("%w: updatedBy is empty", ErrInvalidSettings)
	}
	return nil
}

var (
	// ErrInvalidProvider is returned when an update names a provider outside the known set
	ErrInvalidProvider = errors.New("invalid provider")

	// ErrInvalidSettings is returned when a settings object fails structural validation
	ErrInvalidSettings = errors.New("invalid settings")
)

// Repository persists the settings singleton. Two implementations exist: a
// document-store repository and a flat-file repository. The choice is made
// once at startup based on whether a document store is configured.
type Repository interface {
	Load(ctx context.Context) (*ProviderSettings, error)
	Save(ctx context.Context, s *ProviderSettings) error
}

// Service wraps a Repository with the read-never-fails / write-must-surface
// policy: reads degrade to defaults, writes report persistence errors so an
// administrator's change is acknowledged or rejected, never dropped.
type Service struct {
	repo   Repository
	logger *utils.Logger
}

// NewService creates a settings service over the given repository.
func NewService(repo Repository, logger *utils.Logger) *Service {
	if logger == nil {
		logger = utils.NewLogger("SETTINGS")
	}
	return &Service{repo: repo, logger: logger}
}

// LoadSettings returns the persisted settings, or defaults when nothing is
// stored or the backend is unreachable. It never returns an error.
func (s *Service) LoadSettings(ctx context.Context) *ProviderSettings {
	stored, err := s.repo.Load(ctx)
	if err != nil {
		s.logger.Warn("falling back to default settings", "error", err)
		return DefaultSettings()
	}
	if err := stored.Validate(); err != nil {
		s.logger.Warn("stored settings invalid, using defaults", "error", err)
		return DefaultSettings()
	}
	return stored
}

// SaveSettings validates and persists the settings. Validation failures and
// backend write failures are both surfaced to the caller.
func (s *Service) SaveSettings(ctx context.Context, settings *ProviderSettings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	if err := s.repo.Save(ctx, settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	s.logger.Info("settings saved", "activeProvider", settings.ActiveProvider, "updatedBy", settings.UpdatedBy)
	return nil
}
