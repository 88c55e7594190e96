package storage

import "errors"

var (
	// ErrNotConfigured is returned when no document store URI is set
	ErrNotConfigured = errors.New("document store not configured")

	// ErrSettingsNotFound is returned when no settings document exists yet
	ErrSettingsNotFound = errors.New("settings not found")

	// ErrInvalidSettings is returned when a persisted settings document fails validation
	ErrInvalidSettings = errors.New("invalid settings document")
)
