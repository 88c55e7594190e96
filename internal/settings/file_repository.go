package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"insight_gateway/internal/storage"
)

const (
	settingsFileName = "provider-settings.json"
	backupFileName   = "provider-settings.backup.json"
)

// FileRepository persists settings as a JSON file under a data directory.
// It is the fallback backend for deployments without a document store.
// Writes go through a temp file and rename, with a backup copy of the
// previous contents taken first.
type FileRepository struct {
	dataDir string
}

// NewFileRepository creates a flat-file settings repository rooted at dataDir.
func NewFileRepository(dataDir string) *FileRepository {
	return &FileRepository{dataDir: dataDir}
}

// Load reads and validates the settings file.
func (r *FileRepository) Load(_ context.Context) (*ProviderSettings, error) {
	content, err := os.ReadFile(r.settingsPath())
	if os.IsNotExist(err) {
		return nil, storage.ErrSettingsNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}

	var s ProviderSettings
	if err := json.Unmarshal(content, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrInvalidSettings, err)
	}

	return &s, nil
}

// Save writes the settings file atomically, keeping a backup of the previous
// version so a failed write never destroys the last known good state.
func (r *FileRepository) Save(_ context.Context, s *ProviderSettings) error {
	if err := os.MkdirAll(r.dataDir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	content, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}

	settingsPath := r.settingsPath()

	// Back up existing settings before overwriting
	if existing, err := os.ReadFile(settingsPath); err == nil {
		if err := os.WriteFile(filepath.Join(r.dataDir, backupFileName), existing, 0o644); err != nil {
			return fmt.Errorf("failed to write settings backup: %w", err)
		}
	}

	tempPath := settingsPath + ".tmp"
	if err := os.WriteFile(tempPath, content, 0o644); err != nil {
		return fmt.Errorf("failed to write settings file: %w", err)
	}
	if err := os.Rename(tempPath, settingsPath); err != nil {
		return fmt.Errorf("failed to replace settings file: %w", err)
	}

	return nil
}

func (r *FileRepository) settingsPath() string {
	return filepath.Join(r.dataDir, settingsFileName)
}
