package settings

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlagService(t *testing.T) *FlagService {
	svc, _ := newFileService(t)
	return NewFlagService(svc, nil)
}

func TestFlagService_DefaultsAllEnabled(t *testing.T) {
	flags := newFlagService(t).GetFlags(context.Background())

	for _, name := range []string{FlagInsights, FlagChat, FlagExtraction, FlagCache, FlagRateLimit} {
		assert.True(t, flags[name], name)
	}
}

func TestFlagService_UpdateFlag(t *testing.T) {
	fs := newFlagService(t)
	ctx := context.Background()

	require.NoError(t, fs.UpdateFlag(ctx, FlagChat, false))

	assert.False(t, fs.IsEnabled(ctx, FlagChat))
	// Untouched flags keep their defaults
	assert.True(t, fs.IsEnabled(ctx, FlagInsights))
}

func TestFlagService_UpdateFlag_UnknownName(t *testing.T) {
	fs := newFlagService(t)

	err := fs.UpdateFlag(context.Background(), "useTimeTravel", true)
	assert.ErrorIs(t, err, ErrUnknownFlag)
}

func TestFlagService_MergePersistedOverDefaults(t *testing.T) {
	svc, _ := newFileService(t)
	fs := NewFlagService(svc, nil)
	ctx := context.Background()

	// Persist a settings record that only knows about one flag, as an older
	// deployment would have written.
	s := DefaultSettings()
	s.UpdatedBy = "admin@example.com"
	s.FeatureFlags = map[string]bool{FlagCache: false}
	require.NoError(t, svc.SaveSettings(ctx, s))

	flags := fs.GetFlags(ctx)
	assert.False(t, flags[FlagCache])
	assert.True(t, flags[FlagRateLimit])
}
