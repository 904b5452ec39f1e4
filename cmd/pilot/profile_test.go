package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeProfile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "profile.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadProfile(t *testing.T) {
	path := writeProfile(t, "playbackSpeed = 2.5\nvideoLimit = 3\nautoSkipAds = false\n")

	p, err := loadProfile(path)
	require.NoError(t, err)

	patch := p.patch()
	require.NotNil(t, patch.PlaybackSpeed)
	assert.Equal(t, 2.5, *patch.PlaybackSpeed)
	require.NotNil(t, patch.VideoLimit)
	assert.Equal(t, 3, *patch.VideoLimit)
	require.NotNil(t, patch.AutoSkipAds)
	assert.False(t, *patch.AutoSkipAds)
	assert.Nil(t, patch.AutoNext)
	assert.Nil(t, patch.IsRunning)
}

func TestLoadProfile_RejectsUnknownKeys(t *testing.T) {
	path := writeProfile(t, "playbackSpeed = 2.0\nturbo = true\n")

	_, err := loadProfile(path)
	assert.ErrorContains(t, err, "parse profile")
}

func TestLoadProfile_Missing(t *testing.T) {
	_, err := loadProfile(filepath.Join(t.TempDir(), "nope.toml"))
	assert.ErrorContains(t, err, "open profile")
}
