package cfg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetVersion(t *testing.T) {
	if GetVersion() == "" {
		t.Error("GetVersion should never return empty string")
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("CONNECTION_STRING", "/tmp/starchives.db")
	t.Setenv("YOUTUBE_API_KEY", "key-123")
	t.Setenv("WORKER_COUNT", "2")
	t.Setenv("TZ", "UTC")

	cfg, err := Load([]string{})
	require.NoError(t, err)

	assert.Equal(t, "/tmp/starchives.db", cfg.ConnectionString)
	assert.Equal(t, "key-123", cfg.YouTubeAPIKey)
	assert.Equal(t, 2, cfg.WorkerCount)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "Starchives", cfg.SiteTitle)
	assert.True(t, cfg.IngestionEnabled())
}

func TestLoadFlagsOverrideDefaults(t *testing.T) {
	t.Setenv("CONNECTION_STRING", "/tmp/starchives.db")
	t.Setenv("YOUTUBE_API_KEY", "")

	cfg, err := Load([]string{"--port", "9090", "--channel-id", " UC123 ", "--debug"})
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "UC123", cfg.ChannelID)
	assert.True(t, cfg.Debug)
	assert.False(t, cfg.IngestionEnabled())
}

func TestLoadMissingConnectionString(t *testing.T) {
	t.Setenv("CONNECTION_STRING", "")

	cfg, err := Load([]string{})
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoadRejectsInvalidWorkerCount(t *testing.T) {
	t.Setenv("CONNECTION_STRING", "/tmp/starchives.db")

	_, err := Load([]string{"--worker-count", "0"})
	assert.Error(t, err)
}

func TestLoadClampsCaptionConcurrency(t *testing.T) {
	t.Setenv("CONNECTION_STRING", "/tmp/starchives.db")

	cfg, err := Load([]string{"--caption-concurrency", "0"})
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.CaptionConcurrency)
}
