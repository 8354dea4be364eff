package config

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	env "github.com/caarlos0/env/v11"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppConfig_Defaults(t *testing.T) {
	var cfg AppConfig
	require.NoError(t, env.Parse(&cfg))
	cfg.Sanitize()

	assert.Equal(t, ":5000", cfg.HTTP.Addr)
	assert.Equal(t, "/tmp/downloads", cfg.Download.Dir)
	assert.Equal(t, 50, cfg.Download.PlaylistMaxItems)
	assert.Equal(t, 0, cfg.Download.MaxConcurrentJobs)
	assert.Equal(t, 10, cfg.YTDLP.Retries)
	assert.Equal(t, "10M", cfg.YTDLP.HTTPChunkSize)
	assert.True(t, cfg.YTDLP.LiveFromStart)
	assert.Equal(t, time.Hour, cfg.Retention.FileTTL)
	assert.Equal(t, "downloads:events", cfg.Redis.Channel)
	assert.Empty(t, cfg.Redis.Addr)
	assert.Empty(t, cfg.Postgres.DSN)
}

func TestAppConfig_FromEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9000")
	t.Setenv("DOWNLOAD_DIR", "/srv/media")
	t.Setenv("MAX_FILE_SIZE_MB", "500")
	t.Setenv("PLAYLIST_MAX_ITEMS", "10")
	t.Setenv("MAX_CONCURRENT_JOBS", "4")
	t.Setenv("JOB_TIMEOUT", "30m")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_RECENT_LIMIT", "20")
	t.Setenv("POSTGRES_DSN", "postgres://u:p@localhost/db")
	t.Setenv("LOG_LEVEL", " DEBUG ")

	var cfg AppConfig
	require.NoError(t, env.Parse(&cfg))
	cfg.Sanitize()

	assert.Equal(t, ":9000", cfg.HTTP.Addr)
	assert.Equal(t, 4, cfg.Download.MaxConcurrentJobs)
	assert.Equal(t, 30*time.Minute, cfg.Download.JobTimeout)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 20, cfg.Redis.RecentLimit)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "/srv/media", cfg.Download.Dir)
	assert.Equal(t, int64(500), cfg.Download.MaxFileSizeMB)
	assert.Equal(t, 10, cfg.Download.PlaylistMaxItems)
}

func TestAppConfig_SanitizeClamps(t *testing.T) {
	cfg := AppConfig{
		Download: DownloadConfig{PlaylistMaxItems: -1, MaxConcurrentJobs: -3, MaxFileSizeMB: -5},
		YTDLP:    YTDLPConfig{SleepInterval: 4, MaxSleepInterval: 2},
	}
	cfg.Sanitize()

	assert.Equal(t, 50, cfg.Download.PlaylistMaxItems)
	assert.Equal(t, 0, cfg.Download.MaxConcurrentJobs)
	assert.Equal(t, int64(0), cfg.Download.MaxFileSizeMB)
	assert.Equal(t, 4, cfg.YTDLP.MaxSleepInterval)
	assert.Equal(t, 30*time.Second, cfg.HTTP.ShutdownTimeout)

	cfg.Download.MaxFileSizeMB = MaxFileSizeMBLimit + 1
	cfg.Sanitize()
	assert.Equal(t, int64(MaxFileSizeMBLimit), cfg.Download.MaxFileSizeMB)
	assert.Positive(t, cfg.Download.MaxFileSizeMB<<20)
}

func TestNewLogger(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	logger := NewLogger(LogConfig{Level: "warn", Format: "json"}, &buf)

	logger.Info("hidden")
	logger.Warn("shown", "job_id", "abc")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "shown", line["msg"])
	assert.Equal(t, "abc", line["job_id"])
}
