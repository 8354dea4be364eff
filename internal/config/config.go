// Package config loads the service configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	env "github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// MaxFileSizeMBLimit is the largest MAX_FILE_SIZE_MB whose byte count fits
// in an int64.
const MaxFileSizeMBLimit = math.MaxInt64 >> 20

// AppConfig composes every setting of the service. Values come from
// environment variables, optionally seeded from a .env file.
type AppConfig struct {
	HTTP      HTTPConfig
	Download  DownloadConfig
	YTDLP     YTDLPConfig
	Retention RetentionConfig
	Redis     RedisConfig `envPrefix:"REDIS_"`
	Postgres  PostgresConfig
	Log       LogConfig
}

type HTTPConfig struct {
	Addr            string        `env:"HTTP_ADDR" envDefault:":5000"`
	ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"0s"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"30s"`
}

type DownloadConfig struct {
	Dir               string        `env:"DOWNLOAD_DIR" envDefault:"/tmp/downloads"`
	OutputTemplate    string        `env:"OUTPUT_TEMPLATE" envDefault:"%(title)s.%(ext)s"`
	MaxFileSizeMB     int64         `env:"MAX_FILE_SIZE_MB" envDefault:"0"`
	PlaylistMaxItems  int           `env:"PLAYLIST_MAX_ITEMS" envDefault:"50"`
	MaxConcurrentJobs int           `env:"MAX_CONCURRENT_JOBS" envDefault:"0"`
	JobTimeout        time.Duration `env:"JOB_TIMEOUT" envDefault:"0s"`
}

// YTDLPConfig holds the flags passed to every yt-dlp invocation.
type YTDLPConfig struct {
	Retries             int    `env:"YTDLP_RETRIES" envDefault:"10"`
	FragmentRetries     int    `env:"YTDLP_FRAGMENT_RETRIES" envDefault:"10"`
	ConcurrentFragments int    `env:"YTDLP_CONCURRENT_FRAGMENTS" envDefault:"5"`
	HTTPChunkSize       string `env:"YTDLP_HTTP_CHUNK_SIZE" envDefault:"10M"`
	WaitForVideo        string `env:"YTDLP_WAIT_FOR_VIDEO" envDefault:"10-60"`
	LiveFromStart       bool   `env:"YTDLP_LIVE_FROM_START" envDefault:"true"`
	CookiesFile         string `env:"COOKIES_FILE"`
	UserAgent           string `env:"YTDLP_USER_AGENT"`
	GeoBypassCountry    string `env:"YTDLP_GEO_BYPASS_COUNTRY" envDefault:"US"`
	SleepInterval       int    `env:"YTDLP_SLEEP_INTERVAL" envDefault:"1"`
	MaxSleepInterval    int    `env:"YTDLP_MAX_SLEEP_INTERVAL" envDefault:"5"`
}

type RetentionConfig struct {
	FileTTL       time.Duration `env:"FILE_TTL" envDefault:"1h"`
	RecordTTL     time.Duration `env:"RECORD_TTL" envDefault:"0s"`
	Interval      time.Duration `env:"REAPER_INTERVAL" envDefault:"5m"`
	StatsInterval time.Duration `env:"STATS_INTERVAL" envDefault:"1m"`
}

// RedisConfig enables the event publisher when Addr is set.
type RedisConfig struct {
	Addr        string `env:"ADDR"`
	Password    string `env:"PASSWORD"`
	DB          int    `env:"DB" envDefault:"0"`
	Channel     string `env:"CHANNEL" envDefault:"downloads:events"`
	RecentKey   string `env:"RECENT_KEY" envDefault:"downloads:recent"`
	RecentLimit int    `env:"RECENT_LIMIT" envDefault:"100"`
}

// PostgresConfig enables the history archive when DSN is set.
type PostgresConfig struct {
	DSN string `env:"POSTGRES_DSN"`
}

type LogConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"text"`
}

// Load reads a .env file when present, then parses the environment.
func Load() (AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return AppConfig{}, fmt.Errorf("load .env file: %w", err)
		}
	}

	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}

	cfg.Sanitize()
	return cfg, nil
}

// Sanitize applies guardrails to values loaded from the environment.
func (c *AppConfig) Sanitize() {
	if c.Download.Dir == "" {
		c.Download.Dir = "/tmp/downloads"
	}
	if c.Download.OutputTemplate == "" {
		c.Download.OutputTemplate = "%(title)s.%(ext)s"
	}
	if c.Download.PlaylistMaxItems <= 0 {
		c.Download.PlaylistMaxItems = 50
	}
	if c.Download.MaxConcurrentJobs < 0 {
		c.Download.MaxConcurrentJobs = 0
	}
	if c.Download.MaxFileSizeMB < 0 {
		c.Download.MaxFileSizeMB = 0
	}
	if c.Download.MaxFileSizeMB > MaxFileSizeMBLimit {
		c.Download.MaxFileSizeMB = MaxFileSizeMBLimit
	}
	if c.Download.JobTimeout < 0 {
		c.Download.JobTimeout = 0
	}
	if c.YTDLP.MaxSleepInterval < c.YTDLP.SleepInterval {
		c.YTDLP.MaxSleepInterval = c.YTDLP.SleepInterval
	}
	if c.HTTP.ShutdownTimeout <= 0 {
		c.HTTP.ShutdownTimeout = 30 * time.Second
	}
	if c.Redis.RecentLimit <= 0 {
		c.Redis.RecentLimit = 100
	}
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	c.Log.Format = strings.ToLower(strings.TrimSpace(c.Log.Format))
}
