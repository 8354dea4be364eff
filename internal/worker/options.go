package worker

import (
	"fmt"
	"path/filepath"

	"downloader-api/internal/engine"
	"downloader-api/internal/entity"
)

const (
	defaultTemplate      = "%(title)s.%(ext)s"
	defaultPlaylistItems = 50
	audioCodec           = "mp3"
	audioQuality         = "192"
	mergeContainer       = "mp4"
)

// Defaults are the server-wide engine settings every job starts from.
type Defaults struct {
	DownloadDir         string
	OutputTemplate      string
	MaxFileSizeBytes    int64
	PlaylistMaxItems    int
	Retries             int
	FragmentRetries     int
	ConcurrentFragments int
	HTTPChunkSize       string
	WaitForVideo        string
	LiveFromStart       bool
	CookiesFile         string
	UserAgent           string
	GeoBypassCountry    string
	SleepInterval       int
	MaxSleepInterval    int
}

// ClampPlaylistItems applies the server ceiling. Zero or negative requests
// get the ceiling itself.
func ClampPlaylistItems(requested, ceiling int) int {
	if ceiling <= 0 {
		ceiling = defaultPlaylistItems
	}
	if requested <= 0 || requested > ceiling {
		return ceiling
	}
	return requested
}

// EffectiveSizeLimit is the smaller non-zero of the job and server caps.
func EffectiveSizeLimit(job, server int64) int64 {
	switch {
	case job <= 0:
		return server
	case server <= 0:
		return job
	case job < server:
		return job
	default:
		return server
	}
}

// BuildEngineConfig derives the engine configuration for one job from its
// kind and options.
func BuildEngineConfig(job entity.Job, d Defaults) engine.Config {
	tmpl := d.OutputTemplate
	if tmpl == "" {
		tmpl = defaultTemplate
	}

	cfg := engine.Config{
		OutputTemplate:      filepath.Join(d.DownloadDir, tmpl),
		Retries:             d.Retries,
		FragmentRetries:     d.FragmentRetries,
		ConcurrentFragments: d.ConcurrentFragments,
		HTTPChunkSize:       d.HTTPChunkSize,
		MaxFileSizeBytes:    EffectiveSizeLimit(job.Options.SizeLimitBytes, d.MaxFileSizeBytes),
		LiveFromStart:       d.LiveFromStart,
		WaitForVideo:        d.WaitForVideo,
		CookiesFile:         d.CookiesFile,
		UserAgent:           d.UserAgent,
		GeoBypassCountry:    d.GeoBypassCountry,
		SleepInterval:       d.SleepInterval,
		MaxSleepInterval:    d.MaxSleepInterval,
	}

	switch job.Kind {
	case entity.KindSpecificQuality:
		q := job.Options.QualityCeiling
		cfg.Format = fmt.Sprintf("bestvideo[height<=%d]+bestaudio/best[height<=%d]", q, q)
	case entity.KindAudioOnly:
		setAudio(&cfg)
	case entity.KindPlaylist:
		cfg.Playlist = true
		cfg.PlaylistItems = fmt.Sprintf("1:%d", ClampPlaylistItems(job.Options.MaxItems, d.PlaylistMaxItems))
		if job.Options.AudioOnly {
			setAudio(&cfg)
		} else {
			cfg.Format = "best"
		}
	default:
		if job.Options.MergeVideoAudio {
			cfg.Format = "bestvideo+bestaudio/best"
			cfg.MergeOutputFormat = mergeContainer
		} else {
			cfg.Format = "best"
		}
	}
	return cfg
}

// InfoConfig is the metadata-only configuration for info and format probes:
// network identity and retries, no waiting for upcoming streams.
func InfoConfig(d Defaults) engine.Config {
	return engine.Config{
		Retries:          d.Retries,
		CookiesFile:      d.CookiesFile,
		UserAgent:        d.UserAgent,
		GeoBypassCountry: d.GeoBypassCountry,
	}
}

func setAudio(cfg *engine.Config) {
	cfg.Format = "bestaudio/best"
	cfg.ExtractAudio = true
	cfg.AudioFormat = audioCodec
	cfg.AudioQuality = audioQuality
}
