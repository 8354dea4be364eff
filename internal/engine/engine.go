// Package engine is the boundary to the external media tool. Everything that
// touches the network, picks formats or writes media files happens behind
// the Engine interface.
package engine

import (
	"context"
)

// ProgressEvent is one raw progress notification. Any field may be zero when
// the tool does not report it.
type ProgressEvent struct {
	Status             string
	Filename           string
	DownloadedBytes    int64
	TotalBytes         int64
	TotalBytesEstimate int64
	// Percent is in [0,100]; negative means unknown.
	Percent       float64
	SpeedBytes    float64
	ETASeconds    int64
	FragmentIndex int
	FragmentCount int
}

type ProgressFunc func(ProgressEvent)

// Config is the fully derived tool configuration for one invocation.
type Config struct {
	Format              string
	MergeOutputFormat   string
	ExtractAudio        bool
	AudioFormat         string
	AudioQuality        string
	OutputTemplate      string
	Retries             int
	FragmentRetries     int
	ConcurrentFragments int
	HTTPChunkSize       string
	MaxFileSizeBytes    int64
	LiveFromStart       bool
	WaitForVideo        string
	Playlist            bool
	PlaylistItems       string
	CookiesFile         string
	UserAgent           string
	GeoBypassCountry    string
	SleepInterval       int
	MaxSleepInterval    int
}

type Format struct {
	FormatID   string  `json:"format_id"`
	Ext        string  `json:"ext"`
	Quality    string  `json:"quality,omitempty"`
	Resolution string  `json:"resolution,omitempty"`
	FileSize   int64   `json:"filesize,omitempty"`
	FPS        float64 `json:"fps,omitempty"`
	VCodec     string  `json:"vcodec,omitempty"`
	ACodec     string  `json:"acodec,omitempty"`
	Note       string  `json:"format_note,omitempty"`
}

// Metadata is what the tool reports about a video, or a playlist aggregate
// when Entries is set.
type Metadata struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Duration    float64  `json:"duration"`
	ViewCount   int64    `json:"view_count"`
	LikeCount   int64    `json:"like_count,omitempty"`
	Uploader    string   `json:"uploader,omitempty"`
	UploadDate  string   `json:"upload_date,omitempty"`
	Thumbnail   string   `json:"thumbnail,omitempty"`
	AgeLimit    int      `json:"age_limit"`
	IsLive      bool     `json:"is_live"`
	Categories  []string `json:"categories,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Formats     []Format `json:"formats,omitempty"`
	Filename    string   `json:"filename,omitempty"`

	PlaylistTitle string      `json:"playlist_title,omitempty"`
	Entries       []*Metadata `json:"entries,omitempty"`
}

// Engine runs the external tool. Download blocks until the tool exits and
// calls onProgress zero or more times before returning.
type Engine interface {
	Extract(ctx context.Context, url string, cfg Config) (*Metadata, error)
	Download(ctx context.Context, url string, cfg Config, onProgress ProgressFunc) (*Metadata, error)
}

type PlaylistEntry struct {
	VideoID string `json:"video_id"`
	Title   string `json:"title"`
	URL     string `json:"url"`
}

type PlaylistPreview struct {
	ID      string          `json:"id"`
	URL     string          `json:"url"`
	Entries []PlaylistEntry `json:"entries"`
}

// PlaylistLister lists playlist entries without downloading anything.
type PlaylistLister interface {
	ListPlaylist(ctx context.Context, url string) (*PlaylistPreview, error)
}
