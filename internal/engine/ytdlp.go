package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/lrstanley/go-ytdlp"

	"downloader-api/internal/entity"
)

const defaultProgressEvery = 500 * time.Millisecond

// YTDLP drives the yt-dlp binary through go-ytdlp.
type YTDLP struct {
	logger        *slog.Logger
	progressEvery time.Duration
}

func NewYTDLP(logger *slog.Logger) *YTDLP {
	if logger == nil {
		logger = slog.Default()
	}
	return &YTDLP{
		logger:        logger.With("component", "engine"),
		progressEvery: defaultProgressEvery,
	}
}

func (y *YTDLP) command(cfg Config) *ytdlp.Command {
	dl := ytdlp.New().NoMtime()

	if cfg.Format != "" {
		dl = dl.Format(cfg.Format)
	}
	if cfg.MergeOutputFormat != "" {
		dl = dl.MergeOutputFormat(cfg.MergeOutputFormat)
	}
	if cfg.ExtractAudio {
		dl = dl.ExtractAudio()
		if cfg.AudioFormat != "" {
			dl = dl.AudioFormat(cfg.AudioFormat)
		}
		if cfg.AudioQuality != "" {
			dl = dl.AudioQuality(cfg.AudioQuality)
		}
	}
	if cfg.OutputTemplate != "" {
		dl = dl.Output(cfg.OutputTemplate)
	}
	if cfg.ConcurrentFragments > 0 {
		dl = dl.ConcurrentFragments(cfg.ConcurrentFragments)
	}
	if cfg.MaxFileSizeBytes > 0 {
		dl = dl.MaxFileSize(strconv.FormatInt(cfg.MaxFileSizeBytes, 10))
	}
	if cfg.LiveFromStart {
		dl = dl.LiveFromStart()
	}
	if cfg.Playlist {
		dl = dl.YesPlaylist()
		if cfg.PlaylistItems != "" {
			dl = dl.PlaylistItems(cfg.PlaylistItems)
		}
	} else {
		dl = dl.NoPlaylist()
	}
	if cfg.CookiesFile != "" {
		dl = dl.Cookies(cfg.CookiesFile)
	}
	return dl
}

// extraArgs carries the flags that are passed straight through to yt-dlp.
func extraArgs(cfg Config) []string {
	var args []string
	if cfg.Retries > 0 {
		args = append(args, "--retries", strconv.Itoa(cfg.Retries))
	}
	if cfg.FragmentRetries > 0 {
		args = append(args, "--fragment-retries", strconv.Itoa(cfg.FragmentRetries))
	}
	if cfg.HTTPChunkSize != "" {
		args = append(args, "--http-chunk-size", cfg.HTTPChunkSize)
	}
	if cfg.WaitForVideo != "" {
		args = append(args, "--wait-for-video", cfg.WaitForVideo)
	}
	if cfg.UserAgent != "" {
		args = append(args, "--user-agent", cfg.UserAgent)
	}
	if cfg.GeoBypassCountry != "" {
		args = append(args, "--xff", cfg.GeoBypassCountry)
	}
	if cfg.SleepInterval > 0 {
		args = append(args, "--sleep-interval", strconv.Itoa(cfg.SleepInterval))
		if cfg.MaxSleepInterval > cfg.SleepInterval {
			args = append(args, "--max-sleep-interval", strconv.Itoa(cfg.MaxSleepInterval))
		}
		args = append(args, "--sleep-requests", strconv.Itoa(cfg.SleepInterval))
	}
	return args
}

func (y *YTDLP) Extract(ctx context.Context, url string, cfg Config) (*Metadata, error) {
	cfg.Playlist = false
	dl := y.command(cfg).DumpSingleJSON().SkipDownload()

	res, err := dl.Run(ctx, append(extraArgs(cfg), url)...)
	if err != nil {
		return nil, &entity.EngineError{Op: "extract", Err: describe(res, err)}
	}

	line := lastJSONLine(res.Stdout)
	if line == "" {
		return nil, &entity.EngineError{Op: "extract", Err: errors.New("no metadata in yt-dlp output")}
	}
	meta, err := decodeMetadata([]byte(line))
	if err != nil {
		return nil, &entity.EngineError{Op: "extract", Err: err}
	}
	return meta, nil
}

func (y *YTDLP) Download(ctx context.Context, url string, cfg Config, onProgress ProgressFunc) (*Metadata, error) {
	dl := y.command(cfg).PrintJSON()
	if onProgress != nil {
		dl.ProgressFunc(y.progressEvery, func(update ytdlp.ProgressUpdate) {
			onProgress(convertProgress(&update))
		})
	}

	start := time.Now()
	res, err := dl.Run(ctx, append(extraArgs(cfg), url)...)
	if err != nil {
		y.logger.Debug("yt-dlp run failed", "url", url, "duration_ms", time.Since(start).Milliseconds(), "error", err)
		return nil, &entity.EngineError{Op: "download", Err: describe(res, err)}
	}

	infos, err := res.GetExtractedInfo()
	if err != nil {
		return nil, &entity.EngineError{Op: "download", Err: fmt.Errorf("read extracted info: %w", err)}
	}

	entries := make([]*Metadata, 0, len(infos))
	for _, info := range infos {
		raw, mErr := json.Marshal(info)
		if mErr != nil {
			continue
		}
		m, dErr := decodeMetadata(raw)
		if dErr != nil {
			continue
		}
		m.Filename = finalFilename(m.Filename, cfg)
		entries = append(entries, m)
	}
	if len(entries) == 0 {
		return nil, &entity.EngineError{Op: "download", Err: errors.New("yt-dlp reported no downloaded media")}
	}

	if !cfg.Playlist {
		return entries[len(entries)-1], nil
	}
	return aggregatePlaylist(entries), nil
}

// finalFilename maps the pre-processing name yt-dlp prints to the file left
// on disk. Audio extraction replaces the downloaded container.
func finalFilename(name string, cfg Config) string {
	if name == "" || !cfg.ExtractAudio || cfg.AudioFormat == "" {
		return name
	}
	return strings.TrimSuffix(name, filepath.Ext(name)) + "." + cfg.AudioFormat
}

func aggregatePlaylist(entries []*Metadata) *Metadata {
	agg := &Metadata{Entries: entries}
	for _, e := range entries {
		if e.PlaylistTitle != "" {
			agg.PlaylistTitle = e.PlaylistTitle
			break
		}
	}
	agg.Title = agg.PlaylistTitle
	return agg
}

func convertProgress(u *ytdlp.ProgressUpdate) ProgressEvent {
	ev := ProgressEvent{
		Status:          string(u.Status),
		Filename:        u.Filename,
		DownloadedBytes: int64(u.DownloadedBytes),
		TotalBytes:      int64(u.TotalBytes),
		Percent:         -1,
		FragmentIndex:   int(u.FragmentIndex),
		FragmentCount:   int(u.FragmentCount),
	}
	if !u.Started.IsZero() {
		if elapsed := time.Since(u.Started).Seconds(); elapsed > 0 {
			ev.SpeedBytes = float64(ev.DownloadedBytes) / elapsed
		}
	}
	if eta := u.ETA(); eta > 0 {
		ev.ETASeconds = int64(eta.Seconds())
	}
	if ev.Filename == "" && u.Info != nil && u.Info.Filename != nil {
		ev.Filename = *u.Info.Filename
	}
	return ev
}

// rawInfo mirrors the subset of the yt-dlp info dict we read.
type rawInfo struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Duration    float64  `json:"duration"`
	ViewCount   float64  `json:"view_count"`
	LikeCount   float64  `json:"like_count"`
	Uploader    string   `json:"uploader"`
	UploadDate  string   `json:"upload_date"`
	Thumbnail   string   `json:"thumbnail"`
	AgeLimit    int      `json:"age_limit"`
	IsLive      bool     `json:"is_live"`
	Categories  []string `json:"categories"`
	Tags        []string `json:"tags"`
	Filename    string   `json:"filename"`
	UFilename   string   `json:"_filename"`
	Playlist    string   `json:"playlist"`
	PlaylistTtl string   `json:"playlist_title"`
	Type        string   `json:"_type"`
	Formats     []struct {
		FormatID   string  `json:"format_id"`
		Ext        string  `json:"ext"`
		FormatNote string  `json:"format_note"`
		Resolution string  `json:"resolution"`
		FileSize   float64 `json:"filesize"`
		FPS        float64 `json:"fps"`
		VCodec     string  `json:"vcodec"`
		ACodec     string  `json:"acodec"`
	} `json:"formats"`
	Entries []json.RawMessage `json:"entries"`
}

func decodeMetadata(b []byte) (*Metadata, error) {
	var raw rawInfo
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}

	m := &Metadata{
		ID:          raw.ID,
		Title:       raw.Title,
		Description: raw.Description,
		Duration:    raw.Duration,
		ViewCount:   int64(raw.ViewCount),
		LikeCount:   int64(raw.LikeCount),
		Uploader:    raw.Uploader,
		UploadDate:  raw.UploadDate,
		Thumbnail:   raw.Thumbnail,
		AgeLimit:    raw.AgeLimit,
		IsLive:      raw.IsLive,
		Categories:  raw.Categories,
		Tags:        raw.Tags,
		Filename:    raw.UFilename,
	}
	if m.Filename == "" {
		m.Filename = raw.Filename
	}

	m.PlaylistTitle = raw.PlaylistTtl
	if m.PlaylistTitle == "" {
		m.PlaylistTitle = raw.Playlist
	}
	if raw.Type == "playlist" && m.PlaylistTitle == "" {
		m.PlaylistTitle = raw.Title
	}

	for _, f := range raw.Formats {
		m.Formats = append(m.Formats, Format{
			FormatID:   f.FormatID,
			Ext:        f.Ext,
			Quality:    f.FormatNote,
			Resolution: f.Resolution,
			FileSize:   int64(f.FileSize),
			FPS:        f.FPS,
			VCodec:     f.VCodec,
			ACodec:     f.ACodec,
			Note:       f.FormatNote,
		})
	}
	for _, e := range raw.Entries {
		if len(e) == 0 || string(e) == "null" {
			continue
		}
		if child, err := decodeMetadata(e); err == nil {
			m.Entries = append(m.Entries, child)
		}
	}
	return m, nil
}

func lastJSONLine(out string) string {
	lines := strings.Split(strings.TrimSpace(out), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		l := strings.TrimSpace(lines[i])
		if strings.HasPrefix(l, "{") {
			return l
		}
	}
	return ""
}

// describe turns a failed run into the most useful message available: the
// last ERROR line yt-dlp printed, else the run error itself.
func describe(res *ytdlp.Result, err error) error {
	if res == nil {
		return err
	}
	if msg := lastErrorLine(res.Stderr); msg != "" {
		return errors.New(msg)
	}
	return err
}

func lastErrorLine(stderr string) string {
	lines := strings.Split(stderr, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		l := strings.TrimSpace(lines[i])
		if strings.HasPrefix(l, "ERROR:") {
			return strings.TrimSpace(strings.TrimPrefix(l, "ERROR:"))
		}
	}
	return ""
}
