package engine

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	ytget "github.com/ytget/ytdlp/v2"

	"downloader-api/internal/entity"
)

const (
	defaultPreviewTimeout = 60 * time.Second
	videoURLTemplate      = "https://www.youtube.com/watch?v=%s"
)

// PlaylistPreviewer lists YouTube playlist entries natively, without
// spawning yt-dlp.
type PlaylistPreviewer struct {
	timeout  time.Duration
	maxItems int
}

func NewPlaylistPreviewer(maxItems int) *PlaylistPreviewer {
	return &PlaylistPreviewer{timeout: defaultPreviewTimeout, maxItems: maxItems}
}

func (p *PlaylistPreviewer) ListPlaylist(ctx context.Context, rawURL string) (*PlaylistPreview, error) {
	id := playlistID(rawURL)
	if id == "" {
		return nil, entity.Invalid("url", "could not extract playlist ID from URL: %s", rawURL)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	items, err := ytget.New().GetPlaylistItemsAll(ctx, id, p.maxItems)
	if err != nil {
		return nil, &entity.EngineError{Op: "playlist", Err: err}
	}

	out := &PlaylistPreview{ID: id, URL: rawURL, Entries: make([]PlaylistEntry, 0, len(items))}
	for _, it := range items {
		out.Entries = append(out.Entries, PlaylistEntry{
			VideoID: it.VideoID,
			Title:   it.Title,
			URL:     fmt.Sprintf(videoURLTemplate, it.VideoID),
		})
	}
	return out, nil
}

// playlistID pulls the list= parameter out of a playlist or watch URL.
func playlistID(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}
	return u.Query().Get("list")
}
