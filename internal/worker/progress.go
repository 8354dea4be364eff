package worker

import (
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"downloader-api/internal/engine"
	"downloader-api/internal/entity"
)

const notAvailable = "N/A"

// ProgressSink turns raw engine events for one job into progress snapshots.
// Each event overwrites the previous snapshot; nothing is merged or kept.
type ProgressSink struct {
	jobID  string
	repo   JobRepo
	logger *slog.Logger
	closed atomic.Bool
	last   atomic.Pointer[entity.Progress]
}

func NewProgressSink(jobID string, repo JobRepo, logger *slog.Logger) *ProgressSink {
	return &ProgressSink{jobID: jobID, repo: repo, logger: logger}
}

// Update never fails. Events arriving after Close are dropped.
func (s *ProgressSink) Update(ev engine.ProgressEvent) {
	if s.closed.Load() {
		return
	}
	snap := Normalize(ev)
	s.last.Store(&snap)

	if _, err := s.repo.Update(s.jobID, entity.ProgressPatch(snap)); err != nil && !errors.Is(err, entity.ErrTerminal) {
		s.logger.Warn("progress update dropped", "job_id", s.jobID, "error", err)
	}
}

// Close stops accepting events. The runner calls it before the terminal write.
func (s *ProgressSink) Close() {
	s.closed.Store(true)
}

// Last is the most recent snapshot, or the initial one when no event arrived.
func (s *ProgressSink) Last() entity.Progress {
	if p := s.last.Load(); p != nil {
		return *p
	}
	return entity.InitialProgress()
}

// Normalize maps an engine event to a snapshot, defaulting whatever is missing.
func Normalize(ev engine.ProgressEvent) entity.Progress {
	p := entity.InitialProgress()
	p.Phase = ev.Status
	if p.Phase == "" {
		p.Phase = string(entity.StatusDownloading)
	}
	p.Filename = ev.Filename
	p.FragmentIndex = ev.FragmentIndex
	p.FragmentCount = ev.FragmentCount

	if ev.DownloadedBytes > 0 {
		p.DownloadedBytes = ev.DownloadedBytes
		p.Downloaded = formatBytes(ev.DownloadedBytes)
	}

	total := ev.TotalBytes
	if total <= 0 {
		total = ev.TotalBytesEstimate
	}
	if total > 0 {
		p.TotalBytes = total
		p.Total = formatBytes(total)
	}

	switch {
	case ev.Percent > 0:
		p.Percent = formatPercent(ev.Percent)
	case total > 0:
		p.Percent = formatPercent(float64(ev.DownloadedBytes) / float64(total) * 100)
	}
	if ev.Status == "finished" {
		p.Percent = "100%"
	}

	if ev.SpeedBytes > 0 {
		p.Speed = formatBytes(int64(ev.SpeedBytes)) + "/s"
	}
	if ev.ETASeconds > 0 {
		p.ETA = formatETA(ev.ETASeconds)
	}
	return p
}

func formatPercent(v float64) string {
	if v < 0 {
		v = 0
	}
	if v > 100 {
		v = 100
	}
	return fmt.Sprintf("%.1f%%", v)
}

// formatBytes renders a byte count the way yt-dlp does ("1.50MiB").
func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%dB", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit && exp < 4; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f%ciB", float64(n)/float64(div), "KMGTP"[exp])
}

// formatETA renders seconds as mm:ss or hh:mm:ss.
func formatETA(sec int64) string {
	h := sec / 3600
	m := (sec % 3600) / 60
	s := sec % 60
	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
