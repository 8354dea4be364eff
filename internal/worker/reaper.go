package worker

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// RecordPruner drops finished records (implementation: memory.JobRepository).
type RecordPruner interface {
	DeleteFinishedBefore(cutoff time.Time) int
}

// Reaper removes downloaded files and finished records once they outlive
// their TTL. A zero TTL disables that half.
type Reaper struct {
	dir       string
	fileTTL   time.Duration
	recordTTL time.Duration
	interval  time.Duration
	records   RecordPruner
	logger    *slog.Logger
	now       func() time.Time
}

func NewReaper(dir string, fileTTL, recordTTL, interval time.Duration, records RecordPruner, logger *slog.Logger) *Reaper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reaper{
		dir:       dir,
		fileTTL:   fileTTL,
		recordTTL: recordTTL,
		interval:  interval,
		records:   records,
		logger:    logger.With("component", "reaper"),
		now:       time.Now,
	}
}

// Run sweeps every interval until ctx is done.
func (r *Reaper) Run(ctx context.Context) error {
	if r.interval <= 0 || (r.fileTTL <= 0 && r.recordTTL <= 0) {
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			files, records := r.Sweep()
			if files > 0 || records > 0 {
				r.logger.Info("reaped", "files", files, "records", records)
			}
		}
	}
}

// Sweep runs one pass and reports how many files and records it removed.
func (r *Reaper) Sweep() (files, records int) {
	now := r.now()
	if r.fileTTL > 0 {
		files = r.removeOldFiles(now.Add(-r.fileTTL))
	}
	if r.recordTTL > 0 && r.records != nil {
		records = r.records.DeleteFinishedBefore(now.Add(-r.recordTTL))
	}
	return files, records
}

func (r *Reaper) removeOldFiles(cutoff time.Time) int {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		if !os.IsNotExist(err) {
			r.logger.Warn("read download dir", "dir", r.dir, "error", err)
		}
		return 0
	}

	removed := 0
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		info, err := e.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		path := filepath.Join(r.dir, e.Name())
		if err := os.Remove(path); err != nil {
			r.logger.Warn("remove expired file", "path", path, "error", err)
			continue
		}
		removed++
	}
	return removed
}
