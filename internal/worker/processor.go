package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"downloader-api/internal/engine"
	"downloader-api/internal/entity"
	"downloader-api/internal/stats"
)

const sideEffectTimeout = 5 * time.Second

// JobRepo is the slice of the job store the runner writes through
// (implementation: memory.JobRepository).
type JobRepo interface {
	Update(id string, patch entity.JobPatch) (entity.Job, error)
}

// Publisher announces job events (implementation: service.RedisPublisher).
type Publisher interface {
	Publish(ctx context.Context, ev entity.JobEvent) error
}

// Archive keeps finished records beyond the process lifetime
// (implementation: postgresql.JobRepository).
type Archive interface {
	Save(ctx context.Context, job entity.Job) error
}

type RunnerDeps struct {
	Engine     engine.Engine
	Repo       JobRepo
	Publisher  Publisher
	Archive    Archive
	Stats      *stats.Stats
	Logger     *slog.Logger
	Defaults   Defaults
	JobTimeout time.Duration
}

// Runner executes one job to a terminal state.
type Runner struct {
	engine    engine.Engine
	repo      JobRepo
	publisher Publisher
	archive   Archive
	stats     *stats.Stats
	logger    *slog.Logger
	defaults  Defaults
	timeout   time.Duration
}

func NewRunner(d RunnerDeps) *Runner {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		engine:    d.Engine,
		repo:      d.Repo,
		publisher: d.Publisher,
		archive:   d.Archive,
		stats:     d.Stats,
		logger:    logger.With("component", "worker"),
		defaults:  d.Defaults,
		timeout:   d.JobTimeout,
	}
}

// Run drives the engine for job and writes exactly one terminal state. It
// never panics and never returns an error: every failure ends up in the
// record's error_detail. The returned copy is the record as stored.
func (r *Runner) Run(ctx context.Context, job entity.Job) entity.Job {
	start := time.Now()
	r.count(stats.Active, 1)
	defer r.count(stats.Active, -1)

	r.logger.Info("job started", "job_id", job.ID, "kind", job.Kind, "url", job.SourceURL)

	sink := NewProgressSink(job.ID, r.repo, r.logger)
	res, err := r.download(ctx, job, sink)
	sink.Close()

	var patch entity.JobPatch
	if err != nil {
		patch = entity.ErrorPatch(err.Error())
	} else {
		final := sink.Last()
		final.Phase = "finished"
		final.Percent = "100%"
		final.ETA = notAvailable
		patch = entity.CompletedPatch(res, final)
	}

	rec, uErr := r.repo.Update(job.ID, patch)
	switch {
	case errors.Is(uErr, entity.ErrTerminal):
		r.logger.Warn("terminal write rejected", "job_id", job.ID, "status", rec.Status)
	case errors.Is(uErr, entity.ErrNotFound):
		r.logger.Warn("job vanished before terminal write", "job_id", job.ID)
	case uErr != nil:
		r.logger.Error("terminal write failed", "job_id", job.ID, "error", uErr)
	}

	if rec.Status == entity.StatusCompleted {
		r.count(stats.Completed, 1)
		r.logger.Info("job finished", "job_id", job.ID, "kind", job.Kind, "status", rec.Status,
			"duration_ms", time.Since(start).Milliseconds())
	} else {
		r.count(stats.Failed, 1)
		r.logger.Info("job finished", "job_id", job.ID, "kind", job.Kind, "status", rec.Status,
			"duration_ms", time.Since(start).Milliseconds(), "error", rec.ErrorDetail)
	}

	r.afterFinish(ctx, rec)
	return rec
}

// download is the panic boundary of a job. A panic anywhere below becomes
// an ordinary error.
func (r *Runner) download(ctx context.Context, job entity.Job, sink *ProgressSink) (res entity.Result, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			r.count(stats.Panics, 1)
			r.logger.Error("job panicked", "job_id", job.ID, "panic", rec)
			err = fmt.Errorf("internal error: %v", rec)
		}
	}()

	if cErr := ctx.Err(); cErr != nil {
		return res, fmt.Errorf("cancelled before start: %w", cErr)
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	cfg := BuildEngineConfig(job, r.defaults)
	meta, err := r.engine.Download(ctx, job.SourceURL, cfg, sink.Update)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) && r.timeout > 0 {
			return res, fmt.Errorf("download exceeded job timeout of %s: %w", r.timeout, err)
		}
		return res, err
	}
	if meta == nil {
		return res, errors.New("engine returned no metadata")
	}
	return resultFrom(job.Kind, meta), nil
}

func resultFrom(kind entity.JobKind, m *engine.Metadata) entity.Result {
	if kind == entity.KindPlaylist {
		return entity.Result{
			PlaylistTitle: m.PlaylistTitle,
			PlaylistCount: len(m.Entries),
		}
	}
	return entity.Result{
		Filename:  m.Filename,
		Title:     m.Title,
		Duration:  m.Duration,
		ViewCount: m.ViewCount,
	}
}

// afterFinish publishes and archives a terminal record. Failures are only
// logged; the record is already final.
func (r *Runner) afterFinish(ctx context.Context, rec entity.Job) {
	if r.publisher == nil && r.archive == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectTimeout)
	defer cancel()

	if r.publisher != nil {
		ev := entity.NewJobEvent(entity.EventFinished, rec, time.Now().UTC())
		if err := r.publisher.Publish(ctx, ev); err != nil {
			r.logger.Warn("publish failed", "job_id", rec.ID, "error", err)
		}
	}
	if r.archive != nil {
		if err := r.archive.Save(ctx, rec); err != nil {
			r.logger.Warn("archive failed", "job_id", rec.ID, "error", err)
		}
	}
}

func (r *Runner) count(key string, delta int64) {
	if r.stats != nil {
		r.stats.Add(key, delta)
	}
}
