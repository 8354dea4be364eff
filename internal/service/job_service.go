package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"downloader-api/internal/engine"
	"downloader-api/internal/entity"
	"downloader-api/internal/stats"
	"downloader-api/internal/worker"
)

// JobStore is the status store port (implementation: memory.JobRepository).
type JobStore interface {
	Create(job entity.Job) error
	Get(id string) (entity.Job, error)
	Update(id string, patch entity.JobPatch) (entity.Job, error)
	List() []entity.Job
	CountActive() int
}

// Launcher starts a job in the background (implementation: worker.Pool).
type Launcher interface {
	Go(job entity.Job) error
}

// HistoryReader returns finished records that may no longer be in the store
// (implementations: postgresql.JobRepository, RedisPublisher).
type HistoryReader interface {
	Recent(ctx context.Context, limit int) ([]entity.Job, error)
}

// ArchiveLookup finds a single finished record by id
// (implementation: postgresql.JobRepository).
type ArchiveLookup interface {
	GetByID(ctx context.Context, id string) (entity.Job, error)
}

type Deps struct {
	Store     JobStore
	Runner    worker.JobRunner
	Launcher  Launcher
	Engine    engine.Engine
	Lister    engine.PlaylistLister
	Publisher worker.Publisher
	History   HistoryReader
	Archive   ArchiveLookup
	Stats     *stats.Stats
	Logger    *slog.Logger
	Defaults  worker.Defaults
}

// JobService accepts download requests and answers status queries.
type JobService struct {
	store     JobStore
	runner    worker.JobRunner
	launcher  Launcher
	engine    engine.Engine
	lister    engine.PlaylistLister
	publisher worker.Publisher
	history   HistoryReader
	archive   ArchiveLookup
	stats     *stats.Stats
	logger    *slog.Logger
	defaults  worker.Defaults

	newID func() string
	now   func() time.Time
}

func NewJobService(d Deps) *JobService {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &JobService{
		store:     d.Store,
		runner:    d.Runner,
		launcher:  d.Launcher,
		engine:    d.Engine,
		lister:    d.Lister,
		publisher: d.Publisher,
		history:   d.History,
		archive:   d.Archive,
		stats:     d.Stats,
		logger:    logger.With("component", "service"),
		defaults:  d.Defaults,
		newID:     uuid.NewString,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// SubmitDownload creates a record for a single-item request. Asynchronous
// requests return the starting record at once; synchronous ones run the job
// on the caller's goroutine and return the terminal record.
func (s *JobService) SubmitDownload(ctx context.Context, req entity.Request) (entity.Job, error) {
	if req.Kind == entity.KindPlaylist {
		return s.SubmitPlaylist(ctx, req)
	}
	return s.submit(ctx, req)
}

// SubmitPlaylist creates an always-asynchronous playlist record with
// max_items clamped to the server ceiling.
func (s *JobService) SubmitPlaylist(ctx context.Context, req entity.Request) (entity.Job, error) {
	req.Kind = entity.KindPlaylist
	if err := req.Validate(); err != nil {
		return entity.Job{}, err
	}
	req.Options.MaxItems = worker.ClampPlaylistItems(req.Options.MaxItems, s.defaults.PlaylistMaxItems)
	return s.submit(ctx, req)
}

func (s *JobService) submit(ctx context.Context, req entity.Request) (entity.Job, error) {
	if err := req.Validate(); err != nil {
		return entity.Job{}, err
	}

	job := entity.NewJob(s.newID(), req.Kind, req.SourceURL, req.Options, s.now())
	if err := s.store.Create(job); err != nil {
		return entity.Job{}, fmt.Errorf("create job: %w", err)
	}
	if s.stats != nil {
		s.stats.Add(stats.Submitted, 1)
	}
	s.logger.Info("job submitted", "job_id", job.ID, "kind", job.Kind, "sync", req.Synchronous)
	s.announce(ctx, job)

	if req.Synchronous {
		return s.runner.Run(ctx, job), nil
	}

	if err := s.launcher.Go(job); err != nil {
		rec, _ := s.store.Update(job.ID, entity.ErrorPatch(entity.ErrShuttingDown.Error()))
		if errors.Is(err, worker.ErrPoolClosed) {
			return rec, entity.ErrShuttingDown
		}
		return rec, fmt.Errorf("launch job: %w", err)
	}
	return job, nil
}

func (s *JobService) announce(ctx context.Context, job entity.Job) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, entity.NewJobEvent(entity.EventCreated, job, job.CreatedAt)); err != nil {
		s.logger.Warn("publish failed", "job_id", job.ID, "error", err)
	}
}

// GetStatus returns the live record, falling back to the archive once the
// record has been pruned from memory.
func (s *JobService) GetStatus(ctx context.Context, id string) (entity.Job, error) {
	job, err := s.store.Get(id)
	if !errors.Is(err, entity.ErrNotFound) || s.archive == nil {
		return job, err
	}

	archived, aErr := s.archive.GetByID(ctx, id)
	if aErr != nil {
		if !errors.Is(aErr, entity.ErrNotFound) {
			s.logger.Warn("archive lookup failed", "job_id", id, "error", aErr)
		}
		return entity.Job{}, err
	}
	return archived, nil
}

func (s *JobService) ListJobs() []entity.Job {
	return s.store.List()
}

func (s *JobService) ActiveCount() int {
	return s.store.CountActive()
}

func (s *JobService) DownloadDir() string {
	return s.defaults.DownloadDir
}

// GetInfo extracts metadata without creating a job.
func (s *JobService) GetInfo(ctx context.Context, rawURL string) (*engine.Metadata, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, entity.Invalid("url", "URL is required")
	}
	return s.engine.Extract(ctx, rawURL, worker.InfoConfig(s.defaults))
}

// GetFormats lists the formats the source offers.
func (s *JobService) GetFormats(ctx context.Context, rawURL string) (string, []engine.Format, error) {
	meta, err := s.GetInfo(ctx, rawURL)
	if err != nil {
		return "", nil, err
	}
	return meta.Title, meta.Formats, nil
}

// PreviewPlaylist lists playlist entries without downloading them.
func (s *JobService) PreviewPlaylist(ctx context.Context, rawURL string) (*engine.PlaylistPreview, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, entity.Invalid("url", "URL is required")
	}
	if s.lister == nil {
		return nil, errors.New("playlist preview is not available")
	}
	return s.lister.ListPlaylist(ctx, rawURL)
}

// FilePath resolves the downloaded file of a completed job. Paths outside
// the download directory are treated as missing.
func (s *JobService) FilePath(id string) (string, error) {
	job, err := s.store.Get(id)
	if err != nil {
		return "", err
	}
	if job.Status != entity.StatusCompleted {
		return "", entity.ErrNotReady
	}
	if job.Result == nil || job.Result.Filename == "" {
		return "", entity.ErrFileMissing
	}

	path := filepath.Clean(job.Result.Filename)
	if dir := s.defaults.DownloadDir; dir != "" {
		rel, err := filepath.Rel(filepath.Clean(dir), path)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return "", entity.ErrFileMissing
		}
	}

	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return "", entity.ErrFileMissing
	}
	return path, nil
}

// History returns recently finished records from the configured backend.
func (s *JobService) History(ctx context.Context, limit int) ([]entity.Job, error) {
	if s.history == nil {
		return nil, entity.ErrHistoryDisabled
	}
	if limit <= 0 {
		limit = 50
	}
	return s.history.Recent(ctx, limit)
}
