package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/urfave/cli"
	"golang.org/x/sync/errgroup"

	"downloader-api/internal/config"
	"downloader-api/internal/engine"
	"downloader-api/internal/repository/memory"
	"downloader-api/internal/repository/postgresql"
	"downloader-api/internal/service"
	"downloader-api/internal/stats"
	httptransport "downloader-api/internal/transport/http"
	"downloader-api/internal/worker"
)

func serveAction(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := config.NewLogger(cfg.Log, os.Stderr)

	ctx, stop := signalContext()
	defer stop()

	if err := os.MkdirAll(cfg.Download.Dir, 0o755); err != nil {
		return fmt.Errorf("download dir: %w", err)
	}
	if f := cfg.YTDLP.CookiesFile; f != "" {
		if _, err := os.Stat(f); err != nil {
			logger.Warn("cookies file not found, continuing without it", "path", f)
			cfg.YTDLP.CookiesFile = ""
		}
	}

	var (
		publisher worker.Publisher
		archive   worker.Archive
		history   service.HistoryReader
		lookup    service.ArchiveLookup
	)

	if cfg.Redis.Addr != "" {
		rdb, err := connectRedis(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer rdb.Close()
		pub := service.NewRedisPublisher(rdb, cfg.Redis.Channel, cfg.Redis.RecentKey, cfg.Redis.RecentLimit)
		publisher, history = pub, pub
		logger.Info("redis events enabled", "addr", cfg.Redis.Addr, "channel", cfg.Redis.Channel)
	}

	if cfg.Postgres.DSN != "" {
		pool, err := postgresql.NewPool(ctx, cfg.Postgres.DSN)
		if err != nil {
			return fmt.Errorf("pg: %w", err)
		}
		defer pool.Close()
		repo := postgresql.NewJobRepository(pool)
		if err := repo.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("pg schema: %w", err)
		}
		archive, history, lookup = repo, repo, repo
		logger.Info("postgres archive enabled", "dsn", redactDSN(cfg.Postgres.DSN))
	}

	defaults := engineDefaults(cfg)
	st := stats.New("downloads", cfg.Retention.StatsInterval, logger)
	store := memory.NewJobRepository()
	eng := engine.NewYTDLP(logger)

	runner := worker.NewRunner(worker.RunnerDeps{
		Engine:     eng,
		Repo:       store,
		Publisher:  publisher,
		Archive:    archive,
		Stats:      st,
		Logger:     logger,
		Defaults:   defaults,
		JobTimeout: cfg.Download.JobTimeout,
	})
	jobs := worker.NewPool(runner, cfg.Download.MaxConcurrentJobs, logger)

	svc := service.NewJobService(service.Deps{
		Store:     store,
		Runner:    runner,
		Launcher:  jobs,
		Engine:    eng,
		Lister:    engine.NewPlaylistPreviewer(cfg.Download.PlaylistMaxItems),
		Publisher: publisher,
		History:   history,
		Archive:   lookup,
		Stats:     st,
		Logger:    logger,
		Defaults:  defaults,
	})

	srv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      httptransport.Routes(httptransport.NewHandler(svc, logger, version), logger),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}
	reaper := worker.NewReaper(cfg.Download.Dir, cfg.Retention.FileTTL, cfg.Retention.RecordTTL, cfg.Retention.Interval, store, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http server started",
			"addr", cfg.HTTP.Addr,
			"download_dir", cfg.Download.Dir,
			"max_concurrent_jobs", jobs.Limit(),
			"version", version,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error { return reaper.Run(gctx) })
	g.Go(func() error { return st.Run(gctx) })
	g.Go(func() error {
		<-gctx.Done()
		return shutdown(srv, jobs, cfg.HTTP.ShutdownTimeout, logger)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("bye")
	return nil
}

func shutdown(srv *http.Server, jobs *worker.Pool, timeout time.Duration, logger *slog.Logger) error {
	logger.Info("shutting down gracefully")
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("http shutdown", "error", err)
	}
	jobs.Shutdown()
	if err := jobs.Wait(ctx); err != nil {
		return fmt.Errorf("waiting for jobs: %w", err)
	}
	return nil
}
