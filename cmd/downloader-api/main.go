package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"regexp"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli"

	"downloader-api/internal/config"
	"downloader-api/internal/engine"
	"downloader-api/internal/entity"
	"downloader-api/internal/service"
	"downloader-api/internal/worker"
)

//go:generate swag init --dir ../../ --generalInfo cmd/downloader-api/main.go --output ../../docs --outputTypes go

// set with -ldflags "-X main.version=..."
var version = "dev"

// @title downloader-api
// @version 1.0
// @description Asynchronous media download jobs backed by yt-dlp.
// @BasePath /
func main() {
	app := cli.NewApp()
	app.Name = "downloader-api"
	app.Usage = "Async yt-dlp download service"
	app.Version = version

	app.Commands = cli.Commands{
		cli.Command{
			Name:   "serve",
			Usage:  "Start the HTTP API and the download workers",
			Action: serveAction,
		},
		cli.Command{
			Name:      "info",
			Usage:     "Print the metadata of a URL as JSON",
			ArgsUsage: "URL",
			Action:    infoAction,
		},
		cli.Command{
			Name:   "watch",
			Usage:  "Print job events published to Redis",
			Action: watchAction,
		},
	}
	app.Action = serveAction

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func infoAction(c *cli.Context) error {
	url := c.Args().First()
	if url == "" {
		return cli.NewExitError("usage: downloader-api info URL", 2)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := config.NewLogger(cfg.Log, os.Stderr)

	ctx, stop := signalContext()
	defer stop()

	meta, err := engine.NewYTDLP(logger).Extract(ctx, url, worker.InfoConfig(engineDefaults(cfg)))
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func watchAction(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.Redis.Addr == "" {
		return cli.NewExitError("REDIS_ADDR is not set", 2)
	}

	ctx, stop := signalContext()
	defer stop()

	rdb, err := connectRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer rdb.Close()

	pub := service.NewRedisPublisher(rdb, cfg.Redis.Channel, cfg.Redis.RecentKey, cfg.Redis.RecentLimit)
	return pub.Subscribe(ctx, func(ev entity.JobEvent) {
		fmt.Printf("%s %-8s %s %s\n", ev.At.Format("15:04:05"), ev.Type, ev.JobID, ev.Status)
	})
}

func connectRedis(ctx context.Context, c config.RedisConfig) (redis.UniversalClient, error) {
	rdb := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    []string{c.Addr},
		Password: c.Password,
		DB:       c.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis: %w", err)
	}
	return rdb, nil
}

var dsnPassword = regexp.MustCompile(`://([^:/?#]+):([^@/]+)@`)

// redactDSN masks the password of a URL-style DSN: user:pass@ -> user:****@
func redactDSN(dsn string) string {
	return dsnPassword.ReplaceAllString(dsn, `://$1:****@`)
}
