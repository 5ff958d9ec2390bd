// Command tally counts, groups and sums `key value` records read from stdin, a
// file or a URL, optionally publishing each result to Redis.
//
// Configuration is read from TALLY_* environment variables; see
// internal/config.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gabapcia/tally/internal/config"
	"github.com/gabapcia/tally/internal/handlers/cli"
	"github.com/gabapcia/tally/internal/infra/source"
	"github.com/gabapcia/tally/internal/infra/storage/redis"
	"github.com/gabapcia/tally/internal/pkg/logger"
	"github.com/gabapcia/tally/internal/pkg/resilience/retry"
	"github.com/gabapcia/tally/internal/pkg/telemetry"
	transporthttp "github.com/gabapcia/tally/internal/pkg/transport/http"
	"github.com/gabapcia/tally/internal/tally"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "tally:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	shutdown, err := telemetry.Init(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.Enabled)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := shutdown(shutdownCtx); err != nil {
			fmt.Fprintln(os.Stderr, "tally: telemetry shutdown:", err)
		}
	}()

	if err := logger.Init(logger.WithLevel(cfg.LogLevel)); err != nil {
		return err
	}
	defer logger.Sync()

	var storage tally.SnapshotStorage
	if cfg.Redis.Addr != "" {
		client, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Username, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		defer client.Close()

		storage = client
	}

	svc, err := tally.New(storage, retry.New(
		retry.WithAttempts(cfg.Publish.Attempts),
		retry.WithDelay(cfg.Publish.Delay),
	))
	if err != nil {
		return err
	}

	opener := source.New(transporthttp.NewClient(
		transporthttp.WithTimeout(cfg.Source.Timeout),
		transporthttp.WithRetryMax(cfg.Source.RetryMax),
		transporthttp.WithVerbose(cfg.LogLevel == "debug"),
	))

	return cli.Run(ctx, svc, opener)
}
