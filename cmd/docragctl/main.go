package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/kailas-cloud/docrag/internal/app"
	"github.com/kailas-cloud/docrag/internal/config"
	logpkg "github.com/kailas-cloud/docrag/internal/logger"
	"github.com/kailas-cloud/docrag/internal/transport/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := cli.NewRootCmd(build, config.GetEnv())
	root.SetOut(os.Stdout)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

// build loads configuration for env and wires the services.
func build(ctx context.Context, env string) (*cli.Services, func(), error) {
	cfg, err := config.Load(env)
	if err != nil {
		return nil, nil, err
	}

	// The CLI logs warnings only unless a level is configured.
	level := cfg.Logging.Level
	if level == "" {
		level = "warn"
	}
	logger, err := logpkg.NewLogger(env, level)
	if err != nil {
		return nil, nil, err
	}

	a, err := app.New(ctx, &cfg, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, nil, err
	}

	svc := &cli.Services{
		Ingest:    a.Ingest,
		Retrieval: a.Retrieval,
		Rewrite:   a.Rewrite,
		Index:     a.Index,
		Workers:   cfg.Ingest.Workers,
	}
	closeFn := func() {
		a.Close()
		_ = logger.Sync()
	}
	return svc, closeFn, nil
}
