package main

import (
	"context"
	"fmt"
	"io"

	"github.com/born-ml/digits/internal/config"
	"github.com/born-ml/digits/internal/model"
	"github.com/born-ml/digits/internal/network"
	"github.com/born-ml/digits/internal/server"
)

func runServe(ctx context.Context, args []string, _, stderr io.Writer) error {
	fs := newFlagSet("serve", stderr)
	cfgPath := fs.String("config", "", "Path to YAML config (defaults apply when empty)")
	listen := fs.String("listen", "", "Override listen address")
	modelDir := fs.String("model-dir", "", "Override model directory")
	modelID := fs.String("model", "", "Override model identifier")
	backendKind := fs.String("backend", "", "Override backend (cpu or webgpu)")
	workers := fs.Int("workers", 0, "Override worker count")
	logLevel := fs.String("log-level", "", "Override log level")
	logFormat := fs.String("log-format", "", "Override log format (json or text)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg.ApplyOverrides(config.Overrides{
		ListenAddr: *listen,
		ModelDir:   *modelDir,
		ModelID:    *modelID,
		Backend:    *backendKind,
		Workers:    *workers,
		LogLevel:   *logLevel,
		LogFormat:  *logFormat,
	})
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	level, _ := cfg.Level()
	logger := newLogger(stderr, cfg.LogFormat, level)

	mm, release, err := newBackend(cfg.Backend)
	if err != nil {
		return err
	}
	defer release()

	par := parallelConfig(cfg.Workers)
	logHost(logger, par, mm)

	store := model.NewStore(cfg.ModelDir, logger)
	if _, err := store.Load(ctx, cfg.ModelID); err != nil {
		return err
	}

	srv := server.New(store, server.Options{
		ModelID:        cfg.ModelID,
		AllowedOrigins: cfg.AllowedOrigins,
		Parallel:       par,
		Network:        []network.Option{network.WithBackend(mm)},
		Logger:         logger,
	})

	return srv.ListenAndServe(ctx, cfg.ListenAddr, server.Timeouts{
		Read:     cfg.ReadTimeout,
		Write:    cfg.WriteTimeout,
		Shutdown: cfg.ShutdownTimeout,
	})
}
