package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/born-ml/digits/internal/backend"
	"github.com/born-ml/digits/internal/backend/cpu"
	"github.com/born-ml/digits/internal/backend/webgpu"
	"github.com/born-ml/digits/internal/parallel"
)

// newLogger builds the process logger. format is "json" or "text".
func newLogger(w io.Writer, format string, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// newBackend creates the matrix multiply backend named kind. The returned
// release func must be called once the backend is no longer used.
func newBackend(kind backend.Kind) (backend.MatMuler, func(), error) {
	switch kind {
	case backend.KindCPU, "":
		return cpu.New(), func() {}, nil
	case backend.KindWebGPU:
		b, err := webgpu.New()
		if err != nil {
			return nil, nil, err
		}
		return b, b.Release, nil
	default:
		return nil, nil, fmt.Errorf("unknown backend %q", kind)
	}
}

func parallelConfig(workers int) parallel.Config {
	return parallel.DefaultConfig().WithWorkers(workers)
}

func logHost(logger *slog.Logger, cfg parallel.Config, b backend.MatMuler) {
	brand, physical, logical := parallel.CPUDescription()
	logger.Info("host",
		"cpu", brand,
		"physical_cores", physical,
		"logical_cores", logical,
		"workers", cfg.NumWorkers,
		"parallel", cfg.Enabled,
		"backend", b.Name(),
	)
}
