// Package pipeline defines the three-stage shape shared by batch ingestion jobs.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/akolanti/RegGuru/internal/metrics"
	"github.com/akolanti/RegGuru/pkg/logger_i"
)

var logger = logger_i.NewLogger("pipeline")

// Pipeline reads raw input R, turns it into documents D and indexes them.
type Pipeline[R, D any] interface {
	Ingest(ctx context.Context) (R, error)
	Process(ctx context.Context, raw R) (D, error)
	Embed(ctx context.Context, docs D) error
}

// Run executes Ingest, Process and Embed in that order, stopping at the first error.
func Run[R, D any](ctx context.Context, name string, p Pipeline[R, D]) error {
	log := logger.WithTrace(ctx).With("pipeline", name)

	start := time.Now()
	raw, err := p.Ingest(ctx)
	metrics.CaptureExecutionMetrics(name+"_ingest", time.Since(start))
	if err != nil {
		return fmt.Errorf("%s ingest: %w", name, err)
	}
	log.Info("Ingest done", "duration", time.Since(start))

	start = time.Now()
	docs, err := p.Process(ctx, raw)
	metrics.CaptureExecutionMetrics(name+"_process", time.Since(start))
	if err != nil {
		return fmt.Errorf("%s process: %w", name, err)
	}
	log.Info("Process done", "duration", time.Since(start))

	start = time.Now()
	err = p.Embed(ctx, docs)
	metrics.CaptureExecutionMetrics(name+"_embed", time.Since(start))
	if err != nil {
		return fmt.Errorf("%s embed: %w", name, err)
	}
	log.Info("Embed done", "duration", time.Since(start))
	return nil
}
