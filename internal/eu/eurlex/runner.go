// Package eurlex extracts work metadata from the EUR-Lex RDF dumps into
// batched JSON files.
package eurlex

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/akolanti/RegGuru/internal/config"
	"github.com/akolanti/RegGuru/internal/domain/ragErrors"
	"github.com/akolanti/RegGuru/internal/metrics"
	"github.com/akolanti/RegGuru/pkg/logger_i"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

var logger = logger_i.NewLogger("eurlex")

type Options struct {
	OutDir        string
	Workers       int
	PartitionSize int
	FlushEvery    int
}

// RunSummary counts rows by outcome. Skipped covers missing RDF files and
// works the variant refuses.
type RunSummary struct {
	Rows          int64
	Extracted     int64
	Skipped       int64
	ParseFailures int64
	Records       int64
	Files         int64
}

type Runner struct {
	source    Source
	extractor Extractor
	opts      Options
	runPrefix string
}

func NewRunner(source Source, extractor Extractor, opts Options) *Runner {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.PartitionSize <= 0 {
		opts.PartitionSize = config.MetadataPartitionLen
	}
	if opts.FlushEvery <= 0 {
		opts.FlushEvery = config.MetadataFlushEvery
	}
	return &Runner{
		source:    source,
		extractor: extractor,
		opts:      opts,
		runPrefix: uuid.NewString()[:8],
	}
}

type counters struct {
	rows, extracted, skipped, parseFailures, records, files atomic.Int64
}

func (c *counters) summary() RunSummary {
	return RunSummary{
		Rows:          c.rows.Load(),
		Extracted:     c.extracted.Load(),
		Skipped:       c.skipped.Load(),
		ParseFailures: c.parseFailures.Load(),
		Records:       c.records.Load(),
		Files:         c.files.Load(),
	}
}

// Run splits rows into fixed partitions and hands each partition to one worker.
// Every partition writes its own <worker id>_<batch>.json files, so workers never
// share an output name.
func (r *Runner) Run(ctx context.Context, rows []Row) (RunSummary, error) {
	var c counters
	if err := os.MkdirAll(r.opts.OutDir, 0o755); err != nil {
		return c.summary(), fmt.Errorf("failed to create output dir: %w", err)
	}
	log := logger.WithTrace(ctx).With("variant", r.extractor.Variant(), "run", r.runPrefix)
	log.Info("Starting metadata extraction", "rows", len(rows), "workers", r.opts.Workers,
		"partition size", r.opts.PartitionSize)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Workers)
	for part, start := 0, 0; start < len(rows); part, start = part+1, start+r.opts.PartitionSize {
		if gctx.Err() != nil {
			break
		}
		end := min(start+r.opts.PartitionSize, len(rows))
		p := partition{
			workerID: fmt.Sprintf("%s-p%d", r.runPrefix, part),
			rows:     rows[start:end],
		}
		g.Go(func() error {
			return r.runPartition(gctx, p, &c)
		})
	}
	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}

	s := c.summary()
	log.Info("Metadata extraction finished", "rows", s.Rows, "extracted", s.Extracted,
		"skipped", s.Skipped, "parse failures", s.ParseFailures, "files", s.Files)
	return s, err
}

type partition struct {
	workerID string
	rows     []Row
}

func (r *Runner) runPartition(ctx context.Context, p partition, c *counters) error {
	log := logger.With("worker", p.workerID, "variant", r.extractor.Variant())
	variant := string(r.extractor.Variant())
	var acc []any
	batch := 0

	flush := func() error {
		if len(acc) == 0 {
			return nil
		}
		name := filepath.Join(r.opts.OutDir, fmt.Sprintf("%s_%d.json", p.workerID, batch))
		if err := writeBatch(name, acc); err != nil {
			return err
		}
		log.Info("Saved batch", "batch", batch, "records", len(acc))
		c.records.Add(int64(len(acc)))
		c.files.Add(1)
		acc = nil
		batch++
		return nil
	}

	for processed, row := range p.rows {
		if ctx.Err() != nil {
			break
		}
		acc = append(acc, r.processRow(ctx, log, row, variant, c)...)
		if (processed+1)%r.opts.FlushEvery == 0 {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	return flush()
}

func (r *Runner) processRow(ctx context.Context, log *logger_i.Logger, row Row, variant string, c *counters) []any {
	c.rows.Add(1)
	g, err := r.source.Graph(ctx, row.WorkID())
	switch {
	case errors.Is(err, ragErrors.ErrMissingResource):
		c.skipped.Add(1)
		metrics.CaptureMetadataRow(variant, "missing")
		return nil
	case err != nil:
		log.Warn("Failed to parse work", "row", row.Index, "work-id", row.WorkID(), "error", err)
		c.parseFailures.Add(1)
		metrics.CaptureMetadataRow(variant, "parse_failure")
		return nil
	}

	records, ok := r.extractor.Extract(row, g)
	if !ok {
		log.Debug("Work skipped", "row", row.Index, "work-id", row.WorkID())
		c.skipped.Add(1)
		metrics.CaptureMetadataRow(variant, "skipped")
		return nil
	}
	c.extracted.Add(1)
	metrics.CaptureMetadataRow(variant, "extracted")
	return records
}

func writeBatch(name string, records []any) error {
	data, err := json.MarshalIndent(records, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", name, err)
	}
	tmp := name + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, name); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to publish %s: %w", name, err)
	}
	return nil
}
