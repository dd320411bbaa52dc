// Package sweep drives a completeness run over the size by magnitude grid:
// it renders each batch, runs the detector, matches the catalog against the
// truth table and reports detection rates.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/yyyoichi/completeness/internal/catalog"
	"github.com/yyyoichi/completeness/internal/config"
	"github.com/yyyoichi/completeness/internal/field"
	"github.com/yyyoichi/completeness/internal/inject"
	"github.com/yyyoichi/completeness/internal/logging"
	"github.com/yyyoichi/completeness/internal/match"
	"github.com/yyyoichi/completeness/internal/rates"
	"github.com/yyyoichi/completeness/internal/store"
	"github.com/yyyoichi/completeness/internal/truth"
)

// Detector writes a catalog of the sources found in image.
type Detector interface {
	Detect(ctx context.Context, image, catalog, check string) error
}

type Runner struct {
	cfg      *config.Config
	base     *field.Field
	injector *inject.Injector
	detector Detector
	db       *store.DB
	logger   *slog.Logger

	recovered rates.Tally
}

// New prepares a sweep over base. It fails with inject.ErrNoFinitePixels
// when no pixel of base can host a source.
func New(cfg *config.Config, base *field.Field, detector Detector, db *store.DB, logger *slog.Logger) (*Runner, error) {
	if err := inject.CheckFinite(base); err != nil {
		return nil, fmt.Errorf("%s: %w", cfg.Image, err)
	}
	return &Runner{
		cfg:      cfg,
		base:     base,
		injector: inject.New(cfg.Calib()),
		detector: detector,
		db:       db,
		logger:   logging.Discard(logger),
	}, nil
}

// Run processes every planned batch, at most cfg.Workers at a time, and
// writes the rate report. A failed batch is logged and abandoned; its
// error is returned together with the others once the report is written.
func (r *Runner) Run(ctx context.Context) error {
	batches := Plan(r.cfg)
	r.logger.Info("starting sweep",
		"batches", len(batches),
		"sizes", len(r.cfg.Sizes()),
		"magnitudes", len(r.cfg.Magnitudes()),
		"workers", r.cfg.Workers,
	)

	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs []error
	)
	g.SetLimit(r.cfg.Workers)
	for _, b := range batches {
		g.Go(func() error {
			if err := r.runBatch(ctx, b); err != nil {
				r.logger.Error("batch abandoned", "batch", b.ID, "size", b.SizeArcsec, "mag", b.Magnitude, "error", err)
				mu.Lock()
				errs = append(errs, fmt.Errorf("batch %s: %w", b.ID, err))
				mu.Unlock()
			}
			return nil
		})
	}
	g.Wait()

	r.logger.Info("sweep finished",
		"sources", r.recovered.Count(),
		"recovered", r.recovered.Hits(),
		"rate", r.recovered.Rate(),
		"failed", len(errs),
	)
	if err := r.Report(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (r *Runner) runBatch(ctx context.Context, b Batch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	logger := r.logger.With("batch", b.ID, "size", b.SizeArcsec, "mag", b.Magnitude)
	dir := r.cfg.Path(b.Dir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	img, sources, err := r.injector.Inject(ctx, r.base, inject.Stream(*r.cfg.Seed, b.Index), b.SizeArcsec, b.Magnitude)
	if err != nil {
		return fmt.Errorf("failed to inject: %w", err)
	}
	imagePath := r.cfg.Path(b.ImagePath())
	if err := img.WriteFITS(imagePath); err != nil {
		return err
	}
	if err := truth.WriteFile(r.cfg.Path(b.TruthPath()), sources); err != nil {
		return err
	}
	logger.Debug("injected", "image", imagePath)

	catPath := r.cfg.Path(b.CatalogPath())
	if err := r.detector.Detect(ctx, imagePath, catPath, r.cfg.Path(b.CheckPath())); err != nil {
		return fmt.Errorf("failed to detect: %w", err)
	}

	sources, err = truth.ReadFile(r.cfg.Path(b.TruthPath()))
	if err != nil {
		return err
	}
	detections, err := catalog.ReadFile(catPath)
	if err != nil {
		return err
	}
	records := match.Match(sources, detections, img.MinDim())
	if err := match.WriteFiles(dir, records); err != nil {
		return err
	}

	if err := r.db.SaveBatch(ctx, store.Batch{
		ID:         b.ID,
		Index:      b.Index,
		SizeArcsec: b.SizeArcsec,
		Magnitude:  b.Magnitude,
		Repeat:     b.Repeat,
		ImagePath:  imagePath,
		ImgSize:    img.MinDim(),
	}, records); err != nil {
		return err
	}

	var recovered int
	for _, rec := range records {
		r.recovered.Add(rec.Recovered())
		recovered += rec.Matches
	}
	logger.Info("batch done", "detections", len(detections), "recovered", recovered)
	return nil
}

// Report aggregates every batch in the ledger and writes the rate CSV and
// heatmap.
func (r *Runner) Report(ctx context.Context) error {
	return WriteReport(ctx, r.cfg, r.db, r.logger)
}

// WriteReport writes the rate CSV and heatmap from the ledger alone.
func WriteReport(ctx context.Context, cfg *config.Config, db *store.DB, logger *slog.Logger) error {
	logger = logging.Discard(logger)
	outcomes, err := db.Outcomes(ctx)
	if err != nil {
		return err
	}
	cells := rates.Aggregate(outcomes)

	csvPath := cfg.Path(cfg.Report.CSV)
	if err := writeFile(csvPath, func(f *os.File) error { return rates.WriteCSV(f, cells) }); err != nil {
		return err
	}
	htmlPath := cfg.Path(cfg.Report.Heatmap)
	if err := writeFile(htmlPath, func(f *os.File) error { return rates.WriteHeatmap(f, cells) }); err != nil {
		return err
	}
	logger.Info("report written", "cells", len(cells), "csv", csvPath, "heatmap", htmlPath)
	return nil
}

func writeFile(path string, write func(*os.File) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
