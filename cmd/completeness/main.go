package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/yyyoichi/completeness/internal/config"
	"github.com/yyyoichi/completeness/internal/field"
	"github.com/yyyoichi/completeness/internal/logging"
	"github.com/yyyoichi/completeness/internal/sextractor"
	"github.com/yyyoichi/completeness/internal/store"
	"github.com/yyyoichi/completeness/internal/sweep"
)

func main() {
	var (
		configPath = flag.String("config", "", "YAML sweep configuration")
		paramPath  = flag.String("params", "", "legacy parameter file, used when -config is empty")
		workers    = flag.Int("workers", 0, "concurrent batches, overrides the configuration")
		reportOnly = flag.Bool("report-only", false, "only rewrite the rate report from the ledger")
		logLevel   = flag.String("log-level", "info", "debug, info, warn or error")
		logFormat  = flag.String("log-format", "text", "text or json")
	)
	flag.Parse()

	logger, err := logging.New(os.Stderr, *logLevel, *logFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, *configPath, *paramPath, *workers, *reportOnly); err != nil {
		logger.Error("sweep failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, configPath, paramPath string, workers int, reportOnly bool) error {
	cfg, err := loadConfig(configPath, paramPath)
	if err != nil {
		return err
	}
	if workers > 0 {
		cfg.Workers = workers
	}
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return err
	}

	db, err := store.Open(cfg.Path(cfg.Ledger))
	if err != nil {
		return err
	}
	defer db.Close()

	if reportOnly {
		return sweep.WriteReport(ctx, cfg, db, logger)
	}

	base, err := field.Load(cfg.Image)
	if err != nil {
		return err
	}
	logger.Info("base image loaded", "image", cfg.Image, "width", base.Width(), "height", base.Height())

	detector := &sextractor.Runner{
		Binary: cfg.Detector.Binary,
		Config: cfg.Detector.Config,
		Logger: logger,
	}
	r, err := sweep.New(cfg, base, detector, db, logger)
	if err != nil {
		return err
	}
	return r.Run(ctx)
}

func loadConfig(configPath, paramPath string) (*config.Config, error) {
	switch {
	case configPath != "":
		return config.Load(configPath)
	case paramPath != "":
		return config.LoadParamFile(paramPath)
	default:
		return nil, errors.New("either -config or -params is required")
	}
}
