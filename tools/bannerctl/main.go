// Command bannerctl validates saved project files and packages them into an
// archive on disk without running the server.
//
//	bannerctl -out dist summer.json winter.json
//	bannerctl -validate summer.json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/patrickwarner/bannerforge/internal/config"
	"github.com/patrickwarner/bannerforge/internal/export"
	"github.com/patrickwarner/bannerforge/internal/logic/validation"
	"github.com/patrickwarner/bannerforge/internal/models"
	"github.com/patrickwarner/bannerforge/internal/observability"
)

func main() {
	logger, err := observability.InitLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(context.Background(), logger, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "bannerctl: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *zap.Logger, args []string, stdout io.Writer) error {
	cfg := config.Load()
	fs := flag.NewFlagSet("bannerctl", flag.ContinueOnError)
	out := fs.String("out", ".", "directory the archive is written to")
	active := fs.String("active", "", "variation id whose campaign names a bundle")
	validateOnly := fs.Bool("validate", false, "only validate, do not export")
	timeout := fs.Duration("timeout", cfg.ExportTimeout, "export timeout")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("at least one project file is required")
	}

	variations := make([]models.AdState, 0, fs.NArg())
	for _, path := range fs.Args() {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		state, err := models.DecodeProject(data)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		variations = append(variations, state)
	}

	metrics := observability.NewNoOpRegistry()
	validator := validation.NewValidator(cfg.MaxBannerBytes(), logger, metrics)
	report := make(map[string]validation.Result, len(variations))
	valid := true
	for i, v := range variations {
		res := validator.Validate(v)
		report[fs.Arg(i)] = res
		valid = valid && res.IsValid
	}
	if *validateOnly || !valid {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return fmt.Errorf("encode report: %w", err)
		}
		if !valid {
			return fmt.Errorf("validation failed")
		}
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()
	packager := export.NewPackager(logger, metrics)
	packager.Concurrency = cfg.ExportConcurrency
	start := time.Now()
	archive, err := packager.Export(ctx, export.Request{Variations: variations, ActiveVariationID: *active})
	if err != nil {
		return err
	}
	if err := os.MkdirAll(*out, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	dest := filepath.Join(*out, archive.Name)
	if err := os.WriteFile(dest, archive.Data, 0o644); err != nil {
		return fmt.Errorf("write archive: %w", err)
	}
	logger.Info("archive written",
		zap.String("path", dest),
		zap.Int("units", archive.Units),
		zap.Duration("took", time.Since(start)),
	)
	_, err = fmt.Fprintln(stdout, dest)
	return err
}
