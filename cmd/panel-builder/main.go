// Command panel-builder runs the full panel pipeline: it pulls the raw
// indicator series from CEPALSTAT, the World Bank and FAOSTAT, assembles
// and prunes the country-year level panel, derives the decadal delta
// panel, and writes the CSVs, the codebook, the run report and the Excel
// workbook.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"forestpanel/internal/config"
	"forestpanel/internal/country"
	"forestpanel/internal/exporter"
	"forestpanel/internal/infrastructure"
	"forestpanel/internal/panel"
	"forestpanel/internal/pipeline"
	"forestpanel/internal/providers/cepalstat"
	"forestpanel/internal/providers/faostat"
	"forestpanel/internal/providers/worldbank"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "panel-builder: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "optional YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	logger := infrastructure.MustInitializeLogger(cfg.Logging)
	defer infrastructure.CloseLogFile()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	resolver := country.NewResolver()

	cepal := cepalstat.NewClient(logger,
		cepalstat.WithBaseURL(cfg.Providers.Cepalstat.BaseURL),
		cepalstat.WithHTTPClient(&http.Client{Timeout: cfg.Providers.Cepalstat.Timeout}),
		cepalstat.WithRetries(cfg.Providers.Cepalstat.Retries),
	)
	wb := worldbank.NewClient(logger,
		worldbank.WithBaseURL(cfg.Providers.WorldBank.BaseURL),
		worldbank.WithHTTPClient(&http.Client{Timeout: cfg.Providers.WorldBank.Timeout}),
		worldbank.WithRequestsPerSecond(cfg.Providers.WorldBank.RequestsPerSecond),
	)
	faoOpts := []faostat.Option{
		faostat.WithBaseURL(cfg.Providers.Faostat.BaseURL),
		faostat.WithHTTPClient(&http.Client{Timeout: cfg.Providers.Faostat.Timeout}),
	}
	for domain, official := range faostat.DefaultArchiveNames {
		// Prefer the bulk file under its published name; a zip named after
		// the domain also works.
		for _, name := range []string{official, domain + ".zip"} {
			archive := filepath.Join(cfg.Providers.Faostat.ArchiveDir, name)
			if _, err := os.Stat(archive); err == nil {
				faoOpts = append(faoOpts, faostat.WithArchive(domain, archive))
				break
			}
		}
	}
	fao := faostat.NewClient(resolver, logger, faoOpts...)

	runner := pipeline.NewRunner(resolver, map[string]pipeline.Source{
		pipeline.SourceCepalstat: cepal,
		pipeline.SourceWorldBank: wb,
		pipeline.SourceFaostat:   fao,
	}, logger, pipeline.WithConcurrency(cfg.Pipeline.Concurrency))

	outcome, err := runner.Run(ctx)
	if err != nil {
		return err
	}
	ctx = infrastructure.WithRunID(ctx, outcome.Report.RunID)

	out := cfg.Paths.OutputDir
	if err := exporter.SavePanelCSV(outcome.Level, filepath.Join(out, cfg.Paths.LevelCSV)); err != nil {
		return err
	}
	if err := exporter.SavePanelCSV(outcome.Delta, filepath.Join(out, cfg.Paths.DeltaCSV)); err != nil {
		return err
	}
	if err := exporter.SaveCodebookCSV(panel.Codebook(), filepath.Join(out, cfg.Paths.CodebookCSV)); err != nil {
		return err
	}
	if err := exporter.SaveReportJSON(outcome.Report, filepath.Join(out, cfg.Paths.ReportJSON)); err != nil {
		return err
	}
	if err := exporter.SaveWorkbook(outcome.Level, outcome.Delta, panel.Codebook(), filepath.Join(out, cfg.Paths.Workbook)); err != nil {
		return err
	}

	logger.InfoContext(ctx, "outputs written",
		"output_dir", out,
		"level_rows", outcome.Report.LevelRows,
		"delta_rows", outcome.Report.DeltaRows,
		"failed_indicators", len(outcome.Report.Failed()),
	)
	for _, s := range outcome.Report.Failed() {
		fmt.Fprintf(os.Stderr, "indicator %s (%s) failed: %s\n", s.IndicatorID, s.Column, s.Error)
	}
	return nil
}
