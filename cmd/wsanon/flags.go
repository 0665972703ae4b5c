package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jamesainslie/wsanon/pkg/wsanon/config"
	"github.com/jamesainslie/wsanon/pkg/wsanon/engine"
	"github.com/jamesainslie/wsanon/pkg/wsanon/output"
)

// buildOptions maps the resolved configuration onto engine options.
func buildOptions(source string, cfg *config.Config) engine.Options {
	return engine.Options{
		Source:            source,
		Output:            cfg.Output,
		Container:         cfg.Container,
		PreserveStructure: cfg.PreserveStructure,
		BuildTool:         cfg.EffectiveBuildTool(),
		ManifestFile:      cfg.Manifest.File,
		MarkerFile:        cfg.Manifest.Marker,
		Exclude:           cfg.Exclude,
		IgnoreMarkers:     cfg.IgnoreMarkers,
		LegacyRunDepend:   cfg.Manifest.LegacyRunDepend,
		Workers:           cfg.Workers,
	}
}

// wantReport reports whether a run report was asked for. The report maps
// opaque names back to real ones, so it is never written by default.
func wantReport(formatFlag bool, cfg *config.Config) bool {
	return formatFlag || cfg.ReportFile != ""
}

// writeReport renders the run report to the report file or stdout.
func writeReport(result *engine.Result, cfg *config.Config) error {
	format := cfg.Format
	if format == "" {
		format = config.DefaultFormat
	}

	data, err := output.Render(format, result.Report())
	if err != nil {
		return err
	}

	if cfg.ReportFile == "" {
		_, err := os.Stdout.Write(data)
		return err
	}

	path, err := config.ExpandPath(cfg.ReportFile)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating report directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing report %s: %w", path, err)
	}
	printVerbose("Report written to %s", path)
	return nil
}
