// Command databook ingests QuickBooks general ledger exports and
// produces the Excel databook: cleaned GL, account mapping, validation
// verdict and a formula-driven EBITDA statement.
//
// Usage:
//
//	databook -file gl_a.xlsx,EntityA -file gl_b.xlsx,EntityB,qb_online \
//	         -mapping overrides.csv -out databook.xlsx
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"databook/internal/calculator"
	"databook/internal/config"
	"databook/internal/dataprocessing"
	"databook/internal/exporter"
	"databook/internal/infrastructure"
	"databook/internal/mapping"
	"databook/internal/validation"
	"databook/pkg/contracts"
	"databook/pkg/contracts/domain"
)

// fileInputs accumulates repeated -file flags. Each value is
// "path,entity[,hint]" where hint is qb_desktop or qb_online.
type fileInputs []dataprocessing.FileInput

func (f *fileInputs) String() string {
	parts := make([]string, len(*f))
	for i, in := range *f {
		parts[i] = in.Path
	}
	return strings.Join(parts, ";")
}

func (f *fileInputs) Set(value string) error {
	parts := strings.Split(value, ",")
	if len(parts) < 2 || strings.TrimSpace(parts[0]) == "" || strings.TrimSpace(parts[1]) == "" {
		return fmt.Errorf("want path,entity[,hint], got %q", value)
	}
	in := dataprocessing.FileInput{
		Path:   strings.TrimSpace(parts[0]),
		Entity: strings.TrimSpace(parts[1]),
	}
	if len(parts) > 2 {
		hint := domain.SourceSystem(strings.TrimSpace(parts[2]))
		if !hint.Valid() {
			return fmt.Errorf("unknown source hint %q (want %s or %s)",
				parts[2], domain.SourceQuickBooksDesktop, domain.SourceQuickBooksOnline)
		}
		in.SourceHint = hint
	}
	*f = append(*f, in)
	return nil
}

func main() {
	var files fileInputs
	flag.Var(&files, "file", "GL file as path,entity[,hint]; repeatable")
	outPath := flag.String("out", "", "output workbook path (defaults to <output dir>/databook_<timestamp>.xlsx)")
	configPath := flag.String("config", "", "optional YAML config file")
	mappingPath := flag.String("mapping", "", "optional CSV of account mapping overrides")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(contracts.GetVersionString())
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	logger := infrastructure.MustNewLogger(cfg.Logging)
	slog.SetDefault(logger)

	if len(files) == 0 {
		logger.Error("no input files; pass at least one -file path,entity")
		flag.Usage()
		os.Exit(2)
	}

	var overrides []domain.MappingEntry
	if *mappingPath != "" {
		overrides, err = loadMappingOverrides(*mappingPath)
		if err != nil {
			logger.Error("Failed to load mapping overrides", "path", *mappingPath, "error", err)
			os.Exit(1)
		}
		logger.Info("mapping overrides loaded", "path", *mappingPath, "entries", len(overrides))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pipeline := dataprocessing.NewPipeline(logger, cfg)
	result, err := pipeline.Run(ctx, files)
	if err != nil {
		logger.Error("Processing run failed", "error", err)
		os.Exit(1)
	}
	for _, ferr := range result.FileErrors {
		logger.Error("File failed", "error", ferr)
	}

	entries := mapping.Merge(mapping.Generate(result.Transactions), overrides)
	mapped := mapping.Apply(result.Transactions, entries)

	art := exporter.RunArtifact{
		RunID:        result.RunID,
		GeneratedAt:  time.Now(),
		Transactions: mapped,
		Mapping:      entries,
		Adjustments:  nil,
		Validation:   result.Validation,
		Reports:      result.Reports,
	}
	if result.Validation.Passed {
		art.Statement = calculator.BuildStatement(mapped, entries, art.Adjustments)
	}

	path := *outPath
	if path == "" {
		if err := validation.NewFileValidator(logger).ValidateOutputDir(cfg.Output.Dir); err != nil {
			logger.Error("Output directory unusable", "dir", cfg.Output.Dir, "error", err)
			os.Exit(1)
		}
		path = filepath.Join(cfg.Output.Dir,
			fmt.Sprintf("databook_%s.xlsx", time.Now().Format("20060102_150405")))
	}

	if err := exporter.NewWriter(logger).Write(path, art); err != nil {
		logger.Error("Export failed", "path", path, "error", err)
		os.Exit(1)
	}

	if !result.Validation.Passed {
		logger.Error("Validation failed; workbook carries diagnosis only",
			"path", path, "failures", len(result.Validation.Failures))
		os.Exit(1)
	}
	if len(result.FileErrors) > 0 {
		os.Exit(1)
	}
	logger.Info("databook written", "path", path, "run_id", result.RunID)
}

// loadMappingOverrides reads a CSV of mapping overrides. Columns are
// matched by header name, so partial files (just account and category)
// work; unknown headers are ignored.
func loadMappingOverrides(path string) ([]domain.MappingEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	if _, ok := col["accountnameflat"]; !ok {
		return nil, fmt.Errorf("missing required column AccountNameFlat")
	}

	field := func(record []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var entries []domain.MappingEntry
	for line := 2; ; line++ {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		e := domain.MappingEntry{
			AccountNameFlat: field(record, "accountnameflat"),
			AccountNameRaw:  field(record, "accountnameraw"),
			Sub1:            field(record, "sub1"),
			Sub2:            field(record, "sub2"),
			ClientSpecific:  field(record, "clientspecific"),
			Notes:           field(record, "notes"),
			Entity:          field(record, "entity"),
		}
		if e.AccountNameFlat == "" {
			continue
		}
		if cat := field(record, "maincategory"); cat != "" {
			c := domain.Category(cat)
			if !c.Valid() {
				return nil, fmt.Errorf("line %d: unknown category %q", line, cat)
			}
			e.MainCategory = c
		}
		entries = append(entries, e)
	}
	return entries, nil
}
