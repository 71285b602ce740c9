package dataprocessing

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"databook/internal/config"
	apperrors "databook/internal/errors"
	"databook/internal/infrastructure"
	"databook/internal/validation"
	"databook/pkg/contracts/domain"
)

// FileInput describes one uploaded GL file within a run. The entity
// label is supplied by the caller; SourceHint breaks detection ties but
// never overrides detection.
type FileInput struct {
	Path       string
	Entity     string
	Sheet      string
	SourceHint domain.SourceSystem
}

// RunResult is the immutable outcome of one pipeline run. FileErrors
// holds file-scoped format errors; a failed file never aborts the
// batch, but its failure is attributed to it here.
type RunResult struct {
	RunID        string
	Transactions []domain.Transaction
	Reports      []domain.FileReport
	FileErrors   []error
	Validation   domain.ValidationResult
}

// Pipeline composes reading, format detection, structure parsing,
// normalization and validation over a closed batch of files. It holds
// no mutable state across runs.
type Pipeline struct {
	logger    *slog.Logger
	parsing   config.ParsingConfig
	validator *Validator
	files     *validation.FileValidator
}

// NewPipeline creates a pipeline with the given configuration. Zero
// parsing values fall back to defaults.
func NewPipeline(logger *slog.Logger, cfg config.Config) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Parsing.AccountSeparator == "" {
		cfg.Parsing.AccountSeparator = " : "
	}
	if cfg.Parsing.HeaderScanRows <= 0 {
		cfg.Parsing.HeaderScanRows = 5
	}
	if cfg.Parsing.IndentWidth <= 0 {
		cfg.Parsing.IndentWidth = 4
	}
	return &Pipeline{
		logger:    logger,
		parsing:   cfg.Parsing,
		validator: NewValidator(logger, cfg.Validation),
		files:     validation.NewFileValidator(logger),
	}
}

// Run processes a closed batch of files: each file is parsed
// independently (safe to parallelize, no shared mutation), results are
// concatenated in submission order, row IDs are assigned sequentially
// over the unified set, and the whole set is validated. Repeated runs
// on identical input produce identical results.
func (p *Pipeline) Run(ctx context.Context, inputs []FileInput) (*RunResult, error) {
	if len(inputs) == 0 {
		return nil, apperrors.New(apperrors.CodeNoData, "no input files supplied")
	}

	runID := uuid.NewString()
	ctx = infrastructure.WithRunID(ctx, runID)
	logger := p.logger.With(slog.String("run_id", runID))

	logger.InfoContext(ctx, "processing run started", slog.Int("files", len(inputs)))

	type fileResult struct {
		txns   []domain.Transaction
		report domain.FileReport
		err    error
	}
	results := make([]fileResult, len(inputs))

	g, gctx := errgroup.WithContext(ctx)
	for i, in := range inputs {
		i, in := i, in
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			txns, report, err := p.processFile(gctx, in)
			results[i] = fileResult{txns: txns, report: report, err: err}
			// file-scoped failures are recorded, not propagated: the
			// rest of the batch may still succeed
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var (
		all        []domain.Transaction
		reports    []domain.FileReport
		fileErrors []error
	)
	for _, res := range results {
		reports = append(reports, res.report)
		if res.err != nil {
			fileErrors = append(fileErrors, res.err)
			continue
		}
		all = append(all, res.txns...)
	}

	// RowIDs are assigned over the concatenated set so they are unique
	// within the run and reproducible across identical runs.
	for i := range all {
		all[i].RowID = int64(i + 1)
	}

	validation := p.validator.Validate(all, reports)

	logger.InfoContext(ctx, "processing run finished",
		slog.Int("transactions", len(all)),
		slog.Int("file_errors", len(fileErrors)),
		slog.Bool("validation_passed", validation.Passed))

	return &RunResult{
		RunID:        runID,
		Transactions: all,
		Reports:      reports,
		FileErrors:   fileErrors,
		Validation:   validation,
	}, nil
}

// processFile runs the per-file stages: read, detect, parse, normalize.
func (p *Pipeline) processFile(ctx context.Context, in FileInput) ([]domain.Transaction, domain.FileReport, error) {
	file := filepath.Base(in.Path)
	logger := p.logger.With(slog.String("file", file), slog.String("entity", in.Entity))

	report := domain.FileReport{
		File:           file,
		Entity:         in.Entity,
		HeaderRowIndex: -1,
	}

	if err := p.files.ValidateInputFile(in.Path); err != nil {
		logger.ErrorContext(ctx, "input rejected", slog.String("error", err.Error()))
		return nil, report, err
	}

	rows, err := ReadRows(in.Path, in.Sheet)
	if err != nil {
		logger.ErrorContext(ctx, "file read failed", slog.String("error", err.Error()))
		return nil, report, err
	}
	report.TotalRowsRead = len(rows)

	dialect, layout, err := DetectFormat(rows, file, in.SourceHint, p.parsing.HeaderScanRows)
	if err != nil {
		logger.ErrorContext(ctx, "format detection failed", slog.String("error", err.Error()))
		return nil, report, err
	}
	report.SourceSystem = dialect
	report.HeaderRowIndex = layout.headerRow

	prov := ParseStructure(rows, layout, dialect, p.parsing.AccountSeparator, p.parsing.IndentWidth, &report)
	txns := Normalize(prov, FileMeta{Entity: in.Entity, SourceSystem: dialect, File: file}, &report)

	logger.InfoContext(ctx, "file processed",
		slog.String("dialect", string(dialect)),
		slog.Int("rows_read", report.TotalRowsRead),
		slog.Int("transactions", report.FinalTransactionRows),
		slog.Int("invalid_dates", report.RowsInvalidDate))

	return txns, report, nil
}
