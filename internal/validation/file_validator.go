// Package validation checks input workbooks before the pipeline spends
// time parsing them. These are cheap filesystem-level checks; content
// checks belong to the format detector.
package validation

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	apperrors "databook/internal/errors"
)

// maxWorkbookSize caps input files at 256 MiB. GL exports beyond that
// point almost always indicate the wrong file was attached.
const maxWorkbookSize = 256 << 20

// workbookExtensions are the spreadsheet formats the reader accepts.
var workbookExtensions = map[string]bool{
	".xlsx": true,
	".xlsm": true,
}

// FileValidator runs pre-flight checks on input workbook paths.
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a file validator. A nil logger falls back to
// slog.Default().
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{logger: logger}
}

// ValidateInputFile checks that path points at a readable, plausibly
// sized spreadsheet. Failures are file-scoped coded errors so the
// pipeline attributes them without aborting the batch.
func (v *FileValidator) ValidateInputFile(path string) error {
	file := filepath.Base(path)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		v.logger.Error("Input file does not exist", slog.String("path", path))
		return apperrors.NewFileError(apperrors.CodeFileRead, file, "input file does not exist", err)
	}
	if err != nil {
		return apperrors.NewFileError(apperrors.CodeFileRead, file, "failed to stat input file", err)
	}
	if info.IsDir() {
		return apperrors.NewFileError(apperrors.CodeFileRead, file, "input path is a directory, not a workbook", nil)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if !workbookExtensions[ext] {
		return apperrors.NewFileError(apperrors.CodeFileRead, file,
			fmt.Sprintf("unsupported file type %q; expected .xlsx or .xlsm", ext), nil)
	}

	if info.Size() == 0 {
		return apperrors.NewFileError(apperrors.CodeNoData, file, "input file is empty", nil)
	}
	if info.Size() > maxWorkbookSize {
		v.logger.Error("Input file exceeds size cap",
			slog.String("path", path),
			slog.Int64("size", info.Size()))
		return apperrors.NewFileError(apperrors.CodeFileRead, file,
			fmt.Sprintf("input file is %d bytes, larger than the %d byte cap", info.Size(), int64(maxWorkbookSize)), nil)
	}
	return nil
}

// ValidateOutputDir ensures the databook destination directory exists,
// creating it when absent.
func (v *FileValidator) ValidateOutputDir(dir string) error {
	if dir == "" {
		return apperrors.New(apperrors.CodeExportFailed, "output directory not configured")
	}
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return apperrors.New(apperrors.CodeExportFailed,
				fmt.Sprintf("failed to create output directory %s: %v", dir, err))
		}
		v.logger.Info("Created output directory", slog.String("dir", dir))
		return nil
	}
	if err != nil {
		return apperrors.New(apperrors.CodeExportFailed,
			fmt.Sprintf("failed to stat output directory %s: %v", dir, err))
	}
	if !info.IsDir() {
		return apperrors.New(apperrors.CodeExportFailed,
			fmt.Sprintf("output path %s is not a directory", dir))
	}
	return nil
}
