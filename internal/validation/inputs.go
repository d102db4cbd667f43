package validation

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"faftonnage/internal/config"
)

var (
	ErrMissingInput   = errors.New("input file missing")
	ErrWrongExtension = errors.New("unexpected file extension")
)

// shapefileParts are the sidecar files a shapefile cannot be read without
var shapefileParts = []string{".shx", ".dbf"}

// InputValidator checks that run inputs exist before any output is written
type InputValidator struct {
	logger *slog.Logger
}

// NewInputValidator creates a new input validator
func NewInputValidator(logger *slog.Logger) *InputValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &InputValidator{logger: logger}
}

// ValidateFile checks that path is an existing, readable regular file.
func (v *InputValidator) ValidateFile(path string) error {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		v.logger.Error("Input file does not exist", slog.String("file", path))
		return fmt.Errorf("%w: %s", ErrMissingInput, path)
	}
	if err != nil {
		return fmt.Errorf("failed to stat file %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory, not a file", path)
	}

	f, err := os.Open(path)
	if err != nil {
		v.logger.Error("Input file is not readable",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return fmt.Errorf("file %s is not readable: %w", path, err)
	}
	f.Close()

	v.logger.Debug("Input file validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ValidateWorkbook checks an Excel workbook input.
func (v *InputValidator) ValidateWorkbook(path string) error {
	if err := v.checkExtension(path, ".xlsx", ".xlsm"); err != nil {
		return err
	}
	if strings.HasPrefix(filepath.Base(path), "~$") {
		return fmt.Errorf("file %s is an Excel lock file", path)
	}
	return v.ValidateFile(path)
}

// ValidateCSV checks a CSV input.
func (v *InputValidator) ValidateCSV(path string) error {
	if err := v.checkExtension(path, ".csv"); err != nil {
		return err
	}
	return v.ValidateFile(path)
}

// ValidateShapefile checks a .shp input and its .shx and .dbf sidecars.
func (v *InputValidator) ValidateShapefile(path string) error {
	if err := v.checkExtension(path, ".shp"); err != nil {
		return err
	}
	if err := v.ValidateFile(path); err != nil {
		return err
	}
	stem := strings.TrimSuffix(path, filepath.Ext(path))
	for _, ext := range shapefileParts {
		if err := v.ValidateFile(stem + ext); err != nil {
			return err
		}
	}
	return nil
}

// ValidateInputs checks every input a run will read. With reuseTotals the
// totals CSV replaces the metadata workbook and flow table. All problems are
// reported together.
func (v *InputValidator) ValidateInputs(paths *config.Paths, reuseTotals bool) error {
	var errs []error
	if reuseTotals {
		errs = append(errs, v.ValidateCSV(paths.TotalsCSV))
	} else {
		errs = append(errs,
			v.ValidateWorkbook(paths.MetadataFile),
			v.ValidateCSV(paths.FlowsFile))
	}
	errs = append(errs, v.ValidateShapefile(paths.RegionsShapefile))
	return errors.Join(errs...)
}

func (v *InputValidator) checkExtension(path string, allowed ...string) error {
	ext := strings.ToLower(filepath.Ext(path))
	for _, a := range allowed {
		if ext == a {
			return nil
		}
	}
	v.logger.Error("Input file has unexpected extension",
		slog.String("file", path),
		slog.String("extension", ext))
	return fmt.Errorf("%w: %s (want %s)", ErrWrongExtension, path, strings.Join(allowed, " or "))
}
