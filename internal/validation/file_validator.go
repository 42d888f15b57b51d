package validation

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// File validation errors
var (
	ErrNotAFile          = errors.New("path is a directory, not a file")
	ErrUnsupportedFormat = errors.New("unsupported spreadsheet format")
	ErrLockFile          = errors.New("file is a spreadsheet lock file")
	ErrNotWritable       = errors.New("output directory is not writable")
)

// Spreadsheet extensions accepted for input and output
var (
	InputExtensions  = []string{".xlsx", ".xlsm", ".csv"}
	OutputExtensions = []string{".xlsx", ".csv"}
)

// FileValidator checks the spreadsheet files a transform reads and writes
// before any work is done.
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger: logger,
	}
}

// ValidateFile checks if a specific file exists and is readable. A missing
// file wraps fs.ErrNotExist.
func (v *FileValidator) ValidateFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		v.logger.Error("Failed to stat file",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to stat file %s: %w", path, err)
	}
	if info.IsDir() {
		v.logger.Error("Path is a directory, not a file",
			slog.String("path", path))
		return fmt.Errorf("%w: %s", ErrNotAFile, path)
	}

	// Check if file is readable by opening it
	file, err := os.Open(path)
	if err != nil {
		v.logger.Error("File is not readable",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return fmt.Errorf("file %s is not readable: %w", path, err)
	}
	file.Close()

	v.logger.Debug("File validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ValidateInputFile checks that path is a readable spreadsheet the parser
// understands. Office lock files ("~$name.xlsx") are rejected.
func (v *FileValidator) ValidateInputFile(path string) error {
	if err := checkExtension(path, InputExtensions); err != nil {
		v.logger.Error("Input is not a supported spreadsheet",
			slog.String("file", path),
			slog.String("extension", filepath.Ext(path)))
		return err
	}

	if strings.HasPrefix(filepath.Base(path), "~$") {
		v.logger.Warn("Refusing temporary Excel file",
			slog.String("file", path))
		return fmt.Errorf("%w: %s", ErrLockFile, path)
	}

	return v.ValidateFile(path)
}

// ValidateOutputFile checks that path has a writable spreadsheet extension
// and that its directory exists or can be created.
func (v *FileValidator) ValidateOutputFile(path string) error {
	if err := checkExtension(path, OutputExtensions); err != nil {
		v.logger.Error("Output is not a supported spreadsheet",
			slog.String("file", path),
			slog.String("extension", filepath.Ext(path)))
		return err
	}

	return v.ValidateOutputDirectory(filepath.Dir(path))
}

// ValidateOutputDirectory ensures output directory exists or can be created
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	// Verify it's writable by creating a test file
	file, err := os.CreateTemp(dir, ".write_test")
	if err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("%w: %s: %v", ErrNotWritable, dir, err)
	}
	file.Close()
	os.Remove(file.Name())

	v.logger.Debug("Output directory validated",
		slog.String("directory", dir))
	return nil
}

func checkExtension(path string, allowed []string) error {
	ext := strings.ToLower(filepath.Ext(path))
	for _, a := range allowed {
		if ext == a {
			return nil
		}
	}
	return fmt.Errorf("%w: %q (want one of %s)", ErrUnsupportedFormat, ext, strings.Join(allowed, ", "))
}
