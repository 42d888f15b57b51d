package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// resolvePaths makes every configured file path absolute. Relative paths are
// taken relative to BaseDir, and BaseDir itself defaults to the working
// directory.
func (c *Config) resolvePaths() error {
	if c.Paths.BaseDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get working directory: %w", err)
		}
		c.Paths.BaseDir = wd
	}

	base, err := filepath.Abs(c.Paths.BaseDir)
	if err != nil {
		return fmt.Errorf("failed to resolve base directory %s: %w", c.Paths.BaseDir, err)
	}
	c.Paths.BaseDir = base

	c.Paths.InputFile = c.Paths.Resolve(c.Paths.InputFile)
	c.Paths.OutputFile = c.Paths.Resolve(c.Paths.OutputFile)
	c.Paths.CredentialsFile = c.Paths.Resolve(c.Paths.CredentialsFile)
	if c.Logging.FilePath != "" {
		c.Logging.FilePath = c.Paths.Resolve(c.Logging.FilePath)
	}

	return nil
}

// Resolve returns path joined to BaseDir unless it is already absolute.
func (p PathsConfig) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(p.BaseDir, path)
}

// EnsureParentDir creates the directory that will hold path.
func EnsureParentDir(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %v", dir, err)
	}

	slog.Debug("Ensured directory exists", slog.String("directory", dir))
	return nil
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
