package artifacts

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Local writes artifacts under a base directory and returns file:// URIs.
type Local struct {
	baseDir string
}

// NewLocal validates the directory is usable before returning a store.
func NewLocal(baseDir string) (*Local, error) {
	if strings.TrimSpace(baseDir) == "" {
		return nil, fmt.Errorf("base directory is required")
	}
	info, err := os.Stat(baseDir)
	switch {
	case os.IsNotExist(err):
		if mkErr := os.MkdirAll(baseDir, 0o750); mkErr != nil {
			return nil, fmt.Errorf("create base directory: %w", mkErr)
		}
	case err != nil:
		return nil, fmt.Errorf("stat base directory: %w", err)
	case !info.IsDir():
		return nil, fmt.Errorf("base directory path is not a directory")
	}
	return &Local{baseDir: baseDir}, nil
}

// Put writes the artifact, rejecting names that escape the base directory.
func (s *Local) Put(_ context.Context, name string, _ string, data io.Reader) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("name is required")
	}
	fullPath := filepath.Join(s.baseDir, name)

	cleanBase := filepath.Clean(s.baseDir)
	if !strings.HasPrefix(filepath.Clean(fullPath), cleanBase+string(filepath.Separator)) {
		return "", fmt.Errorf("path traversal detected")
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o750); err != nil {
		return "", fmt.Errorf("create parent directories: %w", err)
	}

	f, err := os.OpenFile(fullPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return "", fmt.Errorf("create artifact: %w", err)
	}
	if _, err := io.Copy(f, data); err != nil {
		f.Close()
		return "", fmt.Errorf("write artifact: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close artifact: %w", err)
	}

	abs, err := filepath.Abs(fullPath)
	if err != nil {
		abs = fullPath
	}
	return "file://" + abs, nil
}
