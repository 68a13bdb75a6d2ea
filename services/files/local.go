package files

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// LocalResolver serves absolute paths as-is and relative ones from Root.
type LocalResolver struct {
	Root string
}

func NewLocalResolver(root string) *LocalResolver {
	return &LocalResolver{Root: root}
}

func (r *LocalResolver) path(logical string) (string, error) {
	if logical == "" {
		return "", fmt.Errorf("empty path: %w", ErrNotFound)
	}
	if filepath.IsAbs(logical) {
		return filepath.Clean(logical), nil
	}

	cleaned := filepath.Clean(logical)
	if cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %s escapes the data root", logical)
	}
	return filepath.Join(r.Root, cleaned), nil
}

func (r *LocalResolver) Resolve(ctx context.Context, logical string) (string, error) {
	p, err := r.path(logical)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(p)
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%s: %w", logical, ErrNotFound)
	}
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s is a directory: %w", logical, ErrNotFound)
	}
	return p, nil
}

func (r *LocalResolver) Open(ctx context.Context, logical string) (io.ReadCloser, error) {
	p, err := r.Resolve(ctx, logical)
	if err != nil {
		return nil, err
	}
	return os.Open(p)
}
