// Package fs implements a filesystem-backed product record cache, one JSON
// file per normalized product id.
package fs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/JakeFAU/grocery-catalog-crawler/internal/catalog"
)

// Config captures the parameters for the filesystem cache store.
type Config struct {
	// BaseDir is the root directory where record files are stored.
	BaseDir string `mapstructure:"base_dir" yaml:"base_dir"`
}

// Store persists raw product records under BaseDir/products/<id>.json.
type Store struct {
	baseDir string
}

// New creates a filesystem-backed cache store.
func New(cfg Config) (*Store, error) {
	if strings.TrimSpace(cfg.BaseDir) == "" {
		return nil, fmt.Errorf("base directory is required")
	}
	dir := filepath.Join(cfg.BaseDir, "products")
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	return &Store{baseDir: cfg.BaseDir}, nil
}

// Get returns the cached raw record for id, reporting whether it was found.
// An unreadable or missing file is a miss, never an error the caller must
// handle differently.
func (s *Store) Get(ctx context.Context, id string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, fmt.Errorf("context canceled: %w", err)
	}
	path, err := s.entryPath(id)
	if err != nil {
		return nil, false, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read cache entry %s: %w", id, err)
	}
	return data, true, nil
}

// Put writes the raw record for id. Writes are immediate and per-item so a
// long crawl stays resumable at the cache layer.
func (s *Store) Put(ctx context.Context, id string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context canceled: %w", err)
	}
	path, err := s.entryPath(id)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write cache entry %s: %w", id, err)
	}
	return nil
}

func (s *Store) entryPath(id string) (string, error) {
	clean := catalog.NormalizeID(id)
	if clean == "" {
		return "", fmt.Errorf("cache id is required")
	}
	path := filepath.Join(s.baseDir, "products", clean+".json")
	// Guard against ids that escape the cache directory.
	base := filepath.Clean(s.baseDir)
	if !strings.HasPrefix(filepath.Clean(path), base+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid cache id %q", id)
	}
	return path, nil
}
