// Package report persists session artifacts to disk.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/conclave-ai/conclave/internal/core"
)

// Config configures the artifact writer.
type Config struct {
	BaseDir string // default: ".conclave/runs"
	Enabled bool   // whether to write artifacts at all
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		BaseDir: ".conclave/runs",
		Enabled: true,
	}
}

var _ core.ArtifactWriter = (*Writer)(nil)

// Writer writes artifacts atomically under a base directory. An existing
// file is never overwritten: colliding paths get a numeric suffix.
type Writer struct {
	mu     sync.Mutex
	config Config
}

// NewWriter creates a writer.
func NewWriter(cfg Config) *Writer {
	if cfg.BaseDir == "" {
		cfg.BaseDir = DefaultConfig().BaseDir
	}
	return &Writer{config: cfg}
}

// WriteArtifact implements core.ArtifactWriter. Relative paths are resolved
// against the base directory; the write is atomic (temp file plus rename).
func (w *Writer) WriteArtifact(path, content string) error {
	if !w.config.Enabled {
		return nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if !filepath.IsAbs(path) {
		path = filepath.Join(w.config.BaseDir, path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("creating artifact directory: %w", err)
	}

	path = uniquePath(path)
	if err := atomicWriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing artifact %s: %w", path, err)
	}
	return nil
}

// uniquePath returns path, or the first "name-N.ext" variant that does not
// exist yet.
func uniquePath(path string) string {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return path
	}
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s-%d%s", stem, n, ext)
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
}
