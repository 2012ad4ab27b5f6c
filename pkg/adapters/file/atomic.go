package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// FileSink is a Sink backed by a temporary file that replaces Path on Flush.
// Readers of Path never see a partial run.
type FileSink struct {
	*Sink
	Path string
	tmp  *os.File
}

// Create opens a sink that will write to path.
func Create(path string, format Format) (*FileSink, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to ensure output directory: %w", err)
	}

	// Same directory so the final rename stays on one filesystem.
	tmp, err := os.CreateTemp(dir, "tmp-"+filepath.Base(path)+"-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	return &FileSink{Sink: NewSink(tmp, format), Path: path, tmp: tmp}, nil
}

// Flush syncs the temp file and renames it over Path.
func (f *FileSink) Flush(ctx context.Context) error {
	if f.tmp == nil {
		return fmt.Errorf("sink for %s already closed", f.Path)
	}
	tmpPath := f.tmp.Name()
	defer func() {
		_ = f.tmp.Close()
		_ = os.Remove(tmpPath)
		f.tmp = nil
	}()

	if err := f.Sink.Flush(ctx); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := f.tmp.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	// Windows cannot rename an open file.
	if err := f.tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// Windows also refuses to rename over an existing file.
	if _, err := os.Stat(f.Path); err == nil {
		if err := os.Remove(f.Path); err != nil {
			return fmt.Errorf("failed to remove existing output for overwrite: %w", err)
		}
	}
	if err := os.Rename(tmpPath, f.Path); err != nil {
		return fmt.Errorf("failed to rename temp file to %s: %w", f.Path, err)
	}
	return nil
}

// Abort discards the run, leaving Path untouched.
func (f *FileSink) Abort() error {
	if f.tmp == nil {
		return nil
	}
	tmpPath := f.tmp.Name()
	_ = f.tmp.Close()
	f.tmp = nil
	return os.Remove(tmpPath)
}
