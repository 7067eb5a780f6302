package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// FileSink writes post documents under a run-stamped directory.
type FileSink struct {
	dir string
}

// NewFileSink creates the run directory under base and returns a sink
// writing into it.
func NewFileSink(base, runID string) (*FileSink, error) {
	if base == "" {
		base = "archive"
	}
	dir := filepath.Join(base, runID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create archive dir %s: %w", dir, err)
	}
	return &FileSink{dir: dir}, nil
}

// Dir returns the run directory the sink writes into.
func (f *FileSink) Dir() string { return f.dir }

func (f *FileSink) WritePost(_ context.Context, id string, data []byte) error {
	if err := validateID(id); err != nil {
		return err
	}
	path := filepath.Join(f.dir, id+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write archive %s: %w", path, err)
	}
	return nil
}
