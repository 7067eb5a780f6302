// Package archive writes raw post JSON sidecars alongside the
// structured store.
//
// The archive is optional and best-effort: a failed write is logged
// and counted, never surfaced to the fetch path. Backends share a
// run-scoped key layout, <run_id>/<post_id>.json, so one run's output
// is a self-contained directory or key prefix.
package archive

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mouguu/reddit-crawler/config"
)

// Sink accepts one raw post document per call.
type Sink interface {
	WritePost(ctx context.Context, id string, data []byte) error
}

// Open constructs the backend named by cfg. Backend "none" (or empty)
// returns nil: callers treat a nil Sink as archiving disabled.
func Open(ctx context.Context, cfg config.ArchiveConfig, runID string) (Sink, error) {
	switch cfg.Backend {
	case "", "none":
		return nil, nil
	case "file":
		return NewFileSink(cfg.Dir, runID)
	case "s3":
		return NewS3Sink(ctx, cfg, runID)
	default:
		return nil, fmt.Errorf("unknown archive backend %q", cfg.Backend)
	}
}

// validateID rejects ids that would escape the run directory or key
// prefix.
func validateID(id string) error {
	if id == "" || strings.ContainsAny(id, "/\\") || strings.Contains(id, "..") {
		return errors.New("invalid post id for archive key")
	}
	return nil
}
