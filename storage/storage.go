// Package storage persists scraper output as JSON snapshot files: a main
// tree for aggregated/formatted results and a debug tree for raw and
// per-page intermediates. Main-tree files can additionally be mirrored into
// a Cloud Storage bucket for static-site serving.
//
// Snapshot policy: every write replaces the whole file. A crash between the
// debug and main snapshot of the same page leaves the two trees transiently
// inconsistent, which is acceptable here since the next run overwrites both.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"time"

	"cloud.google.com/go/storage"
	"github.com/codeGROOVE-dev/retry"
)

// Sink writes JSON snapshots for one product's run.
type Sink struct {
	client    *storage.Client
	logger    *slog.Logger
	outputDir string
	debugDir  string
	bucket    string
	prefix    string // object key prefix inside the bucket
}

// New creates a sink. client and bucket may be zero when no mirroring is
// wanted; prefix namespaces the product inside the bucket.
func New(client *storage.Client, bucket, prefix, outputDir, debugDir string, logger *slog.Logger) *Sink {
	return &Sink{
		client:    client,
		logger:    logger,
		outputDir: outputDir,
		debugDir:  debugDir,
		bucket:    bucket,
		prefix:    prefix,
	}
}

// EnsureDirs creates both output trees.
func (s *Sink) EnsureDirs() error {
	for _, dir := range []string{s.outputDir, s.debugDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory %s: %w", dir, err)
		}
	}
	return nil
}

// WriteMain snapshots data as pretty-printed JSON into the main tree and,
// when a bucket is configured, mirrors it there.
func (s *Sink) WriteMain(ctx context.Context, name string, data any) error {
	if err := s.writeFile(s.outputDir, name, data); err != nil {
		return err
	}
	if s.bucket == "" || s.client == nil {
		return nil
	}
	return s.mirror(ctx, name, data)
}

// WriteDebug snapshots data as pretty-printed JSON into the debug tree.
func (s *Sink) WriteDebug(_ context.Context, name string, data any) error {
	return s.writeFile(s.debugDir, name, data)
}

func (s *Sink) writeFile(dir, name string, data any) error {
	encoded, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output directory %s: %w", dir, err)
	}

	filePath := filepath.Join(dir, name)
	if err := os.WriteFile(filePath, encoded, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filePath, err)
	}

	s.logger.Debug("Snapshot written", "path", filePath, "bytes", len(encoded))
	return nil
}

// mirror uploads one main-tree file into the bucket, with retries for
// transient failures.
func (s *Sink) mirror(ctx context.Context, name string, data any) error {
	encoded, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}

	key := path.Join(s.prefix, name)
	err = retry.Do(
		func() error {
			w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
			w.ContentType = "application/json"
			if _, writeErr := w.Write(encoded); writeErr != nil {
				if closeErr := w.Close(); closeErr != nil {
					s.logger.Warn("Failed to close bucket writer after error", "error", closeErr)
				}
				return fmt.Errorf("write to bucket: %w", writeErr)
			}
			if closeErr := w.Close(); closeErr != nil {
				return fmt.Errorf("close bucket writer: %w", closeErr)
			}
			return nil
		},
		retry.Attempts(3),
		retry.Delay(time.Second),
		retry.MaxDelay(30*time.Second),
		retry.MaxJitter(5*time.Second),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, retryErr error) {
			s.logger.Info("Retrying bucket upload after error", "attempt", n, "key", key, "error", retryErr)
		}),
	)
	if err != nil {
		return fmt.Errorf("mirror %s after retries: %w", key, err)
	}

	s.logger.Info("Snapshot mirrored to bucket", "bucket", s.bucket, "key", key)
	return nil
}

// OutputDir reports the main tree location.
func (s *Sink) OutputDir() string { return s.outputDir }

// DebugDir reports the debug tree location.
func (s *Sink) DebugDir() string { return s.debugDir }
