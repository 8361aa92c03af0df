package scraper

import (
	"context"
	"encoding/json"
	"log/slog"

	"featurebase-scraper/pkg/portal"
)

// Sink persists pipeline output. Failures are the caller's to log; a lost
// snapshot never aborts the in-memory pipeline.
type Sink interface {
	WriteMain(ctx context.Context, name string, data any) error
	WriteDebug(ctx context.Context, name string, data any) error
}

// Pipeline composes the portal client and the snapshot sink into the
// feedback, roadmap, and organization runs. All state for a run lives in
// locals threaded through the walk, so several products can run in one
// process without stepping on each other.
type Pipeline struct {
	client *Client
	sink   Sink
	logger *slog.Logger
}

// NewPipeline creates a pipeline over client and sink.
func NewPipeline(client *Client, sink Sink, logger *slog.Logger) *Pipeline {
	return &Pipeline{client: client, sink: sink, logger: logger}
}

// expandSummary turns one raw list-view record into a full detail record
// with its comment thread attached. Returns nil when the record must be
// skipped: a summary without an ID, or a failed detail fetch. Skipped
// records never count against an item limit.
func (p *Pipeline) expandSummary(ctx context.Context, raw json.RawMessage) *portal.RawPost {
	var summary portal.Summary
	if err := json.Unmarshal(raw, &summary); err != nil || summary.ID == "" {
		p.logger.Warn("Summary without an ID, skipping detail fetch")
		return nil
	}

	detail, err := p.client.PostDetail(ctx, summary.ID)
	if err != nil {
		p.logger.Warn("Skipping post due to detail fetch error", "post_id", summary.ID, "error", err)
		return nil
	}

	if detail.CommentCount > 0 {
		p.logger.Info("Post has comments, fetching thread", "post_id", detail.ID, "comment_count", detail.CommentCount)
		detail.Comments = p.client.FetchComments(ctx, detail.ID)
	} else {
		detail.Comments = []portal.RawComment{}
	}

	return detail
}

// persist writes one snapshot and logs instead of failing: output already
// in memory survives a bad disk, and the next snapshot point overwrites.
func (p *Pipeline) persist(ctx context.Context, main bool, name string, data any) {
	var err error
	if main {
		err = p.sink.WriteMain(ctx, name, data)
	} else {
		err = p.sink.WriteDebug(ctx, name, data)
	}
	if err != nil {
		p.logger.Error("Failed to persist snapshot", "file", name, "error", err)
	}
}
