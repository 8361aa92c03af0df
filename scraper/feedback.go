package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"featurebase-scraper/config"
	"featurebase-scraper/format"
	"featurebase-scraper/pkg/portal"
)

// Feedback runs the full feedback pipeline: walk the post collection,
// expand every summary into a detail record with comments, and persist
// snapshots after each page so a crash mid-run keeps the last completed
// page durable. limit caps the total number of expanded posts; 0 means
// unlimited. Returns the formatted posts accumulated over the run.
//
// A page-fetch failure aborts the run fail-fast; everything persisted up
// to that point stays on disk. A single post's detail or comment failure
// only skips that post.
func (p *Pipeline) Feedback(ctx context.Context, limit int) ([]*portal.Post, error) {
	if limit > 0 {
		p.logger.Info("Post limit configured", "limit", limit)
	} else {
		p.logger.Info("No post limit configured, processing all available posts")
	}

	allRaw := []*portal.RawPost{}
	allFormatted := []*portal.Post{}

	walker := NewWalker(p.client.FeedbackPage, p.client.cfg.AssumedPageSize, p.logger)

	err := walker.Walk(ctx, func(page int, env *portal.Envelope[json.RawMessage]) (bool, error) {
		p.logger.Info("Processing feedback page",
			"page", page,
			"posts_on_page", len(env.Results),
			"total_pages", env.TotalPages)

		pageRaw := []*portal.RawPost{}
		limitReached := false
		for _, rawSummary := range env.Results {
			if limit > 0 && len(allRaw) >= limit {
				limitReached = true
				break
			}
			detail := p.expandSummary(ctx, rawSummary)
			if detail == nil {
				continue
			}
			pageRaw = append(pageRaw, detail)
			allRaw = append(allRaw, detail)
		}

		p.logger.Info("Processed feedback page", "page", page, "expanded", len(pageRaw))

		pageFormatted := format.Posts(pageRaw)
		allFormatted = append(allFormatted, pageFormatted...)

		// Per-page intermediates to the debug tree, then the whole-run
		// aggregates: raw to debug, formatted to main.
		p.persist(ctx, false, config.FeedbackPageFile(page), pageRaw)
		p.persist(ctx, false, config.FeedbackFormattedPageFile(page), pageFormatted)
		p.persist(ctx, false, config.FeedbackRawFile, allRaw)
		p.persist(ctx, true, config.FeedbackFile, allFormatted)

		if limitReached || (limit > 0 && len(allRaw) >= limit) {
			p.logger.Info("Reached configured post limit, stopping", "limit", limit)
			return false, nil
		}
		return true, nil
	})
	if err != nil {
		return nil, fmt.Errorf("feedback page walk: %w", err)
	}

	p.groupByCategory(ctx, allFormatted)

	p.logger.Info("Feedback pipeline complete", "total_posts", len(allRaw))
	return allFormatted, nil
}

// groupByCategory partitions formatted posts by their category's sanitized
// name and persists one main-tree file per category. Posts without a
// category are left out of the grouped files; they are still present in
// the aggregate.
func (p *Pipeline) groupByCategory(ctx context.Context, posts []*portal.Post) {
	grouped := make(map[string][]*portal.Post)
	for _, post := range posts {
		if post.Category == nil || post.Category.Name == "" {
			continue
		}
		key := format.SanitizeFilename(post.Category.Name)
		grouped[key] = append(grouped[key], post)
	}

	keys := make([]string, 0, len(grouped))
	for key := range grouped {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		p.logger.Info("Saving category file", "category", key, "posts", len(grouped[key]))
		p.persist(ctx, true, config.FeedbackCategoryFile(key), grouped[key])
	}
}
