package scraper

import (
	"context"

	"featurebase-scraper/pkg/portal"
)

// FetchComments collects every comment page of a post into one ordered
// forest, keeping the server-delivered nesting and order. A page-fetch
// failure ends the collection early and whatever was gathered so far is
// returned; a comment thread is never worth aborting the post for.
func (c *Client) FetchComments(ctx context.Context, postID string) []portal.RawComment {
	var comments []portal.RawComment

	walker := NewWalker(func(ctx context.Context, page int) (*portal.Envelope[portal.RawComment], error) {
		return c.CommentPage(ctx, postID, page)
	}, c.cfg.AssumedPageSize, c.logger)

	if err := walker.Walk(ctx, func(page int, env *portal.Envelope[portal.RawComment]) (bool, error) {
		c.logger.Info("Retrieved top-level comments", "post_id", postID, "page", page, "count", len(env.Results))
		comments = append(comments, env.Results...)
		return true, nil
	}); err != nil {
		c.logger.Warn("Comment fetch ended early, keeping comments collected so far",
			"post_id", postID,
			"collected", len(comments),
			"error", err)
	}

	// The total includes nested replies and is diagnostic only: the API's
	// commentCount is not guaranteed to match it.
	c.logger.Info("Finished fetching comments",
		"post_id", postID,
		"top_level", len(comments),
		"total_including_replies", portal.CountComments(comments))

	return comments
}
