// Package scraper walks the Featurebase portal API: paginated collections,
// detail expansion, threaded comments, and the feedback/roadmap/organization
// pipelines built on top of them.
package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"featurebase-scraper/config"
	"featurebase-scraper/fetch"
	"featurebase-scraper/pkg/portal"
)

// Client issues the portal API calls for one product, pacing each call
// class (collection pages, detail fetches, comment pages) with its own
// politeness delay.
type Client struct {
	fetcher        *fetch.Client
	logger         *slog.Logger
	cfg            config.Config
	pageLimiter    *fetch.Limiter
	detailLimiter  *fetch.Limiter
	commentLimiter *fetch.Limiter
}

// NewClient creates a portal client for the configured product.
func NewClient(httpClient *http.Client, cfg config.Config, logger *slog.Logger) *Client {
	return &Client{
		fetcher:        fetch.New(httpClient, cfg.Referer, logger),
		logger:         logger,
		cfg:            cfg,
		pageLimiter:    fetch.NewLimiter(cfg.PageDelay),
		detailLimiter:  fetch.NewLimiter(cfg.DetailDelay),
		commentLimiter: fetch.NewLimiter(cfg.CommentDelay),
	}
}

// FeedbackPage fetches one page of the feedback post collection, newest
// first. Results stay raw so the debug tree can persist pages verbatim.
func (c *Client) FeedbackPage(ctx context.Context, page int) (*portal.Envelope[json.RawMessage], error) {
	if err := c.pageLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("sortBy", "date:desc")
	q.Set("inReview", "false")
	q.Set("includePinned", "true")
	q.Set("page", fmt.Sprint(page))

	c.logger.Info("Fetching feedback page", "page", page)
	var env portal.Envelope[json.RawMessage]
	if err := c.fetcher.GetJSON(ctx, c.cfg.SubmissionURL+"?"+q.Encode(), &env); err != nil {
		return nil, err
	}
	return &env, nil
}

// SectionPage fetches one page of a roadmap section's submissions, most
// upvoted first.
func (c *Client) SectionPage(ctx context.Context, sectionID string, page int) (*portal.Envelope[json.RawMessage], error) {
	if err := c.pageLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("s", sectionID)
	q.Set("sortBy", "upvotes:desc")
	q.Set("inReview", "false")
	q.Set("includePinned", "true")
	q.Set("page", fmt.Sprint(page))

	c.logger.Info("Fetching roadmap section page", "section_id", sectionID, "page", page)
	var env portal.Envelope[json.RawMessage]
	if err := c.fetcher.GetJSON(ctx, c.cfg.SubmissionURL+"?"+q.Encode(), &env); err != nil {
		return nil, err
	}
	return &env, nil
}

// PostDetail fetches the full record for one post ID. The API answers with
// a one-element results array; an empty array is reported as an error.
func (c *Client) PostDetail(ctx context.Context, id string) (*portal.RawPost, error) {
	if err := c.detailLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("id", id)
	q.Set("includeMergedPosts", "true")

	c.logger.Info("Fetching post details", "post_id", id)
	var env portal.Envelope[portal.RawPost]
	if err := c.fetcher.GetJSON(ctx, c.cfg.SubmissionURL+"?"+q.Encode(), &env); err != nil {
		return nil, err
	}
	if len(env.Results) == 0 {
		return nil, fmt.Errorf("post %s: empty results", id)
	}
	return &env.Results[0], nil
}

// CommentPage fetches one page of a post's comment thread in the server's
// "best" ordering, nested replies included.
func (c *Client) CommentPage(ctx context.Context, postID string, page int) (*portal.Envelope[portal.RawComment], error) {
	if err := c.commentLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("sortBy", "best")
	q.Set("submissionId", postID)
	q.Set("page", fmt.Sprint(page))

	c.logger.Info("Fetching comment page", "post_id", postID, "page", page)
	var env portal.Envelope[portal.RawComment]
	if err := c.fetcher.GetJSON(ctx, c.cfg.CommentsURL+"?"+q.Encode(), &env); err != nil {
		return nil, err
	}
	return &env, nil
}

// Organization fetches the portal's organization metadata.
func (c *Client) Organization(ctx context.Context) (*portal.Organization, error) {
	c.logger.Info("Fetching organization data", "url", c.cfg.OrganizationURL)
	var org portal.Organization
	if err := c.fetcher.GetJSON(ctx, c.cfg.OrganizationURL, &org); err != nil {
		return nil, err
	}
	return &org, nil
}
