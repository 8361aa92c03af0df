package scraper

import (
	"context"
	"log/slog"

	"featurebase-scraper/pkg/portal"
)

// PageFetch fetches one page of a paginated collection. Call pacing is the
// fetcher's concern, not the walker's.
type PageFetch[T any] func(ctx context.Context, page int) (*portal.Envelope[T], error)

// PageVisit consumes one fetched page. Returning false stops the walk
// early without error.
type PageVisit[T any] func(page int, env *portal.Envelope[T]) (bool, error)

// Walker drives a single pass over a paginated collection, page 1 upward.
// It is finite and not restartable: every Walk starts over at page 1.
type Walker[T any] struct {
	fetch  PageFetch[T]
	logger *slog.Logger
	// pageSize is the assumed server page size, used to detect the last
	// page when the envelope does not carry totalPages: a page shorter
	// than this is treated as final. The portal never documents its
	// default, so the value comes from configuration.
	pageSize int
}

// NewWalker creates a walker over fetch. pageSize <= 0 disables the
// short-page heuristic, leaving only totalPages and empty-page termination.
func NewWalker[T any](fetch PageFetch[T], pageSize int, logger *slog.Logger) *Walker[T] {
	return &Walker[T]{fetch: fetch, pageSize: pageSize, logger: logger}
}

// Walk fetches pages in increasing order and hands each envelope to visit.
// A fetch failure stops the walk and is returned to the caller; pages
// already visited keep whatever effect visit had. An empty results array,
// even on page 1, is a normal terminal state; the empty page is still
// handed to visit so snapshot writers record the no-data result.
func (w *Walker[T]) Walk(ctx context.Context, visit PageVisit[T]) error {
	for page := 1; ; page++ {
		env, err := w.fetch(ctx, page)
		if err != nil {
			w.logger.Error("Page fetch failed, stopping walk", "page", page, "error", err)
			return err
		}

		if len(env.Results) == 0 {
			if _, err := visit(page, env); err != nil {
				return err
			}
			w.logger.Info("Empty page, walk complete", "page", page)
			return nil
		}

		cont, err := visit(page, env)
		if err != nil {
			return err
		}
		if !cont {
			w.logger.Info("Walk stopped by visitor", "page", page)
			return nil
		}

		switch {
		case env.TotalPages > 0:
			if page >= env.TotalPages {
				w.logger.Info("Reached last page", "page", page, "total_pages", env.TotalPages)
				return nil
			}
		case w.pageSize > 0 && len(env.Results) < w.pageSize:
			w.logger.Info("Short page without totalPages, assuming end of collection",
				"page", page,
				"results", len(env.Results),
				"assumed_page_size", w.pageSize)
			return nil
		}
	}
}
