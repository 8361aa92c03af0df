package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"featurebase-scraper/config"
	"featurebase-scraper/pkg/portal"
)

// memSink captures snapshot writes in memory, keyed by filename.
type memSink struct {
	mu    sync.Mutex
	main  map[string]any
	debug map[string]any
}

func newMemSink() *memSink {
	return &memSink{main: map[string]any{}, debug: map[string]any{}}
}

func (s *memSink) WriteMain(_ context.Context, name string, data any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.main[name] = data
	return nil
}

func (s *memSink) WriteDebug(_ context.Context, name string, data any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.debug[name] = data
	return nil
}

func (s *memSink) mainFile(name string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.main[name]
	return v, ok
}

func (s *memSink) debugFile(name string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.debug[name]
	return v, ok
}

// fakePost seeds one post in the fake portal.
type fakePost struct {
	ID           string
	Title        string
	Content      string
	Category     string
	CommentCount int
}

// fakePortal serves the three portal endpoints from in-memory fixtures,
// recording the requests it sees.
type fakePortal struct {
	t        *testing.T
	posts    []fakePost                       // feedback collection, list order
	sections map[string][]fakePost            // section token -> submissions
	comments map[string][][]portal.RawComment // post ID -> comment pages

	org          *portal.Organization
	pageSize     int
	reportTotals bool
	failDetail   map[string]bool
	failPage     map[int]bool

	mu             sync.Mutex
	pageRequests   []int
	detailRequests []string
}

func (f *fakePortal) server() *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/submission", f.handleSubmission)
	mux.HandleFunc("/api/v1/comment", f.handleComment)
	mux.HandleFunc("/api/v1/organization", f.handleOrganization)
	return httptest.NewServer(mux)
}

func (f *fakePortal) handleSubmission(w http.ResponseWriter, r *http.Request) {
	if id := r.URL.Query().Get("id"); id != "" {
		f.handleDetail(w, id)
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}

	collection := f.posts
	if token := r.URL.Query().Get("s"); token != "" {
		collection = f.sections[token]
	} else {
		f.mu.Lock()
		f.pageRequests = append(f.pageRequests, page)
		failed := f.failPage[page]
		f.mu.Unlock()
		if failed {
			http.Error(w, "server error", http.StatusInternalServerError)
			return
		}
	}

	start := (page - 1) * f.pageSize
	end := start + f.pageSize
	if start > len(collection) {
		start = len(collection)
	}
	if end > len(collection) {
		end = len(collection)
	}

	results := []map[string]any{}
	for _, p := range collection[start:end] {
		results = append(results, map[string]any{"id": p.ID, "title": p.Title})
	}

	env := map[string]any{"results": results, "page": page}
	if f.reportTotals {
		env["totalPages"] = (len(collection) + f.pageSize - 1) / f.pageSize
		env["totalResults"] = len(collection)
	}
	writeJSON(f.t, w, env)
}

func (f *fakePortal) handleDetail(w http.ResponseWriter, id string) {
	f.mu.Lock()
	f.detailRequests = append(f.detailRequests, id)
	failed := f.failDetail[id]
	f.mu.Unlock()
	if failed {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	for _, p := range append(append([]fakePost{}, f.posts...), f.allSectionPosts()...) {
		if p.ID != id {
			continue
		}
		detail := map[string]any{
			"id":           p.ID,
			"title":        p.Title,
			"content":      p.Content,
			"commentCount": p.CommentCount,
			"upvotes":      1,
			"date":         "2025-03-01T00:00:00Z",
			// A field the scraper declares no interest in, as the real
			// portal always sends some.
			"commentsAllowed": true,
		}
		if p.Category != "" {
			detail["postCategory"] = map[string]any{"category": p.Category}
		}
		writeJSON(f.t, w, map[string]any{"results": []any{detail}})
		return
	}
	writeJSON(f.t, w, map[string]any{"results": []any{}})
}

func (f *fakePortal) allSectionPosts() []fakePost {
	var all []fakePost
	for _, posts := range f.sections {
		all = append(all, posts...)
	}
	return all
}

func (f *fakePortal) handleComment(w http.ResponseWriter, r *http.Request) {
	postID := r.URL.Query().Get("submissionId")
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}

	pages := f.comments[postID]
	env := portal.Envelope[portal.RawComment]{
		Results:    []portal.RawComment{},
		Page:       page,
		TotalPages: len(pages),
	}
	if page <= len(pages) {
		env.Results = pages[page-1]
	}
	writeJSON(f.t, w, env)
}

func (f *fakePortal) handleOrganization(w http.ResponseWriter, _ *http.Request) {
	if f.org == nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	writeJSON(f.t, w, f.org)
}

func (f *fakePortal) pageRequestCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pageRequests)
}

func (f *fakePortal) detailRequestCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.detailRequests)
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Errorf("encode response: %v", err)
	}
}

// newTestPipeline wires a pipeline against the fake portal with pacing
// disabled.
func newTestPipeline(t *testing.T, f *fakePortal) (*Pipeline, *memSink, *httptest.Server) {
	t.Helper()
	f.t = t
	if f.pageSize == 0 {
		f.pageSize = 10
	}
	server := f.server()
	t.Cleanup(server.Close)

	cfg := config.Config{
		Product:         "example",
		Domain:          "example.com",
		SubmissionURL:   server.URL + "/api/v1/submission",
		CommentsURL:     server.URL + "/api/v1/comment",
		OrganizationURL: server.URL + "/api/v1/organization",
		Referer:         server.URL + "/",
		AssumedPageSize: f.pageSize,
	}

	client := NewClient(&http.Client{Timeout: 5 * time.Second}, cfg, testLogger())
	sink := newMemSink()
	return NewPipeline(client, sink, testLogger()), sink, server
}

func seedPosts(n int, category string) []fakePost {
	posts := make([]fakePost, 0, n)
	for i := 1; i <= n; i++ {
		posts = append(posts, fakePost{
			ID:       fmt.Sprintf("post-%d", i),
			Title:    fmt.Sprintf("Post %d", i),
			Content:  "<p>body</p>",
			Category: category,
		})
	}
	return posts
}
