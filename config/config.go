// Package config builds the per-product configuration: API endpoints,
// output locations, politeness delays, and pagination heuristics.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Defaults for the politeness delays and the comment pagination heuristic.
// All of them can be overridden via FEATUREBASE_* environment variables.
const (
	DefaultProduct = "lovable.dev"

	defaultPageDelayMS    = 300 // between collection page fetches
	defaultDetailDelayMS  = 150 // between post detail fetches
	defaultCommentDelayMS = 100 // between comment page fetches

	// Collection endpoints do not always report totalPages; when one
	// doesn't, a page shorter than this is treated as the last one. The
	// true server default page size is undocumented, so this is exposed
	// for override rather than baked in.
	defaultAssumedPageSize = 10
)

// Config holds everything a single product's run needs.
type Config struct {
	// Product is the identifier as given on the command line, used for
	// output directory naming.
	Product string
	// Domain is Product with ".com" appended when it carries no dot.
	Domain string

	SubmissionURL   string
	CommentsURL     string
	OrganizationURL string
	Referer         string

	OutputDir string // main tree: aggregated/formatted results
	DebugDir  string // debug tree: raw and per-page intermediates

	PageDelay    time.Duration
	DetailDelay  time.Duration
	CommentDelay time.Duration

	AssumedPageSize int

	// Bucket optionally mirrors main-tree files into a Cloud Storage
	// bucket for static-site serving. Empty means local-only.
	Bucket string
}

// ForProduct builds the configuration for one product domain, layering
// FEATUREBASE_* environment overrides on top of the defaults.
func ForProduct(product string) Config {
	if product == "" {
		product = DefaultProduct
	}

	v := viper.New()
	v.SetEnvPrefix("featurebase")
	v.AutomaticEnv()
	v.SetDefault("page_delay_ms", defaultPageDelayMS)
	v.SetDefault("detail_delay_ms", defaultDetailDelayMS)
	v.SetDefault("comment_delay_ms", defaultCommentDelayMS)
	v.SetDefault("assumed_page_size", defaultAssumedPageSize)
	v.SetDefault("output_root", "output")
	v.SetDefault("debug_root", "output_debug")
	v.SetDefault("bucket", "")

	domain := product
	if !strings.Contains(domain, ".") {
		domain += ".com"
	}

	base := fmt.Sprintf("https://feedback.%s", domain)

	return Config{
		Product:         product,
		Domain:          domain,
		SubmissionURL:   base + "/api/v1/submission",
		CommentsURL:     base + "/api/v1/comment",
		OrganizationURL: base + "/api/v1/organization",
		Referer:         base + "/",
		OutputDir:       filepath.Join(v.GetString("output_root"), product),
		DebugDir:        filepath.Join(v.GetString("debug_root"), product),
		PageDelay:       time.Duration(v.GetInt("page_delay_ms")) * time.Millisecond,
		DetailDelay:     time.Duration(v.GetInt("detail_delay_ms")) * time.Millisecond,
		CommentDelay:    time.Duration(v.GetInt("comment_delay_ms")) * time.Millisecond,
		AssumedPageSize: v.GetInt("assumed_page_size"),
		Bucket:          v.GetString("bucket"),
	}
}

// Output filename templates, kept in one place so the pipelines and the
// site generator agree on them.

func FeedbackPageFile(page int) string          { return fmt.Sprintf("feedback_page_%d.json", page) }
func FeedbackFormattedPageFile(page int) string { return fmt.Sprintf("feedback_page_%d_formatted.json", page) }

const (
	FeedbackRawFile       = "feedback_raw.json"
	FeedbackFile          = "feedback.json"
	RoadmapRawFile        = "roadmap_raw.json"
	RoadmapFile           = "roadmap.json"
	OrganizationFile      = "organization.json"
	OrganizationDebugFile = "organization_data.json"
	RunLogFile            = "scraper_log.txt"
)

func FeedbackCategoryFile(category string) string {
	return fmt.Sprintf("feedback_category_%s.json", category)
}

func RoadmapSectionFile(section string) string {
	return fmt.Sprintf("roadmap_section_%s.json", section)
}

func RoadmapSectionPageFile(section string, page int) string {
	return fmt.Sprintf("roadmap_section_%s_page_%d.json", section, page)
}
