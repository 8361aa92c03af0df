// Command featurebase-scraper pulls feedback posts, roadmap items, and
// organization metadata from a product's Featurebase portal and publishes
// them as static JSON (and JSON-as-script) files for a client-side viewer.
package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	gcs "cloud.google.com/go/storage"
	"github.com/spf13/cobra"

	"featurebase-scraper/config"
	"featurebase-scraper/pkg/portal"
	"featurebase-scraper/scraper"
	"featurebase-scraper/sitegen"
	"featurebase-scraper/storage"
)

var (
	itemLimit        int
	feedbackOnly     bool
	roadmapOnly      bool
	organizationOnly bool
	noSiteData       bool
	siteDir          string
	bucket           string
)

var rootCmd = &cobra.Command{
	Use:   "featurebase-scraper [product-domain]",
	Short: "Scrapes a product's Featurebase portal into static JSON files.",
	Long: `Scrapes feedback posts, roadmap items, and organization metadata from
https://feedback.<product-domain>/ and writes aggregated, formatted JSON
into output/<product>/ (with raw intermediates under output_debug/).
A product domain without a dot gets ".com" appended.`,
	Args: cobra.MaximumNArgs(1),
	RunE: run,
}

func init() {
	rootCmd.Flags().IntVar(&itemLimit, "item-limit", 0,
		"limit fetched items (feedback posts globally, roadmap items per section); 0 = no limit")
	rootCmd.Flags().BoolVar(&feedbackOnly, "feedback-only", false, "run only the feedback scraper")
	rootCmd.Flags().BoolVar(&roadmapOnly, "roadmap-only", false, "run only the roadmap scraper")
	rootCmd.Flags().BoolVar(&organizationOnly, "organization-only", false, "run only the organization scraper")
	rootCmd.Flags().BoolVar(&noSiteData, "no-site-data", false, "skip generating JavaScript data files")
	rootCmd.Flags().StringVar(&siteDir, "site-dir", "",
		"website directory to copy data files into and whose product index to update")
	rootCmd.Flags().StringVar(&bucket, "bucket", "",
		"Cloud Storage bucket to mirror main output files into (default from FEATUREBASE_BUCKET)")
}

func run(cmd *cobra.Command, args []string) error {
	product := config.DefaultProduct
	if len(args) > 0 {
		product = args[0]
	}
	cfg := config.ForProduct(product)
	if bucket != "" {
		cfg.Bucket = bucket
	}

	logPath := filepath.Join(filepath.Dir(cfg.DebugDir), config.RunLogFile)
	logger, closeLog, err := storage.NewRunLogger(logPath, slog.LevelInfo)
	if err != nil {
		return fmt.Errorf("initialize run log: %w", err)
	}
	defer func() {
		if closeErr := closeLog(); closeErr != nil {
			fmt.Fprintln(os.Stderr, "failed to close run log:", closeErr)
		}
	}()

	runOrganization, runFeedback, runRoadmap := true, true, true
	switch {
	case feedbackOnly:
		runOrganization, runRoadmap = false, false
	case roadmapOnly:
		runOrganization, runFeedback = false, false
	case organizationOnly:
		runFeedback, runRoadmap = false, false
	}

	ctx := cmd.Context()

	var gcsClient *gcs.Client
	if cfg.Bucket != "" {
		gcsClient, err = gcs.NewClient(ctx)
		if err != nil {
			logger.Warn("Failed to initialize Cloud Storage client, continuing local-only",
				"bucket", cfg.Bucket, "error", err)
			gcsClient = nil
		} else {
			defer func() {
				if closeErr := gcsClient.Close(); closeErr != nil {
					logger.Warn("Failed to close storage client", "error", closeErr)
				}
			}()
		}
	}

	sink := storage.New(gcsClient, cfg.Bucket, cfg.Product, cfg.OutputDir, cfg.DebugDir, logger)
	if err := sink.EnsureDirs(); err != nil {
		return err
	}

	client := scraper.NewClient(&http.Client{Timeout: 30 * time.Second}, cfg, logger)
	pipeline := scraper.NewPipeline(client, sink, logger)

	startTime := time.Now()
	logger.Info("Featurebase scraper starting",
		"product", cfg.Product,
		"domain", cfg.Domain,
		"item_limit", itemLimit,
		"organization", runOrganization,
		"feedback", runFeedback,
		"roadmap", runRoadmap)

	var org *portal.Organization
	if runOrganization {
		runIsolated(logger, "organization", func() error {
			fetched, orgErr := pipeline.Organization(ctx)
			org = fetched
			return orgErr
		})
	}
	if runFeedback {
		runIsolated(logger, "feedback", func() error {
			_, feedbackErr := pipeline.Feedback(ctx, itemLimit)
			return feedbackErr
		})
	}
	if runRoadmap {
		runIsolated(logger, "roadmap", func() error {
			_, roadmapErr := pipeline.Roadmap(ctx, itemLimit)
			return roadmapErr
		})
	}

	if !noSiteData {
		generated := sitegen.ConvertProductData(cfg.OutputDir, logger)
		if siteDir != "" && len(generated) > 0 {
			publishToSite(logger, cfg, org, generated)
		}
	}

	logger.Info("Featurebase scraper completed",
		"product", cfg.Product,
		"duration_seconds", time.Since(startTime).Seconds(),
		"output_dir", cfg.OutputDir)
	return nil
}

// runIsolated runs one top-level scraper, containing its failures: an
// error or panic is logged (with a stack trace for panics) and the
// remaining scrapers still run.
func runIsolated(logger *slog.Logger, name string, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Scraper panicked",
				"scraper", name,
				"panic", r,
				"stack", string(debug.Stack()))
		}
	}()

	logger.Info("Starting scraper", "scraper", name)
	if err := fn(); err != nil {
		logger.Error("Scraper failed", "scraper", name, "error", err)
		return
	}
	logger.Info("Scraper completed", "scraper", name)
}

// publishToSite copies the generated data scripts into the website asset
// tree and upserts the product into the viewer's embedded product index.
// Failures are logged rather than returned, the scrape output itself is
// already on disk.
func publishToSite(logger *slog.Logger, cfg config.Config, org *portal.Organization, generated []string) {
	if err := sitegen.CopyToSite(siteDir, cfg.Product, generated); err != nil {
		logger.Error("Failed to copy data files to site", "site_dir", siteDir, "error", err)
		return
	}
	logger.Info("Copied data files to site", "site_dir", siteDir, "files", len(generated))

	entry := sitegen.Product{ID: cfg.Product, Name: cfg.Product}
	if org != nil {
		if org.DisplayName != "" {
			entry.Name = org.DisplayName
		}
		entry.Logo = org.Picture
	}
	indexPath := filepath.Join(siteDir, "index.html")
	if err := sitegen.UpdateProductIndex(indexPath, entry); err != nil {
		logger.Error("Failed to update site product index", "path", indexPath, "error", err)
		return
	}
	logger.Info("Updated site product index", "path", indexPath, "product", entry.ID)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
