package scraper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"

	"featurebase-scraper/config"
	"featurebase-scraper/format"
	"featurebase-scraper/pkg/portal"
)

// ConfigError indicates the organization metadata lacks the structure the
// roadmap pipeline needs. It is fatal to the roadmap run but never to the
// feedback or organization runs.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "organization metadata: " + e.Reason
}

// IsConfigError checks if an error is a roadmap configuration error.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

var sectionTokenRe = regexp.MustCompile(`s=([^&]+)`)

// DiscoverSections recovers the roadmap's named sections from the
// organization metadata. Only the first roadmap is consulted;
// multi-roadmap organizations are not supported. Each roadmap item carries
// an opaque filter string from which the section's `s=` token is parsed.
func DiscoverSections(org *portal.Organization) ([]portal.Section, error) {
	if org == nil || len(org.Roadmaps) == 0 {
		return nil, &ConfigError{Reason: "no roadmaps found"}
	}

	main := org.Roadmaps[0]
	if len(main.Items) == 0 {
		return nil, &ConfigError{Reason: fmt.Sprintf("roadmap %q has no items", main.Name)}
	}

	var sections []portal.Section
	for _, item := range main.Items {
		m := sectionTokenRe.FindStringSubmatch(item.Filter)
		if m == nil {
			continue
		}
		sections = append(sections, portal.Section{
			ID:    m[1],
			Name:  item.Title,
			Color: item.Color,
			Icon:  item.Icon,
		})
	}

	if len(sections) == 0 {
		return nil, &ConfigError{Reason: "no roadmap item carries a parseable section token"}
	}
	return sections, nil
}

// Roadmap runs the full roadmap pipeline: discover the sections from the
// organization metadata, then walk each section's submissions the same way
// the feedback pipeline walks posts, with limitPerSection applied per
// section rather than globally. Output is grouped by section name. A
// section's page-fetch failure ends that section and the run moves on to
// the next one.
func (p *Pipeline) Roadmap(ctx context.Context, limitPerSection int) (map[string][]*portal.Post, error) {
	p.logger.Info("Starting roadmap pipeline", "limit_per_section", limitPerSection)

	org, err := p.client.Organization(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch organization data: %w", err)
	}
	p.persist(ctx, false, config.OrganizationDebugFile, org)

	sections, err := DiscoverSections(org)
	if err != nil {
		return nil, err
	}
	p.logger.Info("Discovered roadmap sections", "count", len(sections))

	allRaw := make(map[string][]*portal.RawPost)
	allFormatted := make(map[string][]*portal.Post)

	for _, section := range sections {
		raw := p.walkSection(ctx, section, limitPerSection)
		allRaw[section.Name] = raw
		allFormatted[section.Name] = format.RoadmapItems(raw, section.Name)

		p.persist(ctx, false, config.RoadmapRawFile, allRaw)
		p.persist(ctx, true, config.RoadmapFile, allFormatted)
	}

	for _, section := range sections {
		token := format.SanitizeFilename(section.Name)
		items := allFormatted[section.Name]
		p.logger.Info("Saving section file", "section", section.Name, "items", len(items))
		p.persist(ctx, true, config.RoadmapSectionFile(token), items)
	}

	p.logger.Info("Roadmap pipeline complete", "sections", len(sections))
	return allFormatted, nil
}

// walkSection collects up to limit expanded items for one section. Page
// and item failures are contained here: the section keeps whatever was
// expanded before the failure.
func (p *Pipeline) walkSection(ctx context.Context, section portal.Section, limit int) []*portal.RawPost {
	p.logger.Info("Processing roadmap section", "section", section.Name, "section_id", section.ID)

	token := format.SanitizeFilename(section.Name)
	collected := []*portal.RawPost{}

	walker := NewWalker(func(ctx context.Context, page int) (*portal.Envelope[json.RawMessage], error) {
		return p.client.SectionPage(ctx, section.ID, page)
	}, p.client.cfg.AssumedPageSize, p.logger)

	err := walker.Walk(ctx, func(page int, env *portal.Envelope[json.RawMessage]) (bool, error) {
		p.logger.Info("Processing section page",
			"section", section.Name,
			"page", page,
			"items_on_page", len(env.Results))

		p.persist(ctx, false, config.RoadmapSectionPageFile(token, page), env)

		for _, rawSummary := range env.Results {
			if limit > 0 && len(collected) >= limit {
				p.logger.Info("Reached item limit for section", "section", section.Name, "limit", limit)
				return false, nil
			}
			detail := p.expandSummary(ctx, rawSummary)
			if detail == nil {
				continue
			}
			collected = append(collected, detail)
		}

		if limit > 0 && len(collected) >= limit {
			p.logger.Info("Reached item limit for section", "section", section.Name, "limit", limit)
			return false, nil
		}
		return true, nil
	})
	if err != nil {
		p.logger.Error("Section walk ended early, keeping items collected so far",
			"section", section.Name,
			"collected", len(collected),
			"error", err)
	}

	p.logger.Info("Completed roadmap section", "section", section.Name, "items", len(collected))
	return collected
}
