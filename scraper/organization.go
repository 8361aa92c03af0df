package scraper

import (
	"context"
	"fmt"

	"featurebase-scraper/config"
	"featurebase-scraper/pkg/portal"
)

// Organization fetches the portal's organization metadata, trims it to the
// stable field set, and persists it to the main tree. The fetch failing is
// fatal to this run; nothing else depends on it.
func (p *Pipeline) Organization(ctx context.Context) (*portal.Organization, error) {
	org, err := p.client.Organization(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch organization data: %w", err)
	}

	p.logger.Info("Fetched organization data",
		"name", org.Name,
		"display_name", org.DisplayName,
		"roadmaps", len(org.Roadmaps))

	if err := p.sink.WriteMain(ctx, config.OrganizationFile, org); err != nil {
		return nil, fmt.Errorf("save organization data: %w", err)
	}
	return org, nil
}
