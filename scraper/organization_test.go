package scraper

import (
	"context"
	"testing"

	"featurebase-scraper/config"
	"featurebase-scraper/pkg/portal"
)

func TestOrganizationPersistsMetadata(t *testing.T) {
	f := &fakePortal{
		pageSize: 10,
		org: &portal.Organization{
			Name:        "example",
			DisplayName: "Example Inc",
			Picture:     "https://cdn.example.com/logo.png",
		},
	}
	p, sink, _ := newTestPipeline(t, f)

	org, err := p.Organization(context.Background())
	if err != nil {
		t.Fatalf("Organization failed: %v", err)
	}
	if org.DisplayName != "Example Inc" {
		t.Errorf("DisplayName = %q", org.DisplayName)
	}

	saved, ok := sink.mainFile(config.OrganizationFile)
	if !ok {
		t.Fatal("organization.json was never written")
	}
	if saved.(*portal.Organization).Name != "example" {
		t.Errorf("Persisted organization = %+v", saved)
	}
}

func TestOrganizationFetchFailure(t *testing.T) {
	f := &fakePortal{pageSize: 10} // org nil: endpoint answers 404
	p, sink, _ := newTestPipeline(t, f)

	if _, err := p.Organization(context.Background()); err == nil {
		t.Fatal("Expected an error when the endpoint fails")
	}
	if _, ok := sink.mainFile(config.OrganizationFile); ok {
		t.Error("Nothing should be persisted on a failed fetch")
	}
}
