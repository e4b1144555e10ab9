// Package seed loads sample status pages and creates them through the layout service or the API.
package seed

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"statusboard/internal/domain"
	models "statusboard/internal/domain/models/statuspage"
	spSvc "statusboard/internal/domain/services/statuspage"

	"gopkg.in/yaml.v3"
)

//go:embed fixtures/*.yaml
var fixtureFiles embed.FS

// Fixture is the YAML document describing pages to create
type Fixture struct {
	StatusPages []spSvc.CreateStatusPageRequest `yaml:"statusPages"`
}

// DefaultFixture returns the embedded sample pages
func DefaultFixture() (*Fixture, error) {
	data, err := fixtureFiles.ReadFile("fixtures/status_pages.yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded fixture: %w", err)
	}
	return parseFixture(data)
}

// LoadFixture reads a fixture from r
func LoadFixture(r io.Reader) (*Fixture, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture: %w", err)
	}
	return parseFixture(data)
}

func parseFixture(data []byte) (*Fixture, error) {
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to unmarshal fixture: %w", err)
	}
	return &f, nil
}

// Result counts what a seeding run did
type Result struct {
	Created int
	Skipped int
	Failed  int
}

// Creator creates status pages. Both the layout service and the REST client satisfy it.
type Creator interface {
	CreateStatusPage(ctx context.Context, req *spSvc.CreateStatusPageRequest) (*models.StatusPage, error)
}

// Seeder creates fixture pages through a Creator
type Seeder struct {
	creator Creator
	logger  *slog.Logger
}

// NewSeeder creates a new seeder
func NewSeeder(creator Creator, logger *slog.Logger) *Seeder {
	return &Seeder{
		creator: creator,
		logger:  logger,
	}
}

// Seed creates every page of the fixture.
// Pages whose subdomain already exists are skipped, so seeding is idempotent.
func (s *Seeder) Seed(ctx context.Context, f *Fixture) Result {
	var res Result
	for i := range f.StatusPages {
		req := f.StatusPages[i]
		page, err := s.creator.CreateStatusPage(ctx, &req)
		switch {
		case errors.Is(err, domain.ErrConflict):
			s.logger.Info("status page already exists", "subdomain", req.Subdomain)
			res.Skipped++
		case err != nil:
			s.logger.Error("failed to create status page", "subdomain", req.Subdomain, "error", err)
			res.Failed++
		default:
			s.logger.Info("created status page",
				"id", page.ID,
				"subdomain", page.Subdomain,
				"items", len(page.Items),
			)
			res.Created++
		}
	}
	return res
}
