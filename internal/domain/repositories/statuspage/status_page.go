package statuspage

import (
	"context"

	models "statusboard/internal/domain/models/statuspage"
)

// StatusPageRepository defines data access operations for status pages and their layout items
type StatusPageRepository interface {
	// Create inserts a status page together with its components, groups and items.
	// Items are stored in the nesting and rank order given.
	Create(ctx context.Context, page *models.StatusPage) error

	// GetByID retrieves a status page without its items
	GetByID(ctx context.Context, id string) (*models.StatusPage, error)

	// GetByIDForUpdate is GetByID that also locks the page against concurrent
	// layout writes until the surrounding transaction ends
	GetByIDForUpdate(ctx context.Context, id string) (*models.StatusPage, error)

	// List retrieves all status pages (without items), newest first
	List(ctx context.Context) ([]models.StatusPage, error)

	// ListItems retrieves the flat layout rows of a status page ordered by rank
	ListItems(ctx context.Context, statusPageID string) ([]models.ItemRecord, error)

	// UpdatePositions rewrites parent and rank for existing items
	UpdatePositions(ctx context.Context, statusPageID string, positions []models.ItemPosition) error
}
