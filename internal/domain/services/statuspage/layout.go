package statuspage

import (
	"context"

	models "statusboard/internal/domain/models/statuspage"
)

// LayoutService manages the ordering of a status page's components and groups
type LayoutService interface {
	// CreateStatusPage creates a page and its initial layout
	CreateStatusPage(ctx context.Context, req *CreateStatusPageRequest) (*models.StatusPage, error)

	// ListStatusPages lists pages without their items
	ListStatusPages(ctx context.Context) ([]models.StatusPage, error)

	// GetStatusPage returns a page with its server-shaped items
	GetStatusPage(ctx context.Context, id string) (*models.StatusPage, error)

	// GetLayout returns the nested tree and its flattened form
	GetLayout(ctx context.Context, id string) (*models.Layout, error)

	// Project computes the depth projection of an in-progress drag
	Project(ctx context.Context, id string, req *DragRequest) (*models.Projection, error)

	// Drop applies a finished drag and persists the new ordering
	Drop(ctx context.Context, id string, req *DragRequest) (*models.Layout, error)

	// UpdateItems persists a complete ordering payload
	UpdateItems(ctx context.Context, id string, items []models.ServerSideItem) (*models.Layout, error)
}

// DragRequest describes a drag gesture over the layout
type DragRequest struct {
	ActiveID         string  `json:"activeId"`
	OverID           string  `json:"overId"`
	OffsetX          float64 `json:"offsetX"`
	IndentationWidth int     `json:"indentationWidth,omitempty"` // 0 uses the server default
}

// CreateStatusPageRequest creates a status page with an initial layout
type CreateStatusPageRequest struct {
	Name      string          `json:"name" yaml:"name"`
	Subdomain string          `json:"subdomain" yaml:"subdomain"`
	Items     []NewLayoutItem `json:"items" yaml:"items"`
}

// NewLayoutItem is a component, or a group of components, to create
type NewLayoutItem struct {
	Type       models.ItemType `json:"type" yaml:"type"`
	Name       string          `json:"name" yaml:"name"`
	Components []string        `json:"components,omitempty" yaml:"components,omitempty"` // names, groups only
}

// UpdateItemsRequest is the body of an ordering update
type UpdateItemsRequest struct {
	StatusPageItems []models.ServerSideItem `json:"statusPageItems"`
}
