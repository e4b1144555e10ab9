package statuspage

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"statusboard/internal/config"
	"statusboard/internal/domain"
	models "statusboard/internal/domain/models/statuspage"
	"statusboard/internal/domain/repositories"
	spRepo "statusboard/internal/domain/repositories/statuspage"
	spSvc "statusboard/internal/domain/services/statuspage"
	"statusboard/internal/service/statuspage/layout"

	"github.com/google/uuid"
)

// layoutService implements the LayoutService interface
type layoutService struct {
	repo             spRepo.StatusPageRepository
	txManager        repositories.TransactionManager
	indentationWidth int
	logger           *slog.Logger
}

// NewLayoutService creates a new layout service.
// indentationWidth is used for drags that do not carry their own.
func NewLayoutService(
	repo spRepo.StatusPageRepository,
	txManager repositories.TransactionManager,
	indentationWidth int,
	logger *slog.Logger,
) spSvc.LayoutService {
	if indentationWidth <= 0 {
		indentationWidth = layout.DefaultIndentationWidth
	}
	return &layoutService{
		repo:             repo,
		txManager:        txManager,
		indentationWidth: indentationWidth,
		logger:           logger,
	}
}

// CreateStatusPage creates a page and its initial layout in one transaction
func (s *layoutService) CreateStatusPage(ctx context.Context, req *spSvc.CreateStatusPageRequest) (*models.StatusPage, error) {
	if err := validateCreateRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	now := time.Now()
	page := &models.StatusPage{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Subdomain: req.Subdomain,
		Items:     make([]models.ServerSideItem, 0, len(req.Items)),
		CreatedAt: now,
		UpdatedAt: now,
	}
	for rank, item := range req.Items {
		page.Items = append(page.Items, newServerSideItem(item, rank))
	}

	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		return s.repo.Create(txCtx, page)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("status page created",
		"id", page.ID,
		"subdomain", page.Subdomain,
		"item_count", len(page.Items),
	)
	return page, nil
}

func newServerSideItem(item spSvc.NewLayoutItem, rank int) models.ServerSideItem {
	ref := &models.Ref{ID: uuid.NewString(), Name: item.Name}
	serverItem := models.ServerSideItem{ID: uuid.NewString(), Rank: rank}
	if item.Type != models.ItemTypeGroup {
		serverItem.StatusPageComponent = ref
		return serverItem
	}

	serverItem.StatusPageComponentGroup = ref
	serverItem.StatusPageItems = make([]models.ServerSideItem, 0, len(item.Components))
	for childRank, name := range item.Components {
		serverItem.StatusPageItems = append(serverItem.StatusPageItems, newServerSideItem(
			spSvc.NewLayoutItem{Type: models.ItemTypeComponent, Name: name},
			childRank,
		))
	}
	return serverItem
}

// ListStatusPages lists pages without their items
func (s *layoutService) ListStatusPages(ctx context.Context) ([]models.StatusPage, error) {
	return s.repo.List(ctx)
}

// GetStatusPage returns a page with its items assembled into the server shape
func (s *layoutService) GetStatusPage(ctx context.Context, id string) (*models.StatusPage, error) {
	page, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	records, err := s.repo.ListItems(ctx, id)
	if err != nil {
		return nil, err
	}
	page.Items = s.assembleItems(id, records)
	return page, nil
}

// GetLayout returns the nested tree and its flattened form
func (s *layoutService) GetLayout(ctx context.Context, id string) (*models.Layout, error) {
	tree, err := s.loadTree(ctx, id)
	if err != nil {
		return nil, err
	}
	return newLayout(id, tree), nil
}

// Project computes the projection of an in-progress drag over the stored layout.
// Children of the dragged item are hidden, as they are in the editor.
func (s *layoutService) Project(ctx context.Context, id string, req *spSvc.DragRequest) (*models.Projection, error) {
	if err := validateDragRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	tree, err := s.loadTree(ctx, id)
	if err != nil {
		return nil, err
	}

	projection, err := s.project(tree, req)
	if err != nil {
		return nil, err
	}
	return &projection, nil
}

// Drop applies a drag and persists the resulting order.
// The depth is always recomputed here so clients cannot submit illegal nesting.
func (s *layoutService) Drop(ctx context.Context, id string, req *spSvc.DragRequest) (*models.Layout, error) {
	if err := validateDragRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	var result []models.TreeItem
	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if _, err := s.repo.GetByIDForUpdate(txCtx, id); err != nil {
			return err
		}
		tree, err := s.buildTree(txCtx, id)
		if err != nil {
			return err
		}

		projection, err := s.project(tree, req)
		if err != nil {
			return err
		}

		next, orphans, err := layout.ApplyDropReport(tree, req.ActiveID, req.OverID, projection)
		if err != nil {
			return fmt.Errorf("%w: %v", domain.ErrValidation, err)
		}
		if len(orphans) > 0 {
			s.logger.Error("drop orphaned layout items",
				"error", &domain.StructureError{StatusPageID: id, OrphanIDs: orphans},
			)
		}
		if err := layout.ValidateTree(next); err != nil {
			return fmt.Errorf("drop produced invalid layout: %w", err)
		}

		if err := s.repo.UpdatePositions(txCtx, id, positionsOf(next)); err != nil {
			return err
		}
		result = next
		s.logger.Info("layout item dropped",
			"status_page_id", id,
			"active_id", req.ActiveID,
			"over_id", req.OverID,
			"depth", projection.Depth,
			"parent_id", projection.ParentID,
		)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return newLayout(id, result), nil
}

// UpdateItems persists a complete ordering payload.
// The payload must contain exactly the page's current items, each still pointing at the same component or group.
func (s *layoutService) UpdateItems(ctx context.Context, id string, items []models.ServerSideItem) (*models.Layout, error) {
	if err := validateServerSideItems(items, "statusPageItems"); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	tree, rejected := layout.FromServerSideItemsReport(items)
	if len(rejected) > 0 {
		return nil, fmt.Errorf("%w: items %s break the nesting rules", domain.ErrValidation, strings.Join(rejected, ", "))
	}
	if err := layout.ValidateTree(tree); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	flat := layout.Flatten(tree)
	if len(flat) > config.MaxLayoutItems {
		return nil, fmt.Errorf("%w: at most %d items are allowed", domain.ErrValidation, config.MaxLayoutItems)
	}

	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if _, err := s.repo.GetByIDForUpdate(txCtx, id); err != nil {
			return err
		}
		records, err := s.repo.ListItems(txCtx, id)
		if err != nil {
			return err
		}
		if err := matchStoredItems(flat, records); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrValidation, err)
		}
		return s.repo.UpdatePositions(txCtx, id, positionsOf(tree))
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("layout reordered",
		"status_page_id", id,
		"item_count", len(flat),
	)
	return s.GetLayout(ctx, id)
}

func (s *layoutService) project(tree []models.TreeItem, req *spSvc.DragRequest) (models.Projection, error) {
	if _, ok := layout.FindItemDeep(tree, req.ActiveID); !ok {
		return models.Projection{}, &domain.NotFoundError{Message: fmt.Sprintf("layout item %s not found", req.ActiveID)}
	}
	if _, ok := layout.FindItemDeep(tree, req.OverID); !ok {
		return models.Projection{}, &domain.NotFoundError{Message: fmt.Sprintf("layout item %s not found", req.OverID)}
	}
	if layout.IsDescendant(tree, req.ActiveID, req.OverID) {
		return models.Projection{}, &domain.ValidationError{Message: "cannot drop an item over its own child"}
	}

	width := req.IndentationWidth
	if width <= 0 {
		width = s.indentationWidth
	}

	visible := layout.RemoveChildrenOf(layout.Flatten(tree), []string{req.ActiveID})
	projection, ok := layout.GetProjection(visible, req.ActiveID, req.OverID, req.OffsetX, width)
	if !ok {
		return models.Projection{}, &domain.ValidationError{Message: "drag targets are not part of the layout"}
	}
	return projection, nil
}

func (s *layoutService) loadTree(ctx context.Context, id string) ([]models.TreeItem, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.buildTree(ctx, id)
}

// buildTree reads the items of a page the caller has already looked up
func (s *layoutService) buildTree(ctx context.Context, id string) ([]models.TreeItem, error) {
	records, err := s.repo.ListItems(ctx, id)
	if err != nil {
		return nil, err
	}

	tree, rejected := layout.FromServerSideItemsReport(s.assembleItems(id, records))
	if len(rejected) > 0 {
		s.logger.Error("skipping malformed layout items",
			"error", &domain.StructureError{StatusPageID: id, OrphanIDs: rejected},
		)
	}
	return tree, nil
}

// assembleItems nests stored rows by parent and orders siblings by rank.
// Rows whose parent is missing are logged and dropped.
func (s *layoutService) assembleItems(statusPageID string, records []models.ItemRecord) []models.ServerSideItem {
	byParent := make(map[string][]models.ItemRecord, len(records))
	known := make(map[string]bool, len(records))
	for _, r := range records {
		known[r.ID] = true
	}

	var orphans []string
	for _, r := range records {
		parent := ""
		if r.ParentItemID != nil {
			parent = *r.ParentItemID
			if !known[parent] {
				orphans = append(orphans, r.ID)
				continue
			}
		}
		byParent[parent] = append(byParent[parent], r)
	}

	visited := make(map[string]bool, len(records))
	var build func(parent string) []models.ServerSideItem
	build = func(parent string) []models.ServerSideItem {
		rows := byParent[parent]
		sort.SliceStable(rows, func(i, j int) bool {
			if rows[i].Rank != rows[j].Rank {
				return rows[i].Rank < rows[j].Rank
			}
			return rows[i].ID < rows[j].ID
		})

		out := make([]models.ServerSideItem, 0, len(rows))
		for _, r := range rows {
			if visited[r.ID] {
				continue
			}
			visited[r.ID] = true
			var children []models.ServerSideItem
			if r.ComponentGroupID != nil {
				children = build(r.ID)
			}
			out = append(out, recordToItem(r, children))
		}
		return out
	}
	items := build("")

	for _, r := range records {
		if !visited[r.ID] && !contains(orphans, r.ID) {
			orphans = append(orphans, r.ID)
		}
	}
	if len(orphans) > 0 {
		s.logger.Error("dropping orphaned layout items",
			"error", &domain.StructureError{StatusPageID: statusPageID, OrphanIDs: orphans},
		)
	}
	return items
}

func recordToItem(r models.ItemRecord, children []models.ServerSideItem) models.ServerSideItem {
	item := models.ServerSideItem{ID: r.ID, Rank: r.Rank}
	switch {
	case r.ComponentGroupID != nil:
		item.StatusPageComponentGroup = &models.Ref{ID: *r.ComponentGroupID, Name: r.Name}
		item.StatusPageItems = children
	case r.ComponentID != nil:
		item.StatusPageComponent = &models.Ref{ID: *r.ComponentID, Name: r.Name}
	}
	return item
}

// matchStoredItems requires the payload to be a permutation of the stored items
func matchStoredItems(flat []models.FlattenedItem, records []models.ItemRecord) error {
	stored := make(map[string]models.ItemRecord, len(records))
	for _, r := range records {
		stored[r.ID] = r
	}
	if len(flat) != len(stored) {
		return fmt.Errorf("payload has %d items, status page has %d", len(flat), len(stored))
	}

	for _, item := range flat {
		r, ok := stored[item.ID]
		if !ok {
			return fmt.Errorf("item %s does not belong to this status page", item.ID)
		}
		var storedRef *string
		if item.Data.IsGroup() {
			storedRef = r.ComponentGroupID
		} else {
			storedRef = r.ComponentID
		}
		if storedRef == nil || *storedRef != item.Data.ID {
			return fmt.Errorf("item %s cannot change its %s", item.ID, describeRef(item.Data.ItemType))
		}
	}
	return nil
}

func describeRef(t models.ItemType) string {
	if t == models.ItemTypeGroup {
		return "component group"
	}
	return "component"
}

func positionsOf(tree []models.TreeItem) []models.ItemPosition {
	flat := layout.Flatten(tree)
	positions := make([]models.ItemPosition, 0, len(flat))
	for _, item := range flat {
		positions = append(positions, models.ItemPosition{
			ID:           item.ID,
			ParentItemID: item.ParentID,
			Rank:         item.Index,
		})
	}
	return positions
}

func newLayout(id string, tree []models.TreeItem) *models.Layout {
	if tree == nil {
		tree = []models.TreeItem{}
	}
	return &models.Layout{
		StatusPageID: id,
		Tree:         tree,
		Flattened:    layout.Flatten(tree),
	}
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
