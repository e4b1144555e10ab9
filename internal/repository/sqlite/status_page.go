package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"statusboard/internal/domain"
	models "statusboard/internal/domain/models/statuspage"
	spRepo "statusboard/internal/domain/repositories/statuspage"
)

// StatusPageRepository implements the status page repository on SQLite
type StatusPageRepository struct {
	db *sql.DB
}

// NewStatusPageRepository creates a new status page repository
func NewStatusPageRepository(db *sql.DB) spRepo.StatusPageRepository {
	return &StatusPageRepository{db: db}
}

// Create inserts the page, then its components, groups and items
func (r *StatusPageRepository) Create(ctx context.Context, page *models.StatusPage) error {
	executor := getExecutor(ctx, r.db)
	_, err := executor.ExecContext(ctx, `
		INSERT INTO status_pages (id, name, subdomain, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, page.ID, page.Name, page.Subdomain, formatTime(page.CreatedAt), formatTime(page.UpdatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			conflict := &domain.ConflictError{
				Message:      fmt.Sprintf("subdomain '%s' already exists", page.Subdomain),
				ResourceType: "status_page",
			}
			_ = executor.QueryRowContext(ctx, `SELECT id FROM status_pages WHERE subdomain = ?`, page.Subdomain).
				Scan(&conflict.ResourceID)
			return conflict
		}
		return fmt.Errorf("create status page: %w", err)
	}

	return r.insertItems(ctx, executor, page.ID, nil, page.Items)
}

func (r *StatusPageRepository) insertItems(ctx context.Context, executor executor, statusPageID string, parentID *string, items []models.ServerSideItem) error {
	for _, item := range items {
		var componentID, groupID *string
		switch {
		case item.StatusPageComponentGroup != nil:
			if _, err := executor.ExecContext(ctx,
				`INSERT INTO status_page_component_groups (id, status_page_id, name) VALUES (?, ?, ?)`,
				item.StatusPageComponentGroup.ID, statusPageID, item.StatusPageComponentGroup.Name,
			); err != nil {
				return fmt.Errorf("create component group: %w", err)
			}
			groupID = &item.StatusPageComponentGroup.ID
		case item.StatusPageComponent != nil:
			if _, err := executor.ExecContext(ctx,
				`INSERT INTO status_page_components (id, status_page_id, name) VALUES (?, ?, ?)`,
				item.StatusPageComponent.ID, statusPageID, item.StatusPageComponent.Name,
			); err != nil {
				return fmt.Errorf("create component: %w", err)
			}
			componentID = &item.StatusPageComponent.ID
		default:
			return fmt.Errorf("item %s has no component or group: %w", item.ID, domain.ErrValidation)
		}

		if _, err := executor.ExecContext(ctx, `
			INSERT INTO status_page_items (id, status_page_id, parent_item_id, rank, component_id, component_group_id)
			VALUES (?, ?, ?, ?, ?, ?)
		`, item.ID, statusPageID, parentID, item.Rank, componentID, groupID); err != nil {
			return fmt.Errorf("create status page item: %w", err)
		}

		if len(item.StatusPageItems) > 0 {
			id := item.ID
			if err := r.insertItems(ctx, executor, statusPageID, &id, item.StatusPageItems); err != nil {
				return err
			}
		}
	}
	return nil
}

// GetByID retrieves a status page without its items
func (r *StatusPageRepository) GetByID(ctx context.Context, id string) (*models.StatusPage, error) {
	row := getExecutor(ctx, r.db).QueryRowContext(ctx, `
		SELECT id, name, subdomain, created_at, updated_at
		FROM status_pages
		WHERE id = ?
	`, id)

	page, err := scanStatusPage(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("status page %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get status page: %w", err)
	}
	return page, nil
}

// GetByIDForUpdate takes the database write lock before reading the page.
// The no-op UPDATE acquires the lock inside a deferred transaction.
func (r *StatusPageRepository) GetByIDForUpdate(ctx context.Context, id string) (*models.StatusPage, error) {
	if _, err := getExecutor(ctx, r.db).ExecContext(ctx,
		`UPDATE status_pages SET updated_at = updated_at WHERE id = ?`, id,
	); err != nil {
		return nil, fmt.Errorf("lock status page: %w", err)
	}
	return r.GetByID(ctx, id)
}

// List retrieves all status pages, newest first
func (r *StatusPageRepository) List(ctx context.Context) ([]models.StatusPage, error) {
	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, `
		SELECT id, name, subdomain, created_at, updated_at
		FROM status_pages
		ORDER BY created_at DESC, id
	`)
	if err != nil {
		return nil, fmt.Errorf("list status pages: %w", err)
	}
	defer rows.Close()

	pages := []models.StatusPage{}
	for rows.Next() {
		page, err := scanStatusPage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan status page: %w", err)
		}
		pages = append(pages, *page)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate status pages: %w", err)
	}
	return pages, nil
}

// ListItems retrieves the flat layout rows of a status page ordered by rank
func (r *StatusPageRepository) ListItems(ctx context.Context, statusPageID string) ([]models.ItemRecord, error) {
	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, `
		SELECT i.id, i.status_page_id, i.parent_item_id, i.rank,
		       i.component_id, i.component_group_id, COALESCE(c.name, g.name, '')
		FROM status_page_items i
		LEFT JOIN status_page_components c ON c.id = i.component_id
		LEFT JOIN status_page_component_groups g ON g.id = i.component_group_id
		WHERE i.status_page_id = ?
		ORDER BY i.rank, i.id
	`, statusPageID)
	if err != nil {
		return nil, fmt.Errorf("list status page items: %w", err)
	}
	defer rows.Close()

	records := []models.ItemRecord{}
	for rows.Next() {
		var (
			rec                        models.ItemRecord
			parentID, componentID, gID sql.NullString
		)
		if err := rows.Scan(&rec.ID, &rec.StatusPageID, &parentID, &rec.Rank, &componentID, &gID, &rec.Name); err != nil {
			return nil, fmt.Errorf("scan status page item: %w", err)
		}
		rec.ParentItemID = nullableString(parentID)
		rec.ComponentID = nullableString(componentID)
		rec.ComponentGroupID = nullableString(gID)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate status page items: %w", err)
	}
	return records, nil
}

// UpdatePositions rewrites parent and rank of existing items and touches the page
func (r *StatusPageRepository) UpdatePositions(ctx context.Context, statusPageID string, positions []models.ItemPosition) error {
	executor := getExecutor(ctx, r.db)
	for _, pos := range positions {
		result, err := executor.ExecContext(ctx, `
			UPDATE status_page_items
			SET parent_item_id = ?, rank = ?
			WHERE id = ? AND status_page_id = ?
		`, pos.ParentItemID, pos.Rank, pos.ID, statusPageID)
		if err != nil {
			if isForeignKeyViolation(err) {
				return fmt.Errorf("item %s parent: %w", pos.ID, domain.ErrValidation)
			}
			return fmt.Errorf("update item position: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("update item position: %w", err)
		}
		if affected == 0 {
			return fmt.Errorf("status page item %s: %w", pos.ID, domain.ErrNotFound)
		}
	}

	if _, err := executor.ExecContext(ctx,
		`UPDATE status_pages SET updated_at = ? WHERE id = ?`,
		formatTime(time.Now()), statusPageID,
	); err != nil {
		return fmt.Errorf("touch status page: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanStatusPage(s scanner) (*models.StatusPage, error) {
	var (
		page               models.StatusPage
		createdAt, updated string
	)
	if err := s.Scan(&page.ID, &page.Name, &page.Subdomain, &createdAt, &updated); err != nil {
		return nil, err
	}

	var err error
	if page.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if page.UpdatedAt, err = time.Parse(timeLayout, updated); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	return &page, nil
}

// Fixed-width UTC text so stored timestamps sort lexically
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func nullableString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}
