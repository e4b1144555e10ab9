package statuspage

import (
	"context"
	"fmt"

	"statusboard/internal/domain"
	models "statusboard/internal/domain/models/statuspage"
	spRepo "statusboard/internal/domain/repositories/statuspage"
	"statusboard/internal/repository/postgres"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStatusPageRepository implements the StatusPageRepository interface
type PostgresStatusPageRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
}

// NewStatusPageRepository creates a new status page repository
func NewStatusPageRepository(config *postgres.RepositoryConfig) spRepo.StatusPageRepository {
	return &PostgresStatusPageRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// Create inserts the page, then its components, groups and items.
// Run it inside a transaction so a failure leaves nothing behind.
func (r *PostgresStatusPageRepository) Create(ctx context.Context, page *models.StatusPage) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, name, subdomain, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`, r.tables.StatusPages)

	executor := postgres.GetExecutor(ctx, r.pool)
	_, err := executor.Exec(ctx, query,
		page.ID,
		page.Name,
		page.Subdomain,
		page.CreatedAt,
		page.UpdatedAt,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err, r.subdomainConstraint()) {
			existingID, queryErr := r.getIDBySubdomain(ctx, page.Subdomain)
			if queryErr != nil {
				return fmt.Errorf("subdomain '%s' already exists: %w", page.Subdomain, domain.ErrConflict)
			}
			return &domain.ConflictError{
				Message:      fmt.Sprintf("subdomain '%s' already exists", page.Subdomain),
				ResourceType: "status_page",
				ResourceID:   existingID,
			}
		}
		return fmt.Errorf("create status page: %w", err)
	}

	return r.insertItems(ctx, page.ID, nil, page.Items)
}

func (r *PostgresStatusPageRepository) insertItems(ctx context.Context, statusPageID string, parentID *string, items []models.ServerSideItem) error {
	executor := postgres.GetExecutor(ctx, r.pool)

	for _, item := range items {
		var componentID, groupID *string
		switch {
		case item.StatusPageComponentGroup != nil:
			query := fmt.Sprintf(`INSERT INTO %s (id, status_page_id, name) VALUES ($1, $2, $3)`, r.tables.ComponentGroups)
			if _, err := executor.Exec(ctx, query, item.StatusPageComponentGroup.ID, statusPageID, item.StatusPageComponentGroup.Name); err != nil {
				return fmt.Errorf("create component group: %w", err)
			}
			groupID = &item.StatusPageComponentGroup.ID
		case item.StatusPageComponent != nil:
			query := fmt.Sprintf(`INSERT INTO %s (id, status_page_id, name) VALUES ($1, $2, $3)`, r.tables.Components)
			if _, err := executor.Exec(ctx, query, item.StatusPageComponent.ID, statusPageID, item.StatusPageComponent.Name); err != nil {
				return fmt.Errorf("create component: %w", err)
			}
			componentID = &item.StatusPageComponent.ID
		default:
			return fmt.Errorf("item %s has no component or group: %w", item.ID, domain.ErrValidation)
		}

		query := fmt.Sprintf(`
			INSERT INTO %s (id, status_page_id, parent_item_id, rank, component_id, component_group_id)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, r.tables.Items)
		if _, err := executor.Exec(ctx, query, item.ID, statusPageID, parentID, item.Rank, componentID, groupID); err != nil {
			switch {
			case postgres.IsUniqueViolation(err, ""):
				return fmt.Errorf("status page item %s: %w", item.ID, domain.ErrConflict)
			case postgres.IsCheckViolation(err):
				return fmt.Errorf("status page item %s: %w", item.ID, domain.ErrValidation)
			}
			return fmt.Errorf("create status page item: %w", err)
		}

		if len(item.StatusPageItems) > 0 {
			id := item.ID
			if err := r.insertItems(ctx, statusPageID, &id, item.StatusPageItems); err != nil {
				return err
			}
		}
	}
	return nil
}

// GetByID retrieves a status page without its items
func (r *PostgresStatusPageRepository) GetByID(ctx context.Context, id string) (*models.StatusPage, error) {
	return r.getByID(ctx, id, "")
}

// GetByIDForUpdate locks the page row; call it inside ExecTx
func (r *PostgresStatusPageRepository) GetByIDForUpdate(ctx context.Context, id string) (*models.StatusPage, error) {
	return r.getByID(ctx, id, "FOR UPDATE")
}

func (r *PostgresStatusPageRepository) getByID(ctx context.Context, id, lock string) (*models.StatusPage, error) {
	query := fmt.Sprintf(`
		SELECT id, name, subdomain, created_at, updated_at
		FROM %s
		WHERE id = $1
		%s
	`, r.tables.StatusPages, lock)

	var page models.StatusPage
	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, id).Scan(
		&page.ID,
		&page.Name,
		&page.Subdomain,
		&page.CreatedAt,
		&page.UpdatedAt,
	)
	if err != nil {
		if postgres.IsNoRows(err) {
			return nil, fmt.Errorf("status page %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get status page: %w", err)
	}

	return &page, nil
}

// List retrieves all status pages, newest first
func (r *PostgresStatusPageRepository) List(ctx context.Context) ([]models.StatusPage, error) {
	query := fmt.Sprintf(`
		SELECT id, name, subdomain, created_at, updated_at
		FROM %s
		ORDER BY created_at DESC
	`, r.tables.StatusPages)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list status pages: %w", err)
	}
	defer rows.Close()

	pages := []models.StatusPage{}
	for rows.Next() {
		var page models.StatusPage
		if err := rows.Scan(&page.ID, &page.Name, &page.Subdomain, &page.CreatedAt, &page.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan status page: %w", err)
		}
		pages = append(pages, page)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate status pages: %w", err)
	}

	return pages, nil
}

// ListItems retrieves the flat layout rows of a status page ordered by rank
func (r *PostgresStatusPageRepository) ListItems(ctx context.Context, statusPageID string) ([]models.ItemRecord, error) {
	query := fmt.Sprintf(`
		SELECT i.id, i.status_page_id, i.parent_item_id, i.rank,
		       i.component_id, i.component_group_id, COALESCE(c.name, g.name, '')
		FROM %s i
		LEFT JOIN %s c ON c.id = i.component_id
		LEFT JOIN %s g ON g.id = i.component_group_id
		WHERE i.status_page_id = $1
		ORDER BY i.rank, i.id
	`, r.tables.Items, r.tables.Components, r.tables.ComponentGroups)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, statusPageID)
	if err != nil {
		return nil, fmt.Errorf("list status page items: %w", err)
	}
	defer rows.Close()

	records := []models.ItemRecord{}
	for rows.Next() {
		var rec models.ItemRecord
		err := rows.Scan(
			&rec.ID,
			&rec.StatusPageID,
			&rec.ParentItemID,
			&rec.Rank,
			&rec.ComponentID,
			&rec.ComponentGroupID,
			&rec.Name,
		)
		if err != nil {
			return nil, fmt.Errorf("scan status page item: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate status page items: %w", err)
	}

	return records, nil
}

// UpdatePositions rewrites parent and rank of existing items and touches the page
func (r *PostgresStatusPageRepository) UpdatePositions(ctx context.Context, statusPageID string, positions []models.ItemPosition) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET parent_item_id = $1, rank = $2
		WHERE id = $3 AND status_page_id = $4
	`, r.tables.Items)

	executor := postgres.GetExecutor(ctx, r.pool)
	for _, pos := range positions {
		result, err := executor.Exec(ctx, query, pos.ParentItemID, pos.Rank, pos.ID, statusPageID)
		if err != nil {
			if postgres.IsForeignKeyViolation(err) {
				return fmt.Errorf("item %s parent: %w", pos.ID, domain.ErrValidation)
			}
			return fmt.Errorf("update item position: %w", err)
		}
		if result.RowsAffected() == 0 {
			return fmt.Errorf("status page item %s: %w", pos.ID, domain.ErrNotFound)
		}
	}

	touch := fmt.Sprintf(`UPDATE %s SET updated_at = NOW() WHERE id = $1`, r.tables.StatusPages)
	if _, err := executor.Exec(ctx, touch, statusPageID); err != nil {
		return fmt.Errorf("touch status page: %w", err)
	}
	return nil
}

// subdomainConstraint is the default name PostgreSQL gives the UNIQUE on subdomain
func (r *PostgresStatusPageRepository) subdomainConstraint() string {
	return r.tables.StatusPages + "_subdomain_key"
}

func (r *PostgresStatusPageRepository) getIDBySubdomain(ctx context.Context, subdomain string) (string, error) {
	query := fmt.Sprintf(`SELECT id FROM %s WHERE subdomain = $1`, r.tables.StatusPages)

	var id string
	executor := postgres.GetExecutor(ctx, r.pool)
	if err := executor.QueryRow(ctx, query, subdomain).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}
