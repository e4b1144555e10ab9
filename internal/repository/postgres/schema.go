package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// SchemaStatements returns the DDL for the status page tables, in execution order
func SchemaStatements(tables *TableNames, tablePrefix string) []string {
	return []string{
		`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`,
		fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			name TEXT NOT NULL,
			subdomain TEXT NOT NULL UNIQUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`, tables.StatusPages),
		fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			status_page_id UUID NOT NULL REFERENCES %s(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`, tables.Components, tables.StatusPages),
		fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			status_page_id UUID NOT NULL REFERENCES %s(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`, tables.ComponentGroups, tables.StatusPages),
		fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			status_page_id UUID NOT NULL REFERENCES %s(id) ON DELETE CASCADE,
			parent_item_id UUID REFERENCES %s(id) ON DELETE CASCADE,
			rank INTEGER NOT NULL DEFAULT 0,
			component_id UUID REFERENCES %s(id) ON DELETE CASCADE,
			component_group_id UUID REFERENCES %s(id) ON DELETE CASCADE,
			CHECK ((component_id IS NULL) <> (component_group_id IS NULL))
		)`, tables.Items, tables.StatusPages, tables.Items, tables.Components, tables.ComponentGroups),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%sstatus_page_items_page_parent ON %s(status_page_id, parent_item_id, rank)`,
			tablePrefix, tables.Items),
	}
}

// RunSchema creates the status page tables if they don't exist
func RunSchema(ctx context.Context, pool *pgxpool.Pool, tables *TableNames, tablePrefix string) error {
	for _, stmt := range SchemaStatements(tables, tablePrefix) {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("run schema: %w", err)
		}
	}
	return nil
}

// DropAllTables drops the status page tables, dependents first
func DropAllTables(ctx context.Context, pool *pgxpool.Pool, tables *TableNames) error {
	all := tables.All()
	for i := len(all) - 1; i >= 0; i-- {
		if _, err := pool.Exec(ctx, "DROP TABLE IF EXISTS "+all[i]+" CASCADE"); err != nil {
			return fmt.Errorf("drop %s: %w", all[i], err)
		}
	}
	return nil
}

// ClearData deletes every status page; components, groups and items cascade
func ClearData(ctx context.Context, pool *pgxpool.Pool, tables *TableNames) error {
	if _, err := pool.Exec(ctx, "DELETE FROM "+tables.StatusPages); err != nil {
		return fmt.Errorf("clear status pages: %w", err)
	}
	return nil
}
