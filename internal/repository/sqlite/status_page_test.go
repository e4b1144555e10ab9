package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"statusboard/internal/domain"
	models "statusboard/internal/domain/models/statuspage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *StatusPageRepository {
	t.Helper()
	db, err := Open(context.Background(), "file::memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return &StatusPageRepository{db: db}
}

func samplePage(id, subdomain string) *models.StatusPage {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return &models.StatusPage{
		ID:        id,
		Name:      "Acme",
		Subdomain: subdomain,
		CreatedAt: now,
		UpdatedAt: now,
		Items: []models.ServerSideItem{
			{
				ID:                       id + "-a",
				Rank:                     0,
				StatusPageComponentGroup: &models.Ref{ID: id + "-g", Name: "API"},
				StatusPageItems: []models.ServerSideItem{
					{ID: id + "-x", Rank: 0, StatusPageComponent: &models.Ref{ID: id + "-cx", Name: "Auth"}},
					{ID: id + "-y", Rank: 1, StatusPageComponent: &models.Ref{ID: id + "-cy", Name: "Billing"}},
				},
			},
			{ID: id + "-z", Rank: 1, StatusPageComponent: &models.Ref{ID: id + "-cz", Name: "Website"}},
		},
	}
}

func TestStatusPageRepository_CreateAndRead(t *testing.T) {
	ctx := context.Background()
	repo := openTestDB(t)

	page := samplePage("p1", "acme")
	require.NoError(t, repo.Create(ctx, page))

	got, err := repo.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Acme", got.Name)
	assert.Equal(t, "acme", got.Subdomain)
	assert.True(t, got.CreatedAt.Equal(page.CreatedAt))

	records, err := repo.ListItems(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, records, 4)

	byID := map[string]models.ItemRecord{}
	for _, r := range records {
		byID[r.ID] = r
	}
	group := byID["p1-a"]
	assert.Nil(t, group.ParentItemID)
	require.NotNil(t, group.ComponentGroupID)
	assert.Equal(t, "p1-g", *group.ComponentGroupID)
	assert.Equal(t, "API", group.Name)

	child := byID["p1-y"]
	require.NotNil(t, child.ParentItemID)
	assert.Equal(t, "p1-a", *child.ParentItemID)
	assert.Equal(t, 1, child.Rank)
	require.NotNil(t, child.ComponentID)
	assert.Equal(t, "Billing", child.Name)
}

func TestStatusPageRepository_GetByIDNotFound(t *testing.T) {
	repo := openTestDB(t)

	_, err := repo.GetByID(context.Background(), "missing")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestStatusPageRepository_DuplicateSubdomain(t *testing.T) {
	ctx := context.Background()
	repo := openTestDB(t)

	require.NoError(t, repo.Create(ctx, samplePage("p1", "acme")))
	err := repo.Create(ctx, samplePage("p2", "acme"))

	var conflict *domain.ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, "p1", conflict.ResourceID)
	assert.True(t, errors.Is(err, domain.ErrConflict))
}

func TestStatusPageRepository_List(t *testing.T) {
	ctx := context.Background()
	repo := openTestDB(t)

	older := samplePage("p1", "one")
	newer := samplePage("p2", "two")
	newer.CreatedAt = older.CreatedAt.Add(time.Hour)
	require.NoError(t, repo.Create(ctx, older))
	require.NoError(t, repo.Create(ctx, newer))

	pages, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, pages, 2)
	assert.Equal(t, "p2", pages[0].ID)
	assert.Equal(t, "p1", pages[1].ID)
	assert.Empty(t, pages[0].Items)
}

func TestStatusPageRepository_UpdatePositions(t *testing.T) {
	ctx := context.Background()
	repo := openTestDB(t)
	require.NoError(t, repo.Create(ctx, samplePage("p1", "acme")))

	parent := "p1-a"
	err := repo.UpdatePositions(ctx, "p1", []models.ItemPosition{
		{ID: "p1-a", Rank: 0},
		{ID: "p1-x", ParentItemID: &parent, Rank: 0},
		{ID: "p1-z", ParentItemID: &parent, Rank: 1},
		{ID: "p1-y", Rank: 1},
	})
	require.NoError(t, err)

	records, err := repo.ListItems(ctx, "p1")
	require.NoError(t, err)
	for _, r := range records {
		switch r.ID {
		case "p1-z":
			require.NotNil(t, r.ParentItemID)
			assert.Equal(t, "p1-a", *r.ParentItemID)
			assert.Equal(t, 1, r.Rank)
		case "p1-y":
			assert.Nil(t, r.ParentItemID)
			assert.Equal(t, 1, r.Rank)
		}
	}
}

func TestStatusPageRepository_UpdatePositionsUnknownItem(t *testing.T) {
	ctx := context.Background()
	repo := openTestDB(t)
	require.NoError(t, repo.Create(ctx, samplePage("p1", "acme")))
	require.NoError(t, repo.Create(ctx, samplePage("p2", "other")))

	// Items of another page are not reachable through this page
	err := repo.UpdatePositions(ctx, "p1", []models.ItemPosition{{ID: "p2-z", Rank: 0}})
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	missing := "nope"
	err = repo.UpdatePositions(ctx, "p1", []models.ItemPosition{{ID: "p1-z", ParentItemID: &missing}})
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestTransactionManager_RollsBack(t *testing.T) {
	ctx := context.Background()
	repo := openTestDB(t)
	tm := NewTransactionManager(repo.db)

	failure := errors.New("boom")
	err := tm.ExecTx(ctx, func(txCtx context.Context) error {
		if err := repo.Create(txCtx, samplePage("p1", "acme")); err != nil {
			return err
		}
		return failure
	})
	require.ErrorIs(t, err, failure)

	_, err = repo.GetByID(ctx, "p1")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestTransactionManager_NestedJoinsOuter(t *testing.T) {
	ctx := context.Background()
	repo := openTestDB(t)
	tm := NewTransactionManager(repo.db)

	err := tm.ExecTx(ctx, func(txCtx context.Context) error {
		return tm.ExecTx(txCtx, func(inner context.Context) error {
			return repo.Create(inner, samplePage("p1", "acme"))
		})
	})
	require.NoError(t, err)

	_, err = repo.GetByID(ctx, "p1")
	assert.NoError(t, err)
}

func TestStatusPageRepository_GetByIDForUpdate(t *testing.T) {
	ctx := context.Background()
	repo := openTestDB(t)
	page := samplePage("p1", "acme")
	require.NoError(t, repo.Create(ctx, page))
	tm := NewTransactionManager(repo.db)

	err := tm.ExecTx(ctx, func(txCtx context.Context) error {
		got, err := repo.GetByIDForUpdate(txCtx, "p1")
		require.NoError(t, err)
		assert.True(t, got.UpdatedAt.Equal(page.UpdatedAt), "locking leaves updated_at alone")

		_, err = repo.GetByIDForUpdate(txCtx, "missing")
		assert.True(t, errors.Is(err, domain.ErrNotFound))
		return nil
	})
	require.NoError(t, err)
}
