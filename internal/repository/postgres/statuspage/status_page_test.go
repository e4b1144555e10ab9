package statuspage

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"statusboard/internal/domain"
	models "statusboard/internal/domain/models/statuspage"
	"statusboard/internal/domain/repositories"
	"statusboard/internal/repository/postgres"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openTestRepo connects to STATUSBOARD_TEST_DATABASE_URL and creates a fresh
// set of prefixed tables that are dropped when the test ends
func openTestRepo(t *testing.T) (*PostgresStatusPageRepository, repositories.TransactionManager) {
	t.Helper()
	url := os.Getenv("STATUSBOARD_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("STATUSBOARD_TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, url, 4, 1)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	prefix := "t" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12] + "_"
	tables := postgres.NewTableNames(prefix)
	require.NoError(t, postgres.RunSchema(ctx, pool, tables, prefix))
	t.Cleanup(func() { _ = postgres.DropAllTables(context.Background(), pool, tables) })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := NewStatusPageRepository(&postgres.RepositoryConfig{Pool: pool, Tables: tables, Logger: logger})
	return repo.(*PostgresStatusPageRepository), postgres.NewTransactionManager(pool, logger)
}

// newPage is Group [Auth], Website
func newPage(subdomain string) *models.StatusPage {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &models.StatusPage{
		ID:        uuid.NewString(),
		Name:      "Acme",
		Subdomain: subdomain,
		CreatedAt: now,
		UpdatedAt: now,
		Items: []models.ServerSideItem{
			{
				ID:                       uuid.NewString(),
				Rank:                     0,
				StatusPageComponentGroup: &models.Ref{ID: uuid.NewString(), Name: "API"},
				StatusPageItems: []models.ServerSideItem{
					{ID: uuid.NewString(), Rank: 0, StatusPageComponent: &models.Ref{ID: uuid.NewString(), Name: "Auth"}},
				},
			},
			{ID: uuid.NewString(), Rank: 1, StatusPageComponent: &models.Ref{ID: uuid.NewString(), Name: "Website"}},
		},
	}
}

func TestPostgresStatusPageRepository_CreateAndRead(t *testing.T) {
	repo, tm := openTestRepo(t)
	ctx := context.Background()

	page := newPage("acme")
	require.NoError(t, tm.ExecTx(ctx, func(txCtx context.Context) error {
		return repo.Create(txCtx, page)
	}))

	got, err := repo.GetByID(ctx, page.ID)
	require.NoError(t, err)
	assert.Equal(t, "acme", got.Subdomain)

	records, err := repo.ListItems(ctx, page.ID)
	require.NoError(t, err)
	assert.Len(t, records, 3)

	err = repo.Create(ctx, newPage("acme"))
	var conflict *domain.ConflictError
	require.True(t, errors.As(err, &conflict), "got %v", err)
	assert.Equal(t, page.ID, conflict.ResourceID)

	_, err = repo.GetByIDForUpdate(ctx, uuid.NewString())
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestPostgresStatusPageRepository_GetByIDForUpdateBlocksWriters(t *testing.T) {
	repo, tm := openTestRepo(t)
	ctx := context.Background()

	page := newPage("acme")
	require.NoError(t, repo.Create(ctx, page))

	locked := make(chan struct{})
	release := make(chan struct{})
	firstDone := make(chan error, 1)
	go func() {
		firstDone <- tm.ExecTx(ctx, func(txCtx context.Context) error {
			if _, err := repo.GetByIDForUpdate(txCtx, page.ID); err != nil {
				return err
			}
			close(locked)
			<-release
			return nil
		})
	}()
	<-locked

	secondDone := make(chan error, 1)
	go func() {
		secondDone <- tm.ExecTx(ctx, func(txCtx context.Context) error {
			_, err := repo.GetByIDForUpdate(txCtx, page.ID)
			return err
		})
	}()

	assert.Never(t, func() bool { return len(secondDone) > 0 }, 200*time.Millisecond, 20*time.Millisecond,
		"second writer must wait for the first transaction")

	close(release)
	require.NoError(t, <-firstDone)
	select {
	case err := <-secondDone:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("second writer never acquired the lock")
	}
}

func TestPostgresStatusPageRepository_UpdatePositions(t *testing.T) {
	repo, _ := openTestRepo(t)
	ctx := context.Background()

	page := newPage("acme")
	require.NoError(t, repo.Create(ctx, page))
	groupItem, authItem, websiteItem := page.Items[0].ID, page.Items[0].StatusPageItems[0].ID, page.Items[1].ID

	err := repo.UpdatePositions(ctx, page.ID, []models.ItemPosition{
		{ID: groupItem, Rank: 0},
		{ID: websiteItem, ParentItemID: &groupItem, Rank: 0},
		{ID: authItem, ParentItemID: &groupItem, Rank: 1},
	})
	require.NoError(t, err)

	records, err := repo.ListItems(ctx, page.ID)
	require.NoError(t, err)
	for _, rec := range records {
		if rec.ID == websiteItem {
			require.NotNil(t, rec.ParentItemID)
			assert.Equal(t, groupItem, *rec.ParentItemID)
		}
	}

	err = repo.UpdatePositions(ctx, page.ID, []models.ItemPosition{{ID: uuid.NewString(), Rank: 0}})
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}
