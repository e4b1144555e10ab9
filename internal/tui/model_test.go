package tui

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	models "statusboard/internal/domain/models/statuspage"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	mu        sync.Mutex
	page      *models.StatusPage
	updateErr error
	updates   [][]models.ServerSideItem
}

func (f *fakeBackend) GetStatusPage(_ context.Context, id string) (*models.StatusPage, error) {
	if f.page == nil || f.page.ID != id {
		return nil, errors.New("not found")
	}
	return f.page, nil
}

func (f *fakeBackend) UpdateItems(_ context.Context, _ string, items []models.ServerSideItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, items)
	return f.updateErr
}

func (f *fakeBackend) lastUpdate(t *testing.T) []models.ServerSideItem {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.updates)
	return f.updates[len(f.updates)-1]
}

// acmePage is API [Auth, Billing], Website
func acmePage() *models.StatusPage {
	return &models.StatusPage{
		ID:   "page-1",
		Name: "Acme",
		Items: []models.ServerSideItem{
			{
				ID:                       "api",
				Rank:                     0,
				StatusPageComponentGroup: &models.Ref{ID: "g-api", Name: "API"},
				StatusPageItems: []models.ServerSideItem{
					{ID: "auth", Rank: 0, StatusPageComponent: &models.Ref{ID: "c-auth", Name: "Auth"}},
					{ID: "billing", Rank: 1, StatusPageComponent: &models.Ref{ID: "c-billing", Name: "Billing"}},
				},
			},
			{ID: "website", Rank: 1, StatusPageComponent: &models.Ref{ID: "c-website", Name: "Website"}},
		},
	}
}

func newLoadedModel(t *testing.T, backend *fakeBackend, cfg Config) Model {
	t.Helper()
	cfg.StatusPageID = "page-1"
	cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	m := New(context.Background(), backend, cfg)

	msg := m.load()()
	require.IsType(t, pageLoadedMsg{}, msg)
	return update(t, m, msg)
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

func press(t *testing.T, m Model, keys ...tea.KeyMsg) Model {
	t.Helper()
	for _, k := range keys {
		m = update(t, m, k)
	}
	return m
}

var (
	keyUp    = tea.KeyMsg{Type: tea.KeyUp}
	keyDown  = tea.KeyMsg{Type: tea.KeyDown}
	keyLeft  = tea.KeyMsg{Type: tea.KeyLeft}
	keyRight = tea.KeyMsg{Type: tea.KeyRight}
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keyEsc   = tea.KeyMsg{Type: tea.KeyEsc}
	keySpace = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
)

func flatIDs(m Model) []string {
	var ids []string
	for _, item := range m.editor.Flattened() {
		ids = append(ids, item.ID)
	}
	return ids
}

func TestModel_LoadRendersTree(t *testing.T) {
	m := newLoadedModel(t, &fakeBackend{page: acmePage()}, Config{})

	assert.False(t, m.loading)
	assert.Equal(t, []string{"api", "auth", "billing", "website"}, flatIDs(m))

	view := m.View()
	assert.Contains(t, view, "Acme")
	assert.Contains(t, view, "Billing")
	assert.Contains(t, view, "Website")
}

func TestModel_LoadFailure(t *testing.T) {
	m := New(context.Background(), &fakeBackend{}, Config{StatusPageID: "missing"})
	m = update(t, m, m.load()())

	require.Error(t, m.err)
	assert.Contains(t, m.View(), "load status page")
}

func TestModel_CursorStaysInBounds(t *testing.T) {
	m := newLoadedModel(t, &fakeBackend{page: acmePage()}, Config{})

	m = press(t, m, keyUp)
	assert.Equal(t, 0, m.cursor)

	m = press(t, m, keyDown, keyDown, keyDown, keyDown, keyDown)
	assert.Equal(t, 3, m.cursor)
}

func TestModel_CollapseHidesChildren(t *testing.T) {
	m := newLoadedModel(t, &fakeBackend{page: acmePage()}, Config{})

	m = press(t, m, keySpace)
	assert.Equal(t, []string{"api", "website"}, flatIDs(m))
	assert.Contains(t, m.View(), "(2)")

	m = press(t, m, keySpace)
	assert.Equal(t, []string{"api", "auth", "billing", "website"}, flatIDs(m))
}

func TestModel_MoveComponentIntoGroup(t *testing.T) {
	backend := &fakeBackend{page: acmePage()}
	m := newLoadedModel(t, backend, Config{})

	// grab Website and hover over Billing, the last child of API
	m = press(t, m, keyDown, keyDown, keyDown, keyEnter, keyUp)
	require.True(t, m.isDragging())
	assert.Equal(t, "billing", m.overID)
	require.True(t, m.projected)
	assert.Equal(t, 1, m.projection.Depth)
	require.NotNil(t, m.projection.ParentID)
	assert.Equal(t, "api", *m.projection.ParentID)

	m = press(t, m, keyEnter)
	m.editor.Wait()
	assert.False(t, m.isDragging())
	assert.Equal(t, "moved Website", m.status)

	tree := m.editor.Tree()
	require.Len(t, tree, 1)
	var children []string
	for _, c := range tree[0].Children {
		children = append(children, c.ID)
	}
	assert.Equal(t, []string{"auth", "website", "billing"}, children)
	assert.Equal(t, "website", m.editor.Flattened()[m.cursor].ID)

	sent := backend.lastUpdate(t)
	require.Len(t, sent, 1)
	require.Len(t, sent[0].StatusPageItems, 3)
	assert.Equal(t, "website", sent[0].StatusPageItems[1].ID)
	assert.Equal(t, 1, sent[0].StatusPageItems[1].Rank)
}

func TestModel_OutdentMovesOutOfGroup(t *testing.T) {
	backend := &fakeBackend{page: acmePage()}
	m := newLoadedModel(t, backend, Config{})

	// grab Billing in place and drag it one level left
	m = press(t, m, keyDown, keyDown, keyEnter)
	assert.Equal(t, 1, m.projection.Depth)

	m = press(t, m, keyLeft)
	assert.Equal(t, 0, m.projection.Depth)
	assert.Nil(t, m.projection.ParentID)

	// the offset is clamped, so one step right is back inside the group
	m = press(t, m, keyLeft, keyLeft, keyRight)
	assert.Equal(t, 1, m.projection.Depth)

	m = press(t, m, keyLeft, keyEnter)
	m.editor.Wait()
	var roots []string
	for _, item := range m.editor.Tree() {
		roots = append(roots, item.ID)
	}
	assert.Equal(t, []string{"api", "billing", "website"}, roots)
}

func TestModel_GroupStaysAtRoot(t *testing.T) {
	m := newLoadedModel(t, &fakeBackend{page: acmePage()}, Config{})

	// grab API and hover over Website
	m = press(t, m, keyEnter)
	assert.Equal(t, []string{"api", "website"}, flatIDs(m))
	m = press(t, m, keyDown, keyRight, keyRight)
	assert.Equal(t, 0, m.projection.Depth)
	assert.Nil(t, m.projection.ParentID)

	view := m.View()
	assert.Less(t, strings.Index(view, "Website"), strings.Index(view, "API"))
}

func TestModel_CancelLeavesTree(t *testing.T) {
	backend := &fakeBackend{page: acmePage()}
	m := newLoadedModel(t, backend, Config{})

	m = press(t, m, keyDown, keyDown, keyDown, keyEnter, keyUp, keyUp, keyEsc)
	assert.False(t, m.isDragging())
	assert.Equal(t, []string{"api", "auth", "billing", "website"}, flatIDs(m))

	m.editor.Wait()
	assert.Empty(t, backend.updates)
}

func TestModel_UpdateFailureIsShown(t *testing.T) {
	backend := &fakeBackend{page: acmePage(), updateErr: errors.New("boom")}
	m := newLoadedModel(t, backend, Config{RevertOnFailure: true})

	m = press(t, m, keyDown, keyDown, keyDown, keyEnter, keyUp, keyEnter)
	m.editor.Wait()

	msg := waitForFailure(m.failures)()
	m = update(t, m, msg)
	require.Error(t, m.err)
	assert.Contains(t, m.View(), "boom")

	// reverted to the loaded layout
	assert.Equal(t, []string{"api", "auth", "billing", "website"}, flatIDs(m))
}

func TestModel_QuitWhileBrowsing(t *testing.T) {
	m := newLoadedModel(t, &fakeBackend{page: acmePage()}, Config{})

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}
