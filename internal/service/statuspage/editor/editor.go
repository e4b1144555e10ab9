// Package editor holds the state of one status page layout editing session:
// the working tree, the drag in progress, and the optimistic updates sent
// back to the server after each drop.
package editor

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"statusboard/internal/domain"
	models "statusboard/internal/domain/models/statuspage"
	"statusboard/internal/service/statuspage/layout"
)

var (
	// ErrDragInProgress is returned by DragStart while another drag is active
	ErrDragInProgress = errors.New("a drag is already in progress")

	// ErrNoDrag is returned by DragEnd when no drag was started
	ErrNoDrag = errors.New("no drag in progress")
)

// Updater persists a new ordering of a status page's items
type Updater interface {
	UpdateItems(ctx context.Context, statusPageID string, items []models.ServerSideItem) error
}

// Notifier surfaces failed updates to the user
type Notifier interface {
	Notify(statusPageID string, err error)
}

// NotifierFunc adapts a function to Notifier
type NotifierFunc func(statusPageID string, err error)

// Notify calls f(statusPageID, err)
func (f NotifierFunc) Notify(statusPageID string, err error) { f(statusPageID, err) }

// Option configures an Editor
type Option func(*Editor)

// WithIndentationWidth sets the horizontal distance, in pixels or cells, of one nesting level
func WithIndentationWidth(width int) Option {
	return func(e *Editor) {
		if width > 0 {
			e.indentationWidth = width
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(e *Editor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithNotifier sets where update failures are reported
func WithNotifier(n Notifier) Option {
	return func(e *Editor) {
		if n != nil {
			e.notifier = n
		}
	}
}

// WithRevertOnFailure restores the tree from before a drop when its update fails,
// unless the tree changed again in the meantime.
func WithRevertOnFailure() Option {
	return func(e *Editor) {
		e.revertOnFailure = true
	}
}

type dragState struct {
	activeID string
	overID   string
	offsetX  float64
}

// Editor is one editing view over a status page layout.
// It is safe for concurrent use; updates run in the background.
type Editor struct {
	statusPageID     string
	updater          Updater
	notifier         Notifier
	logger           *slog.Logger
	indentationWidth int
	revertOnFailure  bool

	mu         sync.Mutex
	tree       []models.TreeItem
	drag       *dragState
	generation uint64

	inflight sync.WaitGroup
}

// New creates an editor for one status page. Call Load before dragging.
func New(statusPageID string, updater Updater, opts ...Option) *Editor {
	e := &Editor{
		statusPageID:     statusPageID,
		updater:          updater,
		logger:           slog.Default(),
		indentationWidth: layout.DefaultIndentationWidth,
		tree:             []models.TreeItem{},
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.notifier == nil {
		e.notifier = NotifierFunc(func(id string, err error) {
			e.logger.Warn("status page layout was not saved", "status_page_id", id, "error", err)
		})
	}
	return e
}

// StatusPageID returns the page being edited
func (e *Editor) StatusPageID() string {
	return e.statusPageID
}

// Load replaces the working tree with one rebuilt from server data.
// Any drag in progress is discarded.
func (e *Editor) Load(items []models.ServerSideItem) {
	tree, rejected := layout.FromServerSideItemsReport(items)
	if len(rejected) > 0 {
		e.logger.Error("skipping malformed layout items",
			"error", &domain.StructureError{StatusPageID: e.statusPageID, OrphanIDs: rejected},
		)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.tree = tree
	e.drag = nil
	e.generation++
}

// Tree returns a copy of the working tree
func (e *Editor) Tree() []models.TreeItem {
	e.mu.Lock()
	defer e.mu.Unlock()
	return layout.CloneTree(e.tree)
}

// Flattened returns the visible flat list: children of collapsed groups
// and of the dragged item are hidden.
func (e *Editor) Flattened() []models.FlattenedItem {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.visibleLocked()
}

func (e *Editor) visibleLocked() []models.FlattenedItem {
	flat := layout.Flatten(e.tree)

	var hidden []string
	for _, item := range flat {
		if item.Collapsed && len(item.Children) > 0 {
			hidden = append(hidden, item.ID)
		}
	}
	if e.drag != nil {
		hidden = append(hidden, e.drag.activeID)
	}
	if len(hidden) == 0 {
		return flat
	}
	return layout.RemoveChildrenOf(flat, hidden)
}

// ToggleCollapsed flips the collapsed flag of a group and returns the new value.
// ok is false when id is not a group in the tree.
func (e *Editor) ToggleCollapsed(id string) (collapsed, ok bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	item, found := layout.FindItemDeep(e.tree, id)
	if !found || !item.Data.IsGroup() {
		return false, false
	}
	collapsed = !item.Collapsed
	e.tree = layout.SetCollapsed(e.tree, id, collapsed)
	return collapsed, true
}

// Dragging returns the id of the dragged item, if any
func (e *Editor) Dragging() (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.drag == nil {
		return "", false
	}
	return e.drag.activeID, true
}

// DragStart begins dragging activeID
func (e *Editor) DragStart(activeID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.drag != nil {
		return ErrDragInProgress
	}
	if _, ok := layout.FindItemDeep(e.tree, activeID); !ok {
		return layout.ErrItemNotFound
	}
	e.drag = &dragState{activeID: activeID, overID: activeID}
	return nil
}

// DragMove records the item under the pointer and the horizontal offset
// since the drag started, and returns the projected placement.
// ok is false when there is no drag or overID is not visible.
func (e *Editor) DragMove(overID string, offsetX float64) (models.Projection, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.drag == nil {
		return models.Projection{}, false
	}
	e.drag.overID = overID
	e.drag.offsetX = offsetX
	return e.projectLocked()
}

func (e *Editor) projectLocked() (models.Projection, bool) {
	if e.drag.overID == "" {
		return models.Projection{}, false
	}
	return layout.GetProjection(e.visibleLocked(), e.drag.activeID, e.drag.overID, e.drag.offsetX, e.indentationWidth)
}

// DragCancel abandons the drag without changing the tree
func (e *Editor) DragCancel() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.drag = nil
}

// DragEnd drops the dragged item at its projected place, applies the new tree
// immediately and sends it to the server in the background using ctx.
// A drop with no valid target leaves the tree as it was.
func (e *Editor) DragEnd(ctx context.Context) ([]models.TreeItem, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.drag == nil {
		return nil, ErrNoDrag
	}
	projection, ok := e.projectLocked()
	drag := *e.drag
	e.drag = nil
	if !ok {
		return layout.CloneTree(e.tree), nil
	}

	next, orphans, err := layout.ApplyDropReport(e.tree, drag.activeID, drag.overID, projection)
	if err != nil {
		return nil, err
	}
	if len(orphans) > 0 {
		e.logger.Error("drop orphaned layout items",
			"error", &domain.StructureError{StatusPageID: e.statusPageID, OrphanIDs: orphans},
		)
	}

	previous := e.tree
	e.tree = next
	e.generation++
	e.sendLocked(ctx, e.generation, previous, layout.ToServerSideItems(next))

	e.logger.Debug("layout item dropped",
		"status_page_id", e.statusPageID,
		"active_id", drag.activeID,
		"over_id", drag.overID,
		"depth", projection.Depth,
	)
	return layout.CloneTree(next), nil
}

func (e *Editor) sendLocked(ctx context.Context, generation uint64, previous []models.TreeItem, payload []models.ServerSideItem) {
	e.inflight.Add(1)
	go func() {
		defer e.inflight.Done()

		err := e.updater.UpdateItems(ctx, e.statusPageID, payload)
		if err == nil {
			return
		}
		e.logger.Error("update status page items", "status_page_id", e.statusPageID, "error", err)
		e.notifier.Notify(e.statusPageID, err)

		if !e.revertOnFailure {
			return
		}
		e.mu.Lock()
		defer e.mu.Unlock()
		if e.generation == generation {
			e.tree = keepCollapsed(previous, e.tree)
			e.generation++
		}
	}()
}

// keepCollapsed returns restored with the collapsed flags of groups in current,
// so a revert does not undo toggles made after the drop
func keepCollapsed(restored, current []models.TreeItem) []models.TreeItem {
	out := layout.CloneTree(restored)
	for _, item := range layout.Flatten(current) {
		if !item.Data.IsGroup() {
			continue
		}
		if target, ok := layout.FindItemDeep(out, item.ID); ok {
			target.Collapsed = item.Collapsed
		}
	}
	return out
}

// Wait blocks until every update sent so far has finished
func (e *Editor) Wait() {
	e.inflight.Wait()
}
