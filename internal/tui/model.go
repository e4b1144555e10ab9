// Package tui is a terminal editor for the layout of one status page.
//
// Items are moved with the keyboard: up/down choose the item to drop over and
// left/right shift the drop one nesting level, standing in for the horizontal
// pointer offset of a mouse drag.
package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	models "statusboard/internal/domain/models/statuspage"
	"statusboard/internal/service/statuspage/editor"
	"statusboard/internal/service/statuspage/layout"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Backend loads a page and receives ordering updates
type Backend interface {
	editor.Updater
	GetStatusPage(ctx context.Context, id string) (*models.StatusPage, error)
}

// Config configures the editor session
type Config struct {
	StatusPageID     string
	IndentationWidth int
	RevertOnFailure  bool
	Logger           *slog.Logger
}

// --- Messages ---

type pageLoadedMsg struct {
	page *models.StatusPage
}

type loadFailedMsg struct {
	err error
}

type updateFailedMsg struct {
	err error
}

// --- Model ---

// Model is the bubbletea model of the layout editor
type Model struct {
	ctx     context.Context
	backend Backend
	editor  *editor.Editor
	width   int // one nesting level, in drag offset units

	keys  keyMap
	help  help.Model
	style styles

	failures chan error

	pageName string
	loading  bool
	cursor   int

	// drag state mirrored from the editor for rendering
	overID     string
	offsetX    float64
	projection models.Projection
	projected  bool

	status string
	err    error
}

// New creates the model. ctx bounds page loads and ordering updates.
func New(ctx context.Context, backend Backend, cfg Config) Model {
	width := cfg.IndentationWidth
	if width <= 0 {
		width = layout.DefaultIndentationWidth
	}
	failures := make(chan error, 8)

	opts := []editor.Option{
		editor.WithIndentationWidth(width),
		editor.WithLogger(cfg.Logger),
		editor.WithNotifier(editor.NotifierFunc(func(_ string, err error) {
			select {
			case failures <- err:
			default:
			}
		})),
	}
	if cfg.RevertOnFailure {
		opts = append(opts, editor.WithRevertOnFailure())
	}

	return Model{
		ctx:      ctx,
		backend:  backend,
		editor:   editor.New(cfg.StatusPageID, backend, opts...),
		width:    width,
		keys:     defaultKeyMap,
		help:     help.New(),
		style:    defaultStyles(),
		failures: failures,
		loading:  true,
	}
}

// Editor exposes the editing session, e.g. to wait for pending updates on exit
func (m Model) Editor() *editor.Editor {
	return m.editor
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.load(), waitForFailure(m.failures))
}

func (m Model) load() tea.Cmd {
	ctx, backend, id := m.ctx, m.backend, m.editor.StatusPageID()
	return func() tea.Msg {
		page, err := backend.GetStatusPage(ctx, id)
		if err != nil {
			return loadFailedMsg{err: err}
		}
		return pageLoadedMsg{page: page}
	}
}

func waitForFailure(ch <-chan error) tea.Cmd {
	return func() tea.Msg {
		return updateFailedMsg{err: <-ch}
	}
}

// --- Update ---

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		return m, nil

	case pageLoadedMsg:
		m.loading = false
		m.err = nil
		m.pageName = msg.page.Name
		m.editor.Load(msg.page.Items)
		m.resetDrag()
		m.clampCursor()
		return m, nil

	case loadFailedMsg:
		m.loading = false
		m.err = fmt.Errorf("load status page: %w", msg.err)
		return m, nil

	case updateFailedMsg:
		m.err = fmt.Errorf("save layout: %w", msg.err)
		m.clampCursor()
		return m, waitForFailure(m.failures)

	case tea.KeyMsg:
		if _, dragging := m.editor.Dragging(); dragging {
			return m.updateDragging(msg)
		}
		return m.updateBrowsing(msg)
	}
	return m, nil
}

func (m Model) updateBrowsing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	flat := m.editor.Flattened()

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(flat)-1 {
			m.cursor++
		}

	case key.Matches(msg, m.keys.Collapse):
		if m.cursor < len(flat) {
			m.editor.ToggleCollapsed(flat[m.cursor].ID)
			m.clampCursor()
		}

	case key.Matches(msg, m.keys.Reload):
		m.loading = true
		return m, m.load()

	case key.Matches(msg, m.keys.Grab):
		if m.cursor >= len(flat) {
			return m, nil
		}
		id := flat[m.cursor].ID
		if err := m.editor.DragStart(id); err != nil {
			m.err = err
			return m, nil
		}
		m.err = nil
		m.status = ""
		m.offsetX = 0
		m.move(id)
	}
	return m, nil
}

func (m Model) updateDragging(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	flat := m.editor.Flattened()
	over := layout.FindItem(flat, m.overID)

	switch {
	case msg.String() == "ctrl+c":
		m.editor.DragCancel()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Cancel):
		m.editor.DragCancel()
		m.resetDrag()
		m.clampCursor()

	case key.Matches(msg, m.keys.Up):
		if over > 0 {
			m.move(flat[over-1].ID)
		}

	case key.Matches(msg, m.keys.Down):
		if over >= 0 && over < len(flat)-1 {
			m.move(flat[over+1].ID)
		}

	case key.Matches(msg, m.keys.Outdent):
		m.offsetX -= float64(m.width)
		m.move(m.overID)

	case key.Matches(msg, m.keys.Indent):
		m.offsetX += float64(m.width)
		m.move(m.overID)

	case key.Matches(msg, m.keys.Drop):
		activeID, _ := m.editor.Dragging()
		_, err := m.editor.DragEnd(m.ctx)
		m.resetDrag()
		if err != nil {
			m.err = err
			return m, nil
		}
		m.err = nil
		flat := m.editor.Flattened()
		if i := layout.FindItem(flat, activeID); i >= 0 {
			m.cursor = i
			m.status = "moved " + flat[i].Data.Name
		}
		m.clampCursor()
	}
	return m, nil
}

// move points the drag at overID and keeps offsetX within the projected range,
// so a key press in the opposite direction takes effect immediately.
func (m *Model) move(overID string) {
	m.overID = overID
	m.projection, m.projected = m.editor.DragMove(overID, m.offsetX)
	if !m.projected {
		return
	}

	activeID, _ := m.editor.Dragging()
	flat := m.editor.Flattened()
	if i := layout.FindItem(flat, activeID); i >= 0 {
		m.offsetX = float64((m.projection.Depth - flat[i].Depth) * m.width)
		m.projection, m.projected = m.editor.DragMove(overID, m.offsetX)
	}
}

func (m *Model) resetDrag() {
	m.overID = ""
	m.offsetX = 0
	m.projected = false
}

func (m *Model) clampCursor() {
	n := len(m.editor.Flattened())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// --- View ---

type styles struct {
	title   lipgloss.Style
	cursor  lipgloss.Style
	dragged lipgloss.Style
	group   lipgloss.Style
	faint   lipgloss.Style
	status  lipgloss.Style
	err     lipgloss.Style
}

func defaultStyles() styles {
	return styles{
		title:   lipgloss.NewStyle().Bold(true).MarginBottom(1),
		cursor:  lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true),
		dragged: lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("11")),
		group:   lipgloss.NewStyle().Bold(true),
		faint:   lipgloss.NewStyle().Faint(true),
		status:  lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		err:     lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
	}
}

func (m Model) View() string {
	var b strings.Builder

	title := m.pageName
	if title == "" {
		title = m.editor.StatusPageID()
	}
	b.WriteString(m.style.title.Render(title))
	b.WriteString("\n")

	switch {
	case m.loading:
		b.WriteString(m.style.faint.Render("loading..."))
		b.WriteString("\n")
	default:
		rows := m.rows()
		if len(rows) == 0 {
			b.WriteString(m.style.faint.Render("no components"))
			b.WriteString("\n")
		}
		for _, row := range rows {
			b.WriteString(row)
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	if m.err != nil {
		b.WriteString(m.style.err.Render(m.err.Error()))
		b.WriteString("\n")
	} else if m.status != "" {
		b.WriteString(m.style.status.Render(m.status))
		b.WriteString("\n")
	}

	if _, dragging := m.editor.Dragging(); dragging {
		b.WriteString(m.help.View(dragKeys(m.keys)))
	} else {
		b.WriteString(m.help.View(browseKeys(m.keys)))
	}
	return b.String()
}

// rows renders the visible items. While dragging, the dragged item is shown
// where it would land: at the over item's position, at the projected depth.
func (m Model) rows() []string {
	flat := m.editor.Flattened()
	activeID, dragging := m.editor.Dragging()

	if dragging {
		active := layout.FindItem(flat, activeID)
		over := layout.FindItem(flat, m.overID)
		if active >= 0 && over >= 0 {
			flat = layout.ArrayMove(flat, active, over)
			if m.projected {
				flat[over].Depth = m.projection.Depth
			}
		}
	}

	rows := make([]string, 0, len(flat))
	for i, item := range flat {
		rows = append(rows, m.renderItem(i, item, dragging && item.ID == activeID))
	}
	return rows
}

func (m Model) renderItem(i int, item models.FlattenedItem, dragged bool) string {
	indent := strings.Repeat("  ", item.Depth)

	marker := "  "
	if item.Data.IsGroup() {
		marker = "▾ "
		if item.Collapsed {
			marker = "▸ "
		}
	}

	name := item.Data.Name
	if item.Data.IsGroup() {
		name = m.style.group.Render(name)
		if item.Collapsed && len(item.Children) > 0 {
			name += m.style.faint.Render(fmt.Sprintf(" (%d)", len(item.Children)))
		}
	}

	line := indent + marker + name
	switch {
	case dragged:
		return "  " + m.style.dragged.Render(indent+marker+item.Data.Name)
	case !m.isDragging() && i == m.cursor:
		return m.style.cursor.Render("> ") + line
	default:
		return "  " + line
	}
}

func (m Model) isDragging() bool {
	_, ok := m.editor.Dragging()
	return ok
}

// Run starts the editor on the terminal and waits for pending updates on exit
func Run(ctx context.Context, backend Backend, cfg Config) error {
	m := New(ctx, backend, cfg)
	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	m.Editor().Wait()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}
