// Package tui renders the sector fan in the terminal and drives drags, taps
// and edits against the task store.
package tui

import (
	"context"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/atotto/clipboard"
	"github.com/charmbracelet/x/ansi"
	"github.com/evanschultz/arcboard/internal/app"
	"github.com/evanschultz/arcboard/internal/domain"
	"github.com/evanschultz/arcboard/internal/gesture"
	"github.com/evanschultz/arcboard/internal/layout"
)

// Store is the task store the board drives. Every call happens inside Update.
type Store interface {
	GetAll() []domain.Task
	ToggleStatus(ctx context.Context, id string) bool
	AddTask(ctx context.Context, in app.AddTaskInput) (domain.Task, bool)
	RemoveTask(ctx context.Context, id string) bool
	CyclePriority(ctx context.Context, id string) bool
	Reset(ctx context.Context)
	SyncError() error
}

type inputMode int

const (
	modeNone inputMode = iota
	modeAdd
	modeSearch
	modeDetail
	modeArchive
	modeConfirmReset
)

const (
	headerHeight  = 1
	frameInterval = 50 * time.Millisecond
	boardTitle    = "SECTOR GRID"
)

type frameMsg time.Time

// releaseAnim is the animation that follows a drag release.
type releaseAnim struct {
	taskID string
	anim   gesture.Animation
	start  time.Time
	// ghost is the card as it looked before a commit; it is drawn sliding out
	// while the task already sits in its done cell.
	ghost *domain.Task
	from  layout.Placement
}

// cardView is one card resolved to terminal cells for the current frame.
type cardView struct {
	task      domain.Task
	placement layout.Placement
	box       cardBox
	ghost     bool
}

type Model struct {
	store Store
	cfg   RuntimeConfig
	keys  keyMap
	help  help.Model
	ctrl  *gesture.Controller

	now          func() time.Time
	started      time.Time
	log          Logger
	copyText     func(string) error
	reloadConfig ReloadConfigFunc
	watchPath    string

	ready  bool
	width  int
	height int
	status string

	mode         inputMode
	input        textinput.Model
	addPriority  domain.Priority
	matches      []domain.Task
	archiveIndex int
	md           markdownRenderer

	selected   string
	pendingTap string
	anim       *releaseAnim
	ticking    bool
}

// NewModel constructs the board model over store.
func NewModel(store Store, opts ...Option) Model {
	h := help.New()
	h.ShowAll = false
	m := Model{
		store:       store,
		cfg:         DefaultRuntimeConfig(),
		keys:        newKeyMap(),
		help:        h,
		now:         time.Now,
		log:         nopLogger{},
		copyText:    clipboard.WriteAll,
		status:      "ready",
		addPriority: domain.PriorityNormal,
	}
	m.ctrl = gesture.NewController(m.cfg.Gesture, store)
	for _, opt := range opts {
		if opt != nil {
			opt(&m)
		}
	}
	m.started = m.now()
	m.ticking = m.needsFrames()
	m.ensureSelection(m.frame())
	return m
}

func (m *Model) applyRuntimeConfig(cfg RuntimeConfig) {
	m.cfg = cfg
	if m.ctrl != nil {
		m.ctrl.SetConfig(cfg.Gesture)
	}
}

func (m Model) Init() tea.Cmd {
	var cmds []tea.Cmd
	if m.ticking {
		cmds = append(cmds, frameTick())
	}
	if cmd := watchConfigCmd(m.watchPath); cmd != nil {
		cmds = append(cmds, cmd)
	}
	return tea.Batch(cmds...)
}

func frameTick() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

func (m Model) needsFrames() bool {
	return m.anim != nil || m.cfg.Display.IdleFloat
}

// ensureTicking starts the frame loop unless one is already pending.
func (m *Model) ensureTicking() tea.Cmd {
	if m.ticking || !m.needsFrames() {
		return nil
	}
	m.ticking = true
	return frameTick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.width = msg.Width
		m.height = msg.Height
		m.help.SetWidth(max(0, m.width-2))
		return m, nil

	case frameMsg:
		m.ticking = false
		m.advanceAnimation()
		cmd := m.ensureTicking()
		return m, cmd

	case configChangedMsg:
		m.reload("config file changed")
		cmd := m.ensureTicking()
		return m, tea.Batch(watchConfigCmd(m.watchPath), cmd)

	case tea.KeyPressMsg:
		if m.mode != modeNone {
			return m.handleModeKey(msg)
		}
		return m.handleNormalKey(msg)

	case tea.MouseClickMsg:
		return m.handleMouseClick(msg)

	case tea.MouseMotionMsg:
		return m.handleMouseMotion(msg)

	case tea.MouseReleaseMsg:
		return m.handleMouseRelease(msg)

	default:
		if m.mode == modeAdd || m.mode == modeSearch {
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			return m, cmd
		}
		return m, nil
	}
}

func (m Model) handleNormalKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	ctx := context.Background()
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.toggleHelp):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.reload):
		m.reload("reload requested")
		cmd := m.ensureTicking()
		return m, cmd
	case key.Matches(msg, m.keys.selectPrev):
		m.moveSelection(-1)
		return m, nil
	case key.Matches(msg, m.keys.selectNext):
		m.moveSelection(1)
		return m, nil
	case key.Matches(msg, m.keys.addTask):
		m.mode = modeAdd
		m.addPriority = domain.PriorityNormal
		m.input = newModalInput("", "Add new task...", "", 120)
		cmd := m.input.Focus()
		return m, cmd
	case key.Matches(msg, m.keys.search):
		m.mode = modeSearch
		m.matches = nil
		m.input = newModalInput("/ ", "fuzzy search card text", "", 120)
		cmd := m.input.Focus()
		return m, cmd
	case key.Matches(msg, m.keys.commitDrag):
		return m.keyboardCommit()
	case key.Matches(msg, m.keys.largeFont):
		m.cfg.Display.LargeFont = !m.cfg.Display.LargeFont
		return m, nil
	case key.Matches(msg, m.keys.archive):
		m.mode = modeArchive
		m.archiveIndex = 0
		return m, nil
	case key.Matches(msg, m.keys.reset):
		m.mode = modeConfirmReset
		return m, nil
	}

	task, ok := m.selectedTask()
	if !ok {
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.tap):
		m.tap(task)
	case key.Matches(msg, m.keys.deleteTask):
		m.store.RemoveTask(ctx, task.ID)
		m.afterMutation("deleted: " + truncate(task.Text, 32))
		m.log.Debug("task removed", "task_id", task.ID)
	case key.Matches(msg, m.keys.cyclePriority):
		m.store.CyclePriority(ctx, task.ID)
		updated, _ := m.taskByID(task.ID)
		m.afterMutation("priority: " + string(updated.Priority))
	case key.Matches(msg, m.keys.copyText):
		if err := m.copyText(task.Text); err != nil {
			m.status = "copy failed: " + err.Error()
			m.log.Warn("clipboard write failed", "err", err)
		} else {
			m.status = "copied: " + truncate(task.Text, 32)
		}
	case key.Matches(msg, m.keys.taskInfo):
		m.mode = modeDetail
	}
	return m, nil
}

func (m Model) handleModeKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	ctx := context.Background()
	switch m.mode {
	case modeAdd:
		switch msg.String() {
		case "esc":
			m.mode = modeNone
			m.status = "add cancelled"
			return m, nil
		case "enter":
			return m.submitAdd()
		case "tab":
			t := domain.Task{Priority: m.addPriority}
			t.CyclePriority()
			m.addPriority = t.Priority
			return m, nil
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd

	case modeSearch:
		switch msg.String() {
		case "esc":
			m.mode = modeNone
			m.matches = nil
			return m, nil
		case "enter":
			m.mode = modeNone
			m.applySearch()
			m.matches = nil
			return m, nil
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		m.matches = searchTasks(m.input.Value(), m.store.GetAll())
		return m, cmd

	case modeDetail:
		switch msg.String() {
		case "esc", "enter", "i", "q":
			m.mode = modeNone
		}
		return m, nil

	case modeArchive:
		hidden := m.frame().Hidden
		switch msg.String() {
		case "esc", "a", "q":
			m.mode = modeNone
		case "j", "down":
			m.archiveIndex = clamp(m.archiveIndex+1, 0, max(0, len(hidden)-1))
		case "k", "up":
			m.archiveIndex = clamp(m.archiveIndex-1, 0, max(0, len(hidden)-1))
		case "enter", "space":
			if len(hidden) == 0 {
				return m, nil
			}
			task := hidden[clamp(m.archiveIndex, 0, len(hidden)-1)]
			m.store.ToggleStatus(ctx, task.ID)
			m.selected = task.ID
			m.mode = modeNone
			m.afterMutation("restored: " + truncate(task.Text, 32))
		}
		return m, nil

	case modeConfirmReset:
		switch msg.String() {
		case "y", "Y":
			m.finishAnimation()
			m.store.Reset(ctx)
			m.selected = ""
			m.mode = modeNone
			m.afterMutation("board reset to demo tasks")
			m.log.Info("board reset")
		default:
			m.mode = modeNone
			m.status = "reset cancelled"
		}
		return m, nil
	}
	return m, nil
}

func (m Model) submitAdd() (tea.Model, tea.Cmd) {
	text, deadline := parseAddInput(m.input.Value())
	m.mode = modeNone
	task, ok := m.store.AddTask(context.Background(), app.AddTaskInput{
		Text:     text,
		Priority: m.addPriority,
		Deadline: deadline,
	})
	if !ok {
		m.status = "nothing to add"
		return m, nil
	}
	m.selected = task.ID
	m.afterMutation("added: " + truncate(task.Text, 32))
	m.log.Debug("task added", "task_id", task.ID, "priority", task.Priority)
	return m, nil
}

// parseAddInput splits a trailing "@YYYY-MM-DD" deadline off the task text.
func parseAddInput(raw string) (string, *time.Time) {
	text := strings.TrimSpace(raw)
	idx := strings.LastIndex(text, " @")
	if idx < 0 {
		return text, nil
	}
	deadline, err := time.Parse("2006-01-02", strings.TrimSpace(text[idx+2:]))
	if err != nil {
		return text, nil
	}
	return strings.TrimSpace(text[:idx]), &deadline
}

func (m *Model) applySearch() {
	if len(m.matches) == 0 {
		m.status = "no match"
		return
	}
	f := m.frame()
	for _, task := range m.matches {
		if _, ok := f.Find(task.ID); ok {
			m.selected = task.ID
			m.status = "found: " + truncate(task.Text, 32)
			return
		}
	}
	m.status = "in archive: " + truncate(m.matches[0].Text, 32)
}

func (m *Model) reload(reason string) {
	if m.reloadConfig == nil {
		m.status = "config reload unavailable"
		return
	}
	cfg, err := m.reloadConfig()
	if err != nil {
		m.status = "config reload failed: " + err.Error()
		m.log.Warn("config reload failed", "reason", reason, "err", err)
		return
	}
	m.applyRuntimeConfig(cfg)
	m.status = "config reloaded"
	m.log.Info("config reloaded", "reason", reason)
}

// afterMutation sets the status line and surfaces a failed persist.
func (m *Model) afterMutation(status string) {
	m.status = status
	if err := m.store.SyncError(); err != nil {
		m.status = status + " (not saved: " + err.Error() + ")"
	}
	m.ensureSelection(m.frame())
}

func (m *Model) tap(task domain.Task) {
	if !task.IsDone() {
		m.status = "drag left to complete"
		return
	}
	m.finishAnimation()
	if m.ctrl.Tap(context.Background(), task) {
		m.afterMutation("restored: " + truncate(task.Text, 32))
	}
}

// keyboardCommit replays a full leftward drag past the threshold on the
// selected todo card.
func (m Model) keyboardCommit() (tea.Model, tea.Cmd) {
	task, ok := m.selectedTask()
	if !ok {
		return m, nil
	}
	if task.IsDone() {
		m.status = "already done"
		return m, nil
	}
	m.finishAnimation()
	if !m.ctrl.Begin(task, 0) {
		return m, nil
	}
	m.ctrl.Move(-(m.cfg.Gesture.Threshold + 1))
	return m.release()
}

// release resolves the active drag and starts its animation.
func (m Model) release() (tea.Model, tea.Cmd) {
	id := m.ctrl.TaskID()
	before, _ := m.taskByID(id)
	placement, _ := m.frame().Find(id)
	out := m.ctrl.Release(context.Background())
	anim := &releaseAnim{taskID: out.TaskID, anim: out.Animation, start: m.now()}
	if out.Committed {
		ghost := before
		anim.ghost = &ghost
		anim.from = placement
		m.afterMutation("done: " + truncate(before.Text, 32))
		m.log.Debug("drag committed", "task_id", id, "displacement", out.Displacement)
	} else {
		m.status = "drag cancelled"
	}
	m.anim = anim
	cmd := m.ensureTicking()
	return m, cmd
}

// advanceAnimation settles the controller once the release animation ends.
func (m *Model) advanceAnimation() {
	if m.anim == nil {
		return
	}
	if m.anim.anim.Done(m.now().Sub(m.anim.start)) {
		m.finishAnimation()
	}
}

func (m *Model) finishAnimation() {
	if m.anim == nil {
		return
	}
	m.anim = nil
	m.ctrl.Settle()
}

func (m Model) handleMouseClick(msg tea.MouseClickMsg) (tea.Model, tea.Cmd) {
	if m.mode != modeNone || m.help.ShowAll || msg.Button != tea.MouseLeft {
		return m, nil
	}
	cv, ok := m.hitTest(msg.X, msg.Y)
	if !ok {
		return m, nil
	}
	m.selected = cv.task.ID
	if cv.task.IsDone() {
		m.pendingTap = cv.task.ID
		return m, nil
	}
	m.finishAnimation()
	m.ctrl.Begin(cv.task, m.projection().pixelsX(msg.X))
	return m, nil
}

func (m Model) handleMouseMotion(msg tea.MouseMotionMsg) (tea.Model, tea.Cmd) {
	if !m.ctrl.Dragging() {
		return m, nil
	}
	m.ctrl.Move(m.projection().pixelsX(msg.X))
	return m, nil
}

func (m Model) handleMouseRelease(msg tea.MouseReleaseMsg) (tea.Model, tea.Cmd) {
	if m.ctrl.Dragging() {
		m.ctrl.Move(m.projection().pixelsX(msg.X))
		return m.release()
	}
	if m.pendingTap == "" {
		return m, nil
	}
	id := m.pendingTap
	m.pendingTap = ""
	if cv, ok := m.hitTest(msg.X, msg.Y); ok && cv.task.ID == id {
		m.tap(cv.task)
	}
	return m, nil
}

// hitTest returns the topmost card under a screen cell.
func (m Model) hitTest(x, y int) (cardView, bool) {
	views := m.cardViews(m.frame(), m.projection())
	for idx := len(views) - 1; idx >= 0; idx-- {
		if views[idx].ghost {
			continue
		}
		if views[idx].box.contains(x, y-headerHeight) {
			return views[idx], true
		}
	}
	return cardView{}, false
}

func (m Model) frame() layout.Frame {
	return layout.Compute(m.store.GetAll(), m.cfg.Geometry)
}

func (m Model) projection() projection {
	return newProjection(m.cfg, m.width, m.boardHeight())
}

func (m Model) boardHeight() int {
	return max(1, m.height-headerHeight-lipgloss.Height(m.renderHelpLine()))
}

func (m Model) taskByID(id string) (domain.Task, bool) {
	for _, task := range m.store.GetAll() {
		if task.ID == id {
			return task, true
		}
	}
	return domain.Task{}, false
}

func (m Model) selectedTask() (domain.Task, bool) {
	if m.selected == "" {
		return domain.Task{}, false
	}
	if _, ok := m.frame().Find(m.selected); !ok {
		return domain.Task{}, false
	}
	return m.taskByID(m.selected)
}

// ensureSelection keeps the selection on a visible card, preferring the
// innermost todo card.
func (m *Model) ensureSelection(f layout.Frame) {
	if _, ok := f.Find(m.selected); ok && m.selected != "" {
		return
	}
	m.selected = ""
	for _, p := range f.Placements {
		if p.Status == domain.StatusTodo && p.Cell == (layout.Cell{}) {
			m.selected = p.TaskID
			return
		}
	}
	if len(f.Placements) > 0 {
		m.selected = f.Placements[0].TaskID
	}
}

// selectionOrder lists visible cards left to right, top to bottom.
func selectionOrder(f layout.Frame) []string {
	placements := slices.Clone(f.Placements)
	slices.SortStableFunc(placements, func(a, b layout.Placement) int {
		switch {
		case a.Position.X < b.Position.X:
			return -1
		case a.Position.X > b.Position.X:
			return 1
		case a.Position.Y < b.Position.Y:
			return -1
		case a.Position.Y > b.Position.Y:
			return 1
		default:
			return 0
		}
	})
	out := make([]string, len(placements))
	for idx, p := range placements {
		out[idx] = p.TaskID
	}
	return out
}

func (m *Model) moveSelection(delta int) {
	f := m.frame()
	m.ensureSelection(f)
	order := selectionOrder(f)
	if len(order) == 0 {
		return
	}
	idx := slices.Index(order, m.selected)
	idx = (idx + delta + len(order)) % len(order)
	m.selected = order[idx]
}

// cardViews resolves every visible card to cells in paint order, with the
// exiting ghost, if any, painted last.
func (m Model) cardViews(f layout.Frame, proj projection) []cardView {
	byID := map[string]domain.Task{}
	for _, task := range m.store.GetAll() {
		byID[task.ID] = task
	}
	now := m.now()
	dragID := ""
	if m.ctrl.Dragging() {
		dragID = m.ctrl.TaskID()
	} else if m.anim != nil && m.anim.ghost == nil {
		dragID = m.anim.taskID
	}

	order := f.DrawOrder(dragID)
	views := make([]cardView, 0, len(order)+1)
	for _, p := range order {
		task, ok := byID[p.TaskID]
		if !ok {
			continue
		}
		box := proj.box(f.Geometry, p.Position, p.Scale)
		dy := 0
		if m.cfg.Display.IdleFloat {
			dy = int(math.Round(proj.cellsY(task.Jitter.Float.OffsetAt(now.Sub(m.started)))))
		}
		dx := int(math.Round(proj.cellsX(m.dragOffset(p.TaskID, now))))
		views = append(views, cardView{task: task, placement: p, box: box.shift(dx, dy)})
	}

	if m.anim != nil && m.anim.ghost != nil {
		elapsed := now.Sub(m.anim.start)
		if m.anim.anim.OpacityAt(elapsed) > 0 {
			box := proj.box(f.Geometry, m.anim.from.Position, m.anim.from.Scale)
			dx := int(math.Round(proj.cellsX(m.anim.anim.OffsetAt(elapsed))))
			views = append(views, cardView{
				task:      *m.anim.ghost,
				placement: m.anim.from,
				box:       box.shift(dx, 0),
				ghost:     true,
			})
		}
	}
	return views
}

// dragOffset is the live horizontal offset of a card in logical pixels.
func (m Model) dragOffset(taskID string, now time.Time) float64 {
	if m.ctrl.Dragging() && m.ctrl.TaskID() == taskID {
		return m.ctrl.VisualOffset()
	}
	if m.anim != nil && m.anim.ghost == nil && m.anim.taskID == taskID {
		return m.anim.anim.OffsetAt(now.Sub(m.anim.start))
	}
	return 0
}

func (m Model) View() tea.View {
	if !m.ready {
		v := tea.NewView("loading...")
		v.MouseMode = tea.MouseModeCellMotion
		v.AltScreen = true
		return v
	}

	f := m.frame()
	proj := m.projection()
	boardH := m.boardHeight()

	highlighted := map[string]bool{}
	for _, task := range m.matches {
		highlighted[task.ID] = true
	}
	var board string
	if len(f.Placements) == 0 {
		muted := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
		board = lipgloss.Place(m.width, boardH, lipgloss.Center, lipgloss.Center,
			muted.Render("No tasks. Press n to add one."))
	} else {
		views := m.cardViews(f, proj)
		layers := make([]boardLayer, 0, len(views))
		for _, cv := range views {
			style := cardStyle{
				selected:    !cv.ghost && cv.task.ID == m.selected,
				highlighted: highlighted[cv.task.ID],
				largeFont:   m.cfg.Display.LargeFont,
				faded:       cv.ghost,
			}
			layers = append(layers, boardLayer{
				content: renderCard(cv.task, cv.box.w, cv.box.h, style),
				box:     cv.box,
			})
		}
		board = composeBoard(layers, m.width, boardH)
	}

	full := m.renderHeader(f) + "\n" + fitLines(board, boardH) + "\n" + m.renderHelpLine()
	if overlay := m.renderModeOverlay(f); overlay != "" {
		full = overlayOnContent(full, overlay, max(1, m.width), max(1, m.height))
	}
	v := tea.NewView(full)
	v.MouseMode = tea.MouseModeCellMotion
	v.AltScreen = true
	return v
}

func (m Model) renderHeader(f layout.Frame) string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	statusStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("239"))
	todo, done := 0, 0
	for _, p := range f.Placements {
		if p.Status == domain.StatusDone {
			done++
		} else {
			todo++
		}
	}
	header := titleStyle.Render(boardTitle) +
		statusStyle.Render(fmt.Sprintf("  todo %d · done %d · archived %d", todo, done, len(f.Hidden)))
	if m.ctrl.Dragging() {
		header += statusStyle.Render(fmt.Sprintf("  drag %+.0f", m.ctrl.Displacement()))
	}
	if strings.TrimSpace(m.status) != "" {
		header += statusStyle.Render("  " + m.status)
	}
	return ansi.Truncate(header, max(1, m.width), "…")
}

func (m Model) renderHelpLine() string {
	muted := lipgloss.Color("241")
	dim := lipgloss.Color("239")
	return lipgloss.NewStyle().
		Foreground(muted).
		BorderTop(true).
		BorderForeground(dim).
		Padding(0, 1).
		Width(max(0, m.width)).
		Render(m.help.View(m.keys))
}

func (m Model) renderModeOverlay(f layout.Frame) string {
	accent := lipgloss.Color("62")
	muted := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	title := lipgloss.NewStyle().Bold(true).Foreground(accent)
	width := clamp(m.width-8, 24, 72)
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accent).
		Padding(0, 1).
		Width(width)

	switch m.mode {
	case modeAdd:
		lines := []string{
			title.Render("New task"),
			m.input.View(),
			"priority: " + lipgloss.NewStyle().Foreground(lipgloss.Color(priorityColor(m.addPriority))).Render(string(m.addPriority)),
			muted.Render("tab priority • trailing @YYYY-MM-DD sets a deadline • enter add • esc cancel"),
		}
		return box.Render(strings.Join(lines, "\n"))

	case modeSearch:
		lines := []string{title.Render("Search"), m.input.View()}
		for idx, task := range m.matches {
			if idx == 5 {
				lines = append(lines, muted.Render(fmt.Sprintf("… %d more", len(m.matches)-idx)))
				break
			}
			lines = append(lines, fmt.Sprintf("%s %s", statusGlyph(task), truncate(task.Text, width-6)))
		}
		return box.Render(strings.Join(lines, "\n"))

	case modeDetail:
		task, ok := m.selectedTask()
		if !ok {
			return ""
		}
		placement, _ := f.Find(task.ID)
		return box.Render(m.md.render(taskDetailMarkdown(task, placement), width-4))

	case modeArchive:
		lines := []string{title.Render(fmt.Sprintf("Archive (%d)", len(f.Hidden)))}
		if len(f.Hidden) == 0 {
			lines = append(lines, muted.Render("Nothing archived yet."))
		}
		for idx, task := range f.Hidden {
			cursor := "  "
			if idx == m.archiveIndex {
				cursor = "> "
			}
			when := ""
			if task.CompletedAt != nil {
				when = task.CompletedAt.Local().Format("Jan 02 15:04") + "  "
			}
			lines = append(lines, cursor+muted.Render(when)+truncate(task.Text, width-20))
		}
		lines = append(lines, muted.Render("j/k move • enter restore • esc close"))
		return box.Render(strings.Join(lines, "\n"))

	case modeConfirmReset:
		return box.Render(title.Render("Reset board") + "\n" +
			"Replace every task with the demo set?\n" +
			muted.Render("y confirm • any other key cancels"))
	}
	return ""
}

func statusGlyph(task domain.Task) string {
	if task.IsDone() {
		return "✓"
	}
	return "○"
}

// taskDetailMarkdown describes a card for the detail overlay.
func taskDetailMarkdown(task domain.Task, p layout.Placement) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", task.Text)
	fmt.Fprintf(&b, "- **Status:** %s\n", task.Status)
	fmt.Fprintf(&b, "- **Priority:** %s\n", task.Priority)
	fmt.Fprintf(&b, "- **Created:** %s\n", task.CreatedAt.Local().Format(time.DateTime))
	if task.CompletedAt != nil {
		fmt.Fprintf(&b, "- **Completed:** %s\n", task.CompletedAt.Local().Format(time.DateTime))
	}
	if task.Deadline != nil {
		fmt.Fprintf(&b, "- **Deadline:** %s\n", task.Deadline.Format(time.DateOnly))
	}
	if p.TaskID != "" {
		fmt.Fprintf(&b, "- **Cell:** column %d, row %d\n", p.Cell.Column, p.Cell.Row)
		fmt.Fprintf(&b, "- **Angle:** %.1f°\n", p.Rotation)
	}
	return b.String()
}

func newModalInput(prompt, placeholder, value string, limit int) textinput.Model {
	in := textinput.New()
	in.Prompt = prompt
	in.Placeholder = placeholder
	in.CharLimit = limit
	if value != "" {
		in.SetValue(value)
	}
	return in
}

func clamp(v, minV, maxV int) int {
	if v < minV {
		return minV
	}
	if v > maxV {
		return maxV
	}
	return v
}

func fitLines(content string, maxLines int) string {
	if maxLines <= 0 {
		return ""
	}
	lines := strings.Split(content, "\n")
	switch {
	case len(lines) > maxLines:
		if maxLines == 1 {
			lines = []string{"…"}
		} else {
			lines = append(lines[:maxLines-1], "…")
		}
	case len(lines) < maxLines:
		padding := make([]string, maxLines-len(lines))
		lines = append(lines, padding...)
	}
	return strings.Join(lines, "\n")
}

// overlayOnContent centres overlay above base on a fixed-size canvas.
func overlayOnContent(base, overlay string, width, height int) string {
	if width <= 0 || height <= 0 {
		if strings.TrimSpace(overlay) == "" {
			return base
		}
		return overlay + "\n\n" + base
	}
	base = fitLines(base, height)
	canvas := lipgloss.NewCanvas(width, height)
	canvas.Compose(lipgloss.NewLayer(base).X(0).Y(0).Z(0))
	centered := lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, overlay)
	canvas.Compose(lipgloss.NewLayer(centered).X(0).Y(0).Z(10))
	return canvas.Render()
}

func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	rs := []rune(s)
	if len(rs) <= max {
		return s
	}
	if max <= 1 {
		return string(rs[:max])
	}
	return string(rs[:max-1]) + "…"
}
