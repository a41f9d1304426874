package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"examdash/cmd"
	"examdash/internal/config"
	"examdash/internal/dashboard"
	"examdash/internal/dataset"
	"examdash/internal/detail"
	"examdash/internal/insight"
	"examdash/internal/report"
	"examdash/internal/search"
	"examdash/internal/surface"
)

const narrateTimeout = 2 * time.Minute

var errNoInsight = errors.New("AI insight not available: ANTHROPIC_API_KEY not set")

var logger *slog.Logger

// setupLogger opens the JSON log file in the data directory. Later calls
// return the same logger. If the file cannot be opened, logs are discarded.
func setupLogger(cfg config.Config) *slog.Logger {
	if logger != nil {
		return logger
	}

	logFile, err := os.OpenFile(cfg.LogPath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to setup logger: %v\n", err)
		logger = slog.New(slog.DiscardHandler)
		return logger
	}

	handler := slog.NewJSONHandler(logFile, &slog.HandlerOptions{
		Level:     cfg.SlogLevel(),
		AddSource: true,
	})

	logger = slog.New(handler)
	logger.Info("Application started", "data_dir", cfg.DataDir, "source", cfg.DataSource)
	return logger
}

// initInsight builds the narrative service when an API key is configured.
// A nil result means AI features are off.
func initInsight(cfg config.Config, logger *slog.Logger) narrator {
	if !cfg.InsightEnabled() {
		return nil
	}
	svc, err := insight.New(
		insight.WithAPIKey(cfg.AnthropicAPIKey),
		insight.WithModel(cfg.Model),
		insight.WithLogger(logger),
	)
	if err != nil {
		logger.Warn("Insight service initialization failed", "error", err)
		return nil
	}
	return svc
}

// panel is a rendered terminal chart occupying one surface.
type panel struct {
	content string
}

func (p *panel) Dispose() {
	p.content = ""
}

// tuiRenderer draws controller outputs into terminal panels.
type tuiRenderer struct {
	mu         sync.Mutex
	surfaces   *surface.Registry
	width      int
	overview   dashboard.Overview
	projection detail.Projection
	cursor     int
	matches    []search.Result
}

func newTUIRenderer() *tuiRenderer {
	return &tuiRenderer{
		surfaces: surface.NewRegistry(),
		matches:  []search.Result{},
	}
}

func (r *tuiRenderer) barWidth() int {
	return min(max(r.width-labelWidth-24, 10), 60)
}

func (r *tuiRenderer) RenderOverview(o dashboard.Overview) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.overview = o
	w := r.barWidth()
	r.surfaces.Replace(surface.Distribution, &panel{DistributionChart(o.Distribution, w)})
	r.surfaces.Replace(surface.Subjects, &panel{SubjectChart(o.Subjects, w)})
	r.surfaces.Replace(surface.Classes, &panel{ClassChart(o.Classes, w)})
}

func (r *tuiRenderer) RenderMatches(matches []search.Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.matches = matches
}

func (r *tuiRenderer) RenderDetail(p detail.Projection) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p.StudentID != r.projection.StudentID {
		r.cursor = 0
	}
	r.projection = p
	r.drawDetail()
}

func (r *tuiRenderer) Resize(width, height int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.width = width
}

// drawDetail must be called with mu held.
func (r *tuiRenderer) drawDetail() {
	r.surfaces.Replace(surface.Detail, &panel{RankChart(r.projection, r.barWidth(), r.cursor)})
}

// MoveCursor shifts the tooltip cursor by delta, clamped to the data points.
func (r *tuiRenderer) MoveCursor(delta int) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := r.projection.Len()
	if n == 0 {
		return 0
	}
	r.cursor = min(max(r.cursor+delta, 0), n-1)
	r.drawDetail()
	return r.cursor
}

// Panel returns the content on surface id.
func (r *tuiRenderer) Panel(id string) string {
	h, ok := r.surfaces.Get(id)
	if !ok {
		return ""
	}
	p, ok := h.(*panel)
	if !ok {
		return ""
	}
	return p.content
}

// Matches returns the last rendered match list.
func (r *tuiRenderer) Matches() []search.Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.matches
}

// Boards returns the leaderboards of the last rendered overview.
func (r *tuiRenderer) Boards() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return lipgloss.JoinHorizontal(lipgloss.Top,
		LeaderboardPanel(r.overview.Top),
		"    ",
		LeaderboardPanel(r.overview.Bottom),
	)
}

// Summary returns the summary cards of the last rendered overview.
func (r *tuiRenderer) Summary() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return SummaryCards(r.overview.Summary)
}

type view int

const (
	loadingView view = iota
	failedView
	overviewView
	detailView
)

type model struct {
	cfg           config.Config
	ctrl          *dashboard.Controller
	renderer      *tuiRenderer
	insight       narrator
	currentView   view
	searchInput   textinput.Model
	list          list.Model
	viewport      viewport.Model
	cursor        int
	narrative     string
	narrating     bool
	status        string
	width         int
	height        int
	err           error
	viewportReady bool
}

type matchItem struct {
	result search.Result
}

func (i matchItem) Title() string {
	return i.result.Name
}

func (i matchItem) Description() string {
	return fmt.Sprintf("%s班 | %s", i.result.Class, i.result.ID)
}

func (i matchItem) FilterValue() string {
	return i.result.Name
}

type datasetMsg struct {
	ds  *dataset.Dataset
	err error
}

type narrativeMsg struct {
	studentID string
	text      string
	err       error
}

func loadDataset(source string) tea.Cmd {
	return func() tea.Msg {
		ds, err := dataset.Load(context.Background(), source)
		return datasetMsg{ds: ds, err: err}
	}
}

func narrate(n narrator, p detail.Projection) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), narrateTimeout)
		defer cancel()
		text, err := n.Narrate(ctx, p)
		return narrativeMsg{studentID: p.StudentID, text: text, err: err}
	}
}

func initialModel(cfg config.Config, ctrl *dashboard.Controller, r *tuiRenderer, n narrator) model {
	ti := textinput.New()
	ti.Placeholder = "输入学生姓名..."
	ti.Focus()
	ti.CharLimit = 40
	ti.Width = 40

	delegate := list.NewDefaultDelegate()
	delegate.SetHeight(2)

	l := list.New([]list.Item{}, delegate, 0, 0)
	l.Title = "搜索结果"
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(false)
	l.Styles.Title = lipgloss.NewStyle().
		Background(lipgloss.Color("62")).
		Foreground(lipgloss.Color("230")).
		Padding(0, 1)

	vp := viewport.New(80, 20)
	vp.Style = lipgloss.NewStyle()

	return model{
		cfg:         cfg,
		ctrl:        ctrl,
		renderer:    r,
		insight:     n,
		currentView: loadingView,
		searchInput: ti,
		list:        l,
		viewport:    vp,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, loadDataset(m.cfg.DataSource))
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width-4, msg.Height-10)

		// header, input and help take the rest
		m.viewport.Width = msg.Width
		m.viewport.Height = msg.Height - 7
		m.viewportReady = true

		m.ctrl.OnResize(msg.Width, msg.Height)
		m.updateViewport()
		return m, nil

	case datasetMsg:
		if m.currentView == failedView {
			return m, nil
		}
		if msg.err != nil {
			m.ctrl.OnLoadError(msg.err)
			m.err = msg.err
			m.currentView = failedView
			return m, nil
		}
		m.ctrl.OnLoad(msg.ds)
		m.currentView = overviewView
		m.updateViewport()
		return m, nil

	case narrativeMsg:
		m.narrating = false
		if msg.err != nil {
			m.err = fmt.Errorf("AI narrative failed: %w", msg.err)
			if logger != nil {
				logger.Error("Narrative failed", "error", msg.err, "student_id", msg.studentID)
			}
			return m, nil
		}
		if p, ok := m.ctrl.Detail(); ok && p.StudentID == msg.studentID {
			m.narrative = msg.text
			m.err = nil
			m.updateViewport()
		}
		return m, nil

	case tea.KeyMsg:
		switch m.currentView {
		case detailView:
			return m.handleDetailViewKeys(msg)
		case overviewView:
			return m.handleOverviewKeys(msg)
		default:
			if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyEsc {
				return m, tea.Quit
			}
			return m, nil
		}

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	if m.currentView == overviewView {
		var cmd tea.Cmd
		m.searchInput, cmd = m.searchInput.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m model) handleOverviewKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit

	case tea.KeyEsc:
		m.searchInput.Focus()
		return m, textinput.Blink

	case tea.KeyTab:
		if m.searchInput.Focused() {
			m.searchInput.Blur()
		} else {
			m.searchInput.Focus()
		}
		return m, textinput.Blink

	case tea.KeyEnter:
		if item, ok := m.list.SelectedItem().(matchItem); ok {
			return m.selectStudent(item.result.ID)
		}
		return m, nil

	case tea.KeyPgUp, tea.KeyPgDown:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	if !m.searchInput.Focused() {
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}

	before := m.searchInput.Value()
	m.searchInput, cmd = m.searchInput.Update(msg)
	if m.searchInput.Value() != before {
		m.setMatches(m.ctrl.OnInput(m.searchInput.Value()))
	}
	return m, cmd
}

func (m model) handleDetailViewKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit

	case tea.KeyEsc:
		// the controller keeps the last projection shown
		m.currentView = overviewView
		m.searchInput.Focus()
		m.status = ""
		m.err = nil
		m.viewport.GotoTop()
		m.updateViewport()
		return m, textinput.Blink

	case tea.KeyLeft:
		m.cursor = m.renderer.MoveCursor(-1)
		m.updateViewport()
		return m, nil

	case tea.KeyRight:
		m.cursor = m.renderer.MoveCursor(1)
		m.updateViewport()
		return m, nil

	case tea.KeyCtrlY:
		if p, ok := m.ctrl.Detail(); ok {
			if err := clipboard.WriteAll(p.StudentID); err != nil {
				m.err = fmt.Errorf("copy failed: %w", err)
			} else {
				m.status = "已复制学号 " + p.StudentID
			}
		}
		return m, nil

	case tea.KeyCtrlA:
		p, ok := m.ctrl.Detail()
		if !ok || m.narrating {
			return m, nil
		}
		if m.insight == nil {
			m.err = errNoInsight
			return m, nil
		}
		m.narrating = true
		m.err = nil
		return m, narrate(m.insight, p)

	// Scrolling keys
	case tea.KeyUp, tea.KeyDown, tea.KeyPgUp, tea.KeyPgDown, tea.KeyHome, tea.KeyEnd:
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	return m, nil
}

// selectStudent hands the id to the controller and switches to the detail.
func (m model) selectStudent(id string) (tea.Model, tea.Cmd) {
	if _, err := m.ctrl.OnSelect(id); err != nil {
		m.err = err
		return m, nil
	}

	m.currentView = detailView
	m.cursor = m.renderer.MoveCursor(0)
	m.narrative = ""
	m.narrating = false
	m.status = ""
	m.err = nil
	m.searchInput.SetValue("")
	m.setMatches(m.renderer.Matches())
	m.viewport.GotoTop()
	m.updateViewport()
	return m, nil
}

func (m *model) setMatches(matches []search.Result) {
	items := make([]list.Item, len(matches))
	for i, r := range matches {
		items[i] = matchItem{result: r}
	}
	m.list.SetItems(items)
	m.list.ResetSelected()
}

func (m *model) updateViewport() {
	if !m.viewportReady {
		return
	}
	switch m.currentView {
	case overviewView:
		m.viewport.SetContent(m.overviewContent())
	case detailView:
		m.viewport.SetContent(m.detailViewContent())
	}
}

func (m model) overviewContent() string {
	var b strings.Builder

	b.WriteString(m.renderer.Summary())
	b.WriteString("\n\n")
	b.WriteString(m.renderer.Panel(surface.Distribution))
	b.WriteString("\n")
	b.WriteString(m.renderer.Panel(surface.Subjects))
	b.WriteString("\n")
	b.WriteString(m.renderer.Panel(surface.Classes))
	b.WriteString("\n")
	b.WriteString(m.renderer.Boards())
	b.WriteString("\n")

	if p, ok := m.ctrl.Detail(); ok {
		b.WriteString("\n")
		b.WriteString(chartTitle.Render(fmt.Sprintf("上次查看: %s", search.Display(m.studentOf(p)))))
		b.WriteString("\n")
		b.WriteString(m.renderer.Panel(surface.Detail))
	}
	return b.String()
}

func (m model) studentOf(p detail.Projection) dataset.Student {
	if ds := m.ctrl.Dataset(); ds != nil {
		if s, ok := ds.Student(p.StudentID); ok {
			return s
		}
	}
	return dataset.Student{Name: p.Name, StudentID: dataset.Label(p.StudentID), ClassLabel: dataset.Label(p.ClassLabel)}
}

func (m model) detailViewContent() string {
	p, ok := m.ctrl.Detail()
	if !ok {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.renderer.Panel(surface.Detail))
	b.WriteString("\n")
	b.WriteString(TooltipBox(p, m.cursor))
	b.WriteString("\n")

	md := report.Student(p)
	if m.narrative != "" {
		md = report.AppendNarrative(md, m.narrative)
	}
	rendered, err := report.Terminal(md, m.width)
	if err != nil {
		if logger != nil {
			logger.Error("Failed to render report", "error", err, "student_id", p.StudentID)
		}
		rendered = md
	}
	b.WriteString(rendered)
	return b.String()
}

func (m model) View() string {
	switch m.currentView {
	case loadingView:
		return fmt.Sprintf("Loading %s...\n", m.cfg.DataSource)
	case failedView:
		return m.failedViewRender()
	case detailView:
		return m.detailViewRender()
	}
	return m.overviewViewRender()
}

func (m model) failedViewRender() string {
	errorStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("196")).
		Bold(true)
	helpStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	return errorStyle.Render(fmt.Sprintf("❌ 数据加载失败: %v", m.err)) + "\n\n" +
		helpStyle.Render("Esc/Ctrl+C: Quit")
}

func (m model) overviewViewRender() string {
	var b strings.Builder

	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("62"))

	b.WriteString(headerStyle.Render("📊 考试成绩对比"))
	b.WriteString("\n")

	inputStyle := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("62")).
		Padding(0, 1)

	b.WriteString(inputStyle.Render(m.searchInput.View()))
	b.WriteString("\n")

	if len(m.list.Items()) > 0 {
		b.WriteString(m.list.View())
	} else if m.viewportReady {
		b.WriteString(m.viewport.View())
	}
	b.WriteString("\n")

	if m.err != nil {
		errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n")
	}

	helpStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))
	b.WriteString(helpStyle.Render("Tab: Focus | Enter: Select | PgUp/PgDn: Scroll | Esc: Search | Ctrl+C: Quit"))

	return b.String()
}

func (m model) detailViewRender() string {
	if !m.viewportReady {
		return "Loading..."
	}

	var b strings.Builder

	b.WriteString(m.viewport.View())
	b.WriteString("\n")

	if m.viewport.TotalLineCount() > m.viewport.Height {
		scrollPercent := int(m.viewport.ScrollPercent() * 100)
		scrollInfo := lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Render(fmt.Sprintf("─── %d%% ───", scrollPercent))
		b.WriteString(scrollInfo)
		b.WriteString("\n")
	}

	statusStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("226")).
		Bold(true)

	if m.narrating {
		b.WriteString(statusStyle.Render("⏳ Generating AI narrative..."))
		b.WriteString("\n")
	}

	if m.status != "" {
		successStyle := lipgloss.NewStyle().
			Foreground(lipgloss.Color("82")).
			Bold(true)
		b.WriteString(successStyle.Render("✓ " + m.status))
		b.WriteString("\n")
	}

	if m.err != nil {
		errorStyle := lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)
		b.WriteString(errorStyle.Render(fmt.Sprintf("❌ Error: %v", m.err)))
		b.WriteString("\n")
	}

	helpStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	help := "←/→: Category | ↑/↓/PgUp/PgDn: Scroll | Ctrl+Y: Copy ID | Esc: Back | Ctrl+C: Quit"
	if m.insight != nil {
		help = "←/→: Category | ↑/↓/PgUp/PgDn: Scroll | Ctrl+A: AI Narrative | Ctrl+Y: Copy ID | Esc: Back | Ctrl+C: Quit"
	}
	b.WriteString(helpStyle.Render(help))

	return b.String()
}

// launchTUI starts the interactive TUI application.
func launchTUI(cfg config.Config) {
	logger := setupLogger(cfg)
	n := initInsight(cfg, logger)

	fmt.Println("\n📊 Exam Dashboard Configuration:")
	fmt.Printf("   • Dataset: %s\n", cfg.DataSource)
	if n != nil {
		fmt.Printf("   • AI Narrative: ✓ Available (%s)\n", cfg.Model)
	} else {
		fmt.Println("   • AI Narrative: ✗ Not configured (set ANTHROPIC_API_KEY)")
	}
	fmt.Println()

	renderer := newTUIRenderer()
	defer renderer.surfaces.DisposeAll()
	ctrl := dashboard.New(renderer, logger)

	p := tea.NewProgram(
		initialModel(cfg, ctrl, renderer, n),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	if _, err := p.Run(); err != nil {
		logger.Error("TUI exited with error", "error", err)
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
}

func main() {
	cmd.LaunchTUI = launchTUI
	cmd.StartServer = startServer
	cmd.SetupLogger = setupLogger

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
