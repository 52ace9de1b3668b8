// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/opbench/internal/benchmark"
	"github.com/jeranaias/opbench/internal/logging"
	"github.com/jeranaias/opbench/internal/runner"
	"github.com/jeranaias/opbench/internal/ui/components"
	"github.com/jeranaias/opbench/internal/ui/styles"
)

// =============================================================================
// CONFIG
// =============================================================================

// Saver stores finished sweeps. *storage.Store implements it.
type Saver interface {
	Save(ctx context.Context, result *benchmark.SweepResult) error
}

// Config wires the dashboard to its collaborators.
type Config struct {
	Groups []benchmark.RunGroup
	Runner *runner.Runner
	// Store is optional; without it the save key reports an error.
	Store Saver
	// AutoSave stores every sweep that completes without cancellation.
	AutoSave    bool
	Theme       *styles.Theme
	ChartHeight int
	Logger      *slog.Logger
	// Problems is shown on startup, typically run group validation errors.
	Problems error
}

// =============================================================================
// MODEL
// =============================================================================

type state int

const (
	stateIdle state = iota
	stateRunning
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

// eventBuffer bounds how far the sweep may run ahead of the UI.
const eventBuffer = 64

// Model is the Bubble Tea model of the dashboard.
type Model struct {
	ctx    context.Context
	groups []benchmark.RunGroup
	cursor int

	runner   *runner.Runner
	store    Saver
	autoSave bool
	logger   *slog.Logger
	theme    *styles.Theme

	state  state
	seq    int
	events chan tea.Msg
	cancel context.CancelFunc

	lastProgress runner.Progress
	last         *benchmark.SweepResult

	status     string
	statusKind statusKind

	keys     KeyMap
	help     help.Model
	spinner  spinner.Model
	progress progress.Model
	chart    *components.Chart
	summary  *components.SweepView

	chartHeight int
	width       int
	height      int
}

// New creates the dashboard model. ctx bounds every sweep it starts.
func New(ctx context.Context, cfg Config) Model {
	theme := cfg.Theme
	if theme == nil {
		theme = styles.NewTheme("auto", false)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.FromContext(ctx)
	}
	r := cfg.Runner
	if r == nil {
		r = runner.New(runner.DefaultOptions(), runner.WithLogger(logger))
	}
	chartHeight := cfg.ChartHeight
	if chartHeight <= 0 {
		chartHeight = 12
	}

	sp := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(theme.Spinner),
	)

	m := Model{
		ctx:         ctx,
		groups:      cfg.Groups,
		runner:      r,
		store:       cfg.Store,
		autoSave:    cfg.AutoSave,
		logger:      logger,
		theme:       theme,
		keys:        DefaultKeyMap(),
		help:        help.New(),
		spinner:     sp,
		progress:    progress.New(progress.WithDefaultGradient(), progress.WithWidth(30)),
		chart:       components.NewChart(80, chartHeight, theme),
		summary:     components.NewSweepView(80, theme),
		chartHeight: chartHeight,
		width:       80,
		height:      24,
	}

	switch {
	case cfg.Problems != nil:
		m.setStatus(statusWarn, fmt.Sprintf("run group definitions: %v", cfg.Problems))
	case len(m.groups) == 0:
		m.setStatus(statusError, "no run groups defined")
	default:
		m.setStatus(statusInfo, "select a group and press enter to run")
	}
	m.refreshChart()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.layout()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case progressMsg:
		return m.handleProgress(msg)

	case sweepDoneMsg:
		return m.handleDone(msg)

	case savedMsg:
		if msg.err != nil {
			m.setStatus(statusError, fmt.Sprintf("save failed: %v", msg.err))
		} else {
			m.setStatus(statusOK, fmt.Sprintf("saved sweep %s", msg.id))
		}
		return m, nil

	case ReloadMsg:
		if msg.Runner != nil {
			m.runner = msg.Runner
		}
		m.autoSave = msg.AutoSave
		m.setStatus(statusInfo, "config reloaded")
		return m, nil

	case spinner.TickMsg:
		if m.state != stateRunning {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		if m.cancel != nil {
			m.cancel()
		}
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil

	case key.Matches(msg, m.keys.Cancel):
		if m.state == stateRunning && m.cancel != nil {
			m.cancel()
			m.setStatus(statusWarn, "canceling sweep...")
		}
		return m, nil
	}

	if m.state == stateRunning || len(m.groups) == 0 {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Up):
		m.cursor = (m.cursor - 1 + len(m.groups)) % len(m.groups)
		m.refreshChart()
	case key.Matches(msg, m.keys.Down):
		m.cursor = (m.cursor + 1) % len(m.groups)
		m.refreshChart()
	case key.Matches(msg, m.keys.NextOption):
		m.cycleOption(1)
	case key.Matches(msg, m.keys.PrevOption):
		m.cycleOption(-1)
	case key.Matches(msg, m.keys.Clear):
		m.selected().ClearChartData()
		m.last = nil
		m.refreshChart()
		m.setStatus(statusInfo, "chart cleared")
	case key.Matches(msg, m.keys.Save):
		return m, m.saveCmd()
	case key.Matches(msg, m.keys.Start):
		return m.startSweep()
	}
	return m, nil
}

// cycleOption moves the selected option of the current group.
func (m *Model) cycleOption(delta int) {
	g := m.selected()
	if !g.HasOptions() {
		return
	}
	idx := 0
	for i, opt := range g.Options {
		if opt == g.SelectedOption {
			idx = i
			break
		}
	}
	idx = (idx + delta + len(g.Options)) % len(g.Options)
	g.SelectedOption = g.Options[idx]
	m.setStatus(statusInfo, fmt.Sprintf("option %s", g.SelectedOption))
}

// =============================================================================
// SWEEPS
// =============================================================================

func (m Model) startSweep() (tea.Model, tea.Cmd) {
	g := m.selected()
	g.ClearChartData()
	m.last = nil

	ctx, cancel := context.WithCancel(logging.WithLogger(m.ctx, m.logger))
	events := make(chan tea.Msg, eventBuffer)
	m.seq++
	seq := m.seq
	m.cancel = cancel
	m.events = events
	m.state = stateRunning
	m.lastProgress = runner.Progress{}
	m.refreshChart()
	m.setStatus(statusInfo, fmt.Sprintf("sweeping %s", g.Name))

	r := m.runner
	option := g.SelectedOption
	appCtx := m.ctx
	go func() {
		defer close(events)
		result, err := r.Sweep(ctx, g, option, func(p runner.Progress) {
			select {
			case events <- progressMsg{seq: seq, progress: p}:
			case <-appCtx.Done():
			}
		})
		select {
		case events <- sweepDoneMsg{seq: seq, result: result, err: err}:
		case <-appCtx.Done():
		}
	}()

	return m, tea.Batch(m.spinner.Tick, waitForEvent(events))
}

// waitForEvent delivers the next sweep event to Update.
func waitForEvent(events <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-events
		if !ok {
			return nil
		}
		return msg
	}
}

func (m Model) handleProgress(msg progressMsg) (tea.Model, tea.Cmd) {
	if msg.seq != m.seq {
		return m, nil
	}
	p := msg.progress
	g := m.selected()
	if p.RunIndex >= 0 && p.RunIndex < len(g.Runs) {
		run := g.Runs[p.RunIndex]
		run.ChartData = append(run.ChartData, p.Point)
	}
	m.lastProgress = p
	m.refreshChart()
	return m, waitForEvent(m.events)
}

func (m Model) handleDone(msg sweepDoneMsg) (tea.Model, tea.Cmd) {
	if msg.seq != m.seq {
		return m, nil
	}
	if m.cancel != nil {
		m.cancel()
	}
	m.cancel = nil
	m.events = nil
	m.state = stateIdle
	m.last = msg.result

	switch {
	case errors.Is(msg.err, context.Canceled):
		m.setStatus(statusWarn, "sweep canceled")
	case msg.err != nil:
		m.setStatus(statusError, fmt.Sprintf("sweep failed: %v", msg.err))
		return m, nil
	case msg.result != nil && msg.result.FailureCount() > 0:
		m.setStatus(statusWarn, fmt.Sprintf("sweep finished with %d failed point(s)", msg.result.FailureCount()))
	default:
		m.setStatus(statusOK, "sweep finished")
	}

	if m.autoSave && m.store != nil && msg.result != nil && !msg.result.Canceled {
		return m, m.saveCmd()
	}
	return m, nil
}

func (m Model) saveCmd() tea.Cmd {
	if m.store == nil {
		return func() tea.Msg { return savedMsg{err: errors.New("no history store configured")} }
	}
	if m.last == nil {
		return func() tea.Msg { return savedMsg{err: errors.New("nothing to save yet")} }
	}
	store, result, ctx := m.store, m.last, m.ctx
	return func() tea.Msg {
		if err := store.Save(ctx, result); err != nil {
			return savedMsg{err: err}
		}
		return savedMsg{id: result.ID}
	}
}

// =============================================================================
// HELPERS
// =============================================================================

func (m *Model) selected() *benchmark.RunGroup {
	return &m.groups[m.cursor]
}

// Selected returns the highlighted group, or nil when there is none.
func (m Model) Selected() *benchmark.RunGroup {
	if len(m.groups) == 0 {
		return nil
	}
	return &m.groups[m.cursor]
}

// Running reports whether a sweep is in progress.
func (m Model) Running() bool {
	return m.state == stateRunning
}

// Last returns the result of the most recent sweep.
func (m Model) Last() *benchmark.SweepResult {
	return m.last
}

func (m *Model) setStatus(kind statusKind, text string) {
	m.statusKind = kind
	m.status = text
	switch kind {
	case statusError:
		m.logger.Error("dashboard", "status", text)
	case statusWarn:
		m.logger.Warn("dashboard", "status", text)
	default:
		m.logger.Debug("dashboard", "status", text)
	}
}

func (m *Model) refreshChart() {
	if len(m.groups) == 0 {
		m.chart.SetRuns(nil)
		return
	}
	m.chart.SetRuns(m.selected().Runs)
}

func (m *Model) layout() {
	chartWidth := max(m.width-listWidth-6, 30)
	m.chart.SetSize(chartWidth, m.chartHeight)
	m.summary.SetWidth(chartWidth)
	m.progress.Width = min(40, max(chartWidth-30, 10))
}
