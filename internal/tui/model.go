// Package tui implements the interactive calculator on top of bubbletea.
package tui

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Veraticus/the-spread-must-flow/internal/calc"
	"github.com/Veraticus/the-spread-must-flow/internal/engine"
	"github.com/Veraticus/the-spread-must-flow/internal/model"
	"github.com/Veraticus/the-spread-must-flow/internal/tui/themes"
)

// State represents the current screen.
type State int

const (
	StateCalc State = iota
	StatePicker
	StateHistory
	StateHelp
)

// Model holds the TUI state. All session mutations happen on the bubbletea
// goroutine; background rate updates arrive as RatesMsg.
type Model struct {
	ctx        context.Context
	session    *engine.Session
	refresher  RateRefresher
	logger     *slog.Logger
	formatter  calc.Formatter
	theme      themes.Theme
	keymap     KeyMap
	help       help.Model
	spinner    spinner.Model
	history    table.Model
	historyIDs []string
	picker     picker
	status     string
	width      int
	height     int
	state      State
	statusErr  bool
	refreshing bool
	quitting   bool
}

func newModel(ctx context.Context, session *engine.Session, cfg Config) Model {
	session.Activate(ctx, model.FieldA)

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		ctx:       ctx,
		session:   session,
		refresher: cfg.Refresher,
		logger:    cfg.Logger,
		formatter: cfg.Formatter,
		theme:     cfg.Theme,
		keymap:    DefaultKeyMap(),
		help:      help.New(),
		spinner:   sp,
		history:   newHistoryTable(cfg.Theme),
		width:     cfg.Width,
		height:    cfg.Height,
		state:     StateCalc,
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.history.SetHeight(max(msg.Height-8, 3))
		return m, nil

	case RatesMsg:
		if n := m.session.ApplyRates(m.ctx, msg.Rates); n > 0 {
			m.setStatus(fmt.Sprintf("Rates updated (%d)", n), false)
		}
		return m, nil

	case refreshDoneMsg:
		m.refreshing = false
		if msg.err != nil {
			m.logger.Warn("Manual rate refresh failed", "error", msg.err)
			m.setStatus("Refresh failed, keeping current rates", true)
		} else {
			m.setStatus(fmt.Sprintf("Fetched %d rates", msg.count), false)
		}
		return m, nil

	case statusMsg:
		m.setStatus(msg.text, msg.isErr)
		return m, nil

	case spinner.TickMsg:
		if !m.refreshing {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if key.Matches(msg, m.keymap.Quit) {
			m.quitting = true
			return m, tea.Quit
		}
		switch m.state {
		case StatePicker:
			return m.updatePicker(msg)
		case StateHistory:
			return m.updateHistory(msg)
		case StateHelp:
			m.state = StateCalc
			return m, nil
		default:
			return m.updateCalc(msg)
		}
	}

	return m, nil
}

func (m *Model) setStatus(text string, isErr bool) {
	m.status = text
	m.statusErr = isErr
}

// updateCalc handles keys on the main calculator screen.
func (m Model) updateCalc(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	km := m.keymap
	switch {
	case key.Matches(msg, km.Help):
		m.state = StateHelp
		return m, nil
	case key.Matches(msg, km.NextField):
		m.moveField(1)
		return m, nil
	case key.Matches(msg, km.PrevField):
		m.moveField(-1)
		return m, nil
	case key.Matches(msg, km.Evaluate):
		before := len(m.session.History())
		m.session.Press(m.ctx, calc.KeyEquals)
		// the next digit starts a new amount, operators continue the result
		m.session.Activate(m.ctx, m.session.Active())
		if len(m.session.History()) > before {
			m.setStatus("Saved to history", false)
		}
		return m, nil
	case key.Matches(msg, km.Clear):
		m.session.Press(m.ctx, calc.KeyClear)
		return m, nil
	case key.Matches(msg, km.Backspace):
		m.session.Press(m.ctx, calc.KeyBackspace)
		return m, nil
	case key.Matches(msg, km.Thousands):
		m.session.Press(m.ctx, calc.KeyTripleZero)
		return m, nil
	case key.Matches(msg, km.PickA):
		a, _ := m.session.Currencies()
		m.picker = newPicker(model.FieldA, a)
		m.state = StatePicker
		return m, nil
	case key.Matches(msg, km.PickB):
		_, b := m.session.Currencies()
		m.picker = newPicker(model.FieldB, b)
		m.state = StatePicker
		return m, nil
	case key.Matches(msg, km.Swap):
		m.session.SwapCurrencies(m.ctx)
		return m, nil
	case key.Matches(msg, km.History):
		m.loadHistory()
		m.state = StateHistory
		return m, nil
	case key.Matches(msg, km.Refresh):
		return m.startRefresh()
	}

	if msg.Type != tea.KeyRunes {
		return m, nil
	}
	for _, r := range normalizeRunes(msg.Runes) {
		if k, ok := calc.ParseKey(string(r)); ok {
			m.session.Press(m.ctx, k)
		}
	}
	return m, nil
}

// normalizeRunes maps typographic operators onto keypad keys.
func normalizeRunes(rs []rune) []rune {
	out := make([]rune, 0, len(rs))
	for _, r := range rs {
		switch r {
		case '×', 'x', 'X':
			r = '*'
		case '÷':
			r = '/'
		case '−':
			r = '-'
		case ',':
			r = '.'
		}
		out = append(out, r)
	}
	return out
}

func (m *Model) moveField(delta int) {
	n := len(model.Fields)
	next := (int(m.session.Active()) + delta + n) % n
	m.session.Activate(m.ctx, model.Fields[next])
}

func (m Model) startRefresh() (tea.Model, tea.Cmd) {
	if m.refresher == nil {
		m.setStatus("No rate source configured", true)
		return m, nil
	}
	if m.refreshing {
		return m, nil
	}
	m.refreshing = true
	m.setStatus("Refreshing rates", false)

	ctx, r := m.ctx, m.refresher
	return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
		t, err := r.Refresh(ctx)
		return refreshDoneMsg{err: err, count: len(t)}
	})
}

// View renders the UI.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	switch m.state {
	case StatePicker:
		return m.renderPicker()
	case StateHistory:
		return m.renderHistory()
	case StateHelp:
		return m.renderHelp()
	default:
		return m.renderCalc()
	}
}
