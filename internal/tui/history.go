package tui

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/the-spread-must-flow/internal/calc"
	"github.com/Veraticus/the-spread-must-flow/internal/model"
	"github.com/Veraticus/the-spread-must-flow/internal/tui/themes"
)

func newHistoryTable(theme themes.Theme) table.Model {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "When", Width: 16},
			{Title: "From", Width: 18},
			{Title: "To", Width: 18},
			{Title: "Rate", Width: 12},
			{Title: "Spread", Width: 7},
		}),
		table.WithFocused(true),
		table.WithHeight(10),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(theme.Border).
		BorderBottom(true).
		Bold(true)
	s.Selected = theme.Selected
	t.SetStyles(s)
	return t
}

// loadHistory refreshes the table rows from the session.
func (m *Model) loadHistory() {
	entries := m.session.History()
	rows := make([]table.Row, 0, len(entries))
	m.historyIDs = m.historyIDs[:0]
	for _, e := range entries {
		rows = append(rows, m.historyRow(e))
		m.historyIDs = append(m.historyIDs, e.ID)
	}
	m.history.SetRows(rows)
	if m.history.Cursor() >= len(rows) {
		m.history.SetCursor(max(len(rows)-1, 0))
	}
}

func (m *Model) historyRow(e model.HistoryEntry) table.Row {
	amount := func(v float64, code string) string {
		return m.formatter.Display(strconv.FormatFloat(v, 'f', -1, 64)) + " " + code
	}
	rate := ""
	if e.Rate > 0 {
		rate = calc.FormatRate(e.Rate)
	}
	return table.Row{
		e.Timestamp.Local().Format("2006-01-02 15:04"),
		amount(e.FromAmount, e.FromCurrency),
		amount(e.ToAmount, e.ToCurrency),
		rate,
		fmt.Sprintf("%g%%", e.SpreadPercent),
	}
}

func (m Model) selectedHistoryID() (string, bool) {
	i := m.history.Cursor()
	if i < 0 || i >= len(m.historyIDs) {
		return "", false
	}
	return m.historyIDs[i], true
}

func (m Model) updateHistory(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	km := m.keymap
	switch {
	case key.Matches(msg, km.Back):
		m.state = StateCalc
		return m, nil
	case key.Matches(msg, km.Delete):
		if id, ok := m.selectedHistoryID(); ok && m.session.DeleteHistory(m.ctx, id) {
			m.setStatus("Entry deleted", false)
		}
		m.loadHistory()
		return m, nil
	case key.Matches(msg, km.Wipe):
		m.session.ClearHistory(m.ctx)
		m.loadHistory()
		m.setStatus("History cleared", false)
		return m, nil
	case key.Matches(msg, km.Select):
		if i := m.history.Cursor(); i >= 0 && i < len(m.historyIDs) {
			m.restoreEntry(m.session.History()[i])
			m.state = StateCalc
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.history, cmd = m.history.Update(msg)
	return m, cmd
}

// restoreEntry loads a past conversion back into the calculator.
func (m *Model) restoreEntry(e model.HistoryEntry) {
	_ = m.session.SetCurrencyA(m.ctx, e.FromCurrency)
	_ = m.session.SetCurrencyB(m.ctx, e.ToCurrency)
	m.session.SetField(m.ctx, model.FieldSpread, strconv.FormatFloat(e.SpreadPercent, 'f', -1, 64))
	m.session.SetField(m.ctx, model.FieldA, strconv.FormatFloat(e.FromAmount, 'f', -1, 64))
	m.session.Activate(m.ctx, model.FieldA)
	m.setStatus("Restored "+e.FromCurrency+" → "+e.ToCurrency, false)
}
