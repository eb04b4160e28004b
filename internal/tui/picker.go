package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Veraticus/the-spread-must-flow/internal/model"
)

// picker selects a currency for field A or B from the supported list.
type picker struct {
	field  model.Field
	cursor int
}

func newPicker(field model.Field, current string) picker {
	p := picker{field: field}
	for i, c := range model.SupportedCurrencies {
		if c.Code == current {
			p.cursor = i
		}
	}
	return p
}

func (p picker) selected() model.Currency {
	return model.SupportedCurrencies[p.cursor]
}

func (m Model) updatePicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	km := m.keymap
	n := len(model.SupportedCurrencies)
	switch {
	case key.Matches(msg, km.Up):
		m.picker.cursor = (m.picker.cursor - 1 + n) % n
	case key.Matches(msg, km.Down):
		m.picker.cursor = (m.picker.cursor + 1) % n
	case key.Matches(msg, km.Select):
		code := m.picker.selected().Code
		if err := m.applyCurrency(m.ctx, m.picker.field, code); err != nil {
			m.setStatus(err.Error(), true)
		} else {
			m.setStatus("Currency "+m.picker.field.String()+" set to "+code, false)
		}
		m.state = StateCalc
	case msg.Type == tea.KeyEsc:
		m.state = StateCalc
	}
	return m, nil
}

func (m Model) applyCurrency(ctx context.Context, field model.Field, code string) error {
	if field == model.FieldB {
		return m.session.SetCurrencyB(ctx, code)
	}
	return m.session.SetCurrencyA(ctx, code)
}
