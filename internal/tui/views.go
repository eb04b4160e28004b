package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/the-spread-must-flow/internal/calc"
	"github.com/Veraticus/the-spread-must-flow/internal/engine"
	"github.com/Veraticus/the-spread-must-flow/internal/model"
)

func (m Model) renderCalc() string {
	v := m.session.View()

	fields := make([]string, 0, len(model.Fields))
	for _, f := range model.Fields {
		fields = append(fields, m.renderField(v, f))
	}

	sections := []string{
		m.theme.Title.Render("The Spread Must Flow"),
		lipgloss.JoinVertical(lipgloss.Left, fields...),
		m.renderRates(v),
		m.renderStatus(),
		m.help.View(m.keymap),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderField(v engine.View, f model.Field) string {
	var label, amount string
	switch f {
	case model.FieldA, model.FieldB, model.FieldUSD:
		code := model.USD
		switch f {
		case model.FieldA:
			code = v.CurrencyA
		case model.FieldB:
			code = v.CurrencyB
		}
		c, _ := model.LookupCurrency(code)
		label = c.Flag + " " + c.Code
		amount = m.formatter.Display(v.Buffer(f))
	case model.FieldSpread:
		label = "Spread"
		amount = m.formatter.Display(v.Buffer(f)) + " %"
	}

	style := m.theme.Field
	if f == v.Active {
		style = m.theme.ActiveField
	}
	width := max(min(m.width-4, 40), 20)
	line := lipgloss.JoinHorizontal(lipgloss.Top,
		m.theme.FieldLabel.Render(label),
		m.theme.Amount.Width(width-12).Render(amount),
	)
	return style.Render(line)
}

func (m Model) renderRates(v engine.View) string {
	spread := strconv.FormatFloat(v.Spread, 'f', -1, 64)
	lines := []string{
		fmt.Sprintf("1 %s = %s %s (incl %s%%)", v.CurrencyA, calc.FormatRate(v.EffectiveRate), v.CurrencyB, spread),
		fmt.Sprintf("1 %s = %s %s", v.CurrencyB, calc.FormatRate(v.InverseEffectiveRate()), v.CurrencyA),
		fmt.Sprintf("1 USD = %s %s", calc.FormatRate(v.USDRateA), v.CurrencyA),
	}
	return m.theme.RateLine.Render(strings.Join(lines, "\n"))
}

func (m Model) renderStatus() string {
	text := m.status
	if m.refreshing {
		text = m.spinner.View() + " " + text
	}
	if text == "" {
		return m.theme.StatusPending.Render(" ")
	}
	if m.statusErr {
		return m.theme.StatusError.Render(text)
	}
	return m.theme.StatusInfo.Render(text)
}

func (m Model) renderPicker() string {
	title := "Currency " + m.picker.field.String()
	rows := make([]string, 0, len(model.SupportedCurrencies))
	for i, c := range model.SupportedCurrencies {
		row := fmt.Sprintf("%s %s  %-20s %s", c.Flag, c.Code, c.Name, c.Symbol)
		if i == m.picker.cursor {
			row = m.theme.Selected.Render(row)
		} else {
			row = m.theme.Normal.Render(row)
		}
		rows = append(rows, row)
	}
	return m.theme.RoundedBox.Render(lipgloss.JoinVertical(lipgloss.Left,
		m.theme.Title.Render(title),
		lipgloss.JoinVertical(lipgloss.Left, rows...),
		"",
		m.theme.Subtitle.Render("↑/↓ choose • Enter select • Esc cancel"),
	))
}

func (m Model) renderHistory() string {
	if len(m.historyIDs) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left,
			m.theme.Title.Render("History"),
			m.theme.StatusPending.Render("No conversions recorded yet"),
			"",
			m.theme.Subtitle.Render("Esc back"),
		)
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		m.theme.Title.Render(fmt.Sprintf("History (%d)", len(m.historyIDs))),
		m.history.View(),
		m.renderStatus(),
		m.theme.Subtitle.Render("Enter restore • d delete • D clear all • Esc back"),
	)
}

func (m Model) renderHelp() string {
	full := m.help
	full.ShowAll = true
	return m.theme.RoundedBox.Render(lipgloss.JoinVertical(lipgloss.Left,
		m.theme.Title.Render("Keys"),
		"Digits, . + - * / % type into the active field.",
		"",
		full.View(m.keymap),
		"",
		m.theme.Subtitle.Render("Press any key to return"),
	))
}

