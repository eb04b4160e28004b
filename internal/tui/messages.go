package tui

import "github.com/Veraticus/the-spread-must-flow/internal/rates"

// RatesMsg delivers a fetched rate table to the UI goroutine.
type RatesMsg struct {
	Rates rates.Table
}

// refreshDoneMsg reports the end of a manual refresh.
type refreshDoneMsg struct {
	err   error
	count int
}

// statusMsg replaces the status line.
type statusMsg struct {
	text  string
	isErr bool
}
