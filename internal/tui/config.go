package tui

import (
	"context"
	"log/slog"

	"github.com/Veraticus/the-spread-must-flow/internal/calc"
	"github.com/Veraticus/the-spread-must-flow/internal/rates"
	"github.com/Veraticus/the-spread-must-flow/internal/tui/themes"
)

// RateRefresher is the background rate updater driven by the UI.
type RateRefresher interface {
	Start(ctx context.Context) error
	Stop()
	Refresh(ctx context.Context) (rates.Table, error)
}

// Config holds TUI configuration.
type Config struct {
	Refresher RateRefresher
	Logger    *slog.Logger
	Theme     themes.Theme
	Formatter calc.Formatter
	Width     int
	Height    int
	AltScreen bool
}

// Option is a functional option for configuring the TUI.
type Option func(*Config)

func defaultConfig() Config {
	return Config{
		Theme:     themes.Default,
		Formatter: calc.DefaultFormatter,
		Logger:    slog.Default(),
		Width:     80,
		Height:    24,
		AltScreen: true,
	}
}

// WithRefresher sets the rate refresher started with the UI and used by
// the manual refresh key.
func WithRefresher(r RateRefresher) Option {
	return func(c *Config) {
		c.Refresher = r
	}
}

// WithTheme sets the visual theme.
func WithTheme(theme themes.Theme) Option {
	return func(c *Config) {
		c.Theme = theme
	}
}

// WithFormatter sets how amounts are displayed.
func WithFormatter(f calc.Formatter) Option {
	return func(c *Config) {
		c.Formatter = f
	}
}

// WithSize sets the initial terminal size.
func WithSize(width, height int) Option {
	return func(c *Config) {
		c.Width = width
		c.Height = height
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) {
		if l != nil {
			c.Logger = l
		}
	}
}

// WithAltScreen toggles the alternate screen buffer.
func WithAltScreen(enabled bool) Option {
	return func(c *Config) {
		c.AltScreen = enabled
	}
}
