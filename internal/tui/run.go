package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Veraticus/the-spread-must-flow/internal/engine"
	"github.com/Veraticus/the-spread-must-flow/internal/rates"
)

// Program runs the calculator UI for one session.
type Program struct {
	ctx     context.Context
	program *tea.Program
	session *engine.Session
	config  Config
}

// NewProgram prepares the UI. Nothing runs until Run is called.
func NewProgram(ctx context.Context, session *engine.Session, opts ...Option) *Program {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	teaOpts := []tea.ProgramOption{tea.WithContext(ctx)}
	if cfg.AltScreen {
		teaOpts = append(teaOpts, tea.WithAltScreen())
	}

	return &Program{
		ctx:     ctx,
		program: tea.NewProgram(newModel(ctx, session, cfg), teaOpts...),
		session: session,
		config:  cfg,
	}
}

// SendRates hands a fetched table to the UI goroutine. It is the refresher's
// rate callback and is safe to call from any goroutine.
func (p *Program) SendRates(t rates.Table) {
	p.program.Send(RatesMsg{Rates: t})
}

// Run starts the refresher, blocks until the user quits, then stops the
// refresher and records the last conversion.
func (p *Program) Run() error {
	if r := p.config.Refresher; r != nil {
		if err := r.Start(p.ctx); err != nil {
			return fmt.Errorf("failed to start rate refresher: %w", err)
		}
	}

	_, runErr := p.program.Run()

	if r := p.config.Refresher; r != nil {
		r.Stop()
	}
	p.session.Close(context.WithoutCancel(p.ctx))

	if runErr != nil {
		return fmt.Errorf("TUI error: %w", runErr)
	}
	return nil
}
