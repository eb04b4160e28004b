package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Veraticus/the-spread-must-flow/internal/calc"
	"github.com/Veraticus/the-spread-must-flow/internal/common"
	"github.com/Veraticus/the-spread-must-flow/internal/config"
	"github.com/Veraticus/the-spread-must-flow/internal/rates"
	"github.com/Veraticus/the-spread-must-flow/internal/tui"
)

func calcCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calc",
		Short: "Open the interactive calculator",
		Long: `Open the interactive currency calculator.

Keys:
  tab/↓, shift+tab/↑  move between A, B, USD and spread
  0-9 . + - * / %     edit the active field
  enter or =          evaluate and record the conversion
  a, b, s             pick currency A, pick currency B, swap
  h                   browse history
  r                   refresh rates now
  ?                   help`,
		RunE: runCalc,
	}

	cmd.Flags().Bool("no-refresh", false, "Disable background rate refresh")
	cmd.Flags().Bool("inline", false, "Render in the terminal instead of the alternate screen")

	return cmd
}

func runCalc(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	noRefresh, _ := cmd.Flags().GetBool("no-refresh")
	inline, _ := cmd.Flags().GetBool("inline")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logFile, err := redirectLogs(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logFile.Close() }()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	session, err := a.newSession(ctx)
	if err != nil {
		return err
	}

	opts := []tui.Option{
		tui.WithLogger(a.logger),
		tui.WithAltScreen(!inline),
		tui.WithFormatter(calc.Formatter{GroupSeparator: a.cfg.Display.GroupSeparator}),
	}

	// The refresher posts into the program, which needs the refresher first.
	var prog *tui.Program
	if a.cfg.Refresh.Enabled && !noRefresh {
		source, err := a.buildSource()
		if err != nil {
			return err
		}
		refresher := a.newRefresher(source, session.Currencies, func(t rates.Table) {
			prog.SendRates(t)
		})
		opts = append(opts, tui.WithRefresher(refresher))
	}

	prog = tui.NewProgram(ctx, session, opts...)
	return prog.Run()
}

// redirectLogs sends logging to a file next to the database while the
// calculator owns the terminal.
func redirectLogs(cfg *config.Config) (io.Closer, error) {
	if cfg.Database.Path == ":memory:" {
		return io.NopCloser(nil), common.SetupLogger(cfg.Logging.Level, cfg.Logging.Format, io.Discard)
	}

	path := filepath.Join(filepath.Dir(cfg.Database.Path), "spread.log")
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600) // #nosec G304
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	if err := common.SetupLogger(cfg.Logging.Level, cfg.Logging.Format, f); err != nil {
		_ = f.Close()
		return nil, err
	}
	return f, nil
}
