package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/the-spread-must-flow/internal/calc"
	"github.com/Veraticus/the-spread-must-flow/internal/cli"
	"github.com/Veraticus/the-spread-must-flow/internal/common"
	"github.com/Veraticus/the-spread-must-flow/internal/config"
	"github.com/Veraticus/the-spread-must-flow/internal/history"
	"github.com/Veraticus/the-spread-must-flow/internal/service"
	"github.com/Veraticus/the-spread-must-flow/internal/sheets"
)

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Browse, prune and export past conversions",
	}

	cmd.AddCommand(historyListCmd())
	cmd.AddCommand(historyDeleteCmd())
	cmd.AddCommand(historyClearCmd())
	cmd.AddCommand(historyStatsCmd())
	cmd.AddCommand(historyExportCmd())
	cmd.AddCommand(historyAuthCmd())

	return cmd
}

func historyListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded conversions, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			ctx := cmd.Context()

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			entries := a.prefs.LoadHistory(ctx)
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, cli.FormatInfo("No conversions recorded yet. Press = in the calculator to record one."))
				return nil
			}
			if limit > 0 && len(entries) > limit {
				entries = entries[:limit]
			}

			f := calc.Formatter{GroupSeparator: a.cfg.Display.GroupSeparator}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				cli.TableHeaderStyle.Render("ID"),
				cli.TableHeaderStyle.Render("When"),
				cli.TableHeaderStyle.Render("From"),
				cli.TableHeaderStyle.Render("To"),
				cli.TableHeaderStyle.Render("Rate"),
				cli.TableHeaderStyle.Render("Spread"))
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\t%s %s\t%s %s\t%s\t%g%%\n",
					shortID(e.ID),
					e.Timestamp.Local().Format("2006-01-02 15:04"),
					f.Display(calc.FormatNumber(e.FromAmount)), e.FromCurrency,
					f.Display(calc.FormatNumber(e.ToAmount)), e.ToCurrency,
					calc.FormatRate(e.Rate),
					e.SpreadPercent)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntP("limit", "n", 0, "Show at most this many entries")

	return cmd
}

func historyDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete one conversion by ID or unambiguous ID prefix",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			entries := a.prefs.LoadHistory(ctx)
			entry, ok := history.Find(entries, args[0])
			if !ok {
				return common.NewUserError("no single history entry matches that ID", fmt.Errorf("%w: %s", common.ErrNotFound, args[0]))
			}

			remaining, _ := history.Delete(entries, entry.ID)
			if err := a.prefs.SaveHistory(ctx, remaining); err != nil {
				return fmt.Errorf("failed to save history: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Deleted %s (%s)", shortID(entry.ID), entry.Pair())))
			return nil
		},
	}
}

func historyClearCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every recorded conversion",
		RunE: func(cmd *cobra.Command, _ []string) error {
			yes, _ := cmd.Flags().GetBool("yes")
			ctx := cmd.Context()

			if !yes && !confirm(cmd, "Delete all history entries? [y/N] ") {
				fmt.Fprintln(cmd.OutOrStdout(), "Canceled")
				return nil
			}

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			n := len(a.prefs.LoadHistory(ctx))
			if err := a.prefs.SaveHistory(ctx, nil); err != nil {
				return fmt.Errorf("failed to clear history: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Cleared %d entries", n)))
			return nil
		},
	}

	cmd.Flags().BoolP("yes", "y", false, "Skip the confirmation prompt")

	return cmd
}

func historyStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summarize conversions per currency pair",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			stats := history.Summarize(a.prefs.LoadHistory(ctx))
			out := cmd.OutOrStdout()
			if len(stats) == 0 {
				fmt.Fprintln(out, cli.FormatInfo("No conversions recorded yet"))
				return nil
			}

			f := calc.Formatter{GroupSeparator: a.cfg.Display.GroupSeparator}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				cli.TableHeaderStyle.Render("Pair"),
				cli.TableHeaderStyle.Render("Count"),
				cli.TableHeaderStyle.Render("Total From"),
				cli.TableHeaderStyle.Render("Total To"),
				cli.TableHeaderStyle.Render("Avg Rate"),
				cli.TableHeaderStyle.Render("Markup"))
			for _, s := range stats {
				markup := "-"
				if s.AvgBase > 0 {
					markup = fmt.Sprintf("%.2f%%", s.AvgMarkup)
				}
				fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\t%s\n",
					s.Pair,
					s.Count,
					f.Display(s.TotalFrom.StringFixed(2)),
					f.Display(s.TotalTo.StringFixed(2)),
					calc.FormatRate(s.AvgRate),
					markup)
			}
			return w.Flush()
		},
	}
}

func historyExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the history to Google Sheets",
		Long: `Export the conversion history and per-pair summary to Google Sheets.

Configure either a service account (sheets.service_account_path) or OAuth2
credentials (sheets.client_id, sheets.client_secret, sheets.refresh_token).
Run 'spread history auth' to obtain a refresh token.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			tokenFile, _ := cmd.Flags().GetString("token-file")

			// A token saved by 'spread history auth' stands in for a configured refresh token.
			if viper.GetString("sheets.refresh_token") == "" && os.Getenv("GOOGLE_SHEETS_REFRESH_TOKEN") == "" {
				if token, err := sheets.LoadToken(config.ExpandPath(tokenFile)); err == nil && token.RefreshToken != "" {
					viper.Set("sheets.refresh_token", token.RefreshToken)
				}
			}

			sheetsCfg, err := config.LoadSheetsConfig(viper.GetViper())
			if err != nil {
				return common.NewUserError("Google Sheets is not configured", fmt.Errorf("%w: %w", common.ErrMissingConfig, err))
			}

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			entries := a.prefs.LoadHistory(ctx)
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("Nothing to export"))
				return nil
			}

			writer, err := sheets.NewWriter(ctx, *sheetsCfg, a.logger)
			if err != nil {
				return fmt.Errorf("failed to create sheets writer: %w", err)
			}

			var exporter service.HistoryExporter = writer
			err = cli.Spin(ctx, cmd.ErrOrStderr(), "Exporting to Google Sheets", func(ctx context.Context) error {
				return exporter.ExportHistory(ctx, entries)
			})
			if err != nil {
				return fmt.Errorf("export failed: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Exported %d conversions", len(entries))))
			return nil
		},
	}

	cmd.Flags().String("token-file", defaultTokenFile(), "OAuth2 token saved by 'spread history auth'")

	return cmd
}

func historyAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authorize Google Sheets export with OAuth2",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			clientID := firstNonEmpty(viper.GetString("sheets.client_id"), os.Getenv("GOOGLE_SHEETS_CLIENT_ID"))
			clientSecret := firstNonEmpty(viper.GetString("sheets.client_secret"), os.Getenv("GOOGLE_SHEETS_CLIENT_SECRET"))
			if clientID == "" || clientSecret == "" {
				return common.NewUserError("set sheets.client_id and sheets.client_secret first", common.ErrMissingConfig)
			}

			tokenFile, _ := cmd.Flags().GetString("token-file")
			listen, _ := cmd.Flags().GetString("listen")

			out := cmd.OutOrStdout()
			token, err := sheets.Authenticate(ctx, sheets.OAuth2Config{
				ClientID:     clientID,
				ClientSecret: clientSecret,
				TokenFile:    config.ExpandPath(tokenFile),
				ListenAddr:   listen,
				Timeout:      5 * time.Minute,
			}, func(authURL string) {
				fmt.Fprintln(out, "Open this URL in your browser to authorize access:")
				fmt.Fprintln(out, authURL)
			}, slog.Default())
			if err != nil {
				return fmt.Errorf("authorization failed: %w", err)
			}

			fmt.Fprintln(out, cli.FormatSuccess("Authorized"))
			fmt.Fprintln(out, cli.RenderBox("Add to your config", "sheets:\n  refresh_token: "+token.RefreshToken))
			return nil
		},
	}

	cmd.Flags().String("token-file", defaultTokenFile(), "Where to save the OAuth2 token")
	cmd.Flags().String("listen", "localhost:8080", "Local address for the OAuth2 callback")

	return cmd
}

func defaultTokenFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "sheets-token.json"
	}
	return filepath.Join(home, ".config", "spread", "sheets-token.json")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// confirm reads a y/N answer from the command's input.
func confirm(cmd *cobra.Command, prompt string) bool {
	fmt.Fprint(cmd.OutOrStdout(), prompt)
	answer, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}
