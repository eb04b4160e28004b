package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Veraticus/the-spread-must-flow/internal/calc"
	"github.com/Veraticus/the-spread-must-flow/internal/cli"
	"github.com/Veraticus/the-spread-must-flow/internal/common"
	"github.com/Veraticus/the-spread-must-flow/internal/model"
	"github.com/Veraticus/the-spread-must-flow/internal/ofx"
	"github.com/Veraticus/the-spread-must-flow/internal/rates"
)

func ratesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rates",
		Short: "Inspect and refresh exchange rates",
	}

	cmd.AddCommand(ratesListCmd())
	cmd.AddCommand(ratesCurrenciesCmd())
	cmd.AddCommand(ratesResolveCmd())
	cmd.AddCommand(ratesRefreshCmd())
	cmd.AddCommand(ratesImportOFXCmd())

	return cmd
}

func ratesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show the rate table the calculator uses",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			cached := a.prefs.LoadRates(ctx)
			table := a.rateTable(ctx)

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, cli.FormatTitle("Exchange Rates"))

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "%s\t%s\t%s\n",
				cli.TableHeaderStyle.Render("Pair"),
				cli.TableHeaderStyle.Render("Rate"),
				cli.TableHeaderStyle.Render("Source"))
			fmt.Fprintf(w, "%s\t%s\t%s\n", strings.Repeat("─", 8), strings.Repeat("─", 14), strings.Repeat("─", 8))
			for _, key := range table.Keys() {
				origin := "fallback"
				if _, ok := cached[key]; ok {
					origin = "cached"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", key, calc.FormatRate(table[key]), origin)
			}
			return w.Flush()
		},
	}
}

func ratesCurrenciesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "currencies",
		Short: "List the currencies offered by the calculator",
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			for _, c := range model.SupportedCurrencies {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", c.Flag, c.Code, c.Symbol, c.Name)
			}
			return w.Flush()
		},
	}
}

func ratesResolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve BASE QUOTE",
		Short: "Show how a rate is derived from the table",
		Long: `Resolve the rate for 1 BASE in QUOTE and show the path used:
identity, direct, inverse, cross (via USD) or fallback.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			base, quote := model.NormalizeCode(args[0]), model.NormalizeCode(args[1])
			for _, code := range []string{base, quote} {
				if !model.IsValidCode(code) {
					return common.NewUserError("currency codes are three letters, e.g. EUR", fmt.Errorf("invalid currency %q", code))
				}
			}

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := rates.NewResolver().Resolve(base, quote, a.rateTable(ctx))
			if err != nil {
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatWarning(fmt.Sprintf("No rate for %s/%s; the calculator treats it as 1", base, quote)))
				return nil
			}

			fmt.Fprintf(cmd.OutOrStdout(), "1 %s = %s %s  %s\n", base, calc.FormatRate(res.Rate), quote,
				cli.SubtleStyle.Render("("+string(res.Path)+")"))
			return nil
		},
	}
}

func ratesRefreshCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Fetch fresh rates and cache them",
		RunE:  runRatesRefresh,
	}

	cmd.Flags().String("from", "", "Currency A (default: saved selection)")
	cmd.Flags().String("to", "", "Currency B (default: saved selection)")

	return cmd
}

func runRatesRefresh(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	state, err := a.prefs.LoadState(ctx)
	if err != nil {
		return err
	}
	conv, err := convertContext(cmd, a, state)
	if err != nil {
		return err
	}

	source, err := a.buildSource()
	if err != nil {
		return err
	}
	refresher := a.newRefresher(source, func() (string, string) {
		return conv.CurrencyA, conv.CurrencyB
	}, nil)

	var fresh rates.Table
	err = cli.Spin(ctx, cmd.ErrOrStderr(), "Fetching rates from "+source.Name(), func(ctx context.Context) error {
		t, err := refresher.Refresh(ctx)
		fresh = t
		return err
	})
	if err != nil {
		return err
	}

	merged, applied := a.prefs.LoadRates(ctx).Merge(fresh)
	if err := a.prefs.SaveRates(ctx, merged); err != nil {
		return fmt.Errorf("failed to cache rates: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Updated %d rates", applied)))
	for _, key := range fresh.Sanitize().Keys() {
		fmt.Fprintf(out, "  %s = %s\n", key, calc.FormatRate(fresh[key]))
	}
	return nil
}

func ratesImportOFXCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import-ofx [files...]",
		Short: "Import exchange rates from OFX/QFX statements",
		Long: `Import the exchange rates your bank actually applied, taken from the
CURRATE of foreign-currency transactions in OFX or QFX statements.

Examples:
  # Import single file
  spread rates import-ofx ~/Downloads/card_jan.qfx

  # Import all QFX files in a directory
  spread rates import-ofx ~/Downloads/*.qfx`,
		Args: cobra.MinimumNArgs(1),
		RunE: runImportOFX,
	}

	cmd.Flags().BoolP("dry-run", "d", false, "Preview import without saving")

	return cmd
}

func runImportOFX(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	files, err := expandFiles(args)
	if err != nil {
		return err
	}

	slog.Info("Importing OFX files", "file_count", len(files), "dry_run", dryRun)

	parser := ofx.NewParser(slog.Default())
	bar := cli.NewProgressBar(cmd.ErrOrStderr(), len(files), "Reading statements...")

	var observations []ofx.Observation
	for _, path := range files {
		found, err := parseOFXFile(ctx, parser, path)
		if err != nil {
			slog.Warn("Skipping file", "file", path, "error", err)
		} else {
			observations = append(observations, found...)
		}
		_ = bar.Add(1)
	}

	if len(observations) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), cli.FormatWarning("No foreign-currency transactions found"))
		return nil
	}

	ofx.SortByDate(observations)
	latest := ofx.LatestRates(observations)

	out := cmd.OutOrStdout()
	for _, key := range latest.Keys() {
		fmt.Fprintf(out, "  %s = %s\n", key, calc.FormatRate(latest[key]))
	}
	if dryRun {
		fmt.Fprintln(out, cli.FormatInfo(fmt.Sprintf("Dry run: %d rates from %d transactions not saved", len(latest), len(observations))))
		return nil
	}

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	merged, applied := a.prefs.LoadRates(ctx).Merge(latest)
	if err := a.prefs.SaveRates(ctx, merged); err != nil {
		return fmt.Errorf("failed to save rates: %w", err)
	}

	fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Imported %d rates from %d transactions", applied, len(observations))))
	return nil
}

// expandFiles resolves glob patterns, keeping plain paths that exist.
func expandFiles(patterns []string) ([]string, error) {
	var files []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %s: %w", pattern, err)
		}
		if len(matches) == 0 {
			if _, err := os.Stat(pattern); err == nil {
				files = append(files, pattern)
			} else {
				slog.Warn("No files found matching pattern", "pattern", pattern)
			}
			continue
		}
		files = append(files, matches...)
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("no files found to import")
	}
	return files, nil
}

func parseOFXFile(ctx context.Context, parser *ofx.Parser, path string) ([]ofx.Observation, error) {
	f, err := os.Open(path) // #nosec G304
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	return parser.ParseRates(ctx, f)
}
