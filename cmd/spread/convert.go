package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Veraticus/the-spread-must-flow/internal/calc"
	"github.com/Veraticus/the-spread-must-flow/internal/common"
	"github.com/Veraticus/the-spread-must-flow/internal/engine"
	"github.com/Veraticus/the-spread-must-flow/internal/model"
)

func convertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert AMOUNT",
		Short: "Convert an amount without opening the calculator",
		Long: `Convert an amount between the saved currency pair, or any pair given by flags.

AMOUNT may be an expression such as "2000000*3" or "1500+250".

Examples:
  spread convert 2000000
  spread convert 100 --from EUR --to IDR --spread 1.5
  spread convert 50 --field usd
  spread convert 9400 --field b --refresh`,
		Args: cobra.ExactArgs(1),
		RunE: runConvert,
	}

	cmd.Flags().String("from", "", "Currency A (default: saved selection)")
	cmd.Flags().String("to", "", "Currency B (default: saved selection)")
	cmd.Flags().String("spread", "", "Spread percent (default: saved spread)")
	cmd.Flags().String("field", "a", "Field AMOUNT is entered in (a, b, usd)")
	cmd.Flags().Bool("refresh", false, "Fetch fresh rates before converting")

	return cmd
}

func runConvert(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	fieldName, _ := cmd.Flags().GetString("field")
	refresh, _ := cmd.Flags().GetBool("refresh")

	field, ok := model.ParseField(fieldName)
	if !ok || field == model.FieldSpread {
		return common.NewUserError("field must be one of a, b, usd", fmt.Errorf("invalid field %q", fieldName))
	}
	if _, err := calc.Evaluate(args[0]); err != nil {
		return common.NewUserError("amount must be a number or an expression like 1500*3", err)
	}

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

	table := a.rateTable(ctx)
	if refresh {
		source, err := a.buildSource()
		if err != nil {
			return err
		}
		refresher := a.newRefresher(source, func() (string, string) {
			return conv.CurrencyA, conv.CurrencyB
		}, nil)
		fresh, err := refresher.Refresh(ctx)
		if err != nil {
			a.logger.Warn("Using cached rates", "error", err)
		} else {
			merged, _ := table.Merge(fresh)
			table = merged
			if err := a.prefs.SaveRates(ctx, merged); err != nil {
				a.logger.Warn("Failed to cache rates", "error", err)
			}
		}
	}

	sync := a.synchronizer()
	res := sync.Sync(engine.Request{
		Raw:     args[0],
		Anchor:  args[0],
		Context: conv,
		Field:   field,
	}, table)

	// The edited field keeps its raw text; show its evaluated value instead.
	value := calc.EvaluateString(args[0])
	switch field {
	case model.FieldA:
		res.A = value
	case model.FieldB:
		res.B = value
	case model.FieldUSD:
		res.USD = value
	}

	f := calc.Formatter{GroupSeparator: a.cfg.Display.GroupSeparator}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s %s\n", f.Display(res.A), conv.CurrencyA)
	fmt.Fprintf(out, "%s %s\n", f.Display(res.B), conv.CurrencyB)
	fmt.Fprintf(out, "%s USD\n", f.Display(res.USD))
	fmt.Fprintln(out, strings.Repeat("─", 32))
	fmt.Fprintf(out, "1 %s = %s %s (incl %s%%)\n", conv.CurrencyA, calc.FormatRate(res.EffectiveRate), conv.CurrencyB, res.Spread)
	fmt.Fprintf(out, "1 %s = %s %s\n", conv.CurrencyB, calc.FormatRate(res.InverseEffectiveRate()), conv.CurrencyA)

	return nil
}

// convertContext resolves currencies and spread from flags, then saved state,
// then configured defaults.
func convertContext(cmd *cobra.Command, a *app, state model.SessionState) (engine.Context, error) {
	from, _ := cmd.Flags().GetString("from")
	to, _ := cmd.Flags().GetString("to")
	spread, _ := cmd.Flags().GetString("spread")

	pick := func(flag, saved, fallback string) (string, error) {
		code := model.NormalizeCode(flag)
		if code == "" {
			code = model.NormalizeCode(saved)
		}
		if code == "" {
			code = fallback
		}
		if !model.IsValidCode(code) {
			return "", common.NewUserError("currency codes are three letters, e.g. EUR", fmt.Errorf("invalid currency %q", code))
		}
		return code, nil
	}

	currencyA, err := pick(from, state.CurrencyA, a.cfg.Defaults.CurrencyA)
	if err != nil {
		return engine.Context{}, err
	}
	currencyB, err := pick(to, state.CurrencyB, a.cfg.Defaults.CurrencyB)
	if err != nil {
		return engine.Context{}, err
	}

	if spread == "" {
		spread = state.Spread
	}
	percent := 0.0
	if spread != "" {
		v, err := calc.Evaluate(spread)
		if err != nil {
			return engine.Context{}, common.NewUserError("spread must be a percentage like 1.5", err)
		}
		percent = v
	}

	return engine.Context{CurrencyA: currencyA, CurrencyB: currencyB, SpreadPercent: percent}, nil
}
