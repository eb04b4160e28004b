// Package ofx extracts currency conversion rates from OFX/QFX statements.
// Card and bank statements record a CURRATE for every foreign currency
// transaction; those rates are the ones the bank actually applied.
package ofx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/aclindsa/ofxgo"

	"github.com/Veraticus/the-spread-must-flow/internal/model"
	"github.com/Veraticus/the-spread-must-flow/internal/rates"
)

var (
	severityRegex = regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)`)
	tagFixRegex   = regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
)

// Observation is one rate found on a statement transaction.
// Rate means 1 Pair.Base = Rate Pair.Quote.
type Observation struct {
	Date  time.Time
	Pair  model.Pair
	FiTID string
	Rate  float64
}

// Parser reads conversion rates from OFX files.
type Parser struct {
	logger *slog.Logger
}

// NewParser creates a new OFX parser.
func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{logger: logger}
}

// preprocessOFX fixes common formatting issues in OFX files.
func (p *Parser) preprocessOFX(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")

	// SEVERITY must be upper case
	content = severityRegex.ReplaceAllStringFunc(content, strings.ToUpper)

	// some exporters drop the closing bracket on bare opening tags
	return tagFixRegex.ReplaceAllString(content, "$1>")
}

// ParseRates returns every CURRENCY/ORIGCURRENCY rate in the file, oldest
// first. CURRATE is the ratio of the statement default currency to CURSYM,
// so each observation is recorded as CURSYM/CURDEF.
func (p *Parser) ParseRates(ctx context.Context, reader io.Reader) ([]Observation, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX file: %w", err)
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(p.preprocessOFX(string(content))))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OFX file: %w", err)
	}

	var observations []Observation
	var statements int

	for _, msg := range resp.Bank {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if stmt, ok := msg.(*ofxgo.StatementResponse); ok {
			statements++
			if stmt.BankTranList != nil {
				observations = append(observations, p.collect(stmt.CurDef, stmt.BankTranList.Transactions)...)
			}
		}
	}

	for _, msg := range resp.CreditCard {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if stmt, ok := msg.(*ofxgo.CCStatementResponse); ok {
			statements++
			if stmt.BankTranList != nil {
				observations = append(observations, p.collect(stmt.CurDef, stmt.BankTranList.Transactions)...)
			}
		}
	}

	SortByDate(observations)

	p.logger.Info("Parsed OFX file",
		"statements", statements,
		"rates", len(observations))

	return observations, nil
}

func (p *Parser) collect(curDef ofxgo.CurrSymbol, txns []ofxgo.Transaction) []Observation {
	quote := model.NormalizeCode(curDef.String())
	var out []Observation

	for _, tx := range txns {
		c := tx.Currency
		if c == nil {
			c = tx.OrigCurrency
		}
		if c == nil {
			continue
		}

		base := model.NormalizeCode(c.CurSym.String())
		rate, _ := c.CurRate.Float64()
		if base == "" || base == quote || !rates.ValidRate(rate) {
			p.logger.Debug("Skipping unusable OFX rate",
				"fitid", string(tx.FiTID),
				"currency", base,
				"rate", rate)
			continue
		}

		out = append(out, Observation{
			Date:  tx.DtPosted.Time,
			Pair:  model.Pair{Base: base, Quote: quote},
			FiTID: string(tx.FiTID),
			Rate:  rate,
		})
	}
	return out
}

// SortByDate orders observations oldest first, keeping file order for ties.
func SortByDate(observations []Observation) {
	sort.SliceStable(observations, func(i, j int) bool {
		return observations[i].Date.Before(observations[j].Date)
	})
}

// LatestRates reduces observations to a table holding the most recent rate
// per pair. Observations must be ordered oldest first.
func LatestRates(observations []Observation) rates.Table {
	t := rates.Table{}
	for _, o := range observations {
		_ = t.Set(o.Pair.Base, o.Pair.Quote, o.Rate)
	}
	return t
}
