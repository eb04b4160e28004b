package rates

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Veraticus/the-spread-must-flow/internal/common"
	"github.com/Veraticus/the-spread-must-flow/internal/model"
)

// quoteLine matches "USD/RUB: 91.5", "usd-idr = 16,200", "RUB IDR 210".
var quoteLine = regexp.MustCompile(`(?i)\b([A-Z]{3})[/\-\s]+([A-Z]{3})[:=\s]+(\d[\d,.]*)`)

// ParseQuotes extracts every "PAIR: VALUE" quote found in free-form text.
// Unparseable or non-positive values are skipped; later quotes for the same pair win.
func ParseQuotes(text string) Table {
	t := Table{}
	for _, m := range quoteLine.FindAllStringSubmatch(text, -1) {
		v, err := ParseNumber(m[3])
		if err != nil {
			continue
		}
		if !quoteCode(m[1]) || !quoteCode(m[2]) {
			continue
		}
		pair := model.NewPair(m[1], m[2])
		if pair.Base == pair.Quote {
			continue
		}
		_ = t.Set(pair.Base, pair.Quote, v)
	}
	return t
}

// quoteCode accepts codes written in capitals or any casing of a known
// currency, so prose like "rate for USD" does not yield a FOR/USD quote.
func quoteCode(code string) bool {
	if code == strings.ToUpper(code) {
		return true
	}
	_, known := model.LookupCurrency(code)
	return known
}

// ParseNumber reads a rate token that may use "," as either a thousands
// separator or a decimal mark. When both appear the later one is the decimal
// mark. A lone comma (or several) followed by exactly three digits is taken as
// grouping, anything else as a decimal mark. This is a heuristic: "1,234"
// always reads as 1234 even when a three-digit fraction was meant.
func ParseNumber(token string) (float64, error) {
	s := strings.TrimRight(strings.TrimSpace(token), ".,")
	if s == "" {
		return 0, fmt.Errorf("%w: empty number", common.ErrInvalidRate)
	}

	lastComma := strings.LastIndexByte(s, ',')
	lastDot := strings.LastIndexByte(s, '.')
	switch {
	case lastComma >= 0 && lastDot >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		if len(s)-lastComma-1 == 3 {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.Replace(s, ",", ".", 1)
		}
	case strings.Count(s, ".") > 1:
		s = strings.ReplaceAll(s, ".", "")
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", common.ErrInvalidRate, token)
	}
	if !ValidRate(v) {
		return 0, fmt.Errorf("%w: %q", common.ErrInvalidRate, token)
	}
	return v, nil
}
