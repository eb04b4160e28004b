package rates

import (
	"context"
	"fmt"
	"strings"

	"github.com/Veraticus/the-spread-must-flow/internal/common"
	"github.com/Veraticus/the-spread-must-flow/internal/model"
)

// Completer is the text-completion capability LLMSource needs.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, prompt string) (string, error)
}

const llmSystemPrompt = `You report current foreign exchange rates.
Answer with one line per pair in the form BASE/QUOTE: VALUE.
Use a dot as the decimal mark and no thousands separators. Do not add commentary.`

// LLMSource asks a language model for quotes and parses its "PAIR: VALUE" answer.
type LLMSource struct {
	client Completer
}

// NewLLMSource wraps a completion client as a rate source.
func NewLLMSource(client Completer) *LLMSource {
	return &LLMSource{client: client}
}

// Name implements Source.
func (s *LLMSource) Name() string {
	return "llm"
}

// FetchRates implements Source.
func (s *LLMSource) FetchRates(ctx context.Context, currencyA, currencyB string) (Table, error) {
	currencyA, currencyB = model.NormalizeCode(currencyA), model.NormalizeCode(currencyB)

	text, err := s.client.Complete(ctx, llmSystemPrompt, buildRatePrompt(currencyA, currencyB))
	if err != nil {
		return nil, fmt.Errorf("%w: llm: %w", common.ErrRateSource, err)
	}

	t := ParseQuotes(text)
	if len(t) == 0 {
		return nil, fmt.Errorf("%w: llm: %w", common.ErrRateSource, common.ErrNoRates)
	}
	return t, nil
}

func buildRatePrompt(currencyA, currencyB string) string {
	var b strings.Builder
	b.WriteString("Find the current official central bank and market exchange rates for these pairs:\n")
	for _, p := range wantedPairs(currencyA, currencyB) {
		fmt.Fprintf(&b, "- %s/%s\n", p[0], p[1])
	}
	fmt.Fprintf(&b, "Also include %s/%s. Format: PAIR: VALUE.", currencyB, currencyA)
	return b.String()
}
