package model

// SessionState is everything the calculator restores between runs.
// Empty fields mean "use the default".
type SessionState struct {
	Rates     map[string]float64
	CurrencyA string
	CurrencyB string
	Spread    string
	History   []HistoryEntry
}
