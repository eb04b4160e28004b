package rates

// fallbackRates are approximate reference rates used until a source reports fresher values.
var fallbackRates = Table{
	"USD/RUB": 91.50,
	"USD/IDR": 16200,
	"RUB/IDR": 210,
	"IDR/RUB": 0.0047,
	"USD/THB": 34.50,
	"USD/TRY": 34.20,
	"USD/GEL": 2.72,
	"EUR/USD": 1.09,
}

// Fallback returns a copy of the built-in static rate table.
func Fallback() Table {
	return fallbackRates.Clone()
}
