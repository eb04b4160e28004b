// Package rates holds the rate table, the cross-rate resolver and the
// sources that refresh the table from live quotes.
//
// A Table maps "BASE/QUOTE" keys to the price of one BASE in QUOTE. The
// Resolver finds the best-known rate between two currencies by trying, in
// order: identity, a direct entry, an inverted entry, a cross through USD,
// and finally the static fallback table.
package rates
