// Package domain defines core data structures used throughout the rebalancer.
package domain

import (
	"fmt"
	"strings"
)

// Pair cryptocurrency trading pair.
type Pair struct {
	// From base currency symbol.
	From string
	// To quote currency symbol.
	To string
}

// NewPair builds an upper-cased pair.
func NewPair(base, quote string) Pair {
	return Pair{From: strings.ToUpper(base), To: strings.ToUpper(quote)}
}

// String returns the string representation.
func (p Pair) String() string {
	return fmt.Sprintf("%s_%s", p.From, p.To)
}

// Symbol returns the canonical exchange form, e.g. ETHUSDC.
func (p Pair) Symbol() string {
	return p.From + p.To
}

// Universe ordered set of pairs targeted for equal-weight allocation.
type Universe []Pair

// Contains reports whether the universe holds a pair with the given base asset.
func (u Universe) Contains(asset string) bool {
	for _, p := range u {
		if p.From == asset {
			return true
		}
	}
	return false
}

// Symbols returns the canonical symbols in universe order.
func (u Universe) Symbols() []string {
	out := make([]string, 0, len(u))
	for _, p := range u {
		out = append(out, p.Symbol())
	}
	return out
}
