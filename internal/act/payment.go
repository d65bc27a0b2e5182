package act

import (
	"math"

	"github.com/xkilldash9x/prunact/internal/gamedata"
)

// TotalTonnage sums weight x quantity over a bill. Tickers missing from the
// catalog count their quantity as tonnage.
func TotalTonnage(materials map[string]int, catalog gamedata.MaterialCatalog) float64 {
	total := 0.0
	for ticker, amount := range materials {
		if m, ok := catalog.ByTicker(ticker); ok {
			total += m.Weight * float64(amount)
		} else {
			total += float64(amount)
		}
	}
	return total
}

// TotalPayment is the contract payment for a tonnage at a rate per ton. A rate
// of zero or less means no payment.
func TotalPayment(tonnage, ratePerTon float64) int {
	if ratePerTon <= 0 {
		return 0
	}
	return int(RoundHalfUp(tonnage * ratePerTon))
}

// RoundHalfUp rounds to the nearest integer with halves rounded toward +Inf.
func RoundHalfUp(v float64) float64 {
	return math.Floor(v + 0.5)
}
