package execution

import (
	"math"

	"github.com/shopspring/decimal"
)

// AdjustToContractSize floors qty to the largest multiple of contractSize
// not exceeding it. Returns 0 when qty is below one contract or the
// contract size is unusable.
func AdjustToContractSize(qty, contractSize float64) float64 {
	if contractSize <= 0 || qty <= 0 {
		return 0
	}
	lots := decimal.NewFromFloat(qty).
		Div(decimal.NewFromFloat(contractSize)).
		Floor()
	return lots.Mul(decimal.NewFromFloat(contractSize)).InexactFloat64()
}

// USDQuantity converts an available balance (in the settlement currency)
// into a USD contract quantity at the given reference price, keeping a
// buffer unspent. The result is truncated to whole USD; a non-positive
// balance or price yields 0.
func USDQuantity(balance, price, bufferUSD float64) float64 {
	if balance <= 0 || price <= 0 {
		return 0
	}
	usd := balance*price - bufferUSD
	if usd <= 0 {
		return 0
	}
	return math.Trunc(usd)
}

// RoundToTick snaps price to the nearest multiple of tick, the venue's
// minimum increment. Submitting an unrounded price is a guaranteed
// rejection.
func RoundToTick(price, tick float64) float64 {
	if tick <= 0 {
		return price
	}
	ticks := decimal.NewFromFloat(price).
		Div(decimal.NewFromFloat(tick)).
		Round(0)
	return ticks.Mul(decimal.NewFromFloat(tick)).InexactFloat64()
}
