package execution

import "time"

// Config holds every tunable of the engine. It is passed explicitly at
// construction so several instruments or strategies can run with
// independent parameters; there is no package-level mutable state.
type Config struct {
	InstrumentName string

	// Fallbacks used when instrument metadata cannot be fetched.
	TickSizeFallback     float64
	ContractSizeFallback float64

	// Chase behavior.
	PriceOffsetTicks int           // distance inside the passive side of the book
	PriceTolerance   float64       // reprice when the working order drifts past this
	PollInterval     time.Duration // spacing of decision ticks and position polls
	TimeBudget       time.Duration // passive chase budget before the market fallback
	FillPollBudget   time.Duration // how long to wait for the fallback fill report

	// Bracket percentages, applied to the entry execution price.
	StopLossPercent   float64
	TakeProfitPercent float64
}

// DefaultConfig returns the production parameters for BTC-PERPETUAL.
func DefaultConfig() Config {
	return Config{
		InstrumentName:       "BTC-PERPETUAL",
		TickSizeFallback:     0.5,
		ContractSizeFallback: 10,
		PriceOffsetTicks:     2,
		PriceTolerance:       0.5,
		PollInterval:         time.Second,
		TimeBudget:           200 * time.Second,
		FillPollBudget:       60 * time.Second,
		StopLossPercent:      0.09,
		TakeProfitPercent:    0.09,
	}
}
