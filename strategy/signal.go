// Package strategy turns external trading signals into position
// transitions. The signal source lives outside the bot; this package
// only decides the target direction and how many contracts to commit.
package strategy

import (
	"context"

	"deribit-trading-bot/execution"
)

// Signal is the externally supplied trading decision. Both flags set at
// once is treated as no signal.
type Signal struct {
	LongEntry  bool `json:"long_entry"`
	ShortEntry bool `json:"short_entry"`
}

// Direction maps the signal onto the desired position direction.
func (s Signal) Direction() execution.Direction {
	switch {
	case s.LongEntry && s.ShortEntry:
		return execution.DirectionFlat
	case s.LongEntry:
		return execution.DirectionLong
	case s.ShortEntry:
		return execution.DirectionShort
	default:
		return execution.DirectionFlat
	}
}

// Provider yields the signal for the current invocation.
type Provider interface {
	Signal(ctx context.Context) (Signal, error)
}
