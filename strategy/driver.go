package strategy

import (
	"context"
	"fmt"

	"deribit-trading-bot/execution"

	"go.uber.org/zap"
)

// AccountReader supplies the balance and reference price the driver
// sizes positions from.
type AccountReader interface {
	AvailableBalance(ctx context.Context) (float64, error)
	ReferencePrice(ctx context.Context) (float64, error)
}

// Transitioner moves the account to the desired position direction.
type Transitioner interface {
	Transition(ctx context.Context, desired execution.Direction, openQty float64) error
}

// Config holds the driver's sizing parameters.
type Config struct {
	// BalanceBufferUSD is kept unspent when converting balance to
	// contract quantity.
	BalanceBufferUSD float64

	// LongSizeMultiplier and ShortSizeMultiplier scale the base quantity
	// per direction.
	LongSizeMultiplier  float64
	ShortSizeMultiplier float64

	// ContractSizeFallback floors quantities when instrument metadata is
	// unavailable upstream.
	ContractSizeFallback float64
}

func DefaultConfig() Config {
	return Config{
		BalanceBufferUSD:     10,
		LongSizeMultiplier:   2,
		ShortSizeMultiplier:  4,
		ContractSizeFallback: 10,
	}
}

// Driver is the thin strategy layer: read the signal, size the
// position, hand off to the transition manager.
type Driver struct {
	account      AccountReader
	transitioner Transitioner
	cfg          Config
	log          *zap.Logger
}

func NewDriver(account AccountReader, transitioner Transitioner, cfg Config, log *zap.Logger) *Driver {
	return &Driver{account: account, transitioner: transitioner, cfg: cfg, log: log}
}

// Execute runs one strategy pass for the given signal. A flat signal is
// a no-op; degraded reads (zero balance or price) size to zero and are
// likewise a no-op rather than an error.
func (d *Driver) Execute(ctx context.Context, sig Signal) error {
	desired := sig.Direction()
	if desired == execution.DirectionFlat {
		d.log.Info("no actionable signal, holding current position")
		return nil
	}

	balance, err := d.account.AvailableBalance(ctx)
	if err != nil {
		return fmt.Errorf("strategy: read balance: %w", err)
	}
	price, err := d.account.ReferencePrice(ctx)
	if err != nil {
		return fmt.Errorf("strategy: read reference price: %w", err)
	}

	base := execution.USDQuantity(balance, price, d.cfg.BalanceBufferUSD)
	multiplier := d.cfg.LongSizeMultiplier
	if desired == execution.DirectionShort {
		multiplier = d.cfg.ShortSizeMultiplier
	}
	qty := execution.AdjustToContractSize(base*multiplier, d.cfg.ContractSizeFallback)
	if qty <= 0 {
		d.log.Warn("computed quantity is zero, skipping transition",
			zap.Float64("balance", balance), zap.Float64("price", price))
		return nil
	}

	d.log.Info("executing signal",
		zap.String("direction", string(desired)),
		zap.Float64("base_qty", base),
		zap.Float64("qty", qty))
	return d.transitioner.Transition(ctx, desired, qty)
}
