package execution

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"deribit-trading-bot/transport"

	"go.uber.org/zap"
)

// ErrNothingFilled reports a chase that ended with no executed quantity.
// Callers must not place bracket orders after it.
var ErrNothingFilled = errors.New("execution: chase filled nothing")

// ChaseReader is the read-only surface the chaser polls each tick.
type ChaseReader interface {
	OrderBook(ctx context.Context) (*transport.OrderBook, error)
	OrderState(ctx context.Context, orderID string) (*transport.Order, error)
	Instrument(ctx context.Context) (*transport.Instrument, error)
}

// ChasePlacer is the mutating surface the chaser drives.
type ChasePlacer interface {
	PlaceLimit(ctx context.Context, side Side, qty, price float64) (*transport.Order, error)
	PlaceMarket(ctx context.Context, side Side, qty float64) (*transport.Order, error)
	Cancel(ctx context.Context, orderID string) error
}

// Chaser fills a quantity by repricing a single resting post-only limit
// order against the top of book, falling back to a market order when the
// time budget runs out. It holds at most one live order at any moment:
// a replacement is only placed after the previous order was cancelled and
// the working reference cleared.
type Chaser struct {
	reader ChaseReader
	placer ChasePlacer
	cfg    Config
	log    *zap.Logger
}

func NewChaser(reader ChaseReader, placer ChasePlacer, cfg Config, log *zap.Logger) *Chaser {
	return &Chaser{reader: reader, placer: placer, cfg: cfg, log: log}
}

// Chase works side/qty until filled or the budget expires, then completes
// via the market fallback. It returns the execution price, or
// ErrNothingFilled when the quantity floored to zero contracts or no fill
// could be obtained.
func (c *Chaser) Chase(ctx context.Context, side Side, qty float64) (float64, error) {
	remaining := AdjustToContractSize(qty, c.contractSize(ctx))
	if remaining <= 0 {
		c.log.Info("quantity below one contract, nothing to chase", zap.Float64("qty", qty))
		return 0, ErrNothingFilled
	}

	start := time.Now()
	defer func() { mtxChaseSeconds.Observe(time.Since(start).Seconds()) }()

	tick := c.tickSize(ctx)
	offset := float64(c.cfg.PriceOffsetTicks) * tick

	var workingID string
	var execPrice float64

	err := pollUntil(ctx, c.cfg.PollInterval, c.cfg.TimeBudget, func(ctx context.Context) (bool, error) {
		book, err := c.reader.OrderBook(ctx)
		if err != nil || book == nil {
			return false, nil // stale tick, try again
		}
		var target float64
		if side == SideBuy {
			target = book.BestBidPrice - offset
		} else {
			target = book.BestAskPrice + offset
		}

		if workingID != "" {
			order, err := c.reader.OrderState(ctx, workingID)
			if err != nil || order == nil {
				// No update this tick; keep the working order as-is.
				return false, nil
			}
			if order.FilledAmount >= remaining {
				execPrice = order.Price
				remaining = 0
				return true, nil
			}
			if math.Abs(order.Price-target) > c.cfg.PriceTolerance {
				if err := c.placer.Cancel(ctx, workingID); err != nil {
					c.log.Warn("reprice cancel failed, retrying next tick", zap.Error(err))
					return false, nil
				}
				workingID = ""
			}
		}

		if workingID == "" {
			order, err := c.placer.PlaceLimit(ctx, side, remaining, target)
			if err != nil {
				return false, nil // replaced next tick after a state re-check
			}
			workingID = order.OrderID
			if order.FilledAmount >= remaining {
				execPrice = order.Price
				remaining = 0
				return true, nil
			}
		}
		return false, nil
	})

	switch {
	case err == nil:
		c.log.Info("chase filled passively",
			zap.String("side", string(side)),
			zap.Float64("price", execPrice),
			zap.Duration("elapsed", time.Since(start)))
		return execPrice, nil
	case errors.Is(err, errBudgetExhausted):
		return c.fallback(ctx, side, remaining, workingID)
	default:
		if workingID != "" {
			if cerr := c.placer.Cancel(ctx, workingID); cerr != nil {
				c.log.Warn("could not cancel working order on abort", zap.Error(cerr))
			}
		}
		return 0, err
	}
}

// fallback cancels the working order and completes the remaining quantity
// at market, polling until the venue reports the order filled.
func (c *Chaser) fallback(ctx context.Context, side Side, remaining float64, workingID string) (float64, error) {
	mtxMarketFallbacks.Inc()
	c.log.Info("time budget reached, falling back to market order",
		zap.String("side", string(side)), zap.Float64("remaining", remaining))

	if workingID != "" {
		if err := c.placer.Cancel(ctx, workingID); err != nil {
			c.log.Warn("cancel before market fallback failed", zap.Error(err))
		}
	}

	order, err := c.placer.PlaceMarket(ctx, side, remaining)
	if err != nil {
		return 0, fmt.Errorf("market fallback: %w", err)
	}

	var avgPrice float64
	err = pollUntil(ctx, c.cfg.PollInterval, c.cfg.FillPollBudget, func(ctx context.Context) (bool, error) {
		state, err := c.reader.OrderState(ctx, order.OrderID)
		if err != nil || state == nil {
			return false, nil
		}
		if state.OrderState == transport.OrderStateFilled {
			avgPrice = state.AveragePrice
			return true, nil
		}
		return false, nil
	})
	if err != nil {
		return 0, fmt.Errorf("market fallback fill not confirmed: %w", err)
	}
	c.log.Info("chase completed at market",
		zap.String("order_id", order.OrderID), zap.Float64("avg_price", avgPrice))
	return avgPrice, nil
}

func (c *Chaser) tickSize(ctx context.Context) float64 {
	inst, err := c.reader.Instrument(ctx)
	if err != nil || inst == nil || inst.TickSize <= 0 {
		return c.cfg.TickSizeFallback
	}
	return inst.TickSize
}

func (c *Chaser) contractSize(ctx context.Context) float64 {
	inst, err := c.reader.Instrument(ctx)
	if err != nil || inst == nil || inst.ContractSize <= 0 {
		return c.cfg.ContractSizeFallback
	}
	return inst.ContractSize
}
