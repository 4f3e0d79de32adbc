// Package execution implements the order engine: the commander that
// mutates venue state, the chaser that works a limit order against the
// book, the position transition state machine and the bracket placer.
package execution

import (
	"context"
	"fmt"

	"deribit-trading-bot/transport"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Caller is the request surface the commander needs from the transport
// session.
type Caller interface {
	Call(ctx context.Context, method string, params, result any) error
}

// InstrumentSource supplies tick and contract size; the marketdata reader
// satisfies it.
type InstrumentSource interface {
	Instrument(ctx context.Context) (*transport.Instrument, error)
}

// Commander issues the mutating venue operations. Every price crossing it
// is rounded to the instrument's tick size first; the venue rejects
// anything else.
type Commander struct {
	caller      Caller
	instruments InstrumentSource
	cfg         Config
	log         *zap.Logger
	label       string // client label stamped on every order this run
}

func NewCommander(caller Caller, instruments InstrumentSource, cfg Config, log *zap.Logger) *Commander {
	return &Commander{
		caller:      caller,
		instruments: instruments,
		cfg:         cfg,
		log:         log,
		label:       "bot-" + uuid.NewString()[:8],
	}
}

// tickSize returns the instrument tick, falling back to the configured
// default when metadata is unavailable.
func (c *Commander) tickSize(ctx context.Context) float64 {
	inst, err := c.instruments.Instrument(ctx)
	if err != nil || inst == nil || inst.TickSize <= 0 {
		return c.cfg.TickSizeFallback
	}
	return inst.TickSize
}

// PlaceLimit submits a post-only good-til-cancelled limit order.
func (c *Commander) PlaceLimit(ctx context.Context, side Side, qty, price float64) (*transport.Order, error) {
	rounded := RoundToTick(price, c.tickSize(ctx))
	params := transport.OrderParams{
		InstrumentName: c.cfg.InstrumentName,
		Amount:         qty,
		Type:           orderTypeLimit,
		Price:          rounded,
		PostOnly:       true,
		TimeInForce:    "good_til_cancelled",
		Label:          c.label,
	}
	var res transport.OrderResult
	if err := c.caller.Call(ctx, side.Method(), params, &res); err != nil {
		c.log.Warn("limit order rejected",
			zap.String("side", string(side)), zap.Float64("price", rounded), zap.Error(err))
		return nil, fmt.Errorf("place limit: %w", err)
	}
	mtxOrdersPlaced.WithLabelValues(string(side), orderTypeLimit).Inc()
	c.log.Info("limit order placed",
		zap.String("order_id", res.Order.OrderID),
		zap.String("side", string(side)),
		zap.Float64("qty", qty),
		zap.Float64("price", rounded))
	return &res.Order, nil
}

// PlaceMarket submits a market order for immediate execution.
func (c *Commander) PlaceMarket(ctx context.Context, side Side, qty float64) (*transport.Order, error) {
	params := transport.OrderParams{
		InstrumentName: c.cfg.InstrumentName,
		Amount:         qty,
		Type:           orderTypeMarket,
		Label:          c.label,
	}
	var res transport.OrderResult
	if err := c.caller.Call(ctx, side.Method(), params, &res); err != nil {
		c.log.Warn("market order rejected",
			zap.String("side", string(side)), zap.Float64("qty", qty), zap.Error(err))
		return nil, fmt.Errorf("place market: %w", err)
	}
	mtxOrdersPlaced.WithLabelValues(string(side), orderTypeMarket).Inc()
	c.log.Info("market order placed",
		zap.String("order_id", res.Order.OrderID),
		zap.String("side", string(side)),
		zap.Float64("qty", qty))
	return &res.Order, nil
}

// PlaceTrigger submits a reduce-only stop_limit or take_limit order
// triggered off the last traded price. Both prices are tick-rounded.
func (c *Commander) PlaceTrigger(ctx context.Context, side Side, qty, triggerPrice, limitPrice float64, kind TriggerKind) (*transport.Order, error) {
	tick := c.tickSize(ctx)
	params := transport.OrderParams{
		InstrumentName: c.cfg.InstrumentName,
		Amount:         qty,
		Type:           string(kind),
		TriggerPrice:   RoundToTick(triggerPrice, tick),
		Price:          RoundToTick(limitPrice, tick),
		Trigger:        "last_price",
		ReduceOnly:     true,
		TimeInForce:    "good_til_cancelled",
		Label:          c.label,
	}
	var res transport.OrderResult
	if err := c.caller.Call(ctx, side.Method(), params, &res); err != nil {
		c.log.Warn("trigger order rejected",
			zap.String("kind", string(kind)), zap.Float64("trigger_price", params.TriggerPrice), zap.Error(err))
		return nil, fmt.Errorf("place %s: %w", kind, err)
	}
	mtxOrdersPlaced.WithLabelValues(string(side), string(kind)).Inc()
	c.log.Info("trigger order placed",
		zap.String("order_id", res.Order.OrderID),
		zap.String("kind", string(kind)),
		zap.String("side", string(side)),
		zap.Float64("qty", qty),
		zap.Float64("trigger_price", params.TriggerPrice))
	return &res.Order, nil
}

// Cancel cancels one order by id.
func (c *Commander) Cancel(ctx context.Context, orderID string) error {
	var cancelled transport.Order
	if err := c.caller.Call(ctx, transport.MethodCancel, transport.CancelParams{OrderID: orderID}, &cancelled); err != nil {
		return fmt.Errorf("cancel %s: %w", orderID, err)
	}
	mtxOrdersCancelled.Inc()
	c.log.Info("order cancelled", zap.String("order_id", orderID))
	return nil
}

// CancelAll cancels every outstanding order on the account.
func (c *Commander) CancelAll(ctx context.Context) error {
	var count float64
	if err := c.caller.Call(ctx, transport.MethodCancelAll, transport.CancelAllParams{}, &count); err != nil {
		return fmt.Errorf("cancel all: %w", err)
	}
	mtxOrdersCancelled.Inc()
	c.log.Info("all orders cancelled", zap.Float64("count", count))
	return nil
}
