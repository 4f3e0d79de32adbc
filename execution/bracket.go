package execution

import (
	"context"
	"fmt"

	"deribit-trading-bot/transport"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// TriggerPlacer is the slice of the commander the bracket placer uses.
type TriggerPlacer interface {
	PlaceTrigger(ctx context.Context, side Side, qty, triggerPrice, limitPrice float64, kind TriggerKind) (*transport.Order, error)
}

// PartialBracketFailure reports bracket legs that could not be placed.
// It is non-fatal by contract: a missing stop-loss never rolls back the
// entry, it leaves the position unprotected and loudly logged.
type PartialBracketFailure struct {
	StopLoss   error
	TakeProfit error
}

func (e *PartialBracketFailure) Error() string {
	switch {
	case e.StopLoss != nil && e.TakeProfit != nil:
		return fmt.Sprintf("both bracket legs failed: stop-loss: %v; take-profit: %v", e.StopLoss, e.TakeProfit)
	case e.StopLoss != nil:
		return fmt.Sprintf("stop-loss leg failed: %v", e.StopLoss)
	default:
		return fmt.Sprintf("take-profit leg failed: %v", e.TakeProfit)
	}
}

// BracketPlacer derives the stop-loss/take-profit pair from a filled
// entry. The two legs are independent venue objects; there is no OCO
// linkage, so one filling does not cancel the other.
type BracketPlacer struct {
	placer      TriggerPlacer
	instruments InstrumentSource
	cfg         Config
	log         *zap.Logger
}

func NewBracketPlacer(placer TriggerPlacer, instruments InstrumentSource, cfg Config, log *zap.Logger) *BracketPlacer {
	return &BracketPlacer{placer: placer, instruments: instruments, cfg: cfg, log: log}
}

// Place submits the stop-loss and take-profit trigger orders for a
// position of qty entered on entrySide at execPrice. Prices are offset by
// the configured percentages, adverse for the stop and favorable for the
// take-profit, and rounded to the tick.
func (b *BracketPlacer) Place(ctx context.Context, execPrice, qty float64, entrySide Side) error {
	tick := b.tickSize(ctx)
	entry := decimal.NewFromFloat(execPrice)
	slPct := decimal.NewFromFloat(b.cfg.StopLossPercent)
	tpPct := decimal.NewFromFloat(b.cfg.TakeProfitPercent)
	one := decimal.NewFromInt(1)

	var stopPrice, takePrice float64
	if entrySide == SideBuy {
		stopPrice = entry.Mul(one.Sub(slPct)).InexactFloat64()
		takePrice = entry.Mul(one.Add(tpPct)).InexactFloat64()
	} else {
		stopPrice = entry.Mul(one.Add(slPct)).InexactFloat64()
		takePrice = entry.Mul(one.Sub(tpPct)).InexactFloat64()
	}
	stopPrice = RoundToTick(stopPrice, tick)
	takePrice = RoundToTick(takePrice, tick)

	exitSide := entrySide.Opposite()
	b.log.Info("placing bracket orders",
		zap.Float64("entry_price", execPrice),
		zap.Float64("stop_loss", stopPrice),
		zap.Float64("take_profit", takePrice),
		zap.Float64("qty", qty))

	var failure PartialBracketFailure
	if _, err := b.placer.PlaceTrigger(ctx, exitSide, qty, stopPrice, stopPrice, TriggerStopLoss); err != nil {
		mtxBracketFailures.WithLabelValues("stop_loss").Inc()
		b.log.Error("failed to place stop-loss order", zap.Error(err))
		failure.StopLoss = err
	}
	if _, err := b.placer.PlaceTrigger(ctx, exitSide, qty, takePrice, takePrice, TriggerTakeProfit); err != nil {
		mtxBracketFailures.WithLabelValues("take_profit").Inc()
		b.log.Error("failed to place take-profit order", zap.Error(err))
		failure.TakeProfit = err
	}
	if failure.StopLoss != nil || failure.TakeProfit != nil {
		return &failure
	}
	return nil
}

func (b *BracketPlacer) tickSize(ctx context.Context) float64 {
	inst, err := b.instruments.Instrument(ctx)
	if err != nil || inst == nil || inst.TickSize <= 0 {
		return b.cfg.TickSizeFallback
	}
	return inst.TickSize
}
