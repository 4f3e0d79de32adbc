package execution

import (
	"context"
	"errors"
	"fmt"
	"math"

	"deribit-trading-bot/transport"

	"go.uber.org/zap"
)

// PositionReader re-reads the venue position; nil means flat-or-unknown.
type PositionReader interface {
	Position(ctx context.Context) (*transport.Position, error)
}

// OrderChaser executes one fill-or-fallback chase.
type OrderChaser interface {
	Chase(ctx context.Context, side Side, qty float64) (float64, error)
}

// BracketOrders protects a freshly opened position.
type BracketOrders interface {
	Place(ctx context.Context, execPrice, qty float64, entrySide Side) error
}

// Canceller clears outstanding orders before a reversal.
type Canceller interface {
	CancelAll(ctx context.Context) error
}

// TransitionManager is the Flat/Long/Short state machine. A transition is
// atomic from the strategy's point of view: the closing leg of a reversal
// must be confirmed (position size back across zero) before the opening
// leg is allowed to start.
type TransitionManager struct {
	positions PositionReader
	chaser    OrderChaser
	brackets  BracketOrders
	canceller Canceller
	cfg       Config
	log       *zap.Logger
}

func NewTransitionManager(positions PositionReader, chaser OrderChaser, brackets BracketOrders, canceller Canceller, cfg Config, log *zap.Logger) *TransitionManager {
	return &TransitionManager{
		positions: positions,
		chaser:    chaser,
		brackets:  brackets,
		canceller: canceller,
		cfg:       cfg,
		log:       log,
	}
}

// Transition moves the position to the desired direction, opening openQty
// contracts. Requesting the direction already held is a no-op; requesting
// the opposite flattens first, waits for convergence, then opens.
func (tm *TransitionManager) Transition(ctx context.Context, desired Direction, openQty float64) error {
	if desired != DirectionLong && desired != DirectionShort {
		return fmt.Errorf("transition: invalid desired direction %q", desired)
	}

	pos, err := tm.positions.Position(ctx)
	if err != nil {
		return fmt.Errorf("transition: read position: %w", err)
	}
	current := positionDirection(pos)

	if current == desired {
		tm.log.Info("already positioned in desired direction, no action",
			zap.String("direction", string(desired)))
		return nil
	}

	if current != DirectionFlat {
		if err := tm.reverse(ctx, current, desired, pos); err != nil {
			return err
		}
	}

	tm.log.Info("opening position",
		zap.String("direction", string(desired)), zap.Float64("qty", openQty))
	execPrice, err := tm.chaser.Chase(ctx, desired.Side(), openQty)
	if err != nil {
		if errors.Is(err, ErrNothingFilled) {
			tm.log.Warn("entry chase filled nothing, skipping bracket orders")
			return nil
		}
		return fmt.Errorf("transition: open %s: %w", desired, err)
	}

	if err := tm.brackets.Place(ctx, execPrice, openQty, desired.Side()); err != nil {
		// Reported, not fatal: the entry stands even when a leg is missing.
		tm.log.Error("bracket placement incomplete, position is unprotected", zap.Error(err))
	}
	return nil
}

// reverse flattens the opposite position: cancel everything outstanding,
// chase the full size on the closing side, then block until the venue
// confirms the position crossed zero. The wait shares the chase's time
// budget rather than running unbounded.
func (tm *TransitionManager) reverse(ctx context.Context, current, desired Direction, pos *transport.Position) error {
	tm.log.Info("reversing position",
		zap.String("from", string(current)), zap.String("to", string(desired)),
		zap.Float64("size", pos.Size))

	if err := tm.canceller.CancelAll(ctx); err != nil {
		return fmt.Errorf("transition: cancel outstanding orders: %w", err)
	}

	closeQty := math.Abs(pos.Size)
	if _, err := tm.chaser.Chase(ctx, desired.Side(), closeQty); err != nil {
		return fmt.Errorf("transition: close %s position: %w", current, err)
	}

	err := pollUntil(ctx, tm.cfg.PollInterval, tm.cfg.TimeBudget, func(ctx context.Context) (bool, error) {
		p, err := tm.positions.Position(ctx)
		if err != nil {
			return false, nil // unknown this tick, keep waiting
		}
		var size float64
		if p != nil {
			size = p.Size
		}
		if current == DirectionLong {
			return size <= 0, nil
		}
		return size >= 0, nil
	})
	if err != nil {
		return fmt.Errorf("transition: %s position did not flatten within budget: %w", current, err)
	}
	tm.log.Info("position flattened", zap.String("was", string(current)))
	return nil
}

// positionDirection maps the venue's position report onto the state
// machine's direction.
func positionDirection(pos *transport.Position) Direction {
	if pos == nil || pos.Size == 0 {
		return DirectionFlat
	}
	if pos.Direction == "buy" || pos.Size > 0 {
		return DirectionLong
	}
	return DirectionShort
}
