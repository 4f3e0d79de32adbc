// Package marketdata provides the read-only market and account queries the
// execution engine decides on: order book snapshots, instrument metadata,
// position, balance and reference price.
package marketdata

import (
	"context"
	"sync"

	"deribit-trading-bot/transport"

	"go.uber.org/zap"
)

// Caller is the request surface the reader needs from the transport
// session.
type Caller interface {
	Call(ctx context.Context, method string, params, result any) error
}

// Config selects the instrument the reader serves.
type Config struct {
	InstrumentName string // e.g. "BTC-PERPETUAL"
	Currency       string // settlement currency, e.g. "BTC"
	Kind           string // position kind filter, e.g. "future"
}

// DefaultConfig targets the BTC perpetual swap.
var DefaultConfig = Config{
	InstrumentName: "BTC-PERPETUAL",
	Currency:       "BTC",
	Kind:           "future",
}

// Reader answers venue queries over the session. Reads degrade on remote
// failure instead of aborting the run: each method documents its sentinel.
// Position is deliberately never cached; every decision point re-reads it.
type Reader struct {
	caller Caller
	cfg    Config
	log    *zap.Logger

	mu         sync.Mutex
	instrument *transport.Instrument // memoized; immutable for a session
}

func NewReader(caller Caller, cfg Config, log *zap.Logger) *Reader {
	return &Reader{caller: caller, cfg: cfg, log: log}
}

// OrderBook returns a book snapshot. Remote failures are returned to the
// caller, who skips the decision tick rather than act on a stale book.
func (r *Reader) OrderBook(ctx context.Context) (*transport.OrderBook, error) {
	var book transport.OrderBook
	err := r.caller.Call(ctx, transport.MethodOrderBook,
		transport.OrderBookParams{InstrumentName: r.cfg.InstrumentName}, &book)
	if err != nil {
		r.log.Warn("order book unavailable", zap.Error(err))
		return nil, err
	}
	return &book, nil
}

// Instrument returns tick size and contract size, fetched once and cached
// for the lifetime of the reader.
func (r *Reader) Instrument(ctx context.Context) (*transport.Instrument, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.instrument != nil {
		return r.instrument, nil
	}
	var inst transport.Instrument
	err := r.caller.Call(ctx, transport.MethodInstrument,
		transport.InstrumentParams{InstrumentName: r.cfg.InstrumentName}, &inst)
	if err != nil {
		r.log.Warn("instrument details unavailable", zap.Error(err))
		return nil, err
	}
	r.instrument = &inst
	return r.instrument, nil
}

// Position returns the current position for the configured currency and
// kind, or nil when the venue reports none. A remote failure also yields
// nil — "flat or unknown", logged, never fatal.
func (r *Reader) Position(ctx context.Context) (*transport.Position, error) {
	var positions []transport.Position
	err := r.caller.Call(ctx, transport.MethodPositions,
		transport.PositionsParams{Currency: r.cfg.Currency, Kind: r.cfg.Kind}, &positions)
	if err != nil {
		if transport.IsRemote(err) {
			r.log.Warn("position query degraded to unknown", zap.Error(err))
			return nil, nil
		}
		return nil, err
	}
	for i := range positions {
		if positions[i].InstrumentName == r.cfg.InstrumentName {
			return &positions[i], nil
		}
	}
	return nil, nil
}

// OrderState returns the venue's view of one order. A remote failure
// yields (nil, nil): "no update this tick".
func (r *Reader) OrderState(ctx context.Context, orderID string) (*transport.Order, error) {
	var order transport.Order
	err := r.caller.Call(ctx, transport.MethodOrderState,
		transport.OrderStateParams{OrderID: orderID}, &order)
	if err != nil {
		if transport.IsRemote(err) {
			r.log.Warn("order state unavailable this tick",
				zap.String("order_id", orderID), zap.Error(err))
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// AvailableBalance returns available funds in the settlement currency.
// Remote failure degrades to 0; callers must treat 0 as "unknown", not as
// an empty account.
func (r *Reader) AvailableBalance(ctx context.Context) (float64, error) {
	var sum transport.AccountSummary
	err := r.caller.Call(ctx, transport.MethodAccountSummary,
		transport.AccountSummaryParams{Currency: r.cfg.Currency}, &sum)
	if err != nil {
		if transport.IsRemote(err) {
			r.log.Warn("balance query degraded to zero", zap.Error(err))
			return 0, nil
		}
		return 0, err
	}
	return sum.AvailableFunds, nil
}

// ReferencePrice returns the last traded price. Remote failure degrades
// to 0 ("unknown"), logged.
func (r *Reader) ReferencePrice(ctx context.Context) (float64, error) {
	var tk transport.Ticker
	err := r.caller.Call(ctx, transport.MethodTicker,
		transport.TickerParams{InstrumentName: r.cfg.InstrumentName}, &tk)
	if err != nil {
		if transport.IsRemote(err) {
			r.log.Warn("reference price degraded to zero", zap.Error(err))
			return 0, nil
		}
		return 0, err
	}
	return tk.LastPrice, nil
}
