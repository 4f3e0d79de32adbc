package execution

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"deribit-trading-bot/transport"

	"go.uber.org/zap"
)

// mockVenue simulates the exchange for chaser tests. It tracks how many
// non-terminal orders exist at once so tests can assert the
// single-working-order invariant.
type mockVenue struct {
	inst      *transport.Instrument
	books     []*transport.OrderBook
	bookCalls int

	fillOnPlace          bool   // limit orders fill in the placement response
	limitFillAfterChecks int    // fill a limit order after this many state checks; -1 never
	fillOrderID          string // fill exactly this order on its first state check
	stateErrs            int    // OrderState failures to inject before behaving

	marketAvg float64 // average price reported for filled market orders

	orders  map[string]*transport.Order
	checks  map[string]int
	seq     int
	live    int
	maxLive int
	ops     []string
}

func newMockVenue() *mockVenue {
	return &mockVenue{
		inst:                 &transport.Instrument{InstrumentName: "BTC-PERPETUAL", TickSize: 0.5, ContractSize: 10},
		books:                []*transport.OrderBook{{BestBidPrice: 50000, BestAskPrice: 50000.5}},
		limitFillAfterChecks: -1,
		marketAvg:            64123.5,
		orders:               make(map[string]*transport.Order),
		checks:               make(map[string]int),
	}
}

func (m *mockVenue) Instrument(context.Context) (*transport.Instrument, error) {
	return m.inst, nil
}

func (m *mockVenue) OrderBook(context.Context) (*transport.OrderBook, error) {
	i := m.bookCalls
	m.bookCalls++
	if i >= len(m.books) {
		i = len(m.books) - 1
	}
	return m.books[i], nil
}

func (m *mockVenue) place(kind string, side Side, qty, price float64) *transport.Order {
	m.seq++
	o := &transport.Order{
		OrderID:    fmt.Sprintf("ord-%d", m.seq),
		OrderState: transport.OrderStateOpen,
		OrderType:  kind,
		Direction:  string(side),
		Price:      price,
		Amount:     qty,
	}
	m.orders[o.OrderID] = o
	m.live++
	if m.live > m.maxLive {
		m.maxLive = m.live
	}
	m.ops = append(m.ops, fmt.Sprintf("%s %s %.0f", kind, side, qty))
	return o
}

func (m *mockVenue) PlaceLimit(_ context.Context, side Side, qty, price float64) (*transport.Order, error) {
	o := m.place("limit", side, qty, price)
	if m.fillOnPlace {
		o.OrderState = transport.OrderStateFilled
		o.FilledAmount = qty
		m.live--
	}
	cp := *o
	return &cp, nil
}

func (m *mockVenue) PlaceMarket(_ context.Context, side Side, qty float64) (*transport.Order, error) {
	o := m.place("market", side, qty, 0)
	cp := *o
	return &cp, nil
}

func (m *mockVenue) Cancel(_ context.Context, orderID string) error {
	m.ops = append(m.ops, "cancel")
	if o, ok := m.orders[orderID]; ok && o.OrderState == transport.OrderStateOpen {
		o.OrderState = transport.OrderStateCancelled
		m.live--
	}
	return nil
}

func (m *mockVenue) OrderState(_ context.Context, orderID string) (*transport.Order, error) {
	if m.stateErrs > 0 {
		m.stateErrs--
		return nil, &transport.RemoteError{Method: transport.MethodOrderState, Message: "unavailable"}
	}
	o, ok := m.orders[orderID]
	if !ok {
		return nil, nil
	}
	m.checks[orderID]++
	if o.OrderState == transport.OrderStateOpen {
		switch {
		case o.OrderType == "market":
			o.OrderState = transport.OrderStateFilled
			o.FilledAmount = o.Amount
			o.AveragePrice = m.marketAvg
			m.live--
		case o.OrderID == m.fillOrderID,
			m.limitFillAfterChecks >= 0 && m.checks[orderID] > m.limitFillAfterChecks:
			o.OrderState = transport.OrderStateFilled
			o.FilledAmount = o.Amount
			m.live--
		}
	}
	cp := *o
	return &cp, nil
}

func (m *mockVenue) count(prefix string) int {
	n := 0
	for _, op := range m.ops {
		if strings.HasPrefix(op, prefix) {
			n++
		}
	}
	return n
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.PollInterval = time.Millisecond
	cfg.TimeBudget = 25 * time.Millisecond
	cfg.FillPollBudget = 100 * time.Millisecond
	return cfg
}

func newTestChaser(venue *mockVenue) *Chaser {
	return NewChaser(venue, venue, testConfig(), zap.NewNop())
}

func TestChaseConvergesImmediatelyOnStaticBook(t *testing.T) {
	venue := newMockVenue()
	venue.fillOnPlace = true
	chaser := newTestChaser(venue)

	price, err := chaser.Chase(context.Background(), SideBuy, 100)
	if err != nil {
		t.Fatalf("Chase: %v", err)
	}
	// tick 0.5, two ticks inside the bid
	if want := 49999.0; price != want {
		t.Errorf("execution price = %v, want %v", price, want)
	}
	if got := venue.count("limit"); got != 1 {
		t.Errorf("limit orders placed = %d, want 1", got)
	}
	if got := venue.count("market"); got != 0 {
		t.Errorf("market fallback used on a filling venue (%d market orders)", got)
	}
	if venue.maxLive > 1 {
		t.Errorf("held %d live orders at once, invariant is 1", venue.maxLive)
	}
}

func TestChaseFillsOnFirstStateCheck(t *testing.T) {
	venue := newMockVenue()
	venue.limitFillAfterChecks = 0
	chaser := newTestChaser(venue)

	price, err := chaser.Chase(context.Background(), SideSell, 200)
	if err != nil {
		t.Fatalf("Chase: %v", err)
	}
	if want := 50001.5; price != want { // ask + 2 ticks
		t.Errorf("execution price = %v, want %v", price, want)
	}
	if got := venue.count("market"); got != 0 {
		t.Errorf("market fallback used (%d)", got)
	}
}

func TestChaseRepricesWhenBookMoves(t *testing.T) {
	venue := newMockVenue()
	venue.books = []*transport.OrderBook{
		{BestBidPrice: 50000, BestAskPrice: 50000.5},
		{BestBidPrice: 50010, BestAskPrice: 50010.5},
	}
	venue.fillOrderID = "ord-2" // the replacement fills, the original must not
	chaser := newTestChaser(venue)

	price, err := chaser.Chase(context.Background(), SideBuy, 100)
	if err != nil {
		t.Fatalf("Chase: %v", err)
	}
	if want := 50009.0; price != want {
		t.Errorf("execution price = %v, want %v", price, want)
	}
	if got := venue.count("limit"); got != 2 {
		t.Errorf("limit orders placed = %d, want 2 (original + repriced)", got)
	}
	if got := venue.count("cancel"); got != 1 {
		t.Errorf("cancels = %d, want 1", got)
	}
	if venue.maxLive > 1 {
		t.Errorf("held %d live orders at once during reprice, invariant is 1", venue.maxLive)
	}
}

func TestChaseFallsBackToMarketAtBudget(t *testing.T) {
	venue := newMockVenue() // never fills limit orders
	venue.marketAvg = 64123.5
	chaser := newTestChaser(venue)

	price, err := chaser.Chase(context.Background(), SideBuy, 150)
	if err != nil {
		t.Fatalf("Chase: %v", err)
	}
	if price != venue.marketAvg {
		t.Errorf("execution price = %v, want the mock's average fill price %v", price, venue.marketAvg)
	}
	if got := venue.count("market"); got != 1 {
		t.Errorf("market orders = %d, want 1", got)
	}
	if got := venue.count("cancel"); got == 0 {
		t.Error("working order was not cancelled before the market fallback")
	}
	if venue.maxLive > 1 {
		t.Errorf("held %d live orders at once, invariant is 1", venue.maxLive)
	}
}

func TestChaseSurvivesOrderStateErrors(t *testing.T) {
	venue := newMockVenue()
	venue.stateErrs = 2
	venue.limitFillAfterChecks = 0
	chaser := newTestChaser(venue)

	price, err := chaser.Chase(context.Background(), SideBuy, 100)
	if err != nil {
		t.Fatalf("Chase: %v (state errors must read as 'no update this tick')", err)
	}
	if want := 49999.0; price != want {
		t.Errorf("execution price = %v, want %v", price, want)
	}
	if got := venue.count("market"); got != 0 {
		t.Errorf("market fallback used (%d)", got)
	}
}

func TestChaseDustQuantityIsNoOp(t *testing.T) {
	venue := newMockVenue() // contract size 10
	chaser := newTestChaser(venue)

	_, err := chaser.Chase(context.Background(), SideBuy, 7)
	if !errors.Is(err, ErrNothingFilled) {
		t.Fatalf("Chase = %v, want ErrNothingFilled", err)
	}
	if len(venue.ops) != 0 {
		t.Errorf("venue operations issued for dust quantity: %v", venue.ops)
	}
}
