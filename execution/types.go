package execution

// Side is the venue's order direction. The values double as the suffix of
// the private/buy and private/sell methods.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Method returns the JSON-RPC method that places an order on this side.
func (s Side) Method() string {
	return "private/" + string(s)
}

// Opposite returns the closing side for a position entered on s.
func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

// Direction is the strategy-level position state.
type Direction string

const (
	DirectionFlat  Direction = "flat"
	DirectionLong  Direction = "long"
	DirectionShort Direction = "short"
)

// Side maps a desired direction onto the order side that moves the
// position toward it.
func (d Direction) Side() Side {
	if d == DirectionLong {
		return SideBuy
	}
	return SideSell
}

// TriggerKind selects the venue order type for bracket legs.
type TriggerKind string

const (
	TriggerStopLoss   TriggerKind = "stop_limit"
	TriggerTakeProfit TriggerKind = "take_limit"
)

// Order types accepted by private/buy and private/sell.
const (
	orderTypeLimit  = "limit"
	orderTypeMarket = "market"
)
