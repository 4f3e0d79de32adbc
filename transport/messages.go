package transport

// Deribit JSON-RPC v2 method names used by the bot. Every remote operation
// maps to exactly one of these; the params/result pairs below mirror the
// fields the venue documents for each method.
const (
	MethodAuth           = "public/auth"
	MethodAccountSummary = "private/get_account_summary"
	MethodTicker         = "public/ticker"
	MethodPositions      = "private/get_positions"
	MethodCancel         = "private/cancel"
	MethodCancelAll      = "private/cancel_all"
	MethodBuy            = "private/buy"
	MethodSell           = "private/sell"
	MethodInstrument     = "public/get_instrument"
	MethodOrderBook      = "public/get_order_book"
	MethodOrderState     = "private/get_order_state"
)

// Order lifecycle states as reported by the venue.
const (
	OrderStateOpen        = "open"
	OrderStateFilled      = "filled"
	OrderStateRejected    = "rejected"
	OrderStateCancelled   = "cancelled"
	OrderStateUntriggered = "untriggered"
)

// AuthParams carries client_credentials authentication.
type AuthParams struct {
	GrantType    string `json:"grant_type"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

// AuthResult is the token grant returned by public/auth. Only AccessToken
// is inspected; the session keeps the connection authenticated, not the
// token.
type AuthResult struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	TokenType    string `json:"token_type"`
	Scope        string `json:"scope"`
}

type AccountSummaryParams struct {
	Currency string `json:"currency"`
}

type AccountSummary struct {
	Currency       string  `json:"currency"`
	AvailableFunds float64 `json:"available_funds"`
	Balance        float64 `json:"balance"`
	Equity         float64 `json:"equity"`
}

type TickerParams struct {
	InstrumentName string `json:"instrument_name"`
}

type Ticker struct {
	InstrumentName string  `json:"instrument_name"`
	LastPrice      float64 `json:"last_price"`
	MarkPrice      float64 `json:"mark_price"`
	BestBidPrice   float64 `json:"best_bid_price"`
	BestAskPrice   float64 `json:"best_ask_price"`
}

type PositionsParams struct {
	Currency string `json:"currency"`
	Kind     string `json:"kind"`
}

// Position is venue-owned state. Direction is "buy", "sell" or "zero";
// Size is signed (negative for shorts).
type Position struct {
	InstrumentName string  `json:"instrument_name"`
	Direction      string  `json:"direction"`
	Size           float64 `json:"size"`
	AveragePrice   float64 `json:"average_price"`
	Kind           string  `json:"kind"`
}

type CancelParams struct {
	OrderID string `json:"order_id"`
}

// CancelAllParams is intentionally empty; the method takes no arguments.
type CancelAllParams struct{}

// OrderParams is the request body for private/buy and private/sell. The
// zero-valued optional fields are omitted so limit, market and trigger
// orders all share one shape.
type OrderParams struct {
	InstrumentName string  `json:"instrument_name"`
	Amount         float64 `json:"amount"`
	Type           string  `json:"type"`
	Price          float64 `json:"price,omitempty"`
	TriggerPrice   float64 `json:"trigger_price,omitempty"`
	Trigger        string  `json:"trigger,omitempty"`
	PostOnly       bool    `json:"post_only,omitempty"`
	ReduceOnly     bool    `json:"reduce_only,omitempty"`
	TimeInForce    string  `json:"time_in_force,omitempty"`
	Label          string  `json:"label,omitempty"`
}

// Order mirrors the venue's order object.
type Order struct {
	OrderID      string  `json:"order_id"`
	OrderState   string  `json:"order_state"`
	OrderType    string  `json:"order_type"`
	Direction    string  `json:"direction"`
	Price        float64 `json:"price"`
	Amount       float64 `json:"amount"`
	FilledAmount float64 `json:"filled_amount"`
	AveragePrice float64 `json:"average_price"`
	TriggerPrice float64 `json:"trigger_price"`
	PostOnly     bool    `json:"post_only"`
	ReduceOnly   bool    `json:"reduce_only"`
	Label        string  `json:"label"`
}

// Terminal reports whether the order can no longer change.
func (o *Order) Terminal() bool {
	return o.OrderState == OrderStateFilled ||
		o.OrderState == OrderStateCancelled ||
		o.OrderState == OrderStateRejected
}

type Trade struct {
	TradeID string  `json:"trade_id"`
	Price   float64 `json:"price"`
	Amount  float64 `json:"amount"`
}

// OrderResult is the result envelope of private/buy and private/sell.
type OrderResult struct {
	Order  Order   `json:"order"`
	Trades []Trade `json:"trades"`
}

type InstrumentParams struct {
	InstrumentName string `json:"instrument_name"`
}

// Instrument is immutable reference data, safe to cache for a session.
type Instrument struct {
	InstrumentName string  `json:"instrument_name"`
	TickSize       float64 `json:"tick_size"`
	ContractSize   float64 `json:"contract_size"`
	Kind           string  `json:"kind"`
}

type OrderBookParams struct {
	InstrumentName string `json:"instrument_name"`
}

// OrderBook is a point-in-time snapshot. Bids and Asks are [price, amount]
// pairs as sent by the venue.
type OrderBook struct {
	InstrumentName string       `json:"instrument_name"`
	BestBidPrice   float64      `json:"best_bid_price"`
	BestAskPrice   float64      `json:"best_ask_price"`
	Bids           [][2]float64 `json:"bids"`
	Asks           [][2]float64 `json:"asks"`
}

type OrderStateParams struct {
	OrderID string `json:"order_id"`
}
