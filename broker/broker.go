package broker

import (
	"context"
	"errors"
)

// Side of an order.
type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

// TimeInForce values understood by the gateway.
type TimeInForce string

const (
	GoodTilCanceled TimeInForce = "GTC"
	Day             TimeInForce = "DAY"
)

// Status of an order. All but TimedOut come from the gateway; TimedOut
// is assigned locally when an order outlives its fill wait.
type Status string

const (
	Submitted       Status = "Submitted"
	PartiallyFilled Status = "PartiallyFilled"
	Filled          Status = "Filled"
	Cancelled       Status = "Cancelled"
	Errored         Status = "Errored"
	TimedOut        Status = "TimedOut"
)

// Terminal reports whether no further transitions can occur.
func (s Status) Terminal() bool {
	switch s {
	case Filled, Cancelled, Errored, TimedOut:
		return true
	}
	return false
}

var ErrNotConnected = errors.New("broker: not connected")

// Order is a limit-order submission.
type Order struct {
	OrderID    int64
	ClientRef  string // opaque reference chosen by the submitter
	Symbol     string
	Side       Side
	Shares     int
	LimitPrice float64
	TIF        TimeInForce
	OutsideRTH bool
}

// OrderUpdate is the gateway's view of an order at a point in time.
type OrderUpdate struct {
	Status       Status
	FilledShares int
	AvgFillPrice float64
	Reason       string // broker-supplied rejection or cancel reason
}

// Gateway is the narrow brokerage surface the trading core depends on.
type Gateway interface {
	// NextOrderID returns a monotonically increasing order identifier.
	// ok is false when no identifier is available.
	NextOrderID() (id int64, ok bool)

	SubmitOrder(ctx context.Context, o Order) error

	CancelOrder(ctx context.Context, orderID int64) error

	// OrderStatus returns the latest known state of an order. A nil
	// update with a nil error means the state is not yet known and the
	// caller should keep polling.
	OrderStatus(ctx context.Context, orderID int64) (*OrderUpdate, error)
}
