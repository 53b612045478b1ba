package order

import (
	"errors"
	"fmt"

	"github.com/rustyeddy/stocktrader/broker"
)

// FailKind tells the control loop how to react to a failure.
type FailKind int

const (
	// FailRetryable failures resolve on their own; skip the cycle and
	// try again on the next tick.
	FailRetryable FailKind = iota
	// FailAborted failures end the current trade attempt; monitoring
	// continues with the next cycle.
	FailAborted
	// FailFatal failures terminate the run.
	FailFatal
)

var ErrNoOrderID = errors.New("order: no order id available")

// TradeError is a failed order lifecycle outcome. Status records how
// far the order got; Reason carries the broker-supplied explanation
// when there is one.
type TradeError struct {
	OrderID int64
	Status  broker.Status
	Reason  string
	Kind    FailKind
	Err     error
}

func (e *TradeError) Error() string {
	switch {
	case e.Reason != "":
		return fmt.Sprintf("order %d %s: %s", e.OrderID, e.Status, e.Reason)
	case e.Err != nil:
		return fmt.Sprintf("order %d %s: %v", e.OrderID, e.Status, e.Err)
	}
	return fmt.Sprintf("order %d %s", e.OrderID, e.Status)
}

func (e *TradeError) Unwrap() error {
	return e.Err
}

// KindOf classifies a non-nil error per the loop's failure policy.
// Connectivity loss is fatal; everything else ends only the current
// trade attempt.
func KindOf(err error) FailKind {
	var te *TradeError
	if errors.As(err, &te) {
		return te.Kind
	}
	if errors.Is(err, broker.ErrNotConnected) {
		return FailFatal
	}
	return FailAborted
}
