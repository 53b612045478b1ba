// Package order drives a single order from submission through a
// terminal status: place, poll for the fill, cancel on timeout.
package order

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/rustyeddy/stocktrader/broker"
)

// Limit offsets applied to the trigger-time price. Buys bid slightly
// above the market, sells offer slightly below, so a marketable fill is
// likely without chasing.
const (
	buyLimitOffset  = 1.0001 // 0.01% above
	sellLimitOffset = 0.999  // 0.1% below
)

const (
	DefaultPollInterval = time.Second
	DefaultFillTimeout  = 60 * time.Second
)

// Intent is a request to trade a quantity of shares at a limit derived
// from the current price. It exists only for one Execute call.
type Intent struct {
	Symbol       string
	Side         broker.Side
	Shares       int
	CurrentPrice float64
}

// LimitPrice derives the limit from the trigger-time price.
func (in Intent) LimitPrice() float64 {
	if in.Side == broker.Buy {
		return in.CurrentPrice * buyLimitOffset
	}
	return in.CurrentPrice * sellLimitOffset
}

// Fill is the successful outcome of an order lifecycle.
type Fill struct {
	OrderID  int64
	Shares   int
	AvgPrice float64
}

// Coordinator runs one order at a time to a terminal status. The caller
// blocks on Execute until the order is filled, rejected, or cancelled
// after the fill wait expires.
type Coordinator struct {
	gw      broker.Gateway
	poll    time.Duration
	timeout time.Duration
	log     zerolog.Logger
}

func NewCoordinator(gw broker.Gateway, poll, timeout time.Duration, log zerolog.Logger) *Coordinator {
	if poll <= 0 {
		poll = DefaultPollInterval
	}
	if timeout <= 0 {
		timeout = DefaultFillTimeout
	}
	return &Coordinator{
		gw:      gw,
		poll:    poll,
		timeout: timeout,
		log:     log.With().Str("component", "order").Logger(),
	}
}

// Execute submits the intent and blocks until the order reaches a
// terminal status. On timeout the order is cancelled before the error
// is returned, so an order is never left both unfilled and
// un-cancelled.
func (c *Coordinator) Execute(ctx context.Context, in Intent) (Fill, error) {
	id, ok := c.gw.NextOrderID()
	if !ok {
		c.log.Error().Msg("no order id available")
		return Fill{}, &TradeError{Status: broker.Errored, Kind: FailAborted, Err: ErrNoOrderID}
	}

	o := broker.Order{
		OrderID:    id,
		ClientRef:  uuid.NewString(),
		Symbol:     in.Symbol,
		Side:       in.Side,
		Shares:     in.Shares,
		LimitPrice: in.LimitPrice(),
	}
	if in.Side == broker.Buy {
		o.TIF = broker.GoodTilCanceled
		o.OutsideRTH = true
	} else {
		o.TIF = broker.Day
	}

	c.log.Info().
		Int64("order_id", id).
		Str("side", string(in.Side)).
		Int("shares", in.Shares).
		Float64("limit", o.LimitPrice).
		Msg("placing order")

	if err := c.gw.SubmitOrder(ctx, o); err != nil {
		return Fill{}, c.fail(id, broker.Errored, "", err)
	}

	deadline := time.Now().Add(c.timeout)
	tick := time.NewTicker(c.poll)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			c.cancel(id)
			return Fill{}, &TradeError{OrderID: id, Status: broker.Cancelled, Kind: FailAborted, Err: ctx.Err()}
		case <-tick.C:
		}

		if time.Now().After(deadline) {
			c.log.Error().Int64("order_id", id).Msg("order timeout, cancelling")
			c.cancel(id)
			return Fill{}, &TradeError{OrderID: id, Status: broker.TimedOut, Kind: FailAborted}
		}

		upd, err := c.gw.OrderStatus(ctx, id)
		if err != nil {
			c.cancel(id)
			return Fill{}, c.fail(id, broker.Errored, "", err)
		}
		if upd == nil {
			// Status not yet known, keep polling.
			continue
		}

		switch upd.Status {
		case broker.Filled:
			c.log.Info().
				Int64("order_id", id).
				Int("filled", upd.FilledShares).
				Float64("avg_price", upd.AvgFillPrice).
				Msg("order filled")
			return Fill{OrderID: id, Shares: upd.FilledShares, AvgPrice: upd.AvgFillPrice}, nil
		case broker.Cancelled, broker.Errored:
			return Fill{}, c.fail(id, upd.Status, upd.Reason, nil)
		}
		// Submitted and PartiallyFilled keep polling.
	}
}

// cancel is best effort and detached from the caller's context, which
// may already be expired.
func (c *Coordinator) cancel(id int64) {
	ctx, done := context.WithTimeout(context.Background(), 5*time.Second)
	defer done()
	if err := c.gw.CancelOrder(ctx, id); err != nil {
		c.log.Error().Err(err).Int64("order_id", id).Msg("cancel failed")
	}
}

func (c *Coordinator) fail(id int64, status broker.Status, reason string, err error) error {
	kind := FailAborted
	if errors.Is(err, broker.ErrNotConnected) {
		kind = FailFatal
	}
	c.log.Warn().
		Int64("order_id", id).
		Str("status", string(status)).
		Str("reason", reason).
		Err(err).
		Msg("order failed")
	return &TradeError{OrderID: id, Status: status, Reason: reason, Kind: kind, Err: err}
}
