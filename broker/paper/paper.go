// Package paper is an in-process brokerage stand-in. A Session hands
// out monotonically increasing order ids, rests submitted limit orders,
// and fills them whenever a tick crosses the limit. It also carries the
// shared last-price cell, so one Session serves as both the gateway and
// the price source for a trading run.
package paper

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/rustyeddy/stocktrader/broker"
	"github.com/rustyeddy/stocktrader/market"
)

type Session struct {
	mu        sync.Mutex
	nextID    int64
	orders    map[int64]*paperOrder
	connected bool
	price     market.PriceCell
	log       zerolog.Logger
}

type paperOrder struct {
	order broker.Order
	upd   broker.OrderUpdate
}

func NewSession(log zerolog.Logger) *Session {
	return &Session{
		orders:    make(map[int64]*paperOrder),
		connected: true,
		log:       log.With().Str("component", "paper").Logger(),
	}
}

// Disconnect drops the session. Subsequent gateway calls fail with
// broker.ErrNotConnected and no further ids are handed out.
func (s *Session) Disconnect() {
	s.mu.Lock()
	s.connected = false
	s.mu.Unlock()
	s.log.Info().Msg("session disconnected")
}

func (s *Session) Connect() {
	s.mu.Lock()
	s.connected = true
	s.mu.Unlock()
	s.log.Info().Msg("session connected")
}

// Connected and LastPrice make the Session usable as the trading loop's
// price source.
func (s *Session) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

func (s *Session) LastPrice() float64 {
	return s.price.Load()
}

// SetPrice records a new last-trade tick and fills any resting orders
// the tick crosses.
func (s *Session) SetPrice(p float64) {
	s.price.Store(p)

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, po := range s.orders {
		s.tryFillLocked(po, p)
	}
}

// tryFillLocked fills a marketable resting order at the tick price. The
// fill condition guarantees the tick respects the limit.
func (s *Session) tryFillLocked(po *paperOrder, tick float64) {
	if po.upd.Status.Terminal() || tick <= 0 {
		return
	}

	o := po.order
	marketable := (o.Side == broker.Buy && tick <= o.LimitPrice) ||
		(o.Side == broker.Sell && tick >= o.LimitPrice)
	if !marketable {
		return
	}

	po.upd = broker.OrderUpdate{
		Status:       broker.Filled,
		FilledShares: o.Shares,
		AvgFillPrice: tick,
	}
	s.log.Info().
		Int64("order_id", o.OrderID).
		Str("side", string(o.Side)).
		Float64("fill_price", tick).
		Msg("paper fill")
}

func (s *Session) NextOrderID() (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		return 0, false
	}
	s.nextID++
	return s.nextID, true
}

func (s *Session) SubmitOrder(ctx context.Context, o broker.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		return broker.ErrNotConnected
	}
	if o.Shares <= 0 {
		return fmt.Errorf("paper: shares must be positive, got %d", o.Shares)
	}
	if o.LimitPrice <= 0 {
		return fmt.Errorf("paper: limit price must be positive, got %g", o.LimitPrice)
	}
	if _, exists := s.orders[o.OrderID]; exists {
		return fmt.Errorf("paper: duplicate order id %d", o.OrderID)
	}

	po := &paperOrder{
		order: o,
		upd:   broker.OrderUpdate{Status: broker.Submitted},
	}
	s.orders[o.OrderID] = po

	s.log.Info().
		Int64("order_id", o.OrderID).
		Str("client_ref", o.ClientRef).
		Str("side", string(o.Side)).
		Int("shares", o.Shares).
		Float64("limit", o.LimitPrice).
		Msg("paper order accepted")

	// A marketable limit fills against the current tick right away.
	s.tryFillLocked(po, s.price.Load())
	return nil
}

func (s *Session) CancelOrder(ctx context.Context, orderID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		return broker.ErrNotConnected
	}
	po, ok := s.orders[orderID]
	if !ok {
		return fmt.Errorf("paper: unknown order id %d", orderID)
	}
	if po.upd.Status.Terminal() {
		// Cancelling a finished order is a no-op, as at a real broker.
		return nil
	}
	po.upd = broker.OrderUpdate{Status: broker.Cancelled, Reason: "cancelled by client"}
	s.log.Info().Int64("order_id", orderID).Msg("paper order cancelled")
	return nil
}

func (s *Session) OrderStatus(ctx context.Context, orderID int64) (*broker.OrderUpdate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		return nil, broker.ErrNotConnected
	}
	po, ok := s.orders[orderID]
	if !ok {
		// Not yet known; the coordinator keeps polling.
		return nil, nil
	}
	upd := po.upd
	return &upd, nil
}
