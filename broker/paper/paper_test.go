package paper

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/rustyeddy/stocktrader/broker"
)

func newSession(t *testing.T, price float64) *Session {
	t.Helper()
	s := NewSession(zerolog.Nop())
	s.SetPrice(price)
	return s
}

func submit(t *testing.T, s *Session, o broker.Order) {
	t.Helper()
	if err := s.SubmitOrder(context.Background(), o); err != nil {
		t.Fatalf("submit: %v", err)
	}
}

func status(t *testing.T, s *Session, id int64) broker.OrderUpdate {
	t.Helper()
	upd, err := s.OrderStatus(context.Background(), id)
	if err != nil {
		t.Fatalf("order status: %v", err)
	}
	if upd == nil {
		t.Fatalf("order %d unknown", id)
	}
	return *upd
}

func TestNextOrderIDMonotonic(t *testing.T) {
	s := newSession(t, 100)

	a, ok := s.NextOrderID()
	if !ok {
		t.Fatal("expected an order id")
	}
	b, _ := s.NextOrderID()
	if b <= a {
		t.Fatalf("ids must increase: %d then %d", a, b)
	}
}

func TestMarketableBuyFillsImmediately(t *testing.T) {
	s := newSession(t, 100)

	submit(t, s, broker.Order{OrderID: 1, Symbol: "AAPL", Side: broker.Buy, Shares: 30, LimitPrice: 100.01})

	upd := status(t, s, 1)
	if upd.Status != broker.Filled {
		t.Fatalf("status mismatch: %s", upd.Status)
	}
	if upd.FilledShares != 30 || upd.AvgFillPrice != 100 {
		t.Fatalf("fill mismatch: %+v", upd)
	}
}

func TestRestingSellFillsOnLaterTick(t *testing.T) {
	s := newSession(t, 100)

	// Sell limit above the market rests.
	submit(t, s, broker.Order{OrderID: 1, Symbol: "AAPL", Side: broker.Sell, Shares: 30, LimitPrice: 101})
	if upd := status(t, s, 1); upd.Status != broker.Submitted {
		t.Fatalf("expected resting order, got %s", upd.Status)
	}

	s.SetPrice(101.5)
	upd := status(t, s, 1)
	if upd.Status != broker.Filled || upd.AvgFillPrice != 101.5 {
		t.Fatalf("fill mismatch: %+v", upd)
	}
}

func TestCancelRestingOrder(t *testing.T) {
	s := newSession(t, 100)

	submit(t, s, broker.Order{OrderID: 1, Symbol: "AAPL", Side: broker.Buy, Shares: 30, LimitPrice: 99})
	if err := s.CancelOrder(context.Background(), 1); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	upd := status(t, s, 1)
	if upd.Status != broker.Cancelled {
		t.Fatalf("status mismatch: %s", upd.Status)
	}

	// A later crossing tick must not revive it.
	s.SetPrice(98)
	if upd := status(t, s, 1); upd.Status != broker.Cancelled {
		t.Fatalf("cancelled order refilled: %s", upd.Status)
	}
}

func TestCancelFilledOrderIsNoop(t *testing.T) {
	s := newSession(t, 100)

	submit(t, s, broker.Order{OrderID: 1, Symbol: "AAPL", Side: broker.Buy, Shares: 30, LimitPrice: 100.01})
	if err := s.CancelOrder(context.Background(), 1); err != nil {
		t.Fatalf("cancel after fill: %v", err)
	}
	if upd := status(t, s, 1); upd.Status != broker.Filled {
		t.Fatalf("fill must stick: %s", upd.Status)
	}
}

func TestUnknownOrderStatus(t *testing.T) {
	s := newSession(t, 100)

	upd, err := s.OrderStatus(context.Background(), 42)
	if err != nil || upd != nil {
		t.Fatalf("unknown order must report not-yet-known, got %v %v", upd, err)
	}
}

func TestDisconnectedSession(t *testing.T) {
	s := newSession(t, 100)
	s.Disconnect()

	if _, ok := s.NextOrderID(); ok {
		t.Fatal("no ids while disconnected")
	}
	err := s.SubmitOrder(context.Background(), broker.Order{OrderID: 1, Side: broker.Buy, Shares: 1, LimitPrice: 1})
	if !errors.Is(err, broker.ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
	if _, err := s.OrderStatus(context.Background(), 1); !errors.Is(err, broker.ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
	if s.Connected() {
		t.Fatal("session must report disconnected")
	}

	s.Connect()
	if !s.Connected() {
		t.Fatal("session must report connected again")
	}
}

func TestSubmitValidation(t *testing.T) {
	s := newSession(t, 100)

	if err := s.SubmitOrder(context.Background(), broker.Order{OrderID: 1, Side: broker.Buy, Shares: 0, LimitPrice: 100}); err == nil {
		t.Fatal("expected error for zero shares")
	}
	if err := s.SubmitOrder(context.Background(), broker.Order{OrderID: 1, Side: broker.Buy, Shares: 1, LimitPrice: 0}); err == nil {
		t.Fatal("expected error for zero limit")
	}

	submit(t, s, broker.Order{OrderID: 1, Side: broker.Buy, Shares: 1, LimitPrice: 99})
	if err := s.SubmitOrder(context.Background(), broker.Order{OrderID: 1, Side: broker.Buy, Shares: 1, LimitPrice: 99}); err == nil {
		t.Fatal("expected error for duplicate order id")
	}
}
