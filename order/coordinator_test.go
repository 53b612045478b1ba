package order

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/rustyeddy/stocktrader/broker"
)

// fakeGateway returns scripted status updates in sequence, repeating
// the last one once the script runs out. A nil entry means "not yet
// known".
type fakeGateway struct {
	mu        sync.Mutex
	noIDs     bool
	submitErr error
	statusErr error
	script    []*broker.OrderUpdate

	nextID    int64
	submitted []broker.Order
	cancelled []int64
	polls     int
}

func (g *fakeGateway) NextOrderID() (int64, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.noIDs {
		return 0, false
	}
	g.nextID++
	return g.nextID, true
}

func (g *fakeGateway) SubmitOrder(ctx context.Context, o broker.Order) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.submitErr != nil {
		return g.submitErr
	}
	g.submitted = append(g.submitted, o)
	return nil
}

func (g *fakeGateway) CancelOrder(ctx context.Context, orderID int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cancelled = append(g.cancelled, orderID)
	return nil
}

func (g *fakeGateway) OrderStatus(ctx context.Context, orderID int64) (*broker.OrderUpdate, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.statusErr != nil {
		return nil, g.statusErr
	}
	g.polls++
	if len(g.script) == 0 {
		return nil, nil
	}
	upd := g.script[0]
	if len(g.script) > 1 {
		g.script = g.script[1:]
	}
	return upd, nil
}

func (g *fakeGateway) cancelCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.cancelled)
}

func newCoordinator(gw broker.Gateway, timeout time.Duration) *Coordinator {
	return NewCoordinator(gw, 2*time.Millisecond, timeout, zerolog.Nop())
}

func TestExecuteFilled(t *testing.T) {
	gw := &fakeGateway{script: []*broker.OrderUpdate{
		{Status: broker.Submitted},
		{Status: broker.PartiallyFilled, FilledShares: 10, AvgFillPrice: 98.91},
		{Status: broker.Filled, FilledShares: 30, AvgFillPrice: 98.92},
	}}
	c := newCoordinator(gw, time.Second)

	fill, err := c.Execute(context.Background(), Intent{
		Symbol:       "AAPL",
		Side:         broker.Buy,
		Shares:       30,
		CurrentPrice: 98.9,
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if fill.Shares != 30 || fill.AvgPrice != 98.92 {
		t.Fatalf("fill mismatch: %+v", fill)
	}
	if fill.OrderID != 1 {
		t.Fatalf("order id mismatch: %d", fill.OrderID)
	}
	if gw.cancelCount() != 0 {
		t.Fatal("filled order must not be cancelled")
	}
}

func TestExecuteBuildsBuyOrder(t *testing.T) {
	gw := &fakeGateway{script: []*broker.OrderUpdate{{Status: broker.Filled, FilledShares: 30, AvgFillPrice: 100}}}
	c := newCoordinator(gw, time.Second)

	_, err := c.Execute(context.Background(), Intent{Symbol: "AAPL", Side: broker.Buy, Shares: 30, CurrentPrice: 100})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	o := gw.submitted[0]
	if o.TIF != broker.GoodTilCanceled || !o.OutsideRTH {
		t.Fatalf("buy flags mismatch: %+v", o)
	}
	if o.LimitPrice != 100*1.0001 {
		t.Fatalf("buy limit mismatch: %g", o.LimitPrice)
	}
	if o.ClientRef == "" {
		t.Fatal("client ref must be set")
	}
}

func TestExecuteBuildsSellOrder(t *testing.T) {
	gw := &fakeGateway{script: []*broker.OrderUpdate{{Status: broker.Filled, FilledShares: 30, AvgFillPrice: 100}}}
	c := newCoordinator(gw, time.Second)

	_, err := c.Execute(context.Background(), Intent{Symbol: "AAPL", Side: broker.Sell, Shares: 30, CurrentPrice: 100})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	o := gw.submitted[0]
	if o.TIF != broker.Day || o.OutsideRTH {
		t.Fatalf("sell flags mismatch: %+v", o)
	}
	if o.LimitPrice != 100*0.999 {
		t.Fatalf("sell limit mismatch: %g", o.LimitPrice)
	}
}

func TestExecuteCancelledByBroker(t *testing.T) {
	gw := &fakeGateway{script: []*broker.OrderUpdate{
		{Status: broker.Submitted},
		{Status: broker.Cancelled, Reason: "margin check failed"},
	}}
	c := newCoordinator(gw, time.Second)

	_, err := c.Execute(context.Background(), Intent{Symbol: "AAPL", Side: broker.Buy, Shares: 30, CurrentPrice: 100})
	var te *TradeError
	if !errors.As(err, &te) {
		t.Fatalf("expected TradeError, got %v", err)
	}
	if te.Status != broker.Cancelled || te.Reason != "margin check failed" {
		t.Fatalf("trade error mismatch: %+v", te)
	}
	if KindOf(err) != FailAborted {
		t.Fatalf("kind mismatch: %v", KindOf(err))
	}
}

func TestExecuteTimeoutCancelsOrder(t *testing.T) {
	// Status never leaves Submitted; the coordinator must cancel after
	// the fill wait elapses and report a timeout.
	gw := &fakeGateway{script: []*broker.OrderUpdate{{Status: broker.Submitted}}}
	c := newCoordinator(gw, 20*time.Millisecond)

	_, err := c.Execute(context.Background(), Intent{Symbol: "AAPL", Side: broker.Buy, Shares: 30, CurrentPrice: 100})
	var te *TradeError
	if !errors.As(err, &te) {
		t.Fatalf("expected TradeError, got %v", err)
	}
	if te.Status != broker.TimedOut {
		t.Fatalf("status mismatch: %s", te.Status)
	}
	if gw.cancelCount() != 1 {
		t.Fatalf("expected one cancellation, got %d", gw.cancelCount())
	}
}

func TestExecuteUnknownStatusKeepsPolling(t *testing.T) {
	gw := &fakeGateway{script: []*broker.OrderUpdate{
		nil,
		nil,
		{Status: broker.Filled, FilledShares: 30, AvgFillPrice: 100},
	}}
	c := newCoordinator(gw, time.Second)

	fill, err := c.Execute(context.Background(), Intent{Symbol: "AAPL", Side: broker.Buy, Shares: 30, CurrentPrice: 100})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if fill.Shares != 30 {
		t.Fatalf("fill mismatch: %+v", fill)
	}
}

func TestExecuteNoOrderID(t *testing.T) {
	gw := &fakeGateway{noIDs: true}
	c := newCoordinator(gw, time.Second)

	_, err := c.Execute(context.Background(), Intent{Symbol: "AAPL", Side: broker.Buy, Shares: 30, CurrentPrice: 100})
	if !errors.Is(err, ErrNoOrderID) {
		t.Fatalf("expected ErrNoOrderID, got %v", err)
	}
	if len(gw.submitted) != 0 {
		t.Fatal("nothing may be submitted without an order id")
	}
}

func TestExecuteSubmitConnectivityLossIsFatal(t *testing.T) {
	gw := &fakeGateway{submitErr: broker.ErrNotConnected}
	c := newCoordinator(gw, time.Second)

	_, err := c.Execute(context.Background(), Intent{Symbol: "AAPL", Side: broker.Buy, Shares: 30, CurrentPrice: 100})
	if err == nil {
		t.Fatal("expected error")
	}
	if KindOf(err) != FailFatal {
		t.Fatalf("connectivity loss must be fatal, got %v", KindOf(err))
	}
}

func TestExecuteStatusErrorCancels(t *testing.T) {
	gw := &fakeGateway{statusErr: errors.New("session dropped")}
	c := newCoordinator(gw, time.Second)

	_, err := c.Execute(context.Background(), Intent{Symbol: "AAPL", Side: broker.Buy, Shares: 30, CurrentPrice: 100})
	if err == nil {
		t.Fatal("expected error")
	}
	if gw.cancelCount() != 1 {
		t.Fatalf("expected cancellation on status error, got %d", gw.cancelCount())
	}
}

func TestExecuteContextCancelled(t *testing.T) {
	gw := &fakeGateway{} // status never known
	c := newCoordinator(gw, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := c.Execute(ctx, Intent{Symbol: "AAPL", Side: broker.Buy, Shares: 30, CurrentPrice: 100})
	if err == nil {
		t.Fatal("expected error")
	}
	if gw.cancelCount() != 1 {
		t.Fatalf("expected cancellation on context cancel, got %d", gw.cancelCount())
	}
}

func TestKindOf(t *testing.T) {
	if KindOf(errors.New("boom")) != FailAborted {
		t.Fatal("plain errors abort the attempt")
	}
	if KindOf(broker.ErrNotConnected) != FailFatal {
		t.Fatal("connectivity loss is fatal")
	}
	te := &TradeError{Status: broker.TimedOut, Kind: FailAborted}
	if KindOf(te) != FailAborted {
		t.Fatal("trade errors carry their own kind")
	}
}
