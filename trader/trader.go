// Package trader owns the trading control loop: poll the price source,
// evaluate the trigger cascade, drive each decision through an order
// lifecycle, and reconcile the ledger on success.
package trader

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/rustyeddy/stocktrader/journal"
	"github.com/rustyeddy/stocktrader/ledger"
	"github.com/rustyeddy/stocktrader/order"
	"github.com/rustyeddy/stocktrader/trigger"
)

// State of the control loop. Transitions are one-way:
// Idle -> Monitoring -> Stopped.
type State int

const (
	Idle State = iota
	Monitoring
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Monitoring:
		return "Monitoring"
	case Stopped:
		return "Stopped"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// PriceSource exposes the most recent last-trade price. Zero means no
// data has arrived yet.
type PriceSource interface {
	LastPrice() float64
	Connected() bool
}

// Executor runs one order through its lifecycle. Satisfied by
// *order.Coordinator.
type Executor interface {
	Execute(ctx context.Context, in order.Intent) (order.Fill, error)
}

const (
	DefaultPriceWait  = 30 * time.Second
	DefaultCyclePause = time.Second
)

var (
	ErrNoReferencePrice = errors.New("trader: reference price must be positive before trading")
	ErrNotIdle          = errors.New("trader: trading already started")
	ErrPriceWaitTimeout = errors.New("trader: timeout waiting for initial price data")
	ErrSourceDown       = errors.New("trader: price source not connected")
)

type Config struct {
	Symbol     string
	Triggers   trigger.Config
	PriceWait  time.Duration // wait for the first valid tick
	CyclePause time.Duration // pause between decision cycles
}

// Trader drives the monitoring loop. Start runs on a single goroutine;
// Stop, SetReferencePrice and Snapshot may be called from others.
type Trader struct {
	cfg  Config
	src  PriceSource
	exec Executor
	jnl  journal.Journal
	log  zerolog.Logger

	mu        sync.Mutex
	book      *ledger.Ledger
	state     State
	refPrice  float64
	startTime time.Time

	stopping atomic.Bool
}

func New(cfg Config, src PriceSource, exec Executor, jnl journal.Journal, log zerolog.Logger) *Trader {
	if cfg.PriceWait <= 0 {
		cfg.PriceWait = DefaultPriceWait
	}
	if cfg.CyclePause <= 0 {
		cfg.CyclePause = DefaultCyclePause
	}
	return &Trader{
		cfg:  cfg,
		src:  src,
		exec: exec,
		jnl:  jnl,
		book: ledger.New(),
		log:  log.With().Str("component", "trader").Str("symbol", cfg.Symbol).Logger(),
	}
}

// SetReferencePrice sets the baseline against which buy and drift
// decisions are measured.
func (t *Trader) SetReferencePrice(p float64) error {
	if p <= 0 {
		return fmt.Errorf("trader: reference price must be positive, got %g", p)
	}
	t.mu.Lock()
	t.refPrice = p
	t.mu.Unlock()
	t.log.Info().Float64("reference_price", p).Msg("reference price set")
	return nil
}

func (t *Trader) ReferencePrice() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.refPrice
}

func (t *Trader) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Stop requests a cooperative stop. The flag is observed at the top of
// the next cycle; an in-flight fill wait runs to its own conclusion
// first. Stopping an already stopped trader is a no-op.
func (t *Trader) Stop() {
	if t.stopping.Swap(true) {
		return
	}
	t.log.Info().Msg("stop requested")
}

// Start transitions Idle to Monitoring and blocks, running the loop on
// the calling goroutine until Stop is called, ctx is done, or a fatal
// error occurs. It is rejected without a positive reference price and
// leaves state unchanged.
func (t *Trader) Start(ctx context.Context) error {
	t.mu.Lock()
	if t.state != Idle {
		t.mu.Unlock()
		return ErrNotIdle
	}
	if t.refPrice <= 0 {
		t.mu.Unlock()
		return ErrNoReferencePrice
	}
	t.state = Monitoring
	t.startTime = time.Now()
	t.mu.Unlock()

	t.log.Info().Msg("trading started")

	err := t.monitor(ctx)

	t.mu.Lock()
	t.state = Stopped
	t.startTime = time.Time{}
	t.mu.Unlock()

	if err != nil {
		t.log.Error().Err(err).Msg("monitoring ended with error")
		return err
	}
	t.log.Info().Msg("trading stopped")
	return nil
}

func (t *Trader) monitor(ctx context.Context) error {
	if !t.src.Connected() {
		return ErrSourceDown
	}

	if err := t.awaitFirstPrice(ctx); err != nil {
		return err
	}

	for {
		if t.stopping.Load() {
			return nil
		}
		select {
		case <-ctx.Done():
			// Context cancellation is a cooperative stop.
			return nil
		default:
		}

		price := t.src.LastPrice()
		if price <= 0 {
			t.log.Warn().Msg("invalid price received, skipping cycle")
			t.pause(ctx)
			continue
		}

		if err := t.cycle(ctx, price); err != nil {
			return err
		}

		t.pause(ctx)
	}
}

func (t *Trader) awaitFirstPrice(ctx context.Context) error {
	deadline := time.Now().Add(t.cfg.PriceWait)
	for t.src.LastPrice() <= 0 {
		if time.Now().After(deadline) {
			return ErrPriceWaitTimeout
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(t.cfg.CyclePause):
		}
	}
	return nil
}

// cycle evaluates the trigger cascade once, in fixed order: stop-loss
// sells, the batched profitable sell, a buy, then reference drift. It
// returns an error only on fatal failures; a failed trade attempt ends
// the cycle and monitoring continues.
func (t *Trader) cycle(ctx context.Context, price float64) error {
	ref := t.ReferencePrice()
	change := trigger.Change(price, ref)
	t.log.Debug().
		Float64("price", price).
		Float64("reference", ref).
		Float64("change", change).
		Msg("cycle")

	// Stop-loss first, one order per breaching position, re-reading the
	// ledger after each reconcile so a position is never sold twice.
	for {
		t.mu.Lock()
		pos, idx, hit := t.book.FirstStopLoss(price, t.cfg.Triggers.StopLossTrigger)
		var kept []ledger.Position
		if hit {
			kept = t.book.Without(idx)
		}
		t.mu.Unlock()
		if !hit {
			break
		}

		t.log.Warn().
			Float64("entry", pos.EntryPrice).
			Float64("price", price).
			Msg("stop loss triggered")

		ok, err := t.sell(ctx, []ledger.Position{pos}, kept, pos.Shares, price, "StopLoss")
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
	}

	// Batched sell of every profitable position.
	t.mu.Lock()
	sold, kept, shares := t.book.CloseProfitable(price, t.cfg.Triggers.SellTrigger)
	t.mu.Unlock()
	if len(sold) > 0 {
		ok, err := t.sell(ctx, sold, kept, shares, price, "TakeProfit")
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
	}

	// Buy on a sufficient drop from the reference.
	t.mu.Lock()
	open := t.book.Len()
	t.mu.Unlock()
	if trigger.BuySignal(t.cfg.Triggers, change, open) {
		if err := t.buy(ctx, price); err != nil {
			return err
		}
	}

	// Reference drift, applied whether or not a trade occurred.
	if trigger.ResetReference(change, t.cfg.Triggers.BuyTrigger, t.cfg.Triggers.SellTrigger) {
		t.mu.Lock()
		t.refPrice = price
		t.mu.Unlock()
		t.log.Info().Float64("reference_price", price).Msg("reference price updated")
	}

	t.publish(price)
	return nil
}

func (t *Trader) pause(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(t.cfg.CyclePause):
	}
}
