// Package ledger tracks open positions and realized trade statistics.
// It never talks to the network; reconciliation methods are called only
// after the corresponding order reached Filled.
package ledger

import (
	"fmt"
	"time"

	"github.com/rustyeddy/stocktrader/trigger"
)

// Position is an open, fully filled purchase. Immutable once created;
// it leaves the ledger only as part of a filled sell that closes its
// full share count.
type Position struct {
	Shares     int       `json:"shares"`
	EntryPrice float64   `json:"entry_price"`
	OpenedAt   time.Time `json:"opened_at"`
}

// Profit is the realized gain of closing the full position at fill.
func (p Position) Profit(fill float64) float64 {
	return (fill - p.EntryPrice) * float64(p.Shares)
}

// Stats are the running counters, mutated only on sell reconciliation.
type Stats struct {
	TotalTrades int     `json:"total_trades"`
	TotalProfit float64 `json:"total_profit"`
}

// Ledger holds open positions in the order they were opened. It is not
// safe for concurrent use; the trading loop is its only writer and
// readers go through that loop's snapshot.
type Ledger struct {
	positions []Position
	stats     Stats
}

func New() *Ledger {
	return &Ledger{}
}

// Open appends a position. Shares and price must be positive.
func (l *Ledger) Open(shares int, price float64, at time.Time) error {
	if shares <= 0 {
		return fmt.Errorf("ledger: shares must be positive, got %d", shares)
	}
	if price <= 0 {
		return fmt.Errorf("ledger: entry price must be positive, got %g", price)
	}
	l.positions = append(l.positions, Position{Shares: shares, EntryPrice: price, OpenedAt: at})
	return nil
}

func (l *Ledger) Len() int {
	return len(l.positions)
}

// Positions returns a copy of the open positions in ledger order.
func (l *Ledger) Positions() []Position {
	out := make([]Position, len(l.positions))
	copy(out, l.positions)
	return out
}

func (l *Ledger) Stats() Stats {
	return l.stats
}

// TotalShares is the net bought-minus-sold share count.
func (l *Ledger) TotalShares() int {
	var n int
	for _, p := range l.positions {
		n += p.Shares
	}
	return n
}

// CloseProfitable partitions the open positions at current into those
// whose profit fraction meets sellTrigger and those to keep. It has no
// side effects; ledger order is preserved in both halves.
func (l *Ledger) CloseProfitable(current, sellTrigger float64) (sell, keep []Position, shares int) {
	for _, p := range l.positions {
		if trigger.TakeProfit(current, p.EntryPrice, sellTrigger) {
			sell = append(sell, p)
			shares += p.Shares
		} else {
			keep = append(keep, p)
		}
	}
	return sell, keep, shares
}

// FirstStopLoss returns the first position in ledger order whose loss
// fraction at current breaches stopLossTrigger.
func (l *Ledger) FirstStopLoss(current, stopLossTrigger float64) (Position, int, bool) {
	for i, p := range l.positions {
		if trigger.StopLoss(current, p.EntryPrice, stopLossTrigger) {
			return p, i, true
		}
	}
	return Position{}, 0, false
}

// Without returns the open positions with the one at index i removed.
func (l *Ledger) Without(i int) []Position {
	out := make([]Position, 0, len(l.positions)-1)
	out = append(out, l.positions[:i]...)
	return append(out, l.positions[i+1:]...)
}

// ReconcileSell replaces the ledger contents with kept and books the
// realized profit of sold at fillPrice, returning that profit.
func (l *Ledger) ReconcileSell(sold, kept []Position, fillPrice float64) float64 {
	var profit float64
	for _, p := range sold {
		profit += p.Profit(fillPrice)
	}
	l.positions = kept
	l.stats.TotalTrades++
	l.stats.TotalProfit += profit
	return profit
}

// ReconcileBuy appends the freshly filled position.
func (l *Ledger) ReconcileBuy(shares int, fillPrice float64, at time.Time) error {
	return l.Open(shares, fillPrice, at)
}
