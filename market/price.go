package market

import (
	"math"
	"sync/atomic"
	"time"
)

// Tick is a single last-trade observation for a symbol.
type Tick struct {
	Symbol string
	Price  float64
	Time   time.Time
}

// PriceCell holds the most recent last-trade price. A feed goroutine
// writes it and the trading loop polls it, so access is a single atomic
// word. Zero means no data has arrived yet.
type PriceCell struct {
	bits atomic.Uint64
}

func (c *PriceCell) Store(p float64) {
	c.bits.Store(math.Float64bits(p))
}

func (c *PriceCell) Load() float64 {
	return math.Float64frombits(c.bits.Load())
}
