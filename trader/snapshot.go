package trader

import (
	"time"

	"github.com/rustyeddy/stocktrader/ledger"
)

// Snapshot is a read-only view of the trader for a display surface. It
// is taken at a defined point under the trader's lock; the caller owns
// the copy.
type Snapshot struct {
	State          string          `json:"state"`
	Symbol         string          `json:"symbol"`
	ReferencePrice float64         `json:"reference_price"`
	LastPrice      float64         `json:"last_price"`
	StartedAt      time.Time       `json:"started_at,omitzero"`
	Ledger         ledger.Snapshot `json:"ledger"`
}

func (t *Trader) Snapshot() Snapshot {
	price := t.src.LastPrice()

	t.mu.Lock()
	defer t.mu.Unlock()
	return Snapshot{
		State:          t.state.String(),
		Symbol:         t.cfg.Symbol,
		ReferencePrice: t.refPrice,
		LastPrice:      price,
		StartedAt:      t.startTime,
		Ledger:         t.book.Snapshot(price),
	}
}
