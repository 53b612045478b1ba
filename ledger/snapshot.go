package ledger

import "time"

// PositionView is a position valued at a current price.
type PositionView struct {
	Shares        int       `json:"shares"`
	EntryPrice    float64   `json:"entry_price"`
	CurrentPrice  float64   `json:"current_price"`
	Value         float64   `json:"value"`
	Profit        float64   `json:"profit"`
	ProfitPercent float64   `json:"profit_percent"`
	OpenedAt      time.Time `json:"opened_at"`
}

// Snapshot is a read-only copy of the ledger valued at a current price,
// safe to hand to a display.
type Snapshot struct {
	Positions   []PositionView `json:"positions"`
	TotalValue  float64        `json:"total_value"`
	TotalProfit float64        `json:"total_unrealized_profit"`
	Stats       Stats          `json:"stats"`
}

// Snapshot values every open position at current. A non-positive
// current price yields zero values and profits.
func (l *Ledger) Snapshot(current float64) Snapshot {
	snap := Snapshot{
		Positions: make([]PositionView, 0, len(l.positions)),
		Stats:     l.stats,
	}
	for _, p := range l.positions {
		v := PositionView{
			Shares:     p.Shares,
			EntryPrice: p.EntryPrice,
			OpenedAt:   p.OpenedAt,
		}
		if current > 0 {
			v.CurrentPrice = current
			v.Value = float64(p.Shares) * current
			v.Profit = p.Profit(current)
			v.ProfitPercent = (current - p.EntryPrice) / p.EntryPrice * 100
		}
		snap.Positions = append(snap.Positions, v)
		snap.TotalValue += v.Value
		snap.TotalProfit += v.Profit
	}
	return snap
}
