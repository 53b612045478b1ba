// Package journal records completed order lifecycles and running trade
// statistics. Records are write-only history; nothing reads them back
// to rebuild state.
package journal

import "time"

// ExecutionRecord is one order lifecycle run to a terminal status,
// successful or not. Profit is the realized profit on filled sells and
// zero otherwise.
type ExecutionRecord struct {
	ID         string
	Time       time.Time
	Symbol     string
	Side       string
	Shares     int
	LimitPrice float64
	FillPrice  float64
	OrderID    int64
	Status     string
	Profit     float64
	Reason     string
}

// StatsSnapshot captures the running counters after a reconciliation.
type StatsSnapshot struct {
	Time          time.Time
	TotalTrades   int
	TotalProfit   float64
	OpenPositions int
}

type Journal interface {
	RecordExecution(ExecutionRecord) error
	RecordStats(StatsSnapshot) error
	Close() error
}
