package trader

import (
	"context"
	"errors"
	"time"

	"github.com/rustyeddy/stocktrader/broker"
	"github.com/rustyeddy/stocktrader/internal/id"
	"github.com/rustyeddy/stocktrader/journal"
	"github.com/rustyeddy/stocktrader/ledger"
	"github.com/rustyeddy/stocktrader/metrics"
	"github.com/rustyeddy/stocktrader/order"
)

// sell runs one sell order for sold and, on fill, replaces the ledger
// contents with kept. The bool result reports whether the attempt
// succeeded; the error is non-nil only for fatal failures.
func (t *Trader) sell(ctx context.Context, sold, kept []ledger.Position, shares int, price float64, reason string) (bool, error) {
	in := order.Intent{
		Symbol:       t.cfg.Symbol,
		Side:         broker.Sell,
		Shares:       shares,
		CurrentPrice: price,
	}
	fill, err := t.exec.Execute(ctx, in)
	if err != nil {
		return false, t.tradeFailed(in, err, reason)
	}

	t.mu.Lock()
	profit := t.book.ReconcileSell(sold, kept, fill.AvgPrice)
	stats := t.book.Stats()
	open := t.book.Len()
	t.mu.Unlock()

	metrics.Orders.WithLabelValues(string(broker.Sell), string(broker.Filled)).Inc()
	metrics.Trades.Inc()

	t.log.Info().
		Int("shares", fill.Shares).
		Float64("fill_price", fill.AvgPrice).
		Float64("profit", profit).
		Str("reason", reason).
		Msg("sell executed")

	t.record(journal.ExecutionRecord{
		Side:       string(broker.Sell),
		Shares:     fill.Shares,
		LimitPrice: in.LimitPrice(),
		FillPrice:  fill.AvgPrice,
		OrderID:    fill.OrderID,
		Status:     string(broker.Filled),
		Profit:     profit,
		Reason:     reason,
	})
	t.recordStats(stats, open)
	return true, nil
}

// buy runs one buy order for the configured position size and, on fill,
// opens the position and moves the reference to the actual fill price.
func (t *Trader) buy(ctx context.Context, price float64) error {
	in := order.Intent{
		Symbol:       t.cfg.Symbol,
		Side:         broker.Buy,
		Shares:       t.cfg.Triggers.PositionSize,
		CurrentPrice: price,
	}
	fill, err := t.exec.Execute(ctx, in)
	if err != nil {
		return t.tradeFailed(in, err, "DipBuy")
	}

	now := time.Now()
	t.mu.Lock()
	openErr := t.book.ReconcileBuy(fill.Shares, fill.AvgPrice, now)
	if openErr == nil {
		t.refPrice = fill.AvgPrice
	}
	stats := t.book.Stats()
	open := t.book.Len()
	t.mu.Unlock()

	if openErr != nil {
		// A filled order with no shares or no price is gateway
		// misbehavior; surface it but keep monitoring.
		t.log.Error().Err(openErr).Msg("buy fill rejected by ledger")
		return nil
	}

	metrics.Orders.WithLabelValues(string(broker.Buy), string(broker.Filled)).Inc()

	t.log.Info().
		Int("shares", fill.Shares).
		Float64("fill_price", fill.AvgPrice).
		Msg("buy executed")

	t.record(journal.ExecutionRecord{
		Side:       string(broker.Buy),
		Shares:     fill.Shares,
		LimitPrice: in.LimitPrice(),
		FillPrice:  fill.AvgPrice,
		OrderID:    fill.OrderID,
		Status:     string(broker.Filled),
		Reason:     "DipBuy",
	})
	t.recordStats(stats, open)
	return nil
}

// tradeFailed applies the failure policy: fatal errors propagate,
// anything else is logged and journaled and the attempt ends.
func (t *Trader) tradeFailed(in order.Intent, err error, reason string) error {
	status := broker.Errored
	brokerReason := ""
	var orderID int64
	var te *order.TradeError
	if errors.As(err, &te) {
		status = te.Status
		brokerReason = te.Reason
		orderID = te.OrderID
	}

	metrics.Orders.WithLabelValues(string(in.Side), string(status)).Inc()

	if brokerReason == "" {
		brokerReason = reason
	}
	t.record(journal.ExecutionRecord{
		Side:       string(in.Side),
		Shares:     in.Shares,
		LimitPrice: in.LimitPrice(),
		OrderID:    orderID,
		Status:     string(status),
		Reason:     brokerReason,
	})

	if order.KindOf(err) == order.FailFatal {
		return err
	}
	t.log.Warn().
		Err(err).
		Str("side", string(in.Side)).
		Msg("trade attempt failed")
	return nil
}

func (t *Trader) record(rec journal.ExecutionRecord) {
	if t.jnl == nil {
		return
	}
	rec.ID = id.New()
	rec.Time = time.Now()
	rec.Symbol = t.cfg.Symbol
	if err := t.jnl.RecordExecution(rec); err != nil {
		t.log.Error().Err(err).Msg("journal execution failed")
	}
}

func (t *Trader) recordStats(stats ledger.Stats, open int) {
	if t.jnl == nil {
		return
	}
	err := t.jnl.RecordStats(journal.StatsSnapshot{
		Time:          time.Now(),
		TotalTrades:   stats.TotalTrades,
		TotalProfit:   stats.TotalProfit,
		OpenPositions: open,
	})
	if err != nil {
		t.log.Error().Err(err).Msg("journal stats failed")
	}
}

// publish refreshes the gauges after a cycle.
func (t *Trader) publish(price float64) {
	t.mu.Lock()
	stats := t.book.Stats()
	open := t.book.Len()
	t.mu.Unlock()

	metrics.LastPrice.Set(price)
	metrics.Profit.Set(stats.TotalProfit)
	metrics.OpenPositions.Set(float64(open))
}
