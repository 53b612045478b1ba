// Package trigger holds the pure threshold math behind trading
// decisions: fractional price moves measured against a reference or an
// entry price, compared to configured trigger fractions.
package trigger

import (
	"fmt"
	"math"
)

// Config holds the fractional price-move thresholds that drive trading
// decisions. BuyTrigger and StopLossTrigger are negative fractions,
// SellTrigger is positive.
type Config struct {
	BuyTrigger      float64
	SellTrigger     float64
	StopLossTrigger float64
	MaxPositions    int
	PositionSize    int
}

func (c Config) Validate() error {
	if c.BuyTrigger >= 0 {
		return fmt.Errorf("buy trigger must be negative, got %g", c.BuyTrigger)
	}
	if c.SellTrigger <= 0 {
		return fmt.Errorf("sell trigger must be positive, got %g", c.SellTrigger)
	}
	if c.StopLossTrigger >= 0 {
		return fmt.Errorf("stop loss trigger must be negative, got %g", c.StopLossTrigger)
	}
	if c.MaxPositions <= 0 {
		return fmt.Errorf("max positions must be positive, got %d", c.MaxPositions)
	}
	if c.PositionSize <= 0 {
		return fmt.Errorf("position size must be positive, got %d", c.PositionSize)
	}
	return nil
}

// Change returns the fractional move of current from reference.
// Reference must be positive; the control loop establishes that before
// any evaluation.
func Change(current, reference float64) float64 {
	return (current - reference) / reference
}

// BuySignal reports whether a new position should be opened: room below
// the position cap and a drop at least as deep as the buy trigger.
func BuySignal(c Config, change float64, openPositions int) bool {
	return openPositions < c.MaxPositions && change <= c.BuyTrigger
}

// StopLoss reports whether a position opened at entry has lost enough
// at current to be force-sold.
func StopLoss(current, entry, stopLossTrigger float64) bool {
	return Change(current, entry) <= stopLossTrigger
}

// TakeProfit reports whether a position opened at entry has gained
// enough at current to join the batched sell.
func TakeProfit(current, entry, sellTrigger float64) bool {
	return Change(current, entry) >= sellTrigger
}

// ResetReference reports whether the price has drifted far enough from
// the reference that the baseline should move to the current price.
func ResetReference(change, buyTrigger, sellTrigger float64) bool {
	return math.Abs(change) > math.Max(math.Abs(buyTrigger), sellTrigger)
}
