package journal

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"
)

type CSVJournal struct {
	executions *csv.Writer
	stats      *csv.Writer
	xf, sf     *os.File
}

func NewCSV(executionsPath, statsPath string) (*CSVJournal, error) {
	xf, err := os.Create(executionsPath)
	if err != nil {
		return nil, err
	}
	sf, err := os.Create(statsPath)
	if err != nil {
		xf.Close()
		return nil, err
	}

	xw := csv.NewWriter(xf)
	sw := csv.NewWriter(sf)

	if err := xw.Write([]string{"id", "time", "symbol", "side", "shares", "limit_price", "fill_price", "order_id", "status", "profit", "reason"}); err != nil {
		return nil, err
	}
	if err := sw.Write([]string{"time", "total_trades", "total_profit", "open_positions"}); err != nil {
		return nil, err
	}

	xw.Flush()
	if err := xw.Error(); err != nil {
		return nil, err
	}
	sw.Flush()
	if err := sw.Error(); err != nil {
		return nil, err
	}

	return &CSVJournal{xw, sw, xf, sf}, nil
}

func (j *CSVJournal) RecordExecution(r ExecutionRecord) error {
	err := j.executions.Write([]string{
		r.ID,
		r.Time.Format(time.RFC3339),
		r.Symbol,
		r.Side,
		strconv.Itoa(r.Shares),
		f(r.LimitPrice),
		f(r.FillPrice),
		strconv.FormatInt(r.OrderID, 10),
		r.Status,
		f(r.Profit),
		r.Reason,
	})
	if err != nil {
		return err
	}
	j.executions.Flush()
	return j.executions.Error()
}

func (j *CSVJournal) RecordStats(s StatsSnapshot) error {
	err := j.stats.Write([]string{
		s.Time.Format(time.RFC3339),
		strconv.Itoa(s.TotalTrades),
		f(s.TotalProfit),
		strconv.Itoa(s.OpenPositions),
	})
	if err != nil {
		return err
	}
	j.stats.Flush()
	return j.stats.Error()
}

func (j *CSVJournal) Close() error {
	j.executions.Flush()
	if err := j.executions.Error(); err != nil {
		return err
	}
	j.stats.Flush()
	if err := j.stats.Error(); err != nil {
		return err
	}

	if err := j.xf.Close(); err != nil {
		return err
	}
	return j.sf.Close()
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
