package journal

import (
	"context"
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

type SQLiteJournal struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		return nil, err
	}

	return &SQLiteJournal{db: db}, nil
}

func (j *SQLiteJournal) RecordExecution(r ExecutionRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO executions
		(id, time, symbol, side, shares, limit_price, fill_price, order_id, status, profit, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Time, r.Symbol, r.Side, r.Shares,
		r.LimitPrice, r.FillPrice, r.OrderID, r.Status, r.Profit, r.Reason,
	)
	return err
}

func (j *SQLiteJournal) RecordStats(s StatsSnapshot) error {
	_, err := j.db.Exec(`
		INSERT INTO stats
		(time, total_trades, total_profit, open_positions)
		VALUES (?, ?, ?, ?)`,
		s.Time, s.TotalTrades, s.TotalProfit, s.OpenPositions,
	)
	return err
}

// ListExecutions returns all recorded executions, oldest first.
func (j *SQLiteJournal) ListExecutions(ctx context.Context) ([]ExecutionRecord, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT id, time, symbol, side, shares, limit_price, fill_price, order_id, status, profit, reason
		FROM executions ORDER BY time, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ExecutionRecord
	for rows.Next() {
		var r ExecutionRecord
		if err := rows.Scan(&r.ID, &r.Time, &r.Symbol, &r.Side, &r.Shares,
			&r.LimitPrice, &r.FillPrice, &r.OrderID, &r.Status, &r.Profit, &r.Reason); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// LatestStats returns the most recent stats snapshot, or ok=false when
// none has been recorded.
func (j *SQLiteJournal) LatestStats(ctx context.Context) (StatsSnapshot, bool, error) {
	var s StatsSnapshot
	err := j.db.QueryRowContext(ctx, `
		SELECT time, total_trades, total_profit, open_positions
		FROM stats ORDER BY time DESC LIMIT 1`).
		Scan(&s.Time, &s.TotalTrades, &s.TotalProfit, &s.OpenPositions)
	if err == sql.ErrNoRows {
		return StatsSnapshot{}, false, nil
	}
	if err != nil {
		return StatsSnapshot{}, false, err
	}
	return s, true, nil
}

func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}
