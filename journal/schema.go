package journal

const Schema = `
CREATE TABLE IF NOT EXISTS executions (
	id TEXT PRIMARY KEY,
	time DATETIME NOT NULL,
	symbol TEXT NOT NULL,
	side TEXT NOT NULL,
	shares INTEGER NOT NULL,
	limit_price REAL NOT NULL,
	fill_price REAL NOT NULL,
	order_id INTEGER NOT NULL,
	status TEXT NOT NULL,
	profit REAL NOT NULL,
	reason TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS stats (
	time DATETIME NOT NULL,
	total_trades INTEGER NOT NULL,
	total_profit REAL NOT NULL,
	open_positions INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_executions_time ON executions(time);
CREATE INDEX IF NOT EXISTS idx_stats_time ON stats(time);
`
