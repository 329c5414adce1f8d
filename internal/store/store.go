// Package store provides the relational persistence layer for positions,
// daily PnL, and the trade log (spec.md §3/§6). Backed by SQLite through
// modernc.org/sqlite (pure Go, no cgo), with a versioned schema_version
// table driving additive migrations the way stadam23-Eve-flipper's db
// package does.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"polymarket-quoter/pkg/types"
)

// Store wraps the SQLite connection used by the engine, risk governor, and
// control API.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at dsn and runs migrations. dsn is a
// filesystem path; the WAL journal mode and a busy timeout are applied so
// the control API can read concurrently with an in-flight cycle (spec.md §5).
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate db: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	version := 0
	s.db.QueryRow("SELECT version FROM schema_version ORDER BY version DESC LIMIT 1").Scan(&version)

	if version < 1 {
		_, err := s.db.Exec(`
			CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY);

			CREATE TABLE IF NOT EXISTS positions (
				condition_id TEXT PRIMARY KEY,
				net_position REAL NOT NULL DEFAULT 0,
				updated_at   TEXT NOT NULL
			);

			CREATE TABLE IF NOT EXISTS daily_pnl (
				date                      TEXT PRIMARY KEY,
				realized_pnl              REAL NOT NULL DEFAULT 0,
				circuit_breaker_triggered INTEGER NOT NULL DEFAULT 0
			);

			CREATE TABLE IF NOT EXISTS trade_log (
				id           TEXT PRIMARY KEY,
				ts           TEXT NOT NULL,
				event_type   TEXT NOT NULL,
				condition_id TEXT NOT NULL,
				token_id     TEXT NOT NULL,
				side         TEXT NOT NULL,
				price        REAL NOT NULL,
				size         REAL NOT NULL,
				order_id     TEXT NOT NULL DEFAULT '',
				latency_ms   INTEGER NOT NULL DEFAULT 0,
				error        TEXT NOT NULL DEFAULT ''
			);
			CREATE INDEX IF NOT EXISTS idx_trade_log_ts ON trade_log(ts DESC);

			CREATE VIEW IF NOT EXISTS cumulative_pnl AS
			SELECT
				date,
				realized_pnl,
				circuit_breaker_triggered,
				SUM(realized_pnl) OVER (ORDER BY date ASC) AS cumulative_realized_pnl
			FROM daily_pnl;

			INSERT OR IGNORE INTO schema_version (version) VALUES (1);
		`)
		if err != nil {
			return fmt.Errorf("migration v1: %w", err)
		}
	}

	return nil
}

// today returns the calendar date key used for daily_pnl rows: the current
// UTC date, read from time.Now.
func today() string {
	return time.Now().UTC().Format("2006-01-02")
}

// Position is one market's net signed position (spec.md §3).
type Position struct {
	ConditionID string
	NetPosition float64
}

// GetPosition returns the net position for a market, 0 if unseen.
func (s *Store) GetPosition(ctx context.Context, conditionID string) (float64, error) {
	var pos float64
	err := s.db.QueryRowContext(ctx, `SELECT net_position FROM positions WHERE condition_id = ?`, conditionID).Scan(&pos)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get position: %w", err)
	}
	return pos, nil
}

// SetPosition upserts the net position for a market.
func (s *Store) SetPosition(ctx context.Context, conditionID string, value float64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO positions (condition_id, net_position, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(condition_id) DO UPDATE SET net_position = excluded.net_position, updated_at = excluded.updated_at
	`, conditionID, value, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("set position: %w", err)
	}
	return nil
}

// AllPositions returns every stored position.
func (s *Store) AllPositions(ctx context.Context) ([]Position, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT condition_id, net_position FROM positions ORDER BY condition_id`)
	if err != nil {
		return nil, fmt.Errorf("list positions: %w", err)
	}
	defer rows.Close()

	var out []Position
	for rows.Next() {
		var p Position
		if err := rows.Scan(&p.ConditionID, &p.NetPosition); err != nil {
			return nil, fmt.Errorf("scan position: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ResetPositions zeroes every stored position (the `reset_positions` control
// API action, spec.md §6).
func (s *Store) ResetPositions(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `UPDATE positions SET net_position = 0, updated_at = ?`, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("reset positions: %w", err)
	}
	return nil
}

// AutoRepairPositions zeroes any stored position whose magnitude exceeds
// maxPosition*repairMultiplier, a defense against legacy data (spec.md §4.6).
// Returns the number of positions repaired.
func (s *Store) AutoRepairPositions(ctx context.Context, threshold float64) (int, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE positions SET net_position = 0, updated_at = ?
		WHERE ABS(net_position) > ?
	`, time.Now().UTC().Format(time.RFC3339), threshold)
	if err != nil {
		return 0, fmt.Errorf("auto-repair positions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return int(n), nil
}

// DailyPnL is one day's realized PnL and circuit-breaker latch state.
type DailyPnL struct {
	Date                    string
	RealizedPnL             float64
	CircuitBreakerTriggered bool
}

// TodayPnL reads (creating if absent) today's PnL row.
func (s *Store) TodayPnL(ctx context.Context) (DailyPnL, error) {
	date := today()

	_, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO daily_pnl (date, realized_pnl, circuit_breaker_triggered) VALUES (?, 0, 0)`, date)
	if err != nil {
		return DailyPnL{}, fmt.Errorf("ensure today pnl row: %w", err)
	}

	var row DailyPnL
	var triggered int
	err = s.db.QueryRowContext(ctx, `SELECT date, realized_pnl, circuit_breaker_triggered FROM daily_pnl WHERE date = ?`, date).
		Scan(&row.Date, &row.RealizedPnL, &triggered)
	if err != nil {
		return DailyPnL{}, fmt.Errorf("read today pnl: %w", err)
	}
	row.CircuitBreakerTriggered = triggered != 0
	return row, nil
}

// AddRealizedPnL credits delta to today's realized PnL (spec.md §4.7's
// paper-mode fill credit; live fills do not call it).
func (s *Store) AddRealizedPnL(ctx context.Context, delta float64) error {
	date := today()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO daily_pnl (date, realized_pnl, circuit_breaker_triggered) VALUES (?, ?, 0)
		ON CONFLICT(date) DO UPDATE SET realized_pnl = realized_pnl + excluded.realized_pnl
	`, date, delta)
	if err != nil {
		return fmt.Errorf("add realized pnl: %w", err)
	}
	return nil
}

// LatchCircuitBreaker persists circuit_breaker_triggered=true for today.
func (s *Store) LatchCircuitBreaker(ctx context.Context) error {
	date := today()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO daily_pnl (date, realized_pnl, circuit_breaker_triggered) VALUES (?, 0, 1)
		ON CONFLICT(date) DO UPDATE SET circuit_breaker_triggered = 1
	`, date)
	if err != nil {
		return fmt.Errorf("latch circuit breaker: %w", err)
	}
	return nil
}

// PnLHistoryEntry is one row of the `get_pnl_history` response (spec.md §6).
type PnLHistoryEntry struct {
	Date                    string
	RealizedPnL             float64
	CumulativePnL           float64
	CircuitBreakerTriggered bool
}

// PnLHistory returns up to limit most-recent daily rows with a running
// cumulative-PnL column, newest first.
func (s *Store) PnLHistory(ctx context.Context, limit int) ([]PnLHistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT date, realized_pnl, circuit_breaker_triggered, cumulative_realized_pnl
		FROM cumulative_pnl
		ORDER BY date DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("pnl history: %w", err)
	}
	defer rows.Close()

	var out []PnLHistoryEntry
	for rows.Next() {
		var e PnLHistoryEntry
		var triggered int
		if err := rows.Scan(&e.Date, &e.RealizedPnL, &triggered, &e.CumulativePnL); err != nil {
			return nil, fmt.Errorf("scan pnl history row: %w", err)
		}
		e.CircuitBreakerTriggered = triggered != 0
		out = append(out, e)
	}
	return out, rows.Err()
}

// TradeLogEntry is one row of the append-only trade log.
type TradeLogEntry struct {
	ID          string
	Timestamp   string
	EventType   string
	ConditionID string
	TokenID     string
	Side        string
	Price       float64
	Size        float64
	OrderID     string
	LatencyMS   int64
	Error       string
}

// LogOrderEvent appends one reconciliation action to the trade log. It
// satisfies strategy.TradeLogger.
func (s *Store) LogOrderEvent(ctx context.Context, eventType, conditionID, tokenID string, side types.Side, price, size float64, orderID string, latencyMS int64, errMsg string) {
	s.insertTradeLog(ctx, eventType, conditionID, tokenID, string(side), price, size, orderID, latencyMS, errMsg)
}

func (s *Store) insertTradeLog(ctx context.Context, eventType, conditionID, tokenID, side string, price, size float64, orderID string, latencyMS int64, errMsg string) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO trade_log (id, ts, event_type, condition_id, token_id, side, price, size, order_id, latency_ms, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, uuid.NewString(), time.Now().UTC().Format(time.RFC3339), eventType, conditionID, tokenID, side, price, size, orderID, latencyMS, errMsg)
	if err != nil {
		// The trade log is best-effort audit trail; a write failure here must
		// never abort the reconciliation action it is recording.
		fmt.Printf("trade log write failed: %v\n", err)
	}
}

// RecentTradeLog returns the most recent limit trade-log rows, newest first
// (used by the `whoami` diagnostic bundle, spec.md §6).
func (s *Store) RecentTradeLog(ctx context.Context, limit int) ([]TradeLogEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, ts, event_type, condition_id, token_id, side, price, size, order_id, latency_ms, error
		FROM trade_log
		ORDER BY ts DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent trade log: %w", err)
	}
	defer rows.Close()

	var out []TradeLogEntry
	for rows.Next() {
		var e TradeLogEntry
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.EventType, &e.ConditionID, &e.TokenID, &e.Side, &e.Price, &e.Size, &e.OrderID, &e.LatencyMS, &e.Error); err != nil {
			return nil, fmt.Errorf("scan trade log row: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
