package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"quantbt/internal/errors"
	"quantbt/internal/metrics"
	"quantbt/internal/models"
)

// SQLiteStore implements ResultStore using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite-backed result store.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	-- Completed backtest runs
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		strategy TEXT NOT NULL,
		symbol TEXT NOT NULL,
		started_at DATETIME NOT NULL,
		finished_at DATETIME NOT NULL,
		starting_cash REAL NOT NULL,
		final_nav REAL NOT NULL,
		periods INTEGER NOT NULL,
		total_return REAL,
		cagr REAL,
		sharpe REAL,
		sortino REAL,
		max_drawdown REAL,
		config TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- Append-only fill log per run
	CREATE TABLE IF NOT EXISTS fills (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		order_id INTEGER NOT NULL,
		symbol TEXT NOT NULL,
		quantity REAL NOT NULL,
		price REAL NOT NULL,
		fee REAL NOT NULL,
		slippage REAL NOT NULL,
		liquidity TEXT NOT NULL,
		timestamp DATETIME NOT NULL,
		FOREIGN KEY (run_id) REFERENCES runs(id)
	);

	-- Equity curve per run
	CREATE TABLE IF NOT EXISTS equity_curve (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		timestamp DATETIME NOT NULL,
		cash REAL NOT NULL,
		equity REAL NOT NULL,
		nav REAL NOT NULL,
		drawdown REAL NOT NULL,
		FOREIGN KEY (run_id) REFERENCES runs(id)
	);

	CREATE INDEX IF NOT EXISTS idx_fills_run ON fills(run_id);
	CREATE INDEX IF NOT EXISTS idx_equity_run ON equity_curve(run_id);
	CREATE INDEX IF NOT EXISTS idx_runs_strategy ON runs(strategy);
	`
	_, err := s.db.Exec(schema)
	return err
}

// SaveRun stores the run record together with its fill log and equity
// curve in one transaction.
func (s *SQLiteStore) SaveRun(ctx context.Context, run *RunRecord, fills []models.Fill, curve []models.AccountSnapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, strategy, symbol, started_at, finished_at, starting_cash,
			final_nav, periods, total_return, cagr, sharpe, sortino, max_drawdown, config)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Strategy, run.Symbol, run.StartedAt, run.FinishedAt, run.StartingCash,
		run.FinalNAV, run.Metrics.Periods, run.Metrics.TotalReturn, run.Metrics.CAGR,
		run.Metrics.Sharpe, run.Metrics.Sortino, run.Metrics.MaxDrawdown, run.Config)
	if err != nil {
		return errors.Wrap(err, "inserting run")
	}

	fillStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO fills (run_id, order_id, symbol, quantity, price, fee, slippage, liquidity, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return errors.Wrap(err, "preparing fill insert")
	}
	defer fillStmt.Close()
	for _, f := range fills {
		if _, err := fillStmt.ExecContext(ctx, run.ID, f.OrderID, f.Symbol, f.Quantity,
			f.Price, f.Fee, f.Slippage, string(f.Liquidity), f.Timestamp); err != nil {
			return errors.Wrap(err, "inserting fill")
		}
	}

	curveStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO equity_curve (run_id, timestamp, cash, equity, nav, drawdown)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return errors.Wrap(err, "preparing equity insert")
	}
	defer curveStmt.Close()
	for _, p := range curve {
		if _, err := curveStmt.ExecContext(ctx, run.ID, p.Timestamp, p.Cash, p.Equity,
			p.NAV, p.Drawdown); err != nil {
			return errors.Wrap(err, "inserting equity point")
		}
	}

	return tx.Commit()
}

// GetRun returns one run by id.
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*RunRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, strategy, symbol, started_at, finished_at, starting_cash,
			final_nav, periods, total_return, cagr, sharpe, sortino, max_drawdown, config
		FROM runs WHERE id = ?`, id)

	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, errors.Wrapf(errors.ErrRunNotFound, "id %s", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, "querying run")
	}
	return run, nil
}

// ListRuns returns runs matching the filter, most recent first.
func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]RunRecord, error) {
	query := `
		SELECT id, strategy, symbol, started_at, finished_at, starting_cash,
			final_nav, periods, total_return, cagr, sharpe, sortino, max_drawdown, config
		FROM runs`

	var conds []string
	var args []interface{}
	if filter.Strategy != "" {
		conds = append(conds, "strategy = ?")
		args = append(args, filter.Strategy)
	}
	if filter.Symbol != "" {
		conds = append(conds, "symbol = ?")
		args = append(args, filter.Symbol)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY finished_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "querying runs")
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scanning run")
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// GetFills returns a run's fill log in execution order.
func (s *SQLiteStore) GetFills(ctx context.Context, runID string) ([]models.Fill, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT order_id, symbol, quantity, price, fee, slippage, liquidity, timestamp
		FROM fills WHERE run_id = ? ORDER BY id ASC`, runID)
	if err != nil {
		return nil, errors.Wrap(err, "querying fills")
	}
	defer rows.Close()

	var fills []models.Fill
	for rows.Next() {
		var f models.Fill
		var liquidity string
		if err := rows.Scan(&f.OrderID, &f.Symbol, &f.Quantity, &f.Price, &f.Fee,
			&f.Slippage, &liquidity, &f.Timestamp); err != nil {
			return nil, errors.Wrap(err, "scanning fill")
		}
		f.Liquidity = models.Liquidity(liquidity)
		fills = append(fills, f)
	}
	return fills, rows.Err()
}

// GetEquityCurve returns a run's equity snapshots in recording order.
func (s *SQLiteStore) GetEquityCurve(ctx context.Context, runID string) ([]models.AccountSnapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT timestamp, cash, equity, nav, drawdown
		FROM equity_curve WHERE run_id = ? ORDER BY id ASC`, runID)
	if err != nil {
		return nil, errors.Wrap(err, "querying equity curve")
	}
	defer rows.Close()

	var curve []models.AccountSnapshot
	for rows.Next() {
		var p models.AccountSnapshot
		if err := rows.Scan(&p.Timestamp, &p.Cash, &p.Equity, &p.NAV, &p.Drawdown); err != nil {
			return nil, errors.Wrap(err, "scanning equity point")
		}
		curve = append(curve, p)
	}
	return curve, rows.Err()
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*RunRecord, error) {
	var run RunRecord
	var m metrics.Summary
	err := row.Scan(&run.ID, &run.Strategy, &run.Symbol, &run.StartedAt, &run.FinishedAt,
		&run.StartingCash, &run.FinalNAV, &m.Periods, &m.TotalReturn, &m.CAGR,
		&m.Sharpe, &m.Sortino, &m.MaxDrawdown, &run.Config)
	if err != nil {
		return nil, err
	}
	run.Metrics = m
	return &run, nil
}

// Ensure SQLiteStore implements ResultStore
var _ ResultStore = (*SQLiteStore)(nil)
