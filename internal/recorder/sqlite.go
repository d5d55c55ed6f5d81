package recorder

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"MA5Sentinel/internal/model"
)

// SQLiteRecorder persists alerts and snapshots to a SQLite database.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	log zerolog.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, log zerolog.Logger) (*SQLiteRecorder, error) {
	if dbPath != ":memory:" && !strings.HasPrefix(dbPath, "file:") {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// Dispatch workers write concurrently; one connection also keeps :memory: databases shared.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, log: log}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS alerts (
			id         TEXT PRIMARY KEY,
			timestamp  INTEGER NOT NULL,
			kind       TEXT NOT NULL,
			symbol     TEXT NOT NULL,
			name       TEXT,
			condition  TEXT,
			reason     TEXT,
			price      REAL,
			ma5        REAL,
			band_lower REAL,
			band_upper REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_alerts_symbol_ts ON alerts(symbol, timestamp)`,

		`CREATE TABLE IF NOT EXISTS session_snapshots (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp   INTEGER NOT NULL,
			trade_date  TEXT,
			symbol      TEXT NOT NULL,
			name        TEXT,
			held        INTEGER,
			ma5         REAL,
			open_price  REAL,
			ref_date    TEXT,
			ref_high    REAL,
			ref_open    REAL,
			ref_low     REAL,
			price       REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_symbol_date ON session_snapshots(symbol, trade_date)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordAlert(a model.Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO alerts
		(id, timestamp, kind, symbol, name, condition, reason, price, ma5, band_lower, band_upper)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		a.ID, a.At.Unix(), string(a.Kind), a.Symbol, a.Name,
		string(a.Condition), a.Reason, a.Price, a.MA5, a.Lower, a.Upper,
	)
	return err
}

func (r *SQLiteRecorder) RecordSnapshot(snap *SessionSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO session_snapshots
		(timestamp, trade_date, symbol, name, held, ma5, open_price,
		 ref_date, ref_high, ref_open, ref_low, price)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		snap.TakenAt.Unix(), snap.Date, snap.Symbol, snap.Name, snap.Held,
		nullable(snap.MA5), nullable(snap.OpenPrice),
		snap.Ref.Date, nullable(snap.Ref.High), nullable(snap.Ref.Open), nullable(snap.Ref.Low),
		snap.Price,
	)
	return err
}

func (r *SQLiteRecorder) Close() error {
	r.log.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}

// nullable stores unset levels as NULL rather than zero.
func nullable(l model.Level) sql.NullFloat64 {
	return sql.NullFloat64{Float64: l.Value, Valid: l.Set}
}
