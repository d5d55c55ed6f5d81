package recorder

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"MA5Sentinel/internal/model"
)

func newTestRecorder(t *testing.T) *SQLiteRecorder {
	t.Helper()
	r, err := NewSQLiteRecorder(":memory:", zerolog.Nop())
	if err != nil {
		t.Fatalf("open recorder: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func TestRecordAlert(t *testing.T) {
	r := newTestRecorder(t)
	at := time.Date(2026, 10, 15, 10, 0, 0, 0, time.UTC)
	a := model.Alert{
		ID: "a-1", Kind: model.AlertSell, Symbol: "600000", Name: "PF Bank",
		Condition: model.CondAboveYesterdayHigh, Reason: "broke above yesterday high",
		Price: 12.1, MA5: 11.2, At: at,
	}
	if err := r.RecordAlert(a); err != nil {
		t.Fatalf("record: %v", err)
	}

	var kind, cond string
	var price float64
	var ts int64
	err := r.db.QueryRow(`SELECT kind, condition, price, timestamp FROM alerts WHERE id = ?`, "a-1").
		Scan(&kind, &cond, &price, &ts)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if kind != "SELL" || cond != string(model.CondAboveYesterdayHigh) || price != 12.1 || ts != at.Unix() {
		t.Errorf("row = %s %s %v %d", kind, cond, price, ts)
	}

	// IDs are unique.
	if err := r.RecordAlert(a); err == nil {
		t.Error("expected duplicate id to fail")
	}
}

func TestRecordSnapshotNullLevels(t *testing.T) {
	r := newTestRecorder(t)
	snap := &SessionSnapshot{
		Symbol:  "000001",
		Date:    "2026-10-15",
		MA5:     model.NewLevel(9.96),
		TakenAt: time.Date(2026, 10, 15, 16, 0, 0, 0, time.UTC),
	}
	if err := r.RecordSnapshot(snap); err != nil {
		t.Fatalf("record: %v", err)
	}

	var ma5, open sql.NullFloat64
	if err := r.db.QueryRow(`SELECT ma5, open_price FROM session_snapshots WHERE symbol = ?`, "000001").
		Scan(&ma5, &open); err != nil {
		t.Fatalf("query: %v", err)
	}
	if !ma5.Valid || ma5.Float64 != 9.96 {
		t.Errorf("ma5 = %+v", ma5)
	}
	if open.Valid {
		t.Errorf("open price should be NULL, got %v", open.Float64)
	}
}

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NewNoopRecorder()
	if err := r.RecordAlert(model.Alert{}); err != nil {
		t.Error(err)
	}
	if err := r.RecordSnapshot(&SessionSnapshot{}); err != nil {
		t.Error(err)
	}
	if err := r.Close(); err != nil {
		t.Error(err)
	}
}

func TestNewSQLiteRecorder_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "nested", "sentinel.db")
	r, err := NewSQLiteRecorder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("open recorder: %v", err)
	}
	defer r.Close()
	if _, err := os.Stat(path); err != nil {
		t.Errorf("database file not created: %v", err)
	}
}
