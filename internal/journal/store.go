package journal

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/parlalabs/parla-core/internal/config"
	"github.com/parlalabs/parla-core/internal/protocol"
	_ "modernc.org/sqlite"
)

// Store keeps per-turn practice reports in SQLite. In ephemeral mode every
// call is a no-op, so the rest of the pipeline never branches on retention.
// Only derived results are stored; conversation text never reaches the store.
type Store struct {
	db    *sql.DB
	cfg   config.JournalConfig
	log   *slog.Logger
	clock func() time.Time
}

// Open initializes the report store according to config.
func Open(ctx context.Context, cfg config.JournalConfig, log *slog.Logger) (*Store, error) {
	if cfg.RetentionMode == "ephemeral" {
		return &Store{cfg: cfg, log: log, clock: time.Now}, nil
	}

	dir := filepath.Dir(cfg.Path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", cfg.Path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	s := &Store{db: db, cfg: cfg, log: log, clock: time.Now}

	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	if cfg.VacuumOnStart {
		if _, err := db.ExecContext(ctx, "VACUUM"); err != nil {
			log.Warn("journal vacuum failed", slog.String("error", err.Error()))
		}
	}

	if err := s.Prune(ctx); err != nil {
		log.Warn("journal prune on start failed", slog.String("error", err.Error()))
	}

	return s, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	ddl := `
CREATE TABLE IF NOT EXISTS sessions (
    session_id TEXT PRIMARY KEY,
    created_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS turn_reports (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id TEXT NOT NULL,
    turn INTEGER NOT NULL,
    state TEXT,
    score_mode TEXT,
    mismatches INTEGER,
    perfect INTEGER,
    words_exported INTEGER,
    words_skipped INTEGER,
    duration_sec REAL,
    created_at TIMESTAMP NOT NULL,
    FOREIGN KEY(session_id) REFERENCES sessions(session_id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_turn_reports_session ON turn_reports(session_id, turn);
`
	_, err := s.db.ExecContext(ctx, ddl)
	return err
}

// Close releases underlying resources.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// AppendSession ensures a session row exists.
func (s *Store) AppendSession(ctx context.Context, sessionID string) error {
	if s.db == nil {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions(session_id, created_at) VALUES(?, ?)
		 ON CONFLICT(session_id) DO NOTHING`,
		sessionID, s.clock().UTC())
	return err
}

// AppendReport writes one turn report into the store.
func (s *Store) AppendReport(ctx context.Context, report protocol.TurnReport) error {
	if s.db == nil {
		return nil
	}
	created := report.Timestamp
	if created.IsZero() {
		created = s.clock().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO turn_reports(session_id, turn, state, score_mode, mismatches, perfect,
		                          words_exported, words_skipped, duration_sec, created_at)
		 VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		report.SessionID, report.Turn, report.State, report.ScoreMode, report.Mismatches,
		boolToInt(report.Perfect), report.WordsExported, report.WordsSkipped,
		report.DurationSec, created)
	return err
}

// ListSessionReports retrieves up to limit reports for a session in turn order.
func (s *Store) ListSessionReports(ctx context.Context, sessionID string, limit int) ([]protocol.TurnReport, error) {
	if s.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT session_id, turn, state, score_mode, mismatches, perfect,
		        words_exported, words_skipped, duration_sec, created_at
		 FROM turn_reports WHERE session_id = ? ORDER BY turn ASC LIMIT ?`, sessionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []protocol.TurnReport
	for rows.Next() {
		var r protocol.TurnReport
		var perfect int
		var created string
		if err := rows.Scan(&r.SessionID, &r.Turn, &r.State, &r.ScoreMode, &r.Mismatches,
			&perfect, &r.WordsExported, &r.WordsSkipped, &r.DurationSec, &created); err != nil {
			return nil, err
		}
		r.Perfect = perfect != 0
		if ts, err := time.Parse(time.RFC3339Nano, created); err == nil {
			r.Timestamp = ts
		}
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

// Prune drops the oldest sessions beyond the configured cap.
func (s *Store) Prune(ctx context.Context) error {
	if s.db == nil || s.cfg.MaxSessions <= 0 {
		return nil
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE session_id IN (
		SELECT session_id FROM sessions ORDER BY created_at DESC LIMIT -1 OFFSET ?
	)`, s.cfg.MaxSessions)
	return err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
