package journal

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/parlalabs/parla-core/internal/config"
	"github.com/parlalabs/parla-core/internal/protocol"
)

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestOpenEphemeral(t *testing.T) {
	cfg := config.JournalConfig{RetentionMode: "ephemeral"}
	s, err := Open(context.Background(), cfg, newLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	// Every call is a no-op without a database.
	if err := s.AppendSession(context.Background(), "s"); err != nil {
		t.Fatalf("append session: %v", err)
	}
	reports, err := s.ListSessionReports(context.Background(), "s", 10)
	if err != nil || reports != nil {
		t.Fatalf("expected no reports, got %v, %v", reports, err)
	}
}

func TestAppendAndListReports(t *testing.T) {
	tmp := t.TempDir()
	cfg := config.JournalConfig{Path: filepath.Join(tmp, "reports.db"), RetentionMode: "persistent"}
	s, err := Open(context.Background(), cfg, newLogger())
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	sessionID := "session-123"
	if err := s.AppendSession(context.Background(), sessionID); err != nil {
		t.Fatalf("append session: %v", err)
	}
	for turn := 1; turn <= 2; turn++ {
		report := protocol.TurnReport{
			SessionID:     sessionID,
			Turn:          turn,
			State:         "REPORTED",
			ScoreMode:     "aligned",
			Mismatches:    turn - 1,
			Perfect:       turn == 1,
			WordsExported: 3,
		}
		if err := s.AppendReport(context.Background(), report); err != nil {
			t.Fatalf("append report: %v", err)
		}
	}

	reports, err := s.ListSessionReports(context.Background(), sessionID, 10)
	if err != nil {
		t.Fatalf("list reports: %v", err)
	}
	if len(reports) != 2 {
		t.Fatalf("expected 2 reports, got %d", len(reports))
	}
	if !reports[0].Perfect || reports[1].Perfect {
		t.Fatalf("unexpected perfect flags: %+v", reports)
	}
	if reports[1].Mismatches != 1 {
		t.Fatalf("expected 1 mismatch on turn 2, got %d", reports[1].Mismatches)
	}
}

func TestPruneKeepsNewestSessions(t *testing.T) {
	tmp := t.TempDir()
	cfg := config.JournalConfig{Path: filepath.Join(tmp, "reports.db"), RetentionMode: "persistent", MaxSessions: 1}
	s, err := Open(context.Background(), cfg, newLogger())
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	s.clock = func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }
	if err := s.AppendSession(context.Background(), "old-session"); err != nil {
		t.Fatalf("append session: %v", err)
	}
	if err := s.AppendReport(context.Background(), protocol.TurnReport{SessionID: "old-session", Turn: 1}); err != nil {
		t.Fatalf("append report: %v", err)
	}

	s.clock = func() time.Time { return time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC) }
	if err := s.AppendSession(context.Background(), "new-session"); err != nil {
		t.Fatalf("append session: %v", err)
	}
	if err := s.Prune(context.Background()); err != nil {
		t.Fatalf("prune: %v", err)
	}

	reports, err := s.ListSessionReports(context.Background(), "old-session", 10)
	if err != nil {
		t.Fatalf("list reports: %v", err)
	}
	if len(reports) != 0 {
		t.Fatalf("expected old session pruned, got %d reports", len(reports))
	}
}
