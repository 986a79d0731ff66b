package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"whatsapp-broadcast/internal/domain"
)

func openTestLog(t *testing.T) *SendLog {
	t.Helper()
	l, err := New(filepath.Join(t.TempDir(), "sendlog.db"))
	if err != nil {
		t.Fatalf("open send log: %v", err)
	}
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func record(batchID, recipient string, outcome domain.Outcome, ts time.Time) domain.SendRecord {
	return domain.SendRecord{
		Timestamp:   ts,
		BatchID:     batchID,
		DisplayName: "ana silva",
		GroupLabel:  "Grupo A",
		Recipient:   recipient,
		Outcome:     outcome,
		Message:     "hello",
	}
}

func TestAppendAndListAll(t *testing.T) {
	l := openTestLog(t)
	ctx := context.Background()
	now := time.Now()

	for i, rec := range []domain.SendRecord{
		record("b1", "5521911111111", domain.OutcomeSent, now),
		record("b1", "5521922222222", domain.FailedOutcome(500), now),
		record("b2", "5521911111111", domain.OutcomeSkippedQuota, now),
	} {
		if err := l.Append(ctx, rec); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	recs, err := l.ListAll(ctx)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("expected 3 records, got %d", len(recs))
	}
	// Append order is preserved.
	if recs[0].Recipient != "5521911111111" || recs[1].Outcome != domain.FailedOutcome(500) || recs[2].BatchID != "b2" {
		t.Errorf("records out of order: %+v", recs)
	}
	if recs[0].DisplayName != "ana silva" || recs[0].Message != "hello" {
		t.Errorf("record fields lost on round trip: %+v", recs[0])
	}
}

func TestCountSentToday(t *testing.T) {
	l := openTestLog(t)
	ctx := context.Background()
	now := time.Now()

	seed := []domain.SendRecord{
		record("b1", "1", domain.OutcomeSent, now),
		record("b1", "2", domain.OutcomeSent, now),
		record("b1", "3", domain.FailedOutcome(500), now),          // wrong outcome
		record("b1", "4", domain.OutcomeSkippedQuota, now),         // wrong outcome
		record("b1", "5", domain.OutcomeSent, now.AddDate(0, 0, -1)), // yesterday
	}
	for _, rec := range seed {
		if err := l.Append(ctx, rec); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	n, err := l.CountSentToday(ctx)
	if err != nil {
		t.Fatalf("count sent today: %v", err)
	}
	if n != 2 {
		t.Errorf("CountSentToday() = %d, want 2", n)
	}
}

func TestHasSentInBatch(t *testing.T) {
	l := openTestLog(t)
	ctx := context.Background()
	now := time.Now()

	if err := l.Append(ctx, record("b1", "5521911111111", domain.OutcomeSent, now)); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := l.Append(ctx, record("b1", "5521922222222", domain.FailedOutcome(500), now)); err != nil {
		t.Fatalf("append: %v", err)
	}

	tests := []struct {
		name      string
		batchID   string
		recipient string
		want      bool
	}{
		{"sent in batch", "b1", "5521911111111", true},
		{"same recipient, other batch", "b2", "5521911111111", false},
		{"failed outcome does not count", "b1", "5521922222222", false},
		{"unknown recipient", "b1", "5521933333333", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := l.HasSentInBatch(ctx, tt.batchID, tt.recipient)
			if err != nil {
				t.Fatalf("HasSentInBatch: %v", err)
			}
			if got != tt.want {
				t.Errorf("HasSentInBatch(%q, %q) = %v, want %v", tt.batchID, tt.recipient, got, tt.want)
			}
		})
	}
}

func TestReopenKeepsRecords(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sendlog.db")
	ctx := context.Background()

	l, err := New(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := l.Append(ctx, record("b1", "5521911111111", domain.OutcomeSent, time.Now())); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	// Second open must see the existing schema and rows.
	l2, err := New(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer l2.Close()

	recs, err := l2.ListAll(ctx)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(recs) != 1 || recs[0].Recipient != "5521911111111" {
		t.Errorf("records lost across reopen: %+v", recs)
	}
}
