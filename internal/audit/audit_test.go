package audit

import (
	"context"
	"testing"
	"time"
)

func TestAppendAndRecent(t *testing.T) {
	log, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer log.Close()

	ctx := context.Background()
	now := time.Now()

	if err := log.Append(ctx, "git-op-1", "/repo/a", "git_status", "normal", nil, nil, now, now); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := log.Append(ctx, "git-op-2", "/repo/a", "git_commit", "critical", []byte(`{"message":"x"}`), nil, now, now); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := log.Append(ctx, "git-op-3", "/repo/b", "git_status", "normal", nil, nil, now, now); err != nil {
		t.Fatalf("Append: %v", err)
	}

	records, err := log.Recent(ctx, "/repo/a", 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records for /repo/a, got %d", len(records))
	}
	if records[0].OperationID != "git-op-2" {
		t.Errorf("expected newest-first ordering, got %q first", records[0].OperationID)
	}
}

func TestAppendRecordsError(t *testing.T) {
	log, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer log.Close()

	ctx := context.Background()
	now := time.Now()

	opErr := context.DeadlineExceeded
	if err := log.Append(ctx, "git-op-1", "/repo/a", "git_push", "normal", nil, opErr, now, now); err != nil {
		t.Fatalf("Append: %v", err)
	}

	records, err := log.Recent(ctx, "/repo/a", 1)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(records) != 1 || records[0].Error == "" {
		t.Fatalf("expected recorded error, got %+v", records)
	}
}

func TestRecentEmptyRepo(t *testing.T) {
	log, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer log.Close()

	records, err := log.Recent(context.Background(), "/unknown", 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected no records, got %d", len(records))
	}
}
