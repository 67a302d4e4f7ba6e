package workflows

import (
	"context"
	"errors"
	"testing"

	"github.com/sable-health/medlock/internal/audit"
	"github.com/sable-health/medlock/internal/configs"
	merrors "github.com/sable-health/medlock/internal/errors"
)

func seedAuditLog(t *testing.T) {
	t.Helper()
	entries := []audit.Entry{
		{Timestamp: "2026-08-01T09:00:00.000000Z", User: "dr001", Operation: audit.OpKeyGenerated, KeyID: "key-001"},
		{Timestamp: "2026-08-02T10:00:00.000000Z", User: "pt001", Operation: audit.OpKeyScanned, KeyID: "key-001"},
		{Timestamp: "2026-08-03T11:00:00.000000Z", User: "pt001", Operation: audit.OpFileEncrypted},
		{Timestamp: "2026-08-04T12:00:00.000000Z", User: "dr001", Operation: audit.OpKeyRotated, KeyID: "key-002"},
		{Timestamp: "2026-08-05T13:00:00.000000Z", User: "pt001", Operation: audit.OpDecryptionFailed, Result: audit.ResultFailed},
	}
	for _, e := range entries {
		audit.Log(e)
	}
}

func TestLog_NoAuditLogYet(t *testing.T) {
	setupEnv(t)
	setIdentity(t, "DR001", configs.RoleClinician)

	if _, err := Log(context.Background(), LogOptions{}); !errors.Is(err, merrors.ErrNoFilesFound) {
		t.Errorf("Expected ErrNoFilesFound for a missing log, got %v", err)
	}
}

func TestLog_AllEntries(t *testing.T) {
	setupEnv(t)
	seedAuditLog(t)

	result, err := Log(context.Background(), LogOptions{})
	if err != nil {
		t.Fatalf("Log failed: %v", err)
	}
	if result.TotalEntriesBeforeFilter != 5 {
		t.Errorf("Expected 5 entries total, got %d", result.TotalEntriesBeforeFilter)
	}
	if len(result.Entries) != 5 {
		t.Errorf("Expected 5 entries, got %d", len(result.Entries))
	}
}

func TestLog_FilterByUser(t *testing.T) {
	setupEnv(t)
	seedAuditLog(t)

	result, err := Log(context.Background(), LogOptions{User: "PT001"})
	if err != nil {
		t.Fatalf("Log failed: %v", err)
	}
	if len(result.Entries) != 3 {
		t.Fatalf("Expected 3 entries for pt001, got %d", len(result.Entries))
	}
	for _, e := range result.Entries {
		if e.User != "pt001" {
			t.Errorf("Unexpected user %q in filtered entries", e.User)
		}
	}
}

func TestLog_FilterByOperations(t *testing.T) {
	setupEnv(t)
	seedAuditLog(t)

	result, err := Log(context.Background(), LogOptions{
		Operations: audit.OpKeyGenerated + ", " + audit.OpKeyRotated,
	})
	if err != nil {
		t.Fatalf("Log failed: %v", err)
	}
	if len(result.Entries) != 2 {
		t.Errorf("Expected 2 lifecycle entries, got %d", len(result.Entries))
	}
}

func TestLog_DateRange(t *testing.T) {
	setupEnv(t)
	seedAuditLog(t)

	result, err := Log(context.Background(), LogOptions{Since: "2026-08-02", Until: "2026-08-04"})
	if err != nil {
		t.Fatalf("Log failed: %v", err)
	}
	if len(result.Entries) != 3 {
		t.Errorf("Expected 3 entries in range, got %d", len(result.Entries))
	}

	if _, err := Log(context.Background(), LogOptions{Since: "not-a-date"}); !errors.Is(err, merrors.ErrInvalidDateFormat) {
		t.Errorf("Expected ErrInvalidDateFormat, got %v", err)
	}
}

func TestLog_ReverseAndLimit(t *testing.T) {
	setupEnv(t)
	seedAuditLog(t)

	result, err := Log(context.Background(), LogOptions{Reverse: true, Limit: 2})
	if err != nil {
		t.Fatalf("Log failed: %v", err)
	}
	if len(result.Entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(result.Entries))
	}
	if result.Entries[0].Operation != audit.OpDecryptionFailed {
		t.Errorf("Expected the newest entry first, got %s", result.Entries[0].Operation)
	}

	// Without Reverse the limit keeps the tail, so the newest entries win
	// either way.
	result, err = Log(context.Background(), LogOptions{Limit: 2})
	if err != nil {
		t.Fatalf("Log failed: %v", err)
	}
	if len(result.Entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(result.Entries))
	}
	if result.Entries[1].Operation != audit.OpDecryptionFailed {
		t.Errorf("Expected the newest entry last, got %s", result.Entries[1].Operation)
	}
}
