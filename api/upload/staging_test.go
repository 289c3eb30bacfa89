package upload

import (
	"strings"
	"testing"
	"time"
)

func TestStagingTableNameIsJobScoped(t *testing.T) {
	now := time.Unix(1756700000, 0)
	a := StagingTableName("Job-123", now)
	b := StagingTableName("Job-456", now)
	if a == b {
		t.Fatalf("different jobs produced the same staging table name %q", a)
	}
	if !strings.HasPrefix(a, "staging_upload_job123_") {
		t.Fatalf("unexpected staging table name %q", a)
	}
	if !IsStagingTableName(a) {
		t.Fatalf("generated name %q failed its own validation", a)
	}
}

func TestStagingTableNameSanitizesJobID(t *testing.T) {
	name := StagingTableName(`weird"; DROP TABLE preview; --`, time.Unix(1756700000, 0))
	if !IsStagingTableName(name) {
		t.Fatalf("sanitized name %q failed validation", name)
	}
	if strings.ContainsAny(name, `"; -`) {
		t.Fatalf("expected hostile characters stripped, got %q", name)
	}
}

func TestStagingTableNameHandlesEmptyJobID(t *testing.T) {
	name := StagingTableName("!!!", time.Unix(1756700000, 0))
	if !IsStagingTableName(name) {
		t.Fatalf("fallback name %q failed validation", name)
	}
}

func TestIsStagingTableNameRejectsForeignTables(t *testing.T) {
	for _, name := range []string{
		"preview",
		"users",
		"staging_upload_",
		"staging_upload_abc",
		`staging_upload_abc_123"; DROP TABLE preview`,
		"staging_upload_ABC_123",
	} {
		if IsStagingTableName(name) {
			t.Fatalf("expected %q to be rejected", name)
		}
	}
}

func TestStagingTableCreatedAtRoundTrip(t *testing.T) {
	now := time.Unix(1756700000, 0)
	name := StagingTableName("job-9", now)
	created, ok := StagingTableCreatedAt(name)
	if !ok {
		t.Fatalf("failed to recover timestamp from %q", name)
	}
	if !created.Equal(now) {
		t.Fatalf("expected %v, got %v", now, created)
	}
}

func TestStagingProgressStaysInBand(t *testing.T) {
	if p := stagingProgress(0, 1000); p != 20 {
		t.Fatalf("expected staging to start at 20, got %d", p)
	}
	if p := stagingProgress(1000, 1000); p != 90 {
		t.Fatalf("expected staging to end at 90, got %d", p)
	}
	if p := stagingProgress(500, 1000); p != 55 {
		t.Fatalf("expected midpoint 55, got %d", p)
	}

	prev := 0
	for done := 0; done <= 1000; done += 100 {
		p := stagingProgress(done, 1000)
		if p < prev {
			t.Fatalf("progress regressed from %d to %d at done=%d", prev, p, done)
		}
		prev = p
	}
}
