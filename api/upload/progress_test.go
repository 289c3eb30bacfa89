package upload

import "testing"

func TestMemoryJobStoreUnknownJobReadsAsStarting(t *testing.T) {
	store := NewMemoryJobStore()
	st := store.Get("never-seen")
	if st.Status != "processing" || st.Progress != 0 {
		t.Fatalf("expected processing/0 for unknown job, got %+v", st)
	}
	if st.Error != "" || st.ErrorSeverity != "" {
		t.Fatalf("expected no error fields for unknown job, got %+v", st)
	}
}

func TestMemoryJobStoreSetAndGet(t *testing.T) {
	store := NewMemoryJobStore()
	store.Set("job-1", 42, "processing", "", "")
	st := store.Get("job-1")
	if st.Progress != 42 || st.Status != "processing" {
		t.Fatalf("unexpected snapshot: %+v", st)
	}

	store.Set("job-1", 100, "done", "", "")
	if st := store.Get("job-1"); st.Progress != 100 || st.Status != "done" {
		t.Fatalf("unexpected snapshot after completion: %+v", st)
	}
}

func TestMemoryJobStoreClampsProgress(t *testing.T) {
	store := NewMemoryJobStore()
	store.Set("job-1", 150, "processing", "", "")
	if st := store.Get("job-1"); st.Progress != 100 {
		t.Fatalf("expected progress clamped to 100, got %d", st.Progress)
	}
	store.Set("job-1", -5, "processing", "", "")
	if st := store.Get("job-1"); st.Progress != 0 {
		t.Fatalf("expected progress clamped to 0, got %d", st.Progress)
	}
}

func TestMarkErrorResetsProgress(t *testing.T) {
	store := NewMemoryJobStore()
	store.Set("job-1", 75, "processing", "", "")

	markError(store, "job-1", Critical("bad workbook", "missing sheet", nil))

	st := store.Get("job-1")
	if st.Status != "error" || st.Progress != 0 {
		t.Fatalf("expected error/0 after markError, got %+v", st)
	}
	if st.Error != "bad workbook" || st.ErrorSeverity != "critical" {
		t.Fatalf("expected error message and severity, got %+v", st)
	}
}

func TestJobsAreIsolatedByID(t *testing.T) {
	store := NewMemoryJobStore()
	store.Set("job-a", 30, "processing", "", "")
	store.Set("job-b", 90, "processing", "", "")
	if store.Get("job-a").Progress != 30 || store.Get("job-b").Progress != 90 {
		t.Fatal("job snapshots bled across job ids")
	}
}
