package upload

import (
	"errors"
	"testing"
)

func TestPipelineErrorMessageAndDetails(t *testing.T) {
	perr := Critical("Upload failed", "staging write error", nil)
	if perr.Error() != "Upload failed: staging write error" {
		t.Fatalf("unexpected Error(): %q", perr.Error())
	}

	bare := Critical("Upload failed", "", nil)
	if bare.Error() != "Upload failed" {
		t.Fatalf("unexpected Error() without details: %q", bare.Error())
	}
}

func TestAsPipelineErrorPassesThrough(t *testing.T) {
	perr := Warning("low fill rate", "", nil)
	if got := AsPipelineError(perr); got != perr {
		t.Fatal("expected the same PipelineError back")
	}
}

func TestAsPipelineErrorWrapsPlainErrors(t *testing.T) {
	got := AsPipelineError(errors.New("socket closed"))
	if got.Severity != "critical" {
		t.Fatalf("expected wrapped errors to be critical, got %s", got.Severity)
	}
	if got.Details != "socket closed" {
		t.Fatalf("expected original error preserved in details, got %q", got.Details)
	}
	if AsPipelineError(nil) != nil {
		t.Fatal("expected nil in, nil out")
	}
}

func TestStagingNotFoundErrorIsDistinguishable(t *testing.T) {
	perr := stagingNotFoundError("staging_upload_job1_1756700000")
	if code, _ := perr.Context["code"].(string); code != "staging_not_found" {
		t.Fatalf("expected staging_not_found code, got %v", perr.Context)
	}
}
