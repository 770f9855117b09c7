package errors

import (
	"fmt"
	"testing"
	"time"
)

func TestFastPathNoTelemetry(t *testing.T) {
	t.Parallel()

	// Ensure no telemetry reporter is active
	SetTelemetryReporter(nil)

	// Create an error - should use fast path
	err := fmt.Errorf("test error")
	ee := New(err).Build()

	if ee.Err.Error() != "test error" {
		t.Errorf("Expected error message 'test error', got '%s'", ee.Err.Error())
	}

	if ee.GetComponent() != "unknown" {
		t.Errorf("Expected component 'unknown' in fast path, got '%s'", ee.GetComponent())
	}

	if ee.Category != CategoryGeneric {
		t.Errorf("Expected category 'generic' in fast path, got '%s'", ee.Category)
	}
}

func TestBuilderContext(t *testing.T) {
	t.Parallel()

	ee := Newf("resize of frame failed").
		Component("engine").
		Category(CategoryProcessing).
		Context("instance", "resize1").
		FrameContext(42, "16x16x1").
		Build()

	if ee.GetComponent() != "engine" {
		t.Errorf("Expected component 'engine', got '%s'", ee.GetComponent())
	}

	ctx := ee.GetContext()
	if ctx["instance"] != "resize1" {
		t.Errorf("Expected instance context 'resize1', got '%v'", ctx["instance"])
	}
	if ctx["frame_number"] != int64(42) {
		t.Errorf("Expected frame_number 42, got '%v'", ctx["frame_number"])
	}
	if ctx["frame_shape"] != "16x16x1" {
		t.Errorf("Expected frame_shape '16x16x1', got '%v'", ctx["frame_shape"])
	}

	// Context copies must not alias internal state
	ctx["instance"] = "mutated"
	if ee.GetContext()["instance"] != "resize1" {
		t.Error("GetContext must return a copy")
	}
}

func TestIsCategoryMatching(t *testing.T) {
	t.Parallel()

	ee := New(NewStd("queue wiring invalid")).Category(CategoryConfiguration).Build()
	wrapped := fmt.Errorf("build failed: %w", ee)

	if !IsCategory(wrapped, CategoryConfiguration) {
		t.Error("IsCategory should match through wrapping")
	}
	if IsCategory(wrapped, CategoryTimeout) {
		t.Error("IsCategory should not match a different category")
	}
}

func TestDrainTimeoutError(t *testing.T) {
	t.Parallel()

	ee := DrainTimeoutError(5 * time.Second)
	if !IsTimeout(ee) {
		t.Error("DrainTimeoutError should carry CategoryTimeout")
	}
	if ee.GetContext()["timeout_seconds"] != 5.0 {
		t.Errorf("Expected timeout_seconds 5.0, got %v", ee.GetContext()["timeout_seconds"])
	}
}

func TestCategoryDetectionHeuristics(t *testing.T) {
	t.Parallel()

	tests := []struct {
		msg  string
		want ErrorCategory
	}{
		{"operation timeout exceeded", CategoryTimeout},
		{"buffer alloc failed", CategoryResource},
		{"graph contains a cycle", CategoryConfiguration},
		{"shape mismatch between inputs", CategoryValidation},
		{"failed to open description file", CategoryFileIO},
	}

	for _, tt := range tests {
		got := detectCategory(NewStd(tt.msg), "")
		if got != tt.want {
			t.Errorf("detectCategory(%q) = %s, want %s", tt.msg, got, tt.want)
		}
	}
}

func TestJoinPassthrough(t *testing.T) {
	t.Parallel()

	e1 := NewStd("first violation")
	e2 := NewStd("second violation")
	joined := Join(e1, e2)

	if !Is(joined, e1) || !Is(joined, e2) {
		t.Error("joined error should match both members")
	}
}
