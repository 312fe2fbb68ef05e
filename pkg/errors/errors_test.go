package errors

import (
	"errors"
	"testing"
)

func TestWrap(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		msg      string
		expected string
	}{
		{
			name:     "wrap nil error",
			err:      nil,
			msg:      "additional context",
			expected: "",
		},
		{
			name:     "wrap standard error",
			err:      errors.New("original error"),
			msg:      "additional context",
			expected: "additional context: original error",
		},
		{
			name:     "wrap sentinel",
			err:      ErrFetchFailed,
			msg:      "chunk 3",
			expected: "chunk 3: download failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Wrap(tt.err, tt.msg, V("attempt", 1))
			if tt.err == nil {
				if result != nil {
					t.Errorf("Expected nil, got %v", result)
				}
				return
			}
			if result.Error() != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, result.Error())
			}
			if !errors.Is(result, tt.err) {
				t.Errorf("Expected wrapped error to contain original error")
			}
		})
	}
}

func TestWrapf(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		format   string
		args     []any
		expected string
	}{
		{
			name:     "wrapf nil error",
			err:      nil,
			format:   "formatted: %s",
			args:     []any{"test"},
			expected: "",
		},
		{
			name:     "wrapf with multiple args",
			err:      errors.New("original error"),
			format:   "failed to fetch %s in %d attempts",
			args:     []any{"gcc.zip", 3},
			expected: "failed to fetch gcc.zip in 3 attempts: original error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Wrapf(tt.err, tt.format, tt.args...)
			if tt.err == nil {
				if result != nil {
					t.Errorf("Expected nil, got %v", result)
				}
				return
			}
			if result.Error() != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, result.Error())
			}
			if !errors.Is(result, tt.err) {
				t.Errorf("Expected wrapped error to contain original error")
			}
		})
	}
}

func TestClassify(t *testing.T) {
	io := errors.New("connection reset")

	got := Classify(io, ErrFetchFailed)
	if !errors.Is(got, ErrFetchFailed) || !errors.Is(got, io) {
		t.Fatalf("expected both kind and cause in %v", got)
	}

	already := Wrap(ErrMergeFailed, "chunk 2")
	if Classify(already, ErrMergeFailed) != already {
		t.Errorf("expected an already classified error to pass through")
	}

	cancelled := Wrap(ErrCancelled, "worker 0")
	if errors.Is(Classify(cancelled, ErrFetchFailed), ErrFetchFailed) {
		t.Errorf("cancellation must not be reclassified as a fetch failure")
	}

	if Classify(nil, ErrFetchFailed) != nil {
		t.Errorf("expected nil for nil input")
	}
}
