package errors

import (
	"errors"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeInvalidVersion, "empty version for %s", "left-pad")

	if err.Code != ErrCodeInvalidVersion {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeInvalidVersion)
	}

	if err.Message != "empty version for left-pad" {
		t.Errorf("Message = %v, want %v", err.Message, "empty version for left-pad")
	}

	expected := "INVALID_VERSION: empty version for left-pad"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(ErrCodeRegistry, cause, "fetch left-pad")

	if err.Code != ErrCodeRegistry {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeRegistry)
	}

	if err.Cause != cause {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}

	unwrapped := errors.Unwrap(err)
	if unwrapped != cause {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, cause)
	}

	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}

	expected := "REGISTRY_ERROR: fetch left-pad: connection reset"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     Code
		expected bool
	}{
		{
			name:     "matching code",
			err:      New(ErrCodeInvalidVersion, "test"),
			code:     ErrCodeInvalidVersion,
			expected: true,
		},
		{
			name:     "non-matching code",
			err:      New(ErrCodeInvalidVersion, "test"),
			code:     ErrCodeRegistry,
			expected: false,
		},
		{
			name:     "outer code of nested error",
			err:      Wrap(ErrCodeFetchFailed, New(ErrCodeRegistry, "inner"), "outer"),
			code:     ErrCodeFetchFailed,
			expected: true,
		},
		{
			name:     "inner code of nested error",
			err:      Wrap(ErrCodeFetchFailed, New(ErrCodeRegistry, "inner"), "outer"),
			code:     ErrCodeRegistry,
			expected: true,
		},
		{
			name:     "code behind fmt wrapping",
			err:      fmtWrap(New(ErrCodeMalformedManifest, "bad")),
			code:     ErrCodeMalformedManifest,
			expected: true,
		},
		{
			name:     "non-Error type",
			err:      errors.New("plain error"),
			code:     ErrCodeInvalidVersion,
			expected: false,
		},
		{
			name:     "nil error",
			err:      nil,
			code:     ErrCodeInvalidVersion,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.expected {
				t.Errorf("Is() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestGetCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected Code
	}{
		{
			name:     "Error type",
			err:      New(ErrCodeMalformedManifest, "test"),
			expected: ErrCodeMalformedManifest,
		},
		{
			name:     "nested returns outermost",
			err:      Wrap(ErrCodeFetchFailed, New(ErrCodeRegistry, "inner"), "outer"),
			expected: ErrCodeFetchFailed,
		},
		{
			name:     "plain error",
			err:      errors.New("plain"),
			expected: "",
		},
		{
			name:     "nil",
			err:      nil,
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.expected {
				t.Errorf("GetCode() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "Error type",
			err:      New(ErrCodeInvalidConfig, "concurrency must be positive"),
			expected: "concurrency must be positive",
		},
		{
			name:     "plain error",
			err:      errors.New("plain error"),
			expected: "plain error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.expected {
				t.Errorf("UserMessage() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestErrorCodesAreUnique(t *testing.T) {
	codes := []Code{
		ErrCodeInvalidInput,
		ErrCodeInvalidVersion,
		ErrCodeInvalidPackage,
		ErrCodeInvalidConfig,
		ErrCodeInvalidPath,
		ErrCodeMalformedManifest,
		ErrCodeRegistry,
		ErrCodeFetchFailed,
		ErrCodeNotFound,
		ErrCodeInternal,
		ErrCodeUnsupported,
	}

	seen := make(map[Code]bool)
	for _, code := range codes {
		if seen[code] {
			t.Errorf("Duplicate error code: %s", code)
		}
		seen[code] = true
	}
}

type wrapped struct{ err error }

func (w wrapped) Error() string { return "context: " + w.err.Error() }
func (w wrapped) Unwrap() error { return w.err }

func fmtWrap(err error) error { return wrapped{err} }
