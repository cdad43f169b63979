package errors

import (
	"errors"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		expected string
	}{
		{
			name:     "without cause",
			err:      New(CodeNotFound, "scenario not found"),
			expected: "[NOT_FOUND] scenario not found",
		},
		{
			name:     "with cause",
			err:      Wrap(errors.New("eof"), CodeStorageError, "failed to read config"),
			expected: "[STORAGE_ERROR] failed to read config: eof",
		},
		{
			name:     "formatted message",
			err:      Newf(CodeInvalidParam, "invalid history size: %d", -1),
			expected: "[INVALID_PARAM] invalid history size: -1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestError_Is(t *testing.T) {
	err1 := New(CodeInvalidParam, "bad service")
	err2 := New(CodeInvalidParam, "bad outcome")
	err3 := New(CodeConfigError, "bad config")

	// 相同错误码应该匹配
	if !errors.Is(err1, err2) {
		t.Error("errors with same code should match")
	}

	// 不同错误码不应该匹配
	if errors.Is(err1, err3) {
		t.Error("errors with different code should not match")
	}

	// 使用哨兵错误
	if !errors.Is(err1, ErrInvalidParam) {
		t.Error("should match sentinel error with same code")
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("original error")
	wrapped := Wrap(cause, CodeInternal, "wrapped")

	if errors.Unwrap(wrapped) != cause {
		t.Error("Unwrap should return the cause")
	}
}

func TestError_WithDetail(t *testing.T) {
	err := New(CodeValidationError, "invalid log level").
		WithDetail("field", "log.level").
		WithDetail("value", "loud")

	if err.Detail("field") != "log.level" {
		t.Error("detail 'field' should be 'log.level'")
	}
	if err.Detail("value") != "loud" {
		t.Error("detail 'value' should be 'loud'")
	}
	if New(CodeInternal, "x").Detail("missing") != "" {
		t.Error("missing detail should be empty")
	}
}

func TestGetCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected ErrorCode
	}{
		{
			name:     "custom error",
			err:      New(CodeNotFound, "not found"),
			expected: CodeNotFound,
		},
		{
			name:     "wrapped error",
			err:      Wrap(errors.New("io"), CodeStorageError, "storage"),
			expected: CodeStorageError,
		},
		{
			name:     "standard error",
			err:      errors.New("standard"),
			expected: CodeInternal,
		},
		{
			name:     "nil error",
			err:      nil,
			expected: CodeInternal,
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

func TestIsCode(t *testing.T) {
	err := Wrapf(New(CodeNotFound, "not found"), CodeConfigError, "load %s", "a.yaml")

	if !IsCode(err, CodeConfigError) {
		t.Error("IsCode should return true for matching code")
	}

	if IsCode(err, CodeHandshakeFailed) {
		t.Error("IsCode should return false for non-matching code")
	}

	if IsCode(nil, CodeInternal) {
		t.Error("IsCode should return false for nil")
	}
}
