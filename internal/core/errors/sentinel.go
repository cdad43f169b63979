package errors

// 预定义哨兵错误（用于 errors.Is 比较）
var (
	ErrInvalidParam    = New(CodeInvalidParam, "invalid parameter")
	ErrMissingParam    = New(CodeMissingParam, "missing required parameter")
	ErrValidationError = New(CodeValidationError, "validation error")
	ErrConfigError     = New(CodeConfigError, "configuration error")
	ErrNotFound        = New(CodeNotFound, "resource not found")

	ErrInternal      = New(CodeInternal, "internal error")
	ErrNotConfigured = New(CodeNotConfigured, "not configured")
	ErrServiceClosed = New(CodeServiceClosed, "service closed")

	ErrConnectionError = New(CodeConnectionError, "connection error")
	ErrHandshakeFailed = New(CodeHandshakeFailed, "handshake failed")
	ErrInvalidData     = New(CodeInvalidData, "invalid data")
)
