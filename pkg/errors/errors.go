// Package errors provides the structured error type shared by every layer of
// molexplorer. Resolver failures, adapter failures and configuration problems
// all travel as *AppError so the HTTP and CLI surfaces can branch on the code
// while showing the human-readable message untouched.
package errors

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// stackDepth is the maximum number of frames captured per error.
const stackDepth = 32

// captureStack returns a formatted call stack starting two frames above the
// caller (captureStack itself and the constructor are skipped).
func captureStack(skip int) string {
	pcs := make([]uintptr, stackDepth)
	n := runtime.Callers(skip+2, pcs)
	if n == 0 {
		return ""
	}
	frames := runtime.CallersFrames(pcs[:n])
	var sb strings.Builder
	for {
		f, more := frames.Next()
		if !strings.Contains(f.File, "runtime/") {
			fmt.Fprintf(&sb, "\n\t%s:%d %s", f.File, f.Line, f.Function)
		}
		if !more {
			break
		}
	}
	return sb.String()
}

// ─────────────────────────────────────────────────────────────────────────────
// AppError
// ─────────────────────────────────────────────────────────────────────────────

// AppError carries a machine-readable Code next to a Message that is safe to
// show to a user. Detail holds diagnostic context that should only be logged.
// Cause is the wrapped lower-level error, reachable through errors.Is/As.
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Detail  string    `json:"detail,omitempty"`
	Cause   error     `json:"-"`
	Stack   string    `json:"-"`
}

// Error renders "[CODE] message", followed by ": cause" when a cause exists.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap exposes the cause to errors.Is / errors.As.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithDetail returns a shallow copy carrying the diagnostic detail.
func (e *AppError) WithDetail(detail string) *AppError {
	clone := *e
	clone.Detail = detail
	return &clone
}

// WithCause returns a shallow copy wrapping err.
func (e *AppError) WithCause(err error) *AppError {
	clone := *e
	clone.Cause = err
	return &clone
}

// Kind returns the taxonomy name of the error code, e.g. "NotFound".
func (e *AppError) Kind() string {
	return KindForCode(e.Code)
}

// ─────────────────────────────────────────────────────────────────────────────
// Constructors
// ─────────────────────────────────────────────────────────────────────────────

// New creates an AppError. An empty message falls back to the code's default.
func New(code ErrorCode, message string) *AppError {
	if message == "" {
		message = DefaultMessageForCode(code)
	}
	return &AppError{
		Code:    code,
		Message: message,
		Stack:   captureStack(1),
	}
}

// Newf is New with a formatted message.
func Newf(code ErrorCode, format string, args ...interface{}) *AppError {
	return &AppError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Stack:   captureStack(1),
	}
}

// Wrap attaches a code and message to err. It returns nil for a nil err so
// call sites can wrap unconditionally. When err already is an AppError and
// code is ErrCodeUnknown, the inner code is kept.
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	if code == ErrCodeUnknown {
		var inner *AppError
		if errors.As(err, &inner) {
			code = inner.Code
		} else {
			code = ErrCodeInternal
		}
	}
	if message == "" {
		message = DefaultMessageForCode(code)
	}
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   err,
		Stack:   captureStack(1),
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Inspection
// ─────────────────────────────────────────────────────────────────────────────

// IsCode reports whether any AppError in err's chain carries code.
func IsCode(err error, code ErrorCode) bool {
	for err != nil {
		var app *AppError
		if !errors.As(err, &app) {
			return false
		}
		if app.Code == code {
			return true
		}
		err = app.Cause
	}
	return false
}

// GetCode returns the outermost AppError code, ErrCodeUnknown for foreign
// errors and "" for nil.
func GetCode(err error) ErrorCode {
	if err == nil {
		return ""
	}
	var app *AppError
	if errors.As(err, &app) {
		return app.Code
	}
	return ErrCodeUnknown
}

// Kind returns the taxonomy name of err's outermost code, or "" for nil.
func Kind(err error) string {
	if err == nil {
		return ""
	}
	return KindForCode(GetCode(err))
}

// Message returns the user-facing message of err. Foreign errors fall back to
// err.Error().
func Message(err error) string {
	if err == nil {
		return ""
	}
	var app *AppError
	if errors.As(err, &app) {
		return app.Message
	}
	return err.Error()
}

// IsNotFound reports whether err is a compound or generic not-found error.
func IsNotFound(err error) bool {
	return IsCode(err, ErrCodeCompoundNotFound) || IsCode(err, ErrCodeNotFound)
}

// IsTimeout reports whether err carries ErrCodeTimeout.
func IsTimeout(err error) bool {
	return IsCode(err, ErrCodeTimeout)
}

// Is and As re-export the standard helpers so callers need a single import.
func Is(err, target error) bool { return errors.Is(err, target) }

func As(err error, target interface{}) bool { return errors.As(err, target) }

// ─────────────────────────────────────────────────────────────────────────────
// Factories for the compound loading taxonomy
// ─────────────────────────────────────────────────────────────────────────────

func NotFound(message string) *AppError {
	e := New(ErrCodeCompoundNotFound, message)
	e.Stack = captureStack(1)
	return e
}

func PropertiesUnavailable(message string) *AppError {
	e := New(ErrCodePropertiesUnavailable, message)
	e.Stack = captureStack(1)
	return e
}

func NoStructure(message string) *AppError {
	e := New(ErrCodeNoStructure, message)
	e.Stack = captureStack(1)
	return e
}

func Timeout(message string) *AppError {
	e := New(ErrCodeTimeout, message)
	e.Stack = captureStack(1)
	return e
}

func NetworkError(message string) *AppError {
	e := New(ErrCodeNetwork, message)
	e.Stack = captureStack(1)
	return e
}

func RenderError(message string) *AppError {
	e := New(ErrCodeRender, message)
	e.Stack = captureStack(1)
	return e
}

func InvalidParam(message string) *AppError {
	e := New(ErrCodeBadRequest, message)
	e.Stack = captureStack(1)
	return e
}

func Internal(message string) *AppError {
	e := New(ErrCodeInternal, message)
	e.Stack = captureStack(1)
	return e
}
