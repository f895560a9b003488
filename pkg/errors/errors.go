// Package errors defines the module-wide structured error type. The
// connection manager (pkg/mqconn) reports its failures as *AppError values
// carrying a stable machine code; callers branch on Code (or errors.Is/As),
// never on message text.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"sync"
)

// Codes shared across packages. Domain packages layer their own codes on top
// (see pkg/mqconn/errors.go).
const (
	CodeNotFound        = "NOT_FOUND"
	CodeInvalidArgument = "INVALID_ARGUMENT"
	CodeInternal        = "INTERNAL"
	CodeConflict        = "CONFLICT"
)

// AppError is the two-variant result envelope's failure side: a stable code,
// a human-readable message, and the wrapped cause.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates an AppError. err may be nil.
func New(code, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

func NotFound(msg string, err error) *AppError {
	if msg == "" {
		msg = "resource not found"
	}
	return New(CodeNotFound, msg, err)
}

func InvalidArgument(msg string, err error) *AppError {
	if msg == "" {
		msg = "invalid argument"
	}
	return New(CodeInvalidArgument, msg, err)
}

func Internal(msg string, err error) *AppError {
	if msg == "" {
		msg = "internal error"
	}
	return New(CodeInternal, msg, err)
}

func Conflict(msg string, err error) *AppError {
	if msg == "" {
		msg = "conflict"
	}
	return New(CodeConflict, msg, err)
}

var (
	statusMu sync.RWMutex
	statuses = map[string]int{
		CodeNotFound:        http.StatusNotFound,
		CodeInvalidArgument: http.StatusBadRequest,
		CodeConflict:        http.StatusConflict,
		CodeInternal:        http.StatusInternalServerError,
	}
)

// RegisterHTTPStatus maps a domain error code to an HTTP status for surfaces
// that expose AppErrors over HTTP. Later registrations overwrite earlier ones.
func RegisterHTTPStatus(code string, status int) {
	statusMu.Lock()
	defer statusMu.Unlock()
	statuses[code] = status
}

// HTTPStatus returns the HTTP status for err's code, or 500 when err is not
// an AppError or its code is unregistered.
func HTTPStatus(err error) int {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return http.StatusInternalServerError
	}
	statusMu.RLock()
	defer statusMu.RUnlock()
	if s, ok := statuses[appErr.Code]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// Wrap annotates err with msg, preserving the chain for errors.Is/As.
func Wrap(err error, msg string) error {
	return fmt.Errorf("%s: %w", msg, err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain matching target's type.
func As(err error, target any) bool {
	return errors.As(err, target)
}
