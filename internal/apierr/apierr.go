package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

func Validation(format string, args ...any) *Error {
	return New(http.StatusBadRequest, "validation_error", fmt.Errorf(format, args...))
}

// QuotaExceededError carries the metadata the boundary needs to render a
// 429 with a reset hint. Limit is the finite tier ceiling.
type QuotaExceededError struct {
	Limit      int
	CountToday int
	ResetHint  string
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("daily conversation limit (%d) reached", e.Limit)
}

func QuotaExceeded(limit, countToday int) *QuotaExceededError {
	return &QuotaExceededError{
		Limit:      limit,
		CountToday: countToday,
		ResetHint:  "midnight UTC",
	}
}

func AsQuotaExceeded(err error) (*QuotaExceededError, bool) {
	var qe *QuotaExceededError
	if errors.As(err, &qe) {
		return qe, true
	}
	return nil, false
}

func AsAPIError(err error) (*Error, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}
