package usecase

import (
	"errors"
	"fmt"

	"tbank-bot/internal/integrations/tbank"
	"tbank-bot/internal/session"
)

type ErrorCode string

const (
	ErrorSessionExpired  ErrorCode = "SESSION_EXPIRED"
	ErrorInvalidInput    ErrorCode = "INVALID_INPUT"
	ErrorGatewayNetwork  ErrorCode = "GATEWAY_NETWORK"
	ErrorGatewayDecode   ErrorCode = "GATEWAY_DECODE"
	ErrorGatewayBusiness ErrorCode = "GATEWAY_BUSINESS"
	ErrorInternal        ErrorCode = "INTERNAL_ERROR"
)

// Error is the controller's failure taxonomy. Every code is recoverable:
// the conversation resyncs to its home screen and nothing is fatal to the
// process. The codes differ only in what gets logged.
type Error struct {
	Code   ErrorCode
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("usecase: %s (%s)", e.Code, e.Reason)
	}
	return fmt.Sprintf("usecase: %s (%s): %v", e.Code, e.Reason, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func newError(code ErrorCode, reason string, err error) *Error {
	return &Error{Code: code, Reason: reason, Err: err}
}

// categorize maps lower-layer failures onto the taxonomy. An error that is
// already an *Error passes through unchanged.
func categorize(reason string, err error) *Error {
	var usecaseErr *Error
	if errors.As(err, &usecaseErr) {
		return usecaseErr
	}
	if errors.Is(err, session.ErrNotFound) {
		return newError(ErrorSessionExpired, reason, err)
	}
	if errors.Is(err, tbank.ErrBusinessFailure) {
		return newError(ErrorGatewayBusiness, reason, err)
	}
	var decodeErr *tbank.DecodeError
	if errors.As(err, &decodeErr) {
		return newError(ErrorGatewayDecode, reason, err)
	}
	var statusErr *tbank.HTTPStatusError
	if errors.As(err, &statusErr) {
		return newError(ErrorGatewayNetwork, reason, err)
	}
	return newError(ErrorGatewayNetwork, reason, err)
}
