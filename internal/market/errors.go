// Package market holds the error kinds shared by the flea market engines.
package market

import (
	"errors"
	"fmt"

	"fleamarket.gg/internal/protocol"
)

var (
	ErrValidation = errors.New("validation")
	ErrNotFound   = errors.New("not found")
	ErrPayment    = errors.New("payment failure")
	ErrInternal   = errors.New("internal inconsistency")
)

// Error is a user-visible market failure. Kind is one of the sentinels above.
type Error struct {
	Kind error
	Code string
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Kind }

func Validation(format string, args ...any) *Error {
	return &Error{Kind: ErrValidation, Code: protocol.ErrBadRequest, Msg: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) *Error {
	return &Error{Kind: ErrNotFound, Code: protocol.ErrInvalidTarget, Msg: fmt.Sprintf(format, args...)}
}

func Payment(format string, args ...any) *Error {
	return &Error{Kind: ErrPayment, Code: protocol.ErrNoResource, Msg: fmt.Sprintf(format, args...)}
}

func Internal(format string, args ...any) *Error {
	return &Error{Kind: ErrInternal, Code: protocol.ErrInternal, Msg: fmt.Sprintf(format, args...)}
}

// CodeOf maps any error to a protocol code.
func CodeOf(err error) string {
	if err == nil {
		return ""
	}
	var me *Error
	if errors.As(err, &me) && me.Code != "" {
		return me.Code
	}
	switch {
	case errors.Is(err, ErrValidation):
		return protocol.ErrBadRequest
	case errors.Is(err, ErrNotFound):
		return protocol.ErrInvalidTarget
	case errors.Is(err, ErrPayment):
		return protocol.ErrNoResource
	default:
		return protocol.ErrInternal
	}
}

// MessageOf returns the user-facing part of err.
func MessageOf(err error) string {
	var me *Error
	if errors.As(err, &me) {
		return me.Msg
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
