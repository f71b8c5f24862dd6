package server

import (
	"errors"
	"fmt"
)

var (
	ErrInternalServerError = errors.New("internal server error")
	ErrNotFound            = errors.New("not found")
	ErrBadParamInput       = errors.New("bad param input")
	ErrUnavailable         = errors.New("service unavailable")
	ErrTimeout             = errors.New("request timeout")
)

// Error is an error of one of the kinds above, with a message safe to show to clients.
type Error struct {
	orig error
	msg  string
	kind error
}

func (e *Error) Error() string {
	if e.orig != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.orig)
	}
	return e.msg
}

func (e *Error) Unwrap() error {
	return e.orig
}

func (e *Error) Kind() error {
	return e.kind
}

func (e *Error) Message() string {
	return e.msg
}

// Is matches the kind as well as the wrapped error.
func (e *Error) Is(target error) bool {
	return e.kind == target
}

func WrapErrorf(orig error, kind error, format string, a ...interface{}) error {
	return &Error{
		orig: orig,
		kind: kind,
		msg:  fmt.Sprintf(format, a...),
	}
}

func NewErrorf(kind error, format string, a ...interface{}) error {
	return WrapErrorf(nil, kind, format, a...)
}
