package response

import (
	"errors"
)

// Error carries the HTTP status a handler should answer with.
type Error struct {
	Code int
	Err  error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code && e.Err.Error() == t.Err.Error()
}

func NewError(code int, err string) error {
	return &Error{code, errors.New(err)}
}

// Wrap attaches cause to a response error while keeping its status and
// message, so errors.Is still matches the original sentinel.
func Wrap(sentinel error, cause error) error {
	var e *Error
	if !errors.As(sentinel, &e) || cause == nil {
		return sentinel
	}
	return &wrapped{resp: e, cause: cause}
}

type wrapped struct {
	resp  *Error
	cause error
}

func (w *wrapped) Error() string {
	return w.resp.Error()
}

func (w *wrapped) Unwrap() []error {
	return []error{w.resp, w.cause}
}
