package response

import (
	"errors"
	"fmt"
)

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

// Is matches on code and the sentinel message, so a detailed error built
// with Wrap still satisfies errors.Is against its sentinel.
func (e *Error) Is(target error) bool {
	var t *Error
	ok := errors.As(target, &t)
	if !ok {
		return false
	}
	if e.Code != t.Code {
		return false
	}
	return e.Err.Error() == t.Err.Error() || errors.Is(e.Err, t.Err)
}

func NewError(code int, err string) error {
	return &Error{code, errors.New(err)}
}

// Wrap returns an error carrying sentinel's code whose message is
// "<sentinel>: <detail>".
func Wrap(sentinel error, detail string) error {
	var s *Error
	if !errors.As(sentinel, &s) {
		return fmt.Errorf("%w: %s", sentinel, detail)
	}
	return &Error{
		Code: s.Code,
		Err:  fmt.Errorf("%w: %s", s.Err, detail),
	}
}
