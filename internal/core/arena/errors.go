package arena

import (
	"errors"
	"fmt"
)

// Rejection is an expected, user-recoverable refusal (capacity full,
// wrong phase, missing setup). It carries the single-line message sent
// to the triggering participant; nothing is mutated when one occurs.
type Rejection struct {
	msg string
}

func (r *Rejection) Error() string { return r.msg }

// rejectf builds a Rejection with a formatted message.
func rejectf(format string, args ...any) *Rejection {
	return &Rejection{msg: fmt.Sprintf(format, args...)}
}

// IsRejection reports whether err is a user-facing rejection rather
// than an internal failure.
func IsRejection(err error) bool {
	var r *Rejection
	return errors.As(err, &r)
}
