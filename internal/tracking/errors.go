// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package tracking

import "errors"

// ErrNoActiveRun reports a logging operation issued without an open run.
var ErrNoActiveRun = errors.New("no active run")

// Error wraps every failure returned by a tracking backend implementation.
type Error struct {
	err error
}

// NewError wraps err into a tracking Error.
func NewError(err error) *Error {
	return &Error{err: err}
}

func (e *Error) Error() string {
	return "tracking: " + e.err.Error()
}

func (e *Error) Unwrap() error {
	return e.err
}

func (e *Error) Is(target error) bool {
	te, ok := target.(*Error)
	if !ok {
		return false
	}

	return e.err.Error() == te.err.Error()
}
