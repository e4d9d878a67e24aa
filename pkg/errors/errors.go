// Package errors contains the error helpers used throughout artsync. Errors
// are wrapped with short context strings as they bubble up, and the root cause
// can always be recovered for type switches.
package errors

import (
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

// New returns an error with the given message.
func New(msg string) error {
	return pkgerrors.New(msg)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return pkgerrors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return pkgerrors.As(err, target)
}

// contextError prefixes an error with a description of what was being
// attempted when it occurred.
type contextError struct {
	context string
	err     error
}

func (err contextError) Error() string {
	return fmt.Sprintf("%s: %s", err.context, err.err)
}

func (err contextError) Cause() error {
	return err.err
}

func (err contextError) Unwrap() error {
	return err.err
}

// WithContext wraps `err` with `context`. Nil errors stay nil.
func WithContext(err error, context string) error {
	if err == nil {
		return nil
	}
	return contextError{context: context, err: err}
}

// RootCause returns the innermost error that was wrapped by WithContext.
func RootCause(err error) error {
	return pkgerrors.Cause(err)
}

// FriendlyError is an error whose message is meant to be shown to the user
// as is, without any of the context that was added while unwinding.
type FriendlyError struct {
	msg string
}

// NewFriendlyError creates a FriendlyError from a format string.
func NewFriendlyError(format string, args ...interface{}) error {
	return FriendlyError{fmt.Sprintf(format, args...)}
}

func (err FriendlyError) Error() string {
	return err.msg
}

// FriendlyMessage returns the message that should be printed to the user.
func (err FriendlyError) FriendlyMessage() string {
	return err.msg
}

// GetPrintableMessage returns the message that should be displayed for `err`.
// Friendly errors anywhere in the chain take precedence over the full error
// string.
func GetPrintableMessage(err error) string {
	var friendly interface{ FriendlyMessage() string }
	if As(err, &friendly) {
		return friendly.FriendlyMessage()
	}
	return err.Error()
}
