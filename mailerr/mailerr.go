// mailerr defines the kinds of error returned across one-mail. Every error
// the library returns wraps exactly one of these, so callers can branch on
// the kind with errors.Is without parsing messages.
package mailerr

import "errors"

var (
	// ErrInvalidArgument means a constructor or setter received a missing
	// or malformed value. The receiver is left unchanged.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidAddress means a string could not be parsed as a single
	// mailbox address.
	ErrInvalidAddress = errors.New("invalid address")

	// ErrIllegalState means the receiver's current state forbids the
	// operation, e.g. setting a builder field twice.
	ErrIllegalState = errors.New("illegal state")

	// ErrUnsupported means the operation is never allowed on the value it
	// was attempted on, e.g. writing to a read-only address.
	ErrUnsupported = errors.New("unsupported operation")

	// ErrTransport means the mail transport could not deliver a message.
	// The transport's own error is wrapped alongside it.
	ErrTransport = errors.New("transport failure")
)
