package pkg

import (
	"errors"
	"log/slog"
	"strings"
)

// Error is an error value carrying a message, an optional wrapped cause,
// and attributes for structured logging.
// It implements both error and slog.LogValuer.
//
// Errors are usually declared once as sentinels with [NewError] and then
// specialized at the failure site:
//
//	return ErrUnknownVariable.With(slog.String("name", name))
//
// A specialized error still satisfies errors.Is against its sentinel.
type Error struct {
	msg   string
	err   error       // Wrapped error (for errors.Unwrap)
	attrs []slog.Attr // Attributes for structured logging
	root  *Error      // Sentinel this error was derived from
}

// NewError creates a new sentinel Error with a message.
func NewError(msg string) *Error {
	e := &Error{msg: msg}
	e.root = e

	return e
}

// WrapError converts a standard error into an Error.
// Errors that already are (or wrap) an *Error are returned as is.
func WrapError(err error) *Error {
	if err == nil {
		return nil
	}

	var ee *Error
	if errors.As(err, &ee) {
		return ee
	}

	return &Error{err: err}
}

// Error implements the error interface.
func (e *Error) Error() string {
	// Build error message using the first available format,
	// depending on which fields are set:
	//
	//   1. "<msg> (<attrs>): <err>" // base and wrapped error both set
	//   2. "<msg> (<attrs>)"        // wrapped error is nil
	//   3. "<err>"                  // base error message is empty
	//   4. ""                       // no fields are set
	part := make([]string, 0, 2)

	if e.msg != "" {
		part = append(part, e.msg+formatAttrs(e.attrs))
	}

	if e.err != nil {
		part = append(part, e.err.Error())
	}

	return strings.Join(part, ": ")
}

func formatAttrs(attrs []slog.Attr) string {
	if len(attrs) == 0 {
		return ""
	}

	var sb strings.Builder

	sb.WriteString(" (")

	for i, a := range attrs {
		if i > 0 {
			sb.WriteString(", ")
		}

		sb.WriteString(a.Key)
		sb.WriteByte('=')
		sb.WriteString(a.Value.String())
	}

	sb.WriteByte(')')

	return sb.String()
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error { return e.err }

// Is reports whether e was derived from the same sentinel as target.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t == nil {
		return false
	}

	return e.root != nil && e.root == t.root
}

// LogValue implements slog.LogValuer for rich structured logging.
func (e *Error) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(e.attrs)+2)

	if e.msg != "" {
		attrs = append(attrs, slog.String("error", e.msg))
	}

	if e.err != nil {
		attrs = append(attrs, slog.String("cause", e.err.Error()))
	}

	return slog.GroupValue(append(attrs, e.attrs...)...)
}

// Wrap creates a new Error wrapping another error.
func (e *Error) Wrap(err error) *Error {
	return &Error{
		msg:   e.msg,
		err:   err,
		attrs: e.attrs, // Share attrs
		root:  e.root,
	}
}

// With adds attributes to the error for structured logging.
// This creates a new Error instance to maintain immutability.
func (e *Error) With(attrs ...slog.Attr) *Error {
	newAttrs := make([]slog.Attr, len(e.attrs)+len(attrs))
	copy(newAttrs, e.attrs)
	copy(newAttrs[len(e.attrs):], attrs)

	return &Error{
		msg:   e.msg,
		err:   e.err,
		attrs: newAttrs,
		root:  e.root,
	}
}

// Message returns the message of e without attributes or cause.
func (e *Error) Message() string { return e.msg }

// Attr returns the value of the first attribute named key found in the
// error chain of err, outermost first.
func Attr(err error, key string) (slog.Value, bool) {
	for err != nil {
		if e, ok := err.(*Error); ok {
			for _, a := range e.attrs {
				if a.Key == key {
					return a.Value, true
				}
			}
		}

		err = errors.Unwrap(err)
	}

	return slog.Value{}, false
}
