package tree

import (
	"errors"
	"fmt"
)

// Kind sentinels. Match with errors.Is.
var (
	ErrBadInput = errors.New("bad input")
	ErrConflict = errors.New("conflict")
	ErrNotFound = errors.New("not found")
	ErrUpstream = errors.New("upstream failure")
)

// Error carries a kind, a message safe to show to the tenant, and the
// underlying cause if any.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

// PublicMessage returns the tenant facing message of err. Upstream failures
// never expose their cause.
func PublicMessage(err error) string {
	var treeErr *Error
	if errors.As(err, &treeErr) {
		return treeErr.Message
	}
	return "internal server error"
}

func badInput(format string, args ...interface{}) error {
	return &Error{Kind: ErrBadInput, Message: fmt.Sprintf(format, args...)}
}

func conflict(format string, args ...interface{}) error {
	return &Error{Kind: ErrConflict, Message: fmt.Sprintf(format, args...)}
}

func notFound(what string) error {
	return &Error{Kind: ErrNotFound, Message: what + " not found"}
}

func upstream(op string, err error) error {
	return &Error{Kind: ErrUpstream, Message: "failed to " + op, Err: err}
}

// wrapUpstream passes tree errors through untouched and classifies anything
// else as an upstream failure.
func wrapUpstream(op string, err error) error {
	var treeErr *Error
	if errors.As(err, &treeErr) {
		return err
	}
	return upstream(op, err)
}
