package core

import (
	"errors"
	"fmt"
	"runtime"
)

// InvalidKeyError reports a malformed action key string at decode time. It is
// always a local, synchronous failure and is never retried.
type InvalidKeyError struct {
	Key    string // The offending key string
	Reason string // Why decoding failed
}

func (e *InvalidKeyError) Error() string {
	return fmt.Sprintf("invalid action key %q: %s", e.Key, e.Reason)
}

// NotFoundError reports a registry lookup miss that no resolver satisfied.
// It is surfaced to the caller as-is since no action body ever ran.
type NotFoundError struct {
	Kind ActionKind
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("action not found: %s", NewKey(e.Kind, e.Name))
}

// InvalidArgumentError reports caller-supplied input or configuration that
// failed a pre-invocation shape check. It is raised before the wrapped
// function runs and is never wrapped as an execution error.
type InvalidArgumentError struct {
	Action string // Name of the action (or operation) rejecting the argument
	Reason string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("invalid argument for %s: %s", e.Action, e.Reason)
}

// ExecutionError is the uniform error envelope wrapping any failure that
// escapes an action body. It carries the original cause (inspectable via
// errors.Unwrap / errors.As), a stack capture taken at the wrap site, and the
// trace identifier of the invocation's span.
//
// Wrapping happens exactly once, at the innermost action boundary; outer
// boundaries propagate an existing ExecutionError untouched.
type ExecutionError struct {
	ActionName string
	TraceID    string
	Stack      string
	cause      error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("Error while running action %s: %v", e.ActionName, e.cause)
}

// Unwrap exposes the original failure for errors.Is / errors.As inspection.
func (e *ExecutionError) Unwrap() error { return e.cause }

// Cause returns the original failure raised inside the action body.
func (e *ExecutionError) Cause() error { return e.cause }

// wrapExecutionError wraps err into an *ExecutionError unless it already is
// one (or carries one in its chain), enforcing the wrap-once contract across
// nested action boundaries.
func wrapExecutionError(name, traceID string, err error) error {
	var ee *ExecutionError
	if errors.As(err, &ee) {
		return err
	}

	buf := make([]byte, 4096)
	n := runtime.Stack(buf, false)

	return &ExecutionError{
		ActionName: name,
		TraceID:    traceID,
		Stack:      string(buf[:n]),
		cause:      err,
	}
}
