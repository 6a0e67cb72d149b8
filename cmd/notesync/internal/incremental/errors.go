package incremental

import (
	"errors"
	"fmt"
)

// Code classifies failures raised by the sync engine.
type Code string

const (
	CodeNotFound       Code = "NOT_FOUND"
	CodeInvalidInput   Code = "INVALID_INPUT"
	CodeUnclassifiable Code = "UNCLASSIFIABLE"
	CodeIO             Code = "IO_ERROR"
	CodeSerialization  Code = "SERIALIZATION_ERROR"
	CodeRenderFailed   Code = "RENDER_FAILED"
)

// Error is the error type returned by the engine. Op names the failed
// operation and Path the filesystem path it was working on.
type Error struct {
	Code Code
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("failed to %s", e.Op)
	if e.Path != "" {
		msg += " " + e.Path
	}
	msg += " (" + string(e.Code) + ")"
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(code Code, op, path string, err error) *Error {
	return &Error{Code: code, Op: op, Path: path, Err: err}
}

// CodeOf returns the Code carried by err, or "" when err was not produced
// by this package.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}
