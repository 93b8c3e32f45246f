/*
DESCRIPTION
  errs.go provides the encoder's error taxonomy: a small set of integer
  codes that let a caller distinguish configuration mistakes from transient
  backend stalls from unrecoverable stream-invariant violations, without
  depending on sentinel error values or panics for anything recoverable.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package errs defines the encoder core's error taxonomy (see spec §7):
// Configuration-invalid, NotNegotiated, Backend-transient, Backend-fatal
// and Stream-invariant-violated, each carrying an integer Code so a caller
// can branch on category without string matching.
package errs

import "github.com/pkg/errors"

// Error categories, per spec §7.
const (
	// CodeConfigInvalid indicates the caller asked for a profile/level/
	// chroma/bit-depth combination that no level supports.
	CodeConfigInvalid = 1
	// CodeNotNegotiated indicates the downstream advertised nothing
	// compatible with any supported profile/level.
	CodeNotNegotiated = 2
	// CodeBackendTransient indicates encode_frame or prepare_output
	// returned try-again-later; no data has been lost.
	CodeBackendTransient = 3
	// CodeBackendFatal indicates the backend signalled a hard failure;
	// the offending frame is marked dropped and produces no output. The
	// Encoder keeps accepting pushes afterwards; it has no failed state
	// that requires a stop and restart.
	CodeBackendFatal = 4
	// CodeStreamInvariant indicates an internal invariant was violated
	// (e.g. frame_num overflow); always treated as fatal.
	CodeStreamInvariant = 5
)

// Error is the concrete error type returned by this module. Code is always
// one of the Code* constants above.
type Error struct {
	Code int
	Msg  string
	err  error // wrapped cause, may be nil.
}

func (e *Error) Error() string {
	if e.err != nil {
		return e.Msg + ": " + e.err.Error()
	}
	return e.Msg
}

// Unwrap allows errors.Is/errors.As to see through to the wrapped cause.
func (e *Error) Unwrap() error { return e.err }

// New returns a new Error with the given code and message.
func New(code int, msg string) error {
	return &Error{Code: code, Msg: msg}
}

// Wrap returns a new Error with the given code and message, wrapping cause
// for context. If cause is nil, Wrap behaves like New.
func Wrap(cause error, code int, msg string) error {
	if cause == nil {
		return New(code, msg)
	}
	return &Error{Code: code, Msg: msg, err: errors.WithStack(cause)}
}

// Code returns the Code of err if it is (or wraps) an *Error, or 0 if err
// is nil, or CodeStreamInvariant if err is a non-nil error of another type
// (an unexpected error shape is itself a stream-invariant concern).
func Code(err error) int {
	if err == nil {
		return 0
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeStreamInvariant
}

// Is reports whether err is (or wraps) an *Error with the given code.
func Is(err error, code int) bool {
	return Code(err) == code
}

// ConfigInvalid builds a CodeConfigInvalid error.
func ConfigInvalid(format string, cause error) error {
	return Wrap(cause, CodeConfigInvalid, format)
}

// NotNegotiated builds a CodeNotNegotiated error.
func NotNegotiated(msg string) error {
	return New(CodeNotNegotiated, msg)
}

// BackendFatal builds a CodeBackendFatal error.
func BackendFatal(cause error) error {
	return Wrap(cause, CodeBackendFatal, "backend signalled a fatal error")
}

// StreamInvariant builds a CodeStreamInvariant error, for assertions that
// should never fail on a correctly driven encoder.
func StreamInvariant(msg string) error {
	return New(CodeStreamInvariant, msg)
}
