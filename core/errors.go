package core

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind discriminates the errors returned by this package. Callers switch on
// it (or use errors.Is with the sentinels below) instead of inspecting
// backend error types.
type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidConfiguration
	KindBackendCallFailed
	KindNotCreated
	KindNotDeleted
	KindNotAcknowledged
	KindFailureWithoutException
	KindUnhandledException
	KindDuplicateIndex
	KindFailedToParse
	KindUnknownIndex
	KindUnknownSetting
	KindIndexNameConversion
	KindResponseDeserialization
	KindInvalidResponseShape
)

var kindNames = map[Kind]string{
	KindUnknown:                 "unknown",
	KindInvalidConfiguration:    "invalid configuration",
	KindBackendCallFailed:       "backend call failed",
	KindNotCreated:              "not created",
	KindNotDeleted:              "not deleted",
	KindNotAcknowledged:         "not acknowledged",
	KindFailureWithoutException: "failure without exception",
	KindUnhandledException:      "unhandled exception",
	KindDuplicateIndex:          "duplicate index",
	KindFailedToParse:           "failed to parse",
	KindUnknownIndex:            "unknown index",
	KindUnknownSetting:          "unknown setting",
	KindIndexNameConversion:     "index name conversion",
	KindResponseDeserialization: "response deserialization",
	KindInvalidResponseShape:    "invalid response shape",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Expectation names the part of a response contract that was violated.
type Expectation string

const (
	ExpectObject  Expectation = "JSON object"
	ExpectField   Expectation = "field present"
	ExpectBoolean Expectation = "JSON boolean"
	ExpectString  Expectation = "JSON string"
	ExpectArray   Expectation = "JSON array"
)

// Error is the classified error returned by every operation of this package.
type Error struct {
	Kind Kind
	// Name is the index or setting extracted from the backend reason, if any.
	Name string
	// Details is human readable context.
	Details string
	// Expectation is set for KindInvalidResponseShape.
	Expectation Expectation

	cause error
}

var (
	ErrInvalidConfiguration    = &Error{Kind: KindInvalidConfiguration}
	ErrBackendCallFailed       = &Error{Kind: KindBackendCallFailed}
	ErrNotCreated              = &Error{Kind: KindNotCreated}
	ErrNotDeleted              = &Error{Kind: KindNotDeleted}
	ErrNotAcknowledged         = &Error{Kind: KindNotAcknowledged}
	ErrFailureWithoutException = &Error{Kind: KindFailureWithoutException}
	ErrUnhandledException      = &Error{Kind: KindUnhandledException}
	ErrDuplicateIndex          = &Error{Kind: KindDuplicateIndex}
	ErrFailedToParse           = &Error{Kind: KindFailedToParse}
	ErrUnknownIndex            = &Error{Kind: KindUnknownIndex}
	ErrUnknownSetting          = &Error{Kind: KindUnknownSetting}
	ErrIndexNameConversion     = &Error{Kind: KindIndexNameConversion}
	ErrResponseDeserialization = &Error{Kind: KindResponseDeserialization}
	ErrInvalidResponseShape    = &Error{Kind: KindInvalidResponseShape}
)

func newError(kind Kind, details string) *Error {
	return &Error{Kind: kind, Details: details}
}

func newErrorf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Details: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Name != "" {
		msg += " [" + e.Name + "]"
	}
	if e.Expectation != "" {
		msg += ": expected " + string(e.Expectation)
	}
	if e.Details != "" {
		msg += ": " + e.Details
	}
	if e.cause != nil {
		msg += ": " + e.cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target is an *Error of the same kind. A target carrying
// a Name only matches errors with that same name.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Name == "" || t.Name == e.Name
}

// KindOf returns the discriminant of err, or KindUnknown when err was not
// produced by this package.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
