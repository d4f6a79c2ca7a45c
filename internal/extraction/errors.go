package extraction

import (
	"errors"
	"fmt"
)

// Kind identifies which stage of the pipeline failed
type Kind string

const (
	KindConfiguration Kind = "ConfigurationError"
	KindTransport     Kind = "TransportError"
	KindProvider      Kind = "ProviderError"
	KindNoJSONFound   Kind = "NoJsonFoundError"
	KindMalformedJSON Kind = "MalformedJsonError"
	KindSchema        Kind = "SchemaError"
	KindInput         Kind = "InputError"
)

// Sentinels for errors.Is matching against an *Error of the same kind
var (
	ErrConfiguration = &Error{Kind: KindConfiguration}
	ErrTransport     = &Error{Kind: KindTransport}
	ErrProvider      = &Error{Kind: KindProvider}
	ErrNoJSONFound   = &Error{Kind: KindNoJSONFound}
	ErrMalformedJSON = &Error{Kind: KindMalformedJSON}
	ErrSchema        = &Error{Kind: KindSchema}
	ErrInput         = &Error{Kind: KindInput}
)

// Error is the single tagged error returned by every stage of the pipeline
type Error struct {
	Kind    Kind
	Message string

	// StatusCode and Body carry the provider's reply for ProviderError
	StatusCode int
	Body       string

	// Fragment is the offending JSON candidate for MalformedJsonError
	Fragment string

	// Field names the offending field for SchemaError
	Field string

	Err error
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Field != "" {
		msg += ": " + e.Field
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of the first *Error in err's chain, or "" if there is none
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsParseFailure reports whether err means the model answered but no usable recipe came out of it.
// Callers typically fall back to manual entry for these.
func IsParseFailure(err error) bool {
	switch KindOf(err) {
	case KindNoJSONFound, KindMalformedJSON, KindSchema, KindInput:
		return true
	}
	return false
}

func configurationError(msg string) error {
	return &Error{Kind: KindConfiguration, Message: msg}
}

func transportError(err error) error {
	return &Error{Kind: KindTransport, Err: err}
}

func providerError(status int, body string) error {
	return &Error{Kind: KindProvider, StatusCode: status, Body: body}
}

func schemaError(field, msg string) error {
	return &Error{Kind: KindSchema, Field: field, Message: msg}
}

func inputError(msg string, err error) error {
	return &Error{Kind: KindInput, Message: msg, Err: err}
}
