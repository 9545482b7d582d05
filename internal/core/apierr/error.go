// Package apierr normalises every failure of an upstream call into one Error
// carrying an immutable Envelope.
package apierr

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Kind is the error taxonomy shared by every calling convention.
type Kind string

const (
	KindAPI           Kind = "ApiError"
	KindTransport     Kind = "TransportError"
	KindTimeout       Kind = "TimeoutError"
	KindSerialization Kind = "SerializationError"
	KindValidation    Kind = "ValidationError"
	KindCanceled      Kind = "CanceledError"
	KindUnknown       Kind = "UnknownError"
)

// Retryable reports whether the caller may safely retry. No response was obtained.
func (k Kind) Retryable() bool {
	return k == KindTransport || k == KindTimeout
}

// ErrCanceled is the cause of errors delivered to a cancelled future.
var ErrCanceled = errors.New("operation canceled")

// MetaEntry is one {type, value} pair of upstream diagnostic metadata.
type MetaEntry struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// UnmarshalJSON accepts scalar values of any JSON type.
func (m *MetaEntry) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type  string          `json:"type"`
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	m.Type = raw.Type
	m.Value = ""
	if len(raw.Value) == 0 || string(raw.Value) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw.Value, &s); err == nil {
		m.Value = s
		return nil
	}
	m.Value = string(raw.Value)
	return nil
}

// Envelope is the facade-agnostic description of a failure.
// HTTPStatus is 0 and RequestID is empty when the failure carried none.
type Envelope struct {
	Kind       Kind        `json:"kind"`
	Message    string      `json:"message"`
	Code       string      `json:"code,omitempty"`
	HTTPStatus int         `json:"httpStatus,omitempty"`
	RequestID  string      `json:"requestId,omitempty"`
	Meta       []MetaEntry `json:"meta,omitempty"`
}

// Error is the only error type delivered by the execution core.
type Error struct {
	env   Envelope
	cause error
}

// New builds an Error without an underlying cause.
func New(kind Kind, message string) *Error {
	return &Error{env: Envelope{Kind: kind, Message: message}}
}

// Wrap builds an Error of the given kind around cause.
func Wrap(kind Kind, cause error) *Error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	return &Error{env: Envelope{Kind: kind, Message: msg}, cause: cause}
}

func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(string(e.env.Kind))
	if e.env.HTTPStatus != 0 {
		sb.WriteString(" (")
		sb.WriteString(strconv.Itoa(e.env.HTTPStatus))
		sb.WriteString(")")
	}
	sb.WriteString(": ")
	sb.WriteString(e.env.Message)
	if e.env.RequestID != "" {
		sb.WriteString(" [request ")
		sb.WriteString(e.env.RequestID)
		sb.WriteString("]")
	}
	return sb.String()
}

// Unwrap returns the original failure.
func (e *Error) Unwrap() error {
	return e.cause
}

// Kind returns the classified kind.
func (e *Error) Kind() Kind {
	return e.env.Kind
}

// Envelope returns a copy of the envelope. The Meta slice is copied too.
func (e *Error) Envelope() Envelope {
	env := e.env
	if e.env.Meta != nil {
		env.Meta = make([]MetaEntry, len(e.env.Meta))
		copy(env.Meta, e.env.Meta)
	}
	return env
}

// Retryable is a shorthand for Kind().Retryable().
func (e *Error) Retryable() bool {
	return e.env.Kind.Retryable()
}

// KindOf returns the kind of err after classification, or "" for nil.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	return Classify(err).Kind()
}

// APIError is the upstream JSON error body:
// {error, description, statusCode, requestId, meta:[{type,value}]}.
type APIError struct {
	ErrorCode   string      `json:"error"`
	Description string      `json:"description"`
	StatusCode  int         `json:"statusCode"`
	RequestID   string      `json:"requestId"`
	Meta        []MetaEntry `json:"meta"`
}

func (e *APIError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Description)
	}
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.ErrorCode)
}

// DecodeError marks a failure to decode a response body into the expected shape.
type DecodeError struct {
	Target string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Target, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// ValidationFailure is raised before any network call for bad caller input.
type ValidationFailure struct {
	Field  string
	Reason string
}

func (e *ValidationFailure) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Invalid returns a ValidationFailure for field.
func Invalid(field, reason string) error {
	return &ValidationFailure{Field: field, Reason: reason}
}
