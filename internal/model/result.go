package model

import (
	"encoding/json"
	"errors"
	"fmt"
)

// FailureKind classifies why an operation failed.
type FailureKind int

const (
	// FailureServer is a failure reported by the server in an error envelope or status.
	FailureServer FailureKind = iota
	// FailureMissingCredential means no usable credential was held; nothing was sent.
	FailureMissingCredential
	// FailureTransport means the request never produced an HTTP response.
	FailureTransport
	// FailureDecode means a response arrived but could not be decoded.
	FailureDecode
	// FailureValidation means the input was rejected locally before sending.
	FailureValidation
)

func (k FailureKind) String() string {
	switch k {
	case FailureServer:
		return "server"
	case FailureMissingCredential:
		return "missing credential"
	case FailureTransport:
		return "transport"
	case FailureDecode:
		return "decode"
	case FailureValidation:
		return "validation"
	}
	return fmt.Sprintf("FailureKind(%d)", int(k))
}

// Failure is the failed variant of a Result.
type Failure struct {
	Kind    FailureKind
	Message string
}

func (f Failure) Error() string {
	return f.Message
}

// Result is the outcome of a network operation: either Success carrying data
// or a Failure. The zero value is a server failure with an empty message.
type Result[T any] struct {
	ok      bool
	data    T
	failure Failure
}

// Success wraps data in a successful Result.
func Success[T any](data T) Result[T] {
	return Result[T]{ok: true, data: data}
}

// Fail builds a failed Result.
func Fail[T any](kind FailureKind, message string) Result[T] {
	return Result[T]{failure: Failure{Kind: kind, Message: message}}
}

// Failf builds a failed Result with a formatted message.
func Failf[T any](kind FailureKind, format string, args ...any) Result[T] {
	return Fail[T](kind, fmt.Sprintf(format, args...))
}

// Get returns the payload and true on success, or the zero value and false.
func (r Result[T]) Get() (T, bool) {
	return r.data, r.ok
}

// Failure returns the failure and true when r failed.
func (r Result[T]) Failure() (Failure, bool) {
	return r.failure, !r.ok
}

// OK reports whether r is a success.
func (r Result[T]) OK() bool {
	return r.ok
}

// Err returns the failure as an error, or nil on success.
func (r Result[T]) Err() error {
	if r.ok {
		return nil
	}
	return r.failure
}

// Match calls exactly one of the handlers.
func (r Result[T]) Match(onSuccess func(T), onFailure func(Failure)) {
	if r.ok {
		onSuccess(r.data)
		return
	}
	onFailure(r.failure)
}

// Fold maps a Result to a single value; both variants must be handled.
func Fold[T, R any](r Result[T], onSuccess func(T) R, onFailure func(Failure) R) R {
	if r.ok {
		return onSuccess(r.data)
	}
	return onFailure(r.failure)
}

// Map transforms the payload of a successful Result.
func Map[T, U any](r Result[T], fn func(T) U) Result[U] {
	if !r.ok {
		return Result[U]{failure: r.failure}
	}
	return Success(fn(r.data))
}

const (
	statusSuccess = "success"
	statusError   = "error"
)

// ErrUnknownStatus is returned when decoding an envelope with an unexpected status tag.
var ErrUnknownStatus = errors.New("unknown response status")

type envelope struct {
	Status  string          `json:"status"`
	Data    json.RawMessage `json:"data,omitempty"`
	Message string          `json:"message,omitempty"`
}

// MarshalJSON writes the {"status": ...} envelope used on the wire.
func (r Result[T]) MarshalJSON() ([]byte, error) {
	if r.ok {
		return json.Marshal(struct {
			Status string `json:"status"`
			Data   T      `json:"data"`
		}{statusSuccess, r.data})
	}
	return json.Marshal(struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	}{statusError, r.failure.Message})
}

// UnmarshalJSON reads the envelope. Error envelopes become server failures.
func (r *Result[T]) UnmarshalJSON(b []byte) error {
	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return err
	}
	switch env.Status {
	case statusSuccess:
		var data T
		if len(env.Data) > 0 && string(env.Data) != "null" {
			if err := json.Unmarshal(env.Data, &data); err != nil {
				return fmt.Errorf("decoding data: %w", err)
			}
		}
		*r = Success(data)
	case statusError:
		*r = Fail[T](FailureServer, env.Message)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownStatus, env.Status)
	}
	return nil
}
