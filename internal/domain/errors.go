package domain

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// InvalidURLError reports a backend URL that could not be constructed.
type InvalidURLError struct {
	URL string
	Err error
}

func (e *InvalidURLError) Error() string {
	return fmt.Sprintf("invalid url %q: %v", e.URL, e.Err)
}

func (e *InvalidURLError) Unwrap() error { return e.Err }

// NetworkError reports a request that produced no response, including
// timeouts.
type NetworkError struct {
	Endpoint string
	Err      error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s request: %v", e.Endpoint, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ServerError reports any response other than 200 OK. The body of such a
// response is never decoded.
type ServerError struct {
	StatusCode int
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error: status %d", e.StatusCode)
}

// CheckStatus returns a *ServerError for any status other than 200.
func CheckStatus(status int) error {
	if status != http.StatusOK {
		return &ServerError{StatusCode: status}
	}
	return nil
}

// FailureKind classifies why a decode attempt failed.
type FailureKind string

const (
	FailureMissingKey    FailureKind = "missing_key"
	FailureTypeMismatch  FailureKind = "type_mismatch"
	FailureValueNotFound FailureKind = "value_not_found"
	FailureCorrupted     FailureKind = "corrupted"
	FailureUnsuccessful  FailureKind = "unsuccessful"
)

// DecodeFailure is the outcome of one failed decode attempt.
type DecodeFailure struct {
	Strategy string      `json:"strategy"`
	Kind     FailureKind `json:"kind"`
	Detail   string      `json:"detail"`
}

func (f DecodeFailure) String() string {
	return fmt.Sprintf("%s: %s: %s", f.Strategy, f.Kind, f.Detail)
}

// DecodeError is returned once every decode strategy for a payload failed.
type DecodeError struct {
	Attempts []DecodeFailure
}

func (e *DecodeError) Error() string {
	parts := make([]string, len(e.Attempts))
	for i, a := range e.Attempts {
		parts[i] = a.String()
	}
	return "decode failed: " + strings.Join(parts, "; ")
}

// Attempted returns the strategy names in the order they were tried.
func (e *DecodeError) Attempted() []string {
	names := make([]string, len(e.Attempts))
	for i, a := range e.Attempts {
		names[i] = a.Strategy
	}
	return names
}

// Reason returns the failure of the last attempt.
func (e *DecodeError) Reason() DecodeFailure {
	if len(e.Attempts) == 0 {
		return DecodeFailure{}
	}
	return e.Attempts[len(e.Attempts)-1]
}

// InvalidRecordError is returned when a write targets a store whose id is
// not valid.
type InvalidRecordError struct {
	ID   int64
	Name string
}

func (e *InvalidRecordError) Error() string {
	return fmt.Sprintf("store %q has invalid id %d", e.Name, e.ID)
}

// EnsureWritable returns an *InvalidRecordError unless store.IsValidID().
func EnsureWritable(store StoreRecord) error {
	if !store.IsValidID() {
		return &InvalidRecordError{ID: store.ID, Name: store.Name}
	}
	return nil
}

// ErrInvalidFeedback wraps feedback payload validation failures.
var ErrInvalidFeedback = errors.New("invalid feedback")
