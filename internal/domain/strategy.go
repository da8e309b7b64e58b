package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Strategy is one attempt at decoding a payload into T.
type Strategy[T any] struct {
	Name   string
	Decode func(body []byte) (T, *DecodeFailure)
}

// RunStrategies tries each strategy in order and returns the first success
// together with the name of the strategy that produced it. If all fail the
// error is a *DecodeError listing every attempt.
func RunStrategies[T any](body []byte, strategies []Strategy[T]) (T, string, error) {
	var zero T
	attempts := make([]DecodeFailure, 0, len(strategies))
	for _, s := range strategies {
		v, failure := s.Decode(body)
		if failure == nil {
			return v, s.Name, nil
		}
		failure.Strategy = s.Name
		attempts = append(attempts, *failure)
	}
	return zero, "", &DecodeError{Attempts: attempts}
}

// decodeObject unmarshals raw into dst after checking that every required
// key is present and non-null.
func decodeObject(raw []byte, required []string, dst any) *DecodeFailure {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return classifyJSONError(err)
	}
	// A JSON null unmarshals into a nil map without error.
	if fields == nil {
		return &DecodeFailure{Kind: FailureValueNotFound, Detail: "expected object, got null"}
	}
	for _, key := range required {
		v, ok := fields[key]
		if !ok {
			return &DecodeFailure{Kind: FailureMissingKey, Detail: fmt.Sprintf("key %q not found", key)}
		}
		if isNull(v) {
			return &DecodeFailure{Kind: FailureValueNotFound, Detail: fmt.Sprintf("key %q is null", key)}
		}
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return classifyJSONError(err)
	}
	return nil
}

// decodeArray splits raw into its elements.
func decodeArray(raw []byte) ([]json.RawMessage, *DecodeFailure) {
	if isNull(raw) {
		return nil, &DecodeFailure{Kind: FailureValueNotFound, Detail: "expected array, got null"}
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, classifyJSONError(err)
	}
	return elems, nil
}

func classifyJSONError(err error) *DecodeFailure {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syntaxErr):
		return &DecodeFailure{Kind: FailureCorrupted, Detail: fmt.Sprintf("offset %d: %v", syntaxErr.Offset, syntaxErr)}
	case errors.As(err, &typeErr):
		field := typeErr.Field
		if field == "" {
			field = "(root)"
		}
		return &DecodeFailure{Kind: FailureTypeMismatch, Detail: fmt.Sprintf("%s: expected %s, got %s", field, typeErr.Type, typeErr.Value)}
	default:
		return &DecodeFailure{Kind: FailureCorrupted, Detail: err.Error()}
	}
}

func isNull(raw []byte) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
