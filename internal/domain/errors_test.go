package domain

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckStatus(t *testing.T) {
	require.NoError(t, CheckStatus(http.StatusOK))

	for _, code := range []int{http.StatusCreated, http.StatusNoContent, http.StatusNotFound, http.StatusInternalServerError, http.StatusBadGateway} {
		t.Run(http.StatusText(code), func(t *testing.T) {
			err := CheckStatus(code)
			var serverErr *ServerError
			require.True(t, errors.As(err, &serverErr))
			assert.Equal(t, code, serverErr.StatusCode)
			assert.Equal(t, fmt.Sprintf("server error: status %d", code), err.Error())
		})
	}
}

func TestNetworkErrorUnwraps(t *testing.T) {
	err := fmt.Errorf("fetch stores: %w", &NetworkError{Endpoint: EndpointStores, Err: context.DeadlineExceeded})

	var netErr *NetworkError
	require.True(t, errors.As(err, &netErr))
	assert.Equal(t, EndpointStores, netErr.Endpoint)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestInvalidURLError(t *testing.T) {
	inner := errors.New("missing protocol scheme")
	err := &InvalidURLError{URL: "::bad", Err: inner}
	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), `"::bad"`)
}

func TestEnsureWritable(t *testing.T) {
	require.NoError(t, EnsureWritable(StoreRecord{ID: 1}))

	for _, id := range []int64{0, -1} {
		err := EnsureWritable(StoreRecord{ID: id, Name: "Oxxo"})
		var recErr *InvalidRecordError
		require.True(t, errors.As(err, &recErr))
		assert.Equal(t, id, recErr.ID)
		assert.Equal(t, "Oxxo", recErr.Name)
	}
}

func TestDecodeErrorMessage(t *testing.T) {
	err := &DecodeError{Attempts: []DecodeFailure{
		{Strategy: "wrapper", Kind: FailureMissingKey, Detail: `key "data" not found`},
		{Strategy: "array", Kind: FailureTypeMismatch, Detail: "(root): expected []json.RawMessage, got object"},
	}}

	assert.Equal(t,
		`decode failed: wrapper: missing_key: key "data" not found; array: type_mismatch: (root): expected []json.RawMessage, got object`,
		err.Error())
	assert.Equal(t, []string{"wrapper", "array"}, err.Attempted())
	assert.Equal(t, FailureTypeMismatch, err.Reason().Kind)
	assert.Equal(t, DecodeFailure{}, (&DecodeError{}).Reason())
}
