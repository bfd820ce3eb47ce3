package core

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError(t *testing.T) {
	t.Parallel()

	t.Run("NewError", func(t *testing.T) {
		t.Parallel()

		err1 := errors.New("error 1")
		err2 := errors.New("error 2")
		e := NewError("base message", err1, err2)

		assert.Equal(t, "base message", e.Message)
		assert.Equal(t, []string{"error 1", "error 2"}, e.Err)
		assert.Equal(t, []string{"error 1", "error 2"}, e.Messages())
		assert.Empty(t, e.Code)
	})

	t.Run("Error method", func(t *testing.T) {
		t.Parallel()

		e := NewError("test", errors.New("internal"))
		got := e.Error()
		assert.Contains(t, got, "test")
		assert.Contains(t, got, "internal")
	})

	t.Run("Unwrap", func(t *testing.T) {
		t.Parallel()

		e := NewError("base", errors.New("error 1"), errors.New("error 2"))

		unwrapped := e.Unwrap()
		require.Error(t, unwrapped)
		assert.Contains(t, unwrapped.Error(), "error 1")
		assert.Contains(t, unwrapped.Error(), "error 2")
	})

	t.Run("Unwrap nil or empty", func(t *testing.T) {
		t.Parallel()

		var e *Error
		require.NoError(t, e.Unwrap())

		e2 := &Error{Message: "no errors"}
		require.NoError(t, e2.Unwrap())
	})

	t.Run("Code", func(t *testing.T) {
		t.Parallel()

		notFound := &NetworkError{Op: "fetch_event", StatusCode: http.StatusNotFound, Err: ErrNotFound}

		assert.Equal(t, "event_full", NewError("x", NewValidationError(ReasonEventFull, "team is full")).Code)
		assert.Equal(t, "cache_miss", NewError("x", &CacheMissError{Key: "k", Err: offline("op")}).Code)
		assert.Equal(t, "cache_corrupt", NewError("x", &DeserializationError{Key: "k", Err: errors.New("bad")}).Code)
		assert.Equal(t, "not_found", NewError("x", fmt.Errorf("load: %w", notFound)).Code)
		assert.Equal(t, "network_failure", NewError("x", offline("op")).Code)
	})
}

func TestStatusFor(t *testing.T) {
	t.Parallel()

	notFound := &NetworkError{Op: "fetch_event", StatusCode: http.StatusNotFound, Err: ErrNotFound}

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"full", NewValidationError(ReasonEventFull, "team is full"), http.StatusConflict},
		{"not authenticated", NewValidationError(ReasonNotAuthenticated, "no user logged in"), http.StatusUnauthorized},
		{"missing field", NewValidationError(ReasonMissingField, "name is required"), http.StatusBadRequest},
		{"corrupt", &DeserializationError{Key: "k", Err: errors.New("bad")}, http.StatusInternalServerError},
		{"miss", fmt.Errorf("load: %w", &CacheMissError{Key: "k", Err: offline("op")}), http.StatusServiceUnavailable},
		{"miss after not found", &CacheMissError{Key: "k", Err: notFound}, http.StatusNotFound},
		{"network", offline("op"), http.StatusBadGateway},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, StatusFor(tt.err))
		})
	}
}

func TestNetworkError_Retryable(t *testing.T) {
	t.Parallel()

	assert.True(t, offline("op").(*NetworkError).Retryable())
	assert.True(t, (&NetworkError{StatusCode: http.StatusBadGateway}).Retryable())
	assert.False(t, (&NetworkError{StatusCode: http.StatusConflict}).Retryable())
}
