package core

import (
	"encoding/json"
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("not found")

// NetworkError means the remote call could not complete: transport failure,
// timeout, non-2xx status or an unreadable body.
type NetworkError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("network %s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}

	return fmt.Sprintf("network %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// Retryable reports whether repeating the same call could succeed.
func (e *NetworkError) Retryable() bool {
	return e.StatusCode == 0 || e.StatusCode >= 500
}

// CacheMissError means the network failed and nothing was cached under Key.
// Err is the network failure that triggered the fallback.
type CacheMissError struct {
	Key string
	Err error
}

func (e *CacheMissError) Error() string {
	return fmt.Sprintf("cache miss for %q after network failure: %v", e.Key, e.Err)
}

func (e *CacheMissError) Unwrap() error {
	return e.Err
}

// DeserializationError means a cached payload could not be turned back into
// the expected shape.
type DeserializationError struct {
	Key string
	Err error
}

func (e *DeserializationError) Error() string {
	return fmt.Sprintf("cached value for %q is unreadable: %v", e.Key, e.Err)
}

func (e *DeserializationError) Unwrap() error {
	return e.Err
}

type Reason string

const (
	ReasonNotAuthenticated Reason = "not_authenticated"
	ReasonEventFull        Reason = "event_full"
	ReasonMissingField     Reason = "missing_field"
	ReasonInvalidField     Reason = "invalid_field"
)

// ValidationError is a failed precondition, reported before any I/O.
type ValidationError struct {
	Reason  Reason
	Message string
}

func NewValidationError(reason Reason, message string) *ValidationError {
	return &ValidationError{Reason: reason, Message: message}
}

func (e *ValidationError) Error() string {
	return e.Message
}

/*

 */

// Error is the JSON body returned to view clients on failure.
type Error struct {
	Code    string   `json:"code,omitempty"`
	Message string   `json:"message,omitempty"`
	Err     []string `json:"err,omitempty"`
}

func NewError(message string, errs ...error) *Error {
	return &Error{
		Code:    codeOf(errs...),
		Message: message,
		Err: func() []string {
			var msgs []string

			for _, err := range errs {
				if err != nil {
					msgs = append(msgs, err.Error())
				}
			}

			return msgs
		}(),
	}
}

func (e *Error) Error() string {
	//nolint:errchkjson
	data, _ := json.Marshal(e)
	return string(data)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}

	if len(e.Err) == 0 {
		return nil
	}

	errs := make([]error, len(e.Err))
	for i, err := range e.Err {
		errs[i] = fmt.Errorf("%s", err)
	}

	return errors.Join(errs...)
}

func (e *Error) Messages() []string {
	return e.Err
}

func codeOf(errs ...error) string {
	for _, err := range errs {
		var (
			validationErr *ValidationError
			missErr       *CacheMissError
			decodeErr     *DeserializationError
			networkErr    *NetworkError
		)

		switch {
		case err == nil:
			continue
		case errors.As(err, &validationErr):
			return string(validationErr.Reason)
		case errors.As(err, &decodeErr):
			return "cache_corrupt"
		case errors.As(err, &missErr):
			return "cache_miss"
		case errors.Is(err, ErrNotFound):
			return "not_found"
		case errors.As(err, &networkErr):
			return "network_failure"
		}
	}

	return ""
}
