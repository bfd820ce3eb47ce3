package core

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// SchemaVersion is written into every cache envelope. Payloads from before the
// envelope existed are read as version 0.
const SchemaVersion = 1

type envelope struct {
	SchemaVersion int             `json:"schemaVersion"`
	Payload       json.RawMessage `json:"payload"`
}

// Encode wraps v in the current cache envelope.
func Encode(v any) (string, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to encode payload: %w", err)
	}

	data, err := json.Marshal(envelope{SchemaVersion: SchemaVersion, Payload: payload})
	if err != nil {
		return "", fmt.Errorf("failed to encode envelope: %w", err)
	}

	return string(data), nil
}

// Decode reads a cached value. Unknown fields are ignored; values that do not
// fit T are an error.
func Decode[T any](raw string) (T, error) {
	var value T

	version, payload, err := unwrap([]byte(raw))
	if err != nil {
		return value, err
	}

	if version > SchemaVersion {
		return value, fmt.Errorf("schema version %d is newer than supported version %d", version, SchemaVersion)
	}

	if bytes.Equal(bytes.TrimSpace(payload), []byte("null")) {
		return value, fmt.Errorf("schema version %d payload is null", version)
	}

	err = json.Unmarshal(payload, &value)
	if err != nil {
		return value, fmt.Errorf("failed to decode schema version %d payload: %w", version, err)
	}

	return value, nil
}

func unwrap(data []byte) (int, json.RawMessage, error) {
	if !json.Valid(data) {
		return 0, nil, fmt.Errorf("payload is not valid json")
	}

	var probe map[string]json.RawMessage

	// arrays and scalars cannot be envelopes
	if json.Unmarshal(data, &probe) != nil {
		return 0, data, nil
	}

	rawVersion, ok := probe["schemaVersion"]
	if !ok {
		return 0, data, nil
	}

	var version int

	err := json.Unmarshal(rawVersion, &version)
	if err != nil {
		return 0, nil, fmt.Errorf("schema version is not an integer: %w", err)
	}

	payload, ok := probe["payload"]
	if !ok {
		return 0, nil, fmt.Errorf("envelope version %d has no payload", version)
	}

	return version, payload, nil
}
