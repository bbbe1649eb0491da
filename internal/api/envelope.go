package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnexpectedShape is returned when a response is neither a bare value nor
// a {"data": ...} envelope around one.
var ErrUnexpectedShape = errors.New("unexpected response shape")

// decodeList normalizes the two list envelopes the backend emits, a bare
// array or {"data": [...]}, into one slice. {"data": null} is empty; any
// other shape fails rather than silently yielding nothing.
func decodeList[T any](data []byte) ([]T, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrUnexpectedShape)
	}

	switch trimmed[0] {
	case '[':
		out := []T{}
		if err := json.Unmarshal(trimmed, &out); err != nil {
			return nil, fmt.Errorf("decoding list: %w", err)
		}
		return out, nil

	case '{':
		var env map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return nil, fmt.Errorf("decoding envelope: %w", err)
		}
		raw, ok := env["data"]
		if !ok {
			return nil, fmt.Errorf("%w: object without data field", ErrUnexpectedShape)
		}
		raw = bytes.TrimSpace(raw)
		if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
			return []T{}, nil
		}
		if raw[0] != '[' {
			return nil, fmt.Errorf("%w: data is not an array", ErrUnexpectedShape)
		}
		out := []T{}
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, fmt.Errorf("decoding list: %w", err)
		}
		return out, nil

	default:
		return nil, fmt.Errorf("%w: %.20q", ErrUnexpectedShape, trimmed)
	}
}

// decodeItem accepts a bare object or {"data": {...}}.
func decodeItem[T any](data []byte) (*T, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("%w: expected an object", ErrUnexpectedShape)
	}

	var env map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, fmt.Errorf("decoding object: %w", err)
	}

	payload := trimmed
	if raw, ok := env["data"]; ok {
		raw = bytes.TrimSpace(raw)
		if len(raw) > 0 && raw[0] == '{' {
			payload = raw
		}
	}

	var out T
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, fmt.Errorf("decoding object: %w", err)
	}
	return &out, nil
}
