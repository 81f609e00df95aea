package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ErrorCodeKey is the status field present in every device reply.
const ErrorCodeKey = "error_code"

// Response is a decoded device reply. Numbers are kept as json.Number so
// payload fields pass through without rounding.
type Response map[string]any

// DecodeResponse parses a reply body. The body must be a JSON object.
func DecodeResponse(body []byte) (Response, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if dec.More() {
		return nil, fmt.Errorf("decoding response: trailing data after JSON value")
	}

	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("decoding response: expected JSON object, got %T", v)
	}
	return Response(obj), nil
}

// ErrorCode reports the error_code field. ok is false when the field is
// missing or is not an integer.
func (r Response) ErrorCode() (code int, ok bool) {
	v, exists := r[ErrorCodeKey]
	if !exists {
		return 0, false
	}
	return toInt(v)
}

// Int reads an integer payload field.
func (r Response) Int(key string) (int, bool) {
	v, exists := r[key]
	if !exists {
		return 0, false
	}
	return toInt(v)
}

func (r Response) Text(key string) (string, bool) {
	s, ok := r[key].(string)
	return s, ok
}

// Decode re-reads the response into a typed payload.
func (r Response) Decode(v any) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encoding response: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding payload: %w", err)
	}
	return nil
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case json.Number:
		i, err := strconv.Atoi(n.String())
		if err != nil {
			return 0, false
		}
		return i, true
	case float64:
		if n != float64(int(n)) {
			return 0, false
		}
		return int(n), true
	case int:
		return n, true
	default:
		return 0, false
	}
}
