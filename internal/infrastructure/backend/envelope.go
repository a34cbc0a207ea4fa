package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/harudiet/backend/internal/domain"
)

// The backend answers in several shapes: a bare array or object, {success, result},
// or {data}. These helpers unwrap all of them.

// decodeJSON decodes body keeping numbers as json.Number. An empty body decodes to nil.
func decodeJSON(body []byte) (any, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", domain.ErrBackendFailure, err)
	}
	return v, nil
}

// unwrap strips a response envelope. {success:false} becomes an error.
func unwrap(v any) (any, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return v, nil
	}

	if s, has := obj["success"]; has {
		if success, isBool := s.(bool); isBool && !success {
			msg := envelopeMessage(obj)
			if msg == "" {
				msg = "request unsuccessful"
			}
			return nil, fmt.Errorf("%w: %s", domain.ErrBackendFailure, msg)
		}
		if result, has := obj["result"]; has {
			return result, nil
		}
		if data, has := obj["data"]; has {
			return data, nil
		}
		return nil, nil
	}

	// {data: ...} wraps lists; a record never carries an id alongside data
	if data, has := obj["data"]; has && obj["id"] == nil && obj["mealId"] == nil {
		return data, nil
	}
	return obj, nil
}

// decodeRecordList decodes a list of raw meal records from any supported shape.
// A single object is treated as a one-element list; non-object entries are skipped.
func decodeRecordList(body []byte) ([]domain.RawMealRecord, error) {
	v, err := decodeJSON(body)
	if err != nil {
		return nil, err
	}
	v, err = unwrap(v)
	if err != nil {
		return nil, err
	}

	switch t := v.(type) {
	case nil:
		return []domain.RawMealRecord{}, nil
	case []any:
		records := make([]domain.RawMealRecord, 0, len(t))
		for i, item := range t {
			obj, ok := item.(map[string]any)
			if !ok {
				log.Printf("[BACKEND] skipping non-object list entry #%d (%T)", i, item)
				continue
			}
			records = append(records, obj)
		}
		return records, nil
	case map[string]any:
		return []domain.RawMealRecord{t}, nil
	default:
		return nil, fmt.Errorf("%w: unexpected response shape %T", domain.ErrBackendFailure, v)
	}
}

// decodeObject decodes a single object from any supported shape; nil when the body is empty
func decodeObject(body []byte) (map[string]any, error) {
	v, err := decodeJSON(body)
	if err != nil {
		return nil, err
	}
	v, err = unwrap(v)
	if err != nil {
		return nil, err
	}

	switch t := v.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		return t, nil
	default:
		return nil, fmt.Errorf("%w: unexpected response shape %T", domain.ErrBackendFailure, v)
	}
}

// errorMessage extracts a human readable message from an error payload
func errorMessage(body []byte) string {
	v, err := decodeJSON(body)
	if err != nil || v == nil {
		return strings.TrimSpace(truncate(body, 200))
	}
	if obj, ok := v.(map[string]any); ok {
		return envelopeMessage(obj)
	}
	return ""
}

func envelopeMessage(obj map[string]any) string {
	for _, key := range []string{"message", "error", "errorMessage"} {
		if s, ok := obj[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}
