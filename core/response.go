package core

import (
	"bytes"
	"encoding/json"
)

const fieldAcknowledged = "acknowledged"

// decodeObject requires body to be a JSON object.
func decodeObject(body json.RawMessage) (map[string]json.RawMessage, error) {
	var value interface{}
	if err := json.Unmarshal(body, &value); err != nil {
		return nil, &Error{
			Kind:    KindResponseDeserialization,
			Details: "could not decode response body",
			cause:   err,
		}
	}

	if _, ok := value.(map[string]interface{}); !ok {
		return nil, &Error{Kind: KindInvalidResponseShape, Expectation: ExpectObject}
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil {
		return nil, &Error{Kind: KindInvalidResponseShape, Expectation: ExpectObject, cause: err}
	}

	return obj, nil
}

// ValidateBool checks that body is a JSON object holding a boolean under
// field and returns that boolean.
func ValidateBool(body json.RawMessage, field string) (bool, error) {
	obj, err := decodeObject(body)
	if err != nil {
		return false, err
	}

	raw, ok := obj[field]
	if !ok {
		return false, &Error{
			Kind:        KindInvalidResponseShape,
			Expectation: ExpectField,
			Details:     "expected '" + field + "'",
		}
	}

	// null unmarshals into false without error
	var value bool
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) || json.Unmarshal(raw, &value) != nil {
		return false, &Error{
			Kind:        KindInvalidResponseShape,
			Expectation: ExpectBoolean,
			Details:     "field '" + field + "'",
		}
	}

	return value, nil
}

// ValidateAcknowledged is ValidateBool for the "acknowledged" contract shared
// by index, alias and pipeline calls.
func ValidateAcknowledged(body json.RawMessage) (bool, error) {
	return ValidateBool(body, fieldAcknowledged)
}
