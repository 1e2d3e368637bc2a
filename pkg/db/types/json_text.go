package dbtypes

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSONText carries a raw JSON document. It is written as text so jsonb
// columns accept it under the simple query protocol.
type JSONText json.RawMessage

func (j *JSONText) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*j = nil
	case string:
		*j = append((*j)[:0], v...)
	case []byte:
		*j = append((*j)[:0], v...)
	default:
		return fmt.Errorf("JSONText: unsupported Scan type %T", src)
	}
	return nil
}

func (j JSONText) Value() (driver.Value, error) {
	if len(j) == 0 {
		return "null", nil
	}
	if !json.Valid(j) {
		return nil, fmt.Errorf("JSONText: invalid json")
	}
	return string(j), nil
}

// MarshalJSON emits the document unchanged.
func (j JSONText) MarshalJSON() ([]byte, error) {
	if len(j) == 0 {
		return []byte("null"), nil
	}
	return j, nil
}

// UnmarshalJSON keeps a copy of the raw document.
func (j *JSONText) UnmarshalJSON(data []byte) error {
	*j = append((*j)[:0], data...)
	return nil
}
