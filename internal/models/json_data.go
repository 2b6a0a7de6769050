package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSONData stores an arbitrary JSON document in a text column.
type JSONData json.RawMessage

func (d JSONData) Value() (driver.Value, error) {
	if len(d) == 0 {
		return nil, nil
	}
	if !json.Valid(d) {
		return nil, fmt.Errorf("models.JSONData: invalid json")
	}
	return string(d), nil
}

func (d *JSONData) Scan(value interface{}) error {
	if d == nil {
		return fmt.Errorf("models.JSONData: Scan on nil pointer")
	}
	switch v := value.(type) {
	case nil:
		*d = nil
	case []byte:
		*d = append((*d)[:0], v...)
	case string:
		*d = JSONData(v)
	default:
		return fmt.Errorf("models.JSONData: unsupported Scan type %T", value)
	}
	return nil
}

func (d JSONData) MarshalJSON() ([]byte, error) {
	if len(d) == 0 {
		return []byte("null"), nil
	}
	return d, nil
}

func (d *JSONData) UnmarshalJSON(data []byte) error {
	if d == nil {
		return fmt.Errorf("models.JSONData: UnmarshalJSON on nil pointer")
	}
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*d = nil
		return nil
	}
	*d = append((*d)[:0], data...)
	return nil
}

// Decode unmarshals the document into out. An empty document leaves out untouched.
func (d JSONData) Decode(out any) error {
	if len(d) == 0 {
		return nil
	}
	return json.Unmarshal(d, out)
}

// MustJSON encodes v, returning nil when v cannot be encoded.
func MustJSON(v any) JSONData {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return JSONData(b)
}
