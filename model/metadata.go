package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"

	"github.com/siherrmann/fuser/helper"
)

// Metadata represents free-form document metadata, stored as JSONB in PostgreSQL
type Metadata map[string]interface{}

// Value implements the driver.Valuer interface for database storage
func (m Metadata) Value() (driver.Value, error) {
	return m.Marshal()
}

// Scan implements the sql.Scanner interface for database retrieval
func (m *Metadata) Scan(value interface{}) error {
	return m.Unmarshal(value)
}

// Marshal converts Metadata to JSON bytes
func (m Metadata) Marshal() ([]byte, error) {
	return json.Marshal(m)
}

// Unmarshal converts JSON bytes or Metadata to Metadata
func (m *Metadata) Unmarshal(value interface{}) error {
	if value == nil {
		*m = Metadata{}
		return nil
	}

	if s, ok := value.(Metadata); ok {
		*m = Metadata(s)
		return nil
	}

	b, ok := value.([]byte)
	if !ok {
		return helper.NewError("byte assertion", errors.New("type assertion to []byte failed"))
	}

	return json.Unmarshal(b, m)
}

// FillFrom copies every field of other that is not yet present.
// Existing fields are never overwritten (first writer wins).
func (m Metadata) FillFrom(other Metadata) {
	for key, value := range other {
		if _, exists := m[key]; !exists {
			m[key] = value
		}
	}
}

// String returns the string value of a field, or fallback if the field is
// missing or not a string.
func (m Metadata) String(key string, fallback string) string {
	if value, ok := m[key].(string); ok {
		return value
	}
	return fallback
}
