package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const dateLayout = "2006-01-02"

var jsonNull = []byte("null")

// Nullable is a PATCH field. Valid reports that the key was present in the
// body; a present null leaves Value nil and clears the column.
type Nullable[T any] struct {
	Valid bool
	Value *T
}

type (
	NullableString = Nullable[string]
	NullableUUID   = Nullable[uuid.UUID]
)

// UnmarshalJSON implements json.Unmarshaler.
func (n *Nullable[T]) UnmarshalJSON(data []byte) error {
	return n.decode(data, func(raw []byte) (*T, error) {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		return &v, nil
	})
}

func (n *Nullable[T]) decode(data []byte, parse func([]byte) (*T, error)) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil
	}
	n.Valid = true
	n.Value = nil
	if bytes.Equal(trimmed, jsonNull) {
		return nil
	}
	v, err := parse(trimmed)
	if err != nil {
		n.Valid = false
		return err
	}
	n.Value = v
	return nil
}

// Clone returns a copy that does not share Value with n.
func (n Nullable[T]) Clone() Nullable[T] {
	if n.Value == nil {
		return Nullable[T]{Valid: n.Valid}
	}
	v := *n.Value
	return Nullable[T]{Valid: n.Valid, Value: &v}
}

// NullableDate is a calendar date (YYYY-MM-DD) PATCH field.
type NullableDate struct {
	Nullable[time.Time]
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *NullableDate) UnmarshalJSON(data []byte) error {
	return n.decode(data, func(raw []byte) (*time.Time, error) {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(dateLayout, s)
		if err != nil {
			return nil, fmt.Errorf("date must use %s: %w", dateLayout, err)
		}
		return &parsed, nil
	})
}
