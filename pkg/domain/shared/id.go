package shared

import (
	"fmt"

	"github.com/google/uuid"
)

// ID represents a unique identifier for benchmark and analysis runs.
type ID struct {
	value uuid.UUID
}

// NewID creates a new random ID.
func NewID() ID {
	return ID{value: uuid.New()}
}

// IDFromString creates an ID from a string.
func IDFromString(s string) (ID, error) {
	parsed, err := uuid.Parse(s)
	if err != nil {
		return ID{}, fmt.Errorf("invalid id format: %w", err)
	}
	return ID{value: parsed}, nil
}

// String returns the string representation of the ID.
func (id ID) String() string {
	return id.value.String()
}

// IsZero returns true if the ID is empty.
func (id ID) IsZero() bool {
	return id.value == uuid.Nil
}

// MarshalJSON implements json.Marshaler.
func (id ID) MarshalJSON() ([]byte, error) {
	return []byte(`"` + id.String() + `"`), nil
}

// MarshalYAML implements yaml.Marshaler.
func (id ID) MarshalYAML() (any, error) {
	return id.String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (id *ID) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return fmt.Errorf("invalid id format: %w", err)
	}
	id.value = parsed
	return nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (id *ID) UnmarshalJSON(data []byte) error {
	if len(data) < 2 {
		return fmt.Errorf("invalid id format")
	}
	parsed, err := uuid.Parse(string(data[1 : len(data)-1]))
	if err != nil {
		return err
	}
	id.value = parsed
	return nil
}
