package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Limit is an optional per-day cap. The zero value is unbounded.
type Limit struct {
	value   int
	bounded bool
}

// Bounded returns a cap of n. Negative values are clamped to zero.
func Bounded(n int) Limit {
	if n < 0 {
		n = 0
	}
	return Limit{value: n, bounded: true}
}

// Unbounded returns a limit that never rejects.
func Unbounded() Limit {
	return Limit{}
}

// IsBounded reports whether the limit carries a cap.
func (l Limit) IsBounded() bool {
	return l.bounded
}

// Cap returns the cap and whether one is set.
func (l Limit) Cap() (int, bool) {
	return l.value, l.bounded
}

// Allows reports whether total stays within the cap.
func (l Limit) Allows(total int) bool {
	return !l.bounded || total <= l.value
}

// String renders the limit for logs and exports.
func (l Limit) String() string {
	if !l.bounded {
		return "unbounded"
	}
	return fmt.Sprintf("%d", l.value)
}

// MarshalJSON encodes a bounded limit as a number and an unbounded one as null.
func (l Limit) MarshalJSON() ([]byte, error) {
	if !l.bounded {
		return []byte("null"), nil
	}
	return json.Marshal(l.value)
}

// UnmarshalJSON accepts a number or null.
func (l *Limit) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*l = Unbounded()
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("limit must be an integer or null: %w", err)
	}
	*l = Bounded(n)
	return nil
}

// Value stores the limit as a nullable integer column.
func (l Limit) Value() (driver.Value, error) {
	if !l.bounded {
		return nil, nil
	}
	return int64(l.value), nil
}

// Scan reads a nullable integer column.
func (l *Limit) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*l = Unbounded()
	case int64:
		*l = Bounded(int(v))
	case int32:
		*l = Bounded(int(v))
	case int:
		*l = Bounded(v)
	case []byte:
		var n int
		if _, err := fmt.Sscanf(string(v), "%d", &n); err != nil {
			return fmt.Errorf("scan limit: %w", err)
		}
		*l = Bounded(n)
	default:
		return fmt.Errorf("scan limit: unsupported type %T", src)
	}
	return nil
}
