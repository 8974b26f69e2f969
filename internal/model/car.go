package model

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// CarID identifies the car a score was driven with. Clients may send either a
// JSON string or a JSON number; the submitted form is kept so reads echo it
// back unchanged. Two car IDs are the same car when their String forms match.
type CarID struct {
	value   string
	numeric bool
}

// StringCarID builds a car ID sent as a JSON string
func StringCarID(s string) CarID {
	return CarID{value: s}
}

// NumericCarID builds a car ID sent as a JSON number
func NumericCarID(n float64) CarID {
	return CarID{value: strconv.FormatFloat(n, 'f', -1, 64), numeric: true}
}

// RestoreCarID rebuilds a car ID from its persisted text and kind
func RestoreCarID(value string, numeric bool) (CarID, error) {
	if !numeric {
		return StringCarID(value), nil
	}
	n, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return CarID{}, ErrInvalidCarID
	}
	return NumericCarID(n), nil
}

// String returns the canonical text form used for identity comparisons
func (c CarID) String() string {
	return c.value
}

// IsNumeric reports whether the car ID was sent as a JSON number
func (c CarID) IsNumeric() bool {
	return c.numeric
}

// MarshalJSON writes the car ID in the form it was received
func (c CarID) MarshalJSON() ([]byte, error) {
	if c.numeric {
		return []byte(c.value), nil
	}
	return json.Marshal(c.value)
}

// UnmarshalJSON accepts a JSON string or number
func (c *CarID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return ErrInvalidCarID
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return ErrInvalidCarID
		}
		*c = StringCarID(s)
		return nil
	case 'n':
		// null leaves the value untouched; pointer fields stay nil
		return nil
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		n, err := strconv.ParseFloat(string(data), 64)
		if err != nil {
			return ErrInvalidCarID
		}
		*c = NumericCarID(n)
		return nil
	default:
		return ErrInvalidCarID
	}
}
