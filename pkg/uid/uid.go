// Package uid provides the 64-bit EUI-64 identifier used throughout AVDECC
// for entity IDs, entity model IDs, stream IDs and gPTP grandmaster IDs.
//
// An ID is an opaque value: it can be compared and used as a map key, but
// it carries no arithmetic. Two values are reserved:
//
//   - Null (all zeros) marks an absent identifier.
//   - Uninitialized (all ones) marks an identifier that was never set.
package uid

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidFormat is returned when text cannot be parsed as an ID.
var ErrInvalidFormat = errors.New("invalid unique identifier format")

// ID is a 64-bit unique identifier.
type ID struct {
	value uint64
}

var (
	// Null is the all-zero identifier.
	Null = ID{value: 0}

	// Uninitialized is the all-ones identifier.
	Uninitialized = ID{value: 0xFFFFFFFFFFFFFFFF}
)

// New wraps a raw 64-bit value.
func New(value uint64) ID {
	return ID{value: value}
}

// Value returns the raw 64-bit value.
func (id ID) Value() uint64 {
	return id.value
}

// IsNull reports whether id is the Null identifier.
func (id ID) IsNull() bool {
	return id == Null
}

// IsValid reports whether id is neither Null nor Uninitialized.
func (id ID) IsValid() bool {
	return id != Null && id != Uninitialized
}

// VendorID returns the OUI-24 portion of the identifier.
func (id ID) VendorID() uint32 {
	return uint32(id.value >> 40)
}

// String formats the identifier as a 0x-prefixed 16-digit hex value.
func (id ID) String() string {
	return fmt.Sprintf("0x%016X", id.value)
}

// Parse parses a hex identifier with or without a 0x prefix.
// Dash or colon separated EUI-64 notation is accepted as well.
func Parse(s string) (ID, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	s = strings.NewReplacer("-", "", ":", "").Replace(s)
	if s == "" || len(s) > 16 {
		return Null, fmt.Errorf("%w: %q", ErrInvalidFormat, s)
	}
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return Null, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	return ID{value: v}, nil
}

// MarshalText implements encoding.TextMarshaler.
func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *ID) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
