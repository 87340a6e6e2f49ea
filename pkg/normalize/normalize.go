// pkg/normalize/normalize.go
package normalize

import (
	"errors"
	"fmt"
	"strings"
)

// Func converts one raw field value into its canonical typed form, or
// returns an error describing why the value is invalid. Implementations
// are pure: no I/O, no shared state, deterministic.
type Func func(raw interface{}) (interface{}, error)

// Common invalid reasons shared by several normalizers.
var (
	ErrMissing   = errors.New("missing value")
	ErrNotString = errors.New("value is not text")
	ErrEmpty     = errors.New("empty after trimming")
)

// asString converts a raw scalar to a string for parsing.
// Returns ErrMissing for nil and ErrNotString for values that have no
// sensible text rendering.
func asString(raw interface{}) (string, error) {
	if raw == nil {
		return "", ErrMissing
	}

	switch v := raw.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case fmt.Stringer:
		return v.String(), nil
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64, bool:
		return fmt.Sprintf("%v", v), nil
	default:
		return "", ErrNotString
	}
}

// textOnly converts a raw scalar to a string but rejects anything that is
// not actually text. Used by normalizers that must not coerce numbers.
func textOnly(raw interface{}) (string, error) {
	if raw == nil {
		return "", ErrMissing
	}

	switch v := raw.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	default:
		return "", ErrNotString
	}
}

// collapseWhitespace replaces every run of whitespace with a single space.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
