// Package enums holds the closed string types stored in the database and
// accepted on the wire.
package enums

import (
	"fmt"
	"slices"
	"strings"
)

// set is the ordered list of values an enum accepts.
type set[T ~string] []T

func (s set[T]) has(v T) bool { return slices.Contains(s, v) }

// parse matches raw exactly, or case-insensitively after trimming when fold
// is set. kind names the enum in the error.
func (s set[T]) parse(kind, raw string, fold bool) (T, error) {
	match := func(v T) bool { return string(v) == raw }
	if fold {
		trimmed := strings.TrimSpace(raw)
		match = func(v T) bool { return strings.EqualFold(string(v), trimmed) }
	}
	if i := slices.IndexFunc(s, match); i >= 0 {
		return s[i], nil
	}
	var zero T
	return zero, fmt.Errorf("invalid %s %q", kind, raw)
}
