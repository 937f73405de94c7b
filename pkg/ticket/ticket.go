// Package ticket formats and validates human-facing complaint ticket
// numbers (PLN-YYYY-NNNNNN).
package ticket

import (
	"fmt"
	"regexp"
)

var pattern = regexp.MustCompile(`^PLN-\d{4}-\d{6}$`)

// Format builds a ticket number from a year and a sequence value. Sequence
// values wrap into the six-digit space; the database unique index catches
// the rare wraparound collision.
func Format(year int, seq int64) string {
	return fmt.Sprintf("PLN-%04d-%06d", year, seq%1_000_000)
}

// Valid reports whether s matches the ticket number format.
func Valid(s string) bool {
	return pattern.MatchString(s)
}
