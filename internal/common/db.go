package common

import "strings"

// IsUniqueViolation reports whether err is a unique-constraint failure. It
// matches the wording of both the mysql driver and the sqlite driver used in
// tests.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	msg := err.Error()
	return strings.Contains(msg, "Duplicate entry") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
