// Package shared holds small helpers used across layers.
package shared

import "strings"

// IsSQLiteConflictError reports whether the error is a transient SQLite
// locking conflict (SQLITE_BUSY / database is locked) worth retrying.
func IsSQLiteConflictError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "SQLITE_BUSY") ||
		strings.Contains(msg, "database table is locked")
}

// IsSQLiteConstraintError reports whether the error is a uniqueness or
// other constraint violation (e.g. inserting a duplicate primary key).
func IsSQLiteConstraintError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "SQLITE_CONSTRAINT") ||
		strings.Contains(msg, "constraint failed")
}
