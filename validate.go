package transbasket

import (
	"time"

	"github.com/google/uuid"
)

// ValidUUID reports whether s is a canonically formatted version-4 UUID.
func ValidUUID(s string) bool {
	if len(s) != 36 {
		return false
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return false
	}
	return u.Version() == 4
}

// NewUUID returns a freshly generated lowercase version-4 UUID.
func NewUUID() string {
	return uuid.NewString()
}

// ValidTimestamp reports whether s is an RFC 3339 timestamp.
func ValidTimestamp(s string) bool {
	_, err := time.Parse(time.RFC3339, s)
	return err == nil
}

// NowTimestamp returns the current UTC time in RFC 3339 format with
// millisecond precision, matching what clients send.
func NowTimestamp() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05.000Z")
}
