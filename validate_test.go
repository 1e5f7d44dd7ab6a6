package transbasket

import "testing"

func TestValidUUID(t *testing.T) {
	valid := []string{
		"550e8400-e29b-41d4-a716-446655440000",
		"f47ac10b-58cc-4372-a567-0e02b2c3d479",
	}
	for _, s := range valid {
		if !ValidUUID(s) {
			t.Errorf("ValidUUID(%q) = false, want true", s)
		}
	}

	invalid := []string{
		"",
		"not-a-uuid",
		"550e8400-e29b-11d4-a716-446655440000",  // version 1
		"550e8400e29b41d4a716446655440000",      // no dashes
		"550e8400-e29b-41d4-a716-4466554400000", // too long
	}
	for _, s := range invalid {
		if ValidUUID(s) {
			t.Errorf("ValidUUID(%q) = true, want false", s)
		}
	}
}

func TestNewUUID(t *testing.T) {
	u := NewUUID()
	if !ValidUUID(u) {
		t.Errorf("NewUUID produced invalid UUID: %s", u)
	}
	if u == NewUUID() {
		t.Error("two generated UUIDs should differ")
	}
}

func TestValidTimestamp(t *testing.T) {
	valid := []string{
		"2026-01-02T15:04:05Z",
		"2026-01-02T15:04:05.123Z",
		"2026-01-02T15:04:05+09:00",
	}
	for _, s := range valid {
		if !ValidTimestamp(s) {
			t.Errorf("ValidTimestamp(%q) = false, want true", s)
		}
	}

	invalid := []string{
		"",
		"2026-01-02",
		"2026-01-02 15:04:05",
		"yesterday",
	}
	for _, s := range invalid {
		if ValidTimestamp(s) {
			t.Errorf("ValidTimestamp(%q) = true, want false", s)
		}
	}
}

func TestNowTimestamp(t *testing.T) {
	ts := NowTimestamp()
	if !ValidTimestamp(ts) {
		t.Errorf("NowTimestamp produced invalid timestamp: %s", ts)
	}
}
