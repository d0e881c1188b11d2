package mapper

import (
	"fmt"
	"time"
)

// ParseHL7Date parses a PID-7-style TS-1 component: 8-digit yyyyMMdd
// (padded with a zero time before parsing) or 14-digit yyyyMMddHHmmss,
// returning an ISO-8601 date (yyyy-mm-dd).
func ParseHL7Date(s string) (string, error) {
	if len(s) == 8 {
		s = s + "000000"
	}
	t, err := time.Parse("20060102150405", s)
	if err != nil {
		return "", fmt.Errorf("invalid HL7 date %q: %w", s, err)
	}
	return t.Format("2006-01-02"), nil
}

// ParseHL7Timestamp parses a full yyyyMMddHHmmss timestamp (EVN-2 style)
// into an ISO-8601 date-time.
func ParseHL7Timestamp(s string) (string, error) {
	t, err := time.Parse("20060102150405", s)
	if err != nil {
		return "", fmt.Errorf("invalid HL7 timestamp %q: %w", s, err)
	}
	return t.Format(time.RFC3339), nil
}
