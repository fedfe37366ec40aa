package event

import "time"

// DateLayout is the ISO calendar-date layout used for every date field in
// the registry.
const DateLayout = "2006-01-02"

// ParseDate parses an ISO calendar date (YYYY-MM-DD).
func ParseDate(value string) (time.Time, error) {
	return time.Parse(DateLayout, value)
}

// ordinalOfUnixEpoch is the proleptic Gregorian day ordinal of 1970-01-01,
// counting 0001-01-01 as ordinal 1.
const ordinalOfUnixEpoch = 719163

// DateOrdinal maps an ISO date to its proleptic Gregorian day ordinal.
// Empty or unparseable values map to -1, which sorts before every real
// date and excludes the value from day arithmetic.
func DateOrdinal(value string) int {
	if value == "" {
		return -1
	}
	t, err := ParseDate(value)
	if err != nil {
		return -1
	}
	return int(t.Unix()/86400) + ordinalOfUnixEpoch
}
