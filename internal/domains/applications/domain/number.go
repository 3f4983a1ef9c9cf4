package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const maxSequence = 99999

var (
	numberPattern       = regexp.MustCompile(`^#([A-Z]{2})-(\d{4})-(\d{5})$`)
	jurisdictionPattern = regexp.MustCompile(`^[A-Z]{2}$`)
)

// ApplicationNumber is the human readable identifier #CC-YYYY-NNNNN.
type ApplicationNumber string

func (n ApplicationNumber) String() string { return string(n) }

// NormalizeJurisdiction upper-cases and checks a two-letter jurisdiction code.
func NormalizeJurisdiction(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if !jurisdictionPattern.MatchString(code) {
		return "", fmt.Errorf("%w: %q", ErrInvalidJurisdiction, code)
	}
	return code, nil
}

// NumberPrefix returns the "#CC-YYYY-" prefix shared by one jurisdiction and year.
func NumberPrefix(jurisdiction string, year int) (string, error) {
	code, err := NormalizeJurisdiction(jurisdiction)
	if err != nil {
		return "", err
	}
	if year < 1000 || year > 9999 {
		return "", fmt.Errorf("%w: year %d", ErrInvalidNumber, year)
	}
	return fmt.Sprintf("#%s-%04d-", code, year), nil
}

// FormatApplicationNumber renders a sequence within the prefix.
func FormatApplicationNumber(jurisdiction string, year, sequence int) (ApplicationNumber, error) {
	prefix, err := NumberPrefix(jurisdiction, year)
	if err != nil {
		return "", err
	}
	if sequence < 1 || sequence > maxSequence {
		return "", fmt.Errorf("%w: %d", ErrSequenceExhausted, sequence)
	}
	return ApplicationNumber(fmt.Sprintf("%s%05d", prefix, sequence)), nil
}

// ParseApplicationNumber splits a number into jurisdiction, year and sequence.
func ParseApplicationNumber(raw string) (jurisdiction string, year, sequence int, err error) {
	m := numberPattern.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return "", 0, 0, fmt.Errorf("%w: %q", ErrInvalidNumber, raw)
	}
	year, _ = strconv.Atoi(m[2])
	sequence, _ = strconv.Atoi(m[3])
	return m[1], year, sequence, nil
}

// NextSequence returns the sequence following latest, or 1 when latest is empty.
func NextSequence(latest ApplicationNumber) (int, error) {
	if latest == "" {
		return 1, nil
	}
	_, _, seq, err := ParseApplicationNumber(string(latest))
	if err != nil {
		return 0, err
	}
	if seq >= maxSequence {
		return 0, fmt.Errorf("%w: %s", ErrSequenceExhausted, latest)
	}
	return seq + 1, nil
}
