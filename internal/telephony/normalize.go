package telephony

import "strings"

// NormalizeNumber canonicalizes a dialable phone number.
//
// Rules: strip every non-digit (keeping a leading +), assume US and
// prefix +1 for a bare 10-digit number, prefix + for anything longer
// that arrived without one, and reject fewer than 10 significant digits.
func NormalizeNumber(raw string) (string, error) {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()

	// A leading + with a country code already present keeps its digits;
	// only the formatting characters are dropped.
	hadPlus := strings.HasPrefix(strings.TrimSpace(raw), "+")

	switch {
	case len(digits) < 10:
		return "", ErrInvalidNumber
	case hadPlus:
		return "+" + digits, nil
	case len(digits) == 10:
		return "+1" + digits, nil
	default:
		return "+" + digits, nil
	}
}
