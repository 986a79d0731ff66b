package domain

import "strings"

// Defaults for Brazilian numbers, overridable through config.
const (
	DefaultCountryCode = "55"
	DefaultAreaCode    = "21"
)

// minPhoneDigits is the fewest digits a raw value may contain and still be
// considered a dialable number.
const minPhoneDigits = 8

// NormalizeNumber turns raw phone text into a canonical dialable identifier:
// digits only, area-code and country-code prefixed. Returns false when the
// input does not contain enough digits to be a number; callers drop those
// entries rather than failing the batch.
//
// A bare 8 or 9 digit local number gets the area code; anything not already
// starting with the country code gets that as well. Normalization is
// idempotent for already-normalized numbers.
func NormalizeNumber(raw, countryCode, areaCode string) (string, bool) {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	number := b.String()

	if len(number) < minPhoneDigits {
		return "", false
	}
	if len(number) == 8 || len(number) == 9 {
		number = areaCode + number
	}
	if !strings.HasPrefix(number, countryCode) {
		number = countryCode + number
	}
	return number, true
}

// SplitNumbers breaks a multi-number cell ("2199998888 / 2188887777") into
// individual tokens for normalization. Empty tokens are dropped.
func SplitNumbers(raw string) []string {
	parts := strings.Split(raw, "/")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
