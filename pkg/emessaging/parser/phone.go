package parser

import "strings"

const (
	// countryCode is prepended when converting local numbers.
	countryCode = "+255"
	// trunkPrefix is the leading digit of locally formatted numbers.
	trunkPrefix = "0"
)

// NormalizePhone converts a phone number to international format.
// Internal whitespace is stripped and a single leading trunk prefix is
// replaced with the country calling code. An empty number falls back to
// the owner's number, so the result is never empty as long as an owner
// number is configured.
func NormalizePhone(raw, owner string) string {
	cleaned := strings.Join(strings.Fields(raw), "")
	if cleaned == "" {
		return owner
	}
	if strings.HasPrefix(cleaned, "+") {
		return cleaned
	}
	if strings.HasPrefix(cleaned, trunkPrefix) {
		return countryCode + cleaned[len(trunkPrefix):]
	}
	return countryCode + cleaned
}
