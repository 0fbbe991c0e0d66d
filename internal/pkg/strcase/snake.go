// Package strcase converts Go identifiers into the key styles used on the
// wire, such as validation error keys for untagged struct fields.
package strcase

import (
	"strings"
	"unicode"
)

// ToLowerSnake converts an identifier to snake_case, keeping initialisms
// whole: CorporateID -> corporate_id, HTTPServer -> http_server,
// OTPExpiry -> otp_expiry.
func ToLowerSnake(s string) string {
	return strings.Join(words(s), "_")
}

// words splits s at case changes. An upper-case run is one word, except that
// its last letter starts the next word when a lower-case letter follows.
func words(s string) []string {
	runes := []rune(s)
	var out []string
	start := 0
	for i := 1; i < len(runes); i++ {
		prev, cur := runes[i-1], runes[i]
		if !unicode.IsUpper(cur) {
			continue
		}
		lowerBefore := unicode.IsLower(prev) || unicode.IsDigit(prev)
		acronymEnd := unicode.IsUpper(prev) && i+1 < len(runes) && unicode.IsLower(runes[i+1])
		if lowerBefore || acronymEnd {
			out = append(out, strings.ToLower(string(runes[start:i])))
			start = i
		}
	}
	if start < len(runes) {
		out = append(out, strings.ToLower(string(runes[start:])))
	}
	return out
}
