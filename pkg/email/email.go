// Package email derives display names from addresses for outbound
// messages when the roster gives us nothing better.
package email

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const fallbackName = "User"

// DeriveNameFromEmail guesses a first and last name from the local part of
// an address. "anna.svensson@firma.se" yields ("Anna", "Svensson"); an
// opaque local part like "info" keeps the fallback surname.
func DeriveNameFromEmail(addr string) (string, string) {
	local := addr
	if before, _, found := strings.Cut(addr, "@"); found && before != "" {
		local = before
	}

	parts := strings.FieldsFunc(local, func(r rune) bool {
		switch r {
		case '.', '_', '-', '+':
			return true
		}
		return false
	})
	if len(parts) == 0 {
		return fallbackName, fallbackName
	}

	first := capitalize(parts[0])
	last := fallbackName
	if len(parts) > 1 {
		last = capitalize(parts[len(parts)-1])
	}
	return first, last
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
