// Package stringutil provides text normalization helpers shared by the
// matcher, the classifier and the dispatcher.
package stringutil

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize lowercases s and strips combining diacritical marks.
//
// Example:
//
//	Normalize("Programación") returns "programacion"
//	Normalize("Enseñar") returns "ensenar"
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	// transform.Chain keeps state, so a fresh chain is built per call.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, strings.ToLower(s))
	if err != nil {
		return strings.ToLower(s)
	}
	return out
}

// FullProcess normalizes s and replaces every rune that is not a letter or
// digit with a space, collapsing runs of whitespace.
func FullProcess(s string) string {
	return strings.Join(Tokens(s), " ")
}

// Tokens returns the words of the fully processed form of s.
func Tokens(s string) []string {
	return strings.FieldsFunc(Normalize(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// HasToken reports whether any word of s equals one of the given words.
// The words are expected in normalized form.
func HasToken(s string, words ...string) bool {
	for _, tok := range Tokens(s) {
		for _, w := range words {
			if tok == w {
				return true
			}
		}
	}
	return false
}

// IsNumeric checks if a string contains only digits.
// Returns false for empty strings.
func IsNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// numberWords maps normalized Spanish cardinals and ordinals to integers.
var numberWords = map[string]int{
	"uno": 1, "primero": 1, "primer": 1,
	"dos": 2, "segundo": 2,
	"tres": 3, "tercero": 3, "tercer": 3,
	"cuatro": 4, "cuarto": 4,
	"cinco": 5, "quinto": 5,
	"seis": 6, "sexto": 6,
	"siete": 7, "septimo": 7,
	"ocho": 8, "octavo": 8,
	"nueve": 9, "noveno": 9,
	"diez": 10, "decimo": 10,
	"once": 11, "undecimo": 11,
	"doce": 12, "duodecimo": 12,
}

// FirstNumber returns the first number written in s, either as digits
// ("3", "3er") or as a Spanish word ("tercero", "cinco").
func FirstNumber(s string) (int, bool) {
	for _, tok := range Tokens(s) {
		digits := leadingDigits(tok)
		if digits != "" {
			if n, err := strconv.Atoi(digits); err == nil {
				return n, true
			}
		}
		if n, ok := numberWords[tok]; ok {
			return n, true
		}
	}
	return 0, false
}

func leadingDigits(tok string) string {
	end := 0
	for end < len(tok) && tok[end] >= '0' && tok[end] <= '9' {
		end++
	}
	return tok[:end]
}
