package bot

import (
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/garyellow/aulabot-go/internal/intent"
	"github.com/garyellow/aulabot-go/internal/stringutil"
)

// Command words, in normalized form.
var (
	resetWords       = []string{"menu", "inicio", "cancelar", "reiniciar", "salir"}
	affirmativeWords = []string{"si", "claro", "ver", "ok", "okay", "va", "dale", "sale", "bueno", "porfa"}
	allWords         = []string{"todas", "todos", "todo"}
	fillerWords      = []string{"por", "favor", "gracias", "las", "materias", "quiero"}
)

// namePrefixes are stripped when the user answers the name question.
// Longest first.
var namePrefixes = [][]string{
	{"mi", "nombre", "es"},
	{"me", "llamo"},
	{"soy"},
}

const maxNameWords = 4

// normalizeWhitespace collapses runs of whitespace into single spaces.
func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// isOnly reports whether every word of s is one of words or a filler.
func isOnly(s string, words []string) bool {
	tokens := stringutil.Tokens(s)
	if len(tokens) == 0 {
		return false
	}
	matched := false
	for _, tok := range tokens {
		switch {
		case slices.Contains(words, tok):
			matched = true
		case slices.Contains(fillerWords, tok):
		default:
			return false
		}
	}
	return matched
}

// isResetCommand matches a reset word anywhere in the message. Inside a
// sub-flow the message must consist of the reset word alone, so an answer
// being taught ("el curso de inicio...") is not mistaken for a command.
func isResetCommand(text string, inSubFlow bool) bool {
	if inSubFlow {
		tokens := stringutil.Tokens(text)
		return len(tokens) == 1 && slices.Contains(resetWords, tokens[0])
	}
	return stringutil.HasToken(text, resetWords...)
}

// minQueryRunes is the shortest normalized message a partial match may come
// from. Shorter messages ("la", "de") are substrings of many synonyms.
const minQueryRunes = 3

// tooShort reports whether text is below minQueryRunes once normalized.
func tooShort(text string) bool {
	return utf8.RuneCountInString(stringutil.FullProcess(text)) < minQueryRunes
}

// acceptMatch drops matches on synonyms of three runes or fewer unless the
// synonym is a whole word of text: "im" would otherwise match "primer".
// Messages shorter than minQueryRunes must also be a whole synonym.
func acceptMatch(r intent.Result, text string) bool {
	if !r.OK {
		return false
	}
	if utf8.RuneCountInString(r.Synonym) > 3 && !tooShort(text) {
		return true
	}
	return stringutil.HasToken(text, r.Synonym)
}

// extractName pulls a person's name out of an answer to "¿Cómo te llamas?".
// explicit reports whether a prefix such as "me llamo" was present.
func extractName(text string) (name string, explicit bool) {
	words := strings.Fields(text)
	norm := make([]string, len(words))
	for i, w := range words {
		norm[i] = stringutil.FullProcess(w)
	}

	for _, prefix := range namePrefixes {
		if len(norm) > len(prefix) && slices.Equal(norm[:len(prefix)], prefix) {
			words = words[len(prefix):]
			explicit = true
			break
		}
	}

	cleaned := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.TrimFunc(w, func(r rune) bool { return !unicode.IsLetter(r) })
		if w == "" {
			continue
		}
		for _, r := range w {
			if !unicode.IsLetter(r) && r != '-' && r != '\'' {
				return "", false
			}
		}
		cleaned = append(cleaned, w)
	}
	if len(cleaned) == 0 || len(cleaned) > maxNameWords {
		return "", false
	}
	// A Caser is stateful; one per call.
	return cases.Title(language.Spanish).String(strings.Join(cleaned, " ")), explicit
}
