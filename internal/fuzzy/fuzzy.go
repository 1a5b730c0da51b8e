// Package fuzzy scores approximate string similarity on a 0-100 scale and
// picks the best candidate from a list.
//
// All scorers work on runes, so accented input is measured per character
// rather than per byte. Callers normalize text before scoring.
package fuzzy

import (
	"errors"
	"math"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/garyellow/aulabot-go/internal/stringutil"
)

// ErrNoCandidates is returned by ExtractOne when the choice list is empty.
var ErrNoCandidates = errors.New("fuzzy: no candidates")

// Scorer computes a similarity score in [0,100] between two strings.
type Scorer func(a, b string) int

// Match is the best candidate found by ExtractOne.
type Match struct {
	Choice string
	Index  int
	Score  int
}

// Scorer names accepted in configuration files.
const (
	ScorerRatio     = "ratio"
	ScorerPartial   = "partial"
	ScorerTokenSort = "token_sort"
	ScorerTokenSet  = "token_set"
)

// ScorerByName resolves a configured scorer name. Unknown names return
// (nil, false).
func ScorerByName(name string) (Scorer, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case ScorerRatio:
		return Ratio, true
	case ScorerPartial, "partial_ratio":
		return PartialRatio, true
	case ScorerTokenSort, "token_sort_ratio":
		return TokenSortRatio, true
	case ScorerTokenSet, "token_set_ratio":
		return TokenSetRatio, true
	default:
		return nil, false
	}
}

// Ratio returns round(100 * (1 - lev(a,b) / max(|a|,|b|))).
// Two empty strings score 100; one empty string scores 0.
func Ratio(a, b string) int {
	la, lb := len([]rune(a)), len([]rune(b))
	if la == 0 && lb == 0 {
		return 100
	}
	if la == 0 || lb == 0 {
		return 0
	}
	if a == b {
		return 100
	}
	maxLen := max(la, lb)
	dist := levenshtein.ComputeDistance(a, b)
	return clamp(int(math.Round(100 * (1 - float64(dist)/float64(maxLen)))))
}

// PartialRatio slides the shorter string over the longer one and returns
// the best Ratio of any equal-length window.
func PartialRatio(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) > len(rb) {
		ra, rb = rb, ra
	}
	if len(ra) == 0 {
		return Ratio(a, b)
	}
	short := string(ra)
	best := 0
	for i := 0; i+len(ra) <= len(rb); i++ {
		score := Ratio(short, string(rb[i:i+len(ra)]))
		if score > best {
			best = score
			if best == 100 {
				break
			}
		}
	}
	return best
}

// TokenSortRatio compares the alphabetically sorted tokens of both strings.
func TokenSortRatio(a, b string) int {
	return Ratio(sortedTokens(a), sortedTokens(b))
}

// TokenSetRatio compares the shared tokens against each side's remainder
// and returns the best of the three pairings. Strings with no tokens
// score 0.
func TokenSetRatio(a, b string) int {
	ta, tb := tokenSet(a), tokenSet(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	var common, onlyA, onlyB []string
	for tok := range ta {
		if _, ok := tb[tok]; ok {
			common = append(common, tok)
		} else {
			onlyA = append(onlyA, tok)
		}
	}
	for tok := range tb {
		if _, ok := ta[tok]; !ok {
			onlyB = append(onlyB, tok)
		}
	}
	sort.Strings(common)
	sort.Strings(onlyA)
	sort.Strings(onlyB)

	sect := strings.Join(common, " ")
	combinedA := strings.TrimSpace(sect + " " + strings.Join(onlyA, " "))
	combinedB := strings.TrimSpace(sect + " " + strings.Join(onlyB, " "))

	best := Ratio(combinedA, combinedB)
	if sect != "" {
		best = max(best, Ratio(sect, combinedA), Ratio(sect, combinedB))
	}
	return best
}

// ExtractOne returns the highest scoring choice for query. Ties keep the
// earliest choice. A nil scorer defaults to PartialRatio.
func ExtractOne(query string, choices []string, scorer Scorer) (Match, error) {
	if len(choices) == 0 {
		return Match{}, ErrNoCandidates
	}
	if scorer == nil {
		scorer = PartialRatio
	}

	best := Match{Index: -1, Score: -1}
	for i, choice := range choices {
		score := scorer(query, choice)
		if score > best.Score {
			best = Match{Choice: choice, Index: i, Score: score}
			if score == 100 {
				break
			}
		}
	}
	return best, nil
}

func sortedTokens(s string) string {
	tokens := stringutil.Tokens(s)
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

func tokenSet(s string) map[string]struct{} {
	tokens := stringutil.Tokens(s)
	set := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		set[tok] = struct{}{}
	}
	return set
}

func clamp(score int) int {
	return min(max(score, 0), 100)
}
