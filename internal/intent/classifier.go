// Package intent maps free text onto labels from ordered synonym tables.
//
// The same classifier serves two tables: conversational intents
// (saludo, materias, costos...) and major synonyms (sistemas, industrial...).
package intent

import (
	"github.com/garyellow/aulabot-go/internal/fuzzy"
	"github.com/garyellow/aulabot-go/internal/stringutil"
)

// DefaultThreshold is the minimum accepted score.
const DefaultThreshold = 75

// Category is a label with the phrases that select it.
type Category struct {
	Label    string   `yaml:"label"`
	Synonyms []string `yaml:"synonyms"`
}

// Result is the outcome of a classification. Score is the best score seen
// even when OK is false.
type Result struct {
	Label   string
	Synonym string
	Score   int
	OK      bool
}

// Classifier scores text against every category and returns the best label.
// It is immutable after construction and safe for concurrent use.
type Classifier struct {
	categories []Category
	scorer     fuzzy.Scorer
	threshold  int
}

// NewClassifier builds a classifier over categories in declaration order.
// Synonyms are normalized once here; categories left without synonyms are
// dropped. A nil scorer defaults to fuzzy.PartialRatio and a non-positive
// threshold to DefaultThreshold.
func NewClassifier(categories []Category, threshold int, scorer fuzzy.Scorer) *Classifier {
	if scorer == nil {
		scorer = fuzzy.PartialRatio
	}
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	normalized := make([]Category, 0, len(categories))
	for _, c := range categories {
		syns := make([]string, 0, len(c.Synonyms))
		for _, s := range c.Synonyms {
			if p := stringutil.FullProcess(s); p != "" {
				syns = append(syns, p)
			}
		}
		if c.Label == "" || len(syns) == 0 {
			continue
		}
		normalized = append(normalized, Category{Label: c.Label, Synonyms: syns})
	}

	return &Classifier{categories: normalized, scorer: scorer, threshold: threshold}
}

// Classify returns the best label for text and whether its score reached
// the threshold. Ties between labels go to the one declared first.
func (c *Classifier) Classify(text string) (string, int, bool) {
	r := c.Match(text)
	return r.Label, r.Score, r.OK
}

// Match is Classify with the matched synonym included.
func (c *Classifier) Match(text string) Result {
	query := stringutil.FullProcess(text)
	if query == "" {
		return Result{}
	}

	best := Result{Score: -1}
	for _, cat := range c.categories {
		m, err := fuzzy.ExtractOne(query, cat.Synonyms, c.scorer)
		if err != nil {
			continue
		}
		if m.Score > best.Score {
			best = Result{Label: cat.Label, Synonym: m.Choice, Score: m.Score}
		}
	}
	if best.Score < 0 {
		return Result{}
	}
	if best.Score >= c.threshold {
		best.OK = true
		return best
	}
	return Result{Score: best.Score}
}

// Labels returns the category labels in declaration order.
func (c *Classifier) Labels() []string {
	labels := make([]string, len(c.categories))
	for i, cat := range c.categories {
		labels[i] = cat.Label
	}
	return labels
}

// Threshold returns the acceptance threshold.
func (c *Classifier) Threshold() int {
	return c.threshold
}
