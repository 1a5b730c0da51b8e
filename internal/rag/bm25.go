// Package rag retrieves short context snippets from the reference tables
// for the external model, using BM25 keyword ranking.
package rag

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/iwilltry42/bm25-go/bm25"

	"github.com/garyellow/aulabot-go/internal/knowledge"
	"github.com/garyellow/aulabot-go/internal/logger"
	"github.com/garyellow/aulabot-go/internal/stringutil"
)

// Document sources.
const (
	SourceQA    = "qa"
	SourceMajor = "major"
)

// Document is one indexed snippet.
type Document struct {
	Source string
	Title  string
	Text   string
}

// Result is a ranked document.
type Result struct {
	Document
	Score      float64 // BM25 score, higher is better
	Rank       int     // 1-indexed
	Confidence float32 // rank-based, 0-1
}

// BM25Index ranks documents built from a catalog. Rebuild replaces the
// whole index; BM25 needs the full corpus for IDF.
type BM25Index struct {
	mu     sync.RWMutex
	okapi  *bm25.BM25Okapi
	docs   []Document
	logger *logger.Logger
}

// NewBM25Index creates an empty index.
func NewBM25Index(log *logger.Logger) *BM25Index {
	return &BM25Index{logger: log.WithModule("rag")}
}

// Documents turns a catalog into indexable snippets: one per general
// answer and one per major.
func Documents(c *knowledge.Catalog) []Document {
	var docs []Document
	for _, q := range c.QA() {
		docs = append(docs, Document{Source: SourceQA, Title: q.Keyword, Text: q.Answer})
	}
	for _, m := range c.Majors() {
		var parts []string
		for _, p := range []string{m.Description, m.Specialty, m.AdmissionProfile, m.GraduateProfile, m.Duration} {
			if p != "" {
				parts = append(parts, p)
			}
		}
		if m.DivisionHead != "" {
			parts = append(parts, "Jefe de división: "+m.DivisionHead)
		}
		if len(parts) == 0 {
			continue
		}
		docs = append(docs, Document{Source: SourceMajor, Title: m.Name, Text: strings.Join(parts, " ")})
	}
	return docs
}

// Rebuild indexes the catalog's documents.
func (idx *BM25Index) Rebuild(c *knowledge.Catalog) error {
	docs := Documents(c)

	var okapi *bm25.BM25Okapi
	if len(docs) > 0 {
		corpus := make([]string, len(docs))
		for i, d := range docs {
			corpus[i] = d.Title + " " + d.Text
		}
		// k1=1.5, b=0.75
		var err error
		okapi, err = bm25.NewBM25Okapi(corpus, tokenize, 1.5, 0.75, nil)
		if err != nil {
			return fmt.Errorf("rag: build BM25 index: %w", err)
		}
	}

	idx.mu.Lock()
	idx.okapi = okapi
	idx.docs = docs
	idx.mu.Unlock()

	idx.logger.WithField("docs", len(docs)).Info("BM25 index built")
	return nil
}

// Search returns up to topN documents with a positive score, best first.
func (idx *BM25Index) Search(query string, topN int) ([]Result, error) {
	if idx == nil {
		return nil, nil
	}
	tokens := tokenize(query)
	if len(tokens) == 0 {
		return nil, nil
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()
	if idx.okapi == nil {
		return nil, nil
	}

	scores, err := idx.okapi.GetScores(tokens)
	if err != nil {
		return nil, fmt.Errorf("rag: BM25 scoring: %w", err)
	}

	var results []Result
	for i, score := range scores {
		if score > 0 && i < len(idx.docs) {
			results = append(results, Result{Document: idx.docs[i], Score: score})
		}
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if topN > 0 && len(results) > topN {
		results = results[:topN]
	}
	for i := range results {
		results[i].Rank = i + 1
		results[i].Confidence = rankConfidence(i + 1)
	}
	return results, nil
}

// Context renders the top results as a bullet list for a prompt. It returns
// "" when nothing matches.
func (idx *BM25Index) Context(query string, topN int) string {
	results, err := idx.Search(query, topN)
	if err != nil {
		idx.logger.WithError(err).Warn("Context search failed")
		return ""
	}
	lines := make([]string, 0, len(results))
	for _, r := range results {
		lines = append(lines, fmt.Sprintf("• %s: %s", r.Title, r.Text))
	}
	return strings.Join(lines, "\n")
}

// Count returns the number of indexed documents.
func (idx *BM25Index) Count() int {
	if idx == nil {
		return 0
	}
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.docs)
}

// rankConfidence maps a rank to 1 / (1 + 0.05*rank): rank 1 → 0.95,
// rank 10 → 0.67. BM25 scores are unbounded, so rank is the proxy.
func rankConfidence(rank int) float32 {
	if rank <= 0 {
		return 0
	}
	return float32(1.0 / (1.0 + 0.05*float64(rank)))
}

// stopwords are frequent Spanish words that carry no topic.
var stopwords = map[string]struct{}{
	"a": {}, "al": {}, "con": {}, "como": {}, "de": {}, "del": {}, "el": {}, "en": {},
	"es": {}, "la": {}, "las": {}, "lo": {}, "los": {}, "mi": {}, "me": {}, "o": {},
	"para": {}, "por": {}, "que": {}, "se": {}, "su": {}, "un": {}, "una": {}, "y": {},
	"hay": {}, "cual": {}, "cuales": {}, "donde": {}, "quiero": {}, "saber": {},
}

// tokenize lowercases, strips accents and drops stopwords.
func tokenize(text string) []string {
	tokens := stringutil.Tokens(text)
	out := tokens[:0]
	for _, tok := range tokens {
		if _, skip := stopwords[tok]; !skip {
			out = append(out, tok)
		}
	}
	return out
}
