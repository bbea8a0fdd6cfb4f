// Package search provides a small, deterministic, concurrency-safe in-memory
// index over the pole catalog. It is rebuilt from the row store whenever the
// catalog changes and is read-only after construction.
//
// Scoring blends Jaccard similarity between the query token set and each
// document's token set with a substring bonus. Thai text is written without
// spaces, so the substring check is what matches most Thai village names.
package search

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/khayai/repairbot/internal/domain"
)

// Result is a ranked document with its similarity score.
type Result struct {
	ID     string
	Text   string
	Score  float64
	Source domain.Pole
}

// Index is the read side used by services.
type Index interface {
	TopK(query string, k int) []Result
	Len() int
}

// Option customizes index construction.
type Option func(*config)

type config struct {
	stopwords map[string]struct{}
	maxDocs   int
}

// WithStopwords drops the given words from documents and queries.
func WithStopwords(words []string) Option {
	return func(c *config) {
		m := make(map[string]struct{}, len(words))
		for _, w := range words {
			w = strings.ToLower(strings.TrimSpace(w))
			if w != "" {
				m[w] = struct{}{}
			}
		}
		if len(m) > 0 {
			c.stopwords = m
		}
	}
}

// WithMaxDocs caps how many documents are indexed.
func WithMaxDocs(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxDocs = n
		}
	}
}

type doc struct {
	id     string
	text   string
	lower  string
	tokens map[string]struct{}
	pole   domain.Pole
}

type index struct {
	cfg  config
	docs []doc
}

// PoleText is the searchable text of a pole: id, village, type and notes.
func PoleText(p domain.Pole) string {
	parts := make([]string, 0, 5)
	for _, s := range []string{p.PoleID, p.Village, p.PoleType, p.PoleSubtype, p.Notes} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

// NewPoleIndex builds an index over poles.
func NewPoleIndex(poles []domain.Pole, opts ...Option) Index {
	var cfg config
	for _, o := range opts {
		o(&cfg)
	}
	docs := make([]doc, 0, len(poles))
	for _, p := range poles {
		t := normalizeWhitespace(PoleText(p))
		if t == "" {
			continue
		}
		docs = append(docs, doc{
			id:     p.PoleID,
			text:   t,
			lower:  strings.ToLower(t),
			tokens: tokenize(t, cfg.stopwords),
			pole:   p,
		})
		if cfg.maxDocs > 0 && len(docs) >= cfg.maxDocs {
			break
		}
	}
	return &index{cfg: cfg, docs: docs}
}

func (i *index) Len() int { return len(i.docs) }

// TopK returns up to k best-matching documents. k <= 0 defaults to 10.
func (i *index) TopK(q string, k int) []Result {
	q = strings.TrimSpace(normalizeWhitespace(q))
	if len(i.docs) == 0 || q == "" {
		return nil
	}
	if k <= 0 {
		k = 10
	}
	qLower := strings.ToLower(q)
	qTokens := tokenize(q, i.cfg.stopwords)

	type scored struct {
		d     *doc
		score float64
	}
	buf := make([]scored, 0, k*2)
	for n := range i.docs {
		d := &i.docs[n]
		score := jaccard(qTokens, d.tokens)
		if strings.Contains(d.lower, qLower) {
			score += 1
		}
		if score <= 0 {
			continue
		}
		buf = append(buf, scored{d: d, score: score})
	}
	sort.SliceStable(buf, func(a, b int) bool {
		if buf[a].score != buf[b].score {
			return buf[a].score > buf[b].score
		}
		la, lb := utf8.RuneCountInString(buf[a].d.text), utf8.RuneCountInString(buf[b].d.text)
		if la != lb {
			return la < lb
		}
		return buf[a].d.id < buf[b].d.id
	})
	if k > len(buf) {
		k = len(buf)
	}
	out := make([]Result, k)
	for n := 0; n < k; n++ {
		d := buf[n].d
		out[n] = Result{ID: d.id, Text: d.text, Score: buf[n].score, Source: d.pole}
	}
	return out
}

var wordRE = regexp.MustCompile(`[\p{L}\p{M}]+\p{N}*|\p{N}+`)

func tokenize(s string, stop map[string]struct{}) map[string]struct{} {
	words := wordRE.FindAllString(strings.ToLower(s), -1)
	if len(words) == 0 {
		return nil
	}
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		if _, skip := stop[w]; skip {
			continue
		}
		out[w] = struct{}{}
	}
	return out
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}
	over := 0
	for k := range small {
		if _, ok := large[k]; ok {
			over++
		}
	}
	if over == 0 {
		return 0
	}
	return float64(over) / float64(len(a)+len(b)-over)
}

func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
