// Package corpus matches submitted text against a fixed table of famous
// literary works.
package corpus

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"strings"

	"github.com/provenance-lab/origincheck/internal/models"
	"github.com/provenance-lab/origincheck/internal/modules/detection/similarity"
	"gopkg.in/yaml.v3"
)

//go:embed corpus.yml
var defaultTable []byte

const (
	// ProviderName identifies corpus hits in WebSearchResult.Provider.
	ProviderName = "literary-corpus"

	minMatches    = 3
	minRatio      = 0.4
	baseScore     = 60
	perMatchScore = 10
	maxScore      = 95
)

// Entry is one work in the table.
type Entry struct {
	Author   string   `yaml:"author"`
	Work     string   `yaml:"work"`
	Keywords []string `yaml:"keywords"`
	URL      string   `yaml:"url"`
	Snippet  string   `yaml:"snippet"`

	folded []string
}

// Table is the versioned on-disk shape.
type Table struct {
	Version int     `yaml:"version"`
	Entries []Entry `yaml:"entries"`
}

// Matcher checks content against the table. It is safe for concurrent use.
type Matcher struct {
	version int
	entries []Entry
}

// Default returns a matcher over the embedded table.
func Default() *Matcher {
	m, err := Load(bytes.NewReader(defaultTable))
	if err != nil {
		panic(fmt.Sprintf("corpus: embedded table: %v", err))
	}
	return m
}

// Load parses a YAML table.
func Load(r io.Reader) (*Matcher, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var t Table
	if err := dec.Decode(&t); err != nil {
		return nil, fmt.Errorf("decode corpus table: %w", err)
	}
	for i, e := range t.Entries {
		if strings.TrimSpace(e.Author) == "" || len(e.Keywords) == 0 {
			return nil, fmt.Errorf("corpus entry %d: author and keywords are required", i)
		}
	}
	m := New(t.Entries)
	m.version = t.Version
	return m, nil
}

// New builds a matcher from in-memory entries.
func New(entries []Entry) *Matcher {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		e.folded = make([]string, 0, len(e.Keywords))
		for _, k := range e.Keywords {
			if f := similarity.Key(k); f != "" {
				e.folded = append(e.folded, f)
			}
		}
		out = append(out, e)
	}
	return &Matcher{entries: out}
}

// Version is the table version, 0 for in-memory tables.
func (m *Matcher) Version() int { return m.version }

// Len is the number of entries.
func (m *Matcher) Len() int { return len(m.entries) }

// Match returns a copied verdict when an entry has at least three keyword
// hits covering at least 40% of its keywords. The best-scoring entry wins.
func (m *Matcher) Match(content string) models.WebSearchResult {
	text := similarity.Key(content)
	if text == "" {
		return models.NotFound(ProviderName)
	}

	best, bestCount := -1, 0
	for i, e := range m.entries {
		count := countHits(text, e.folded)
		if !fires(count, len(e.folded)) {
			continue
		}
		if count > bestCount {
			best, bestCount = i, count
		}
	}
	if best < 0 {
		return models.NotFound(ProviderName)
	}

	e := m.entries[best]
	score := baseScore + bestCount*perMatchScore
	if score > maxScore {
		score = maxScore
	}
	return models.WebSearchResult{
		Found:   true,
		Verdict: models.VerdictCopied,
		Sources: []models.Source{{
			Title:      fmt.Sprintf("%s - %s", e.Author, e.Work),
			URL:        e.URL,
			Snippet:    e.Snippet,
			Similarity: score,
		}},
		OriginalAuthor: e.Author,
		Provider:       ProviderName,
	}
}

func countHits(text string, keywords []string) int {
	n := 0
	for _, k := range keywords {
		if strings.Contains(text, k) {
			n++
		}
	}
	return n
}

func fires(count, total int) bool {
	if total == 0 || count < minMatches {
		return false
	}
	return float64(count)/float64(total) >= minRatio
}
