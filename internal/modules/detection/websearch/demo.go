package websearch

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"io"
	"strings"

	"github.com/provenance-lab/origincheck/internal/models"
	"github.com/provenance-lab/origincheck/internal/modules/detection/similarity"
	"gopkg.in/yaml.v3"
)

//go:embed demo.yml
var demoTable []byte

// DemoEntry is a well-known text answered without any network call.
type DemoEntry struct {
	Phrase     string `yaml:"phrase"`
	Title      string `yaml:"title"`
	URL        string `yaml:"url"`
	Snippet    string `yaml:"snippet"`
	Similarity int    `yaml:"similarity"`
	Author     string `yaml:"author"`
}

// Demo stands in for the primary engine when no key is configured.
type Demo struct {
	entries []DemoEntry
	keys    []string
}

// DefaultDemo loads the embedded demo table.
func DefaultDemo() *Demo {
	d, err := LoadDemo(bytes.NewReader(demoTable))
	if err != nil {
		panic(fmt.Sprintf("websearch: embedded demo table: %v", err))
	}
	return d
}

// LoadDemo parses a YAML demo table.
func LoadDemo(r io.Reader) (*Demo, error) {
	var t struct {
		Version int         `yaml:"version"`
		Entries []DemoEntry `yaml:"entries"`
	}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&t); err != nil {
		return nil, fmt.Errorf("decode demo table: %w", err)
	}
	d := &Demo{entries: t.Entries, keys: make([]string, len(t.Entries))}
	for i, e := range t.Entries {
		d.keys[i] = similarity.Key(e.Phrase)
		if d.keys[i] == "" {
			return nil, fmt.Errorf("demo entry %d: empty phrase", i)
		}
	}
	return d, nil
}

func (d *Demo) Name() string { return "demo" }

func (d *Demo) Search(_ context.Context, content string) (models.WebSearchResult, error) {
	text := similarity.Key(content)
	for i, key := range d.keys {
		if !strings.Contains(text, key) {
			continue
		}
		e := d.entries[i]
		return models.WebSearchResult{
			Found:          true,
			Verdict:        models.VerdictCopied,
			Sources:        []models.Source{{Title: e.Title, URL: e.URL, Snippet: e.Snippet, Similarity: models.ClampPercent(e.Similarity)}},
			OriginalAuthor: e.Author,
			Provider:       d.Name(),
		}, nil
	}
	return models.NotFound(d.Name()), nil
}
