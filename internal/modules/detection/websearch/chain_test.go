package websearch

import (
	"context"
	"errors"
	"testing"

	"github.com/provenance-lab/origincheck/internal/models"
	"github.com/provenance-lab/origincheck/internal/modules/detection/corpus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	name  string
	res   models.WebSearchResult
	err   error
	calls int
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Search(context.Context, string) (models.WebSearchResult, error) {
	s.calls++
	return s.res, s.err
}

func TestChainStopsAtFirstHit(t *testing.T) {
	miss := &stubProvider{name: "miss", res: models.NotFound("miss")}
	broken := &stubProvider{name: "broken", err: errors.New("boom")}
	hit := &stubProvider{name: "hit", res: models.WebSearchResult{
		Found:   true,
		Verdict: models.VerdictPartial,
		Sources: []models.Source{{Title: "a", Similarity: 40}, {Title: "b", Similarity: 80}, {Title: "c", Similarity: 75}, {Title: "d", Similarity: 10}},
	}}
	after := &stubProvider{name: "after"}

	res := NewChain([]Provider{miss, broken, hit, after}).Search(context.Background(), "text")

	require.True(t, res.Found)
	assert.Equal(t, "hit", res.Provider)
	assert.Equal(t, 1, miss.calls)
	assert.Equal(t, 1, broken.calls)
	assert.Equal(t, 0, after.calls)
	require.Len(t, res.Sources, 3)
	assert.Equal(t, "b", res.Sources[0].Title)
	assert.Equal(t, "c", res.Sources[1].Title)
	assert.Equal(t, "a", res.Sources[2].Title)
}

func TestChainExhaustedIsOriginal(t *testing.T) {
	res := NewChain([]Provider{
		&stubProvider{name: "x", err: errors.New("timeout")},
		&stubProvider{name: "y", res: models.NotFound("y")},
	}).Search(context.Background(), "text")

	assert.False(t, res.Found)
	assert.Equal(t, models.VerdictOriginal, res.Verdict)
	assert.NotNil(t, res.Sources)
}

func TestChainCancelledContext(t *testing.T) {
	p := &stubProvider{name: "p", res: models.WebSearchResult{Found: true, Verdict: models.VerdictCopied}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := NewChain([]Provider{p}).Search(ctx, "text")
	assert.False(t, res.Found)
	assert.Equal(t, 0, p.calls)
}

func TestDefaultChainOrder(t *testing.T) {
	c := NewDefaultChain(Config{}, corpus.Default(), nil)
	assert.Equal(t, []string{"poetry", "literary-corpus", "demo", "duckduckgo-instant", "html-scrape"}, c.Providers())

	c = NewDefaultChain(Config{BingAPIKey: "k", GoogleAPIKey: "g", GoogleEngineID: "cx"}, corpus.Default(), nil)
	assert.Equal(t, []string{"poetry", "literary-corpus", "bing", "duckduckgo-instant", "google-cse", "html-scrape"}, c.Providers())
}

func TestDemoLoremIpsum(t *testing.T) {
	res, err := DefaultDemo().Search(context.Background(), "Lorem ipsum dolor sit amet, consectetur adipiscing elit...")
	require.NoError(t, err)
	assert.True(t, res.Found)
	assert.Equal(t, models.VerdictCopied, res.Verdict)
	assert.Equal(t, "https://www.lipsum.com/", res.Sources[0].URL)

	res, err = DefaultDemo().Search(context.Background(), "Bugün hava çok güzel.")
	require.NoError(t, err)
	assert.False(t, res.Found)
}

func TestLongestSentence(t *testing.T) {
	got := LongestSentence("Kısa. Bu cümle diğerlerinden çok daha uzun bir cümledir! Orta uzunlukta bir cümle.")
	assert.Equal(t, "Bu cümle diğerlerinden çok daha uzun bir cümledir", got)
	assert.Equal(t, "kısa", LongestSentence("  kısa  "))
}

func TestLooksLikeVerse(t *testing.T) {
	assert.True(t, LooksLikeVerse("Gül dalında bülbül\nSabah oldu uyandı\nGönlüm sana yandı"))
	assert.False(t, LooksLikeVerse("Tek satırlık bir metin"))
	assert.False(t, LooksLikeVerse("İki\nsatır"))
	assert.False(t, LooksLikeVerse("Son dakika haber\nBakanlık açıkladı\nYüzde on artış"))
	long := ""
	for i := 0; i < 60; i++ {
		long += "satır satır\n"
	}
	assert.False(t, LooksLikeVerse(long))
}
