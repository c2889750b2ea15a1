package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/provenance-lab/origincheck/internal/models"
	"github.com/provenance-lab/origincheck/internal/modules/detection/corpus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jsonServer(t *testing.T, check func(*http.Request), payload interface{}) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			check(r)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(payload)
	}))
	t.Cleanup(srv.Close)
	return srv
}

const engineContent = "Bu cümle internette aynen yayınlanmış olan uzun bir örnek cümledir. Kısa."

func TestBingRanksAndClassifies(t *testing.T) {
	payload := map[string]interface{}{
		"webPages": map[string]interface{}{
			"value": []map[string]string{
				{"name": "Unrelated", "url": "https://u.example", "snippet": "Tamamen alakasız başka bir içerik"},
				{"name": "Partial", "url": "https://p.example", "snippet": "cümle internette aynen yayınlanmış olan uzun örnek"},
				{"name": "Exact", "url": "https://e.example", "snippet": "Bu cümle internette aynen yayınlanmış olan uzun bir örnek cümledir..."},
			},
		},
	}
	srv := jsonServer(t, func(r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("Ocp-Apim-Subscription-Key"))
		assert.Equal(t, "tr-TR", r.URL.Query().Get("mkt"))
		assert.Equal(t, `"Bu cümle internette aynen yayınlanmış olan uzun bir örnek cümledir"`, r.URL.Query().Get("q"))
	}, payload)

	res, err := NewBing(srv.Client(), srv.URL, "secret", "").Search(context.Background(), engineContent)
	require.NoError(t, err)
	assert.True(t, res.Found)
	assert.Equal(t, models.VerdictCopied, res.Verdict)
	require.Len(t, res.Sources, 2)
	assert.Equal(t, "Exact", res.Sources[0].Title)
	assert.Equal(t, 100, res.Sources[0].Similarity)
	assert.Equal(t, "Partial", res.Sources[1].Title)
}

func TestBingPartialOnly(t *testing.T) {
	payload := map[string]interface{}{
		"webPages": map[string]interface{}{
			"value": []map[string]string{
				{"name": "Partial", "url": "https://p.example", "snippet": "cümle internette aynen yayınlanmış olan uzun örnek"},
			},
		},
	}
	srv := jsonServer(t, nil, payload)
	res, err := NewBing(srv.Client(), srv.URL, "k", "").Search(context.Background(), engineContent)
	require.NoError(t, err)
	assert.True(t, res.Found)
	assert.Equal(t, models.VerdictPartial, res.Verdict)
}

func TestGoogleStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "cx-id", r.URL.Query().Get("cx"))
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	res, err := NewGoogle(srv.Client(), srv.URL, "k", "cx-id").Search(context.Background(), engineContent)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
	assert.False(t, res.Found)
}

func TestGoogleMatches(t *testing.T) {
	srv := jsonServer(t, nil, map[string]interface{}{
		"items": []map[string]string{
			{"title": "Exact", "link": "https://e.example", "snippet": "Bu cümle internette aynen yayınlanmış olan uzun bir örnek cümledir"},
		},
	})
	res, err := NewGoogle(srv.Client(), srv.URL, "k", "cx").Search(context.Background(), engineContent)
	require.NoError(t, err)
	assert.Equal(t, models.VerdictCopied, res.Verdict)
	assert.Equal(t, "google-cse", res.Provider)
}

const verse = "Yaşamak şakaya gelmez büyük bir ciddiyetle yaşayacaksın"

func TestInstantAnswerAbstract(t *testing.T) {
	srv := jsonServer(t, func(r *http.Request) {
		assert.Equal(t, "json", r.URL.Query().Get("format"))
	}, map[string]interface{}{
		"Heading":      "Yaşamaya Dair",
		"AbstractText": verse,
		"AbstractURL":  "https://example.org/yasamaya-dair",
	})

	res, err := NewInstantAnswer(srv.Client(), srv.URL).Search(context.Background(), verse)
	require.NoError(t, err)
	assert.True(t, res.Found)
	assert.Equal(t, models.VerdictCopied, res.Verdict)
	assert.Equal(t, "Yaşamaya Dair", res.Sources[0].Title)
}

func TestInstantAnswerRelatedTopicsPartial(t *testing.T) {
	srv := jsonServer(t, nil, map[string]interface{}{
		"RelatedTopics": []map[string]interface{}{
			{"Name": "Group", "Topics": []map[string]string{
				{"Text": "Yaşamak şakaya gelmez - Nazım Hikmet şiiri", "FirstURL": "https://example.org/nazim"},
			}},
			{"Text": "Alakasız konu başlığı burada", "FirstURL": "https://example.org/x"},
		},
	})

	res, err := NewInstantAnswer(srv.Client(), srv.URL).Search(context.Background(), verse)
	require.NoError(t, err)
	assert.True(t, res.Found)
	assert.Equal(t, models.VerdictPartial, res.Verdict)
	require.Len(t, res.Sources, 1)
	assert.Equal(t, "Yaşamak şakaya gelmez", res.Sources[0].Title)
	assert.Equal(t, 43, res.Sources[0].Similarity)
}

func TestInstantAnswerDirectAnswer(t *testing.T) {
	tests := []struct {
		name    string
		answer  string
		found   bool
		verdict models.SearchVerdict
		sim     int
	}{
		// 3 of 7 tokens shared
		{"above threshold", "Yaşamak şakaya gelmez diyen şair", true, models.VerdictPartial, 43},
		// 1 of 7
		{"below threshold", "Yaşamak güzel şey", false, models.VerdictNotFound, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := jsonServer(t, nil, map[string]interface{}{"Answer": tt.answer})

			res, err := NewInstantAnswer(srv.Client(), srv.URL).Search(context.Background(), verse)
			require.NoError(t, err)
			assert.Equal(t, tt.found, res.Found)
			assert.Equal(t, tt.verdict, res.Verdict)
			if !tt.found {
				assert.Empty(t, res.Sources)
				return
			}
			require.Len(t, res.Sources, 1)
			assert.Equal(t, "DuckDuckGo", res.Sources[0].Title)
			assert.Equal(t, tt.answer, res.Sources[0].Snippet)
			assert.Equal(t, tt.sim, res.Sources[0].Similarity)
			assert.True(t, strings.HasPrefix(res.Sources[0].URL, "https://duckduckgo.com/?q="))
		})
	}
}

func TestScrapeExtractsResults(t *testing.T) {
	content := "Two roads diverged in a yellow wood and sorry I could not travel both"
	target := "https://www.poetryfoundation.org/poems/44272/the-road-not-taken"
	page := fmt.Sprintf(`<html><body>
<div class="result">
  <h2 class="result__title"><a class="result__a" href="//duckduckgo.com/l/?uddg=%s">The Road Not Taken</a></h2>
  <a class="result__snippet" href="#">Two roads diverged in a yellow wood, and sorry I could not travel both</a>
</div>
<div class="result">
  <h2 class="result__title"><a class="result__a" href="https://other.example">Cooking pasta</a></h2>
  <a class="result__snippet" href="#">Boil water and add salt</a>
</div>
</body></html>`, url.QueryEscape(target))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(page))
	}))
	defer srv.Close()

	res, err := NewScrape(srv.Client(), srv.URL, "").Search(context.Background(), content)
	require.NoError(t, err)
	assert.True(t, res.Found)
	assert.Equal(t, models.VerdictCopied, res.Verdict)
	require.Len(t, res.Sources, 1)
	assert.Equal(t, target, res.Sources[0].URL)
	assert.Equal(t, "The Road Not Taken", res.Sources[0].Title)
}

func TestPoetryUsesCorpusBeforeNetwork(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected network call: %s", r.URL)
	}))
	defer srv.Close()

	poem := strings.Join([]string{
		"Bir çile gecesinde ruhum titredi,",
		"Sonsuzluk kapısında ecel bekledi,",
		"Azap dolu bu yolda yalnız kaldım.",
	}, "\n")
	p := NewPoetry(corpus.Default(), NewInstantAnswer(srv.Client(), srv.URL), time.Millisecond, nil)
	res, err := p.Search(context.Background(), poem)
	require.NoError(t, err)
	assert.True(t, res.Found)
	assert.Equal(t, "Necip Fazıl Kısakürek", res.OriginalAuthor)
}

func TestPoetryQueriesWithDelay(t *testing.T) {
	var calls atomic.Int32
	srv := jsonServer(t, func(*http.Request) { calls.Add(1) }, map[string]interface{}{})

	sleeps := 0
	p := NewPoetry(corpus.New(nil), NewInstantAnswer(srv.Client(), srv.URL), time.Second, nil)
	p.sleep = func(context.Context, time.Duration) error { sleeps++; return nil }

	poem := "Gül dalında bülbül öter\nSabah oldu uyandı\nGönlüm sana yandı yine bu gece"
	res, err := p.Search(context.Background(), poem)
	require.NoError(t, err)
	assert.False(t, res.Found)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, 2, sleeps)
}

func TestPoetrySkipsProse(t *testing.T) {
	p := NewPoetry(corpus.Default(), nil, 0, nil)
	res, err := p.Search(context.Background(), "Tek satırlık düz bir metin.")
	require.NoError(t, err)
	assert.False(t, res.Found)
}

func TestVerseQueriesDeduplicated(t *testing.T) {
	q := verseQueries("uzun bir ilk satır burada\nkısa\nkısa iki")
	assert.Equal(t, []string{"uzun bir ilk satır burada", "uzun bir ilk satır burada kısa"}, q)
}
