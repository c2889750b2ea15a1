package websearch

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/provenance-lab/origincheck/internal/models"
)

const (
	defaultBingEndpoint   = "https://api.bing.microsoft.com/v7.0/search"
	defaultGoogleEndpoint = "https://www.googleapis.com/customsearch/v1"
	defaultMarket         = "tr-TR"
	engineResultCount     = "10"
	engineMinSimilarity   = 60
)

// Bing queries the Bing Web Search API with the longest sentence quoted.
type Bing struct {
	client   *http.Client
	endpoint string
	apiKey   string
	market   string
}

// NewBing builds the primary engine provider.
func NewBing(client *http.Client, endpoint, apiKey, market string) *Bing {
	if strings.TrimSpace(endpoint) == "" {
		endpoint = defaultBingEndpoint
	}
	if strings.TrimSpace(market) == "" {
		market = defaultMarket
	}
	return &Bing{client: client, endpoint: endpoint, apiKey: apiKey, market: market}
}

func (b *Bing) Name() string { return "bing" }

func (b *Bing) Search(ctx context.Context, content string) (models.WebSearchResult, error) {
	sentence := LongestSentence(content)
	q := url.Values{}
	q.Set("q", quote(sentence))
	q.Set("mkt", b.market)
	q.Set("count", engineResultCount)

	var resp struct {
		WebPages struct {
			Value []struct {
				Name    string `json:"name"`
				URL     string `json:"url"`
				Snippet string `json:"snippet"`
			} `json:"value"`
		} `json:"webPages"`
	}
	header := http.Header{}
	header.Set("Ocp-Apim-Subscription-Key", b.apiKey)
	if err := getJSON(ctx, b.client, b.Name(), b.endpoint+"?"+q.Encode(), header, &resp); err != nil {
		return models.NotFound(b.Name()), err
	}

	var candidates []models.Source
	for _, v := range resp.WebPages.Value {
		sim := score(v.Snippet, sentence)
		if sim > engineMinSimilarity {
			candidates = append(candidates, models.Source{Title: v.Name, URL: v.URL, Snippet: v.Snippet, Similarity: sim})
		}
	}
	return result(b.Name(), candidates, engineThresholds), nil
}

// Google queries a Programmable Search Engine with a key and engine id.
type Google struct {
	client   *http.Client
	endpoint string
	apiKey   string
	engineID string
}

// NewGoogle builds the secondary engine provider.
func NewGoogle(client *http.Client, endpoint, apiKey, engineID string) *Google {
	if strings.TrimSpace(endpoint) == "" {
		endpoint = defaultGoogleEndpoint
	}
	return &Google{client: client, endpoint: endpoint, apiKey: apiKey, engineID: engineID}
}

func (g *Google) Name() string { return "google-cse" }

func (g *Google) Search(ctx context.Context, content string) (models.WebSearchResult, error) {
	sentence := LongestSentence(content)
	q := url.Values{}
	q.Set("key", g.apiKey)
	q.Set("cx", g.engineID)
	q.Set("q", quote(sentence))
	q.Set("num", engineResultCount)

	var resp struct {
		Items []struct {
			Title   string `json:"title"`
			Link    string `json:"link"`
			Snippet string `json:"snippet"`
		} `json:"items"`
	}
	if err := getJSON(ctx, g.client, g.Name(), g.endpoint+"?"+q.Encode(), nil, &resp); err != nil {
		return models.NotFound(g.Name()), err
	}

	var candidates []models.Source
	for _, it := range resp.Items {
		sim := score(it.Snippet, sentence)
		if sim > engineMinSimilarity {
			candidates = append(candidates, models.Source{Title: it.Title, URL: it.Link, Snippet: it.Snippet, Similarity: sim})
		}
	}
	return result(g.Name(), candidates, engineThresholds), nil
}
