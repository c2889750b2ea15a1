package websearch

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/provenance-lab/origincheck/internal/models"
)

const defaultInstantEndpoint = "https://api.duckduckgo.com/"

// Field thresholds are independent because related topics and direct
// answers are much noisier than the abstract.
const (
	abstractMinSimilarity = 30
	relatedMinSimilarity  = 15
	answerMinSimilarity   = 20
)

// InstantAnswer queries the keyless DuckDuckGo instant-answer API.
type InstantAnswer struct {
	client   *http.Client
	endpoint string
}

// NewInstantAnswer builds the instant-answer provider.
func NewInstantAnswer(client *http.Client, endpoint string) *InstantAnswer {
	if strings.TrimSpace(endpoint) == "" {
		endpoint = defaultInstantEndpoint
	}
	return &InstantAnswer{client: client, endpoint: endpoint}
}

func (p *InstantAnswer) Name() string { return "duckduckgo-instant" }

func (p *InstantAnswer) Search(ctx context.Context, content string) (models.WebSearchResult, error) {
	return p.Lookup(ctx, quote(LongestSentence(content)), content)
}

type ddgTopic struct {
	Text     string     `json:"Text"`
	FirstURL string     `json:"FirstURL"`
	Name     string     `json:"Name"`
	Topics   []ddgTopic `json:"Topics"`
}

type ddgResponse struct {
	Heading        string     `json:"Heading"`
	AbstractText   string     `json:"AbstractText"`
	AbstractURL    string     `json:"AbstractURL"`
	AbstractSource string     `json:"AbstractSource"`
	Answer         string     `json:"Answer"`
	RelatedTopics  []ddgTopic `json:"RelatedTopics"`
}

// Lookup runs query and scores every response field against content.
func (p *InstantAnswer) Lookup(ctx context.Context, query, content string) (models.WebSearchResult, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("format", "json")
	q.Set("no_html", "1")
	q.Set("skip_disambig", "1")

	var resp ddgResponse
	if err := getJSON(ctx, p.client, p.Name(), p.endpoint+"?"+q.Encode(), nil, &resp); err != nil {
		return models.NotFound(p.Name()), err
	}

	var candidates []models.Source
	if resp.AbstractText != "" {
		if sim := score(resp.AbstractText, content); sim > abstractMinSimilarity {
			title := resp.Heading
			if title == "" {
				title = resp.AbstractSource
			}
			candidates = append(candidates, models.Source{Title: title, URL: resp.AbstractURL, Snippet: resp.AbstractText, Similarity: sim})
		}
	}
	for _, t := range flattenTopics(resp.RelatedTopics) {
		if sim := score(t.Text, content); sim > relatedMinSimilarity {
			candidates = append(candidates, models.Source{Title: topicTitle(t.Text), URL: t.FirstURL, Snippet: t.Text, Similarity: sim})
		}
	}
	if resp.Answer != "" {
		if sim := score(resp.Answer, content); sim > answerMinSimilarity {
			candidates = append(candidates, models.Source{Title: "DuckDuckGo", URL: "https://duckduckgo.com/?q=" + url.QueryEscape(query), Snippet: resp.Answer, Similarity: sim})
		}
	}
	return result(p.Name(), candidates, noisyThresholds), nil
}

func flattenTopics(in []ddgTopic) []ddgTopic {
	var out []ddgTopic
	for _, t := range in {
		if len(t.Topics) > 0 {
			out = append(out, flattenTopics(t.Topics)...)
			continue
		}
		if t.Text != "" {
			out = append(out, t)
		}
	}
	return out
}

func topicTitle(text string) string {
	if i := strings.Index(text, " - "); i > 0 {
		return text[:i]
	}
	return truncateRunes(text, 80)
}
