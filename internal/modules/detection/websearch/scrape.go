package websearch

import (
	"bytes"
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/provenance-lab/origincheck/internal/models"
	"golang.org/x/net/html"
)

const (
	defaultScrapeEndpoint = "https://html.duckduckgo.com/html/"
	defaultUserAgent      = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
	// Scraped snippets are partial and noisy, so almost any overlap counts.
	scrapeMinSimilarity = 25
)

// Scrape fetches a public search results page and extracts result headings
// and snippets from the markup. It is the last resort in the chain.
type Scrape struct {
	client    *http.Client
	endpoint  string
	userAgent string
}

// NewScrape builds the HTML scrape provider.
func NewScrape(client *http.Client, endpoint, userAgent string) *Scrape {
	if strings.TrimSpace(endpoint) == "" {
		endpoint = defaultScrapeEndpoint
	}
	if strings.TrimSpace(userAgent) == "" {
		userAgent = defaultUserAgent
	}
	return &Scrape{client: client, endpoint: endpoint, userAgent: userAgent}
}

func (s *Scrape) Name() string { return "html-scrape" }

func (s *Scrape) Search(ctx context.Context, content string) (models.WebSearchResult, error) {
	q := url.Values{}
	q.Set("q", quote(LongestSentence(content)))

	header := http.Header{}
	header.Set("User-Agent", s.userAgent)
	header.Set("Accept", "text/html")
	body, err := get(ctx, s.client, s.Name(), s.endpoint+"?"+q.Encode(), header)
	if err != nil {
		return models.NotFound(s.Name()), err
	}
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return models.NotFound(s.Name()), err
	}

	var candidates []models.Source
	for _, r := range extractResults(doc) {
		sim := score(r.Snippet, content)
		if t := score(r.Title, content); t > sim {
			sim = t
		}
		if sim > scrapeMinSimilarity {
			r.Similarity = sim
			candidates = append(candidates, r)
		}
	}
	return result(s.Name(), candidates, noisyThresholds), nil
}

// extractResults walks the page collecting result titles (result__a links or
// h2/h3 headings) and the snippet that follows each title.
func extractResults(doc *html.Node) []models.Source {
	var out []models.Source
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch {
			case hasClass(n, "result__a"):
				out = append(out, models.Source{Title: nodeText(n), URL: resolveHref(attr(n, "href"))})
				return
			case hasClass(n, "result__snippet"):
				if len(out) > 0 && out[len(out)-1].Snippet == "" {
					out[len(out)-1].Snippet = nodeText(n)
				} else {
					out = append(out, models.Source{Snippet: nodeText(n)})
				}
				return
			case (n.Data == "h2" || n.Data == "h3") && !containsClass(n, "result__a"):
				if t := nodeText(n); t != "" {
					out = append(out, models.Source{Title: t, URL: firstLink(n)})
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return out
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func containsClass(n *html.Node, class string) bool {
	if n.Type == html.ElementNode && hasClass(n, class) {
		return true
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if containsClass(c, class) {
			return true
		}
	}
	return false
}

func firstLink(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "a" {
		return resolveHref(attr(n, "href"))
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if l := firstLink(c); l != "" {
			return l
		}
	}
	return ""
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	var f func(*html.Node)
	f = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
		}
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			f(c)
		}
	}
	f(n)
	return strings.Join(strings.Fields(b.String()), " ")
}

// resolveHref unwraps DuckDuckGo redirect links (…/l/?uddg=<target>).
func resolveHref(href string) string {
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	return href
}
