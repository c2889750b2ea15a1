package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/provenance-lab/origincheck/internal/models"
	"github.com/provenance-lab/origincheck/internal/modules/detection/similarity"
)

const (
	maxSources     = 3
	minQueryLen    = 20
	maxQueryRunes  = 200
	maxVerseLength = 500
	minVerseLines  = 3
	maxBodyBytes   = 2 << 20
)

// thresholds maps the top similarity of a provider to a verdict.
type thresholds struct {
	copied  int
	partial int
}

var (
	engineThresholds = thresholds{copied: 90, partial: 70}
	noisyThresholds  = thresholds{copied: 60, partial: 35}
)

func (t thresholds) verdict(top int) models.SearchVerdict {
	switch {
	case top >= t.copied:
		return models.VerdictCopied
	case top >= t.partial:
		return models.VerdictPartial
	default:
		return models.VerdictNotFound
	}
}

// result sorts candidates, keeps the top three and maps the best score to a
// verdict.
func result(provider string, candidates []models.Source, t thresholds) models.WebSearchResult {
	sources := topSources(candidates, maxSources)
	if len(sources) == 0 {
		return models.NotFound(provider)
	}
	v := t.verdict(sources[0].Similarity)
	return models.WebSearchResult{
		Found:    v != models.VerdictNotFound,
		Verdict:  v,
		Sources:  sources,
		Provider: provider,
	}
}

// topSources sorts by descending similarity and truncates to limit, or to
// maxSources when limit is 0.
func topSources(in []models.Source, limit int) []models.Source {
	if limit <= 0 {
		limit = maxSources
	}
	out := make([]models.Source, len(in))
	copy(out, in)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Similarity > out[j].Similarity })
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

var sentenceSplit = regexp.MustCompile(`[.!?\n]+`)

// LongestSentence returns the longest sentence over 20 characters, or a
// trimmed prefix of the content when there is none.
func LongestSentence(content string) string {
	best := ""
	for _, s := range sentenceSplit.Split(content, -1) {
		s = strings.TrimSpace(s)
		if utf8.RuneCountInString(s) > minQueryLen && utf8.RuneCountInString(s) > utf8.RuneCountInString(best) {
			best = s
		}
	}
	if best == "" {
		best = strings.TrimSpace(content)
	}
	return truncateRunes(best, maxQueryRunes)
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, "") + `"`
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:n]))
}

var newsKeywords = []string{
	"haber", "açıkladı", "bakanlık", "milyon", "milyar", "yüzde", "gazete",
	"muhabir", "son dakika", "hükümet", "belediye", "according to", "reported",
	"breaking", "percent", "government", "spokesman", "press release",
}

// LooksLikeVerse reports whether content is short, multi-line text with no
// news vocabulary.
func LooksLikeVerse(content string) bool {
	if !strings.Contains(content, "\n") || utf8.RuneCountInString(content) >= maxVerseLength {
		return false
	}
	if len(nonEmptyLines(content)) < minVerseLines {
		return false
	}
	lower := strings.ToLower(content)
	for _, k := range newsKeywords {
		if strings.Contains(lower, k) {
			return false
		}
	}
	return true
}

func nonEmptyLines(content string) []string {
	var lines []string
	for _, l := range strings.Split(content, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

func score(candidate, against string) int {
	return similarity.Score(candidate, against)
}

// getJSON performs a GET and decodes a JSON body into out.
func getJSON(ctx context.Context, client *http.Client, provider, rawURL string, header http.Header, out interface{}) error {
	body, err := get(ctx, client, provider, rawURL, header)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", provider, err)
	}
	return nil
}

func get(ctx context.Context, client *http.Client, provider, rawURL string, header http.Header) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &statusError{Provider: provider, StatusCode: resp.StatusCode, Body: strings.TrimSpace(truncateRunes(string(body), 200))}
	}
	return body, nil
}
