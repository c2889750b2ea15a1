package websearch

import (
	"context"
	"time"
	"unicode/utf8"

	"github.com/provenance-lab/origincheck/internal/models"
	"github.com/provenance-lab/origincheck/internal/modules/detection/corpus"
	"go.uber.org/zap"
)

const defaultPoetryDelay = 500 * time.Millisecond

// Poetry specializes the search for verse: it checks the literary corpus
// first, then tries several quoted-line queries against the instant-answer
// API with a politeness delay between them.
type Poetry struct {
	matcher *corpus.Matcher
	instant *InstantAnswer
	delay   time.Duration
	logger  *zap.Logger
	sleep   func(context.Context, time.Duration) error
}

// NewPoetry builds the verse provider. A non-positive delay uses 500ms.
func NewPoetry(matcher *corpus.Matcher, instant *InstantAnswer, delay time.Duration, logger *zap.Logger) *Poetry {
	if delay <= 0 {
		delay = defaultPoetryDelay
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Poetry{matcher: matcher, instant: instant, delay: delay, logger: logger.Named("PoetrySearch"), sleep: sleepCtx}
}

func (p *Poetry) Name() string { return "poetry" }

func (p *Poetry) Search(ctx context.Context, content string) (models.WebSearchResult, error) {
	if !LooksLikeVerse(content) {
		return models.NotFound(p.Name()), nil
	}
	if p.matcher != nil {
		if res := p.matcher.Match(content); res.Found {
			return res, nil
		}
	}
	if p.instant == nil {
		return models.NotFound(p.Name()), nil
	}

	for i, q := range verseQueries(content) {
		if i > 0 {
			if err := p.sleep(ctx, p.delay); err != nil {
				return models.NotFound(p.Name()), err
			}
		}
		res, err := p.instant.Lookup(ctx, quote(q), content)
		if err != nil {
			p.logger.Debug("verse query failed", zap.String("query", q), zap.Error(err))
			continue
		}
		if res.Found {
			res.Provider = p.Name()
			return res, nil
		}
	}
	return models.NotFound(p.Name()), nil
}

// verseQueries returns the first line, the first two lines and the longest
// line, without duplicates.
func verseQueries(content string) []string {
	lines := nonEmptyLines(content)
	if len(lines) == 0 {
		return nil
	}
	longest := lines[0]
	for _, l := range lines[1:] {
		if utf8.RuneCountInString(l) > utf8.RuneCountInString(longest) {
			longest = l
		}
	}
	candidates := []string{lines[0]}
	if len(lines) > 1 {
		candidates = append(candidates, lines[0]+" "+lines[1])
	}
	candidates = append(candidates, longest)

	seen := make(map[string]struct{}, len(candidates))
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		c = truncateRunes(c, maxQueryRunes)
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
