package classifier

import (
	"math/rand/v2"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/provenance-lab/origincheck/internal/models"
)

const explanationFallbackRunes = 200

// Jitter returns a small offset added to derived confidences.
type Jitter func() int

// NoJitter pins derived confidences.
func NoJitter() int { return 0 }

// RandomJitter returns offsets in [-3,3].
func RandomJitter() Jitter {
	return func() int { return rand.IntN(7) - 3 }
}

var (
	confidenceLine  = regexp.MustCompile(`(?i)^CONFIDENCE\s*:\s*(\d+)`)
	resultLine      = regexp.MustCompile(`(?i)^RESULT\s*:\s*(.*)$`)
	explanationLine = regexp.MustCompile(`(?i)^EXPLANATION\s*:\s*(.*)$`)
	indicatorsLine  = regexp.MustCompile(`(?i)^INDICATORS\s*:\s*(.*)$`)
)

// Parser turns model text into a ClassifierVerdict.
type Parser struct {
	jitter Jitter
}

// NewParser builds a parser. A nil jitter means no jitter.
func NewParser(j Jitter) *Parser {
	if j == nil {
		j = NoJitter
	}
	return &Parser{jitter: j}
}

// Parse extracts the four labeled lines from raw. When CONFIDENCE is missing
// the confidence is derived, first from verdict phrases in raw and then from
// signals in content; in that case the label follows the derived score
// unless a RESULT line was present.
func (p *Parser) Parse(raw, content string) models.ClassifierVerdict {
	v := models.ClassifierVerdict{Label: models.LabelUncertain, Indicators: []string{}}
	labelSet := false

	for _, line := range strings.Split(raw, "\n") {
		line = cleanLine(line)
		if line == "" {
			continue
		}
		if m := confidenceLine.FindStringSubmatch(line); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				v.Confidence = models.Parsed(n)
			}
			continue
		}
		if m := resultLine.FindStringSubmatch(line); m != nil {
			if l, ok := parseLabel(m[1]); ok {
				v.Label, labelSet = l, true
			}
			continue
		}
		if m := explanationLine.FindStringSubmatch(line); m != nil {
			v.Explanation = strings.TrimSpace(m[1])
			continue
		}
		if m := indicatorsLine.FindStringSubmatch(line); m != nil {
			v.Indicators = splitIndicators(m[1])
		}
	}

	if !v.Confidence.Set() {
		v.Confidence = p.derive(raw, content)
		if !labelSet {
			v.Label = LabelFor(v.Confidence.Value)
		}
	}
	if v.Explanation == "" {
		v.Explanation = fallbackExplanation(raw)
	}
	return v
}

// cleanLine strips markdown emphasis and list markers models like to add.
func cleanLine(line string) string {
	line = strings.TrimSpace(line)
	line = strings.ReplaceAll(line, "**", "")
	line = strings.TrimLeft(line, "#*-> \t")
	return strings.TrimSpace(line)
}

func parseLabel(s string) (models.Label, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer("_", "-", " ", "-").Replace(s)
	switch {
	case strings.Contains(s, "ai-generated"):
		return models.LabelAI, true
	case strings.Contains(s, "human-generated"):
		return models.LabelHuman, true
	case strings.Contains(s, "uncertain"):
		return models.LabelUncertain, true
	}
	return "", false
}

func splitIndicators(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func fallbackExplanation(raw string) string {
	raw = strings.TrimSpace(raw)
	if utf8.RuneCountInString(raw) <= explanationFallbackRunes {
		return raw
	}
	return string([]rune(raw)[:explanationFallbackRunes]) + "..."
}

// LabelFor maps a confidence to a label: above 65 is AI, below 35 human.
func LabelFor(confidence int) models.Label {
	switch {
	case confidence > 65:
		return models.LabelAI
	case confidence < 35:
		return models.LabelHuman
	default:
		return models.LabelUncertain
	}
}

type phraseBand struct {
	name    string
	phrases []string
	lo, hi  int
}

// phraseBands are checked in order against the lowercased model text.
var phraseBands = []phraseBand{
	{name: "phrase:certain-ai", phrases: []string{"kesinlikle ai", "açıkça ai", "net ai", "definitely ai", "clearly ai"}, lo: 90, hi: 99},
	{name: "phrase:likely-ai", phrases: []string{"muhtemelen ai", "büyük ihtimalle ai", "likely ai", "probably ai"}, lo: 70, hi: 89},
	{name: "phrase:undecided", phrases: []string{"belirsiz", "kararsız", "undecided"}, lo: 40, hi: 59},
	{name: "phrase:likely-human", phrases: []string{"muhtemelen insan", "büyük ihtimalle insan", "likely human", "probably human"}, lo: 20, hi: 39},
	{name: "phrase:certain-human", phrases: []string{"kesinlikle insan", "açıkça insan", "definitely human", "clearly human"}, lo: 5, hi: 19},
}

func (p *Parser) derive(raw, content string) models.Confidence {
	text := strings.ToLower(raw)
	for _, b := range phraseBands {
		for _, ph := range b.phrases {
			if strings.Contains(text, ph) {
				return models.Derived(clamp(b.lo+(b.hi-b.lo)/2+p.jitter(), b.lo, b.hi), []string{b.name})
			}
		}
	}

	score, signals := ScoreSignals(content)
	names := make([]string, 0, len(signals))
	for _, s := range signals {
		names = append(names, s.String())
	}
	return models.Derived(clamp(score+p.jitter(), minDerived, maxDerived), names)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
