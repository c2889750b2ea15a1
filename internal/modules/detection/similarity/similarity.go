// Package similarity scores how much two text snippets overlap.
package similarity

import (
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// minTokenLen is exclusive: tokens must be longer than this many runes.
const minTokenLen = 2

var lower = cases.Lower(language.Und)

// Normalize lowercases s, replaces punctuation with spaces and collapses
// whitespace.
func Normalize(s string) string {
	s = lower.String(s)
	var b strings.Builder
	b.Grow(len(s))
	space := true
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r):
			b.WriteRune(r)
			space = false
		default:
			if !space {
				b.WriteByte(' ')
				space = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}

// FoldDiacritics strips combining marks so "Kısakürek" and "kisakurek"
// compare equal. Turkish dotless ı has no decomposition and is mapped
// explicitly.
func FoldDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ReplaceAll(out, "ı", "i")
}

// Key is Normalize followed by FoldDiacritics.
func Key(s string) string {
	return FoldDiacritics(Normalize(s))
}

// Tokens returns the tokens of the normalized text longer than two runes.
func Tokens(s string) []string {
	fields := strings.Fields(Normalize(s))
	out := fields[:0]
	for _, f := range fields {
		if utf8.RuneCountInString(f) > minTokenLen {
			out = append(out, f)
		}
	}
	return out
}

// Score returns a 0..100 bag-of-words overlap between a and b. The
// denominator is the larger token count, not the union.
func Score(a, b string) int {
	na, nb := Normalize(a), Normalize(b)
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 100
	}

	ta, tb := Tokens(na), Tokens(nb)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	inB := make(map[string]struct{}, len(tb))
	for _, t := range tb {
		inB[t] = struct{}{}
	}
	common := 0
	for _, t := range ta {
		if _, ok := inB[t]; ok {
			common++
		}
	}

	denom := len(ta)
	if len(tb) > denom {
		denom = len(tb)
	}
	return int(math.Round(float64(common) / float64(denom) * 100))
}
