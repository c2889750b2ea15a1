package classifier

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/provenance-lab/origincheck/internal/modules/detection/similarity"
)

// Signal is one contribution to a derived confidence.
type Signal struct {
	Name   string
	Points int
}

func (s Signal) String() string { return fmt.Sprintf("%s:%+d", s.Name, s.Points) }

// Signal weights. The relative order matters more than the exact values.
const (
	weightOpeners          = 35
	weightCadence          = 30
	weightMoral            = 25
	weightPerfectGrammar   = 20
	weightLowEmotion       = 15
	weightRepetition       = 10
	weightUniformSentences = 15
	weightLongSentences    = 10
	weightShortSentences   = -15
	weightLowVocabulary    = 15
	weightSlang            = -20
	weightCasualPunct      = -10
	weightFirstPerson      = -15

	minDerived = 5
	maxDerived = 95

	emotionDensity     = 0.02
	vocabularyRichness = 0.5
	sentenceTarget     = 50
	sentenceTolerance  = 20
	longSentenceAvg    = 80
	shortSentenceAvg   = 20
	garbledTokenRunes  = 25
)

var (
	discourseOpeners = []string{
		"sonuç olarak", "özetle", "bu bağlamda", "öncelikle", "ayrıca", "bununla birlikte",
		"günümüzde", "öte yandan", "belirtmek gerekir ki", "in conclusion", "furthermore",
		"moreover", "additionally", "it is important to note", "in today's world",
		"in summary", "overall,",
	}
	moralPhrases = []string{
		"hikayenin ana fikri", "bu hikaye bize", "ders çıkar", "unutmamalıyız ki",
		"asıl önemli olan", "hayat bize", "the moral of the story", "teaches us",
		"we learn that", "reminds us that",
	}
	emotionWords = map[string]struct{}{
		"harika": {}, "berbat": {}, "nefret": {}, "seviyorum": {}, "sevdim": {}, "mutlu": {},
		"mutluyum": {}, "üzgün": {}, "üzgünüm": {}, "kızgın": {}, "korktum": {}, "vay": {},
		"eyvah": {}, "ah": {}, "bayıldım": {}, "love": {}, "hate": {},
		"amazing": {}, "awful": {}, "wow": {}, "sad": {}, "happy": {}, "angry": {}, "scared": {},
	}
	slangWords = map[string]struct{}{
		"lan": {}, "ya": {}, "abi": {}, "kanka": {}, "valla": {}, "vallahi": {}, "falan": {},
		"filan": {}, "yaa": {}, "lol": {}, "omg": {}, "gonna": {}, "wanna": {}, "kinda": {},
		"btw": {}, "haha": {}, "jk": {}, "dude": {},
	}
	firstPersonPhrases = []string{
		"bence", "bana göre", "sanırım", "düşünüyorum", "hissediyorum", "bana kalırsa",
		"i think", "i feel", "in my opinion", "personally", "i believe",
	}

	sentenceBreak  = regexp.MustCompile(`[.!?]+`)
	paragraphBreak = regexp.MustCompile(`\n\s*\n`)
	doubledPunct   = regexp.MustCompile(`[.,;:!?]{2,}| {2,}`)
	casualPunct    = regexp.MustCompile(`\.{3}|…|[!?]{2,}`)
)

// ScoreSignals sums the weights of every signal found in content. The sum is
// not clamped.
func ScoreSignals(content string) (int, []Signal) {
	lower := strings.ToLower(content)
	words := strings.Fields(similarity.Normalize(content))
	sentences := splitSentences(content)

	var signals []Signal
	add := func(name string, points int) { signals = append(signals, Signal{Name: name, Points: points}) }

	if containsAny(lower, discourseOpeners) {
		add("discourse-openers", weightOpeners)
	}
	if uniformCadence(content) {
		add("paragraph-cadence", weightCadence)
	}
	if containsAny(lower, moralPhrases) {
		add("narrative-moral", weightMoral)
	}
	if perfectGrammar(content, words) {
		add("perfect-grammar", weightPerfectGrammar)
	}
	if len(words) > 0 && float64(countIn(words, emotionWords)+strings.Count(content, "!"))/float64(len(words)) < emotionDensity {
		add("low-emotion", weightLowEmotion)
	}
	if repeatedTrigram(words) {
		add("repetition", weightRepetition)
	}
	if uniformSentenceLength(sentences) {
		add("uniform-sentences", weightUniformSentences)
	}
	if avg, ok := averageRunes(sentences); ok {
		switch {
		case avg > longSentenceAvg:
			add("long-sentences", weightLongSentences)
		case avg < shortSentenceAvg:
			add("short-sentences", weightShortSentences)
		}
	}
	if len(words) > 0 && float64(uniqueCount(words))/float64(len(words)) < vocabularyRichness {
		add("low-vocabulary", weightLowVocabulary)
	}
	if countIn(words, slangWords) > 0 {
		add("slang", weightSlang)
	}
	if casualPunct.MatchString(content) {
		add("casual-punctuation", weightCasualPunct)
	}
	if containsAny(lower, firstPersonPhrases) {
		add("first-person", weightFirstPerson)
	}

	total := 0
	for _, s := range signals {
		total += s.Points
	}
	return total, signals
}

func containsAny(text string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}

func countIn(words []string, set map[string]struct{}) int {
	n := 0
	for _, w := range words {
		if _, ok := set[w]; ok {
			n++
		}
	}
	return n
}

func uniqueCount(words []string) int {
	seen := make(map[string]struct{}, len(words))
	for _, w := range words {
		seen[w] = struct{}{}
	}
	return len(seen)
}

func splitSentences(content string) []string {
	var out []string
	for _, s := range sentenceBreak.Split(content, -1) {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// uniformCadence is true for at least three paragraphs of three to five
// sentences each.
func uniformCadence(content string) bool {
	var paragraphs []string
	for _, p := range paragraphBreak.Split(strings.TrimSpace(content), -1) {
		if p = strings.TrimSpace(p); p != "" {
			paragraphs = append(paragraphs, p)
		}
	}
	if len(paragraphs) < 3 {
		return false
	}
	for _, p := range paragraphs {
		if n := len(splitSentences(p)); n < 3 || n > 5 {
			return false
		}
	}
	return true
}

func perfectGrammar(content string, words []string) bool {
	if len(words) == 0 || doubledPunct.MatchString(content) {
		return false
	}
	for _, w := range words {
		if utf8.RuneCountInString(w) > garbledTokenRunes {
			return false
		}
	}
	return true
}

func repeatedTrigram(words []string) bool {
	seen := make(map[string]struct{})
	for i := 0; i+3 <= len(words); i++ {
		key := strings.Join(words[i:i+3], " ")
		if _, ok := seen[key]; ok {
			return true
		}
		seen[key] = struct{}{}
	}
	return false
}

func uniformSentenceLength(sentences []string) bool {
	if len(sentences) < 2 {
		return false
	}
	for _, s := range sentences {
		d := utf8.RuneCountInString(s) - sentenceTarget
		if d < -sentenceTolerance || d > sentenceTolerance {
			return false
		}
	}
	return true
}

func averageRunes(sentences []string) (int, bool) {
	if len(sentences) == 0 {
		return 0, false
	}
	total := 0
	for _, s := range sentences {
		total += utf8.RuneCountInString(s)
	}
	return total / len(sentences), true
}
