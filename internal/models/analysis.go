package models

import "time"

// Label is the provenance verdict attached to analyzed content.
type Label string

const (
	LabelAI        Label = "ai-generated"
	LabelHuman     Label = "human-generated"
	LabelUncertain Label = "uncertain"
)

// Valid reports whether l is one of the three known labels.
func (l Label) Valid() bool {
	switch l {
	case LabelAI, LabelHuman, LabelUncertain:
		return true
	}
	return false
}

// ContentType is the kind of content submitted for analysis.
type ContentType string

const (
	ContentText  ContentType = "text"
	ContentImage ContentType = "image"
	ContentVideo ContentType = "video"
)

// SearchVerdict summarizes what a web lookup found.
type SearchVerdict string

const (
	VerdictCopied   SearchVerdict = "copied"
	VerdictOriginal SearchVerdict = "original"
	VerdictPartial  SearchVerdict = "partial-match"
	VerdictNotFound SearchVerdict = "not-found"
)

// NoMatchSource is inserted into FinalResult.Sources when nothing else applies.
const NoMatchSource = "Web üzerinde eşleşen kaynak bulunamadı"

// MaxSources caps FinalResult.Sources.
const MaxSources = 6

// Source is one web page that matched the submitted content.
type Source struct {
	Title      string `json:"title"`
	URL        string `json:"url"`
	Snippet    string `json:"snippet"`
	Similarity int    `json:"similarity"`
}

// WebSearchResult is produced by exactly one search provider per request.
type WebSearchResult struct {
	Found          bool          `json:"found"`
	Verdict        SearchVerdict `json:"verdict"`
	Sources        []Source      `json:"sources"`
	OriginalAuthor string        `json:"originalAuthor,omitempty"`
	Provider       string        `json:"provider,omitempty"`
}

// NotFound returns an empty result for the named provider.
func NotFound(provider string) WebSearchResult {
	return WebSearchResult{Verdict: VerdictNotFound, Sources: []Source{}, Provider: provider}
}

// TopSource returns the best source, if any.
func (r WebSearchResult) TopSource() (Source, bool) {
	if len(r.Sources) == 0 {
		return Source{}, false
	}
	return r.Sources[0], true
}

// ConfidenceOrigin tells where a classifier confidence came from.
type ConfidenceOrigin string

const (
	ConfidenceParsed  ConfidenceOrigin = "parsed"
	ConfidenceDerived ConfidenceOrigin = "derived"
)

// Confidence is either parsed from model output or derived by the fallback
// scorer. The zero value is unset.
type Confidence struct {
	Value   int              `json:"value"`
	Origin  ConfidenceOrigin `json:"origin"`
	Signals []string         `json:"signals,omitempty"`
}

// Parsed builds a confidence read from model output.
func Parsed(v int) Confidence {
	return Confidence{Value: clampPercent(v), Origin: ConfidenceParsed}
}

// Derived builds a confidence computed from heuristics.
func Derived(v int, signals []string) Confidence {
	return Confidence{Value: clampPercent(v), Origin: ConfidenceDerived, Signals: signals}
}

// Set reports whether the confidence has been resolved.
func (c Confidence) Set() bool { return c.Origin != "" }

// ClassifierVerdict is the structured reading of a model answer.
type ClassifierVerdict struct {
	Confidence  Confidence `json:"confidence"`
	Label       Label      `json:"label"`
	Explanation string     `json:"explanation"`
	Indicators  []string   `json:"indicators"`
}

// Usage mirrors the token accounting returned by a completion provider.
type Usage struct {
	PromptTokens     int64 `json:"promptTokens"`
	CompletionTokens int64 `json:"completionTokens"`
	TotalTokens      int64 `json:"totalTokens"`
}

// FinalResult is returned to the caller for text analysis. It is never
// mutated after construction.
type FinalResult struct {
	ID               string          `json:"id"`
	Confidence       int             `json:"confidence"`
	Label            Label           `json:"aiDetection"`
	Explanation      string          `json:"explanation"`
	Sources          []string        `json:"sources"`
	Model            string          `json:"model"`
	Timestamp        string          `json:"timestamp"`
	WebSearch        WebSearchResult `json:"webSearch"`
	SkippedModel     bool            `json:"skippedModel"`
	ConfidenceOrigin string          `json:"confidenceOrigin,omitempty"`
	Usage            *Usage          `json:"usage,omitempty"`
	ProcessingTimeMs int64           `json:"processingTimeMs"`
}

// ImageFingerprint is derived once from an uploaded byte buffer.
type ImageFingerprint struct {
	MetadataSignals []string `json:"metadataSignals"`
	VisualSignals   []string `json:"visualSignals"`
	DetectedTool    string   `json:"detectedTool,omitempty"`
	Confidence      int      `json:"confidence"`
}

// FinalImageResult is returned to the caller for image analysis.
type FinalImageResult struct {
	ID               string           `json:"id"`
	Confidence       int              `json:"confidence"`
	Label            Label            `json:"aiDetection"`
	Explanation      string           `json:"explanation"`
	Sources          []string         `json:"sources"`
	Model            string           `json:"model"`
	Timestamp        string           `json:"timestamp"`
	Fingerprint      ImageFingerprint `json:"fingerprint"`
	FileName         string           `json:"fileName"`
	FileSize         int64            `json:"fileSize"`
	MimeType         string           `json:"mimeType"`
	ProcessingTimeMs int64            `json:"processingTimeMs"`
}

// Timestamp formats t the way results expose it.
func Timestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}

// ClampPercent limits v to [0,100].
func ClampPercent(v int) int { return clampPercent(v) }

func clampPercent(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
