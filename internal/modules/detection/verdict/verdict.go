// Package verdict merges the web search outcome and the model verdict into
// the result returned to the caller.
package verdict

import (
	"fmt"
	"strings"
	"time"

	"github.com/provenance-lab/origincheck/internal/models"
)

const (
	copiedConfidence     = 95
	partialMinConfidence = 75
	neutralConfidence    = 50

	// OriginWebMatch marks confidences decided by a web match alone.
	OriginWebMatch = "web-match"
)

// Input is everything known at the end of the pipeline. Classifier is nil
// when the model call was skipped.
type Input struct {
	ID         string
	Web        models.WebSearchResult
	Classifier *models.ClassifierVerdict
	Model      string
	Usage      *models.Usage
	Now        time.Time
	Elapsed    time.Duration
}

// SkipModel reports whether a web result makes the model call unnecessary.
func SkipModel(web models.WebSearchResult) bool {
	return web.Found && (web.Verdict == models.VerdictCopied || web.Verdict == models.VerdictPartial)
}

// Merge applies the priority rules: a copied match wins outright, a partial
// match raises the confidence floor, otherwise the model decides.
func Merge(in Input) models.FinalResult {
	cv := models.ClassifierVerdict{
		Confidence: models.Derived(neutralConfidence, nil),
		Label:      models.LabelUncertain,
	}
	if in.Classifier != nil {
		cv = *in.Classifier
	}

	out := models.FinalResult{
		ID:               in.ID,
		Model:            in.Model,
		Timestamp:        models.Timestamp(in.Now),
		WebSearch:        in.Web,
		SkippedModel:     in.Classifier == nil && in.Web.Found,
		Usage:            in.Usage,
		ProcessingTimeMs: in.Elapsed.Milliseconds(),
	}
	top, _ := in.Web.TopSource()

	switch {
	case in.Web.Found && in.Web.Verdict == models.VerdictCopied:
		out.Confidence = copiedConfidence
		out.Label = models.LabelHuman
		out.Explanation = copiedExplanation(in.Web, top)
		out.ConfidenceOrigin = OriginWebMatch

	case in.Web.Found && in.Web.Verdict == models.VerdictPartial:
		out.Confidence = max(cv.Confidence.Value, partialMinConfidence)
		out.Label = cv.Label
		out.Explanation = joinExplanation(
			fmt.Sprintf("Metnin bir kısmı web üzerinde bulundu (%%%d benzerlik).", top.Similarity),
			classifierExplanation(in.Classifier),
		)
		out.ConfidenceOrigin = OriginWebMatch
		if in.Classifier != nil {
			out.ConfidenceOrigin = string(cv.Confidence.Origin)
		}

	default:
		out.Confidence = cv.Confidence.Value
		out.Label = cv.Label
		out.Explanation = joinExplanation(
			"Web üzerinde eşleşme bulunamadı, içerik özgün olabilir.",
			cv.Explanation,
		)
		out.ConfidenceOrigin = string(cv.Confidence.Origin)
	}

	out.Confidence = models.ClampPercent(out.Confidence)
	if !out.Label.Valid() {
		out.Label = models.LabelUncertain
	}
	out.Sources = Sources(in.Web, in.Classifier, in.Model)
	return out
}

// Sources lists web evidence first, then the model line and its indicators,
// capped at MaxSources and never empty.
func Sources(web models.WebSearchResult, cv *models.ClassifierVerdict, model string) []string {
	out := make([]string, 0, models.MaxSources)
	if web.Found {
		for _, s := range web.Sources {
			out = append(out, describeSource(s))
		}
		if web.OriginalAuthor != "" {
			out = append(out, "Orijinal yazar: "+web.OriginalAuthor)
		}
	}
	if cv != nil {
		if model != "" {
			out = append(out, fmt.Sprintf("%s modeli kullanılarak analiz edildi", model))
		}
		out = append(out, cv.Indicators...)
	}
	if len(out) > models.MaxSources {
		out = out[:models.MaxSources]
	}
	if len(out) == 0 {
		out = append(out, models.NoMatchSource)
	}
	return out
}

func describeSource(s models.Source) string {
	title := strings.TrimSpace(s.Title)
	if title == "" {
		title = s.URL
	}
	if s.URL != "" && s.URL != title {
		return fmt.Sprintf("%s - %s (%%%d benzerlik)", title, s.URL, s.Similarity)
	}
	return fmt.Sprintf("%s (%%%d benzerlik)", title, s.Similarity)
}

func copiedExplanation(web models.WebSearchResult, top models.Source) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Bu metin web üzerinde bulundu: %q (%%%d benzerlik).", top.Title, top.Similarity)
	if web.OriginalAuthor != "" {
		fmt.Fprintf(&b, " Orijinal yazar: %s.", web.OriginalAuthor)
	}
	b.WriteString(" İçerik mevcut bir kaynaktan kopyalanmış görünüyor; model analizine gerek duyulmadı.")
	return b.String()
}

func classifierExplanation(cv *models.ClassifierVerdict) string {
	if cv == nil {
		return "Model analizine gerek duyulmadı."
	}
	return cv.Explanation
}

func joinExplanation(prefix, rest string) string {
	rest = strings.TrimSpace(rest)
	if rest == "" {
		return prefix
	}
	return prefix + " " + rest
}
