package analyze

import (
	"context"
	"errors"

	"github.com/provenance-lab/origincheck/internal/models"
	"github.com/provenance-lab/origincheck/internal/modules/detection/classifier"
	"github.com/provenance-lab/origincheck/internal/modules/detection/imagefp"
	"github.com/provenance-lab/origincheck/internal/modules/system/settings"
)

var (
	ErrEmptyContent    = errors.New("content is empty")
	ErrUnsupportedType = errors.New("unsupported content type")
)

// Searcher looks content up on the web.
type Searcher interface {
	Search(ctx context.Context, content string) models.WebSearchResult
}

// TextClassifier asks a model for a verdict and reads its answer.
type TextClassifier interface {
	Classify(ctx context.Context, content, model, apiKey string) (classifier.Result, error)
	Parse(raw, content string) models.ClassifierVerdict
	Model(id string) classifier.ModelInfo
}

// ImageAnalyzer fingerprints uploaded images.
type ImageAnalyzer interface {
	Analyze(ctx context.Context, id string, data []byte, info imagefp.FileInfo) (models.FinalImageResult, error)
}

// SettingsReader supplies stored per-session preferences.
type SettingsReader interface {
	Get(ctx context.Context, session string) (settings.Settings, error)
}

// TextRequest is one text analysis. Empty Model and APIKey fall back to the
// session's stored settings.
type TextRequest struct {
	Content string
	Model   string
	APIKey  string
	Session string
}

type requestSettings struct {
	Model  string `json:"model"`
	APIKey string `json:"apiKey"`
}

type analyzeRequest struct {
	Content  string             `json:"content"`
	Type     models.ContentType `json:"type"`
	Settings *requestSettings   `json:"settings"`
}
