// Package analyze runs the provenance pipeline behind POST /analyze.
package analyze

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/provenance-lab/origincheck/internal/models"
	"github.com/provenance-lab/origincheck/internal/modules/detection/imagefp"
	"github.com/provenance-lab/origincheck/internal/modules/detection/verdict"
	"go.uber.org/zap"
)

const defaultSearchTimeout = 20 * time.Second

// Service searches the web first and only asks the model when nothing
// was found.
type Service struct {
	search        Searcher
	classifier    TextClassifier
	images        ImageAnalyzer
	settings      SettingsReader
	searchTimeout time.Duration
	now           func() time.Time
	newID         func() string
	logger        *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l.Named("Analyze")
		}
	}
}

// WithSettings enables the stored-settings fallback for model and key.
func WithSettings(r SettingsReader) Option {
	return func(s *Service) { s.settings = r }
}

// WithSearchTimeout bounds the whole search chain.
func WithSearchTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.searchTimeout = d
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDs replaces the result id generator.
func WithIDs(f func() string) Option {
	return func(s *Service) { s.newID = f }
}

func NewService(search Searcher, cls TextClassifier, images ImageAnalyzer, opts ...Option) *Service {
	s := &Service{
		search:        search,
		classifier:    cls,
		images:        images,
		searchTimeout: defaultSearchTimeout,
		now:           time.Now,
		newID:         uuid.NewString,
		logger:        zap.NewNop(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// AnalyzeText runs search, then the model when search found nothing
// conclusive, and merges both.
func (s *Service) AnalyzeText(ctx context.Context, req TextRequest) (models.FinalResult, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return models.FinalResult{}, ErrEmptyContent
	}
	start := s.now()
	id := s.newID()

	searchCtx, cancel := context.WithTimeout(ctx, s.searchTimeout)
	web := s.search.Search(searchCtx, content)
	cancel()

	logger := s.logger.With(zap.String("id", id))
	logger.Debug("web search done",
		zap.String("provider", web.Provider),
		zap.String("verdict", string(web.Verdict)),
		zap.Int("sources", len(web.Sources)),
	)

	if verdict.SkipModel(web) {
		res := verdict.Merge(verdict.Input{
			ID:      id,
			Web:     web,
			Model:   web.Provider,
			Now:     start,
			Elapsed: s.now().Sub(start),
		})
		logger.Info("analysis short-circuited by web match",
			zap.String("verdict", string(web.Verdict)),
			zap.Int("confidence", res.Confidence),
		)
		return res, nil
	}

	model, apiKey := s.fallbackSettings(ctx, req)
	raw, err := s.classifier.Classify(ctx, content, model, apiKey)
	if err != nil {
		return models.FinalResult{}, err
	}
	cv := s.classifier.Parse(raw.Text, content)

	res := verdict.Merge(verdict.Input{
		ID:         id,
		Web:        web,
		Classifier: &cv,
		Model:      raw.Model.ID,
		Usage:      raw.Usage,
		Now:        start,
		Elapsed:    s.now().Sub(start),
	})
	logger.Info("analysis done",
		zap.String("model", raw.Model.ID),
		zap.String("label", string(res.Label)),
		zap.Int("confidence", res.Confidence),
		zap.String("origin", res.ConfidenceOrigin),
	)
	return res, nil
}

// fallbackSettings fills the model and key the request left empty from the
// session's stored settings.
func (s *Service) fallbackSettings(ctx context.Context, req TextRequest) (string, string) {
	model, apiKey := strings.TrimSpace(req.Model), strings.TrimSpace(req.APIKey)
	if s.settings == nil || (model != "" && apiKey != "") {
		return model, apiKey
	}
	st, err := s.settings.Get(ctx, req.Session)
	if err != nil {
		s.logger.Warn("stored settings unavailable", zap.String("session", req.Session), zap.Error(err))
		return model, apiKey
	}
	if model == "" {
		model = st.DefaultModel
	}
	if apiKey == "" {
		apiKey = st.KeyFor(s.classifier.Model(model).Provider)
	}
	return model, apiKey
}

// DefaultModel is the model used when a request names none.
func (s *Service) DefaultModel() string {
	return s.classifier.Model("").ID
}

// AnalyzeImage fingerprints an uploaded image.
func (s *Service) AnalyzeImage(ctx context.Context, data []byte, info imagefp.FileInfo) (models.FinalImageResult, error) {
	return s.images.Analyze(ctx, s.newID(), data, info)
}
