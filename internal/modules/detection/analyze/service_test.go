package analyze

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/provenance-lab/origincheck/internal/models"
	"github.com/provenance-lab/origincheck/internal/modules/detection/classifier"
	"github.com/provenance-lab/origincheck/internal/modules/detection/corpus"
	"github.com/provenance-lab/origincheck/internal/modules/detection/imagefp"
	"github.com/provenance-lab/origincheck/internal/modules/detection/websearch"
	"github.com/provenance-lab/origincheck/internal/modules/system/settings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cileVerse = "Çile gecesinde ruhum yanar\nSonsuzluk ile ecel arasında\nHiçlik azap verir bana"

type fakeBackend struct {
	mu    sync.Mutex
	text  string
	err   error
	calls int
	last  classifier.Request
}

func (f *fakeBackend) Complete(_ context.Context, req classifier.Request) (classifier.Completion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.last = req
	if f.err != nil {
		return classifier.Completion{}, f.err
	}
	return classifier.Completion{Text: f.text, Usage: &models.Usage{TotalTokens: 42}}, nil
}

func (f *fakeBackend) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type staticSearch struct{ res models.WebSearchResult }

func (s staticSearch) Search(context.Context, string) models.WebSearchResult { return s.res }

type fakeSettings struct {
	st  settings.Settings
	err error
}

func (f fakeSettings) Get(context.Context, string) (settings.Settings, error) { return f.st, f.err }

// offlineChain is the default chain with every network endpoint pointing at
// a server that fails the test when called.
func offlineChain(t *testing.T) *websearch.Chain {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected network call: %s", r.URL)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)
	return websearch.NewDefaultChain(websearch.Config{
		InstantEndpoint: srv.URL,
		ScrapeEndpoint:  srv.URL,
		PoetryDelay:     time.Millisecond,
	}, corpus.Default(), nil)
}

func newService(search Searcher, backend *fakeBackend, creds classifier.Credentials, opts ...Option) *Service {
	cls := classifier.New(creds,
		classifier.WithBackend(classifier.ProviderMistral, backend),
		classifier.WithBackend(classifier.ProviderOpenAI, backend),
		classifier.WithJitter(classifier.NoJitter),
	)
	opts = append([]Option{
		WithIDs(func() string { return "test-id" }),
		WithClock(func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }),
	}, opts...)
	return NewService(search, cls, imagefp.New(nil), opts...)
}

func notFoundSearch() staticSearch {
	return staticSearch{res: models.WebSearchResult{Verdict: models.VerdictOriginal, Sources: []models.Source{}}}
}

func TestLoremIpsumWithoutKeys(t *testing.T) {
	backend := &fakeBackend{}
	svc := newService(offlineChain(t), backend, classifier.Credentials{})

	res, err := svc.AnalyzeText(context.Background(), TextRequest{
		Content: "Lorem ipsum dolor sit amet, consectetur adipiscing elit.",
	})
	require.NoError(t, err)
	assert.Equal(t, models.VerdictCopied, res.WebSearch.Verdict)
	assert.Equal(t, models.LabelHuman, res.Label)
	assert.Equal(t, 95, res.Confidence)
	assert.True(t, res.SkippedModel)
	assert.Equal(t, "demo", res.Model)
	assert.Zero(t, backend.Calls())
	assert.Equal(t, "test-id", res.ID)
	assert.Equal(t, "2024-05-01T12:00:00.000Z", res.Timestamp)
}

func TestLiteraryCorpusBeforeNetwork(t *testing.T) {
	backend := &fakeBackend{}
	svc := newService(offlineChain(t), backend, classifier.Credentials{})

	res, err := svc.AnalyzeText(context.Background(), TextRequest{Content: cileVerse})
	require.NoError(t, err)
	assert.Equal(t, models.LabelHuman, res.Label)
	assert.GreaterOrEqual(t, res.Confidence, 90)
	assert.Equal(t, "Necip Fazıl Kısakürek", res.WebSearch.OriginalAuthor)
	assert.True(t, res.SkippedModel)
	assert.Zero(t, backend.Calls())
	assert.Contains(t, res.Sources, "Orijinal yazar: Necip Fazıl Kısakürek")
}

func TestWellFormattedModelAnswer(t *testing.T) {
	backend := &fakeBackend{text: "CONFIDENCE: 82\nRESULT: ai-generated\nEXPLANATION: Düzenli yapı\nINDICATORS: tekdüze üslup, kusursuz dilbilgisi"}
	svc := newService(notFoundSearch(), backend, classifier.Credentials{Mistral: "env-key"})

	res, err := svc.AnalyzeText(context.Background(), TextRequest{Content: "Bugün hava çok güzel ve parkta yürüyüş yaptım."})
	require.NoError(t, err)
	assert.Equal(t, 82, res.Confidence)
	assert.Equal(t, models.LabelAI, res.Label)
	assert.False(t, res.SkippedModel)
	assert.Equal(t, "parsed", res.ConfidenceOrigin)
	assert.Equal(t, "mistral-small-latest", res.Model)
	assert.Equal(t, int64(42), res.Usage.TotalTokens)
	assert.Equal(t, "env-key", backend.last.APIKey)
	assert.Equal(t, []string{
		"mistral-small-latest modeli kullanılarak analiz edildi",
		"tekdüze üslup",
		"kusursuz dilbilgisi",
	}, res.Sources)
	assert.Contains(t, res.Explanation, "Web üzerinde eşleşme bulunamadı")
}

func TestUnparsableAnswerUsesFallback(t *testing.T) {
	content := "Sonuç olarak teknoloji hayatımızı değiştirdi. Ayrıca eğitim de bu süreçten etkilendi."
	raw := "Bu metin bence oldukça düzenli görünüyor ama kesin bir şey söylemek zor."
	backend := &fakeBackend{text: raw}
	svc := newService(notFoundSearch(), backend, classifier.Credentials{Mistral: "k"})

	want := classifier.NewParser(classifier.NoJitter).Parse(raw, content)
	require.Equal(t, models.ConfidenceDerived, want.Confidence.Origin)

	first, err := svc.AnalyzeText(context.Background(), TextRequest{Content: content})
	require.NoError(t, err)
	second, err := svc.AnalyzeText(context.Background(), TextRequest{Content: content})
	require.NoError(t, err)

	assert.Equal(t, want.Confidence.Value, first.Confidence)
	assert.Equal(t, first.Confidence, second.Confidence)
	assert.Equal(t, "derived", first.ConfidenceOrigin)
	assert.False(t, first.SkippedModel)
}

func TestPartialMatchSkipsModel(t *testing.T) {
	search := staticSearch{res: models.WebSearchResult{
		Found:    true,
		Verdict:  models.VerdictPartial,
		Sources:  []models.Source{{Title: "Blog", URL: "https://example.com", Similarity: 74}},
		Provider: "bing",
	}}
	backend := &fakeBackend{}
	svc := newService(search, backend, classifier.Credentials{})

	res, err := svc.AnalyzeText(context.Background(), TextRequest{Content: "Herhangi bir metin"})
	require.NoError(t, err)
	assert.True(t, res.SkippedModel)
	assert.Equal(t, 75, res.Confidence)
	assert.Equal(t, models.LabelUncertain, res.Label)
	assert.Zero(t, backend.Calls())
}

func TestValidationAndCredentials(t *testing.T) {
	backend := &fakeBackend{text: "CONFIDENCE: 10"}
	svc := newService(notFoundSearch(), backend, classifier.Credentials{})

	_, err := svc.AnalyzeText(context.Background(), TextRequest{Content: "  \n "})
	assert.ErrorIs(t, err, ErrEmptyContent)

	_, err = svc.AnalyzeText(context.Background(), TextRequest{Content: "bir metin"})
	assert.ErrorIs(t, err, classifier.ErrMissingCredential)
	assert.Zero(t, backend.Calls())

	_, err = svc.AnalyzeText(context.Background(), TextRequest{Content: "bir metin", APIKey: "req-key"})
	require.NoError(t, err)
	assert.Equal(t, "req-key", backend.last.APIKey)
}

func TestStoredSettingsFallback(t *testing.T) {
	backend := &fakeBackend{text: "CONFIDENCE: 30\nRESULT: human-generated"}
	stored := settings.Defaults()
	stored.DefaultModel = "gpt-4o-mini"
	stored.OpenAIAPIKey = "sk-stored"
	svc := newService(notFoundSearch(), backend, classifier.Credentials{}, WithSettings(fakeSettings{st: stored}))

	res, err := svc.AnalyzeText(context.Background(), TextRequest{Content: "bir metin", Session: "s1"})
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", res.Model)
	assert.Equal(t, "gpt-4o-mini", backend.last.Model)
	assert.Equal(t, "sk-stored", backend.last.APIKey)

	_, err = svc.AnalyzeText(context.Background(), TextRequest{Content: "bir metin", Model: "mistral-large-latest", Session: "s1"})
	assert.ErrorIs(t, err, classifier.ErrMissingCredential, "stored openai key does not serve mistral")
}

func TestStoredSettingsErrorIsIgnored(t *testing.T) {
	backend := &fakeBackend{text: "CONFIDENCE: 30"}
	svc := newService(notFoundSearch(), backend, classifier.Credentials{Mistral: "env"},
		WithSettings(fakeSettings{err: errors.New("store down")}))

	_, err := svc.AnalyzeText(context.Background(), TextRequest{Content: "bir metin"})
	require.NoError(t, err)
	assert.Equal(t, "env", backend.last.APIKey)
}

func TestUpstreamErrorsSurface(t *testing.T) {
	backend := &fakeBackend{err: &classifier.ClassifierError{Kind: classifier.ErrInvalidCredential, Status: 401}}
	svc := newService(notFoundSearch(), backend, classifier.Credentials{Mistral: "bad"})

	_, err := svc.AnalyzeText(context.Background(), TextRequest{Content: "bir metin"})
	assert.ErrorIs(t, err, classifier.ErrInvalidCredential)
}
