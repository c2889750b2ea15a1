package analyze

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"hash/crc32"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/provenance-lab/origincheck/internal/modules/detection/classifier"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(svc *Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(svc).RegisterRoutes(r.Group(""))
	return r
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func postJSON(r *gin.Engine, body interface{}) *httptest.ResponseRecorder {
	data, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, "/analyze", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func postImage(t *testing.T, r *gin.Engine, name string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("image", name)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("settings", `{}`))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/analyze", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func tinyPNG() []byte {
	chunk := func(typ string, data []byte) []byte {
		var b bytes.Buffer
		_ = binary.Write(&b, binary.BigEndian, uint32(len(data)))
		b.WriteString(typ)
		b.Write(data)
		_ = binary.Write(&b, binary.BigEndian, crc32.ChecksumIEEE(append([]byte(typ), data...)))
		return b.Bytes()
	}
	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:4], 4)
	binary.BigEndian.PutUint32(ihdr[4:8], 3)
	ihdr[8], ihdr[9] = 8, 6

	var b bytes.Buffer
	b.Write([]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'})
	b.Write(chunk("IHDR", ihdr))
	b.Write(chunk("IDAT", nil))
	b.Write(chunk("IEND", nil))
	return b.Bytes()
}

func TestAnalyzeTextEndpoint(t *testing.T) {
	backend := &fakeBackend{text: "CONFIDENCE: 82\nRESULT: ai-generated\nEXPLANATION: x\nINDICATORS: a"}
	r := newRouter(newService(notFoundSearch(), backend, classifier.Credentials{}))

	w := postJSON(r, gin.H{"content": "Bir metin", "type": "text", "settings": gin.H{"apiKey": "k", "model": "gpt-4o-mini"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, true, body["success"])

	res := body["result"].(map[string]interface{})
	assert.Equal(t, float64(82), res["confidence"])
	assert.Equal(t, "ai-generated", res["aiDetection"])
	assert.Equal(t, "gpt-4o-mini", res["model"])
	assert.Equal(t, false, res["skippedModel"])
	assert.NotEmpty(t, res["timestamp"])
	assert.NotEmpty(t, res["sources"])
}

func TestAnalyzeErrors(t *testing.T) {
	cases := []struct {
		name        string
		backendErr  error
		body        gin.H
		status      int
		needsAPIKey bool
		message     string
	}{
		{name: "empty content", body: gin.H{"content": "   "}, status: http.StatusBadRequest},
		{name: "video", body: gin.H{"content": "x", "type": "video"}, status: http.StatusBadRequest, message: "Video analizi henüz desteklenmiyor"},
		{name: "image as json", body: gin.H{"content": "x", "type": "image"}, status: http.StatusBadRequest},
		{name: "unknown type", body: gin.H{"content": "x", "type": "audio"}, status: http.StatusBadRequest, message: "Desteklenmeyen içerik türü"},
		{name: "missing key", body: gin.H{"content": "bir metin"}, status: http.StatusBadRequest, needsAPIKey: true},
		{
			name:       "invalid key",
			backendErr: &classifier.ClassifierError{Kind: classifier.ErrInvalidCredential, Status: 401},
			body:       gin.H{"content": "bir metin", "settings": gin.H{"apiKey": "bad"}},
			status:     http.StatusUnauthorized,
		},
		{
			name:       "bad upstream request",
			backendErr: &classifier.ClassifierError{Kind: classifier.ErrBadUpstreamRequest, Status: 400},
			body:       gin.H{"content": "bir metin", "settings": gin.H{"apiKey": "k"}},
			status:     http.StatusBadRequest,
		},
		{
			name:       "upstream failure",
			backendErr: &classifier.ClassifierError{Kind: classifier.ErrUpstreamFailure, Status: 503},
			body:       gin.H{"content": "bir metin", "settings": gin.H{"apiKey": "k"}},
			status:     http.StatusInternalServerError,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			backend := &fakeBackend{text: "CONFIDENCE: 50", err: tc.backendErr}
			r := newRouter(newService(notFoundSearch(), backend, classifier.Credentials{}))

			w := postJSON(r, tc.body)
			assert.Equal(t, tc.status, w.Code)
			body := decode(t, w)
			assert.NotEmpty(t, body["error"])
			if tc.message != "" {
				assert.Equal(t, tc.message, body["error"])
			}
			if tc.needsAPIKey {
				assert.Equal(t, true, body["needsApiKey"])
			} else {
				assert.NotContains(t, body, "needsApiKey")
			}
		})
	}
}

func TestAnalyzeImageEndpoint(t *testing.T) {
	r := newRouter(newService(notFoundSearch(), &fakeBackend{}, classifier.Credentials{}))

	w := postImage(t, r, "photo.png", tinyPNG())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decode(t, w)["result"].(map[string]interface{})
	assert.Equal(t, "image/png", res["mimeType"])
	assert.Equal(t, "photo.png", res["fileName"])
	assert.Contains(t, []interface{}{"ai-generated", "human-generated", "uncertain"}, res["aiDetection"])
	conf := res["confidence"].(float64)
	assert.GreaterOrEqual(t, conf, float64(5))
	assert.LessOrEqual(t, conf, float64(95))
}

func TestAnalyzeImageRejects(t *testing.T) {
	r := newRouter(newService(notFoundSearch(), &fakeBackend{}, classifier.Credentials{}))

	w := postImage(t, r, "notes.txt", []byte("just some text, not an image"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w)["error"], "Desteklenmeyen dosya türü")

	big := append(tinyPNG(), make([]byte, MaxImageSize)...)
	w = postImage(t, r, "big.png", big)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w)["error"], "10MB")
}

func TestListModels(t *testing.T) {
	r := newRouter(newService(notFoundSearch(), &fakeBackend{}, classifier.Credentials{}))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/analyze/models", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "mistral-small-latest", body["default"])
	assert.Len(t, body["models"], len(classifier.Models()))
}
