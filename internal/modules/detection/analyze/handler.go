package analyze

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/provenance-lab/origincheck/internal/models"
	"github.com/provenance-lab/origincheck/internal/modules/detection/classifier"
	"github.com/provenance-lab/origincheck/internal/modules/detection/imagefp"
	"github.com/provenance-lab/origincheck/internal/modules/system/settings"
	"github.com/provenance-lab/origincheck/internal/pkg/response"
	"go.uber.org/zap"
)

const (
	// MaxImageSize is the largest accepted upload.
	MaxImageSize = 10 << 20

	sniffLen = 512
)

var imageTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/webp": {},
	"image/gif":  {},
}

type Handler struct {
	svc    *Service
	logger *zap.Logger
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc, logger: svc.logger}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/analyze", h.analyze)
	rg.GET("/analyze/models", h.listModels)
}

func (h *Handler) listModels(c *gin.Context) {
	response.OK(c, gin.H{"models": classifier.Models(), "default": h.svc.DefaultModel()})
}

func (h *Handler) analyze(c *gin.Context) {
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		h.analyzeImage(c)
		return
	}

	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Geçersiz istek gövdesi")
		return
	}
	switch req.Type {
	case "", models.ContentText:
	case models.ContentImage:
		response.BadRequest(c, "Görsel analizi için dosyayı multipart form ile yükleyin")
		return
	case models.ContentVideo:
		response.BadRequest(c, "Video analizi henüz desteklenmiyor")
		return
	default:
		h.fail(c, fmt.Errorf("%w: %q", ErrUnsupportedType, req.Type))
		return
	}

	tr := TextRequest{Content: req.Content, Session: settings.SessionID(c)}
	if req.Settings != nil {
		tr.Model = req.Settings.Model
		tr.APIKey = req.Settings.APIKey
	}
	res, err := h.svc.AnalyzeText(c.Request.Context(), tr)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Result(c, res)
}

func (h *Handler) analyzeImage(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxImageSize+(1<<20))

	fh, err := c.FormFile("image")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			response.BadRequest(c, "Dosya boyutu 10MB'ı aşamaz")
			return
		}
		response.BadRequest(c, "Görsel dosyası bulunamadı")
		return
	}
	if fh.Size > MaxImageSize {
		response.BadRequest(c, "Dosya boyutu 10MB'ı aşamaz")
		return
	}

	f, err := fh.Open()
	if err != nil {
		response.BadRequest(c, "Görsel dosyası okunamadı")
		return
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, MaxImageSize+1))
	if err != nil {
		response.BadRequest(c, "Görsel dosyası okunamadı")
		return
	}
	if len(data) > MaxImageSize {
		response.BadRequest(c, "Dosya boyutu 10MB'ı aşamaz")
		return
	}

	mime := http.DetectContentType(data[:min(len(data), sniffLen)])
	if _, ok := imageTypes[mime]; !ok {
		response.BadRequest(c, "Desteklenmeyen dosya türü. JPEG, PNG, WebP veya GIF yükleyin")
		return
	}

	res, err := h.svc.AnalyzeImage(c.Request.Context(), data, imagefp.FileInfo{
		Name:     fh.Filename,
		Size:     int64(len(data)),
		MimeType: mime,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Result(c, res)
}

func (h *Handler) fail(c *gin.Context, err error) {
	var cerr *classifier.ClassifierError
	switch {
	case errors.Is(err, ErrEmptyContent):
		response.BadRequest(c, "İçerik boş olamaz")
	case errors.Is(err, ErrUnsupportedType):
		response.BadRequest(c, "Desteklenmeyen içerik türü")
	case errors.Is(err, classifier.ErrMissingCredential):
		response.NeedsAPIKey(c, classifier.Message(err))
	case errors.As(err, &cerr):
		response.Error(c, classifier.HTTPStatus(err), classifier.Message(err))
	default:
		h.logger.Error("analysis failed", zap.Error(err))
		response.InternalError(c, "Analiz sırasında bir hata oluştu")
	}
}
