package settings

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/provenance-lab/origincheck/internal/pkg/response"
	"go.uber.org/zap"
)

type Handler struct {
	svc    *Service
	logger *zap.Logger
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc, logger: svc.logger}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/settings")
	g.GET("", h.get)
	g.POST("", h.update)
	g.PUT("", h.action)
}

// SessionID reads the caller's session from the request header.
func SessionID(c *gin.Context) string {
	if id := strings.TrimSpace(c.GetHeader(SessionHeader)); id != "" {
		return id
	}
	return DefaultSession
}

func (h *Handler) get(c *gin.Context) {
	st, err := h.svc.Get(c.Request.Context(), SessionID(c))
	if err != nil {
		h.logger.Error("settings load failed", zap.Error(err))
		response.InternalError(c, "Ayarlar yüklenirken hata oluştu")
		return
	}
	response.OK(c, gin.H{"settings": st.Masked()})
}

func (h *Handler) update(c *gin.Context) {
	var partial map[string]json.RawMessage
	if err := c.ShouldBindJSON(&partial); err != nil {
		response.BadRequest(c, "Geçersiz istek gövdesi")
		return
	}
	if _, err := h.svc.Update(c.Request.Context(), SessionID(c), partial); err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			response.BadRequest(c, verr.Error())
			return
		}
		h.logger.Error("settings save failed", zap.Error(err))
		response.InternalError(c, "Ayarlar kaydedilirken hata oluştu")
		return
	}
	response.OK(c, gin.H{"message": "Ayarlar başarıyla kaydedildi"})
}

func (h *Handler) action(c *gin.Context) {
	var req actionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Geçersiz istek gövdesi")
		return
	}
	if req.Action != "getApiKey" {
		response.BadRequest(c, "Geçersiz aksiyon")
		return
	}
	key, err := h.svc.APIKey(c.Request.Context(), SessionID(c))
	if err != nil {
		h.logger.Error("api key lookup failed", zap.Error(err))
		response.InternalError(c, "İşlem gerçekleştirilemedi")
		return
	}
	var apiKey interface{}
	if key != "" {
		apiKey = key
	}
	response.OK(c, gin.H{"apiKey": apiKey})
}
