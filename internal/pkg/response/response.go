package response

import (
	"math/rand/v2"
	"net/http"

	"github.com/gin-gonic/gin"
)

var notFoundMessages = []string{
	"Aradığınız sayfa bulunamadı",
	"Burada analiz edilecek bir şey yok",
	"Bu adres hiçbir kaynakla eşleşmedi",
	"İstek boşluğa düştü, adresi kontrol edin",
}

// OK sends {success:true} together with fields.
func OK(c *gin.Context, fields gin.H) {
	body := gin.H{"success": true}
	for k, v := range fields {
		body[k] = v
	}
	c.JSON(http.StatusOK, body)
}

// Result sends {success:true, result}.
func Result(c *gin.Context, result interface{}) {
	OK(c, gin.H{"result": result})
}

// Error sends {error} with the given status.
func Error(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}

// NeedsAPIKey sends a 400 telling the client to ask for a model key.
func NeedsAPIKey(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": message, "needsApiKey": true})
}

// BadRequest sends a 400 error response.
func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

// Unauthorized sends a 401 error response.
func Unauthorized(c *gin.Context, message string) {
	Error(c, http.StatusUnauthorized, message)
}

// TooManyRequests sends a 429 error response.
func TooManyRequests(c *gin.Context, message string) {
	Error(c, http.StatusTooManyRequests, message)
}

// InternalError sends a 500 error response.
func InternalError(c *gin.Context, message string) {
	Error(c, http.StatusInternalServerError, message)
}

// NotFound sends a 404 error response.
func NotFound(c *gin.Context) {
	Error(c, http.StatusNotFound, notFoundMessages[rand.IntN(len(notFoundMessages))])
}
