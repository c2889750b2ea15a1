package health

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/provenance-lab/origincheck/internal/pkg/kvstore"
)

const (
	checkKey     = "health:check"
	checkTimeout = 2 * time.Second
)

// RegisterRoutes mounts GET /health. The store is read so a lost Redis
// connection shows up as degraded.
func RegisterRoutes(rg *gin.RouterGroup, store kvstore.Store, started time.Time) {
	rg.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), checkTimeout)
		defer cancel()

		_, err := store.Get(ctx, checkKey)
		storeOK := err == nil || errors.Is(err, kvstore.ErrNotFound)

		status := "ok"
		code := http.StatusOK
		if !storeOK {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}

		c.JSON(code, gin.H{
			"status": status,
			"store":  storeOK,
			"uptime": int64(time.Since(started).Seconds()),
		})
	})
}
