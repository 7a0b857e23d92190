package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) pushEnabled() bool {
	return h.webpush != nil && h.webpush.VAPIDPublicKey != "" && h.webpush.VAPIDPrivateKey != ""
}

// GetVAPIDPublicKey returns the key the admin UI subscribes with.
func (h *Handler) GetVAPIDPublicKey(c *gin.Context) {
	if !h.pushEnabled() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "push notifications are not configured"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"public_key": h.webpush.VAPIDPublicKey})
}
