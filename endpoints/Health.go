package endpoints

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"git.sr.ht/~aondrejcak/wellness-api/kernel"
)

// Health answers without touching the store so it stays green while the
// database is unreachable.
func Health(art *kernel.AppRuntime) gin.HandlerFunc {
	return func(c *gin.Context) {
		kernel.Success(c, http.StatusOK, gin.H{
			"message":     "Server is running!",
			"timestamp":   time.Now().UTC().Format(time.RFC3339),
			"environment": art.Config.Environment,
		})
	}
}
