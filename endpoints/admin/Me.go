package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"git.sr.ht/~aondrejcak/wellness-api/assert"
	"git.sr.ht/~aondrejcak/wellness-api/kernel"
)

func Me(c *gin.Context) {
	rt := c.MustGet("rt").(*kernel.RequestRuntime)
	assert.NotNil(rt.Admin, "rt.Admin != nil")

	kernel.Success(c, http.StatusOK, gin.H{"admin": rt.Admin})
}
