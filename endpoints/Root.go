package endpoints

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"git.sr.ht/~aondrejcak/wellness-api/kernel"
)

const APIVersion = "1.0.0"

func Root(c *gin.Context) {
	kernel.Success(c, http.StatusOK, gin.H{
		"message": "Welcome to Wellness App API",
		"version": APIVersion,
		"documentation": gin.H{
			"authentication": "/api/auth",
			"experts":        "/api/experts",
			"admin":          "/api/admin",
		},
	})
}
