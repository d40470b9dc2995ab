package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"git.sr.ht/~aondrejcak/wellness-api/kernel"
)

// OriginPolicy decides whether a cross-origin request may proceed. Requests
// without an Origin header never reach it.
type OriginPolicy interface {
	Allow(origin string) bool
}

// AllowListPolicy accepts exact matches only.
type AllowListPolicy struct {
	origins map[string]struct{}
}

func NewAllowListPolicy(origins []string) *AllowListPolicy {
	p := &AllowListPolicy{origins: make(map[string]struct{}, len(origins))}
	for _, o := range origins {
		p.origins[o] = struct{}{}
	}
	return p
}

func (p *AllowListPolicy) Allow(origin string) bool {
	_, ok := p.origins[origin]
	return ok
}

var devOriginMarkers = []string{"localhost", "127.0.0.1", "10.0.2.2"}

// DevelopmentPolicy additionally admits local hosts, the Android emulator
// host and Expo (exp://) origins before deferring to Next.
type DevelopmentPolicy struct {
	Next OriginPolicy
}

func (p DevelopmentPolicy) Allow(origin string) bool {
	if strings.HasPrefix(origin, "exp://") {
		return true
	}
	for _, marker := range devOriginMarkers {
		if strings.Contains(origin, marker) {
			return true
		}
	}
	return p.Next != nil && p.Next.Allow(origin)
}

func NewOriginPolicy(c *kernel.Config) OriginPolicy {
	allowList := NewAllowListPolicy(c.CorsOrigins())
	if c.IsDevelopment() {
		return DevelopmentPolicy{Next: allowList}
	}
	return allowList
}

const CorsRejectedMessage = "Not allowed by CORS"

// CorsMiddleware answers rejected origins with the 403 error envelope before
// any handler runs.
func CorsMiddleware(policy OriginPolicy) gin.HandlerFunc {
	handler := cors.New(cors.Config{
		AllowOriginFunc:           policy.Allow,
		AllowMethods:              []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:              []string{"Content-Type", "Authorization", "X-Requested-With"},
		ExposeHeaders:             []string{"Content-Length", RequestIDHeader, "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials:          true,
		MaxAge:                    12 * time.Hour,
		OptionsResponseStatusCode: http.StatusOK,
	})

	return func(c *gin.Context) {
		// cors would abort with an empty body
		if origin := c.GetHeader("Origin"); origin != "" && !policy.Allow(origin) {
			kernel.Fail(c, http.StatusForbidden, CorsRejectedMessage, nil)
			return
		}
		handler(c)
	}
}
