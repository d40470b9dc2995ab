package middleware

import (
	"errors"
	"fmt"
	"net/http"

	jwt "github.com/appleboy/gin-jwt/v2"
	"github.com/gin-gonic/gin"

	"git.sr.ht/~aondrejcak/wellness-api/assert"
	"git.sr.ht/~aondrejcak/wellness-api/kernel"
	"git.sr.ht/~aondrejcak/wellness-api/store"
)

// ActiveAdmin runs behind the JWT middleware and loads the admin named by the
// token. Unknown admins are rejected with 401, deactivated ones with 403.
func ActiveAdmin(art *kernel.AppRuntime, identityKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		rt := kernel.Runtime(c)
		assert.NotNil(rt, "request runtime is installed before ActiveAdmin")

		rt.StepInto("middleware.admin")

		email, _ := jwt.ExtractClaims(c)[identityKey].(string)
		if email == "" {
			rt.Ef(http.StatusUnauthorized, "unauthorized: token has no identity")
			rt.StepBack()
			return
		}

		admin, err := art.Store.FindAdminByEmail(rt.SpanContext, email)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				rt.Ef(http.StatusUnauthorized, "unauthorized: unknown admin")
			} else {
				rt.E(http.StatusInternalServerError, kernel.WrapHTTPError(http.StatusInternalServerError, err, "failed to authorize admin"))
			}
			rt.StepBack()
			return
		}

		if !admin.IsActive {
			rt.Ef(http.StatusForbidden, "admin account is deactivated")
			rt.StepBack()
			return
		}

		rt.Admin = admin
		rt.StepBack()
		c.Next()
	}
}

// RequirePermission rejects admins lacking key with 403. key must be in the
// loaded permission catalog; routes guarded by a misspelt key fail at startup.
func RequirePermission(art *kernel.AppRuntime, key string) gin.HandlerFunc {
	if !art.Catalog.Has(key) {
		panic(fmt.Sprintf("permission %q is not in catalog version %d", key, art.Catalog.Version))
	}

	return func(c *gin.Context) {
		rt := kernel.Runtime(c)
		assert.NotNil(rt, "request runtime is installed before RequirePermission")

		if rt.Admin == nil || !rt.Admin.HasPermission(key) {
			rt.Ef(http.StatusForbidden, "missing permission %s", key)
			return
		}
		c.Next()
	}
}
