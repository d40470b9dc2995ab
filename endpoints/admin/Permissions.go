package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.nhat.io/otelsql/attribute"

	"git.sr.ht/~aondrejcak/wellness-api/kernel"
)

// Permissions lists the stored permission catalog.
func Permissions(art *kernel.AppRuntime) gin.HandlerFunc {
	return func(c *gin.Context) {
		rt := c.MustGet("rt").(*kernel.RequestRuntime)
		rt.StepInto("admin.permissions")
		defer rt.StepBack()

		permissions, err := art.Store.ListPermissions(rt.SpanContext)
		if err != nil {
			rt.E(http.StatusInternalServerError, kernel.WrapHTTPError(http.StatusInternalServerError, err, "could not list permissions"))
			return
		}
		rt.Span.SetAttributes(attribute.KeyValue("admin.permissions", len(permissions)))

		kernel.Success(c, http.StatusOK, gin.H{
			"permissions": permissions,
			"version":     art.Catalog.Version,
		})
	}
}
