package admin

import (
	"errors"
	"fmt"
	"time"

	jwt "github.com/appleboy/gin-jwt/v2"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"git.sr.ht/~aondrejcak/wellness-api/kernel"
	"git.sr.ht/~aondrejcak/wellness-api/middleware"
	"git.sr.ht/~aondrejcak/wellness-api/models"
	"git.sr.ht/~aondrejcak/wellness-api/store"
)

const (
	IdentityKey            = "email"
	ManageAdminsPermission = "manage_admins"
)

// RegisterController mounts /admin under rg. Login and refresh are public,
// everything else needs a valid token for an active admin.
func RegisterController(rg *gin.RouterGroup, art *kernel.AppRuntime) error {
	auth, err := NewJWT(art)
	if err != nil {
		return fmt.Errorf("initializing admin jwt: %w", err)
	}

	g := rg.Group("/admin")
	g.POST("/login", auth.LoginHandler)
	g.GET("/refresh_token", auth.RefreshHandler)

	g.Use(auth.MiddlewareFunc())
	g.Use(middleware.ActiveAdmin(art, IdentityKey))
	{
		g.GET("/me", Me)
		g.GET("/permissions", middleware.RequirePermission(art, ManageAdminsPermission), Permissions(art))
	}
	return nil
}

type login struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

var errAuthUnavailable = errors.New("authentication is temporarily unavailable")

func NewJWT(art *kernel.AppRuntime) (*jwt.GinJWTMiddleware, error) {
	c := art.Config

	return jwt.New(&jwt.GinJWTMiddleware{
		Realm:       c.JWTRealm,
		Key:         c.JWTSecret,
		Timeout:     c.JWTTimeout,
		MaxRefresh:  c.JWTTimeout,
		IdentityKey: IdentityKey,

		TokenLookup:   "header: Authorization",
		TokenHeadName: "Bearer",
		TimeFunc:      time.Now,

		Authenticator: func(ctx *gin.Context) (interface{}, error) {
			return authenticate(art, ctx)
		},
		PayloadFunc: func(data interface{}) jwt.MapClaims {
			admin, ok := data.(*models.Admin)
			if !ok {
				return jwt.MapClaims{}
			}
			return jwt.MapClaims{
				IdentityKey: admin.Email,
				"role":      string(admin.Role),
			}
		},
		IdentityHandler: func(ctx *gin.Context) interface{} {
			return jwt.ExtractClaims(ctx)[IdentityKey]
		},

		LoginResponse:   tokenResponse,
		RefreshResponse: tokenResponse,
		Unauthorized: func(ctx *gin.Context, code int, message string) {
			kernel.Fail(ctx, code, message, nil)
		},
	})
}

func authenticate(art *kernel.AppRuntime, c *gin.Context) (*models.Admin, error) {
	rt := kernel.Runtime(c)
	if rt != nil {
		rt.StepInto("admin.login")
		defer rt.StepBack()
	}

	var body login
	if err := c.ShouldBindJSON(&body); err != nil {
		return nil, jwt.ErrMissingLoginValues
	}

	admin, err := art.Store.FindAdminByEmail(c.Request.Context(), body.Email)
	if errors.Is(err, store.ErrNotFound) {
		return nil, jwt.ErrFailedAuthentication
	}
	if err != nil {
		log.Error().Err(err).Msg("admin login lookup failed")
		if rt != nil {
			_ = rt.MakeError(err)
		}
		return nil, errAuthUnavailable
	}

	if !admin.IsActive || !art.Passwords.Verify(body.Password, admin.PasswordHash) {
		return nil, jwt.ErrFailedAuthentication
	}
	return admin, nil
}

func tokenResponse(c *gin.Context, code int, token string, expire time.Time) {
	kernel.Success(c, code, gin.H{
		"token":  token,
		"expire": expire.UTC().Format(time.RFC3339),
	})
}
