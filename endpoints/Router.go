package endpoints

import (
	"fmt"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"git.sr.ht/~aondrejcak/wellness-api/endpoints/admin"
	"git.sr.ht/~aondrejcak/wellness-api/kernel"
	"git.sr.ht/~aondrejcak/wellness-api/middleware"
)

// Registrar fills a route group owned by another module, such as the auth
// or experts handlers.
type Registrar func(rg *gin.RouterGroup, art *kernel.AppRuntime)

type Mounts struct {
	Auth    []Registrar
	Experts []Registrar
}

// NewRouter builds the engine: the middleware pipeline in its fixed order,
// the public endpoints and the /api groups.
func NewRouter(art *kernel.AppRuntime, mounts Mounts) (*gin.Engine, error) {
	c := art.Config

	r := gin.New()
	if err := r.SetTrustedProxies(c.TrustedProxies); err != nil {
		return nil, fmt.Errorf("setting trusted proxies: %w", err)
	}

	r.Use(middleware.Recovery())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CorsMiddleware(middleware.NewOriginPolicy(c)))
	r.Use(gzip.Gzip(gzip.DefaultCompression))
	r.Use(middleware.BodyLimit(c.BodyLimit))
	r.Use(middleware.AccessLog(c))
	r.Use(otelgin.Middleware(c.ServiceName))
	r.Use(middleware.TracerMiddleware(art))
	r.Use(middleware.RateLimiter(c))
	r.Use(middleware.ErrorHandler(art))

	r.NoRoute(middleware.NotFound)

	r.GET("/health", Health(art))
	r.GET("/", Root)
	if c.MetricsExporter == "prometheus" {
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}
	r.Static("/uploads", c.UploadsDir)

	api := r.Group("/api")

	auth := api.Group("/auth")
	for _, register := range mounts.Auth {
		register(auth, art)
	}
	experts := api.Group("/experts")
	for _, register := range mounts.Experts {
		register(experts, art)
	}

	if err := admin.RegisterController(api, art); err != nil {
		return nil, err
	}

	return r, nil
}
