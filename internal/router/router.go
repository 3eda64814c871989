package router

import (
	"time"

	"golang.org/x/time/rate"

	"github.com/gin-gonic/gin"

	promhandler "github.com/jwalitptl/consult-api/internal/handler/prometheus"
	"github.com/jwalitptl/consult-api/internal/middleware"
)

// Handler registers its routes on the shared API group.
type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

type Router struct {
	engine     *gin.Engine
	prometheus *promhandler.Handler
}

type Config struct {
	RateLimit    rate.Limit
	RateBurst    int
	CORSConfig   middleware.CORSConfig
	MaxBodyBytes int64
	Timeout      time.Duration
}

// NewRouter assembles the gin engine with the full middleware chain and
// registers every handler under /api/v1.
func NewRouter(config Config, handlers ...Handler) *Router {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	prom := promhandler.New()

	rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		Rate:  config.RateLimit,
		Burst: config.RateBurst,
	})

	sizeLimit := middleware.DefaultSizeLimitConfig()
	if config.MaxBodyBytes > 0 {
		sizeLimit.MaxBodySize = config.MaxBodyBytes
	}

	engine.Use(
		middleware.RequestID(),
		middleware.Recovery(),
		middleware.Logger(),
		middleware.CORS(config.CORSConfig),
		middleware.SizeLimit(sizeLimit),
		middleware.Timeout(config.Timeout),
		rateLimiter.RateLimit(),
		prom.Middleware(),
	)

	engine.GET("/metrics", prom.Handler())

	api := engine.Group("/api/v1")
	for _, h := range handlers {
		h.RegisterRoutes(api)
	}

	return &Router{
		engine:     engine,
		prometheus: prom,
	}
}

// Engine exposes the underlying gin engine for the HTTP server.
func (r *Router) Engine() *gin.Engine {
	return r.engine
}
