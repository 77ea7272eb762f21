package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// RouterOptions tunes the cross-cutting middleware.
type RouterOptions struct {
	RateLimit   float64 // requests per second, 0 disables limiting
	RateBurst   int
	CORSOrigins []string
}

// NewRouter wires middleware and routes and wraps the engine with CORS.
func NewRouter(h *Handler, opts RouterOptions, log zerolog.Logger) http.Handler {
	metrics := NewMetrics()

	router := gin.New()
	router.Use(RequestID(), Recovery(log), AccessLog(log), metrics.Middleware())

	router.GET("/healthcare/health", h.HealthCheck)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	locations := router.Group("/locations")
	if opts.RateLimit > 0 {
		burst := opts.RateBurst
		if burst < 1 {
			burst = 1
		}
		locations.Use(RateLimit(rate.NewLimiter(rate.Limit(opts.RateLimit), burst)))
	}
	{
		locations.POST("", h.CreateLocation)
		locations.GET("", h.ListLocations)
		locations.POST("/import", h.ImportLocation)
		locations.GET("/:id", h.GetLocation)
		locations.PATCH("/:id", h.UpdateLocation)
		locations.DELETE("/:id", h.DeleteLocation)
	}

	router.NoRoute(func(c *gin.Context) {
		abortWithError(c, http.StatusNotFound, "Cannot "+c.Request.Method+" "+c.Request.URL.Path)
	})

	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	corsHandler := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders: []string{"Content-Type", "Accept", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader},
	})
	return corsHandler.Handler(router)
}
