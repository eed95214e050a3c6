package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/urmzd/homai-zwave/pkg/api/handlers"
	"github.com/urmzd/homai-zwave/pkg/cache"
	"github.com/urmzd/homai-zwave/pkg/device"
	"github.com/urmzd/homai-zwave/pkg/device/schema"
	"github.com/urmzd/homai-zwave/pkg/value"
)

// Router holds the Gin engine and dependencies
type Router struct {
	engine     *gin.Engine
	registry   *value.Registry
	controller device.Controller
	validator  *schema.Validator
	store      *cache.Store
}

// NewRouter creates a new API router. store may be nil, in which case the
// cache save endpoint reports 503.
func NewRouter(registry *value.Registry, controller device.Controller, validator *schema.Validator, store *cache.Store) *Router {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	SetupMiddleware(engine)

	router := &Router{
		engine:     engine,
		registry:   registry,
		controller: controller,
		validator:  validator,
		store:      store,
	}

	router.setupRoutes()

	return router
}

// setupRoutes configures all API routes
func (r *Router) setupRoutes() {
	// Swagger UI
	r.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.engine.GET("/docs", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
	})

	// Health check at root
	healthHandler := handlers.NewHealthHandler(r.controller)
	r.engine.GET("/health", healthHandler.Health)

	// API v1 routes
	v1 := r.engine.Group("/api/v1")
	{
		// Health
		v1.GET("/health", healthHandler.Health)

		valuesHandler := handlers.NewValuesHandler(r.registry)

		// Nodes
		nodes := v1.Group("/nodes")
		{
			nodes.GET("", valuesHandler.ListNodes)
			nodes.GET("/:node/values", valuesHandler.ListValues)
		}

		// Values
		controlHandler := handlers.NewControlHandler(r.registry, r.controller, r.validator)
		eventsHandler := handlers.NewEventsHandler(r.registry)
		values := v1.Group("/values")
		{
			values.GET("/events", eventsHandler.Events)
			values.GET("/:id", valuesHandler.GetValue)
			values.POST("/:id/selection", controlHandler.Select)
			values.POST("/:id/refresh", controlHandler.Refresh)
		}

		// Cache
		cacheHandler := handlers.NewCacheHandler(r.registry, r.controller, r.store)
		v1.GET("/cache", cacheHandler.Export)
		v1.POST("/cache/save", cacheHandler.Save)
	}
}

// Handler returns the underlying HTTP handler.
func (r *Router) Handler() http.Handler {
	return r.engine
}
