package server

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/lumenflow/lumenflow-backend/internal/handlers"
	"github.com/lumenflow/lumenflow-backend/internal/middleware"
	"github.com/lumenflow/lumenflow-backend/internal/observability"
)

type RouterConfig struct {
	Mode            string
	ServiceName     string
	AllowedOrigins  []string
	Metrics         *observability.Metrics
	AuthMiddleware  *middleware.AuthMiddleware
	TeamHandler     *handlers.TeamHandler
	StreamHandler   *handlers.StreamHandler
	WorkItemHandler *handlers.WorkItemHandler
	RequestLog      gin.HandlerFunc
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	if strings.EqualFold(cfg.Mode, "release") {
		gin.SetMode(gin.ReleaseMode)
	}
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "lumenflow"
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(serviceName))
	router.Use(middleware.RequestContext())
	if cfg.RequestLog != nil {
		router.Use(cfg.RequestLog)
	}
	router.Use(middleware.APIMetrics(cfg.Metrics))

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With", "X-Request-ID"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", handlers.HealthCheck)
	router.GET("/metrics", handlers.MetricsHandler)

	api := router.Group("/api")
	api.Use(cfg.AuthMiddleware.RequireAuth())
	{
		api.POST("/teams", cfg.TeamHandler.CreateTeam)
		api.GET("/teams/:id", cfg.TeamHandler.GetTeam)
		api.POST("/teams/:id/members", cfg.TeamHandler.AddMember)
		api.POST("/teams/:id/streams", cfg.TeamHandler.CreateStream)

		api.GET("/streams/:id", cfg.StreamHandler.GetStream)
		api.GET("/streams/:id/work-items", cfg.StreamHandler.ListWorkItems)
		api.POST("/streams/:id/work-items", cfg.StreamHandler.CreateWorkItem)

		api.GET("/work-items/:id", cfg.WorkItemHandler.Get)
		api.POST("/work-items/:id/transition", cfg.WorkItemHandler.Transition)
		api.PATCH("/work-items/:id/energy", cfg.WorkItemHandler.Energy)
		api.POST("/work-items/:id/contributors", cfg.WorkItemHandler.AddContributor)
		api.DELETE("/work-items/:id/contributors/:userId", cfg.WorkItemHandler.RemoveContributor)
		api.POST("/work-items/:id/timer/start", cfg.WorkItemHandler.StartTimer)
		api.POST("/work-items/:id/timer/stop", cfg.WorkItemHandler.StopTimer)
		api.GET("/work-items/:id/duration", cfg.WorkItemHandler.Duration)
		api.GET("/work-items/:id/time-entries", cfg.WorkItemHandler.ListTimeEntries)
		api.DELETE("/work-items/:id", cfg.WorkItemHandler.Delete)

		api.DELETE("/time-entries/:id", cfg.WorkItemHandler.DeleteTimeEntry)
	}

	return router
}
