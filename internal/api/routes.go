package api

import (
	"alcyxob/fitlist/internal/domain"
	"alcyxob/fitlist/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetupRoutes(
	router *gin.Engine,
	authService service.AuthService,
	workoutService *service.RecordService[domain.Workout],
	todoService *service.RecordService[domain.Todo],
	liveOpts LiveOptions,
) {
	authHandler := NewAuthHandler(authService)
	workoutHandler := NewRecordHandler[domain.Workout, domain.WorkoutPatch](workoutService, liveOpts)
	todoHandler := NewRecordHandler[domain.Todo, domain.TodoPatch](todoService, liveOpts)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}
	}

	protected := apiV1.Group("")
	protected.Use(AuthMiddleware(authService))
	{
		protected.GET("/me", authHandler.Me)

		registerRecordRoutes(protected.Group("/"+domain.WorkoutCollection), workoutHandler)
		registerRecordRoutes(protected.Group("/"+domain.TodoCollection), todoHandler)
	}
}

func registerRecordRoutes[T domain.Record[T], P domain.Patch](group *gin.RouterGroup, h *RecordHandler[T, P]) {
	group.GET("", h.List)
	group.POST("", h.Create)
	group.GET("/live", h.Live)
	group.PATCH("/:id", h.Update)
	group.DELETE("/:id", h.Delete)
	group.POST("/:id/toggle", h.Toggle)
}
