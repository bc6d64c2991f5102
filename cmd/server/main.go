package main

import (
	"alcyxob/fitlist/internal/api"
	"alcyxob/fitlist/internal/config"
	"alcyxob/fitlist/internal/domain"
	"alcyxob/fitlist/internal/logging"
	"alcyxob/fitlist/internal/repository"
	"alcyxob/fitlist/internal/repository/memory"
	"alcyxob/fitlist/internal/repository/mongo"
	"alcyxob/fitlist/internal/service"
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
)

// @title FitList API
// @version 1.0
// @description Per-user workouts and to-dos with live snapshot subscriptions.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("FATAL: Could not load config: %v", err)
	}
	logOut := logging.Setup(cfg.Log)
	gin.DefaultWriter = logOut
	gin.DefaultErrorWriter = logOut
	log.Println("INFO: Starting FitList server...")

	if cfg.JWT.Secret == "" {
		log.Fatalf("FATAL: jwt.secret (JWT_SECRET) must be set")
	}

	// --- Repositories ---
	var (
		userRepo    repository.UserRepository
		workoutRepo repository.RecordRepository[domain.Workout]
		todoRepo    repository.RecordRepository[domain.Todo]
	)
	switch cfg.Database.Driver {
	case "memory":
		log.Println("WARN: Using in-memory storage; data is lost on restart")
		userRepo = memory.NewUserRepository()
		workoutRepo = memory.NewWorkoutRepository()
		todoRepo = memory.NewTodoRepository()
	default:
		dbClient, err := mongo.ConnectDB(cfg.Database.URI)
		if err != nil {
			log.Fatalf("FATAL: Could not connect to MongoDB: %v", err)
		}
		defer func() {
			log.Println("INFO: Disconnecting MongoDB...")
			if err := mongo.DisconnectDB(dbClient); err != nil {
				log.Printf("ERROR: Failed to disconnect MongoDB: %v", err)
			}
		}()
		appDB := dbClient.Database(cfg.Database.Name)
		log.Println("INFO: Database connection established.")

		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
			defer cancel()
			mongo.EnsureUserIndexes(ctx, appDB.Collection("users"))
			mongo.EnsureRecordIndexes(ctx, appDB.Collection(domain.WorkoutCollection))
			mongo.EnsureRecordIndexes(ctx, appDB.Collection(domain.TodoCollection))
			log.Println("INFO: Index creation process completed.")
		}()

		userRepo = mongo.NewMongoUserRepository(appDB)
		workoutRepo = mongo.NewMongoWorkoutRepository(appDB)
		todoRepo = mongo.NewMongoTodoRepository(appDB)
	}

	// --- Services ---
	authService := service.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.Expiration)
	workoutService := service.NewRecordService(workoutRepo, cfg.Live.Buffer)
	todoService := service.NewRecordService(todoRepo, cfg.Live.Buffer)

	// --- Routes ---
	router := gin.Default() // Includes Logger and Recovery middleware
	api.SetupRoutes(router, authService, workoutService, todoService, api.LiveOptions{
		OriginPatterns: cfg.Server.AllowedOrigins,
		WriteTimeout:   cfg.Live.WriteTimeout,
	})

	// WriteTimeout is left unset: snapshot websockets stay open indefinitely.
	server := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// --- Graceful Shutdown ---
	go func() {
		log.Printf("INFO: Server starting on %s", cfg.Server.Address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("FATAL: ListenAndServe Error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("INFO: Shutting down server...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Printf("ERROR: Server forced to shutdown: %v", err)
	}
	log.Println("INFO: Server exiting.")
}
