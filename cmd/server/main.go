package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"peakform/training-engine/internal/api"
	"peakform/training-engine/internal/config"
	"peakform/training-engine/internal/engine"
	"peakform/training-engine/internal/repository/mongo"
	"peakform/training-engine/internal/service"
	"peakform/training-engine/internal/storage"

	"github.com/gin-gonic/gin"
)

func main() {
	log.Println("Starting Training Engine Server...")

	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("FATAL: Could not load config: %v", err)
	}
	log.Println("Configuration loaded.")

	// --- Database Connection ---
	dbClient, err := mongo.ConnectDB(cfg.Database.URI)
	if err != nil {
		log.Fatalf("FATAL: Could not connect to MongoDB: %v", err)
	}
	defer func() {
		log.Println("Disconnecting MongoDB...")
		if err := mongo.DisconnectDB(dbClient); err != nil {
			log.Printf("ERROR: Failed to disconnect MongoDB: %v", err)
		}
	}()
	appDB := dbClient.Database(cfg.Database.Name)
	log.Println("Database connection established.")

	// --- Ensure Indexes ---
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()
		mongo.EnsureUserIndexes(ctx, appDB.Collection("users"))
		mongo.EnsureProgramIndexes(ctx, appDB.Collection("programs"))
		mongo.EnsureEnrollmentIndexes(ctx, appDB.Collection("enrollments"))
		mongo.EnsureProgressRecordIndexes(ctx, appDB.Collection("progress_records"))
		log.Println("Index creation process completed.")
	}()

	// --- Initialize Storage ---
	log.Println("Initializing media storage...")
	mediaStorage, err := storage.NewS3Storage(cfg.S3)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize S3 storage: %v", err)
	}

	// --- Initialize Repositories ---
	log.Println("Initializing repositories...")
	userRepo := mongo.NewMongoUserRepository(appDB)
	programRepo := mongo.NewMongoProgramRepository(appDB)
	enrollmentRepo := mongo.NewMongoEnrollmentRepository(appDB)
	progressRepo := mongo.NewMongoProgressRecordRepository(appDB)
	profileRepo := mongo.NewMongoProfileRepository(appDB)

	// --- Initialize Engine & Services ---
	log.Println("Initializing engine...")
	policy := engine.DefaultPolicy()
	if cfg.Engine.MaxActivePrograms > 0 {
		policy.MaxActivePrograms = cfg.Engine.MaxActivePrograms
	}
	if cfg.Engine.RecommendationCooldown > 0 {
		policy.RecommendationCooldown = cfg.Engine.RecommendationCooldown
	}
	if cfg.Engine.WindowWeeks > 0 {
		policy.WindowWeeks = cfg.Engine.WindowWeeks
	}
	eng := engine.New(programRepo, enrollmentRepo, progressRepo, profileRepo, policy)
	eng.Subscribe(func(kind engine.ChangeKind) {
		log.Printf("Engine recomputed after %s change", kind)
	})

	authService := service.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.Expiration)

	// --- Initialize Gin Engine ---
	router := gin.Default()

	// --- Setup Routes ---
	log.Println("Setting up API routes...")
	authHandler := api.NewAuthHandler(authService)
	programHandler := api.NewProgramHandler(programRepo, eng, mediaStorage)
	sessionHandler := api.NewSessionHandler(eng)
	api.SetupRoutes(router, cfg.JWT.Secret, authHandler, programHandler, sessionHandler)

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	log.Printf("Server starting on %s", cfg.Server.Address)

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("FATAL: ListenAndServe Error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Fatalf("FATAL: Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting.")
}
