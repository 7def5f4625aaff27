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

	"groupfit/session-engine/internal/api"
	"groupfit/session-engine/internal/config"
	"groupfit/session-engine/internal/notify"
	"groupfit/session-engine/internal/repository/mongo"
	"groupfit/session-engine/internal/seed"
	"groupfit/session-engine/internal/service"
	"groupfit/session-engine/internal/storage"

	"github.com/gin-gonic/gin"
)

func main() {
	log.Println("Starting Session Engine Server...")

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
	log.Println("Ensuring database indexes...")
	go func() { // Run index creation concurrently/in background
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()
		mongo.EnsureClientIndexes(ctx, appDB.Collection("clients"))
		mongo.EnsureEquipmentIndexes(ctx, appDB.Collection("equipment"))
		mongo.EnsureExerciseIndexes(ctx, appDB.Collection("exercises"))
		mongo.EnsureProgramIndexes(ctx, appDB.Collection("programs"))
		mongo.EnsureSessionIndexes(ctx, appDB.Collection("sessions"))
		mongo.EnsureSessionStateIndexes(ctx, appDB.Collection("session_states"))
		mongo.EnsureDecisionIndexes(ctx, appDB.Collection("decisions"))
		mongo.EnsureAlertIndexes(ctx, appDB.Collection("alerts"))
		log.Println("Index creation process completed.")
	}()

	// --- Initialize Storage ---
	log.Println("Initializing media storage service...")
	mediaStorage, err := storage.NewS3Storage(cfg.S3)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize S3 storage: %v", err)
	}

	// --- Initialize Repositories ---
	log.Println("Initializing repositories...")
	clientRepo := mongo.NewMongoClientRepository(appDB)
	equipmentRepo := mongo.NewMongoEquipmentRepository(appDB)
	exerciseRepo := mongo.NewMongoExerciseRepository(appDB)
	programRepo := mongo.NewMongoProgramRepository(appDB)
	sessionRepo := mongo.NewMongoSessionRepository(appDB)
	stateRepo := mongo.NewMongoSessionStateRepository(appDB)
	decisionRepo := mongo.NewMongoDecisionRepository(appDB)
	alertRepo := mongo.NewMongoAlertRepository(appDB)

	// --- Apply Facility Catalog ---
	if cfg.Seed.CatalogPath != "" {
		log.Printf("Applying facility catalog from %s...", cfg.Seed.CatalogPath)
		catalog, err := seed.Load(cfg.Seed.CatalogPath)
		if err != nil {
			log.Fatalf("FATAL: Could not load facility catalog: %v", err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := seed.Apply(ctx, catalog, equipmentRepo, exerciseRepo); err != nil {
			cancel()
			log.Fatalf("FATAL: Could not apply facility catalog: %v", err)
		}
		cancel()
		log.Println("Facility catalog applied.")
	}

	// --- Alert Sink ---
	var sink notify.AlertSink
	if cfg.Notify.WebhookURL != "" {
		log.Printf("Alert delivery via webhook: %s", cfg.Notify.WebhookURL)
		sink = notify.NewWebhookSink(cfg.Notify.WebhookURL, cfg.Notify.Secret, cfg.Notify.TokenTTL)
	} else {
		log.Println("No alert webhook configured, alerts go to the log.")
		sink = notify.NewLogSink()
	}

	// --- Narrator ---
	var narrator service.Narrator
	if cfg.Narration.Endpoint != "" {
		log.Printf("Decision narration via %s", cfg.Narration.Endpoint)
		narrator = service.NewHTTPNarrator(cfg.Narration.Endpoint, cfg.Narration.Timeout)
	} else {
		narrator = service.NewNoopNarrator()
	}

	// --- Initialize Services ---
	log.Println("Initializing services...")
	ledger := service.NewEquipmentLedger(stateRepo, equipmentRepo, cfg.Engine.CountRestingAsOccupied)
	resolver := service.NewSubstitutionResolver(exerciseRepo, ledger)
	audit := service.NewAuditService(decisionRepo, alertRepo, sink, narrator)
	exerciseService := service.NewExerciseService(exerciseRepo, mediaStorage)
	sessionService := service.NewSessionService(
		sessionRepo,
		stateRepo,
		programRepo,
		exerciseRepo,
		clientRepo,
		decisionRepo,
		alertRepo,
		ledger,
		resolver,
		audit,
	)

	// --- Initialize Gin Engine ---
	// gin.SetMode(gin.ReleaseMode) // Uncomment for production
	router := gin.Default() // Includes Logger and Recovery middleware

	// --- Setup Routes ---
	log.Println("Setting up API routes...")
	api.SetupRoutes(router, cfg.API.Key, sessionService, exerciseService, ledger, resolver)

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	log.Printf("Server starting on %s", cfg.Server.Address)

	// --- Graceful Shutdown ---
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("FATAL: ListenAndServe Error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("FATAL: Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting.")
}
