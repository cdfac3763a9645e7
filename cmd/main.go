package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"tripplanner/db"
	"tripplanner/internal/account"
	"tripplanner/internal/auth"
	"tripplanner/internal/bill"
	"tripplanner/internal/config"
	"tripplanner/internal/eventlog"
	"tripplanner/internal/housekeeping"
	"tripplanner/internal/itinerary"
	"tripplanner/internal/mail"
	"tripplanner/internal/note"
	"tripplanner/internal/settings"
	"tripplanner/internal/trip"
	"tripplanner/internal/web"
	"tripplanner/middleware"
)

// Global loggers for different output streams
var (
	infoLogger  = log.New(os.Stdout, "", log.LstdFlags)
	errorLogger = log.New(os.Stderr, "", log.LstdFlags)
)

func connectDatabase(cfg *config.Config) (*db.DB, error) {
	switch cfg.DatabaseType {
	case config.Postgres:
		infoLogger.Println("Using PostgreSQL database")
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		return db.ConnectToPostgres(ctx, cfg.DatabaseURL)
	default:
		infoLogger.Printf("Using SQLite database at %s", cfg.SQLitePath)
		return db.ConnectToSQLite(cfg.SQLitePath)
	}
}

func main() {
	infoLogger.Printf("Starting trip planner - Process ID: %d", os.Getpid())
	infoLogger.Printf("Runtime: %s/%s, Go version: %s", runtime.GOOS, runtime.GOARCH, runtime.Version())

	cfg, err := config.LoadConfig()
	if err != nil {
		errorLogger.Fatalf("Failed to load configuration: %v", err)
	}

	database, err := connectDatabase(cfg)
	if err != nil {
		errorLogger.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	// Initialize database schema
	if err := db.InitializeSchema(context.Background(), database); err != nil {
		errorLogger.Fatalf("Failed to initialize database schema: %v", err)
	}

	if err := os.MkdirAll(cfg.MediaRoot, 0755); err != nil {
		errorLogger.Fatalf("Failed to create media directory %s: %v", cfg.MediaRoot, err)
	}

	// Create repositories
	repoFactory := db.NewRepositoryFactory(database)
	userRepo := repoFactory.NewUserRepository()
	settingsRepo := repoFactory.NewSettingsRepository()
	tripRepo := repoFactory.NewTripRepository()
	invitationRepo := repoFactory.NewInvitationRepository()
	noteRepo := repoFactory.NewNoteRepository()
	billRepo := repoFactory.NewBillRepository()
	eventLogRepo := repoFactory.NewEventLogRepository()

	// Create database manager for concurrent access control
	dbManager := db.NewDBManager()
	defer dbManager.Stop()

	mailer := mail.NewMailer(cfg)

	// Initialize services with repositories
	settingsService := settings.NewSettingsService(settingsRepo)
	eventLogService := eventlog.NewEventLogService(eventLogRepo, dbManager)
	accountService := account.NewAccountService(cfg, userRepo, tripRepo, invitationRepo, repoFactory, mailer, eventLogService, dbManager)
	tripService := trip.NewTripService(cfg, tripRepo, userRepo, invitationRepo, settingsService, mailer, eventLogService, dbManager)
	noteService := note.NewNoteService(noteRepo, tripRepo, eventLogService, dbManager)
	billService := bill.NewBillService(billRepo, tripRepo, eventLogService, dbManager)
	itineraryService := itinerary.NewItineraryService(tripService, noteService, billService)
	housekeepingService := housekeeping.NewHousekeepingService(accountService, tripService, cfg.TokenTTL)

	// Create a done channel to coordinate graceful shutdown
	done := make(chan bool)
	go housekeepingService.Run(done)

	webHandler, err := web.NewWebHandler(web.Services{
		Accounts:  accountService,
		Settings:  settingsService,
		Trips:     tripService,
		Notes:     noteService,
		Bills:     billService,
		EventLogs: eventLogService,
		Itinerary: itineraryService,
	}, cfg)
	if err != nil {
		errorLogger.Fatalf("Failed to initialize web handlers: %v", err)
	}

	router := webHandler.SetupRoutes(web.APIHandlers{
		Auth:       auth.NewAuthHandlers(cfg, accountService),
		Trips:      trip.NewTripHandlers(tripService),
		EventLogs:  eventlog.NewEventLogHandlers(eventLogService, tripService),
		Middleware: middleware.NewMiddleware(cfg),
	})
	loggedRouter := middleware.LoggingMiddleware(router)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           loggedRouter,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		infoLogger.Printf("Server is starting on port %s, site URL %s", cfg.Port, cfg.SiteURL)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errorLogger.Printf("Server ListenAndServe error: %v", err)
			close(done)
			return
		}
		infoLogger.Println("Server ListenAndServe has exited normally")
	}()

	waitForShutdown(server, done)
}

func waitForShutdown(server *http.Server, done chan bool) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-stop:
		infoLogger.Printf("Received shutdown signal: %v", sig)
		// Signal background services to stop
		close(done)
	case <-done:
		infoLogger.Println("Server stopped, shutting down")
		return
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	infoLogger.Println("Shutting down the server...")
	if err := server.Shutdown(shutdownCtx); err != nil {
		errorLogger.Printf("Server Shutdown error: %v", err)
		return
	}
	infoLogger.Println("[SUCCESS] Services stopped")
}
