package main

import (
	"context"
	"fmt"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mcarreter/catalogo-be/internal/api"
	"github.com/mcarreter/catalogo-be/internal/auth"
	"github.com/mcarreter/catalogo-be/internal/config"
	"github.com/mcarreter/catalogo-be/internal/database"
	"github.com/mcarreter/catalogo-be/internal/logger"
	"github.com/mcarreter/catalogo-be/internal/monitoring"
	"github.com/mcarreter/catalogo-be/internal/services"
	"github.com/mcarreter/catalogo-be/internal/websocket"
	"github.com/rs/zerolog/log"
)

func main() {
	logger.Init()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		stdlog.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.JWTSecret == "" {
		stdlog.Fatal("JWT_SECRET must be set")
	}
	auth.Init(cfg.JWTSecret)

	// Set up database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		stdlog.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		stdlog.Fatalf("Failed to apply database migrations: %v", err)
	}

	// Set up WebSocket Hub
	hub := websocket.NewHub()
	go hub.Run()

	// Set up services
	eventService := services.NewEventService(db)
	profileService := services.NewProfileService(db)
	authService := services.NewAuthService(db, profileService, cfg.MagicLinkTTL)
	commentService := services.NewCommentService(db, eventService)

	// Set up and run the background sweeper
	sweeper, err := monitoring.NewSweeper(authService, eventService, cfg.TokenSweepCron)
	if err != nil {
		stdlog.Fatalf("Invalid TOKEN_SWEEP_CRON expression: %v", err)
	}
	go sweeper.Run()

	// Set up router
	router := api.NewRouter(api.RouterDeps{
		DB:             db,
		Hub:            hub,
		AuthService:    authService,
		ProfileService: profileService,
		CommentService: commentService,
		EventService:   eventService,
		PublicBaseURL:  cfg.PublicBaseURL,
		AllowedOrigins: cfg.AllowedOrigins,
	})

	// Set up server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.ServerPort),
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		log.Info().Int("port", cfg.ServerPort).Msg("Server starting")
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			stdlog.Fatalf("ListenAndServe(): %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	sweeper.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		stdlog.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Info().Msg("Server exiting")
}
