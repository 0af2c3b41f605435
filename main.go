package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/arbordev/arbor/internal/api"
	"github.com/arbordev/arbor/internal/api/handlers"
	"github.com/arbordev/arbor/internal/auth"
	"github.com/arbordev/arbor/internal/config"
	"github.com/arbordev/arbor/internal/database"
	"github.com/arbordev/arbor/internal/logger"
	"github.com/arbordev/arbor/internal/password"
	"github.com/arbordev/arbor/internal/services"
	"github.com/arbordev/arbor/internal/store"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger.Init()

	// Set up database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to apply database migrations: %v", err)
	}

	// Set up core components
	userStore := store.NewUserStore(db)
	hasher := password.NewHasher(cfg.BcryptCost)
	issuer := auth.NewIssuer([]byte(cfg.JWTSecret), cfg.TokenTTL)

	// Set up services
	authService := services.NewAuthService(userStore, hasher, issuer)
	userService := services.NewUserService(userStore, hasher)

	// Periodically evict revocation entries for tokens that have expired on
	// their own, so the set stays bounded.
	sweeper := cron.New()
	if _, err := sweeper.AddFunc("@every 10m", issuer.Sweep); err != nil {
		log.Fatalf("Failed to schedule revocation sweep: %v", err)
	}
	sweeper.Start()

	// Set up router
	authHandler := handlers.NewAuthHandler(authService, cfg.TokenTTL, cfg.SecureCookies)
	userHandler := handlers.NewUserHandler(userService)
	router := api.NewRouter(issuer, authHandler, userHandler, cfg.CORSOrigin)

	// Set up server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.ServerPort),
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		log.Printf("Server starting on port %d\n", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe(): %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	sweeper.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting")
}
