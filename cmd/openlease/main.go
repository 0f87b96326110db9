package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/openlease/openlease/internal/auth"
	"github.com/openlease/openlease/internal/config"
	httpserver "github.com/openlease/openlease/internal/http"
	"github.com/openlease/openlease/internal/invite"
	"github.com/openlease/openlease/internal/repository"
)

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	// Setup logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Connect to database
	db, err := repository.NewDB(repository.Config{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		DBName:   cfg.DBName,
		SSLMode:  cfg.DBSSLMode,
	})
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	logger.Info("connected to database")

	// Initialize repositories
	usersRepo := repository.NewUsersRepository(db)
	propertiesRepo := repository.NewPropertiesRepository(db)
	invitesRepo := repository.NewInvitesRepository(db)
	linksRepo := repository.NewLinksRepository(db)
	redemptionsRepo := repository.NewRedemptionsRepository(db, usersRepo, linksRepo)

	// Initialize services
	accountService := auth.NewAccountService(usersRepo)
	sessionService := auth.NewSessionService(auth.SessionConfig{
		AccessTokenTTL: cfg.AccessTokenTTL,
		JWTSecret:      []byte(cfg.JWTSecret),
		Issuer:         cfg.JWTIssuer,
	})

	policy := invite.NewOwnershipPolicy(propertiesRepo)
	issuer := invite.NewIssuer(invitesRepo, policy, cfg.InviteTTL)
	validator := invite.NewValidator(invitesRepo, propertiesRepo)
	redeemer := invite.NewRedeemer(invitesRepo, usersRepo, linksRepo, redemptionsRepo)

	// Optional expiry sweeper
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	if cfg.SweepInterval > 0 {
		sweeper := invite.NewSweeper(invitesRepo, cfg.SweepInterval, logger)
		go sweeper.Run(sweepCtx)
		logger.Info("invite expiry sweeper enabled", "interval", cfg.SweepInterval.String())
	}

	// Create router
	router := httpserver.NewRouter(httpserver.RouterConfig{
		Logger:          logger,
		AccountService:  accountService,
		SessionService:  sessionService,
		Issuer:          issuer,
		Validator:       validator,
		Redeemer:        redeemer,
		PropertyStore:   propertiesRepo,
		LinkStore:       linksRepo,
		PropertyReader:  propertiesRepo,
		UserStore:       usersRepo,
		AppBaseURL:      cfg.AppBaseURL,
		RateLimitConfig: cfg.RateLimit,
	})

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.ServerAddr, cfg.ServerPort)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("starting server", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	stopSweep()

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	logger.Info("server stopped")
}
