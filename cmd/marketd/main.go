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

	_ "github.com/joho/godotenv/autoload"

	"github.com/dukerupert/marketd/internal/database"
	"github.com/dukerupert/marketd/internal/logging"
	"github.com/dukerupert/marketd/internal/payment/stripeclient"
	"github.com/dukerupert/marketd/internal/repoverify"
	"github.com/dukerupert/marketd/internal/server"
)

func main() {
	logger := logging.Setup(os.Getenv("MARKETD_LOG_LEVEL"))

	port := os.Getenv("MARKETD_PORT")
	if port == "" {
		port = "8080"
	}

	dbPath := os.Getenv("MARKETD_DB_PATH")
	if dbPath == "" {
		dbPath = "marketd.db"
	}

	baseURL := os.Getenv("MARKETD_BASE_URL")
	if baseURL == "" {
		baseURL = fmt.Sprintf("http://localhost:%s", port)
	}

	db, err := database.Open(dbPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	cfg := server.Config{
		Stripe: stripeclient.Config{
			SecretKey:            os.Getenv("STRIPE_SECRET_KEY"),
			WebhookSecret:        os.Getenv("STRIPE_WEBHOOK_SECRET"),
			OnboardingReturnURL:  baseURL + "/seller/onboarding/complete",
			OnboardingRefreshURL: baseURL + "/seller/onboarding/refresh",
		},
		Verify: repoverify.Config{
			VerifyURL: os.Getenv("REPO_VERIFY_URL"),
		},
	}

	srv := server.New(db, cfg, logger)

	httpServer := &http.Server{
		Addr:              ":" + port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Background cleanup goroutine
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n, err := srv.SessionStore().DeleteExpired(); err != nil {
					slog.Error("cleanup expired sessions", "error", err)
				} else if n > 0 {
					slog.Info("cleaned up expired sessions", "count", n)
				}
				srv.RateLimiter().Cleanup()
			case <-cleanupCtx.Done():
				return
			}
		}
	}()

	go func() {
		slog.Info("marketd starting", "addr", ":"+port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down")
	cleanupCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
