package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/marketd/internal/handler"
	"github.com/dukerupert/marketd/internal/middleware"
	"github.com/dukerupert/marketd/internal/onboarding"
	"github.com/dukerupert/marketd/internal/payment/stripeclient"
	"github.com/dukerupert/marketd/internal/project"
	"github.com/dukerupert/marketd/internal/repoverify"
	"github.com/dukerupert/marketd/internal/settlement"
	"github.com/dukerupert/marketd/internal/store"
	ws "github.com/dukerupert/marketd/internal/websocket"
)

type Config struct {
	Stripe stripeclient.Config
	Verify repoverify.Config
}

type Server struct {
	db           *sql.DB
	hub          *ws.Hub
	authH        *handler.AuthHandler
	projectH     *handler.ProjectHandler
	checkoutH    *handler.CheckoutHandler
	sellerH      *handler.SellerHandler
	webhookH     *handler.WebhookHandler
	sessionStore *store.SessionStore
	rateLimiter  *middleware.RateLimiter
	logger       *slog.Logger
}

func New(db *sql.DB, cfg Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))
	events := ws.NewEvents(hub)

	userStore := store.NewUserStore(db)
	sessionStore := store.NewSessionStore(db)
	projectStore := store.NewProjectStore(db)
	intentStore := store.NewIntentStore(db)
	purchaseStore := store.NewPurchaseStore(db)
	sellerStore := store.NewSellerAccountStore(db)

	stripeClient := stripeclient.NewClient(cfg.Stripe)

	var verifier project.OwnershipVerifier
	if cfg.Verify.VerifyURL != "" {
		verifier = repoverify.NewClient(cfg.Verify)
	}

	projectSvc := project.New(projectStore, purchaseStore, sellerStore, verifier, logger.With("component", "project"))
	orchestrator := settlement.New(projectStore, intentStore, purchaseStore, stripeClient, events, logger.With("component", "settlement"))
	onboardingSvc := onboarding.New(userStore, sellerStore, stripeClient, events, logger.With("component", "onboarding"))

	return &Server{
		db:           db,
		hub:          hub,
		authH:        handler.NewAuthHandler(userStore, sessionStore, logger.With("component", "auth")),
		projectH:     handler.NewProjectHandler(projectSvc, projectStore, purchaseStore, logger.With("component", "project_handler")),
		checkoutH:    handler.NewCheckoutHandler(orchestrator, purchaseStore, logger.With("component", "checkout")),
		sellerH:      handler.NewSellerHandler(onboardingSvc, logger.With("component", "seller")),
		webhookH:     handler.NewWebhookHandler(stripeClient, orchestrator, onboardingSvc, sellerStore, logger.With("component", "webhook")),
		sessionStore: sessionStore,
		rateLimiter:  middleware.NewRateLimiter(),
		logger:       logger,
	}
}

// SessionStore returns the session store for cleanup tasks.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessionStore
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	// Public routes
	mux.HandleFunc("POST /api/signup", s.rateLimited(s.authH.Signup))
	mux.HandleFunc("POST /api/login", s.rateLimited(s.authH.Login))
	mux.HandleFunc("POST /webhooks/stripe", s.webhookH.HandleStripeWebhook)
	mux.HandleFunc("POST /api/pricing/preview", s.checkoutH.PricingPreview)
	mux.HandleFunc("GET /health", s.healthHandler)

	// Browse routes: anonymous allowed, principal attached when present.
	optional := middleware.OptionalAuth(s.sessionStore)
	mux.Handle("GET /api/projects", optional(http.HandlerFunc(s.projectH.List)))
	mux.Handle("GET /api/projects/{id}", optional(http.HandlerFunc(s.projectH.Get)))
	mux.Handle("GET /api/projects/{id}/access", optional(http.HandlerFunc(s.projectH.Access)))

	// Authenticated routes
	protected := http.NewServeMux()
	s.registerProtectedRoutes(protected)
	requireAuth := middleware.RequireAuth(s.sessionStore)
	mux.Handle("/", requireAuth(protected))

	return middleware.RequestLogger(s.logger.With("component", "http"))(mux)
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/logout", s.authH.Logout)

	mux.HandleFunc("POST /api/projects", s.projectH.Create)
	mux.HandleFunc("GET /api/projects/mine", s.projectH.Mine)
	mux.HandleFunc("PUT /api/projects/{id}", s.projectH.Update)
	mux.HandleFunc("DELETE /api/projects/{id}", s.projectH.Delete)
	mux.HandleFunc("POST /api/projects/{id}/publish", s.projectH.Publish)
	mux.HandleFunc("POST /api/projects/{id}/archive", s.projectH.Archive)

	mux.HandleFunc("POST /api/checkout/intent", s.rateLimited(s.checkoutH.CreateIntent))
	mux.HandleFunc("POST /api/checkout/confirm", s.checkoutH.Confirm)
	mux.HandleFunc("GET /api/purchases", s.checkoutH.Purchases)

	mux.HandleFunc("POST /api/seller/account", s.sellerH.CreateAccount)
	mux.HandleFunc("POST /api/seller/account/refresh", s.sellerH.RefreshStatus)
	mux.HandleFunc("GET /api/seller/account", s.sellerH.Account)

	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub))
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimited(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}
