// Package server wires handlers, middleware, and routes, and owns the
// HTTP server lifecycle. main.go stays minimal; every dependency is
// assembled here in one place.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"github.com/sakif/storefront/internal/auth"
	"github.com/sakif/storefront/internal/config"
	"github.com/sakif/storefront/internal/handler"
	"github.com/sakif/storefront/internal/imagehost"
	"github.com/sakif/storefront/internal/middleware"
	sqliteRepo "github.com/sakif/storefront/internal/repository/sqlite"
	"github.com/sakif/storefront/internal/service"
)

// Server holds the router and the resources it owns. The database
// connection is closed during graceful shutdown.
type Server struct {
	router *chi.Mux
	config config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New assembles the full dependency chain:
// DB → repositories → services → handlers → routes.
func New(cfg config.Config, logger *slog.Logger, images imagehost.Uploader) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(images); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes configures middleware and the route table.
//
// Route groups mirror the API surface:
//
//	/users    → signup, login, current user
//	/products → catalog queries and management
//	/sales    → cart and checkout (auth required)
func (s *Server) setupRoutes(images imagehost.Uploader) error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(middleware.CORS(s.config.CORSOrigins))
	if s.config.RateLimitRequests > 0 {
		s.router.Use(httprate.LimitByIP(s.config.RateLimitRequests, s.config.RateLimitWindow))
	}

	tokens, err := auth.NewTokenService(s.config.JWTSecret, s.config.TokenTTL)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService()

	authService := service.NewAuthService(s.db, tokens, passwords, s.logger)
	cartService := service.NewCartService(s.db, s.db, s.db, s.logger)
	checkoutService := service.NewCheckoutService(s.db, s.db, s.db, s.logger)
	catalogService := service.NewCatalogService(s.db, s.db, images, s.logger)

	authHandler := handler.NewAuthHandler(authService, s.logger)
	cartHandler := handler.NewCartHandler(cartService, s.logger)
	checkoutHandler := handler.NewCheckoutHandler(checkoutService, s.logger)
	catalogHandler := handler.NewCatalogHandler(catalogService, s.logger)

	requireAuth := auth.RequireAuth(tokens)

	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	s.router.Route("/users", func(r chi.Router) {
		r.Post("/signup", authHandler.HandleSignup)
		r.Post("/login", authHandler.HandleLogin)
		r.With(requireAuth).Get("/getuser", authHandler.HandleGetUser)
	})

	s.router.Route("/products", func(r chi.Router) {
		r.Get("/allproducts", catalogHandler.HandleAllProducts)
		r.Get("/newcollections", catalogHandler.HandleNewCollections)
		r.Get("/popularproducts", catalogHandler.HandlePopularProducts)
		r.Get("/relatedproducts/{productId}", catalogHandler.HandleRelatedProducts)
		r.Post("/details", catalogHandler.HandleProductDetails)
		r.Post("/addproduct", catalogHandler.HandleAddProduct)
		r.Post("/upload", catalogHandler.HandleUploadImage)
		r.Post("/removeproduct", catalogHandler.HandleRemoveProduct)
	})

	s.router.Route("/sales", func(r chi.Router) {
		r.Use(requireAuth)
		r.Post("/addtocart", cartHandler.HandleAddToCart)
		r.Post("/removefromcart", cartHandler.HandleRemoveFromCart)
		r.Post("/updateQuantity", cartHandler.HandleUpdateQuantity)
		r.Post("/getcart", cartHandler.HandleGetCart)
		r.Post("/recordSale", checkoutHandler.HandleRecordSale)
		r.Post("/completepurchase", checkoutHandler.HandleCompletePurchase)
		r.Get("/history", checkoutHandler.HandleSalesHistory)
	})

	return nil
}

// Handler returns the fully assembled root handler. Tests drive requests
// through it without binding a port.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, drain in-flight requests, close
// the database.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
