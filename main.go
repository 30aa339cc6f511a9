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

	"emporia/admin"
	"emporia/auth"
	"emporia/cart"
	"emporia/checkout"
	"emporia/config"
	"emporia/db"
	"emporia/live"
	"emporia/media"
	"emporia/middleware"
	"emporia/orders"
	"emporia/payment"
	"emporia/products"
	"emporia/profile"
	"emporia/ratelim"
	"emporia/rdx"
	"emporia/reviews"
	"emporia/routes"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"
)

// securityHeaders applies a set of recommended HTTP security headers.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "frame-ancestors 'none'")
		w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains; preload")
		w.Header().Set("Referrer-Policy", "no-referrer")
		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs each request method, path, remote address and duration.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s from %s – %v", r.Method, r.RequestURI, r.RemoteAddr, time.Since(start))
	})
}

// health is a simple health check handler.
func health(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	fmt.Fprint(w, "200")
}

func setupRouter(cfg *config.Config, database *db.Database, mw *middleware.Auth,
	locker *rdx.Locker, tokens *rdx.TokenStore, store *media.Store, hub *live.Hub) *httprouter.Router {

	gateway := payment.NewClient(cfg.StripeSecretKey, cfg.StripeAPIURL, cfg.BaseURL)
	rateLimiter := ratelim.NewRateLimiter()

	router := httprouter.New()
	router.GET("/health", health)

	routes.AddStaticRoutes(router, cfg.MediaDir)
	routes.AddAuthRoutes(router, auth.NewHandler(database, mw, tokens), rateLimiter)
	routes.AddProductRoutes(router, products.NewHandler(database, store), mw)
	routes.AddReviewRoutes(router, reviews.NewHandler(database), mw)
	routes.AddCartRoutes(router, cart.NewHandler(database, store), mw)
	routes.AddCheckoutRoutes(router, checkout.NewHandler(database, gateway, locker, hub), mw, rateLimiter)
	routes.AddOrderRoutes(router, orders.NewHandler(database, cfg.InvoiceSecret), mw)
	routes.AddProfileRoutes(router, profile.NewHandler(database, store), mw)
	routes.AddAdminRoutes(router, admin.NewHandler(database, hub), mw)

	return router
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Config error: %v", err)
	}

	port := cfg.Port
	if port == "" {
		port = ":8080"
	} else if port[0] != ':' {
		port = ":" + port
	}

	ctx := context.Background()

	database, err := db.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		log.Fatalf("❌ Failed to connect to MongoDB: %v", err)
	}
	if err := database.EnsureIndexes(ctx); err != nil {
		log.Fatalf("❌ Failed to create indexes: %v", err)
	}

	redisClient := rdx.New(cfg.RedisAddr, cfg.RedisPassword)
	locker := &rdx.Locker{Client: redisClient}
	tokens := &rdx.TokenStore{Client: redisClient}
	mw := middleware.NewAuth(cfg.JWTSecret, tokens)

	store, err := media.NewStore(cfg.MediaDir, "/static/uploads")
	if err != nil {
		log.Fatalf("❌ Failed to initialize media store: %v", err)
	}

	hub := live.NewHub()
	go hub.Run()

	router := setupRouter(cfg, database, mw, locker, tokens, store, hub)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{cfg.BaseURL},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}).Handler(router)

	handler := loggingMiddleware(securityHeaders(corsHandler))

	server := &http.Server{
		Addr:              port,
		Handler:           handler,
		ReadTimeout:       7 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
	}

	server.RegisterOnShutdown(func() {
		log.Println("🛑 Stopping live order feed...")
		hub.Stop()
	})

	go func() {
		log.Printf("🚀 Server listening on %s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ ListenAndServe error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("🛑 Shutdown signal received; shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("❌ Graceful shutdown failed: %v", err)
	}

	if err := database.Close(shutdownCtx); err != nil {
		log.Printf("MongoDB disconnect error: %v", err)
	}
	if err := redisClient.Close(); err != nil {
		log.Printf("Redis close error: %v", err)
	}

	log.Println("✅ Server stopped cleanly")
}
