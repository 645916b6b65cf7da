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

	"pawmart/adoption"
	"pawmart/auth"
	"pawmart/cart"
	"pawmart/consultations"
	"pawmart/db"
	"pawmart/live"
	"pawmart/mq"
	"pawmart/orders"
	"pawmart/pets"
	"pawmart/products"
	"pawmart/ratelim"
	"pawmart/rdx"
	"pawmart/routes"

	"github.com/joho/godotenv"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"
)

// securityHeaders applies a set of recommended HTTP security headers.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "frame-ancestors 'none'")
		w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains; preload")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Permissions-Policy", "geolocation=(), microphone=(), camera=()")
		w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, private")
		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs each request method, path, remote address, and duration.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		duration := time.Since(start)
		log.Printf("%s %s from %s – %v", r.Method, r.RequestURI, r.RemoteAddr, duration)
	})
}

// Index is a simple health check handler.
func Index(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	fmt.Fprint(w, "200")
}

func setupRouter(store *db.Store, rateLimiter *ratelim.RateLimiter) *httprouter.Router {
	router := httprouter.New()
	router.GET("/health", Index)

	routes.AddAuthRoutes(router, auth.NewHandler(store), rateLimiter)
	routes.AddCartRoutes(router, cart.NewHandler(store), rateLimiter)
	routes.AddOrderRoutes(router, orders.NewHandler(store), rateLimiter)
	routes.AddPetRoutes(router, pets.NewHandler(store), rateLimiter)
	routes.AddProductRoutes(router, products.NewHandler(store), rateLimiter)
	routes.AddAdoptionRoutes(router, adoption.NewHandler(store), rateLimiter)
	routes.AddConsultationRoutes(router, consultations.NewHandler(store), rateLimiter)
	routes.AddStaticRoutes(router)

	return router
}

func main() {
	// load .env if present
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found; using system environment")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = ":8080"
	} else if port[0] != ':' {
		port = ":" + port
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	store, err := db.Connect(ctx)
	cancel()
	if err != nil {
		log.Fatalf("❌ MongoDB connection failed: %v", err)
	}

	rdxConn := rdx.Connect()

	rateLimiter := ratelim.NewRateLimiter()

	// live event hub fed by the mq relay
	hub := live.NewHub()
	go mq.StartEventRelay(hub)

	router := setupRouter(store, rateLimiter)
	routes.AddLiveRoutes(router, hub)

	// middleware chain: CORS → security headers → logging → router
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"}, // lock down in production
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}).Handler(router)

	handler := loggingMiddleware(securityHeaders(corsHandler))

	server := &http.Server{
		Addr:              port,
		Handler:           handler,
		ReadTimeout:       7 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
	}

	server.RegisterOnShutdown(func() {
		log.Println("🛑 Shutting down live hub...")
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
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("❌ Graceful shutdown failed: %v", err)
	}

	if err := store.Close(shutdownCtx); err != nil {
		log.Printf("MongoDB close error: %v", err)
	}
	if err := rdxConn.Close(); err != nil {
		log.Printf("Redis close error: %v", err)
	}

	log.Println("✅ Server stopped cleanly")
}
