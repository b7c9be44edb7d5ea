package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"approval-console/internal/config"
	"approval-console/internal/handler"
	"approval-console/internal/service"
	"approval-console/internal/store"
	"approval-console/internal/tracing"
)

const version = "1.0.0"

func main() {
	cfg := config.Load("8080")

	if cfg.TracingEnabled {
		if err := tracing.Init("documents-api", version, cfg.TraceFile); err != nil {
			log.Printf("ERROR init tracing: %v", err)
		}
	}

	// Connect to MongoDB
	db, err := store.NewMongoDB(cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer db.Close(context.Background())

	documentStore, err := store.NewDocumentStore(context.Background(), db)
	if err != nil {
		log.Fatalf("Failed to init document store: %v", err)
	}
	documentSvc := service.NewDocumentService(documentStore)

	// Routes
	mux := http.NewServeMux()
	handler.NewDocumentHandler(documentSvc).RegisterRoutes(mux, cfg.Env != "production")

	// Health checks
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("GET /ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := db.Ping(ctx); err != nil {
			log.Printf("ERROR readiness: %v", err)
			http.Error(w, "mongodb unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Start server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler.LoggingMiddleware(mux),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Documents API started on :%s (env: %s)", cfg.Port, cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	srv.Shutdown(ctx)
	if err := tracing.Shutdown(ctx); err != nil {
		log.Printf("ERROR flush traces: %v", err)
	}
}
