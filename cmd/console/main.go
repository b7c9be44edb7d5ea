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
	"approval-console/internal/console"
	"approval-console/internal/documents"
	"approval-console/internal/handler"
	"approval-console/internal/i18n"
	"approval-console/internal/tracing"
)

const version = "1.0.0"

func main() {
	cfg := config.Load("3000")
	i18n.Init(cfg.DefaultLocale)

	if cfg.TracingEnabled {
		if err := tracing.Init("approval-console", version, cfg.TraceFile); err != nil {
			log.Printf("ERROR init tracing: %v", err)
		}
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	client := documents.NewClient(cfg.APIBase, cfg.APITimeout)
	sessions := console.NewRegistry(client, cfg.SessionTTL)
	go sessions.Run(ctx, time.Minute)

	// Routes
	mux := http.NewServeMux()
	handler.NewConsoleHandler(sessions).RegisterRoutes(mux)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Confirm runs an action and a refresh, so writes get two API timeouts.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler.LoggingMiddleware(mux),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 2*cfg.APITimeout + 5*time.Second,
	}

	go func() {
		log.Printf("Approval console started on :%s (env: %s, api: %s)", cfg.Port, cfg.Env, cfg.APIBase)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")
	stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	srv.Shutdown(shutdownCtx)
	if err := tracing.Shutdown(shutdownCtx); err != nil {
		log.Printf("ERROR flush traces: %v", err)
	}
}
