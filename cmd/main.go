package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/nats-io/nats.go"

	"github.com/Tejazzz/banking-system/internal/accrual"
	"github.com/Tejazzz/banking-system/internal/config"
	"github.com/Tejazzz/banking-system/internal/handlers"
	"github.com/Tejazzz/banking-system/internal/ledger"
	"github.com/Tejazzz/banking-system/internal/loans"
	"github.com/Tejazzz/banking-system/internal/middleware"
	"github.com/Tejazzz/banking-system/internal/repository"
)

func main() {
	cfg := config.Load()

	// Connect to PostgreSQL
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}
	log.Println("Connected to PostgreSQL")

	// Connect to NATS
	nc, err := nats.Connect(cfg.NatsURL)
	if err != nil {
		log.Fatalf("Failed to connect to NATS: %v", err)
	}
	defer nc.Close()
	log.Println("Connected to NATS")

	// Set up dependencies
	repo := repository.NewPostgresRepository(db)
	ledgerSvc := ledger.NewService(repo, nc)
	loanSvc := loans.NewService(repo)
	engine := accrual.NewEngine(repo, nc)

	accountHandler := handlers.NewAccountHandler(repo)
	ledgerHandler := handlers.NewLedgerHandler(ledgerSvc)
	loanHandler := handlers.NewLoanHandler(loanSvc)
	accrualHandler := handlers.NewAccrualHandler(engine)
	authMiddleware := middleware.Auth(cfg.AuthServiceURL)

	// Built-in scheduler; disabled unless ACCRUAL_INTERVAL is set, in
	// which case cycles also run without the external cron.
	schedCtx, stopSched := context.WithCancel(context.Background())
	defer stopSched()
	accrual.NewScheduler(engine, cfg.AccrualInterval).Start(schedCtx)

	// Routes
	mux := http.NewServeMux()

	// Health check (no auth required)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, `{"status":"healthy"}`)
	})

	// Protected routes
	protected := http.NewServeMux()
	accountHandler.RegisterRoutes(protected)
	ledgerHandler.RegisterRoutes(protected)
	loanHandler.RegisterRoutes(protected)

	mux.Handle("/api/v1/", authMiddleware(protected))

	// Ops trigger for the accrual cycle; network policy keeps it internal.
	accrualHandler.RegisterRoutes(mux)

	// Server
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      middleware.Logging(mux),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Ledger service listening on :%s", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-done
	log.Println("Shutting down server...")
	stopSched()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced shutdown: %v", err)
	}

	nc.Drain()
	log.Println("Server stopped gracefully")
}
