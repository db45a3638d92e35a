package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mdehaan/portfolio-engine/internal/api"
	"github.com/mdehaan/portfolio-engine/internal/config"
	"github.com/mdehaan/portfolio-engine/internal/database"
	"github.com/mdehaan/portfolio-engine/internal/repository"
	"github.com/mdehaan/portfolio-engine/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Open database connection
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	log.Printf("Connected to database: %s", cfg.Database.Path)

	// Run embedded migrations
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// Create repositories
	portfolioRepo := repository.NewPortfolioRepository(db)
	transactionRepo := repository.NewTransactionRepository(db)
	fundRepo := repository.NewFundRepository(db)
	dividendRepo := repository.NewDividendRepository(db)
	realizedGainLossRepo := repository.NewRealizedGainLossRepository(db)
	materializedRepo := repository.NewMaterializedRepository(db)

	// Create services
	systemService := service.NewSystemService(db)
	loader := service.NewDataLoaderService(
		fundRepo,
		transactionRepo,
		dividendRepo,
		fundRepo,
		realizedGainLossRepo,
	)
	historyService := service.NewHistoryService(portfolioRepo, materializedRepo, loader)
	transactionService := service.NewTransactionService(
		db,
		transactionRepo,
		fundRepo,
		realizedGainLossRepo,
		materializedRepo,
	)
	dividendService := service.NewDividendService(
		db,
		dividendRepo,
		transactionRepo,
		fundRepo,
		realizedGainLossRepo,
		materializedRepo,
	)
	fundService := service.NewFundService(db, fundRepo, materializedRepo)
	portfolioService := service.NewPortfolioService(portfolioRepo)

	// Create router
	router := api.NewRouter(api.Services{
		System:      systemService,
		Portfolio:   portfolioService,
		History:     historyService,
		Transaction: transactionService,
		Dividend:    dividendService,
		Fund:        fundService,
	}, cfg)

	// Nightly snapshot refresh keeps the materialized history warm so the
	// read path rarely has to replay ledgers on demand.
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.Snapshot.RefreshCron, func() {
		if err := historyService.Refresh(context.Background()); err != nil {
			log.Printf("Snapshot refresh failed: %v", err)
		}
	}); err != nil {
		log.Fatalf("Invalid snapshot refresh schedule %q: %v", cfg.Snapshot.RefreshCron, err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Starting server on %s", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
