package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hostelmate/hostelmatego/internal/config"
	"github.com/hostelmate/hostelmatego/internal/handlers"
	"github.com/hostelmate/hostelmatego/internal/models"
	"github.com/hostelmate/hostelmatego/internal/offline"
	"github.com/hostelmate/hostelmatego/internal/store"
	syncer "github.com/hostelmate/hostelmatego/internal/sync"
	"github.com/hostelmate/hostelmatego/internal/websocket"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// 2. Open the local mirror (SQLite file, external or embedded Postgres)
	db, err := store.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to open mirror store: %v", err)
	}
	// Note: db.Close() is called manually in shutdown handler below

	// 3. Auto-Migrate Schema
	log.Println("🚀 Synchronizing mirror schema...")
	err = db.AutoMigrate(
		&models.Floor{},
		&models.Room{},
		&models.Bed{},
		&models.Tenant{},
		&models.Booking{},
		&models.Invoice{},
		&models.Expense{},

		// Sync tables
		&models.MutationEntry{},
		&models.DeadLetter{},
		&models.AppMeta{},
	)
	if err != nil {
		log.Printf("⚠️ Migration warning: %v\n", err)
	} else {
		log.Println("✅ Schema synchronized successfully")
	}

	// 4. Offline data accessor (seeds the temp-id allocator from the mirror)
	accessor, err := offline.NewAccessor(db)
	if err != nil {
		log.Fatalf("Failed to initialize offline accessor: %v", err)
	}

	// 5. Sync services
	syncCfg := config.LoadSyncConfig()

	monitor := syncer.NewMonitor(
		cfg.Upstream.BaseURL,
		time.Duration(syncCfg.ProbeInterval)*time.Second,
		time.Duration(syncCfg.RequestTimeout)*time.Second,
	)

	engine := syncer.NewEngine(db, syncCfg, cfg.Upstream, cfg.InstanceID)
	reconciler := syncer.NewReconciler(db)

	hub := websocket.NewHub()
	go hub.Run()

	provider := syncer.NewStatusProvider(db, syncCfg, monitor, engine, hub)

	if syncCfg.Enabled {
		monitor.Start()
		provider.Start()
		log.Println("✅ Sync: monitor and status provider started")
	} else {
		log.Println("📴 Sync disabled, running mirror-only")
	}

	// 6. Local HTTP API
	router := handlers.NewRouter(accessor, provider, reconciler, hub)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Channel to listen for shutdown signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	// Start server in goroutine
	go func() {
		log.Printf("🚀 Offline node starting on port %s (upstream: %s)\n", cfg.Port, cfg.Upstream.BaseURL)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for shutdown signal
	sig := <-shutdown
	log.Printf("\n⚠️  Received signal: %v. Shutting down gracefully...\n", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	provider.Stop()
	monitor.Stop()

	// Close database (this also stops embedded PostgreSQL)
	log.Println("🛑 Closing mirror store...")
	if err := db.Close(); err != nil {
		log.Printf("Mirror store close error: %v", err)
	}

	log.Println("✅ Shutdown complete")
}
