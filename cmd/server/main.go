package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vgp-backend/internal/config"
	"vgp-backend/internal/database"
	"vgp-backend/internal/handlers"
	"vgp-backend/internal/metrics"
	"vgp-backend/internal/services"
	"vgp-backend/internal/websocket"
)

func main() {
	log.Println("═══════════════════════════════════════════════════════════════════")
	log.Println("🚀 VGP BACKEND SERVER STARTING")
	log.Println("═══════════════════════════════════════════════════════════════════")

	log.Println("📂 Loading configuration...")
	cfg, err := config.Load()
	if err != nil {
		log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
		log.Println("❌ FATAL ERROR: Invalid configuration")
		log.Printf("   Error: %v", err)
		log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
		log.Fatal(err)
	}
	log.Printf("✅ Configuration loaded (storage: %s)", cfg.StorageBackend)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	kv, err := openStorage(ctx, cfg)
	if err != nil {
		log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
		log.Println("❌ FATAL ERROR: Storage initialization failed")
		log.Printf("   Error: %v", err)
		log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
		log.Fatal(err)
	}
	defer kv.Close()

	// Initialize Firebase Cloud Messaging
	// Supports both file path and base64-encoded credentials (for Railway/cloud deployments)
	var push services.PushSender
	if fcm := initFCM(ctx, cfg); fcm != nil {
		push = fcm
	}

	// Initialize WebSocket hub
	wsHub := websocket.NewHub()
	go wsHub.Run(ctx)
	log.Println("✅ WebSocket hub started")

	m := metrics.New()
	m.TrackGauge("vgp_websocket_clients", "Connected websocket clients.", func() float64 {
		return float64(wsHub.GetClientCount())
	})

	router := handlers.NewRouter(handlers.Deps{
		Store:               database.NewInspectionStore(kv),
		Auth:                services.NewAuthService(kv, services.LogMailer{}, services.AuthConfig{JWTSecret: cfg.JWTSecret, PublicAPIURL: cfg.PublicAPIURL, AppURL: cfg.AppURL}),
		Notifier:            services.NewChangeNotifier(wsHub, push),
		Hub:                 wsHub,
		Metrics:             m,
		JWTSecret:           cfg.JWTSecret,
		SyncPullConcurrency: cfg.SyncPullConcurrency,
		RequestLogging:      true,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Println("═══════════════════════════════════════════════════════════════════")
	log.Println("✅ ALL INITIALIZATION COMPLETE")
	log.Printf("🚀 Server starting on http://localhost:%s", cfg.Port)
	log.Println("🔌 Ready to accept requests!")
	log.Println("═══════════════════════════════════════════════════════════════════")

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
			log.Println("❌ FATAL ERROR: Server failed to start")
			log.Printf("   Error: %v", err)
			log.Printf("   Port: %s", cfg.Port)
			log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
			log.Fatal(err)
		}
	case <-ctx.Done():
		log.Println("🛑 Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("⚠️  Graceful shutdown failed: %v", err)
		}
	}
	log.Println("👋 Server stopped")
}

// openStorage opens the configured key-value backend
func openStorage(ctx context.Context, cfg *config.Config) (database.KV, error) {
	if cfg.StorageBackend == config.BackendBadger {
		log.Printf("🗄️  Opening Badger store at %s", cfg.BadgerDir)
		kv, err := database.OpenBadger(cfg.BadgerDir)
		if err != nil {
			return nil, err
		}
		log.Println("✅ Badger store ready")
		return kv, nil
	}

	log.Println("🔌 Connecting to database...")
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	log.Println("🔄 Running database migrations...")
	if err := database.Migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	log.Println("✅ Database migrations completed")

	kv := database.NewPostgresKV(db)
	go purgeExpired(ctx, kv, 10*time.Minute)
	return kv, nil
}

// purgeExpired deletes expired magic links from Postgres, which has no
// native TTL
func purgeExpired(ctx context.Context, kv *database.PostgresKV, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := kv.PurgeExpired(ctx)
			if err != nil {
				log.Printf("⚠️  Failed to purge expired entries: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("🧹 Purged %d expired entries", n)
			}
		}
	}
}

func initFCM(ctx context.Context, cfg *config.Config) *services.FCMService {
	if cfg.FirebaseCredentialsBase64 != "" {
		fcm, err := services.NewFCMServiceFromBase64(ctx, cfg.FirebaseCredentialsBase64)
		if err != nil {
			log.Printf("⚠️  Failed to initialize FCM from base64: %v (push notifications disabled)", err)
			return nil
		}
		log.Println("✅ Firebase Cloud Messaging initialized from base64 credentials")
		return fcm
	}
	if cfg.FirebaseCredentialsFile != "" {
		fcm, err := services.NewFCMService(ctx, cfg.FirebaseCredentialsFile)
		if err != nil {
			log.Printf("⚠️  Failed to initialize FCM from file: %v (push notifications disabled)", err)
			return nil
		}
		log.Println("✅ Firebase Cloud Messaging initialized from file")
		return fcm
	}
	log.Println("ℹ️  Firebase credentials not set (push notifications disabled)")
	return nil
}
