package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"teniszklub/internal/adapters/email"
	web "teniszklub/internal/adapters/http"
	"teniszklub/internal/adapters/lock"
	"teniszklub/internal/adapters/storage"
	auditStore "teniszklub/internal/adapters/storage/audit"
	bookingStore "teniszklub/internal/adapters/storage/booking"
	closureStore "teniszklub/internal/adapters/storage/closure"
	courtStore "teniszklub/internal/adapters/storage/court"
	ledgerStore "teniszklub/internal/adapters/storage/ledger"
	memberStore "teniszklub/internal/adapters/storage/member"
	settingsStore "teniszklub/internal/adapters/storage/settings"
	"teniszklub/internal/application/orchestrators"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	production := envOrDefault("TENISZ_ENV", "development") == "production"
	if production {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))
	}

	// Initialize database with WAL mode, foreign keys, and busy timeout
	dbPath := envOrDefault("TENISZ_DB", "teniszklub.db")
	db, err := sql.Open("sqlite", storage.DSN(dbPath))
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)

	if err := db.Ping(); err != nil {
		log.Fatalf("database unreachable: %v", err)
	}
	if err := storage.MigrateDB(db, dbPath); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	// Wrap the pool so slow queries are logged
	timedDB := storage.NewTimedDB(db, envMillis("TENISZ_SLOW_QUERY_MS", storage.DefaultSlowQuery))

	stores := &web.Stores{
		MemberStore:   memberStore.NewSQLiteStore(timedDB),
		CourtStore:    courtStore.NewSQLiteStore(timedDB),
		ClosureStore:  closureStore.NewSQLiteStore(timedDB),
		BookingStore:  bookingStore.NewSQLiteStore(timedDB),
		LedgerStore:   ledgerStore.NewSQLiteStore(timedDB),
		SettingsStore: settingsStore.NewSQLiteStore(timedDB),
		AuditStore:    auditStore.NewSQLiteStore(timedDB),
	}

	// Seed the bootstrap admin and the default courts (both idempotent)
	ctx := context.Background()
	seedDeps := orchestrators.SeedDeps{
		Members:    stores.MemberStore,
		Courts:     stores.CourtStore,
		Now:        time.Now,
		GenerateID: func() string { return uuid.New().String() },
	}
	err = orchestrators.ExecuteSeedAdmin(ctx, orchestrators.SeedAdminInput{
		Email:    os.Getenv("TENISZ_ADMIN_EMAIL"),
		Password: os.Getenv("TENISZ_ADMIN_PASSWORD"),
	}, seedDeps)
	if err != nil {
		log.Fatalf("failed to seed admin: %v", err)
	}
	if err := orchestrators.ExecuteSeedCourts(ctx, seedDeps); err != nil {
		log.Fatalf("failed to seed courts: %v", err)
	}

	// Configure email sender
	var mailer email.Sender
	resendKey := os.Getenv("TENISZ_RESEND_KEY")
	if resendKey != "" {
		mailer = email.NewResendSender(resendKey,
			envOrDefault("TENISZ_RESEND_FROM", "Teniszklub <noreply@teniszklub.hu>"),
			os.Getenv("TENISZ_REPLY_TO"))
		slog.Info("config_event", "event", "email_sender", "sender", "resend")
	} else {
		mailer = email.NewNoopSender()
		if production {
			slog.Warn("config_event", "event", "email_disabled", "hint", "set TENISZ_RESEND_KEY for delivery")
		}
	}

	// Quota lock: Redis when several instances share the database
	var locker lock.Locker = lock.NewMemory()
	if addr := os.Getenv("TENISZ_REDIS_ADDR"); addr != "" {
		client, err := lock.Dial(ctx, addr, os.Getenv("TENISZ_REDIS_PASSWORD"))
		if err != nil {
			log.Fatalf("failed to connect quota lock: %v", err)
		}
		defer client.Close()
		locker = lock.NewRedis(client, "teniszklub:")
		slog.Info("config_event", "event", "quota_lock", "backend", "redis", "addr", addr)
	}

	location, err := time.LoadLocation(envOrDefault("TENISZ_TIMEZONE", "Europe/Budapest"))
	if err != nil {
		log.Fatalf("invalid TENISZ_TIMEZONE: %v", err)
	}

	csrfKey, err := web.ParseCSRFKey(os.Getenv("TENISZ_CSRF_KEY"), production)
	if err != nil {
		log.Fatalf("invalid TENISZ_CSRF_KEY: %v", err)
	}

	var trustedOrigins []string
	if origins := os.Getenv("TENISZ_TRUSTED_ORIGINS"); origins != "" {
		trustedOrigins = strings.Split(origins, ",")
	}

	mux := web.NewMux("static", stores, web.Config{
		CSRFKey:        csrfKey,
		Production:     production,
		TrustedOrigins: trustedOrigins,
		Location:       location,
		Locker:         locker,
		Mailer:         mailer,
		SlowRequest:    envMillis("TENISZ_SLOW_REQUEST_MS", 0),
	})

	addr := envOrDefault("TENISZ_ADDR", ":8080")
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-stop
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown_failed", "error", err.Error())
		}
	}()

	slog.Info("server_event", "event", "starting", "version", version, "addr", addr,
		"production", production, "schema", storage.LatestSchemaVersion(), "timezone", location.String())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server failed: %v", err)
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// envMillis reads a millisecond duration; missing or invalid values yield fallback.
func envMillis(key string, fallback time.Duration) time.Duration {
	ms, err := strconv.Atoi(os.Getenv(key))
	if err != nil || ms <= 0 {
		return fallback
	}
	return time.Duration(ms) * time.Millisecond
}
