package web

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"teniszklub/internal/adapters/email"
	"teniszklub/internal/adapters/http/middleware"
	"teniszklub/internal/adapters/lock"
	auditStore "teniszklub/internal/adapters/storage/audit"
	bookingStore "teniszklub/internal/adapters/storage/booking"
	closureStore "teniszklub/internal/adapters/storage/closure"
	courtStore "teniszklub/internal/adapters/storage/court"
	ledgerStore "teniszklub/internal/adapters/storage/ledger"
	memberStore "teniszklub/internal/adapters/storage/member"
	settingsStore "teniszklub/internal/adapters/storage/settings"
)

// Stores holds all storage dependencies.
type Stores struct {
	MemberStore   memberStore.Store
	CourtStore    courtStore.Store
	ClosureStore  closureStore.Store
	BookingStore  bookingStore.Store
	LedgerStore   ledgerStore.Store
	SettingsStore settingsStore.Store
	AuditStore    auditStore.Store
}

// Config carries the process-level settings the handlers need.
type Config struct {
	// CSRFKey is the 32-byte gorilla/csrf secret.
	CSRFKey        []byte
	Production     bool
	TrustedOrigins []string
	// Location is the club's wall-clock zone; nil means UTC.
	Location *time.Location
	// Locker serializes weekly quota checks; nil uses an in-process lock.
	Locker      lock.Locker
	Mailer      email.Sender
	SlowRequest time.Duration
}

// ErrInvalidCSRFKey is returned by ParseCSRFKey for a malformed key.
var ErrInvalidCSRFKey = errors.New("csrf key must be 64 hex characters (32 bytes)")

// ErrCSRFKeyRequired is returned by ParseCSRFKey when production runs without a key.
var ErrCSRFKeyRequired = errors.New("csrf key is required in production")

// ParseCSRFKey decodes a hex-encoded 32-byte key. An empty key is allowed
// outside production and yields a random one, so sessions do not survive a
// restart.
func ParseCSRFKey(keyHex string, production bool) ([]byte, error) {
	if keyHex != "" {
		key, err := hex.DecodeString(keyHex)
		if err != nil || len(key) != 32 {
			return nil, ErrInvalidCSRFKey
		}
		return key, nil
	}
	if production {
		return nil, ErrCSRFKeyRequired
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, err
	}
	slog.Warn("config_event", "event", "random_csrf_key", "hint", "set TENISZ_CSRF_KEY to keep forms valid across restarts")
	return key, nil
}

// Global stores instance (set by NewMux)
var stores *Stores

// Global session store instance
var sessions *middleware.SessionStore

// RateLimitPerSecond controls the per-IP rate limit. Tests can increase this.
var RateLimitPerSecond = 10

// Global email sender instance (set by NewMux); nil disables mail.
var emailSender email.Sender

// clubLocation is the zone booking dates and hours are read in.
var clubLocation = time.UTC

// quotaLocker serializes free-hour quota checks per user and week.
var quotaLocker lock.Locker = lock.NewMemory()

// NewMux wires HTTP handlers for the app.
func NewMux(staticDir string, s *Stores, cfg Config) http.Handler {
	stores = s
	sessions = middleware.NewSessionStore()
	emailSender = cfg.Mailer
	if cfg.Location != nil {
		clubLocation = cfg.Location
	}
	if cfg.Locker != nil {
		quotaLocker = cfg.Locker
	}
	middleware.SecureCookies = cfg.Production

	mux := http.NewServeMux()
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir(staticDir))))
	registerRoutes(mux)

	// Rate limiter: configurable requests per second per IP (OWASP A04)
	limiter := middleware.NewRateLimiter(RateLimitPerSecond, time.Second)

	// Request flow: Timing -> RateLimit -> Auth -> CSRF -> SecurityHeaders -> Mux
	return middleware.Chain(mux,
		middleware.SecurityHeaders,
		middleware.CSRF(cfg.CSRFKey, cfg.TrustedOrigins),
		middleware.Auth(sessions),
		middleware.RateLimit(limiter),
		middleware.Timing(cfg.SlowRequest),
	)
}
