package config

import "time"

// Database connection pool settings
const (
	DBMaxOpenConns    = 25
	DBMaxIdleConns    = 5
	DBConnMaxLifetime = 5 * time.Minute
)

// HTTP server timeouts
const (
	ServerRequestTimeout  = 60 * time.Second
	ServerReadTimeout     = 15 * time.Second
	ServerIdleTimeout     = 120 * time.Second
	ServerShutdownTimeout = 30 * time.Second
)

// Database ping timeout for health checks
const DBPingTimeout = 5 * time.Second

// Background job intervals
const CleanupJobInterval = 10 * time.Minute

// Driver access-code length band after normalization. Codes outside the
// band are a malformed request, not a credential miss.
const (
	AccessCodeMinLen = 8
	AccessCodeMaxLen = 32
)

// Auth endpoint rate limits (per client IP)
const (
	AuthRateLimit  = 5
	AuthRateWindow = time.Minute
)

// Temperature sessions left open longer than this are auto-closed by the
// cleanup job.
const TempSessionMaxAge = 24 * time.Hour

// Activity-log rows older than this are purged.
const ActivityLogRetention = 90 * 24 * time.Hour

// Outbound HTTP timeout for storage and CRM calls
const OutboundTimeout = 5 * time.Second
