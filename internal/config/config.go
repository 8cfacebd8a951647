package config

import (
	"os"
	"time"
)

const (
	// Poll / reconciliation
	PollInterval = 30 * time.Second
	// DedupWindow bounds how far back a durable message's timestamp may lie
	// for it to suppress a live event with identical body text.
	DedupWindow = 120 * time.Second

	// WebSocket timings
	WriteWait      = 10 * time.Second
	PongWait       = 60 * time.Second
	PingPeriod     = (PongWait * 9) / 10
	MaxMessageSize = 4096

	// Legal response deadline for a new report.
	ReportDeadline = 7 * 24 * time.Hour

	// SessionNamespace keys the reporter's session-scoped secret storage.
	SessionNamespace = "whistleblower-session"
)

// Env returns the value of an environment variable or a fallback.
func Env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// APIBaseURL is the REST endpoint the transport client talks to.
func APIBaseURL() string {
	return Env("API_BASE_URL", "http://localhost:8080")
}

// WSEndpoint is the WebSocket gateway endpoint for live case threads.
func WSEndpoint() string {
	return Env("WS_ENDPOINT", "ws://localhost:8080/ws")
}
