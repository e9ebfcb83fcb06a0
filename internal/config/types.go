package config

import "time"

// Mode selects how the gateway serves MCP traffic.
type Mode string

const (
	// ModeHTTP serves MCP over HTTP (single-shot and streaming sessions)
	// alongside the operational and discovery endpoints.
	ModeHTTP Mode = "http"
	// ModeStdio ties a single MCP session to stdin/stdout, for use as a
	// subprocess of an AI client.
	ModeStdio Mode = "stdio"
)

// Environment variable names recognized at startup.
const (
	EnvPort             = "PORT"
	EnvLogLevel         = "LOG_LEVEL"
	EnvLogFormat        = "LOG_FORMAT"
	EnvAPIBaseURL       = "LANONASIS_API_URL"
	EnvFunctionsBaseURL = "LANONASIS_FUNCTIONS_URL"
	EnvAPIKey           = "LANONASIS_API_KEY"
	EnvBearerToken      = "LANONASIS_BEARER_TOKEN"
	EnvRequestTimeoutMS = "REQUEST_TIMEOUT_MS"
	EnvMaxRetries       = "MAX_RETRIES"
	EnvRetryBaseDelayMS = "RETRY_BASE_DELAY_MS"
	EnvWarmupIntervalMS = "WARMUP_INTERVAL_MS"
	EnvAuthServerURL    = "AUTH_SERVER_URL"
	EnvResourceURL      = "RESOURCE_URL"
	EnvServerURL        = "SERVER_URL"
)

const (
	DefaultPort           = 8080
	DefaultRequestTimeout = 30 * time.Second
	DefaultMaxRetries     = 3
	DefaultRetryBaseDelay = 500 * time.Millisecond
	DefaultWarmupInterval = 5 * time.Minute
)

// Config is the immutable configuration record built once at startup.
// Warnings carries non-fatal findings for the orchestrator to log.
type Config struct {
	Mode      Mode
	Port      int
	LogLevel  string
	LogFormat string

	APIBaseURL       string
	FunctionsBaseURL string
	APIKey           string
	BearerToken      string

	RequestTimeout time.Duration
	MaxRetries     int
	RetryBaseDelay time.Duration
	WarmupInterval time.Duration

	AuthServerURL string
	ResourceURL   string
	ServerURL     string

	Warnings []string
}

// HasCredentials reports whether any upstream credential is configured.
func (c Config) HasCredentials() bool {
	return c.APIKey != "" || c.BearerToken != ""
}
