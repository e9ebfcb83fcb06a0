package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"lanonasis-gateway/pkg/logging"
)

// Overrides carries command-line values that take precedence over the
// environment. Zero values mean "not set".
type Overrides struct {
	Mode      string
	Port      int
	LogLevel  string
	LogFormat string
}

// Load builds the immutable configuration record from flags, the process
// environment, and an optional .env file, in that precedence order. It
// returns an error only when a mandatory URL is missing or a value cannot be
// parsed; softer findings accumulate in Config.Warnings.
func Load(overrides Overrides) (Config, error) {
	// .env is a local-development convenience; values already present in
	// the environment win and a missing file is not an error.
	if err := godotenv.Load(); err == nil {
		logging.Debug("config", "loaded environment from .env")
	}

	var errs ValidationErrors
	var cfg Config

	mode := Mode(strings.ToLower(firstNonEmpty(overrides.Mode, string(ModeHTTP))))
	switch mode {
	case ModeHTTP, ModeStdio:
		cfg.Mode = mode
	default:
		errs.Add("mode", fmt.Sprintf("unknown mode %q (expected http or stdio)", mode), mode)
	}

	cfg.Port = intFromEnv(EnvPort, DefaultPort, &errs)
	if overrides.Port > 0 {
		cfg.Port = overrides.Port
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		errs.Add(EnvPort, fmt.Sprintf("port %d out of range (1-65535)", cfg.Port), cfg.Port)
	}

	cfg.LogLevel = firstNonEmpty(overrides.LogLevel, os.Getenv(EnvLogLevel), "info")
	if _, err := logging.ParseLevel(cfg.LogLevel); err != nil {
		errs.Add(EnvLogLevel, err.Error(), cfg.LogLevel)
	}
	cfg.LogFormat = firstNonEmpty(overrides.LogFormat, os.Getenv(EnvLogFormat), "machine")
	if _, err := logging.ParseFormat(cfg.LogFormat); err != nil {
		errs.Add(EnvLogFormat, err.Error(), cfg.LogFormat)
	}

	cfg.APIBaseURL = requireBaseURL(EnvAPIBaseURL, &errs)
	cfg.FunctionsBaseURL = requireBaseURL(EnvFunctionsBaseURL, &errs)
	cfg.APIKey = os.Getenv(EnvAPIKey)
	cfg.BearerToken = os.Getenv(EnvBearerToken)

	cfg.RequestTimeout = msFromEnv(EnvRequestTimeoutMS, DefaultRequestTimeout, &errs)
	cfg.MaxRetries = intFromEnv(EnvMaxRetries, DefaultMaxRetries, &errs)
	if cfg.MaxRetries < 0 {
		errs.Add(EnvMaxRetries, "retry budget must not be negative", cfg.MaxRetries)
	}
	cfg.RetryBaseDelay = msFromEnv(EnvRetryBaseDelayMS, DefaultRetryBaseDelay, &errs)
	cfg.WarmupInterval = msFromEnv(EnvWarmupIntervalMS, DefaultWarmupInterval, &errs)

	cfg.ServerURL = strings.TrimRight(os.Getenv(EnvServerURL), "/")
	if cfg.ServerURL == "" {
		cfg.ServerURL = fmt.Sprintf("http://localhost:%d", cfg.Port)
		if cfg.Mode == ModeHTTP {
			cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("%s not set; advertising %s to clients", EnvServerURL, cfg.ServerURL))
		}
	} else if _, err := parseHTTPURL(cfg.ServerURL); err != nil {
		errs.Add(EnvServerURL, err.Error(), cfg.ServerURL)
	}

	cfg.AuthServerURL = strings.TrimRight(os.Getenv(EnvAuthServerURL), "/")
	if cfg.AuthServerURL == "" && cfg.APIBaseURL != "" {
		cfg.AuthServerURL = originOf(cfg.APIBaseURL) + "/auth"
	} else if cfg.AuthServerURL != "" {
		if _, err := parseHTTPURL(cfg.AuthServerURL); err != nil {
			errs.Add(EnvAuthServerURL, err.Error(), cfg.AuthServerURL)
		}
	}

	cfg.ResourceURL = strings.TrimRight(os.Getenv(EnvResourceURL), "/")
	if cfg.ResourceURL == "" {
		cfg.ResourceURL = cfg.ServerURL + "/mcp"
	} else if _, err := parseHTTPURL(cfg.ResourceURL); err != nil {
		errs.Add(EnvResourceURL, err.Error(), cfg.ResourceURL)
	}

	if !cfg.HasCredentials() {
		cfg.Warnings = append(cfg.Warnings, "no upstream credentials configured; upstream calls will be unauthenticated")
	}
	if cfg.RequestTimeout > 0 && cfg.RequestTimeout < time.Second {
		cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("request timeout of %s may abort healthy upstream calls", cfg.RequestTimeout))
	}
	if cfg.MaxRetries > 10 {
		cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("retry budget of %d is unusually large", cfg.MaxRetries))
	}

	if errs.HasErrors() {
		return Config{}, errs
	}
	return cfg, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func intFromEnv(name string, fallback int, errs *ValidationErrors) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		errs.Add(name, fmt.Sprintf("not an integer: %q", raw), raw)
		return fallback
	}
	return v
}

func msFromEnv(name string, fallback time.Duration, errs *ValidationErrors) time.Duration {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		errs.Add(name, fmt.Sprintf("not an integer millisecond value: %q", raw), raw)
		return fallback
	}
	if v < 0 {
		errs.Add(name, "must not be negative", v)
		return fallback
	}
	return time.Duration(v) * time.Millisecond
}

func requireBaseURL(name string, errs *ValidationErrors) string {
	raw := strings.TrimRight(strings.TrimSpace(os.Getenv(name)), "/")
	if raw == "" {
		errs.Add(name, "required but not set")
		return ""
	}
	if _, err := parseHTTPURL(raw); err != nil {
		errs.Add(name, err.Error(), raw)
		return ""
	}
	return raw
}

func parseHTTPURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %v", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("URL %q must use http or https", raw)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("URL %q has no host", raw)
	}
	return u, nil
}

func originOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	return u.Scheme + "://" + u.Host
}
