package logging

import (
	"log/slog"
	"regexp"
	"strings"
)

const redactedPlaceholder = "[REDACTED]"

// sensitiveKeys is a list of substrings that suggest a key carries credential
// material. Matching is case-insensitive.
var sensitiveKeys = []string{
	"api_key", "apikey", "access_token", "token", "secret",
	"password", "passwd", "credential", "auth", "private_key",
	"client_secret",
}

// secretShapes match string values that are recognizably credentials even
// under an innocuous key: bearer headers, JWTs, and prefixed API keys.
var secretShapes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bbearer\s+[A-Za-z0-9._~+/=-]+`),
	regexp.MustCompile(`\beyJ[A-Za-z0-9_-]{8,}\.[A-Za-z0-9_-]{4,}\.[A-Za-z0-9_-]{4,}\b`),
	regexp.MustCompile(`\b(?:sk|pk|rk)_[A-Za-z0-9]{16,}\b`),
}

// IsSensitiveKey checks if a key name suggests it contains sensitive
// information. Hyphens match as underscores so header names like X-API-Key
// are caught.
func IsSensitiveKey(key string) bool {
	lower := strings.ReplaceAll(strings.ToLower(key), "-", "_")
	for _, s := range sensitiveKeys {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}

// MaskSecrets replaces credential-shaped substrings with the redaction
// placeholder, leaving the rest of the value intact.
func MaskSecrets(s string) string {
	for _, re := range secretShapes {
		s = re.ReplaceAllString(s, redactedPlaceholder)
	}
	return s
}

// redactAttr is installed as the handlers' ReplaceAttr hook. It rewrites
// sensitive attribute values before any record reaches an output.
func redactAttr(_ []string, a slog.Attr) slog.Attr {
	if a.Key == slog.TimeKey || a.Key == slog.LevelKey {
		return a
	}
	if a.Key == slog.MessageKey {
		a.Value = slog.StringValue(MaskSecrets(a.Value.String()))
		return a
	}
	if IsSensitiveKey(a.Key) {
		a.Value = slog.StringValue(redactedPlaceholder)
		return a
	}
	if a.Value.Kind() == slog.KindString {
		a.Value = slog.StringValue(MaskSecrets(a.Value.String()))
	}
	return a
}
