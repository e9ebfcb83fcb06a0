// Package sanitize cleans inbound tool arguments before they reach upstream
// services. It rewrites risky markup out of string fields and rejects bodies
// that match known injection signatures. This is hygiene for shared
// upstreams, not an authorization layer.
package sanitize

import (
	"encoding/json"
	"html"
	"regexp"
	"strings"

	"lanonasis-gateway/internal/gwerrors"
	"lanonasis-gateway/pkg/logging"
)

// Content-like fields keep their formatting. Everything else is escaped and
// trimmed.
var contentFields = map[string]bool{
	"content":     true,
	"description": true,
	"text":        true,
	"body":        true,
}

var (
	scriptTags = regexp.MustCompile(`(?is)<script\b[^>]*>.*?</script>|<script\b[^>]*/?>`)
	eventAttrs = regexp.MustCompile(`(?i)\bon\w+\s*=`)
	jsScheme   = regexp.MustCompile(`(?i)javascript\s*:`)
)

// Injection signature categories.
const (
	CategorySQLInjection   = "sql_injection"
	CategoryShellInjection = "shell_injection"
	CategoryPathTraversal  = "path_traversal"
)

type signature struct {
	category string
	pattern  *regexp.Regexp
}

var signatures = []signature{
	{CategorySQLInjection, regexp.MustCompile(`(?i)\b(union(\s+all)?\s+select|select\s+\*\s+from|insert\s+into|drop\s+(table|database)|delete\s+from|truncate\s+table|exec(ute)?\s+xp_)\b|'\s*(or|and)\s+'?\d+'?\s*=\s*'?\d|;\s*--`)},
	{CategoryShellInjection, regexp.MustCompile("(?i)[;&|]\\s*(rm|mv|curl|wget|nc|sh|bash|chmod|chown|kill)\\s|\\$\\([^)]*\\)|`[^`]+`|\\|\\s*(sh|bash)\\b")},
	{CategoryPathTraversal, regexp.MustCompile(`(?i)\.\./|\.\.\\|%2e%2e%2f|%2e%2e/|\.\.%2f`)},
}

// Detect serializes args and reports the first matching injection signature.
func Detect(args map[string]interface{}) (string, bool) {
	raw, err := json.Marshal(args)
	if err != nil {
		return "", false
	}
	body := string(raw)
	for _, sig := range signatures {
		if sig.pattern.MatchString(body) {
			return sig.category, true
		}
	}
	return "", false
}

// Clean rewrites every string field in args. Content-like fields lose script
// tags, event handler attributes, javascript: schemes, and null bytes but
// keep their formatting. Other string fields are HTML-escaped and trimmed.
// Maps and slices are walked recursively. The input is not modified.
func Clean(args map[string]interface{}) map[string]interface{} {
	if args == nil {
		return nil
	}
	out := make(map[string]interface{}, len(args))
	for key, value := range args {
		out[key] = cleanValue(key, value)
	}
	return out
}

func cleanValue(key string, value interface{}) interface{} {
	switch v := value.(type) {
	case string:
		if contentFields[strings.ToLower(key)] {
			return cleanContent(v)
		}
		return html.EscapeString(strings.TrimSpace(stripNulls(v)))
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, inner := range v {
			out[k] = cleanValue(k, inner)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, inner := range v {
			out[i] = cleanValue(key, inner)
		}
		return out
	default:
		return value
	}
}

func cleanContent(s string) string {
	s = stripNulls(s)
	s = scriptTags.ReplaceAllString(s, "")
	s = eventAttrs.ReplaceAllString(s, "")
	s = jsScheme.ReplaceAllString(s, "")
	return s
}

func stripNulls(s string) string {
	return strings.ReplaceAll(s, "\x00", "")
}

// Scrub runs both passes on a tool's arguments. Bodies matching an injection
// signature are rejected with a deliberately vague message; the matched
// category only goes to the log.
func Scrub(args map[string]interface{}) (map[string]interface{}, *gwerrors.Error) {
	if category, found := Detect(args); found {
		logging.Warn("Sanitize", "Rejected request body matching %s signature", category)
		return nil, gwerrors.InvalidInput("request contains disallowed input")
	}
	return Clean(args), nil
}
