// Package sanitization redacts secrets and strips log-forging characters from values before
// they reach a log line or an error notification.
package sanitization

import (
	"fmt"
	"sort"
	"strings"
)

const redactedValue = "[REDACTED]"

// Keys are compared after lowercasing and dropping '_' and '-', so apiKey, api_key and
// API-KEY all match "apikey".
var (
	// passthroughKeys look like identifiers but are safe to log as-is.
	passthroughKeys = map[string]bool{
		"cognitopoolid":    true,
		"distributionid":   true,
		"hostedzoneid":     true,
		"physicalresource": true,
	}

	redactedSubstrings = []string{
		"secret",
		"token",
		"password",
		"privatekey",
		"apikey",
		"credential",
		"authorization",
	}

	maskedSubstrings = []string{
		"accountid",
		"accesskeyid",
	}
)

func normalizeKey(key string) string {
	return strings.NewReplacer("_", "", "-", "").Replace(strings.ToLower(strings.TrimSpace(key)))
}

// SanitizeLogString removes line breaks that could forge extra log lines.
func SanitizeLogString(value string) string {
	if !strings.ContainsAny(value, "\r\n") {
		return value
	}
	return strings.NewReplacer("\r", "", "\n", "").Replace(value)
}

// SanitizeFieldValue returns value fit for logging under key: redacted for secret-looking
// keys, last-four masked for account and access key ids, otherwise stringified with line
// breaks removed. Maps are sanitized per key.
func SanitizeFieldValue(key string, value any) any {
	norm := normalizeKey(key)
	if norm == "" || passthroughKeys[norm] {
		return sanitizeValue(value)
	}
	for _, s := range redactedSubstrings {
		if strings.Contains(norm, s) {
			return redactedValue
		}
	}
	for _, s := range maskedSubstrings {
		if strings.Contains(norm, s) {
			return maskLastFour(value)
		}
	}
	return sanitizeValue(value)
}

// SanitizeSettings returns a loggable view of a settings document.
func SanitizeSettings(settings map[string]string) map[string]any {
	if settings == nil {
		return nil
	}
	keys := make([]string, 0, len(settings))
	for k := range settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(map[string]any, len(settings))
	for _, k := range keys {
		out[k] = SanitizeFieldValue(k, settings[k])
	}
	return out
}

func sanitizeValue(value any) any {
	switch v := value.(type) {
	case nil:
		return nil
	case string:
		return SanitizeLogString(v)
	case []byte:
		return SanitizeLogString(string(v))
	case bool:
		return v
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, inner := range v {
			out[k] = SanitizeFieldValue(k, inner)
		}
		return out
	case map[string]string:
		out := make(map[string]any, len(v))
		for k, inner := range v {
			out[k] = SanitizeFieldValue(k, inner)
		}
		return out
	case []string:
		out := make([]any, len(v))
		for i := range v {
			out[i] = SanitizeLogString(v[i])
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i := range v {
			out[i] = sanitizeValue(v[i])
		}
		return out
	case error:
		return SanitizeLogString(v.Error())
	default:
		return SanitizeLogString(fmt.Sprintf("%v", v))
	}
}

func maskLastFour(value any) string {
	s, ok := value.(string)
	if !ok {
		return redactedValue
	}
	s = strings.TrimSpace(s)
	if len(s) <= 4 {
		return redactedValue
	}
	return strings.Repeat("*", len(s)-4) + s[len(s)-4:]
}
