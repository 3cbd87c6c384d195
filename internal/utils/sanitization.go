package utils

import (
	"fmt"
	"regexp"
	"strings"
)

// Base64 payloads above this length are truncated in log output.
const base64TruncateThreshold = 100

var (
	// Captures a data URL prefix and its base64 payload separately so only
	// the payload is truncated.
	dataURLPattern = regexp.MustCompile(`(?i)(data:[^;]+;base64,)([A-Za-z0-9+/]{100,}={0,2})`)
	// Matches long bare base64 strings inside quoted JSON values.
	quotedBase64Pattern = regexp.MustCompile(`"([A-Za-z0-9+/]{100,}={0,2})"`)
)

// TruncateBase64InData walks any JSON-shaped value and truncates long
// base64 payloads so log lines stay readable. The input is not mutated.
func TruncateBase64InData(data any) any {
	switch v := data.(type) {
	case string:
		return truncateBase64String(v)
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, value := range v {
			out[key] = TruncateBase64InData(value)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, value := range v {
			out[i] = TruncateBase64InData(value)
		}
		return out
	case []string:
		out := make([]string, len(v))
		for i, s := range v {
			out[i] = truncateBase64String(s)
		}
		return out
	case map[string][]string:
		out := make(map[string][]string, len(v))
		for key, values := range v {
			out[key] = TruncateBase64InData(values).([]string)
		}
		return out
	default:
		return v
	}
}

func truncateBase64String(s string) string {
	s = dataURLPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := dataURLPattern.FindStringSubmatch(match)
		if len(parts) != 3 {
			return match
		}
		return parts[1] + truncatePayload(parts[2])
	})

	// A string that is itself a bare data URL without the regex-matchable
	// envelope still gets its payload trimmed.
	if strings.HasPrefix(s, "data:") && strings.Contains(s, ";base64,") {
		parts := strings.SplitN(s, ";base64,", 2)
		if len(parts) == 2 && len(parts[1]) > base64TruncateThreshold {
			return parts[0] + ";base64," + truncatePayload(parts[1])
		}
	}

	return quotedBase64Pattern.ReplaceAllStringFunc(s, func(match string) string {
		payload := match[1 : len(match)-1]
		if len(payload) <= base64TruncateThreshold {
			return match
		}
		return `"` + truncatePayload(payload) + `"`
	})
}

// SanitizeHeaders masks credential-bearing headers before logging.
func SanitizeHeaders(headers map[string][]string) map[string][]string {
	if headers == nil {
		return nil
	}
	out := make(map[string][]string, len(headers))
	for key, values := range headers {
		switch strings.ToLower(key) {
		case "authorization", "proxy-authorization", "cookie", "set-cookie":
			out[key] = []string{"***MASKED***"}
		default:
			out[key] = TruncateBase64InData(values).([]string)
		}
	}
	return out
}

func truncatePayload(payload string) string {
	if len(payload) <= base64TruncateThreshold {
		return payload
	}
	return fmt.Sprintf("%s...[%d chars truncated]...%s",
		payload[:50], len(payload)-100, payload[len(payload)-50:])
}
