package masking

import "strings"

const (
	redactedToken  = "[redacted]"
	maxValueLength = 256
)

var payloadKeys = map[string]struct{}{
	"image":          {},
	"photo_data_uri": {},
	"data_uri":       {},
}

// Redact returns a copy of metadata with image payloads replaced and long
// strings truncated so audit rows stay small.
func Redact(input map[string]any) map[string]any {
	if len(input) == 0 {
		return map[string]any{}
	}

	out := make(map[string]any, len(input))
	for key, value := range input {
		trimmedKey := strings.TrimSpace(key)
		if trimmedKey == "" {
			continue
		}
		if _, ok := payloadKeys[strings.ToLower(trimmedKey)]; ok {
			out[trimmedKey] = redactedToken
			continue
		}
		out[trimmedKey] = redactValue(value)
	}
	return out
}

func redactValue(value any) any {
	switch cast := value.(type) {
	case string:
		if strings.HasPrefix(cast, "data:") {
			return redactedToken
		}
		if len(cast) > maxValueLength {
			return cast[:maxValueLength] + "..."
		}
		return cast
	case map[string]any:
		return Redact(cast)
	case []any:
		out := make([]any, 0, len(cast))
		for _, item := range cast {
			out = append(out, redactValue(item))
		}
		return out
	default:
		return value
	}
}
