package instrument

import (
	"encoding/json"
	"strings"
)

const masked = "***"

// MaskKeys normalizes field names into a lookup set.
func MaskKeys(fields []string) map[string]struct{} {
	keys := make(map[string]struct{}, len(fields))
	for _, field := range fields {
		field = strings.TrimSpace(strings.ToLower(field))
		if field != "" {
			keys[field] = struct{}{}
		}
	}
	return keys
}

// MaskValue walks decoded JSON values and replaces sensitive keys.
func MaskValue(v any, keys map[string]struct{}) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			if _, hit := keys[strings.ToLower(k)]; hit {
				out[k] = masked
				continue
			}
			out[k] = MaskValue(inner, keys)
		}
		return out
	case map[string]string:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			if _, hit := keys[strings.ToLower(k)]; hit {
				out[k] = masked
				continue
			}
			out[k] = inner
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, inner := range val {
			out[i] = MaskValue(inner, keys)
		}
		return out
	default:
		return v
	}
}

// MaskJSON masks a JSON document. ok is false when payload is not JSON.
func MaskJSON(payload []byte, keys map[string]struct{}) (out string, ok bool) {
	if len(payload) == 0 || (payload[0] != '{' && payload[0] != '[') {
		return "", false
	}

	var doc any
	if err := json.Unmarshal(payload, &doc); err != nil {
		return "", false
	}

	b, err := json.Marshal(MaskValue(doc, keys))
	if err != nil {
		return "", false
	}
	return string(b), true
}
