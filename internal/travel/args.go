package travel

import (
	"encoding/json"
	"fmt"
)

// stringArg returns a string argument, or "" when absent.
func stringArg(args map[string]any, key string) string {
	v, ok := args[key]
	if !ok || v == nil {
		return ""
	}
	s, _ := v.(string)
	return s
}

// intArg returns an integer argument. JSON decoding yields float64 for
// numbers; models occasionally send numeric strings too.
func intArg(args map[string]any, key string) (int, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return 0, fmt.Errorf("missing integer argument %q", key)
	}
	switch n := v.(type) {
	case float64:
		return int(n), nil
	case int:
		return n, nil
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, fmt.Errorf("argument %q is not an integer: %w", key, err)
		}
		return int(i), nil
	case string:
		var i int
		if _, err := fmt.Sscanf(n, "%d", &i); err != nil {
			return 0, fmt.Errorf("argument %q is not an integer: %w", key, err)
		}
		return i, nil
	default:
		return 0, fmt.Errorf("argument %q has unexpected type %T", key, v)
	}
}

// intArgDefault returns an integer argument or the default when absent.
func intArgDefault(args map[string]any, key string, def int) int {
	if _, ok := args[key]; !ok {
		return def
	}
	i, err := intArg(args, key)
	if err != nil {
		return def
	}
	return i
}

// marshalRows renders search results for the model. Empty result sets
// render as an empty JSON array rather than "null".
func marshalRows(rows []map[string]any) (string, error) {
	if len(rows) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(rows)
	if err != nil {
		return "", fmt.Errorf("failed to encode results: %w", err)
	}
	return string(data), nil
}
