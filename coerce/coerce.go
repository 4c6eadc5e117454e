package coerce

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Coerce casts a raw value to the requested kind. Numeric coercions strip
// thousands separators; a malformed numeric input is returned unchanged
// rather than becoming NaN. Unknown kinds return the value as-is.
func Coerce(value any, kind string) any {
	switch kind {
	case "number", "float":
		v, ok := toFloat(value)
		if !ok {
			return value
		}
		return v
	case "int":
		v, ok := toFloat(value)
		if !ok {
			return value
		}
		return int64(math.Trunc(v))
	case "string":
		return toString(value)
	case "boolean":
		return toBool(value)
	case "null":
		return nil
	}
	return value
}

// ApplyPaths returns a deep copy of value with each dotted path coerced to
// its mapped kind. Paths whose parents do not exist are left untouched.
func ApplyPaths(value map[string]any, kinds map[string]string) map[string]any {
	if len(kinds) == 0 {
		return value
	}
	out := clone(value)
	for path, kind := range kinds {
		segments := strings.Split(path, ".")
		parent := out
		missing := false
		for _, seg := range segments[:len(segments)-1] {
			next, ok := parent[seg].(map[string]any)
			if !ok {
				missing = true
				break
			}
			parent = next
		}
		if missing {
			continue
		}
		leaf := segments[len(segments)-1]
		if _, ok := parent[leaf]; !ok {
			continue
		}
		parent[leaf] = Coerce(parent[leaf], kind)
	}
	return out
}

func clone(value map[string]any) map[string]any {
	out := make(map[string]any, len(value))
	for k, v := range value {
		switch inner := v.(type) {
		case map[string]any:
			out[k] = clone(inner)
		case []any:
			cp := make([]any, len(inner))
			for i, e := range inner {
				if m, ok := e.(map[string]any); ok {
					cp[i] = clone(m)
				} else {
					cp[i] = e
				}
			}
			out[k] = cp
		default:
			out[k] = v
		}
	}
	return out
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(v), ",", "")
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

func toString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(v, 10)
	case int:
		return strconv.Itoa(v)
	case json.Number:
		return v.String()
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(data)
	}
}

func toBool(value any) bool {
	switch v := value.(type) {
	case bool:
		return v
	case float64:
		return v == 1
	case int:
		return v == 1
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "1", "on":
			return true
		}
	}
	return false
}
