package ds

import (
	"encoding/json"
	"strings"

	"github.com/chainctl/actioneer/coerce"
	"github.com/chainctl/actioneer/model"
	"github.com/oliveagle/jsonpath"
)

// ParseResponse normalizes a raw response body per the leaf's declared specs:
// structured parse when the content type indicates it, a one-level re-parse
// of embedded serialized payloads (some upstreams double-encode), response
// coercion, then selector extraction.
func ParseResponse(leaf *model.DsLeaf, contentType string, body []byte) (any, error) {
	var parsed any
	if isStructured(contentType) {
		if err := json.Unmarshal(body, &parsed); err != nil {
			return nil, err
		}
	} else {
		parsed = string(body)
	}
	parsed = reparseEmbedded(parsed)

	if m, ok := parsed.(map[string]any); ok && leaf.Coerce != nil {
		parsed = coerce.ApplyPaths(m, leaf.Coerce.Response)
	}

	selected := parsed
	if leaf.Selector != "" {
		selected = selectPath(parsed, leaf.Selector)
	}
	if leaf.SelectorEach != "" {
		if list, ok := selected.([]any); ok {
			out := make([]any, 0, len(list))
			for _, item := range list {
				out = append(out, selectOne(item, leaf.SelectorEach))
			}
			selected = out
		}
	}
	return selected, nil
}

func isStructured(contentType string) bool {
	return contentType == "" || strings.Contains(contentType, "json")
}

// reparseEmbedded re-parses string values that look like serialized
// structured data, one level deep. Kept as documented behavior for upstreams
// that double-encode their payloads.
func reparseEmbedded(value any) any {
	switch v := value.(type) {
	case string:
		if parsed, ok := tryParse(v); ok {
			return parsed
		}
	case []any:
		for i, item := range v {
			if s, ok := item.(string); ok {
				if parsed, ok := tryParse(s); ok {
					v[i] = parsed
				}
			}
		}
	case map[string]any:
		for k, item := range v {
			if s, ok := item.(string); ok {
				if parsed, ok := tryParse(s); ok {
					v[k] = parsed
				}
			}
		}
	}
	return value
}

func tryParse(s string) (any, bool) {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "{") && !strings.HasPrefix(trimmed, "[") {
		return nil, false
	}
	var parsed any
	if err := json.Unmarshal([]byte(trimmed), &parsed); err != nil {
		return nil, false
	}
	return parsed, true
}

// selectPath extracts a dotted path from the parsed body. When the path
// yields nothing but the body is a list, the selector is applied per element
// instead, tolerating both single-object and list-shaped parents.
func selectPath(parsed any, selector string) any {
	if value := selectOne(parsed, selector); value != nil {
		return value
	}
	if list, ok := parsed.([]any); ok {
		out := make([]any, 0, len(list))
		for _, item := range list {
			out = append(out, selectOne(item, selector))
		}
		return out
	}
	return nil
}

func selectOne(parent any, selector string) any {
	value, err := jsonpath.JsonPathLookup(parent, "$."+selector)
	if err != nil {
		return nil
	}
	return value
}
