package template

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/chainctl/actioneer/logger"
	"github.com/oliveagle/jsonpath"
	"go.uber.org/zap"
)

// Evaluate resolves every balanced {{...}} span in tmpl against ctx. Literal
// text is copied verbatim. An unclosed {{ passes the remainder through
// unchanged. Missing paths resolve to the empty string, never an error.
func Evaluate(tmpl string, ctx map[string]any) string {
	var b strings.Builder
	i := 0
	for i < len(tmpl) {
		idx := strings.Index(tmpl[i:], "{{")
		if idx < 0 {
			b.WriteString(tmpl[i:])
			break
		}
		b.WriteString(tmpl[i : i+idx])
		start := i + idx
		end, ok := matchClose(tmpl, start)
		if !ok {
			b.WriteString(tmpl[start:])
			break
		}
		expr := strings.TrimSpace(tmpl[start+2 : end])
		b.WriteString(evalExpr(expr, ctx))
		i = end + 2
	}
	return b.String()
}

// EvaluateValue is the native-value variant of Evaluate for contexts that
// need arrays or objects (option lists) rather than display strings. When the
// evaluated string looks like serialized structured data it is parsed back,
// falling back to the raw string.
func EvaluateValue(tmpl string, ctx map[string]any) any {
	out := Evaluate(tmpl, ctx)
	trimmed := strings.TrimSpace(out)
	if strings.HasPrefix(trimmed, "[") || strings.HasPrefix(trimmed, "{") {
		var v any
		if err := json.Unmarshal([]byte(trimmed), &v); err == nil {
			return v
		}
	}
	return out
}

// matchClose scans forward from the opening {{ at start, tracking nesting
// depth so an expression may itself contain a sub-expression. Returns the
// index of the matching }}.
func matchClose(s string, start int) (int, bool) {
	depth := 0
	for i := start; i < len(s)-1; i++ {
		switch s[i : i+2] {
		case "{{":
			depth++
			i++
		case "}}":
			depth--
			if depth == 0 {
				return i, true
			}
			i++
		}
	}
	return 0, false
}

// evalExpr evaluates a single captured expression: either a function
// application name<inner> or a dotted path lookup.
func evalExpr(expr string, ctx map[string]any) string {
	if name, inner, ok := splitFunc(expr); ok {
		arg := evalExpr(inner, ctx)
		fn, found := funcs[name]
		if !found {
			logger.Warn("unknown template function", zap.String("function", name))
			return ""
		}
		return fn(arg, ctx)
	}
	if strings.Contains(expr, "{{") {
		return Evaluate(expr, ctx)
	}
	return lookup(expr, ctx)
}

// splitFunc recognizes name<inner>. The inner expression may itself contain
// angle brackets; everything between the first < and the final > is taken.
func splitFunc(expr string) (string, string, bool) {
	lt := strings.Index(expr, "<")
	if lt <= 0 || !strings.HasSuffix(expr, ">") {
		return "", "", false
	}
	name := expr[:lt]
	for _, r := range name {
		if !isIdent(r) {
			return "", "", false
		}
	}
	return name, expr[lt+1 : len(expr)-1], true
}

func isIdent(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

func lookup(path string, ctx map[string]any) string {
	value, err := jsonpath.JsonPathLookup(ctx, "$."+path)
	if err != nil {
		return ""
	}
	return Stringify(value)
}

// Stringify renders a resolved context value in its display form. Objects and
// arrays serialize to JSON, primitives to their plain textual form.
func Stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
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
