package template

import (
	"math"
	"strconv"
	"strings"

	"github.com/oliveagle/jsonpath"
)

// The transform registry is fixed and fully enumerated. The template language
// supports only path lookups and these named functions, nothing else.
var funcs = map[string]func(arg string, ctx map[string]any) string{
	"uconvert": uconvert,
	"convert":  convert,
	"format":   format,
	"upper":    upper,
	"shorten":  shorten,
}

// ApplyTransform applies a named transform from the registry to a field
// value. The second return is false for unknown names.
func ApplyTransform(name string, value string, ctx map[string]any) (string, bool) {
	fn, ok := funcs[name]
	if !ok {
		return value, false
	}
	return fn(value, ctx), true
}

// uconvert converts an integer base-denomination amount to its display
// denomination using the chain's declared decimals.
func uconvert(arg string, ctx map[string]any) string {
	v, ok := parseNumber(arg)
	if !ok {
		return arg
	}
	return strconv.FormatFloat(v/math.Pow10(decimals(ctx)), 'f', -1, 64)
}

// convert converts a display-denomination amount to integer base units.
func convert(arg string, ctx map[string]any) string {
	v, ok := parseNumber(arg)
	if !ok {
		return arg
	}
	return strconv.FormatFloat(math.Round(v*math.Pow10(decimals(ctx))), 'f', 0, 64)
}

// format groups the integer part of a number with thousands separators.
func format(arg string, _ map[string]any) string {
	v, ok := parseNumber(arg)
	if !ok {
		return arg
	}
	whole := strconv.FormatFloat(math.Trunc(math.Abs(v)), 'f', 0, 64)
	var b strings.Builder
	if v < 0 {
		b.WriteByte('-')
	}
	lead := len(whole) % 3
	if lead > 0 {
		b.WriteString(whole[:lead])
		if len(whole) > lead {
			b.WriteByte(',')
		}
	}
	for i := lead; i < len(whole); i += 3 {
		b.WriteString(whole[i : i+3])
		if i+3 < len(whole) {
			b.WriteByte(',')
		}
	}
	if frac := math.Abs(v) - math.Trunc(math.Abs(v)); frac > 0 {
		fracStr := strconv.FormatFloat(frac, 'f', -1, 64)
		b.WriteString(fracStr[1:]) // drop leading 0
	}
	return b.String()
}

func upper(arg string, _ map[string]any) string {
	return strings.ToUpper(arg)
}

// shorten renders a long address as head...tail.
func shorten(arg string, _ map[string]any) string {
	if len(arg) <= 16 {
		return arg
	}
	return arg[:10] + "..." + arg[len(arg)-6:]
}

func parseNumber(s string) (float64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

func decimals(ctx map[string]any) int {
	value, err := jsonpath.JsonPathLookup(ctx, "$.chain.denom.decimals")
	if err != nil {
		return 6
	}
	switch v := value.(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return 6
}
