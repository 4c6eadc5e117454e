package template

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func testContext() map[string]any {
	return map[string]any{
		"form": map[string]any{
			"amount": "1500000",
			"to":     "chain1qxy2kgdygjrsqtzq2n0yrf2493p83kkfjhx0wlh",
		},
		"chain": map[string]any{
			"denom": map[string]any{
				"base":     "uatom",
				"display":  "ATOM",
				"decimals": float64(6),
			},
		},
		"account": map[string]any{
			"balance": float64(2500000),
		},
	}
}

func TestEvaluate(t *testing.T) {
	for scenario, fn := range map[string]func(t *testing.T){
		"literal text passes through":   testLiteral,
		"path lookup":                   testPathLookup,
		"missing path yields empty":     testMissingPath,
		"unclosed span stays verbatim":  testUnclosed,
		"function application":          testFunction,
		"nested sub-expression":         testNested,
		"unknown function yields empty": testUnknownFunction,
		"object value serializes":       testObjectValue,
	} {
		t.Run(scenario, fn)
	}
}

func testLiteral(t *testing.T) {
	require.Equal(t, "no templates here", Evaluate("no templates here", testContext()))
}

func testPathLookup(t *testing.T) {
	out := Evaluate("send {{form.amount}} now", testContext())
	require.Equal(t, "send 1500000 now", out)
	require.NotContains(t, out, "{{")
	require.NotContains(t, out, "}}")
}

func testMissingPath(t *testing.T) {
	require.Equal(t, "", Evaluate("{{form.nope.deeper}}", testContext()))
	require.Equal(t, "x--y", Evaluate("x-{{totally.absent}}-y", testContext()))
}

func testUnclosed(t *testing.T) {
	require.Equal(t, "before {{form.amount", Evaluate("before {{form.amount", testContext()))
	require.Equal(t, "a {{", Evaluate("a {{", testContext()))
}

func testFunction(t *testing.T) {
	require.Equal(t, "1.5", Evaluate("{{uconvert<form.amount>}}", testContext()))
	require.Equal(t, "ATOM", Evaluate("{{upper<chain.denom.display>}}", testContext()))
	require.Equal(t, "chain1qxy2...hx0wlh", Evaluate("{{shorten<form.to>}}", testContext()))
}

func testNested(t *testing.T) {
	// the inner span resolves first, then the outer function applies
	out := Evaluate("{{format<{{account.balance}}>}}", testContext())
	require.Equal(t, "2,500,000", out)
}

func testUnknownFunction(t *testing.T) {
	require.Equal(t, "", Evaluate("{{frobnicate<form.amount>}}", testContext()))
}

func testObjectValue(t *testing.T) {
	out := Evaluate("{{chain.denom}}", testContext())
	require.Contains(t, out, `"base":"uatom"`)
}

func TestEvaluateValue(t *testing.T) {
	ctx := map[string]any{
		"ds": map[string]any{
			"validators": []any{
				map[string]any{"label": "a", "value": float64(1)},
				map[string]any{"label": "b", "value": float64(2)},
			},
		},
	}
	out := EvaluateValue("{{ds.validators}}", ctx)
	list, ok := out.([]any)
	require.True(t, ok)
	require.Len(t, list, 2)

	require.Equal(t, "plain", EvaluateValue("plain", ctx))
}

func TestTransformFuncs(t *testing.T) {
	ctx := testContext()
	require.Equal(t, "1500000", convert("1.5", ctx))
	require.Equal(t, "1.5", uconvert("1500000", ctx))
	require.Equal(t, "not a number", uconvert("not a number", ctx))
	require.Equal(t, "1,234,567", format("1234567", ctx))
	require.Equal(t, "123", format("123", ctx))
	require.Equal(t, "short", shorten("short", ctx))
}
