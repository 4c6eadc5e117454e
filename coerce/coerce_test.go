package coerce

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCoerce(t *testing.T) {
	for scenario, fn := range map[string]func(t *testing.T){
		"int from separated string":    testIntSeparators,
		"int is idempotent":            testIntIdempotent,
		"malformed number unchanged":   testMalformed,
		"boolean recognized spellings": testBoolean,
		"null yields nil":              testNull,
		"string from float has no exp": testStringFloat,
		"unknown kind passes through":  testUnknownKind,
	} {
		t.Run(scenario, fn)
	}
}

func testIntSeparators(t *testing.T) {
	require.Equal(t, int64(1500000), Coerce("1,500,000", "int"))
	require.Equal(t, float64(1500000.5), Coerce("1,500,000.5", "number"))
}

func testIntIdempotent(t *testing.T) {
	once := Coerce("42.7", "int")
	require.Equal(t, once, Coerce(once, "int"))
}

func testMalformed(t *testing.T) {
	require.Equal(t, "12abc", Coerce("12abc", "int"))
	require.Equal(t, "", Coerce("", "number"))
}

func testBoolean(t *testing.T) {
	for _, v := range []any{true, "true", "TRUE", 1, float64(1), "1", "on"} {
		require.Equal(t, true, Coerce(v, "boolean"), "value %v", v)
	}
	require.Equal(t, false, Coerce("off", "boolean"))
	require.Equal(t, false, Coerce(float64(0), "boolean"))
}

func testNull(t *testing.T) {
	require.Nil(t, Coerce("anything", "null"))
}

func testStringFloat(t *testing.T) {
	require.Equal(t, "1000000", Coerce(float64(1000000), "string"))
}

func testUnknownKind(t *testing.T) {
	require.Equal(t, "x", Coerce("x", "mystery"))
}

func TestApplyPaths(t *testing.T) {
	in := map[string]any{
		"amount": "1,000",
		"meta": map[string]any{
			"pages": "3",
		},
	}
	out := ApplyPaths(in, map[string]string{
		"amount":       "int",
		"meta.pages":   "int",
		"meta.missing": "int",
		"no.such.path": "int",
	})
	require.Equal(t, int64(1000), out["amount"])
	require.Equal(t, int64(3), out["meta"].(map[string]any)["pages"])

	// the input is untouched
	require.Equal(t, "1,000", in["amount"])
}
