package field

import (
	"testing"

	"github.com/chainctl/actioneer/model"
	"github.com/stretchr/testify/require"
)

func testProps(f *model.Field) Props {
	return Props{
		Field: f,
		TemplateContext: map[string]any{
			"account": map[string]any{"balance": "5000"},
			"ds": map[string]any{
				"validators": []any{
					map[string]any{"label": "Alpha", "value": "val1"},
					map[string]any{"label": "Beta", "value": "val2"},
				},
			},
		},
	}
}

func TestRegistryDispatch(t *testing.T) {
	reg := NewRegistry()

	rendered := reg.Render(testProps(&model.Field{Type: "amount", Name: "amount", Label: "Amount"}))
	require.Equal(t, "amount", rendered.Kind)
	require.Equal(t, "Amount", rendered.Label)
	require.False(t, rendered.Unsupported)

	// unknown tags degrade to a visible marker
	rendered = reg.Render(testProps(&model.Field{Type: "holo-display", Name: "x"}))
	require.True(t, rendered.Unsupported)
	require.Equal(t, "unsupported field", rendered.Label)
}

func TestWrapperFeatures(t *testing.T) {
	var setName string
	var setValue any
	props := testProps(&model.Field{
		Type: "amount", Name: "amount",
		Features: []model.Feature{
			{Type: model.FEATURE_COPY, Label: "Copy"},
			{Type: model.FEATURE_SET, Label: "Max", Value: "{{account.balance}}"},
			{Type: model.FEATURE_PASTE, Label: "Paste"},
		},
	})
	props.Value = "123"
	props.SetFieldValue = func(name string, value any) { setName, setValue = name, value }

	rendered := NewRegistry().Render(props)
	require.Len(t, rendered.Features, 3)
	require.Equal(t, "123", rendered.Features[0].Value)

	require.Equal(t, "5000", rendered.Features[1].Value)
	rendered.Features[1].Apply()
	require.Equal(t, "amount", setName)
	require.Equal(t, "5000", setValue)

	require.Nil(t, rendered.Features[2].Apply)
}

func TestOptionPrecedence(t *testing.T) {
	static := []model.Option{{Label: "S", Value: "s"}}

	// map expression has top priority
	props := testProps(&model.Field{Type: "select", Name: "v", Map: "{{ds.validators}}", Options: static})
	props.DataSourceValue = []any{map[string]any{"label": "Live", "value": "live"}}
	opts := ResolveOptions(props)
	require.Len(t, opts, 2)
	require.Equal(t, "Alpha", opts[0].Label)

	// then the live data-source value
	props = testProps(&model.Field{Type: "select", Name: "v", Options: static})
	props.DataSourceValue = []any{map[string]any{"label": "Live", "value": "live"}}
	opts = ResolveOptions(props)
	require.Len(t, opts, 1)
	require.Equal(t, "Live", opts[0].Label)

	// finally the static inline options
	props = testProps(&model.Field{Type: "select", Name: "v", Options: static})
	opts = ResolveOptions(props)
	require.Equal(t, static, opts)
}

func TestDefaultValuePrecedence(t *testing.T) {
	f := &model.Field{Type: "amount", Name: "amount", Value: "{{account.balance}}"}

	// empty current value + templated default + ds value: the default wins
	props := testProps(f)
	props.DataSourceValue = map[string]any{"amount": "999"}
	require.Equal(t, "5000", DefaultValue(props))

	// a current value always wins
	props.Value = "42"
	require.Equal(t, "42", DefaultValue(props))

	// no template default: the ds payload's conventional keys apply
	props = testProps(&model.Field{Type: "amount", Name: "amount"})
	props.DataSourceValue = map[string]any{"amount": "999"}
	require.Equal(t, "999", DefaultValue(props))
}
