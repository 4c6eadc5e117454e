package fee

import (
	"context"
	"fmt"
	"testing"

	"github.com/chainctl/actioneer/model"
	"github.com/stretchr/testify/require"
)

type stubQuerier struct {
	results map[string]any
	errs    map[string]error
}

func (s *stubQuerier) Fetch(_ context.Context, key string, _ map[string]any) (any, error) {
	if err, ok := s.errs[key]; ok {
		return nil, err
	}
	if v, ok := s.results[key]; ok {
		return v, nil
	}
	return nil, fmt.Errorf("no data for %s", key)
}

func TestResolveWaterfall(t *testing.T) {
	querier := &stubQuerier{errs: map[string]error{"fees.estimate": fmt.Errorf("boom")}}
	cfg := &model.FeeConfig{
		Denom: "utest",
		Providers: []model.FeeProvider{
			{Type: model.FEE_QUERY, Ds: "fees.estimate"},
			{Type: model.FEE_STATIC, Amount: "100"},
		},
	}

	res, err := Resolve(context.Background(), querier, cfg, "avg", nil)
	require.NoError(t, err)
	require.Equal(t, "100", res.Amount)
	require.Equal(t, "static", res.Source)
	require.Equal(t, "utest", res.Denom)
}

func TestResolveExhaustion(t *testing.T) {
	querier := &stubQuerier{errs: map[string]error{"a": fmt.Errorf("x"), "b": fmt.Errorf("y")}}
	cfg := &model.FeeConfig{Providers: []model.FeeProvider{
		{Type: model.FEE_QUERY, Ds: "a"},
		{Type: model.FEE_QUERY, Ds: "b"},
	}}
	_, err := Resolve(context.Background(), querier, cfg, "avg", nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "all fee providers failed")
}

func TestResolveQueryBucket(t *testing.T) {
	querier := &stubQuerier{results: map[string]any{"fees.estimate": float64(41)}}
	cfg := &model.FeeConfig{
		Buckets:   map[string]float64{"fast": 1.5},
		Providers: []model.FeeProvider{{Type: model.FEE_QUERY, Ds: "fees.estimate"}},
	}

	res, err := Resolve(context.Background(), querier, cfg, "fast", nil)
	require.NoError(t, err)
	// 41 * 1.5 rounded up
	require.Equal(t, "62", res.Amount)
	require.Equal(t, "query", res.Source)

	// unknown bucket defaults to multiplier 1.0
	res, err = Resolve(context.Background(), querier, cfg, "warp", nil)
	require.NoError(t, err)
	require.Equal(t, "41", res.Amount)
}

func TestResolveQuerySelector(t *testing.T) {
	querier := &stubQuerier{results: map[string]any{
		"fees.estimate": map[string]any{"fee": map[string]any{"amount": "250"}},
	}}
	cfg := &model.FeeConfig{Providers: []model.FeeProvider{
		{Type: model.FEE_QUERY, Ds: "fees.estimate", Selector: "fee.amount"},
	}}
	res, err := Resolve(context.Background(), querier, cfg, "avg", nil)
	require.NoError(t, err)
	require.Equal(t, "250", res.Amount)
}

func TestResolveQueryNonNumericFallsThrough(t *testing.T) {
	querier := &stubQuerier{results: map[string]any{"fees.estimate": "not a number"}}
	cfg := &model.FeeConfig{Providers: []model.FeeProvider{
		{Type: model.FEE_QUERY, Ds: "fees.estimate"},
		{Type: model.FEE_STATIC, Amount: "7"},
	}}
	res, err := Resolve(context.Background(), querier, cfg, "avg", nil)
	require.NoError(t, err)
	require.Equal(t, "static", res.Source)
}

func TestResolveSimulate(t *testing.T) {
	querier := &stubQuerier{results: map[string]any{
		"tx.simulate": map[string]any{"gas_info": map[string]any{"gas_used": float64(80000)}},
		"fees.price":  float64(0.025),
	}}
	cfg := &model.FeeConfig{
		Buckets: map[string]float64{"avg": 1.0},
		Providers: []model.FeeProvider{{
			Type:          model.FEE_SIMULATE,
			Ds:            "tx.simulate",
			Selector:      "gas_info.gas_used",
			GasAdjustment: 1.3,
			GasPrice:      &model.GasPrice{Ds: "fees.price"},
		}},
	}
	res, err := Resolve(context.Background(), querier, cfg, "avg", nil)
	require.NoError(t, err)
	// ceil(80000 * 1.3 * 0.025)
	require.Equal(t, "2600", res.Amount)
	require.Equal(t, "simulate", res.Source)
}

func TestResolveSimulateGasPriceDefault(t *testing.T) {
	querier := &stubQuerier{
		results: map[string]any{
			"tx.simulate": map[string]any{"gas_info": map[string]any{"gas_used": float64(1000)}},
		},
		errs: map[string]error{"fees.price": fmt.Errorf("down")},
	}
	cfg := &model.FeeConfig{Providers: []model.FeeProvider{{
		Type:     model.FEE_SIMULATE,
		Ds:       "tx.simulate",
		Selector: "gas_info.gas_used",
		GasPrice: &model.GasPrice{Ds: "fees.price", Default: "0.5"},
	}}}
	res, err := Resolve(context.Background(), querier, cfg, "avg", nil)
	require.NoError(t, err)
	require.Equal(t, "500", res.Amount)
}
