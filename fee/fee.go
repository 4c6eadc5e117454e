package fee

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/chainctl/actioneer/ds"
	"github.com/chainctl/actioneer/logger"
	"github.com/chainctl/actioneer/model"
	"github.com/oliveagle/jsonpath"
	"go.uber.org/zap"
)

// Resolution is the outcome of a successful waterfall pass.
type Resolution struct {
	Amount string `json:"amount"`
	Denom  string `json:"denom,omitempty"`
	Source string `json:"source"`
}

// Querier is the subset of the data-source fetcher the providers need.
type Querier interface {
	Fetch(ctx context.Context, key string, callerCtx map[string]any) (any, error)
}

var _ Querier = (*ds.Fetcher)(nil)

// Resolve tries each provider in declared order and returns the first one
// that yields a usable fee. Individual provider failures advance silently to
// the next provider; only exhaustion of the whole list is surfaced.
func Resolve(ctx context.Context, querier Querier, cfg *model.FeeConfig, bucket string, callerCtx map[string]any) (*Resolution, error) {
	if cfg == nil || len(cfg.Providers) == 0 {
		return nil, fmt.Errorf("no fee providers configured")
	}
	multiplier := bucketMultiplier(cfg, bucket)
	var failures []string
	for _, provider := range cfg.Providers {
		resolution, err := resolveProvider(ctx, querier, &provider, multiplier, callerCtx)
		if err != nil {
			logger.Debug("fee provider failed", zap.String("provider", string(provider.Type)), zap.Error(err))
			failures = append(failures, fmt.Sprintf("%s: %v", provider.Type, err))
			continue
		}
		resolution.Denom = cfg.Denom
		return resolution, nil
	}
	return nil, fmt.Errorf("all fee providers failed: %s", strings.Join(failures, "; "))
}

// bucketMultiplier looks up the named urgency tier; an unknown bucket
// defaults to 1.0.
func bucketMultiplier(cfg *model.FeeConfig, bucket string) float64 {
	if m, ok := cfg.Buckets[bucket]; ok && m > 0 {
		return m
	}
	return 1.0
}

func resolveProvider(ctx context.Context, querier Querier, p *model.FeeProvider, multiplier float64, callerCtx map[string]any) (*Resolution, error) {
	switch p.Type {
	case model.FEE_STATIC:
		if p.Amount == "" {
			return nil, fmt.Errorf("static provider has no amount")
		}
		return &Resolution{Amount: p.Amount, Source: "static"}, nil
	case model.FEE_QUERY:
		return resolveQuery(ctx, querier, p, multiplier, callerCtx)
	case model.FEE_SIMULATE:
		return resolveSimulate(ctx, querier, p, multiplier, callerCtx)
	}
	return nil, fmt.Errorf("unknown provider type %q", p.Type)
}

func resolveQuery(ctx context.Context, querier Querier, p *model.FeeProvider, multiplier float64, callerCtx map[string]any) (*Resolution, error) {
	value, err := querier.Fetch(ctx, p.Ds, callerCtx)
	if err != nil {
		return nil, err
	}
	amount, err := numericResult(value, p.Selector)
	if err != nil {
		return nil, err
	}
	return &Resolution{
		Amount: strconv.FormatFloat(math.Ceil(amount*multiplier), 'f', 0, 64),
		Source: "query",
	}, nil
}

func resolveSimulate(ctx context.Context, querier Querier, p *model.FeeProvider, multiplier float64, callerCtx map[string]any) (*Resolution, error) {
	value, err := querier.Fetch(ctx, p.Ds, callerCtx)
	if err != nil {
		return nil, err
	}
	gasUsed, err := numericResult(value, p.Selector)
	if err != nil {
		return nil, err
	}
	adjustment := p.GasAdjustment
	if adjustment <= 0 {
		adjustment = 1.0
	}
	price := gasPrice(ctx, querier, p.GasPrice, callerCtx)
	amount := math.Ceil(gasUsed * adjustment * price * multiplier)
	return &Resolution{
		Amount: strconv.FormatFloat(amount, 'f', 0, 64),
		Source: "simulate",
	}, nil
}

// gasPrice resolves the simulate provider's gas price: a static constant, a
// remote query, or the configured fallback default.
func gasPrice(ctx context.Context, querier Querier, spec *model.GasPrice, callerCtx map[string]any) float64 {
	if spec == nil {
		return 1.0
	}
	if spec.Static != "" {
		if v, ok := parseFloat(spec.Static); ok {
			return v
		}
	}
	if spec.Ds != "" {
		value, err := querier.Fetch(ctx, spec.Ds, callerCtx)
		if err == nil {
			if v, err := numericResult(value, spec.Selector); err == nil {
				return v
			}
		}
		logger.Debug("gas price query failed, using default", zap.String("ds", spec.Ds))
	}
	if v, ok := parseFloat(spec.Default); ok {
		return v
	}
	return 1.0
}

// numericResult extracts a numeric value from a fetch result, applying the
// provider's own selector when declared. A non-numeric or absent result is a
// provider failure.
func numericResult(value any, selector string) (float64, error) {
	if selector != "" {
		selected, err := jsonpath.JsonPathLookup(value, "$."+selector)
		if err != nil {
			return 0, fmt.Errorf("selector %q yielded nothing", selector)
		}
		value = selected
	}
	switch v := value.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, err
		}
		return f, nil
	case string:
		if f, ok := parseFloat(v); ok {
			return f, nil
		}
	}
	return 0, fmt.Errorf("result %v is not numeric", value)
}

func parseFloat(s string) (float64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}
