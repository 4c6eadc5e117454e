package model

type FeeProviderType string

const FEE_STATIC FeeProviderType = "static"
const FEE_QUERY FeeProviderType = "query"
const FEE_SIMULATE FeeProviderType = "simulate"

// FeeConfig is an ordered waterfall of fee providers plus the named bucket
// multiplier table (e.g. slow/avg/fast).
type FeeConfig struct {
	Providers []FeeProvider      `json:"providers"`
	Buckets   map[string]float64 `json:"buckets,omitempty"`
	Denom     string             `json:"denom,omitempty"`
}

type FeeProvider struct {
	Type          FeeProviderType `json:"type"`
	Amount        string          `json:"amount,omitempty"`        // static
	Ds            string          `json:"ds,omitempty"`            // query, simulate
	Selector      string          `json:"selector,omitempty"`      // numeric value / gas used
	GasAdjustment float64         `json:"gasAdjustment,omitempty"` // simulate
	GasPrice      *GasPrice       `json:"gasPrice,omitempty"`      // simulate
}

// GasPrice is either a static constant or a separately queried value with its
// own fallback default.
type GasPrice struct {
	Static   string `json:"static,omitempty"`
	Ds       string `json:"ds,omitempty"`
	Selector string `json:"selector,omitempty"`
	Default  string `json:"default,omitempty"`
}
