package model

// Network is the per-deployment configuration document: host endpoints,
// denomination info, the data-source tree and fee policy. Loaded once per
// active network selection and treated as immutable for the lifetime of a
// workflow run.
type Network struct {
	Name                  string         `json:"name"`
	Rpc                   string         `json:"rpc"`
	Admin                 string         `json:"admin,omitempty"`
	Denom                 DenomInfo      `json:"denom"`
	Ds                    map[string]any `json:"ds,omitempty"`
	Metrics               map[string]any `json:"metrics,omitempty"`
	Fees                  *FeeConfig     `json:"fees,omitempty"`
	SessionTimeoutSeconds int            `json:"sessionTimeoutSeconds,omitempty"`
	CacheStaleSeconds     int            `json:"cacheStaleSeconds,omitempty"`
}

type DenomInfo struct {
	Base     string `json:"base"`
	Display  string `json:"display"`
	Decimals int    `json:"decimals"`
}

// ChainContext is the "chain" member of every template context.
func (n *Network) ChainContext() map[string]any {
	return map[string]any{
		"name":  n.Name,
		"rpc":   n.Rpc,
		"admin": n.Admin,
		"denom": map[string]any{
			"base":     n.Denom.Base,
			"display":  n.Denom.Display,
			"decimals": n.Denom.Decimals,
		},
	}
}

// Host maps a host selector from a manifest or data-source leaf to a base URL.
func (n *Network) Host(selector string) string {
	if selector == "admin" {
		return n.Admin
	}
	return n.Rpc
}
