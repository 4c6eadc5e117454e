package ds

import (
	"encoding/json"
	"strings"

	"github.com/chainctl/actioneer/model"
)

// Resolve looks up a dotted key against the network's data-source tree,
// falling back to the metrics tree. A node qualifies as a leaf only if it
// declares an endpoint source; anything else is a resolution error.
func Resolve(network *model.Network, key string) (*model.DsLeaf, error) {
	for _, tree := range []map[string]any{network.Ds, network.Metrics} {
		node, ok := walk(tree, key)
		if !ok {
			continue
		}
		leaf, err := decodeLeaf(node)
		if err != nil {
			continue
		}
		if leaf.Source == nil || leaf.Source.Path == "" {
			return nil, ResolutionError{Key: key, Reason: "node declares no source"}
		}
		return leaf, nil
	}
	return nil, ResolutionError{Key: key}
}

func walk(tree map[string]any, key string) (map[string]any, bool) {
	if tree == nil {
		return nil, false
	}
	node := tree
	for _, seg := range strings.Split(key, ".") {
		next, ok := node[seg].(map[string]any)
		if !ok {
			return nil, false
		}
		node = next
	}
	if _, ok := node["source"]; !ok {
		return nil, false
	}
	return node, true
}

func decodeLeaf(node map[string]any) (*model.DsLeaf, error) {
	data, err := json.Marshal(node)
	if err != nil {
		return nil, err
	}
	var leaf model.DsLeaf
	if err := json.Unmarshal(data, &leaf); err != nil {
		return nil, err
	}
	return &leaf, nil
}
