package metadata

import (
	"fmt"
	"strings"

	"github.com/chainctl/actioneer/model"
)

// ValidationError collects every defect found in a manifest.
type ValidationError struct {
	Errors []string
}

func (ve *ValidationError) Error() string {
	return fmt.Sprintf("manifest validation failed:\n  - %s", strings.Join(ve.Errors, "\n  - "))
}

func (ve *ValidationError) Add(msg string) {
	ve.Errors = append(ve.Errors, msg)
}

func (ve *ValidationError) HasErrors() bool {
	return len(ve.Errors) > 0
}

// ValidateManifest checks the structural invariants of a manifest: every
// action identified, wizard actions with at least one step, non-wizard
// actions with a form, and field names unique within an action's flattened
// field list.
func ValidateManifest(manifest *model.Manifest) error {
	ve := &ValidationError{}
	seen := make(map[string]bool)
	for i, action := range manifest.Actions {
		if action.Id == "" {
			ve.Add(fmt.Sprintf("action %d: 'id' is required", i))
			continue
		}
		if seen[action.Id] {
			ve.Add(fmt.Sprintf("action %q: duplicate id", action.Id))
		}
		seen[action.Id] = true
		validateAction(&action, ve)
	}
	if ve.HasErrors() {
		return ve
	}
	return nil
}

func validateAction(action *model.Action, ve *ValidationError) {
	switch action.Flow {
	case model.FLOW_WIZARD:
		if len(action.Steps) == 0 {
			ve.Add(fmt.Sprintf("action %q: wizard must have at least one step", action.Id))
		}
	case model.FLOW_SINGLE, "":
		if len(action.Form) == 0 {
			ve.Add(fmt.Sprintf("action %q: non-wizard action must have a form", action.Id))
		}
	default:
		ve.Add(fmt.Sprintf("action %q: unknown flow kind %q", action.Id, action.Flow))
	}
	if action.Endpoint.Path == "" {
		ve.Add(fmt.Sprintf("action %q: endpoint path is required", action.Id))
	}

	names := make(map[string]bool)
	for _, f := range action.FlatFields() {
		if f.IsLayout() {
			continue
		}
		if f.Name == "" {
			ve.Add(fmt.Sprintf("action %q: field of type %q has no name", action.Id, f.Type))
			continue
		}
		if names[f.Name] {
			ve.Add(fmt.Sprintf("action %q: duplicate field name %q", action.Id, f.Name))
		}
		names[f.Name] = true
	}
}
