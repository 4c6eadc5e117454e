package model

type FlowKind string

const FLOW_SINGLE FlowKind = "single"
const FLOW_WIZARD FlowKind = "wizard"

type AuthType string

const AUTH_NONE AuthType = ""
const AUTH_SESSION_PASSWORD AuthType = "sessionPassword"

// Manifest is the versioned collection of action definitions served to the
// engine. It is immutable once loaded and replaced wholesale, never patched.
type Manifest struct {
	Version string         `json:"version"`
	Actions []Action       `json:"actions"`
	UI      map[string]any `json:"ui,omitempty"`
}

type Action struct {
	Id       string     `json:"id"`
	Label    string     `json:"label"`
	Flow     FlowKind   `json:"flow,omitempty"`
	Auth     *AuthSpec  `json:"auth,omitempty"`
	Endpoint Endpoint   `json:"endpoint"`
	Fee      *FeeConfig `json:"fee,omitempty"`
	Form     []Field    `json:"form,omitempty"`
	Steps    []Step     `json:"steps,omitempty"`
	Summary  string     `json:"summary,omitempty"`
	Success  string     `json:"success,omitempty"`
}

type Step struct {
	Title string  `json:"title,omitempty"`
	Form  []Field `json:"form"`
}

type AuthSpec struct {
	Type AuthType `json:"type"`
}

// Endpoint describes the target of the final request. Payload is a template:
// string values may contain {{...}} expressions resolved at submit time.
type Endpoint struct {
	Host    string         `json:"host,omitempty"` // "rpc" (default) or "admin"
	Path    string         `json:"path"`
	Method  string         `json:"method,omitempty"`
	Payload map[string]any `json:"payload,omitempty"`
}

type Field struct {
	Type        string    `json:"type"`
	Name        string    `json:"name,omitempty"`
	Label       string    `json:"label,omitempty"`
	Help        string    `json:"help,omitempty"`
	Placeholder string    `json:"placeholder,omitempty"`
	Required    bool      `json:"required,omitempty"`
	Disabled    bool      `json:"disabled,omitempty"`
	ReadOnly    bool      `json:"readOnly,omitempty"`
	Span        int       `json:"span,omitempty"`
	Rules       *Rules    `json:"rules,omitempty"`
	Value       string    `json:"value,omitempty"` // templated default
	Transform   string    `json:"transform,omitempty"`
	Map         string    `json:"map,omitempty"` // templated option source
	Source      string    `json:"source,omitempty"`
	Options     []Option  `json:"options,omitempty"`
	Features    []Feature `json:"features,omitempty"`
	Fields      []Field   `json:"fields,omitempty"` // collapsible-group children
}

type Option struct {
	Label string `json:"label"`
	Value any    `json:"value"`
}

type Rules struct {
	Gt      *float64 `json:"gt,omitempty"`
	Gte     *float64 `json:"gte,omitempty"`
	Lt      *float64 `json:"lt,omitempty"`
	Lte     *float64 `json:"lte,omitempty"`
	MinLen  *int     `json:"minLen,omitempty"`
	MaxLen  *int     `json:"maxLen,omitempty"`
	Pattern string   `json:"pattern,omitempty"`
	Address bool     `json:"address,omitempty"`
}

type FeatureType string

const FEATURE_COPY FeatureType = "copy"
const FEATURE_PASTE FeatureType = "paste"
const FEATURE_SET FeatureType = "set"

// Feature is an inline mini-action attached to a field control. For "set"
// features Value is a template resolved at render time and Target names the
// field receiving the computed value (defaults to the owning field).
type Feature struct {
	Type   FeatureType `json:"type"`
	Label  string      `json:"label,omitempty"`
	Value  string      `json:"value,omitempty"`
	Target string      `json:"target,omitempty"`
}

// FlatFields returns the action's fields in declaration order with layout
// groups flattened, wizard steps concatenated.
func (a *Action) FlatFields() []Field {
	var out []Field
	if a.Flow == FLOW_WIZARD {
		for _, s := range a.Steps {
			out = append(out, flatten(s.Form)...)
		}
		return out
	}
	return flatten(a.Form)
}

func flatten(fields []Field) []Field {
	var out []Field
	for _, f := range fields {
		if len(f.Fields) > 0 {
			out = append(out, flatten(f.Fields)...)
			continue
		}
		out = append(out, f)
	}
	return out
}

// IsLayout reports whether the field type carries no value of its own.
func (f *Field) IsLayout() bool {
	switch f.Type {
	case "section", "divider", "spacer", "heading", "collapsible-group":
		return true
	}
	return false
}
