package field

import "github.com/chainctl/actioneer/model"

// Props is the contract every field rendering capability receives. The
// engine owns everything here; the host only supplies the Renderer.
type Props struct {
	Field           *model.Field
	Value           any
	Error           string
	TemplateContext map[string]any
	DataSourceValue any
	OnChange        func(value any)
	ResolveTemplate func(expr string) string
	SetFieldValue   func(name string, value any)
}

// Rendered is the engine-side description of a rendered control, consumed by
// whatever presentation layer the host wires in.
type Rendered struct {
	Kind        string            `json:"kind"`
	Name        string            `json:"name,omitempty"`
	Label       string            `json:"label,omitempty"`
	Help        string            `json:"help,omitempty"`
	Placeholder string            `json:"placeholder,omitempty"`
	Error       string            `json:"error,omitempty"`
	Value       any               `json:"value,omitempty"`
	Options     []model.Option    `json:"options,omitempty"`
	Span        int               `json:"span,omitempty"`
	Disabled    bool              `json:"disabled,omitempty"`
	ReadOnly    bool              `json:"readOnly,omitempty"`
	Features    []RenderedFeature `json:"features,omitempty"`
	Unsupported bool              `json:"unsupported,omitempty"`
}

// RenderedFeature is an inline mini-action ready to apply. Apply is nil for
// paste features, whose value comes from the host's clipboard.
type RenderedFeature struct {
	Type  model.FeatureType `json:"type"`
	Label string            `json:"label,omitempty"`
	Value string            `json:"value,omitempty"`
	Apply func()            `json:"-"`
}

// Renderer is the capability contract a field implementation satisfies.
type Renderer interface {
	Render(props Props) (*Rendered, error)
}
