package field

import (
	"github.com/chainctl/actioneer/logger"
	"go.uber.org/zap"
)

// Registry maps a field's declared type tag to its rendering capability.
// Unknown tags degrade to a visible unsupported-field marker, never a crash.
type Registry struct {
	renderers map[string]Renderer
}

func NewRegistry() *Registry {
	r := &Registry{renderers: make(map[string]Renderer)}
	r.registerBuiltins()
	return r
}

func (r *Registry) Register(typeTag string, renderer Renderer) {
	r.renderers[typeTag] = renderer
}

func (r *Registry) Has(typeTag string) bool {
	_, ok := r.renderers[typeTag]
	return ok
}

// Render dispatches on the field's type tag and wraps the result with the
// shared label/help/error and feature handling.
func (r *Registry) Render(props Props) *Rendered {
	renderer, ok := r.renderers[props.Field.Type]
	if !ok {
		logger.Warn("unsupported field type", zap.String("type", props.Field.Type), zap.String("field", props.Field.Name))
		return &Rendered{
			Kind:        props.Field.Type,
			Name:        props.Field.Name,
			Label:       "unsupported field",
			Unsupported: true,
		}
	}
	rendered, err := renderer.Render(props)
	if err != nil {
		logger.Error("field renderer failed", zap.String("type", props.Field.Type), zap.Error(err))
		return &Rendered{Kind: props.Field.Type, Name: props.Field.Name, Label: "unsupported field", Unsupported: true}
	}
	return Wrap(rendered, props)
}

func (r *Registry) registerBuiltins() {
	input := inputRenderer{}
	for _, tag := range []string{"text", "amount", "number", "range", "address", "switch", "dynamic-html"} {
		r.renderers[tag] = input
	}
	selects := selectRenderer{}
	for _, tag := range []string{"select", "advanced-select", "option", "option-card", "table-select"} {
		r.renderers[tag] = selects
	}
	layout := layoutRenderer{}
	for _, tag := range []string{"section", "divider", "spacer", "heading", "collapsible-group"} {
		r.renderers[tag] = layout
	}
}

// inputRenderer covers the scalar input controls. The host replaces these
// with real widgets; the builtin keeps the engine renderable on its own.
type inputRenderer struct{}

func (inputRenderer) Render(props Props) (*Rendered, error) {
	return &Rendered{
		Kind:  props.Field.Type,
		Name:  props.Field.Name,
		Value: DefaultValue(props),
	}, nil
}

type selectRenderer struct{}

func (selectRenderer) Render(props Props) (*Rendered, error) {
	return &Rendered{
		Kind:    props.Field.Type,
		Name:    props.Field.Name,
		Value:   DefaultValue(props),
		Options: ResolveOptions(props),
	}, nil
}

type layoutRenderer struct{}

func (layoutRenderer) Render(props Props) (*Rendered, error) {
	return &Rendered{Kind: props.Field.Type, Name: props.Field.Name}, nil
}
