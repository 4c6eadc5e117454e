package field

import (
	"github.com/chainctl/actioneer/model"
	"github.com/chainctl/actioneer/template"
)

// Wrap applies the cross-cutting behavior shared by every control: templated
// label/help text, error display, grid span and the inline feature buttons.
func Wrap(rendered *Rendered, props Props) *Rendered {
	f := props.Field
	rendered.Label = resolve(props, f.Label)
	rendered.Help = resolve(props, f.Help)
	rendered.Placeholder = resolve(props, f.Placeholder)
	rendered.Error = props.Error
	rendered.Span = f.Span
	rendered.Disabled = f.Disabled
	rendered.ReadOnly = f.ReadOnly
	rendered.Features = buildFeatures(props)
	return rendered
}

func buildFeatures(props Props) []RenderedFeature {
	f := props.Field
	if len(f.Features) == 0 {
		return nil
	}
	out := make([]RenderedFeature, 0, len(f.Features))
	for _, feature := range f.Features {
		rf := RenderedFeature{Type: feature.Type, Label: feature.Label}
		switch feature.Type {
		case model.FEATURE_COPY:
			rf.Value = template.Stringify(props.Value)
		case model.FEATURE_SET:
			value := resolve(props, feature.Value)
			target := feature.Target
			if target == "" {
				target = f.Name
			}
			rf.Value = value
			if props.SetFieldValue != nil {
				setField := props.SetFieldValue
				rf.Apply = func() { setField(target, value) }
			}
		}
		out = append(out, rf)
	}
	return out
}

func resolve(props Props, expr string) string {
	if expr == "" {
		return ""
	}
	if props.ResolveTemplate != nil {
		return props.ResolveTemplate(expr)
	}
	return template.Evaluate(expr, props.TemplateContext)
}
