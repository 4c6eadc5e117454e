package field

import (
	"github.com/chainctl/actioneer/model"
	"github.com/chainctl/actioneer/template"
)

// ResolveOptions builds a select-like field's option list. Sources are tried
// in priority order: a map expression evaluated against the template context,
// a live data-source value, then static inline options.
func ResolveOptions(props Props) []model.Option {
	f := props.Field
	if f.Map != "" {
		value := template.EvaluateValue(f.Map, props.TemplateContext)
		if opts := toOptions(value); len(opts) > 0 {
			return opts
		}
	}
	if opts := toOptions(props.DataSourceValue); len(opts) > 0 {
		return opts
	}
	return f.Options
}

func toOptions(value any) []model.Option {
	list, ok := value.([]any)
	if !ok {
		return nil
	}
	out := make([]model.Option, 0, len(list))
	for _, item := range list {
		switch v := item.(type) {
		case map[string]any:
			opt := model.Option{}
			if label, ok := v["label"].(string); ok {
				opt.Label = label
			} else if name, ok := v["name"].(string); ok {
				opt.Label = name
			}
			if value, ok := v["value"]; ok {
				opt.Value = value
			} else {
				opt.Value = v
			}
			if opt.Label == "" {
				opt.Label = template.Stringify(opt.Value)
			}
			out = append(out, opt)
		default:
			out = append(out, model.Option{Label: template.Stringify(v), Value: v})
		}
	}
	return out
}

// DefaultValue applies the field default precedence: the current value when
// non-empty, then the field's own templated default, then the conventional
// amount/value keys of the live data-source payload.
func DefaultValue(props Props) any {
	if !isEmpty(props.Value) {
		return props.Value
	}
	if props.Field.Value != "" {
		resolved := resolve(props, props.Field.Value)
		if resolved != "" {
			return resolved
		}
	}
	if m, ok := props.DataSourceValue.(map[string]any); ok {
		if v, ok := m["amount"]; ok {
			return v
		}
		if v, ok := m["value"]; ok {
			return v
		}
	}
	return props.Value
}

func isEmpty(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return v == ""
	}
	return false
}
