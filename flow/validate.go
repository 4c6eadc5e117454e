package flow

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/chainctl/actioneer/model"
	"github.com/chainctl/actioneer/template"
)

// validate checks the given fields against their declared rules. The result
// is a field-name to message mapping; an empty map means the transition out
// of the form stage may proceed.
func (m *Machine) validate(fields []model.Field) map[string]string {
	errs := make(map[string]string)
	for _, f := range fields {
		value := m.values[f.Name]
		if msg := m.validateField(&f, value); msg != "" {
			errs[f.Name] = msg
		}
	}
	return errs
}

func (m *Machine) validateField(f *model.Field, value any) string {
	text := strings.TrimSpace(template.Stringify(value))
	if f.Required && text == "" {
		return "Required"
	}
	if text == "" || f.Rules == nil {
		return ""
	}
	r := f.Rules

	if r.Gt != nil || r.Gte != nil || r.Lt != nil || r.Lte != nil {
		number, err := strconv.ParseFloat(strings.ReplaceAll(text, ",", ""), 64)
		if err != nil {
			return "Must be a number"
		}
		if r.Gt != nil && !(number > *r.Gt) {
			return fmt.Sprintf("Must be > %s", formatBound(*r.Gt))
		}
		if r.Gte != nil && !(number >= *r.Gte) {
			return fmt.Sprintf("Must be >= %s", formatBound(*r.Gte))
		}
		if r.Lt != nil && !(number < *r.Lt) {
			return fmt.Sprintf("Must be < %s", formatBound(*r.Lt))
		}
		if r.Lte != nil && !(number <= *r.Lte) {
			return fmt.Sprintf("Must be <= %s", formatBound(*r.Lte))
		}
	}
	if r.MinLen != nil && len(text) < *r.MinLen {
		return fmt.Sprintf("Must be at least %d characters", *r.MinLen)
	}
	if r.MaxLen != nil && len(text) > *r.MaxLen {
		return fmt.Sprintf("Must be at most %d characters", *r.MaxLen)
	}
	if r.Pattern != "" {
		re, err := regexp.Compile(r.Pattern)
		if err != nil || !re.MatchString(text) {
			return "Invalid format"
		}
	}
	if r.Address {
		if m.addressValidator != nil {
			if err := m.addressValidator(text); err != nil {
				return err.Error()
			}
		}
	}
	return ""
}

func formatBound(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
