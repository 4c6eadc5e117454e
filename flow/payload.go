package flow

import (
	"encoding/json"
	"net/http"

	"github.com/chainctl/actioneer/ds"
	"github.com/chainctl/actioneer/model"
	"github.com/chainctl/actioneer/template"
)

// TemplateContext assembles the ephemeral per-render context the evaluator
// resolves against. Rebuilt on every call, never persisted.
func (m *Machine) TemplateContext() map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.templateContextLocked()
}

func (m *Machine) templateContextLocked() map[string]any {
	ctx := map[string]any{
		"form":    m.normalizedValuesLocked(),
		"chain":   m.network.ChainContext(),
		"account": map[string]any{"address": m.account},
		"ds":      m.dsValues,
	}
	if m.fees != nil {
		ctx["fees"] = map[string]any{
			"amount": m.fees.Amount,
			"denom":  m.fees.Denom,
			"source": m.fees.Source,
		}
	}
	if secret, ok := m.session.Secret(); ok {
		ctx["session"] = map[string]any{"password": secret}
	} else {
		ctx["session"] = map[string]any{}
	}
	return ctx
}

// normalizedValuesLocked applies each field's declared value transform before
// the values enter a template context.
func (m *Machine) normalizedValuesLocked() map[string]any {
	out := make(map[string]any, len(m.values))
	for k, v := range m.values {
		out[k] = v
	}
	for _, f := range allValueFields(m.action) {
		if f.Transform == "" {
			continue
		}
		raw, ok := out[f.Name]
		if !ok {
			continue
		}
		chainCtx := map[string]any{"chain": m.network.ChainContext()}
		if transformed, applied := template.ApplyTransform(f.Transform, template.Stringify(raw), chainCtx); applied {
			out[f.Name] = transformed
		}
	}
	return out
}

// BuildPayload produces the final request from the action's endpoint
// descriptor by template-resolving its payload against the run context.
func (m *Machine) BuildPayload() (*model.RemoteCall, error) {
	m.mu.Lock()
	ctx := m.templateContextLocked()
	endpoint := m.action.Endpoint
	m.mu.Unlock()

	host := m.network.Host(endpoint.Host)
	if host == "" || endpoint.Path == "" {
		return nil, ds.ResolutionError{Key: m.action.Id, Reason: "action endpoint has empty host or path"}
	}
	method := endpoint.Method
	if method == "" {
		if endpoint.Payload != nil {
			method = http.MethodPost
		} else {
			method = http.MethodGet
		}
	}
	call := &model.RemoteCall{
		URL:     host + endpoint.Path,
		Method:  method,
		Headers: map[string]string{},
	}
	if endpoint.Payload != nil && method != http.MethodGet {
		body := ds.ResolveTemplateMap(endpoint.Payload, ctx)
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		call.Body = string(data)
		call.Headers["Content-Type"] = "application/json"
	}
	return call, nil
}

// Summary resolves the action's confirmation summary template.
func (m *Machine) Summary() string {
	if m.action.Summary == "" {
		return ""
	}
	return template.Evaluate(m.action.Summary, m.TemplateContext())
}

// SuccessText resolves the action's success template with the execution
// result available under "result".
func (m *Machine) SuccessText() string {
	if m.action.Success == "" {
		return ""
	}
	ctx := m.TemplateContext()
	m.mu.Lock()
	if m.result != nil {
		ctx["result"] = map[string]any{
			"status":   m.result.Status,
			"response": m.result.Response,
		}
	}
	m.mu.Unlock()
	return template.Evaluate(m.action.Success, ctx)
}
