package ds

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/chainctl/actioneer/coerce"
	"github.com/chainctl/actioneer/model"
	"github.com/chainctl/actioneer/template"
)

// BuildRequest turns a resolved leaf plus a caller context into a wire-level
// call. The body template is evaluated against the caller context merged with
// the chain context, coerced per the leaf's declared specs, then serialized
// per the declared encoding. Method defaults to POST when a body template is
// present, GET otherwise.
func BuildRequest(network *model.Network, leaf *model.DsLeaf, callerCtx map[string]any) (*model.RemoteCall, error) {
	src := leaf.Source
	host := network.Host(src.Host)
	if host == "" || src.Path == "" {
		return nil, ResolutionError{Key: src.Path, Reason: "empty host or path"}
	}

	ctx := map[string]any{"chain": network.ChainContext()}
	for k, v := range callerCtx {
		ctx[k] = v
	}
	if leaf.Coerce != nil {
		ctx = coerce.ApplyPaths(ctx, leaf.Coerce.Ctx)
	}

	method := strings.ToUpper(src.Method)
	if method == "" {
		if src.Body != nil {
			method = http.MethodPost
		} else {
			method = http.MethodGet
		}
	}

	call := &model.RemoteCall{
		URL:     host + src.Path,
		Method:  method,
		Headers: map[string]string{},
	}
	for k, v := range src.Headers {
		call.Headers[k] = v
	}

	if method != http.MethodGet && src.Body != nil {
		var resolved any
		switch body := src.Body.(type) {
		case map[string]any:
			m := ResolveTemplateMap(body, ctx)
			if leaf.Coerce != nil {
				m = coerce.ApplyPaths(m, leaf.Coerce.Body)
			}
			resolved = m
		case string:
			resolved = template.EvaluateValue(body, ctx)
		default:
			resolved = body
		}
		encoded, contentType, err := encodeBody(resolved, src.Encoding)
		if err != nil {
			return nil, err
		}
		call.Body = encoded
		if _, ok := call.Headers["Content-Type"]; !ok {
			call.Headers["Content-Type"] = contentType
		}
	}
	return call, nil
}

// ResolveTemplateMap walks a template map, evaluating every string value
// against ctx and recursing into nested maps and lists. Non-string scalars
// pass through untouched.
func ResolveTemplateMap(params map[string]any, ctx map[string]any) map[string]any {
	output := make(map[string]any, len(params))
	for k, v := range params {
		switch value := v.(type) {
		case map[string]any:
			output[k] = ResolveTemplateMap(value, ctx)
		case []any:
			output[k] = resolveTemplateList(value, ctx)
		case string:
			output[k] = template.EvaluateValue(value, ctx)
		default:
			output[k] = v
		}
	}
	return output
}

func resolveTemplateList(list []any, ctx map[string]any) []any {
	output := make([]any, 0, len(list))
	for _, v := range list {
		switch value := v.(type) {
		case map[string]any:
			output = append(output, ResolveTemplateMap(value, ctx))
		case []any:
			output = append(output, resolveTemplateList(value, ctx))
		case string:
			output = append(output, template.EvaluateValue(value, ctx))
		default:
			output = append(output, v)
		}
	}
	return output
}

func encodeBody(body any, encoding model.BodyEncoding) (string, string, error) {
	if encoding == model.ENCODING_TEXT {
		// raw passthrough when already a string, serialized otherwise
		if raw, ok := body.(string); ok {
			return raw, "text/plain", nil
		}
		data, err := json.Marshal(body)
		if err != nil {
			return "", "", err
		}
		return string(data), "text/plain", nil
	}
	data, err := json.Marshal(body)
	if err != nil {
		return "", "", err
	}
	return string(data), "application/json", nil
}
