package openapi

import (
	"context"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/unkn0wn-root/restdock/internal/errdef"
)

type Loader struct {
	ResolveExternalRefs bool
}

func NewLoader() *Loader {
	return &Loader{}
}

func (l *Loader) Load(ctx context.Context, path string) (*Spec, error) {
	loader := openapi3.NewLoader()
	loader.IsExternalRefsAllowed = l.ResolveExternalRefs

	document, err := loader.LoadFromFile(path)
	if err != nil {
		return nil, errdef.Wrap(errdef.CodeParse, err, "load OpenAPI spec")
	}
	if err := document.Validate(ctx); err != nil {
		return nil, errdef.Wrap(errdef.CodeParse, err, "validate OpenAPI spec")
	}

	spec := &Spec{
		Servers: convertServers(document.Servers),
	}
	if document.Info != nil {
		spec.Title = document.Info.Title
		spec.Version = document.Info.Version
		spec.Description = document.Info.Description
	}
	spec.Endpoints = collectEndpoints(document)
	return spec, nil
}

func collectEndpoints(doc *openapi3.T) []Endpoint {
	if doc.Paths == nil {
		return nil
	}

	pathMap := doc.Paths.Map()
	paths := make([]string, 0, len(pathMap))
	for path := range pathMap {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	var endpoints []Endpoint
	for _, path := range paths {
		item := doc.Paths.Value(path)
		if item == nil {
			continue
		}

		methodOrder := []struct {
			method string
			op     *openapi3.Operation
		}{
			{"GET", item.Get},
			{"PUT", item.Put},
			{"POST", item.Post},
			{"DELETE", item.Delete},
			{"OPTIONS", item.Options},
			{"HEAD", item.Head},
			{"PATCH", item.Patch},
			{"TRACE", item.Trace},
		}

		for _, entry := range methodOrder {
			if entry.op == nil {
				continue
			}
			endpoints = append(
				endpoints,
				convertEndpoint(path, entry.method, entry.op, item.Parameters),
			)
		}
	}
	return endpoints
}

func convertEndpoint(
	path, method string,
	raw *openapi3.Operation,
	baseParams openapi3.Parameters,
) Endpoint {
	ep := Endpoint{
		ID:          raw.OperationID,
		Method:      method,
		Path:        path,
		Summary:     raw.Summary,
		Description: raw.Description,
		Tags:        append([]string(nil), raw.Tags...),
		Deprecated:  raw.Deprecated,
		HasBody:     raw.RequestBody != nil && raw.RequestBody.Value != nil,
	}
	ep.Parameters = mergeParameters(baseParams, raw.Parameters)
	return ep
}

// path-level parameters apply to every operation; operation-level entries
// override them on (location, name) collisions.
func mergeParameters(baseParams, opParams openapi3.Parameters) []Parameter {
	combined := make(map[string]Parameter)
	var order []string

	addParam := func(ref *openapi3.ParameterRef) {
		if ref == nil || ref.Value == nil {
			return
		}
		key := ref.Value.In + ":" + ref.Value.Name
		if _, seen := combined[key]; !seen {
			order = append(order, key)
		}
		combined[key] = Parameter{
			Name:        ref.Value.Name,
			Location:    ParameterLocation(ref.Value.In),
			Description: ref.Value.Description,
			Required:    ref.Value.Required,
		}
	}

	for _, ref := range baseParams {
		addParam(ref)
	}
	for _, ref := range opParams {
		addParam(ref)
	}

	if len(order) == 0 {
		return nil
	}
	params := make([]Parameter, 0, len(order))
	for _, key := range order {
		params = append(params, combined[key])
	}
	return params
}

func convertServers(servers openapi3.Servers) []string {
	if len(servers) == 0 {
		return nil
	}
	result := make([]string, 0, len(servers))
	for _, srv := range servers {
		if srv == nil || strings.TrimSpace(srv.URL) == "" {
			continue
		}
		result = append(result, resolveServerURL(srv))
	}
	return result
}

func resolveServerURL(server *openapi3.Server) string {
	if len(server.Variables) == 0 {
		return server.URL
	}
	resolved := server.URL
	for name, variable := range server.Variables {
		replacement := variable.Default
		if replacement == "" && len(variable.Enum) > 0 {
			replacement = variable.Enum[0]
		}
		resolved = strings.ReplaceAll(resolved, "{"+name+"}", replacement)
	}
	return resolved
}
