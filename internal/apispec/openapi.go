package apispec

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"gopkg.in/yaml.v3"

	"github.com/hakim/asmctl/internal/models"
)

// parseOpenAPI reads the paths map of an OpenAPI 3 document (JSON or YAML).
// Documents kin-openapi rejects, such as Swagger 2.0 files, are read
// leniently from the raw paths map.
func parseOpenAPI(data []byte) ([]models.Endpoint, error) {
	loader := openapi3.NewLoader()
	loader.IsExternalRefsAllowed = false
	loader.Context = context.Background()

	doc, err := loader.LoadFromData(data)
	if err == nil && doc.Paths != nil && doc.Paths.Len() > 0 {
		return fromOpenAPIDoc(doc), nil
	}
	return parseRawPaths(data)
}

func fromOpenAPIDoc(doc *openapi3.T) []models.Endpoint {
	paths := doc.Paths.Map()
	keys := make([]string, 0, len(paths))
	for p := range paths {
		keys = append(keys, p)
	}
	slices.Sort(keys)

	out := []models.Endpoint{}
	for _, p := range keys {
		item := paths[p]
		if item == nil {
			continue
		}
		ops := item.Operations()
		for _, m := range methods {
			op, ok := ops[m]
			if !ok {
				continue
			}
			name := ""
			if op != nil {
				name = firstNonEmpty(op.OperationID, op.Summary, op.Description)
			}
			out = append(out, endpoint(name, m, p))
		}
	}
	return out
}

// parseRawPaths walks paths -> method -> operation without schema checks.
func parseRawPaths(data []byte) ([]models.Endpoint, error) {
	var doc struct {
		Paths map[string]map[string]any `yaml:"paths"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}

	keys := make([]string, 0, len(doc.Paths))
	for p := range doc.Paths {
		keys = append(keys, p)
	}
	slices.Sort(keys)

	out := []models.Endpoint{}
	for _, p := range keys {
		ops := make(map[string]any, len(doc.Paths[p]))
		for m, op := range doc.Paths[p] {
			ops[strings.ToUpper(m)] = op
		}
		for _, m := range methods {
			op, ok := ops[m]
			if !ok {
				continue
			}
			name := ""
			if fields, ok := op.(map[string]any); ok {
				name = firstNonEmpty(str(fields["operationId"]), str(fields["summary"]), str(fields["description"]))
			}
			out = append(out, endpoint(name, m, p))
		}
	}
	return out, nil
}

func endpoint(name, method, path string) models.Endpoint {
	if name == "" {
		name = method + " " + path
	}
	return models.Endpoint{Name: name, Method: method, Path: path}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func str(v any) string {
	s, _ := v.(string)
	return s
}
