// Package apispec extracts the flat endpoint list an API-testing scan runs
// against from an uploaded OpenAPI document, Postman collection or
// spreadsheet.
package apispec

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/hakim/asmctl/internal/models"
)

var (
	// ErrNoEndpoints means the document parsed but yielded no endpoints.
	ErrNoEndpoints = errors.New("no endpoints found")

	// ErrUnsupported means the document could not be decoded in any supported format.
	ErrUnsupported = errors.New("unsupported document")
)

// Format is the declared documentation type of an upload
type Format string

const (
	FormatAuto    Format = "AUTO"
	FormatOpenAPI Format = "OPENAPI"
	FormatPostman Format = "POSTMAN"
	FormatCustom  Format = "CUSTOM"
)

// ParseFormat accepts a format name in any case. Empty means AUTO.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToUpper(strings.TrimSpace(s))); f {
	case "":
		return FormatAuto, nil
	case FormatAuto, FormatOpenAPI, FormatPostman, FormatCustom:
		return f, nil
	case "SWAGGER":
		return FormatOpenAPI, nil
	}
	return "", fmt.Errorf("unknown documentation type %q (want OPENAPI, POSTMAN, CUSTOM or AUTO)", s)
}

// methods are the HTTP methods an endpoint may use, in display order.
var methods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"}

func knownMethod(m string) bool {
	return slices.Contains(methods, m)
}

// Parse extracts endpoints from data. filename is only used to tell
// spreadsheets from CSV for the CUSTOM format.
//
// When the declared format yields nothing, the other JSON format is tried:
// a POSTMAN upload that turns out to be an OpenAPI document still works, and
// vice versa. AUTO picks by shape.
func Parse(data []byte, format Format, filename string) ([]models.Endpoint, error) {
	var (
		endpoints []models.Endpoint
		err       error
	)

	switch format {
	case FormatCustom:
		endpoints, err = parseCustom(data, filename)

	case FormatPostman:
		endpoints, err = parsePostman(data)
		if len(endpoints) == 0 && hasPaths(data) {
			endpoints, err = parseOpenAPI(data)
		}

	case FormatOpenAPI:
		endpoints, err = parseOpenAPI(data)
		if len(endpoints) == 0 && isCollection(data) {
			endpoints, err = parsePostman(data)
		}

	case FormatAuto, "":
		switch {
		case isCollection(data):
			endpoints, err = parsePostman(data)
		case hasPaths(data) || !gjson.ValidBytes(data):
			endpoints, err = parseOpenAPI(data)
		default:
			err = fmt.Errorf("%w: neither a Postman collection nor an OpenAPI document", ErrUnsupported)
		}

	default:
		return nil, fmt.Errorf("unknown documentation type %q", format)
	}

	if err != nil {
		return nil, err
	}
	if len(endpoints) == 0 {
		return nil, ErrNoEndpoints
	}
	return endpoints, nil
}

// isCollection reports a JSON document with a top-level item array.
func isCollection(data []byte) bool {
	return gjson.ValidBytes(data) && gjson.GetBytes(data, "item").IsArray()
}

// hasPaths reports a JSON document with a top-level paths object.
func hasPaths(data []byte) bool {
	return gjson.ValidBytes(data) && gjson.GetBytes(data, "paths").IsObject()
}

// Key identifies an endpoint in a selection: "METHOD /path".
func Key(ep models.Endpoint) string {
	return strings.ToUpper(ep.Method) + " " + ep.Path
}

// normalizeKey upper-cases the method part of a user-typed key.
func normalizeKey(k string) string {
	k = strings.TrimSpace(k)
	method, path, ok := strings.Cut(k, " ")
	if !ok {
		return strings.ToUpper(k)
	}
	return strings.ToUpper(method) + " " + strings.TrimSpace(path)
}

// Select returns the endpoints whose Key is in keys, in document order.
// Unknown keys are an error.
func Select(endpoints []models.Endpoint, keys []string) ([]models.Endpoint, error) {
	want := make(map[string]bool, len(keys))
	for _, k := range keys {
		if k = normalizeKey(k); k != "" {
			want[k] = true
		}
	}

	out := []models.Endpoint{}
	found := make(map[string]bool, len(want))
	for _, ep := range endpoints {
		k := Key(ep)
		if want[k] && !found[k] {
			found[k] = true
			out = append(out, ep)
		}
	}

	var missing []string
	for k := range want {
		if !found[k] {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		return nil, fmt.Errorf("endpoints not in document: %s", strings.Join(missing, ", "))
	}
	return out, nil
}

// isSpreadsheet reports an OOXML workbook by extension or zip signature.
func isSpreadsheet(data []byte, filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		return true
	}
	return bytes.HasPrefix(data, []byte("PK\x03\x04"))
}
