package apispec

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/hakim/asmctl/internal/models"
)

// placeholderBase stands in for {{base_url}} so templated URLs parse.
const placeholderBase = "http://placeholder"

// parsePostman walks a collection's item tree depth-first. Folders nest via
// item arrays; requests without a recoverable path are skipped.
func parsePostman(data []byte) ([]models.Endpoint, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: collection is not valid JSON", ErrUnsupported)
	}
	out := []models.Endpoint{}
	walkItems(gjson.GetBytes(data, "item"), &out)
	return out, nil
}

func walkItems(items gjson.Result, out *[]models.Endpoint) {
	items.ForEach(func(_, item gjson.Result) bool {
		req := item.Get("request")
		switch {
		case req.Exists() && req.Type != gjson.Null:
			if ep, ok := requestEndpoint(item.Get("name").String(), req); ok {
				*out = append(*out, ep)
			}
		case item.Get("item").IsArray():
			walkItems(item.Get("item"), out)
		}
		return true
	})
}

func requestEndpoint(name string, req gjson.Result) (models.Endpoint, bool) {
	method := "GET"
	var u gjson.Result
	if req.Type == gjson.String {
		// v1 shorthand: the request is just its URL
		u = req
	} else {
		if m := strings.TrimSpace(req.Get("method").String()); m != "" {
			method = strings.ToUpper(m)
		}
		u = req.Get("url")
	}

	path := ""
	switch {
	case u.Type == gjson.String:
		path = pathFromURL(u.String())
	case u.IsObject():
		if parts := u.Get("path"); parts.IsArray() && len(parts.Array()) > 0 {
			segs := []string{}
			for _, p := range parts.Array() {
				seg := p.String()
				if p.IsObject() {
					seg = p.Get("value").String()
				}
				segs = append(segs, seg)
			}
			path = "/" + strings.Join(segs, "/")
		} else if raw := u.Get("raw"); raw.Type == gjson.String {
			path = pathFromRaw(raw.String())
		}
	}

	if path == "" {
		return models.Endpoint{}, false
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return models.Endpoint{Name: name, Method: method, Path: path}, true
}

// absolutePath returns the path of s when it parses as an absolute URL.
func absolutePath(s string) (string, bool) {
	u, err := url.Parse(strings.ReplaceAll(s, "{{base_url}}", placeholderBase))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", false
	}
	return u.Path, true
}

// pathFromURL handles a string url: absolute URLs give their path, anything
// else is cut after the scheme separator at the first slash.
func pathFromURL(s string) string {
	if p, ok := absolutePath(s); ok {
		return p
	}
	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+3:]
	}
	if i := strings.Index(s, "/"); i >= 0 {
		return s[i:]
	}
	return ""
}

// pathFromRaw handles url.raw: like pathFromURL but drops the query and
// keeps a bare relative path.
func pathFromRaw(raw string) string {
	if p, ok := absolutePath(raw); ok {
		return p
	}
	if i := strings.Index(raw, "?"); i >= 0 {
		raw = raw[:i]
	}
	if i := strings.Index(raw, "/"); i >= 0 {
		return raw[i:]
	}
	return raw
}
