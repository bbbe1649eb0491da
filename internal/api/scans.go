package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/hakim/asmctl/internal/models"
)

// APIScanRequest is the body of POST /scanner/api
type APIScanRequest struct {
	ScanName  string            `json:"scan_name"`
	AssetURL  string            `json:"asset_url"`
	Endpoints []models.Endpoint `json:"endpoints"`
}

// SubdomainScanRequest is the body of POST /scan/subdomain/run
type SubdomainScanRequest struct {
	Domain     string   `json:"domain"`
	Subdomains []string `json:"subdomains,omitempty"`
	ExportJSON bool     `json:"export_json"`
	ExportPDF  bool     `json:"export_pdf"`
}

// CreateScan submits a scan. The server runs discovery inline, so this call
// uses the unbounded client.
func (c *Client) CreateScan(ctx context.Context, req models.CreateScanRequest) (*models.Scan, error) {
	if req.Payload == nil {
		req.Payload = map[string]any{}
	}
	return item[models.Scan](ctx, c, call{
		op:     "Run scan",
		method: http.MethodPost,
		path:   "/scans/",
		body:   req,
		long:   true,
	})
}

// RunAPIScan runs an API-testing scan directly against the scanner endpoint.
func (c *Client) RunAPIScan(ctx context.Context, req APIScanRequest) (json.RawMessage, error) {
	data, err := c.do(ctx, call{
		op:     "API scan",
		method: http.MethodPost,
		path:   "/scanner/api",
		body:   req,
		long:   true,
	})
	return json.RawMessage(data), err
}

// RunSubdomainScan runs the standalone subdomain scanner.
func (c *Client) RunSubdomainScan(ctx context.Context, req SubdomainScanRequest) (json.RawMessage, error) {
	data, err := c.do(ctx, call{
		op:     "Subdomain scan",
		method: http.MethodPost,
		path:   "/scan/subdomain/run",
		body:   req,
		long:   true,
	})
	return json.RawMessage(data), err
}

// ListScans fetches the full scan history.
func (c *Client) ListScans(ctx context.Context) ([]models.Scan, error) {
	return list[models.Scan](ctx, c, call{op: "Fetch scans", method: http.MethodGet, path: "/scans/scan"})
}

// GetScan fetches one scan. Older backends lack this route and answer 404.
func (c *Client) GetScan(ctx context.Context, id string) (*models.Scan, error) {
	return item[models.Scan](ctx, c, call{
		op:     "Fetch scan",
		method: http.MethodGet,
		path:   "/scans/scan/" + url.PathEscape(id),
	})
}

// ScanResults returns the raw results document; its shape varies by scan type.
func (c *Client) ScanResults(ctx context.Context, id string) (json.RawMessage, error) {
	data, err := c.do(ctx, call{
		op:     "Fetch scan results",
		method: http.MethodGet,
		path:   "/scans/" + url.PathEscape(id) + "/results",
	})
	return json.RawMessage(data), err
}

func (c *Client) PauseScan(ctx context.Context, id string) (*models.ScanAction, error) {
	return c.scanAction(ctx, "Pause scan", id, "pause")
}

func (c *Client) ResumeScan(ctx context.Context, id string) (*models.ScanAction, error) {
	return c.scanAction(ctx, "Resume scan", id, "resume")
}

func (c *Client) TerminateScan(ctx context.Context, id string) (*models.ScanAction, error) {
	return c.scanAction(ctx, "Terminate scan", id, "terminate")
}

func (c *Client) scanAction(ctx context.Context, op, id, action string) (*models.ScanAction, error) {
	var out models.ScanAction
	err := c.doJSON(ctx, call{
		op:     op,
		method: http.MethodPost,
		path:   "/scans/" + url.PathEscape(id) + "/" + action,
	}, &out)
	if err != nil {
		return nil, err
	}
	if out.ScanID == "" {
		out.ScanID = id
	}
	return &out, nil
}
