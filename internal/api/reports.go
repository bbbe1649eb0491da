package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/hakim/asmctl/internal/models"
)

func (c *Client) ListReports(ctx context.Context, limit, offset int) ([]models.Report, error) {
	return list[models.Report](ctx, c, call{
		op:     "Load reports",
		method: http.MethodGet,
		path:   "/reports",
		query:  pageQuery(limit, offset),
	})
}

func (c *Client) CreateReport(ctx context.Context, req models.CreateReportRequest) (*models.Report, error) {
	return item[models.Report](ctx, c, call{
		op:     "Create report",
		method: http.MethodPost,
		path:   "/reports",
		body:   req,
	})
}

// DownloadReport fetches the PDF of a generated report. Rendering can take
// long server-side so the call is not time-bounded.
func (c *Client) DownloadReport(ctx context.Context, id string) ([]byte, error) {
	return c.do(ctx, call{
		op:     "Download report",
		method: http.MethodGet,
		path:   "/reports/" + url.PathEscape(id) + "/download",
		long:   true,
	})
}

// DownloadASMReport fetches the attack-surface PDF, optionally scoped to one domain.
func (c *Client) DownloadASMReport(ctx context.Context, domain string) ([]byte, error) {
	q := url.Values{}
	if domain != "" {
		q.Set("domain", domain)
	}
	return c.do(ctx, call{
		op:     "Download report",
		method: http.MethodGet,
		path:   "/reports/asm.pdf",
		query:  q,
		long:   true,
	})
}
