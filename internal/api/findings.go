package api

import (
	"context"
	"net/http"

	"github.com/hakim/asmctl/internal/models"
)

// finding is the wire form; severity arrives in free-form case.
type finding struct {
	ID             string           `json:"id"`
	Issue          string           `json:"issue"`
	Title          string           `json:"title"`
	Severity       string           `json:"severity"`
	AssetURL       string           `json:"asset_url"`
	Description    string           `json:"description"`
	Recommendation string           `json:"recommendation"`
	ScanID         string           `json:"scan_id"`
	ScanType       string           `json:"scan_type"`
	DomainID       string           `json:"domain_id"`
	CreatedAt      models.Timestamp `json:"created_at"`
}

func (f finding) model() models.Finding {
	issue := f.Issue
	if issue == "" {
		issue = f.Title
	}
	return models.Finding{
		ID:             f.ID,
		Issue:          issue,
		Severity:       models.ParseSeverity(f.Severity),
		AssetURL:       f.AssetURL,
		Description:    f.Description,
		Recommendation: f.Recommendation,
		ScanID:         f.ScanID,
		ScanType:       f.ScanType,
		DomainID:       f.DomainID,
		CreatedAt:      f.CreatedAt,
	}
}

// ListFindings fetches findings from every scan type.
func (c *Client) ListFindings(ctx context.Context) ([]models.Finding, error) {
	return c.findings(ctx, "/vulnerabilities/findings")
}

// ListAPIFindings fetches findings produced by API-testing scans only.
func (c *Client) ListAPIFindings(ctx context.Context) ([]models.Finding, error) {
	return c.findings(ctx, "/vulnerabilities/api-findings")
}

func (c *Client) findings(ctx context.Context, path string) ([]models.Finding, error) {
	raw, err := list[finding](ctx, c, call{op: "Fetch findings", method: http.MethodGet, path: path})
	if err != nil {
		return nil, err
	}
	out := make([]models.Finding, 0, len(raw))
	for _, f := range raw {
		out = append(out, f.model())
	}
	return out, nil
}
