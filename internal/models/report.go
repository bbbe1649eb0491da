package models

// Finding is a single reported issue tied to an asset
type Finding struct {
	ID             string    `json:"id,omitempty"`
	Issue          string    `json:"issue"`
	Severity       Severity  `json:"severity"`
	AssetURL       string    `json:"asset_url"`
	Description    string    `json:"description,omitempty"`
	Recommendation string    `json:"recommendation,omitempty"`
	ScanID         string    `json:"scan_id,omitempty"`
	ScanType       string    `json:"scan_type,omitempty"`
	DomainID       string    `json:"domain_id,omitempty"`
	CreatedAt      Timestamp `json:"created_at"`
}

// Report is a generated report record
type Report struct {
	ID         string    `json:"id"`
	ReportName string    `json:"report_name"`
	ReportType string    `json:"report_type"`
	DomainName string    `json:"domain_name,omitempty"`
	CreatedBy  string    `json:"created_by,omitempty"`
	CreatedAt  Timestamp `json:"created_at"`
}

// AssessmentType selects which companion asset a report is built around
type AssessmentType string

const (
	AssessmentDomain     AssessmentType = "DOMAIN"
	AssessmentWebscan    AssessmentType = "WEBSCAN"
	AssessmentAPITesting AssessmentType = "API_TESTING"
)

// CreateReportRequest is the body of POST /reports
type CreateReportRequest struct {
	ReportName     string         `json:"report_name"`
	ReportType     string         `json:"report_type"`
	Description    string         `json:"description,omitempty"`
	DomainName     string         `json:"domain_name,omitempty"`
	AssessmentType AssessmentType `json:"assessment_type,omitempty"`
	SubdomainName  string         `json:"subdomain_name,omitempty"`
	ScanID         string         `json:"scan_id,omitempty"`
}

// Endpoint is a single API operation selected for an API-testing scan
type Endpoint struct {
	Name   string `json:"name"`
	Method string `json:"method"`
	Path   string `json:"path"`
}
