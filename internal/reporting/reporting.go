// Package reporting creates report records and saves their PDFs.
package reporting

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/hakim/asmctl/internal/models"
	"github.com/hakim/asmctl/internal/storage"
)

// Report summary types offered when generating.
const (
	TypeExecSummary    = "EXEC_SUMMARY"
	TypeDetailsSummary = "DETAILS_SUMMARY"
)

// DefaultListLimit is the page size for listing reports.
const DefaultListLimit = 200

// Backend is the slice of the API client reporting needs.
type Backend interface {
	ListReports(ctx context.Context, limit, offset int) ([]models.Report, error)
	CreateReport(ctx context.Context, req models.CreateReportRequest) (*models.Report, error)
	DownloadReport(ctx context.Context, id string) ([]byte, error)
	DownloadASMReport(ctx context.Context, domain string) ([]byte, error)
}

// ValidationError is a request rejected before anything was sent.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Request is a report to generate. Which companion field is required
// depends on Assessment: WEBSCAN needs Subdomain, API_TESTING needs ScanID.
type Request struct {
	Name        string
	Type        string
	Description string
	Domain      string
	Assessment  models.AssessmentType
	Subdomain   string
	ScanID      string
}

// Validate checks the fields required for the request's assessment type.
func (r Request) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return &ValidationError{Field: "name", Message: "Report name is required"}
	}
	if strings.TrimSpace(r.Domain) == "" {
		return &ValidationError{Field: "domain", Message: "Domain is required"}
	}
	switch r.assessment() {
	case models.AssessmentDomain:
	case models.AssessmentWebscan:
		if strings.TrimSpace(r.Subdomain) == "" {
			return &ValidationError{Field: "subdomain", Message: "Select a subdomain for a webscan report"}
		}
	case models.AssessmentAPITesting:
		if strings.TrimSpace(r.ScanID) == "" {
			return &ValidationError{Field: "scan_id", Message: "Select an API scan for an API testing report"}
		}
	default:
		return &ValidationError{Field: "assessment", Message: fmt.Sprintf("Unknown assessment type %q (want DOMAIN, WEBSCAN or API_TESTING)", r.Assessment)}
	}
	return nil
}

func (r Request) assessment() models.AssessmentType {
	if r.Assessment == "" {
		return models.AssessmentDomain
	}
	return models.AssessmentType(strings.ToUpper(string(r.Assessment)))
}

// body builds the create request, sending only the companion field the
// assessment type uses.
func (r Request) body() models.CreateReportRequest {
	typ := strings.ToUpper(strings.TrimSpace(r.Type))
	if typ == "" {
		typ = TypeExecSummary
	}
	body := models.CreateReportRequest{
		ReportName:     strings.TrimSpace(r.Name),
		ReportType:     typ,
		Description:    strings.TrimSpace(r.Description),
		DomainName:     strings.TrimSpace(r.Domain),
		AssessmentType: r.assessment(),
	}
	switch body.AssessmentType {
	case models.AssessmentWebscan:
		body.SubdomainName = strings.TrimSpace(r.Subdomain)
	case models.AssessmentAPITesting:
		body.ScanID = strings.TrimSpace(r.ScanID)
	}
	return body
}

// Reporter generates reports and writes their PDFs to a directory
type Reporter struct {
	backend Backend
	dir     string
	logger  *zap.SugaredLogger
}

// New creates a reporter that saves downloads into dir.
func New(backend Backend, dir string, logger *zap.SugaredLogger) *Reporter {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if dir == "" {
		dir = "."
	}
	return &Reporter{backend: backend, dir: dir, logger: logger}
}

// Saved is a downloaded report file
type Saved struct {
	Report *models.Report
	Path   string
	Size   int
}

// List returns one page of reports.
func (r *Reporter) List(ctx context.Context, limit, offset int) ([]models.Report, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	return r.backend.ListReports(ctx, limit, offset)
}

// Generate validates req, creates the report record and immediately
// downloads its PDF as "<name>.pdf".
func (r *Reporter) Generate(ctx context.Context, req Request) (*Saved, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	body := req.body()
	created, err := r.backend.CreateReport(ctx, body)
	if err != nil {
		return nil, err
	}
	if created == nil || created.ID == "" {
		return nil, errors.New("report created but no id returned")
	}
	r.logger.Infow("Report created", "report_id", created.ID, "name", body.ReportName, "type", body.ReportType)

	saved, err := r.save(ctx, created.ID, Filename(body.ReportName))
	if err != nil {
		return nil, err
	}
	saved.Report = created
	return saved, nil
}

// DownloadExisting saves the PDF of an already generated report.
func (r *Reporter) DownloadExisting(ctx context.Context, report models.Report) (*Saved, error) {
	if report.ID == "" {
		return nil, &ValidationError{Field: "id", Message: "Report ID is required"}
	}
	name := report.ReportName
	if strings.TrimSpace(name) == "" {
		name = "report"
	}
	saved, err := r.save(ctx, report.ID, Filename(name))
	if err != nil {
		return nil, err
	}
	saved.Report = &report
	return saved, nil
}

// DownloadASM saves the attack-surface PDF, optionally scoped to domain.
func (r *Reporter) DownloadASM(ctx context.Context, domain string) (*Saved, error) {
	domain = strings.TrimSpace(domain)
	data, err := r.backend.DownloadASMReport(ctx, domain)
	if err != nil {
		return nil, err
	}
	name := "asm-report.pdf"
	if domain != "" {
		name = Filename("asm-report " + domain)
	}
	return r.write(name, data)
}

func (r *Reporter) save(ctx context.Context, id, name string) (*Saved, error) {
	data, err := r.backend.DownloadReport(ctx, id)
	if err != nil {
		return nil, err
	}
	return r.write(name, data)
}

func (r *Reporter) write(name string, data []byte) (*Saved, error) {
	if len(data) == 0 {
		return nil, errors.New("report download was empty")
	}
	path, err := storage.WriteFile(r.dir, name, data)
	if err != nil {
		return nil, fmt.Errorf("saving report: %w", err)
	}
	r.logger.Infow("Report saved", "path", path, "bytes", len(data))
	return &Saved{Path: path, Size: len(data)}, nil
}

// Filename turns a report name into its download name: whitespace runs
// become "-" and ".pdf" is appended.
func Filename(name string) string {
	if strings.TrimSpace(name) == "" {
		return "report.pdf"
	}
	return storage.SanitizeFilename(name) + ".pdf"
}

// APIScansForDomain returns the API-testing scans whose asset is the domain,
// one of its subdomains, or mentions it. When none match, every API scan is
// returned so a selection is always possible.
func APIScansForDomain(scans []models.Scan, domain string) []models.Scan {
	apiScans := []models.Scan{}
	for _, s := range scans {
		if strings.EqualFold(string(s.ScanType), string(models.ScanTypeAPI)) {
			apiScans = append(apiScans, s)
		}
	}

	domain = strings.ToLower(strings.TrimSpace(domain))
	if domain == "" {
		return apiScans
	}

	matched := []models.Scan{}
	for _, s := range apiScans {
		asset := s.AssetURL
		if asset == "" {
			asset = s.AssetName
		}
		asset = strings.ToLower(asset)
		host := assetHost(asset)
		if host == domain || strings.HasSuffix(host, "."+domain) || strings.Contains(asset, domain) {
			matched = append(matched, s)
		}
	}
	if len(matched) == 0 {
		return apiScans
	}
	return matched
}

func assetHost(asset string) string {
	if u, err := url.Parse(asset); err == nil && u.Scheme != "" && u.Host != "" {
		return u.Hostname()
	}
	s := asset
	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+3:]
	}
	host, _, _ := strings.Cut(s, "/")
	return host
}

var (
	assessmentLabels = map[string]string{
		"DOMAIN":      "Domain",
		"WEBSCAN":     "Webscan (Subdomain)",
		"API":         "API Testing",
		"API_TESTING": "API Testing",
	}
	variantLabels = map[string]string{
		"EXEC_SUMMARY":    "Executive Summary",
		"DETAILS_REPORT":  "Details Report",
		"DETAILS_SUMMARY": "Details Report",
	}
)

// DescribeType renders a stored report_type for display, e.g.
// "WEBSCAN_EXEC_SUMMARY" -> "Executive Summary - Webscan (Subdomain) (example.com)".
func DescribeType(reportType, domain string) string {
	rt := strings.ToUpper(strings.TrimSpace(reportType))
	scope := domain
	if scope == "" {
		scope = "-"
	}

	switch rt {
	case "":
		return "-"
	case "EXEC_SUMMARY", "EXECUTIVE_SUMMARY", "EXPOSURE_STORIES":
		return fmt.Sprintf("Executive Summary - Domain (%s)", scope)
	case "DETAILS_SUMMARY", "DETAIL_SUMMARY", "ASM":
		return fmt.Sprintf("Details Report - Domain (%s)", scope)
	}

	assessment, variant, ok := strings.Cut(rt, "_")
	if !ok {
		return rt
	}
	// API_TESTING_<variant> splits one label too early.
	if assessment == "API" && strings.HasPrefix(variant, "TESTING_") {
		assessment, variant = "API_TESTING", strings.TrimPrefix(variant, "TESTING_")
	}
	a, ok := assessmentLabels[assessment]
	if !ok {
		a = assessment
	}
	v, ok := variantLabels[variant]
	if !ok {
		v = variant
	}
	return fmt.Sprintf("%s - %s (%s)", v, a, scope)
}
