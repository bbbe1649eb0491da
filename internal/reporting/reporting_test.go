package reporting

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hakim/asmctl/internal/models"
)

type fakeBackend struct {
	created    []models.CreateReportRequest
	downloads  []string
	asmDomains []string
	noID       bool
}

func (f *fakeBackend) ListReports(ctx context.Context, limit, offset int) ([]models.Report, error) {
	return []models.Report{{ID: "r1", ReportName: "Q1", ReportType: TypeExecSummary}}, nil
}

func (f *fakeBackend) CreateReport(ctx context.Context, req models.CreateReportRequest) (*models.Report, error) {
	f.created = append(f.created, req)
	if f.noID {
		return &models.Report{ReportName: req.ReportName}, nil
	}
	return &models.Report{ID: "r9", ReportName: req.ReportName, ReportType: req.ReportType, DomainName: req.DomainName}, nil
}

func (f *fakeBackend) DownloadReport(ctx context.Context, id string) ([]byte, error) {
	f.downloads = append(f.downloads, id)
	return []byte("%PDF-1.7 " + id), nil
}

func (f *fakeBackend) DownloadASMReport(ctx context.Context, domain string) ([]byte, error) {
	f.asmDomains = append(f.asmDomains, domain)
	return []byte("%PDF asm"), nil
}

func TestValidateByAssessment(t *testing.T) {
	tests := []struct {
		name  string
		req   Request
		field string
	}{
		{"missing name", Request{Domain: "example.com"}, "name"},
		{"missing domain", Request{Name: "Q1"}, "domain"},
		{"webscan needs subdomain", Request{Name: "Q1", Domain: "example.com", Assessment: models.AssessmentWebscan}, "subdomain"},
		{"api needs scan", Request{Name: "Q1", Domain: "example.com", Assessment: models.AssessmentAPITesting}, "scan_id"},
		{"unknown assessment", Request{Name: "Q1", Domain: "example.com", Assessment: "PENTEST"}, "assessment"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := &fakeBackend{}
			_, err := New(backend, t.TempDir(), nil).Generate(context.Background(), tt.req)

			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.Equal(t, tt.field, verr.Field)
			assert.Empty(t, backend.created)
		})
	}

	assert.NoError(t, Request{Name: "Q1", Domain: "example.com"}.Validate())
}

func TestGenerateCreatesThenDownloads(t *testing.T) {
	dir := t.TempDir()
	backend := &fakeBackend{}

	saved, err := New(backend, dir, nil).Generate(context.Background(), Request{
		Name:       "  Quarterly  exposure review ",
		Domain:     "example.com",
		Assessment: models.AssessmentWebscan,
		Subdomain:  "api.example.com",
		ScanID:     "ignored",
	})
	require.NoError(t, err)

	require.Len(t, backend.created, 1)
	body := backend.created[0]
	assert.Equal(t, "Quarterly  exposure review", body.ReportName)
	assert.Equal(t, TypeExecSummary, body.ReportType)
	assert.Equal(t, "api.example.com", body.SubdomainName)
	assert.Empty(t, body.ScanID, "only the companion of the chosen assessment is sent")

	assert.Equal(t, []string{"r9"}, backend.downloads)
	assert.Equal(t, filepath.Join(dir, "Quarterly-exposure-review.pdf"), saved.Path)
	data, err := os.ReadFile(saved.Path)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.7 r9", string(data))
	assert.Equal(t, "r9", saved.Report.ID)
}

func TestGenerateRequiresReturnedID(t *testing.T) {
	backend := &fakeBackend{noID: true}
	_, err := New(backend, t.TempDir(), nil).Generate(context.Background(), Request{Name: "Q1", Domain: "example.com"})
	require.Error(t, err)
	assert.Equal(t, "report created but no id returned", err.Error())
	assert.Empty(t, backend.downloads)
}

func TestDownloadExistingAndASM(t *testing.T) {
	dir := t.TempDir()
	backend := &fakeBackend{}
	r := New(backend, dir, nil)

	saved, err := r.DownloadExisting(context.Background(), models.Report{ID: "r1", ReportName: "Old report"})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Old-report.pdf"), saved.Path)

	saved, err = r.DownloadASM(context.Background(), "example.com")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "asm-report-example.com.pdf"), saved.Path)
	assert.Equal(t, []string{"example.com"}, backend.asmDomains)

	saved, err = r.DownloadASM(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "asm-report.pdf"), saved.Path)
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "Q1-summary.pdf", Filename("Q1 summary"))
	assert.Equal(t, "a-b.pdf", Filename("a \t b"))
	assert.Equal(t, "report.pdf", Filename("  "))
	assert.Equal(t, "_.._x.pdf", Filename("../../x"))
}

func TestAPIScansForDomain(t *testing.T) {
	scans := []models.Scan{
		{ScanID: "1", ScanType: models.ScanTypeAPI, AssetURL: "https://api.example.com/v1"},
		{ScanID: "2", ScanType: "API", AssetURL: "https://example.com"},
		{ScanID: "3", ScanType: models.ScanTypeAPI, AssetURL: "https://other.io"},
		{ScanID: "4", ScanType: models.ScanTypeDomainDiscovery, AssetName: "example.com"},
		{ScanID: "5", ScanType: models.ScanTypeAPI, AssetName: "staging.example.com:8443"},
	}

	ids := func(in []models.Scan) []string {
		out := []string{}
		for _, s := range in {
			out = append(out, s.ScanID)
		}
		return out
	}

	assert.Equal(t, []string{"1", "2", "5"}, ids(APIScansForDomain(scans, "Example.com")))
	assert.Equal(t, []string{"1", "2", "3", "5"}, ids(APIScansForDomain(scans, "")))
	assert.Equal(t, []string{"1", "2", "3", "5"}, ids(APIScansForDomain(scans, "nomatch.dev")), "falls back to every API scan")
}

func TestDescribeType(t *testing.T) {
	assert.Equal(t, "Executive Summary - Domain (example.com)", DescribeType("EXEC_SUMMARY", "example.com"))
	assert.Equal(t, "Details Report - Webscan (Subdomain) (example.com)", DescribeType("webscan_details_report", "example.com"))
	assert.Equal(t, "Executive Summary - API Testing (-)", DescribeType("API_TESTING_EXEC_SUMMARY", ""))
	assert.Equal(t, "CUSTOM", DescribeType("CUSTOM", "x"))
	assert.Equal(t, "-", DescribeType("", "x"))
}
