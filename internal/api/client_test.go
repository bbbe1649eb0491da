package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hakim/asmctl/internal/models"
)

type staticToken string

func (s staticToken) Token() string { return string(s) }

func newTestClient(t *testing.T, h http.Handler, token string) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := New(Options{BaseURL: srv.URL, Tokens: staticToken(token)})
	require.NoError(t, err)
	return c
}

func TestNewRequiresAbsoluteURL(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)

	_, err = New(Options{BaseURL: "/relative"})
	assert.Error(t, err)
}

func TestBearerTokenAttachedOnlyWhenPresent(t *testing.T) {
	var got []string
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = append(got, r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		_, _ = io.WriteString(w, `[]`)
	})

	_, err := newTestClient(t, h, "abc").ListDomains(context.Background())
	require.NoError(t, err)
	_, err = newTestClient(t, h, "").ListDomains(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"Bearer abc", ""}, got)
}

func TestListDomainsEnvelopesNormalize(t *testing.T) {
	bare := `[{"id":"1","domain_name":"example.com","tags":["production","external"]}]`
	wrapped := `{"data":` + bare + `}`

	var results [][]models.Domain
	for _, body := range []string{bare, wrapped} {
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/assets/domain", r.URL.Path)
			_, _ = io.WriteString(w, body)
		}), "")
		domains, err := c.ListDomains(context.Background())
		require.NoError(t, err)
		results = append(results, domains)
	}

	require.Len(t, results[0], 1)
	assert.Equal(t, results[0], results[1])
	assert.Equal(t, []string{"production", "external"}, results[0][0].Tags)
}

func TestUnexpectedShapeIsAnError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"results":[]}`)
	}), "")

	_, err := c.ListScans(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnexpectedShape)
}

func TestErrorMessagePrecedence(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"server detail", http.StatusConflict, `{"detail":"Domain already exists"}`, "Domain already exists"},
		{"validation list", http.StatusUnprocessableEntity, `{"detail":[{"loc":["body","domain_name"],"msg":"field required"}]}`, "domain_name: field required"},
		{"message fallback", http.StatusTooManyRequests, `{"message":"quota exceeded"}`, "quota exceeded"},
		{"no detail", http.StatusInternalServerError, `oops`, "Create domain failed: 500 Internal Server Error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}), "")

			_, err := c.CreateDomain(context.Background(), "example.com", nil)
			require.Error(t, err)
			assert.Equal(t, tt.want, err.Error())
			assert.Equal(t, tt.status, StatusCode(err))
		})
	}
}

func TestBackendUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	c, err := New(Options{BaseURL: base})
	require.NoError(t, err)

	_, err = c.ListDomains(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBackendUnreachable))
	assert.Equal(t, "Fetch domains failed: backend unreachable at "+base, err.Error())
}

func TestIsUnauthorized(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}), "stale")

	_, err := c.TokenClaims(context.Background())
	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))
	assert.False(t, errors.Is(err, ErrBackendUnreachable))
	assert.Equal(t, "Token validation failed: 401 Unauthorized", err.Error())
}

func TestLongOperationsIgnoreBoundedTimeout(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/assets/domain", func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		_, _ = io.WriteString(w, `[]`)
	})
	mux.HandleFunc("/reports/r1/download", func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = io.WriteString(w, "%PDF-1.4")
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c, err := New(Options{BaseURL: srv.URL, Timeout: 50 * time.Millisecond})
	require.NoError(t, err)

	_, err = c.ListDomains(context.Background())
	require.Error(t, err, "bounded call should time out")
	assert.False(t, errors.Is(err, ErrBackendUnreachable))

	pdf, err := c.DownloadReport(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(pdf))
}

func TestCreateScanSendsBody(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/scans/", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "nightly", body["scan_name"])
		assert.Equal(t, "dd", body["scan_type"])
		assert.Equal(t, map[string]any{"domain": "example.com"}, body["payload"])

		_, _ = io.WriteString(w, `{"scan_id":"s1","scan_name":"nightly","scan_type":"dd","status":"IN_PROGRESS","created_at":"2025-01-02T03:04:05.123456"}`)
	}), "t")

	scan, err := c.CreateScan(context.Background(), models.CreateScanRequest{
		ScanName: "nightly",
		ScanType: models.ScanTypeDomainDiscovery,
		Payload:  map[string]any{"domain": "example.com"},
	})
	require.NoError(t, err)
	assert.Equal(t, "s1", scan.ScanID)
	assert.Equal(t, models.ScanInProgress, scan.Status)
	assert.Equal(t, 2025, scan.CreatedAt.Year())
}

func TestCreateDomainSendsNameAndTags(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/assets/domain", r.URL.Path)

		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.JSONEq(t, `{"domain_name":"example.com","tags":["production","external"]}`, string(body))

		_, _ = io.WriteString(w, `{"id":"d1","domain_name":"example.com","tags":["production","external"]}`)
	}), "t")

	d, err := c.CreateDomain(context.Background(), "example.com", models.ParseTags("production, external,production"))
	require.NoError(t, err)
	assert.Equal(t, "d1", d.ID)
	assert.Equal(t, []string{"production", "external"}, d.Tags)
}

func TestCreateDomainSendsEmptyTagList(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.JSONEq(t, `{"domain_name":"example.com","tags":[]}`, string(body))
		_, _ = io.WriteString(w, `{"id":"d1","domain_name":"example.com","tags":[]}`)
	}), "t")

	_, err := c.CreateDomain(context.Background(), "example.com", nil)
	require.NoError(t, err)
}

func TestGetScanAndNotFound(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		if r.URL.Path != "/scans/scan/s1" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"detail":"Not Found"}`)
			return
		}
		_, _ = io.WriteString(w, `{"scan_id":"s1","scan_name":"nightly","scan_type":"dd","status":"COMPLETED"}`)
	}), "t")

	scan, err := c.GetScan(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "s1", scan.ScanID)
	assert.Equal(t, models.ScanCompleted, scan.Status)

	_, err = c.GetScan(context.Background(), "gone")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.False(t, IsUnauthorized(err))
	assert.False(t, IsNotFound(errors.New("plain")))
}

func TestRunSubdomainScanSendsBody(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/scan/subdomain/run", r.URL.Path)

		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.JSONEq(t, `{"domain":"example.com","subdomains":["api"],"export_json":true,"export_pdf":false}`, string(body))

		_, _ = io.WriteString(w, `{"domain":"example.com","found":["api.example.com"]}`)
	}), "t")

	raw, err := c.RunSubdomainScan(context.Background(), SubdomainScanRequest{
		Domain:     "example.com",
		Subdomains: []string{"api"},
		ExportJSON: true,
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"domain":"example.com","found":["api.example.com"]}`, string(raw))
}

func TestScanActionsHitActionPaths(t *testing.T) {
	var paths []string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.Method+" "+r.URL.Path)
		_, _ = io.WriteString(w, `{"message":"ok","status":"PAUSED"}`)
	}), "")

	ctx := context.Background()
	ack, err := c.PauseScan(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "s1", ack.ScanID)
	_, err = c.ResumeScan(ctx, "s1")
	require.NoError(t, err)
	_, err = c.TerminateScan(ctx, "s1")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"POST /scans/s1/pause",
		"POST /scans/s1/resume",
		"POST /scans/s1/terminate",
	}, paths)
}

func TestListSchedulesPaging(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "50", r.URL.Query().Get("limit"))
		assert.Equal(t, "", r.URL.Query().Get("offset"))
		_, _ = io.WriteString(w, `{"data":[{"id":"sch1","scan_name":"later","scan_type":"dd","status":"PENDING","scheduled_for":"2030-01-01T00:00:00"}]}`)
	}), "")

	items, err := c.ListSchedules(context.Background(), 50, 0)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, models.SchedulePending, items[0].Status)
	assert.Empty(t, items[0].TriggeredScanID)
}

func TestDownloadASMReportDomainQuery(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/reports/asm.pdf", r.URL.Path)
		assert.Equal(t, "example.com", r.URL.Query().Get("domain"))
		_, _ = io.WriteString(w, "%PDF")
	}), "")

	data, err := c.DownloadASMReport(context.Background(), "example.com")
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(data))
}

func TestFindingsNormalizeSeverity(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[{"issue":"TLS 1.0","severity":"high","asset_url":"https://a.example.com"},{"title":"Banner","severity":"weird"}]`)
	}), "")

	findings, err := c.ListFindings(context.Background())
	require.NoError(t, err)
	require.Len(t, findings, 2)
	assert.Equal(t, models.SeverityHigh, findings[0].Severity)
	assert.Equal(t, "Banner", findings[1].Issue)
	assert.Equal(t, models.SeverityInfo, findings[1].Severity)
}

func TestBaseURLPathPrefixKept(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/scans/scan", r.URL.Path)
		_, _ = io.WriteString(w, `[]`)
	}))
	t.Cleanup(srv.Close)

	c, err := New(Options{BaseURL: srv.URL + "/api/v1/"})
	require.NoError(t, err)
	_, err = c.ListScans(context.Background())
	require.NoError(t, err)
}
