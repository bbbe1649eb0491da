package main

import (
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hakim/asmctl/internal/inventory"
	"github.com/hakim/asmctl/internal/models"
)

func TestSplitCSV(t *testing.T) {
	assert.Nil(t, splitCSV(""))
	assert.Equal(t, []string{"GET /a", "POST /b"}, splitCSV(" GET /a , ,POST /b"))
}

func TestShortID(t *testing.T) {
	assert.Equal(t, "abc", shortID("abc"))
	assert.Equal(t, "12345678...", shortID("1234567890"))
}

func TestListFlagsPager(t *testing.T) {
	lf := listFlags{query: "api", status: "active", page: 3, pageSize: 25}
	p, err := lf.pager()
	require.NoError(t, err)
	assert.Equal(t, 25, p.PageSize())
	assert.Equal(t, 3, p.Page())
	assert.Equal(t, inventory.StatusActive, p.Filter().Status)

	_, err = (&listFlags{status: "archived", pageSize: 10}).pager()
	assert.Error(t, err)

	_, err = (&listFlags{pageSize: 7}).pager()
	assert.Error(t, err)
}

func TestFilterScans(t *testing.T) {
	scans := []models.Scan{
		{ScanID: "1", ScanName: "weekly", ScanType: models.ScanTypeDomainDiscovery, Status: "Running"},
		{ScanID: "2", ScanName: "orders api", ScanType: models.ScanTypeAPI, Status: models.ScanCompleted, AssetURL: "https://api.example.com"},
		{ScanID: "3", ScanName: "dmz", ScanType: models.ScanTypeNetwork, Status: models.ScanFailed},
	}

	ids := func(in []models.Scan) []string {
		var out []string
		for _, s := range in {
			out = append(out, s.ScanID)
		}
		return out
	}

	assert.Equal(t, []string{"1"}, ids(filterScans(scans, "", "in_progress", "")))
	assert.Equal(t, []string{"2"}, ids(filterScans(scans, "API", "", "")))
	assert.Equal(t, []string{"2"}, ids(filterScans(scans, "", "", "example.com")))
	assert.Len(t, filterScans(scans, "", "", ""), 3)
}

func TestScheduleTime(t *testing.T) {
	newCmd := func(at string, in time.Duration) *cobra.Command {
		c := &cobra.Command{}
		c.Flags().String("at", at, "")
		c.Flags().Duration("in", in, "")
		return c
	}

	got, err := scheduleTime(newCmd("2030-01-02T03:04:05Z", 0))
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)))

	got, err = scheduleTime(newCmd("2030-01-02 03:04", 0))
	require.NoError(t, err)
	assert.Equal(t, 3, got.Hour())

	before := time.Now()
	got, err = scheduleTime(newCmd("", time.Hour))
	require.NoError(t, err)
	assert.WithinDuration(t, before.Add(time.Hour), got, time.Minute)

	_, err = scheduleTime(newCmd("", 0))
	require.Error(t, err)
	assert.Equal(t, "please select schedule time (--at or --in)", err.Error())
	_, err = scheduleTime(newCmd("tomorrow", 0))
	assert.Error(t, err)
	_, err = scheduleTime(newCmd("2030-01-02 03:04", time.Hour))
	assert.Error(t, err)
}

func TestSubdomainScanRequest(t *testing.T) {
	req, err := subdomainScanRequest(" Example.COM ", "api, www,", true, false)
	require.NoError(t, err)
	assert.Equal(t, "example.com", req.Domain)
	assert.Equal(t, []string{"api", "www"}, req.Subdomains)
	assert.True(t, req.ExportJSON)
	assert.False(t, req.ExportPDF)

	req, err = subdomainScanRequest("example.com", "", false, false)
	require.NoError(t, err)
	assert.Nil(t, req.Subdomains)

	_, err = subdomainScanRequest("  ", "", false, false)
	require.Error(t, err)
	assert.Equal(t, "--domain is required", err.Error())
}

func TestIndentJSON(t *testing.T) {
	assert.Equal(t, "{\n  \"a\": 1\n}\n", string(indentJSON([]byte(`{"a":1}`))))
	assert.Equal(t, "not json", string(indentJSON([]byte("not json"))))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
}
