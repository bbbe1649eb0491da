package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/pflag"

	"github.com/hakim/asmctl/internal/inventory"
	"github.com/hakim/asmctl/internal/models"
)

func newTable() *tabwriter.Writer {
	return tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
}

// shortID returns the first 8 characters of an id followed by "..." for
// compact table display.
func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8] + "..."
}

// formatTime renders a backend timestamp as "2006-01-02 15:04 (3 hours ago)".
func formatTime(t models.Timestamp) string {
	if t.IsZero() {
		return "-"
	}
	return fmt.Sprintf("%s (%s)", t.Local().Format("2006-01-02 15:04"), humanize.Time(t.Time))
}

func formatStatus(s models.ScanStatus) string {
	if s == "" {
		return "-"
	}
	return strings.ToLower(string(s.Normalize()))
}

func formatTags(tags []string) string {
	if len(tags) == 0 {
		return "-"
	}
	return strings.Join(tags, ", ")
}

func formatActive(active bool) string {
	if active {
		return "active"
	}
	return "inactive"
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

// splitCSV splits a comma-separated string into a trimmed, non-empty slice.
func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func printPageFooter(number, total, items int) {
	fmt.Printf("Page %d/%d, %d item(s)\n", number, max(total, 1), items)
}

// listFlags are the filter and paging flags shared by every asset list.
type listFlags struct {
	query    string
	status   string
	label    string
	domain   string
	page     int
	pageSize int
}

func (lf *listFlags) register(flags *pflag.FlagSet) {
	flags.StringVarP(&lf.query, "search", "s", "", "Case-insensitive search over asset and domain names")
	flags.StringVar(&lf.status, "status", "all", "Filter by status: all, active, inactive")
	flags.StringVar(&lf.label, "label", "", "Only assets carrying this tag")
	flags.StringVar(&lf.domain, "domain", "", "Only assets under this domain name")
	flags.IntVar(&lf.page, "page", 1, "Page number")
	flags.IntVar(&lf.pageSize, "page-size", inventory.DefaultPageSize, "Page size: 5, 10, 25 or 50")
}

// pager builds a pager positioned on the requested page of the filtered list.
func (lf *listFlags) pager() (*inventory.Pager, error) {
	status, err := inventory.ParseStatus(lf.status)
	if err != nil {
		return nil, err
	}
	p := inventory.NewPager(inventory.DefaultPageSize)
	if err := p.SetPageSize(lf.pageSize); err != nil {
		return nil, err
	}
	p.SetFilter(inventory.Filter{
		Query:  lf.query,
		Status: status,
		Label:  lf.label,
		Domain: lf.domain,
	})
	p.SetPage(lf.page)
	return p, nil
}

// sinceStart formats a watch's elapsed time.
func sinceStart(d time.Duration) string {
	return d.Round(time.Second).String()
}
