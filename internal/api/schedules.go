package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/hakim/asmctl/internal/models"
)

// CreateSchedule registers a scan to be triggered at req.ScheduledFor.
func (c *Client) CreateSchedule(ctx context.Context, req models.CreateScheduleRequest) (*models.ScheduledScan, error) {
	if req.Payload == nil {
		req.Payload = map[string]any{}
	}
	return item[models.ScheduledScan](ctx, c, call{
		op:     "Schedule scan",
		method: http.MethodPost,
		path:   "/scans/schedule",
		body:   req,
	})
}

func (c *Client) ListSchedules(ctx context.Context, limit, offset int) ([]models.ScheduledScan, error) {
	return list[models.ScheduledScan](ctx, c, call{
		op:     "Load scheduled scans",
		method: http.MethodGet,
		path:   "/scans/schedule",
		query:  pageQuery(limit, offset),
	})
}

func (c *Client) CancelSchedule(ctx context.Context, id string) (*models.ScheduledScan, error) {
	return item[models.ScheduledScan](ctx, c, call{
		op:     "Cancel scheduled scan",
		method: http.MethodPost,
		path:   "/scans/schedule/" + url.PathEscape(id) + "/cancel",
	})
}
