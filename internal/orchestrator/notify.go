package orchestrator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/hakim/asmctl/internal/models"
)

// Notifier posts a summary of every scan that reaches a terminal status.
// A nil Notifier or an empty WebhookURL sends nothing.
type Notifier struct {
	WebhookURL string
	Client     *http.Client
}

// terminalPayload is the JSON body posted to the webhook endpoint.
type terminalPayload struct {
	ScanID         string  `json:"scan_id"`
	ScanName       string  `json:"scan_name"`
	ScanType       string  `json:"scan_type"`
	Status         string  `json:"status"`
	AssetName      string  `json:"asset_name,omitempty"`
	ElapsedSeconds float64 `json:"elapsed_seconds"`
}

// SendTerminal posts the scan summary. Errors are returned for the caller
// to log; they never affect the scan.
func (n *Notifier) SendTerminal(ctx context.Context, scan models.Scan, elapsed time.Duration) error {
	if n == nil || n.WebhookURL == "" {
		return nil
	}

	body, err := json.Marshal(terminalPayload{
		ScanID:         scan.ScanID,
		ScanName:       scan.ScanName,
		ScanType:       string(scan.ScanType),
		Status:         string(scan.Status.Normalize()),
		AssetName:      scan.AssetName,
		ElapsedSeconds: elapsed.Seconds(),
	})
	if err != nil {
		return fmt.Errorf("notify: marshaling payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("notify: building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := n.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("notify: posting to %s: %w", n.WebhookURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("notify: webhook returned non-2xx status %d", resp.StatusCode)
	}
	return nil
}
