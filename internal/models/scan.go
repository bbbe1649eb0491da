package models

// Scan is a scan record as listed by the backend
type Scan struct {
	ScanID    string     `json:"scan_id"`
	ScanName  string     `json:"scan_name"`
	ScanType  ScanType   `json:"scan_type"`
	Status    ScanStatus `json:"status"`
	AssetName string     `json:"asset_name,omitempty"`
	AssetURL  string     `json:"asset_url,omitempty"`
	CreatedAt Timestamp  `json:"created_at"`
	CreatedBy string     `json:"created_by,omitempty"`
}

// CreateScanRequest is the body of POST /scans/
type CreateScanRequest struct {
	ScanName string         `json:"scan_name"`
	ScanType ScanType       `json:"scan_type"`
	Payload  map[string]any `json:"payload"`
}

// ScanAction is the acknowledgement returned by pause/resume/terminate.
// It is advisory: the scan list remains the source of truth.
type ScanAction struct {
	Message string     `json:"message"`
	ScanID  string     `json:"scan_id"`
	Status  ScanStatus `json:"status"`
}

// ScheduledScan is a scan definition with a future trigger time
type ScheduledScan struct {
	ID              string         `json:"id"`
	ScanName        string         `json:"scan_name"`
	ScanType        ScanType       `json:"scan_type"`
	ScheduledFor    Timestamp      `json:"scheduled_for"`
	Status          ScheduleStatus `json:"status"`
	TriggeredScanID string         `json:"triggered_scan_id,omitempty"`
	TriggeredAt     Timestamp      `json:"triggered_at"`
	Error           string         `json:"error,omitempty"`
	CreatedAt       Timestamp      `json:"created_at"`
	CreatedBy       string         `json:"created_by,omitempty"`
}

// CreateScheduleRequest is the body of POST /scans/schedule
type CreateScheduleRequest struct {
	ScanName     string         `json:"scan_name"`
	ScanType     ScanType       `json:"scan_type"`
	ScheduledFor string         `json:"scheduled_for"`
	Payload      map[string]any `json:"payload"`
}
