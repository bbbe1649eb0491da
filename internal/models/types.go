package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ScanStatus represents the backend-reported state of a scan
type ScanStatus string

const (
	ScanPending    ScanStatus = "PENDING"
	ScanInProgress ScanStatus = "IN_PROGRESS"
	ScanPaused     ScanStatus = "PAUSED"
	ScanCompleted  ScanStatus = "COMPLETED"
	ScanFailed     ScanStatus = "FAILED"
	ScanTerminated ScanStatus = "TERMINATED"
)

// Terminal reports whether no further transition can follow this status.
func (s ScanStatus) Terminal() bool {
	switch s.Normalize() {
	case ScanCompleted, ScanFailed, ScanTerminated:
		return true
	}
	return false
}

// Normalize upper-cases the status; older backend rows use mixed case ("Running", "completed").
func (s ScanStatus) Normalize() ScanStatus {
	up := ScanStatus(strings.ToUpper(strings.TrimSpace(string(s))))
	if up == "RUNNING" {
		return ScanInProgress
	}
	return up
}

// ScheduleStatus represents the state of a scheduled scan entry
type ScheduleStatus string

const (
	SchedulePending    ScheduleStatus = "PENDING"
	ScheduleInProgress ScheduleStatus = "IN_PROGRESS"
	ScheduleCompleted  ScheduleStatus = "COMPLETED"
	ScheduleFailed     ScheduleStatus = "FAILED"
	ScheduleCancelled  ScheduleStatus = "CANCELLED"
)

// Terminal reports whether the schedule entry can no longer trigger.
func (s ScheduleStatus) Terminal() bool {
	switch ScheduleStatus(strings.ToUpper(string(s))) {
	case ScheduleCompleted, ScheduleFailed, ScheduleCancelled:
		return true
	}
	return false
}

// ScanType is the backend scan_type discriminator
type ScanType string

const (
	ScanTypeDomainDiscovery ScanType = "dd"
	ScanTypeSubdomain       ScanType = "subdomain"
	ScanTypeNetwork         ScanType = "network"
	ScanTypeAPI             ScanType = "api"
)

// Severity represents the severity level of a finding
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
	SeverityLow      Severity = "LOW"
	SeverityInfo     Severity = "INFO"
)

// SeverityOrder lists severities most severe first.
var SeverityOrder = []Severity{
	SeverityCritical,
	SeverityHigh,
	SeverityMedium,
	SeverityLow,
	SeverityInfo,
}

// ParseSeverity maps free-form backend values onto the known levels.
// Unknown or empty values are treated as INFO.
func ParseSeverity(s string) Severity {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "CRITICAL":
		return SeverityCritical
	case "HIGH":
		return SeverityHigh
	case "MEDIUM", "MODERATE":
		return SeverityMedium
	case "LOW":
		return SeverityLow
	default:
		return SeverityInfo
	}
}

// Timestamp decodes the backend's datetime values, which are ISO-8601 with or
// without a zone offset, and tolerates null.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
}

// ParseTimestamp parses a backend datetime string. Values without a zone are UTC.
func ParseTimestamp(s string) (Timestamp, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Timestamp{}, nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Timestamp{Time: t}, nil
		}
	}
	return Timestamp{}, fmt.Errorf("unrecognised timestamp %q", s)
}

// UnmarshalJSON implements json.Unmarshaler
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*t = Timestamp{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// MarshalJSON implements json.Marshaler
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339))
}

// Claims are the identity claims the backend derives from an access token.
type Claims struct {
	Subject   string `json:"sub"`
	Tenant    string `json:"tenant"`
	Issuer    string `json:"iss,omitempty"`
	IssuedAt  int64  `json:"iat,omitempty"`
	ExpiresAt int64  `json:"exp,omitempty"`
}
