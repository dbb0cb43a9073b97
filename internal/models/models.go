// Package models holds the plain data-transfer structs shared by the store,
// collection, and parse-and-load layers. None of these carry behavior beyond
// simple validation; they mirror the storage schema column for column.
package models

import "time"

// Severity classifies the magnitude of a detected capture change.
type Severity string

const (
	SeverityMinor    Severity = "minor"
	SeverityModerate Severity = "moderate"
	SeverityCritical Severity = "critical"
)

// Device is a network element identified primarily by NormalizedName.
type Device struct {
	ID              int64
	Name            string
	NormalizedName  string
	ManagementIP    string
	IPv4Address     string
	VendorID        string
	SiteID          string
	RoleID          string
	DeviceType      string
	Platform        string
	Model           string
	SoftwareVersion string
	Serial          string
	SourceSystem    string
	FingerprintedAt *time.Time
	Timestamp       time.Time
}

// Component belongs to a Device: chassis/module/psu/fan/transceiver/
// supervisor/unknown. Key is (DeviceID, Name, Position).
type Component struct {
	ID                   int64
	DeviceID             int64
	Name                 string
	Description          string
	Serial               string
	Position             string
	HaveSN               bool
	Type                 string
	Subtype              string
	ExtractionSource     string
	ExtractionConfidence float64
}

// ArpEntry is one sighting of an IP-to-MAC mapping on a device, append-only.
type ArpEntry struct {
	ID          int64
	DeviceID    int64
	ContextID   string
	IPAddress   string
	MACAddress  string
	Interface   string
	EntryType   string
	CapturedAt  time.Time
}

// CaptureCurrent is the single "latest" row per (device, capture_type).
type CaptureCurrent struct {
	ID          int64
	DeviceID    int64
	CaptureType string
	FilePath    string
	Size        int64
	CapturedAt  time.Time
	ContentHash string
}

// CaptureSnapshot is an immutable, content-hash-deduplicated history row for
// a tracked capture type.
type CaptureSnapshot struct {
	ID          int64
	DeviceID    int64
	CaptureType string
	Content     string
	ContentHash string
	FilePath    string
	CapturedAt  time.Time
}

// CaptureChange records that two consecutive snapshots for (device, type)
// differed.
type CaptureChange struct {
	ID                  int64
	DeviceID            int64
	CaptureType         string
	DetectedAt          time.Time
	PreviousSnapshotID  *int64
	CurrentSnapshotID   int64
	LinesAdded          int
	LinesRemoved        int
	DiffPath            string
	Severity            Severity
}

// TrackedCaptureTypes is the fixed set of capture types that participate in
// change detection. All other capture types update CaptureCurrent only.
var TrackedCaptureTypes = map[string]bool{
	"configs":   true,
	"version":   true,
	"inventory": true,
}

// IsTracked reports whether captureType participates in snapshot/change
// history.
func IsTracked(captureType string) bool {
	return TrackedCaptureTypes[captureType]
}
