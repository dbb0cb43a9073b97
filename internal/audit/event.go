// Package audit provides append-only audit logging for collection runs,
// capture loads, and detected changes.
package audit

import (
	"fmt"
	"time"
)

// Event represents one auditable occurrence in a collection or load run.
type Event struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	Severity  Severity  `json:"severity"`
	JobID     string    `json:"job_id,omitempty"`
	Device    string    `json:"device,omitempty"`
	CaptureType string  `json:"capture_type,omitempty"`
	Message   string    `json:"message,omitempty"`
	Success   bool      `json:"success"`
	Error     string    `json:"error,omitempty"`
	Duration  time.Duration `json:"duration,omitempty"`
}

// EventType categorizes audit events.
type EventType string

const (
	EventTypeJobRun        EventType = "job_run"
	EventTypeCaptureLoaded EventType = "capture_loaded"
	EventTypeChangeDetected EventType = "change_detected"
	EventTypeFingerprint   EventType = "fingerprint"
	EventTypeDiscovery     EventType = "discovery"
)

// Severity indicates the importance of an audit event.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Filter defines criteria for querying audit events.
type Filter struct {
	Device      string
	Type        EventType
	JobID       string
	StartTime   time.Time
	EndTime     time.Time
	SuccessOnly bool
	FailureOnly bool
	Limit       int
	Offset      int
}

// NewEvent creates a new audit event of the given type.
func NewEvent(typ EventType, device string) *Event {
	return &Event{
		ID:        generateID(),
		Timestamp: time.Now(),
		Type:      typ,
		Severity:  SeverityInfo,
		Device:    device,
	}
}

// WithJob sets the job ID.
func (e *Event) WithJob(jobID string) *Event {
	e.JobID = jobID
	return e
}

// WithCaptureType sets the capture type.
func (e *Event) WithCaptureType(captureType string) *Event {
	e.CaptureType = captureType
	return e
}

// WithMessage sets a free-text message.
func (e *Event) WithMessage(msg string) *Event {
	e.Message = msg
	return e
}

// WithSuccess marks the event as successful.
func (e *Event) WithSuccess() *Event {
	e.Success = true
	return e
}

// WithError marks the event as failed and raises its severity.
func (e *Event) WithError(err error) *Event {
	e.Success = false
	e.Severity = SeverityError
	if err != nil {
		e.Error = err.Error()
	}
	return e
}

// WithSeverity overrides the default severity (e.g. a critical change
// detection still "succeeds" but should be flagged at warning level).
func (e *Event) WithSeverity(s Severity) *Event {
	e.Severity = s
	return e
}

// WithDuration sets the operation duration.
func (e *Event) WithDuration(d time.Duration) *Event {
	e.Duration = d
	return e
}

func generateID() string {
	return fmt.Sprintf("%d", time.Now().UnixNano())
}
