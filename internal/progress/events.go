// Package progress defines the closed progress-event protocol shared by
// every long-running operation (discovery, fingerprint, collection): a
// discriminated union emitted to
// a channel, fanned out identically to CLI JSON mode and WebSocket clients.
// No emitter may bypass this protocol with an ad-hoc callback.
package progress

import "encoding/json"

// Type identifies the shape of an Event's payload.
type Type string

const (
	TypeJobStart       Type = "job_start"
	TypeDeviceStart    Type = "device_start"
	TypeDeviceComplete Type = "device_complete"
	TypeProgress       Type = "progress"
	TypeJobComplete    Type = "job_complete"
	TypeSummary        Type = "summary"
	TypeError          Type = "error"
)

// Event is the wire shape of every progress message. Every event carries
// JobID; the remaining fields are populated according to Type.
type Event struct {
	Type  Type   `json:"type"`
	JobID string `json:"job_id"`

	// job_start / job_complete
	JobFileName string `json:"job_file_name,omitempty"`

	// device_start / device_complete
	DeviceName string `json:"device_name,omitempty"`
	IPAddress  string `json:"ip_address,omitempty"`
	Success    *bool  `json:"success,omitempty"`
	Message    string `json:"message,omitempty"`

	// progress
	Completed int     `json:"completed,omitempty"`
	Total     int     `json:"total,omitempty"`
	Percent   float64 `json:"percent,omitempty"`

	// summary
	DevicesSucceeded int            `json:"devices_succeeded,omitempty"`
	DevicesFailed    int            `json:"devices_failed,omitempty"`
	CapturesCreated  map[string]int `json:"captures_created,omitempty"`
	ExecutionTimeMS  int64          `json:"execution_time_ms,omitempty"`

	// error
	Err string `json:"error,omitempty"`
}

// Marshal is the single serialization path used by both the CLI's
// --json mode and the WebSocket bridge, so both consumers always see
// identical bytes for the same logical event.
func (e Event) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

func boolPtr(b bool) *bool { return &b }

// JobStart builds a job_start event.
func JobStart(jobID, jobFileName string) Event {
	return Event{Type: TypeJobStart, JobID: jobID, JobFileName: jobFileName}
}

// DeviceStart builds a device_start event.
func DeviceStart(jobID, device, ip string) Event {
	return Event{Type: TypeDeviceStart, JobID: jobID, DeviceName: device, IPAddress: ip}
}

// DeviceComplete builds a device_complete event.
func DeviceComplete(jobID, device string, success bool, message string) Event {
	return Event{Type: TypeDeviceComplete, JobID: jobID, DeviceName: device, Success: boolPtr(success), Message: message}
}

// Progress builds a progress event. Percent is computed over completed
// items only, never started ones, so the value is monotonically
// non-decreasing.
func Progress(jobID string, completed, total int) Event {
	pct := 0.0
	if total > 0 {
		pct = (float64(completed) / float64(total)) * 100
	}
	return Event{Type: TypeProgress, JobID: jobID, Completed: completed, Total: total, Percent: pct}
}

// JobComplete builds a job_complete event.
func JobComplete(jobID, jobFileName string) Event {
	return Event{Type: TypeJobComplete, JobID: jobID, JobFileName: jobFileName}
}

// Summary builds the single, final summary event for a run.
func Summary(jobID string, succeeded, failed int, capturesCreated map[string]int, executionTimeMS int64) Event {
	return Event{
		Type: TypeSummary, JobID: jobID,
		DevicesSucceeded: succeeded, DevicesFailed: failed,
		CapturesCreated: capturesCreated, ExecutionTimeMS: executionTimeMS,
	}
}

// Error builds an error event for conditions that escalate beyond a single
// device's progress stream (fatal/config errors).
func Error(jobID string, err error) Event {
	return Event{Type: TypeError, JobID: jobID, Err: err.Error()}
}
