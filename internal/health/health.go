// Package health runs a fixed set of operational checks against the
// running system — storage reachability, disk headroom, credential
// availability, and SSH reachability to a sample of inventory devices —
// and aggregates them into one report with worst-status-wins semantics.
package health

import (
	"context"
	"fmt"
	"syscall"
	"time"

	"github.com/scottpeterman/velocitycmdb/internal/cmdctx"
	"github.com/scottpeterman/velocitycmdb/internal/sshclient"
)

// Status represents the health status of a check result.
type Status string

const (
	StatusOK       Status = "ok"
	StatusWarning  Status = "warning"
	StatusCritical Status = "critical"
	StatusUnknown  Status = "unknown"
)

// Result represents the outcome of one health check.
type Result struct {
	Check     string        `json:"check"`
	Status    Status        `json:"status"`
	Message   string        `json:"message"`
	Details   interface{}   `json:"details,omitempty"`
	Duration  time.Duration `json:"duration"`
	Timestamp time.Time     `json:"timestamp"`
}

// Report contains all health check results for one run.
type Report struct {
	Timestamp time.Time     `json:"timestamp"`
	Overall   Status        `json:"overall"`
	Results   []Result      `json:"results"`
	Duration  time.Duration `json:"duration"`
}

// Pinger is satisfied by store.Store; it is narrowed here so health does
// not need to import the concrete storage package.
type Pinger interface {
	Ping() error
}

// Target bundles the dependencies a Check inspects. SampleSessions is a
// small subset of inventory sessions (not every device) used by
// SSHReachableCheck to sanity-check connectivity without launching a full
// collection run.
type Target struct {
	DataDir        string
	Store          Pinger
	Credentials    cmdctx.CredentialSource
	SampleSessions []SSHTarget
}

// SSHTarget is the minimal addressing information SSHReachableCheck needs
// for one device.
type SSHTarget struct {
	Name     string
	Host     string
	Port     int
	CredsIdx int
}

// Check defines one health check.
type Check interface {
	Name() string
	Run(ctx context.Context, t Target) Result
}

// Checker runs a fixed set of checks and aggregates them into a Report.
type Checker struct {
	checks []Check
}

// NewChecker builds a Checker with the default check set.
func NewChecker() *Checker {
	return &Checker{
		checks: []Check{
			&StoreReachableCheck{},
			&DiskSpaceCheck{MinFreeBytes: 100 * 1024 * 1024},
			&CredentialsPresentCheck{},
			&SSHReachableCheck{Timeout: 5 * time.Second},
		},
	}
}

// Run executes every check and aggregates results; the worst status wins.
func (c *Checker) Run(ctx context.Context, t Target) *Report {
	start := time.Now()
	report := &Report{
		Timestamp: start,
		Results:   make([]Result, 0, len(c.checks)),
		Overall:   StatusOK,
	}

	for _, check := range c.checks {
		result := check.Run(ctx, t)
		report.Results = append(report.Results, result)

		switch {
		case result.Status == StatusCritical:
			report.Overall = StatusCritical
		case result.Status == StatusWarning && report.Overall != StatusCritical:
			report.Overall = StatusWarning
		case result.Status == StatusUnknown && report.Overall == StatusOK:
			report.Overall = StatusUnknown
		}
	}

	report.Duration = time.Since(start)
	return report
}

// RunCheck runs a single named check.
func (c *Checker) RunCheck(ctx context.Context, t Target, name string) (*Result, error) {
	for _, check := range c.checks {
		if check.Name() == name {
			result := check.Run(ctx, t)
			return &result, nil
		}
	}
	return nil, fmt.Errorf("health check %q not found", name)
}

// StoreReachableCheck verifies the SQLite databases still respond.
type StoreReachableCheck struct{}

func (c *StoreReachableCheck) Name() string { return "store" }

func (c *StoreReachableCheck) Run(ctx context.Context, t Target) Result {
	start := time.Now()
	result := Result{Check: c.Name(), Timestamp: start}

	if t.Store == nil {
		result.Status = StatusUnknown
		result.Message = "no store configured"
		result.Duration = time.Since(start)
		return result
	}

	if err := t.Store.Ping(); err != nil {
		result.Status = StatusCritical
		result.Message = fmt.Sprintf("store unreachable: %v", err)
	} else {
		result.Status = StatusOK
		result.Message = "store reachable"
	}
	result.Duration = time.Since(start)
	return result
}

// DiskSpaceCheck verifies the data directory's filesystem has enough free
// space for new captures and snapshots.
type DiskSpaceCheck struct {
	MinFreeBytes uint64
}

func (c *DiskSpaceCheck) Name() string { return "disk_space" }

func (c *DiskSpaceCheck) Run(ctx context.Context, t Target) Result {
	start := time.Now()
	result := Result{Check: c.Name(), Timestamp: start}

	var stat syscall.Statfs_t
	if err := syscall.Statfs(t.DataDir, &stat); err != nil {
		result.Status = StatusUnknown
		result.Message = fmt.Sprintf("could not stat %s: %v", t.DataDir, err)
		result.Duration = time.Since(start)
		return result
	}

	free := stat.Bavail * uint64(stat.Bsize)
	result.Details = map[string]uint64{"free_bytes": free}

	switch {
	case free < c.MinFreeBytes/2:
		result.Status = StatusCritical
		result.Message = fmt.Sprintf("%d bytes free, below half the %d byte minimum", free, c.MinFreeBytes)
	case free < c.MinFreeBytes:
		result.Status = StatusWarning
		result.Message = fmt.Sprintf("%d bytes free, below the %d byte minimum", free, c.MinFreeBytes)
	default:
		result.Status = StatusOK
		result.Message = fmt.Sprintf("%d bytes free", free)
	}
	result.Duration = time.Since(start)
	return result
}

// CredentialsPresentCheck verifies at least one CRED_N_USER/CRED_N_PASS
// pair is resolvable, so a collection run has something to authenticate
// with.
type CredentialsPresentCheck struct{}

func (c *CredentialsPresentCheck) Name() string { return "credentials" }

func (c *CredentialsPresentCheck) Run(ctx context.Context, t Target) Result {
	start := time.Now()
	result := Result{Check: c.Name(), Timestamp: start}

	if t.Credentials == nil {
		result.Status = StatusCritical
		result.Message = "no credential source configured"
		result.Duration = time.Since(start)
		return result
	}

	found := 0
	for i := 1; i <= 10; i++ {
		if _, _, ok := t.Credentials.Credential(i); ok {
			found++
		}
	}

	result.Details = map[string]int{"found": found}
	if found == 0 {
		result.Status = StatusCritical
		result.Message = "no CRED_N_USER/CRED_N_PASS pairs resolved"
	} else {
		result.Status = StatusOK
		result.Message = fmt.Sprintf("%d credential pair(s) resolved", found)
	}
	result.Duration = time.Since(start)
	return result
}

// SSHReachableCheck opens an authenticated SSH connection to a small sample
// of inventory devices to catch network-level outages
// before a full collection run discovers them one device at a time.
type SSHReachableCheck struct {
	Timeout time.Duration
}

func (c *SSHReachableCheck) Name() string { return "ssh_reachability" }

func (c *SSHReachableCheck) Run(ctx context.Context, t Target) Result {
	start := time.Now()
	result := Result{Check: c.Name(), Timestamp: start}

	if len(t.SampleSessions) == 0 {
		result.Status = StatusOK
		result.Message = "no sample devices configured"
		result.Duration = time.Since(start)
		return result
	}

	var unreachable []string
	for _, s := range t.SampleSessions {
		user, pass, _ := t.Credentials.Credential(s.CredsIdx)
		client, err := sshclient.Dial(sshclient.Config{
			Host:           s.Host,
			Port:           s.Port,
			Username:       user,
			Password:       pass,
			ConnectTimeout: c.Timeout,
		})
		if err != nil {
			unreachable = append(unreachable, s.Name)
			continue
		}
		client.Close()
	}

	result.Details = map[string]interface{}{
		"sampled":     len(t.SampleSessions),
		"unreachable": unreachable,
	}

	switch {
	case len(unreachable) == 0:
		result.Status = StatusOK
		result.Message = fmt.Sprintf("all %d sampled devices reachable", len(t.SampleSessions))
	case len(unreachable) < len(t.SampleSessions):
		result.Status = StatusWarning
		result.Message = fmt.Sprintf("%d of %d sampled devices unreachable", len(unreachable), len(t.SampleSessions))
	default:
		result.Status = StatusCritical
		result.Message = fmt.Sprintf("all %d sampled devices unreachable", len(t.SampleSessions))
	}
	result.Duration = time.Since(start)
	return result
}
