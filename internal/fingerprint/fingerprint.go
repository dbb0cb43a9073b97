// Package fingerprint identifies platforms: for each inventory entry without a
// confirmed platform, connect, run a command-selection state machine, score
// the output against the template database, and assign the normalized
// device_type.
package fingerprint

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/scottpeterman/velocitycmdb/internal/cmdctx"
	"github.com/scottpeterman/velocitycmdb/internal/inventory"
	"github.com/scottpeterman/velocitycmdb/internal/sshclient"
	"github.com/scottpeterman/velocitycmdb/internal/template"
	"github.com/scottpeterman/velocitycmdb/internal/vendors"
	"github.com/scottpeterman/velocitycmdb/internal/workerpool"
)

// Options configures a fingerprint run.
type Options struct {
	MaxWorkers  int           // default 8
	PerDeviceTO time.Duration // default 15s
	MinScore    int           // minimum template score to accept, default 20
}

// DeviceResult is the outcome of fingerprinting one session.
type DeviceResult struct {
	Session inventory.Session
	Vendor  vendors.ID
	Result  template.Result
	Failed  bool
	Reason  string
}

// Summary aggregates a fingerprint run's outcome. Results holds every
// per-device outcome in session order so callers can propagate identified
// platforms into device records; FailedDevices is the failed subset.
type Summary struct {
	Identified    int
	Failed        int
	Results       []DeviceResult
	FailedDevices []DeviceResult
}

// Run fingerprints every session in inv concurrently, bounded by
// opts.MaxWorkers, updating each identified session in place (its folder
// grouping is preserved) and returning inv plus a summary. The whole run
// succeeds even when individual devices fail — per-device failures never
// abort the batch.
func Run(ctx context.Context, cc *cmdctx.Context, inv *inventory.Inventory, username, password string, opts Options) (*inventory.Inventory, Summary, error) {
	workers := opts.MaxWorkers
	if workers == 0 {
		workers = 8
	}
	timeout := opts.PerDeviceTO
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	minScore := opts.MinScore
	if minScore == 0 {
		minScore = 20
	}

	sessions := inv.AllSessions()
	results := make([]DeviceResult, len(sessions))

	var mu sync.Mutex
	pool := workerpool.New(workers, func(ctx context.Context, idx int) {
		sess := sessions[idx]
		res := fingerprintOne(cc, sess, username, password, timeout, minScore)
		mu.Lock()
		results[idx] = res
		mu.Unlock()
	})

	indices := make([]int, len(sessions))
	for i := range indices {
		indices[i] = i
	}
	pool.Run(ctx, indices)

	summary := Summary{}
	now := time.Now()

	summary.Results = results
	for _, r := range results {
		sess := r.Session
		if r.Failed {
			summary.Failed++
			summary.FailedDevices = append(summary.FailedDevices, r)
			continue
		}
		summary.Identified++
		sess.DeviceType = string(r.Vendor)
		sess.Vendor = string(r.Vendor)
		sess.Model = r.Result.Model()
		sess.SoftwareVersion = r.Result.SoftwareVersion()
		sess.Fingerprinted = true
		sess.FingerprintTimestamp = now
		if fi, si, ok := inv.Find(sess.NormalizedName()); ok {
			inv.Folders[fi].Sessions[si] = sess
		}
	}

	return inv, summary, nil
}

// fingerprintOne runs the command-selection state machine for a single
// session: probe, detect vendor, enqueue a follow-up command if the probe's
// output is known to carry incomplete data for that vendor, then score
// against the template database until the tracked fields are populated or
// the command queue is exhausted.
func fingerprintOne(cc *cmdctx.Context, sess inventory.Session, user, pass string, timeout time.Duration, minScore int) DeviceResult {
	client, err := sshclient.Dial(sshclient.Config{
		Host: sess.IP, Port: sess.Port, Username: user, Password: pass, ConnectTimeout: timeout,
	})
	if err != nil {
		return DeviceResult{Session: sess, Failed: true, Reason: fmt.Sprintf("connect failed: %v", err)}
	}
	defer client.Close()

	output, err := client.ExecOnce("show version")
	if err != nil {
		return DeviceResult{Session: sess, Failed: true, Reason: fmt.Sprintf("probe failed: %v", err)}
	}

	vendorID := vendors.DetectFromOutput(output)
	profile := vendors.Lookup(vendorID)

	filterList := template.FilterList(profile.TemplateFilterPrefix, "show version")
	best, bestErr := cc.Templates.Best(filterList, output, 1)

	// HP ProCurve's "show version" carries a build stamp but no serial; the
	// documented trigger for the follow-up probe.
	if vendorID == vendors.HPProcurve && (bestErr != nil || !best.AnyTracked()) {
		follow, followErr := client.ExecOnce("show system info")
		if followErr == nil {
			followList := template.FilterList(profile.TemplateFilterPrefix, "show system info")
			if followBest, err2 := cc.Templates.Best(followList, follow, 1); err2 == nil {
				best = mergeResults(best, followBest)
				bestErr = nil
			}
		}
	}

	if bestErr != nil || best.Score < minScore || !best.AnyTracked() {
		reason := "no template exceeded minimum score"
		if bestErr != nil {
			reason = bestErr.Error()
		}
		return DeviceResult{Session: sess, Vendor: vendorID, Failed: true, Reason: reason}
	}

	return DeviceResult{Session: sess, Vendor: vendorID, Result: best}
}

// mergeResults combines two template results, preferring values already
// present in a but filling gaps from b — used to combine the initial probe
// with a follow-up command's output.
func mergeResults(a, b template.Result) template.Result {
	merged := template.Result{Template: a.Template, Values: map[string][]string{}}
	for k, v := range a.Values {
		merged.Values[k] = v
	}
	for k, v := range b.Values {
		if _, ok := merged.Values[k]; !ok {
			merged.Values[k] = v
		}
	}
	merged.Score = a.Score + b.Score
	return merged
}
