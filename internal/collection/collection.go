// Package collection orchestrates capture runs: for every session in an
// inventory, open one interactive SSH session, run the command batch for that
// device's vendor, write raw output to the capture tree, and emit progress
// events as the batch drains through a bounded worker pool. A job registry
// lets callers start, observe, and cancel runs by ID while keeping the
// registry itself as the only piece of shared mutable state.
package collection

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/scottpeterman/velocitycmdb/internal/audit"
	"github.com/scottpeterman/velocitycmdb/internal/catalog"
	"github.com/scottpeterman/velocitycmdb/internal/cmdctx"
	"github.com/scottpeterman/velocitycmdb/internal/config"
	"github.com/scottpeterman/velocitycmdb/internal/inventory"
	"github.com/scottpeterman/velocitycmdb/internal/metrics"
	"github.com/scottpeterman/velocitycmdb/internal/parseload"
	"github.com/scottpeterman/velocitycmdb/internal/progress"
	"github.com/scottpeterman/velocitycmdb/internal/sshclient"
	"github.com/scottpeterman/velocitycmdb/internal/vendors"
	"github.com/scottpeterman/velocitycmdb/internal/workerpool"
)

// Options configures a collection run.
type Options struct {
	MaxWorkers    int           // default 5
	PerDeviceTO   time.Duration // default 30s
	CaptureTypes  []string      // empty means every catalog entry
	AutoLoadDB    bool          // invoke parse-and-load and change detection after the batch drains
	Username      string        // fallback credential when a session has no CredsID match
	Password      string
}

// EnvCredentialSource resolves CRED_N_USER / CRED_N_PASS environment
// variables by index, the injection scheme operators use instead of
// plaintext credentials in the inventory file.
type EnvCredentialSource struct{}

// Credential implements cmdctx.CredentialSource.
func (EnvCredentialSource) Credential(index int) (string, string, bool) {
	user := os.Getenv(fmt.Sprintf("CRED_%d_USER", index))
	pass := os.Getenv(fmt.Sprintf("CRED_%d_PASS", index))
	if user == "" {
		return "", "", false
	}
	return user, pass, true
}

// deviceResult is the per-device outcome fed back to the job driver.
type deviceResult struct {
	session inventory.Session
	ok      bool
	message string
	counts  map[string]int
}

// Job tracks one in-flight or completed collection run.
type Job struct {
	ID        string
	StartedAt time.Time

	mu        sync.Mutex
	cancel    context.CancelFunc
	completed bool
}

// Registry owns every Job by ID. It is the single mutable structure in this
// package; external callers only ever observe a job through its progress
// event channel.
type Registry struct {
	mu   sync.Mutex
	jobs map[string]*Job
}

// NewRegistry returns an empty job registry.
func NewRegistry() *Registry {
	return &Registry{jobs: make(map[string]*Job)}
}

// Cancel requests cancellation of jobID's run context. It is a no-op if the
// job is already complete; an unknown jobID returns an error.
func (r *Registry) Cancel(jobID string) error {
	r.mu.Lock()
	job, ok := r.jobs[jobID]
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("collection: unknown job %q", jobID)
	}
	job.mu.Lock()
	defer job.mu.Unlock()
	if job.completed {
		return nil
	}
	job.cancel()
	return nil
}

// Start launches a collection run over inv's sessions in a background
// goroutine and returns the job ID immediately plus a channel the caller
// subscribes to for progress events. The channel closes once the summary
// event has been published.
func (r *Registry) Start(parentCtx context.Context, cc *cmdctx.Context, st parseload.Store, captureRoot string, inv *inventory.Inventory, cfg *config.Config, opts Options) (string, <-chan progress.Event, error) {
	if opts.MaxWorkers == 0 {
		opts.MaxWorkers = 5
	}
	if opts.PerDeviceTO == 0 {
		opts.PerDeviceTO = 30 * time.Second
	}

	jobID := uuid.NewString()
	ctx, cancel := context.WithCancel(parentCtx)
	job := &Job{ID: jobID, StartedAt: time.Now(), cancel: cancel}

	r.mu.Lock()
	r.jobs[jobID] = job
	r.mu.Unlock()

	broadcaster := progress.NewBroadcaster()
	events, _ := broadcaster.Subscribe(256)

	go r.run(ctx, job, broadcaster, cc, st, captureRoot, inv, cfg, opts)

	return jobID, events, nil
}

func (r *Registry) run(ctx context.Context, job *Job, broadcaster *progress.Broadcaster, cc *cmdctx.Context, st parseload.Store, captureRoot string, inv *inventory.Inventory, cfg *config.Config, opts Options) {
	defer func() {
		job.mu.Lock()
		job.completed = true
		job.mu.Unlock()
		broadcaster.Close()
	}()

	start := time.Now()
	sessions := inv.AllSessions()
	broadcaster.Publish(progress.JobStart(job.ID, "collection"))

	results := make([]deviceResult, len(sessions))
	var completed completionCounter
	total := len(sessions)

	var mu sync.Mutex
	pool := workerpool.New(opts.MaxWorkers, func(workCtx context.Context, idx int) {
		sess := sessions[idx]
		broadcaster.Publish(progress.DeviceStart(job.ID, sess.Name, sess.IP))

		res := collectOne(workCtx, cc, sess, captureRoot, opts)

		mu.Lock()
		results[idx] = res
		mu.Unlock()

		broadcaster.Publish(progress.DeviceComplete(job.ID, sess.Name, res.ok, res.message))
		n := completed.incr()
		broadcaster.Publish(progress.Progress(job.ID, n, total))
	})

	indices := make([]int, len(sessions))
	for i := range indices {
		indices[i] = i
	}
	pool.Run(ctx, indices)

	succeeded, failed := 0, 0
	capturesCreated := map[string]int{}
	for _, res := range results {
		if res.ok {
			succeeded++
		} else {
			failed++
		}
		for ct, n := range res.counts {
			capturesCreated[ct] += n
		}
	}

	if opts.AutoLoadDB && ctx.Err() == nil {
		if _, err := parseload.Run(cc, st, captureRoot, cfg); err != nil {
			broadcaster.Publish(progress.Error(job.ID, err))
		}
	}

	broadcaster.Publish(progress.JobComplete(job.ID, "collection"))
	elapsed := time.Since(start)
	broadcaster.Publish(progress.Summary(job.ID, succeeded, failed, capturesCreated, elapsed.Milliseconds()))

	metrics.DevicesCollected.WithLabelValues("ok").Add(float64(succeeded))
	metrics.DevicesCollected.WithLabelValues("failed").Add(float64(failed))
	for ct, n := range capturesCreated {
		metrics.CapturesWritten.WithLabelValues(ct).Add(float64(n))
	}
	metrics.JobDuration.Observe(elapsed.Seconds())

	auditErr := audit.Log(audit.NewEvent(audit.EventTypeJobRun, "").
		WithJob(job.ID).
		WithMessage(fmt.Sprintf("collection run: %d succeeded, %d failed", succeeded, failed)).
		WithDuration(elapsed).
		WithSuccess())
	if auditErr != nil {
		cc.Log.WithError(auditErr).Warn("collection: audit log write failed")
	}
}

// collectOne opens one interactive session to sess, disables paging, sends
// every selected capture type's command batch in a single prompt-counted
// exchange, and writes each command's output to its own capture file.
func collectOne(ctx context.Context, cc *cmdctx.Context, sess inventory.Session, captureRoot string, opts Options) deviceResult {
	if ctx.Err() != nil {
		return deviceResult{session: sess, ok: false, message: "cancelled"}
	}

	username, password := opts.Username, opts.Password
	if user, pass, ok := cc.Credentials.Credential(sess.CredsID); ok {
		username, password = user, pass
	}

	id := vendors.ID(sess.Vendor)
	profile := vendors.Lookup(id)

	types := selectedTypes(opts.CaptureTypes)

	var commands []string
	if profile.PagingDisableCommand != "" {
		commands = append(commands, profile.PagingDisableCommand)
	}
	for _, ct := range types {
		commands = append(commands, ct.CommandsFor(id)...)
	}
	if len(commands) == 0 {
		return deviceResult{session: sess, ok: false, message: "no commands selected"}
	}

	client, err := sshclient.Dial(sshclient.Config{
		Host: sess.IP, Port: sess.Port, Username: username, Password: password, ConnectTimeout: opts.PerDeviceTO,
	})
	if err != nil {
		return deviceResult{session: sess, ok: false, message: fmt.Sprintf("connect failed: %v", err)}
	}
	metrics.SessionsInFlight.Inc()
	defer metrics.SessionsInFlight.Dec()
	defer client.Close()

	if ctx.Err() != nil {
		return deviceResult{session: sess, ok: false, message: "cancelled"}
	}

	shell, err := client.OpenSession()
	if err != nil {
		return deviceResult{session: sess, ok: false, message: fmt.Sprintf("open session failed: %v", err)}
	}
	defer shell.Close()

	promptPattern := regexp.MustCompile(profile.PromptPattern)
	raw, err := shell.RunSequence(ctx, commands, promptPattern, len(commands)+1, opts.PerDeviceTO)
	if err != nil {
		if ctx.Err() != nil {
			return deviceResult{session: sess, ok: false, message: "cancelled"}
		}
		return deviceResult{session: sess, ok: false, message: fmt.Sprintf("command sequence failed: %v", err)}
	}

	segments := splitByPrompt(raw, promptPattern, len(commands))
	offset := 0
	counts := map[string]int{}

	if profile.PagingDisableCommand != "" {
		offset = 1 // skip the paging-disable command's own segment
	}

	for _, ct := range types {
		n := len(ct.CommandsFor(id))
		if offset+n > len(segments) {
			break
		}
		var body string
		for i := 0; i < n; i++ {
			body += segments[offset+i]
		}
		offset += n

		if err := writeCapture(captureRoot, ct.OutputDir, sess.NormalizedName(), body); err != nil {
			return deviceResult{session: sess, ok: false, message: fmt.Sprintf("writing %s capture: %v", ct.Name, err)}
		}
		counts[ct.Name] = 1
	}

	return deviceResult{session: sess, ok: true, counts: counts}
}

func selectedTypes(names []string) []catalog.Type {
	if len(names) == 0 {
		return catalog.All()
	}
	out := make([]catalog.Type, 0, len(names))
	for _, n := range names {
		if t, ok := catalog.Lookup(n); ok {
			out = append(out, t)
		}
	}
	return out
}

// splitByPrompt divides a prompt-counted transcript into one segment per
// command: the output observed between successive prompt occurrences. The
// first segment (pre-first-prompt banner) is discarded since no command
// produced it.
//
// promptPattern is matched in multiline mode here regardless of how it was
// authored: RunSequence matches it against individual read chunks where "$"
// naturally lands at a chunk boundary, but splitting the full accumulated
// transcript needs every embedded prompt occurrence, not just one anchored
// to the very end of the whole string.
func splitByPrompt(raw string, promptPattern *regexp.Regexp, commandCount int) []string {
	multiline := regexp.MustCompile("(?m)" + promptPattern.String())
	locs := multiline.FindAllStringIndex(raw, -1)
	segments := make([]string, 0, commandCount)
	start := 0
	if len(locs) > 0 {
		start = locs[0][1]
	}
	for i := 1; i <= commandCount && i < len(locs); i++ {
		end := locs[i][0]
		if end < start {
			end = start
		}
		segments = append(segments, raw[start:end])
		start = locs[i][1]
	}
	for len(segments) < commandCount {
		segments = append(segments, "")
	}
	return segments
}

func writeCapture(captureRoot, outputDir, normalizedName, content string) error {
	dir := filepath.Join(captureRoot, outputDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(dir, normalizedName+".txt")
	return os.WriteFile(path, []byte(content), 0o644)
}

// completionCounter is a tiny mutex-guarded counter, kept local since the
// only use is the monotonically increasing "completed" count fed into
// progress events.
type completionCounter struct {
	mu  sync.Mutex
	val int
}

func (c *completionCounter) incr() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.val++
	return c.val
}
