// Package jobsched persists named recurring collection jobs and dispatches
// them on schedule via github.com/robfig/cron/v3. Job definitions live in
// a JSON document on disk; each cron tick is just a saved collection run.
package jobsched

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/scottpeterman/velocitycmdb/internal/cmdctx"
	"github.com/scottpeterman/velocitycmdb/internal/collection"
	"github.com/scottpeterman/velocitycmdb/internal/config"
	"github.com/scottpeterman/velocitycmdb/internal/inventory"
	"github.com/scottpeterman/velocitycmdb/internal/parseload"
)

// Definition is one named recurring job: a cron schedule plus the
// collection options to run on each fire.
type Definition struct {
	Name           string             `json:"name"`
	Schedule       string             `json:"schedule"` // standard 5-field cron expression
	InventoryPath  string             `json:"inventory_path"`
	CaptureTypes   []string           `json:"capture_types,omitempty"`
	AutoLoadDB     bool               `json:"auto_load_db"`
	Enabled        bool               `json:"enabled"`
}

// Document is the on-disk file format: a flat list of job definitions.
type Document struct {
	Jobs []Definition `json:"jobs"`
}

// DefaultPath returns the default schedule file location under dataDir.
func DefaultPath(dataDir string) string {
	return filepath.Join(dataDir, "schedule.json")
}

// Load reads the schedule document at path. A missing file returns an empty
// Document rather than an error, so a fresh data directory needs no
// bootstrap step.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Document{}, nil
		}
		return nil, fmt.Errorf("jobsched: reading %s: %w", path, err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("jobsched: parsing %s: %w", path, err)
	}
	return &doc, nil
}

// Save writes doc to path as indented JSON, creating parent directories as
// needed.
func (d *Document) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("jobsched: creating directory for %s: %w", path, err)
	}
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("jobsched: marshaling: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("jobsched: writing %s: %w", path, err)
	}
	return nil
}

// Upsert adds def, or replaces the existing definition with the same Name.
func (d *Document) Upsert(def Definition) {
	for i, existing := range d.Jobs {
		if existing.Name == def.Name {
			d.Jobs[i] = def
			return
		}
	}
	d.Jobs = append(d.Jobs, def)
}

// Remove deletes the definition named name, reporting whether one existed.
func (d *Document) Remove(name string) bool {
	for i, existing := range d.Jobs {
		if existing.Name == name {
			d.Jobs = append(d.Jobs[:i], d.Jobs[i+1:]...)
			return true
		}
	}
	return false
}

// Scheduler drives a cron.Cron instance, firing collection.Registry.Start
// for each enabled Definition on its configured schedule.
type Scheduler struct {
	cc          *cmdctx.Context
	registry    *collection.Registry
	cfg         *config.Config
	captureRoot string
	store       parseload.Store

	mu      sync.Mutex
	c       *cron.Cron
	entries map[string]cron.EntryID
}

// NewScheduler builds a Scheduler that dispatches onto registry using cc's
// credentials and cfg's thresholds.
func NewScheduler(cc *cmdctx.Context, registry *collection.Registry, st parseload.Store, captureRoot string, cfg *config.Config) *Scheduler {
	return &Scheduler{
		cc: cc, registry: registry, store: st, captureRoot: captureRoot, cfg: cfg,
		c:       cron.New(),
		entries: make(map[string]cron.EntryID),
	}
}

// LoadAndStart loads doc's enabled definitions into the cron instance and
// starts it. Disabled definitions are skipped entirely.
func (s *Scheduler) LoadAndStart(doc *Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, def := range doc.Jobs {
		if !def.Enabled {
			continue
		}
		if err := s.addLocked(def); err != nil {
			return err
		}
	}
	s.c.Start()
	return nil
}

// Add schedules a single definition while the scheduler is already running.
func (s *Scheduler) Add(def Definition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addLocked(def)
}

func (s *Scheduler) addLocked(def Definition) error {
	name := def.Name
	id, err := s.c.AddFunc(def.Schedule, func() { s.fire(def) })
	if err != nil {
		return fmt.Errorf("jobsched: invalid schedule %q for job %q: %w", def.Schedule, name, err)
	}
	s.entries[name] = id
	return nil
}

func (s *Scheduler) fire(def Definition) {
	inv, err := inventory.Load(def.InventoryPath)
	if err != nil {
		s.cc.Log.WithField("job_name", def.Name).WithError(err).Error("jobsched: loading inventory failed")
		return
	}

	_, _, err = s.registry.Start(context.Background(), s.cc, s.store, s.captureRoot, inv, s.cfg, collection.Options{
		CaptureTypes: def.CaptureTypes,
		AutoLoadDB:   def.AutoLoadDB,
	})
	if err != nil {
		s.cc.Log.WithField("job_name", def.Name).WithError(err).Error("jobsched: starting collection run failed")
	}
}

// Remove stops firing the named job, if scheduled.
func (s *Scheduler) Remove(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.entries[name]; ok {
		s.c.Remove(id)
		delete(s.entries, name)
	}
}

// Stop halts the underlying cron instance, letting any in-flight job finish.
func (s *Scheduler) Stop() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.c.Stop()
}
