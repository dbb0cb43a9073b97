// Package inventory loads and persists the session inventory file — the
// pivot data structure written by discovery, mutated by fingerprinting,
// and consumed by collection — plus the topology document discovery
// writes alongside it.
package inventory

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Session is one inventory entry: a single device reachable for collection.
type Session struct {
	Name                 string    `yaml:"name"`
	IP                   string    `yaml:"ip"`
	Port                 int       `yaml:"port"`
	DeviceType           string    `yaml:"device_type"`
	Vendor               string    `yaml:"vendor"`
	Platform             string    `yaml:"platform"`
	Model                string    `yaml:"model"`
	SoftwareVersion      string    `yaml:"software_version"`
	Fingerprinted        bool      `yaml:"fingerprinted"`
	FingerprintTimestamp time.Time `yaml:"fingerprint_timestamp,omitempty"`
	CredsID              int       `yaml:"credsid"`
}

// NormalizedName returns the lowercased hostname used as the stable device
// identity throughout the system.
func (s Session) NormalizedName() string {
	return strings.ToLower(s.Name)
}

// Folder groups sessions by site.
type Folder struct {
	FolderName string    `yaml:"folder_name"`
	Sessions   []Session `yaml:"sessions"`
}

// Inventory is the top-level document persisted to discovery/sessions.yaml.
type Inventory struct {
	Folders []Folder `yaml:"folders"`
}

// Load reads and parses the inventory file at path.
func Load(path string) (*Inventory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("inventory: reading %s: %w", path, err)
	}
	var inv Inventory
	if err := yaml.Unmarshal(data, &inv); err != nil {
		return nil, fmt.Errorf("inventory: parsing %s: %w", path, err)
	}
	return &inv, nil
}

// Save writes inv to path as YAML, creating parent directories as needed.
// This is the single-writer-per-run file discovery produces and later
// phases update in
// place; callers are responsible for serializing concurrent writers.
func Save(path string, inv *Inventory) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("inventory: creating directory for %s: %w", path, err)
	}
	data, err := yaml.Marshal(inv)
	if err != nil {
		return fmt.Errorf("inventory: marshaling: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("inventory: writing %s: %w", path, err)
	}
	return nil
}

// AllSessions flattens every folder's sessions into one slice.
func (inv *Inventory) AllSessions() []Session {
	var out []Session
	for _, f := range inv.Folders {
		out = append(out, f.Sessions...)
	}
	return out
}

// Find returns the session with the given normalized name, and the index of
// its folder and position within that folder for in-place updates.
func (inv *Inventory) Find(normalizedName string) (folderIdx, sessionIdx int, ok bool) {
	for fi, f := range inv.Folders {
		for si, s := range f.Sessions {
			if s.NormalizedName() == normalizedName {
				return fi, si, true
			}
		}
	}
	return 0, 0, false
}

// Upsert adds sess to folderName's session list, or replaces the existing
// entry with the same normalized name if one exists in any folder.
func (inv *Inventory) Upsert(folderName string, sess Session) {
	if fi, si, ok := inv.Find(sess.NormalizedName()); ok {
		inv.Folders[fi].Sessions[si] = sess
		return
	}
	for i, f := range inv.Folders {
		if f.FolderName == folderName {
			inv.Folders[i].Sessions = append(inv.Folders[i].Sessions, sess)
			return
		}
	}
	inv.Folders = append(inv.Folders, Folder{FolderName: folderName, Sessions: []Session{sess}})
}
