package inventory

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Edge is one discovered neighbor relationship: local device to a neighbor,
// independent of whether the neighbor was reachable/enqueued.
type Edge struct {
	LocalDevice    string `json:"local_device"`
	LocalIntf      string `json:"local_intf"`
	NeighborName   string `json:"neighbor_name"`
	NeighborIP     string `json:"neighbor_ip,omitempty"`
	NeighborIntf   string `json:"remote_intf"`
	Source         string `json:"source"` // "lldp" or "cdp"
}

// Topology is the graph of devices and discovered neighbor relationships,
// written by discovery independent of any capture.
type Topology struct {
	Edges        []Edge   `json:"edges"`
	FailedPeers  []string `json:"failed_peers,omitempty"`
}

// SaveTopology writes t as JSON to path.
func SaveTopology(path string, t *Topology) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("inventory: creating directory for %s: %w", path, err)
	}
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return fmt.Errorf("inventory: marshaling topology: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("inventory: writing %s: %w", path, err)
	}
	return nil
}

// LoadTopology reads a topology document from path.
func LoadTopology(path string) (*Topology, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("inventory: reading %s: %w", path, err)
	}
	var t Topology
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("inventory: parsing %s: %w", path, err)
	}
	return &t, nil
}
