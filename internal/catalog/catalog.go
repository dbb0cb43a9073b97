// Package catalog holds the fixed capture-type catalog: the ground truth
// both collection (what commands to send) and parse-and-load (which parser
// to select) consult.
package catalog

import "github.com/scottpeterman/velocitycmdb/internal/vendors"

// Type describes one entry in the capture-type catalog.
type Type struct {
	Name      string
	Tracked   bool
	OutputDir string
	// Commands maps a vendor to the command sequence sent for this capture
	// type. A missing vendor falls back to the Default entry.
	Commands map[vendors.ID][]string
	Default  []string
}

// CommandsFor returns the command sequence for vendor id, falling back to
// the catalog entry's Default sequence when no vendor-specific override
// exists.
func (t Type) CommandsFor(id vendors.ID) []string {
	if cmds, ok := t.Commands[id]; ok {
		return cmds
	}
	return t.Default
}

// catalogTable is the fixed capture-type catalog. Tracked types participate
// in change detection; all others update the current-capture row only.
var catalogTable = map[string]Type{
	"configs": {
		Name: "configs", Tracked: true, OutputDir: "configs",
		Default: []string{"show running-config"},
		Commands: map[vendors.ID][]string{
			vendors.JuniperJunos: {"show configuration | display set"},
		},
	},
	"version": {
		Name: "version", Tracked: true, OutputDir: "version",
		Default: []string{"show version"},
	},
	"inventory": {
		Name: "inventory", Tracked: true, OutputDir: "inventory",
		Default: []string{"show inventory"},
		Commands: map[vendors.ID][]string{
			vendors.HPProcurve: {"show system info"},
		},
	},
	"arp": {
		Name: "arp", Tracked: false, OutputDir: "arp",
		Default: []string{"show ip arp"},
		Commands: map[vendors.ID][]string{
			vendors.JuniperJunos: {"show arp"},
		},
	},
	"mac": {
		Name: "mac", Tracked: false, OutputDir: "mac",
		Default: []string{"show mac address-table"},
	},
	"lldp": {
		Name: "lldp", Tracked: false, OutputDir: "lldp",
		Default: []string{"show lldp neighbors detail"},
	},
	"cdp": {
		Name: "cdp", Tracked: false, OutputDir: "cdp",
		Default: []string{"show cdp neighbors detail"},
	},
	"routes": {
		Name: "routes", Tracked: false, OutputDir: "routes",
		Default: []string{"show ip route"},
	},
	"bgp-summary": {
		Name: "bgp-summary", Tracked: false, OutputDir: "bgp-summary",
		Default: []string{"show ip bgp summary"},
		Commands: map[vendors.ID][]string{
			vendors.JuniperJunos: {"show bgp summary"},
		},
	},
	"ospf-neighbors": {
		Name: "ospf-neighbors", Tracked: false, OutputDir: "ospf-neighbors",
		Default: []string{"show ip ospf neighbor"},
		Commands: map[vendors.ID][]string{
			vendors.JuniperJunos: {"show ospf neighbor"},
		},
	},
	"vrf": {
		Name: "vrf", Tracked: false, OutputDir: "vrf",
		Default: []string{"show vrf"},
	},
	"interfaces": {
		Name: "interfaces", Tracked: false, OutputDir: "interfaces",
		Default: []string{"show interfaces"},
	},
	"vlans": {
		Name: "vlans", Tracked: false, OutputDir: "vlans",
		Default: []string{"show vlan"},
	},
	"spanning-tree": {
		Name: "spanning-tree", Tracked: false, OutputDir: "spanning-tree",
		Default: []string{"show spanning-tree"},
	},
	"transceivers": {
		Name: "transceivers", Tracked: false, OutputDir: "transceivers",
		Default: []string{"show interfaces transceiver"},
	},
	"environment": {
		Name: "environment", Tracked: false, OutputDir: "environment",
		Default: []string{"show environment"},
	},
}

// Lookup returns the catalog entry for name.
func Lookup(name string) (Type, bool) {
	t, ok := catalogTable[name]
	return t, ok
}

// All returns every catalog entry, in no particular order.
func All() []Type {
	out := make([]Type, 0, len(catalogTable))
	for _, t := range catalogTable {
		out = append(out, t)
	}
	return out
}

// IsTracked reports whether name is in the tracked set {configs, version,
// inventory}.
func IsTracked(name string) bool {
	t, ok := catalogTable[name]
	return ok && t.Tracked
}
