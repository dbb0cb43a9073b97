package template

import "regexp"

func mustField(name, pattern string, repeatable bool) FieldSpec {
	return FieldSpec{Name: name, Pattern: regexp.MustCompile(pattern), Repeatable: repeatable}
}

// NewBuiltinDB returns a template database pre-populated with the
// fingerprint and ARP templates the core ships with. Operators extend it by
// registering additional templates at the same filter-list names; nothing
// about the engine is hardcoded to these specific templates.
func NewBuiltinDB() *DB {
	db := NewDB()

	db.Register(Template{
		Name: "cisco_ios_show_version",
		Fields: []FieldSpec{
			mustField("SOFTWARE_VERSION", `Cisco IOS Software.*Version\s+([\w.()]+)`, false),
			mustField("MODEL", `(?:cisco|Model [Nn]umber)\s*[:]?\s*(\S+)\s*\(.*processor`, false),
			mustField("HARDWARE", `^Model [Nn]umber\s*:\s*(\S+)`, true),
			mustField("SERIAL_NUMBER", `^System [Ss]erial [Nn]umber\s*:\s*(\S+)`, true),
			mustField("HW_VERSION", `[Hh]ardware [Rr]evision\s*:\s*(\S+)`, false),
		},
	})

	db.Register(Template{
		Name: "cisco_nxos_show_version",
		Fields: []FieldSpec{
			mustField("SOFTWARE_VERSION", `(?:NXOS|system):\s+version\s+([\w.()]+)`, false),
			mustField("MODEL", `cisco\s+(Nexus\S*\s*\S*)\s+[Cc]hassis`, false),
			mustField("SERIAL_NUMBER", `[Pp]rocessor\s+[Bb]oard\s+ID\s+(\S+)`, false),
		},
	})

	db.Register(Template{
		Name: "arista_eos_show_version",
		Fields: []FieldSpec{
			mustField("SOFTWARE_VERSION", `Software image version:\s*([\w.()]+)`, false),
			mustField("MODEL", `Arista\s+(\S+)`, false),
			mustField("SERIAL_NUMBER", `Serial [Nn]umber:\s*(\S+)`, false),
		},
	})

	db.Register(Template{
		Name: "juniper_junos_show_version",
		Fields: []FieldSpec{
			mustField("SOFTWARE_VERSION", `JUNOS\s+(?:Software Release|.*\[)\s*\[?([\w.\-]+)\]?`, false),
			mustField("MODEL", `Model:\s*(\S+)`, false),
		},
	})

	// HP ProCurve `show version` typically only carries a software build
	// stamp ("image stamp") — no serial — which is the documented trigger
	// for the fingerprint state machine's follow-up `show system info` command.
	db.Register(Template{
		Name: "hp_procurve_show_version",
		Fields: []FieldSpec{
			mustField("SOFTWARE_VERSION", `image stamp:\s*\S+\s+(\S+)`, false),
		},
	})

	db.Register(Template{
		Name: "hp_procurve_show_system_info",
		Fields: []FieldSpec{
			mustField("MODEL", `System Name\s*:.*\n?Product [Nn]ame\s*:\s*(\S+)`, false),
			mustField("MODEL", `Product [Nn]ame\s*:\s*(\S+)`, false),
			mustField("SERIAL_NUMBER", `Serial [Nn]umber\s*:\s*(\S+)`, false),
			mustField("SOFTWARE_VERSION", `Software [Rr]evision\s*:\s*(\S+)`, false),
		},
	})

	// ARP templates: one per vendor "show ip arp"/"show arp" dialect, plus a
	// vendor-agnostic fallback matching the common
	// "<ip> <age> <mac> <type> <interface>" table shape.
	db.Register(Template{
		Name: "cisco_ios_show_ip_arp",
		Fields: []FieldSpec{
			mustField("CONTEXT", `(?i)^(?:ARP table of )?VRF(?: Name)?:?\s+"?([\w\-]+)"?`, false),
			mustField("IP_ADDRESS", `^Internet\s+(\d+\.\d+\.\d+\.\d+)`, true),
			mustField("MAC_ADDRESS", `^Internet\s+\S+\s+\S+\s+([0-9a-fA-F.]+)\s+ARPA`, true),
			mustField("INTERFACE", `^Internet\s+\S+\s+\S+\s+[0-9a-fA-F.]+\s+ARPA\s+(\S+)`, true),
		},
	})

	db.Register(Template{
		Name: "juniper_junos_show_arp",
		Fields: []FieldSpec{
			mustField("CONTEXT", `(?i)^(?:Routing instance|VPN [Nn]ame):\s+(\S+)`, false),
			mustField("MAC_ADDRESS", `^([0-9a-fA-F:]{17})\s+\S+\s+\S+`, true),
			mustField("IP_ADDRESS", `^[0-9a-fA-F:]{17}\s+(\S+)`, true),
			mustField("INTERFACE", `^[0-9a-fA-F:]{17}\s+\S+\s+(\S+)`, true),
		},
	})

	db.Register(Template{
		Name: "show_ip_arp",
		Fields: []FieldSpec{
			mustField("CONTEXT", `(?i)^(?:VRF|VDOM)(?: Name)?:?\s+"?([\w\-]+)"?`, false),
			mustField("IP_ADDRESS", `(\d+\.\d+\.\d+\.\d+)\s+\S+\s+[0-9a-fA-F:.\-]{12,17}`, true),
			mustField("HARDWARE_ADDR", `\d+\.\d+\.\d+\.\d+\s+\S+\s+([0-9a-fA-F:.\-]{12,17})`, true),
			mustField("PORT", `\d+\.\d+\.\d+\.\d+\s+\S+\s+[0-9a-fA-F:.\-]{12,17}\s+\S+\s+(\S+)`, true),
		},
	})

	// Neighbor-discovery templates, scored per neighbor block. The CDP
	// patterns also accept the "Management Addresses:" spelling some
	// platforms share with their LLDP output.
	db.Register(Template{
		Name: "generic_show_lldp_neighbors_detail",
		Fields: []FieldSpec{
			mustField("NEIGHBOR_NAME", `(?i)^System Name:\s*(\S+)`, false),
			mustField("MGMT_ADDRESS", `(?i)^Management Address(?:es)?:\s*(\d+\.\d+\.\d+\.\d+)`, false),
			mustField("LOCAL_INTERFACE", `(?i)^Local (?:Port|Intf):\s*(\S+)`, false),
			mustField("NEIGHBOR_INTERFACE", `(?i)^(?:Port id|Remote Port):\s*(\S+)`, false),
			mustField("PLATFORM", `(?i)^System Description:\s*(.+)`, false),
		},
	})

	db.Register(Template{
		Name: "generic_show_cdp_neighbors_detail",
		Fields: []FieldSpec{
			mustField("NEIGHBOR_NAME", `(?i)^Device ID:\s*(\S+)`, false),
			mustField("MGMT_ADDRESS", `(?i)^\s*(?:IP address|Management Address(?:es)?):\s*(\d+\.\d+\.\d+\.\d+)`, false),
			mustField("LOCAL_INTERFACE", `(?i)^(?:Interface|Local Port|Local Intf):\s*([^,\s]+)`, false),
			mustField("NEIGHBOR_INTERFACE", `(?i)(?:Port ID \(outgoing port\)|Port id|Remote Port):\s*(\S+)`, false),
			mustField("PLATFORM", `(?i)^Platform:\s*([^,]+)`, false),
		},
	})

	db.Register(Template{
		Name: "show_inventory",
		Fields: []FieldSpec{
			mustField("NAME", `NAME:\s*"([^"]+)"`, true),
			mustField("DESCR", `DESCR:\s*"([^"]+)"`, true),
			mustField("PID", `PID:\s*(\S+)`, true),
			mustField("SERIAL", `SN:\s*(\S+)`, true),
		},
	})

	return db
}
