package template

// Vendor-agnostic field resolution priority lists (§4.2). Templates across
// vendors disagree on field names; these ordered lists pick the first
// populated candidate, with explicit exclusions where a substring match
// would otherwise misfire (e.g. HW_VERSION superficially resembles a
// software version field but is not one).
var (
	softwareVersionPriority = []string{"SOFTWARE_VERSION", "VERSION"}
	softwareVersionExcluded = map[string]bool{"HW_VERSION": true, "ROM_VERSION": true}

	modelPriority  = []string{"MODEL", "HARDWARE", "PID"}
	serialPriority = []string{"SERIAL_NUMBER", "SERIAL", "SN"}
	macPriority    = []string{"MAC_ADDRESS", "HARDWARE_ADDR"}
	ipPriority     = []string{"IP_ADDRESS", "ADDRESS"}
	ifacePriority  = []string{"INTERFACE", "PORT"}
)

// resolveFirst returns the values of the first populated field in priority
// order, skipping any field name present in excluded.
func resolveFirst(values map[string][]string, priority []string, excluded map[string]bool) []string {
	for _, name := range priority {
		if excluded != nil && excluded[name] {
			continue
		}
		if vs, ok := values[name]; ok && len(vs) > 0 {
			return vs
		}
	}
	return nil
}

// SoftwareVersion resolves the normalized software-version field, excluding
// HW_VERSION and ROM_VERSION even if a template happens to populate a field
// literally named "*VERSION" that matches one of those.
func (r Result) SoftwareVersion() string {
	vs := resolveFirst(r.Values, append([]string{}, append(softwareVersionPriority, otherVersionFields(r.Values)...)...), softwareVersionExcluded)
	if len(vs) == 0 {
		return ""
	}
	return vs[0]
}

// otherVersionFields returns any field whose name ends in VERSION beyond the
// two named priorities, so vendor-specific templates with their own
// *VERSION field names still resolve, subject to the exclusion list.
func otherVersionFields(values map[string][]string) []string {
	var extra []string
	for name := range values {
		if name == "SOFTWARE_VERSION" || name == "VERSION" {
			continue
		}
		if hasSuffix(name, "VERSION") {
			extra = append(extra, name)
		}
	}
	return extra
}

func hasSuffix(s, suffix string) bool {
	if len(s) < len(suffix) {
		return false
	}
	return s[len(s)-len(suffix):] == suffix
}

// Model resolves MODEL -> HARDWARE -> PID. HARDWARE may be a list on stacked
// Cisco IOS switches; callers needing the full list should use ModelList.
func (r Result) Model() string {
	vs := resolveFirst(r.Values, modelPriority, nil)
	if len(vs) == 0 {
		return ""
	}
	return vs[0]
}

// ModelList returns every captured value for the winning model field,
// preserving stack order so it aligns positionally with SerialList.
func (r Result) ModelList() []string {
	return resolveFirst(r.Values, modelPriority, nil)
}

// Serial resolves SERIAL_NUMBER -> SERIAL -> SN.
func (r Result) Serial() string {
	vs := resolveFirst(r.Values, serialPriority, nil)
	if len(vs) == 0 {
		return ""
	}
	return vs[0]
}

// SerialList returns every captured serial value, aligned with ModelList for
// stacked devices.
func (r Result) SerialList() []string {
	return resolveFirst(r.Values, serialPriority, nil)
}

// MACAddress resolves MAC_ADDRESS -> HARDWARE_ADDR (used by ARP parsing).
func (r Result) MACAddress() string {
	vs := resolveFirst(r.Values, macPriority, nil)
	if len(vs) == 0 {
		return ""
	}
	return vs[0]
}

// IPAddress resolves IP_ADDRESS -> ADDRESS (used by ARP parsing).
func (r Result) IPAddress() string {
	vs := resolveFirst(r.Values, ipPriority, nil)
	if len(vs) == 0 {
		return ""
	}
	return vs[0]
}

// InterfaceName resolves INTERFACE -> PORT.
func (r Result) InterfaceName() string {
	vs := resolveFirst(r.Values, ifacePriority, nil)
	if len(vs) == 0 {
		return ""
	}
	return vs[0]
}

// AnyTracked reports whether any of the fingerprint-tracked fields
// (software version, model, serial) were extracted — the success criterion
// for a fingerprint pass even when extraction is partial.
func (r Result) AnyTracked() bool {
	return r.SoftwareVersion() != "" || r.Model() != "" || r.Serial() != ""
}
