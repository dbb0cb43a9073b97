// Package parseload loads captures into the store: walk the on-disk capture
// tree, parse each file against the template database, normalize extracted
// fields, and load them into the relational tables. Every capture type updates the
// current-capture row regardless of parse outcome; only the tracked subset
// (configs, version, inventory) additionally flows through change detection.
package parseload

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/scottpeterman/velocitycmdb/internal/audit"
	"github.com/scottpeterman/velocitycmdb/internal/catalog"
	"github.com/scottpeterman/velocitycmdb/internal/changearchive"
	"github.com/scottpeterman/velocitycmdb/internal/cmdctx"
	"github.com/scottpeterman/velocitycmdb/internal/config"
	"github.com/scottpeterman/velocitycmdb/internal/errs"
	"github.com/scottpeterman/velocitycmdb/internal/metrics"
	"github.com/scottpeterman/velocitycmdb/internal/models"
	"github.com/scottpeterman/velocitycmdb/internal/netutil"
	"github.com/scottpeterman/velocitycmdb/internal/template"
)

// Store is the subset of *store.Store the loader needs.
type Store interface {
	changearchive.Store
	DeviceByNormalizedName(name string) (models.Device, error)
	UpsertCaptureCurrent(c models.CaptureCurrent) error
	ReplaceComponents(deviceID int64, comps []models.Component) error
	InsertArpEntry(e models.ArpEntry) error
}

// Result aggregates one parse-and-load run.
type Result struct {
	FilesProcessed int
	EntriesLoaded  int
	FilesFailed    int
	Reasons        []string
}

// Run walks captureRoot/<capture_type>/<normalized_device_name>.txt for every
// catalog entry, parses each file, and loads the result into st. A single
// file failing to parse is recorded in Reasons and does not abort the rest
// of the batch — the policy is "load everything that can be loaded, report
// what could not."
func Run(cc *cmdctx.Context, st Store, captureRoot string, cfg *config.Config) (Result, error) {
	var result Result

	types := catalog.All()
	sort.Slice(types, func(i, j int) bool { return types[i].Name < types[j].Name })

	for _, ct := range types {
		dir := filepath.Join(captureRoot, ct.OutputDir)
		entries, err := os.ReadDir(dir)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return result, fmt.Errorf("parseload: reading %s: %w", dir, err)
		}

		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			path := filepath.Join(dir, entry.Name())
			result.FilesProcessed++

			n, err := loadOneFile(cc, st, ct, path, cfg)
			if err != nil {
				result.FilesFailed++
				result.Reasons = append(result.Reasons, fmt.Sprintf("%s: %v", path, err))
				metrics.ParseFailures.WithLabelValues(ct.Name).Inc()
				continue
			}
			result.EntriesLoaded += n

			ev := audit.NewEvent(audit.EventTypeCaptureLoaded, deviceNameFromFile(path)).
				WithCaptureType(ct.Name).
				WithMessage(fmt.Sprintf("%d entries loaded", n)).
				WithSuccess()
			if auditErr := audit.Log(ev); auditErr != nil {
				cc.Log.WithError(auditErr).Warn("parseload: audit log write failed")
			}
		}
	}

	return result, nil
}

func deviceNameFromFile(path string) string {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	return base[:len(base)-len(ext)]
}

func loadOneFile(cc *cmdctx.Context, st Store, ct catalog.Type, path string, cfg *config.Config) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("reading capture file: %w", err)
	}
	content := string(raw)

	name := deviceNameFromFile(path)
	device, err := st.DeviceByNormalizedName(name)
	if err != nil {
		return 0, fmt.Errorf("looking up device %q: %w", name, err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("stat capture file: %w", err)
	}
	capturedAt := info.ModTime()
	hash := hashContent(content)

	// The current-capture row is updated unconditionally: operators can
	// always browse the latest raw output even when downstream parsing of
	// that content fails.
	if err := st.UpsertCaptureCurrent(models.CaptureCurrent{
		DeviceID: device.ID, CaptureType: ct.Name, FilePath: path,
		Size: info.Size(), CapturedAt: capturedAt, ContentHash: hash,
	}); err != nil {
		return 0, err
	}

	entriesLoaded := 0

	if models.IsTracked(ct.Name) {
		out, err := changearchive.Archive(st, cc.DataDir, device.ID, ct.Name, path, content, capturedAt, cfg.Severity)
		if err != nil {
			return entriesLoaded, fmt.Errorf("archiving: %w", err)
		}
		if !out.Unchanged {
			entriesLoaded++
		}
	}

	switch ct.Name {
	case "inventory":
		n, err := loadInventory(cc, st, device, content, cfg.Scores.Inventory)
		if err != nil {
			return entriesLoaded, err
		}
		entriesLoaded += n
	case "arp":
		n, err := loadArp(cc, st, device, content, capturedAt, cfg.Scores.ARP)
		if err != nil {
			return entriesLoaded, err
		}
		entriesLoaded += n
	}

	return entriesLoaded, nil
}

func vendorPrefix(device models.Device) string {
	return device.VendorID
}

func loadInventory(cc *cmdctx.Context, st Store, device models.Device, content string, minScore int) (int, error) {
	filterList := template.FilterList(vendorPrefix(device), "show inventory")
	best, err := cc.Templates.Best(filterList, content, minScore)
	if err != nil {
		return 0, errs.NewParseError("inventory", vendorPrefix(device), best.Template, best.Score, err.Error())
	}

	names := best.Values["NAME"]
	descrs := best.Values["DESCR"]
	pids := best.Values["PID"]
	serials := best.Values["SERIAL"]

	n := len(names)
	if n == 0 {
		return 0, errs.NewParseError("inventory", vendorPrefix(device), best.Template, best.Score, "no components extracted")
	}

	comps := make([]models.Component, 0, n)
	for i := 0; i < n; i++ {
		c := models.Component{
			DeviceID:         device.ID,
			Name:             at(names, i),
			Description:      at(descrs, i),
			Position:         fmt.Sprintf("%d", i),
			Type:             classifyComponentType(at(descrs, i)),
			ExtractionSource: best.Template,
		}
		if serial := at(serials, i); serial != "" {
			c.Serial = serial
			c.HaveSN = true
		}
		if pid := at(pids, i); pid != "" {
			c.Subtype = pid
		}
		comps = append(comps, c)
	}

	if err := st.ReplaceComponents(device.ID, comps); err != nil {
		return 0, err
	}
	return len(comps), nil
}

func at(vs []string, i int) string {
	if i < 0 || i >= len(vs) {
		return ""
	}
	return vs[i]
}

// classifyComponentType makes a best-effort guess at a component's category
// from its description text, used for CLI display grouping only — it never
// gates storage.
func classifyComponentType(descr string) string {
	lower := strings.ToLower(descr)
	switch {
	case strings.Contains(lower, "power supply") || strings.Contains(lower, "psu"):
		return "psu"
	case strings.Contains(lower, "fan"):
		return "fan"
	case strings.Contains(lower, "supervisor") || strings.Contains(lower, "route processor"):
		return "supervisor"
	case strings.Contains(lower, "transceiver") || strings.Contains(lower, "sfp") || strings.Contains(lower, "gbic"):
		return "transceiver"
	case strings.Contains(lower, "chassis"):
		return "chassis"
	case descr == "":
		return "unknown"
	default:
		return "module"
	}
}

func loadArp(cc *cmdctx.Context, st Store, device models.Device, content string, capturedAt time.Time, minScore int) (int, error) {
	filterList := template.FilterList(vendorPrefix(device), "show ip arp")
	best, err := cc.Templates.Best(filterList, content, minScore)
	if err != nil {
		return 0, errs.NewParseError("arp", vendorPrefix(device), best.Template, best.Score, err.Error())
	}

	ips := firstNonEmptyList(best.Values, "IP_ADDRESS", "ADDRESS")
	macs := firstNonEmptyList(best.Values, "MAC_ADDRESS", "HARDWARE_ADDR")
	ifaces := firstNonEmptyList(best.Values, "INTERFACE", "PORT")

	// The VRF/VDOM context is a per-capture header, not a per-row column:
	// one "show ip arp vrf X" capture carries one context for every entry
	// in it.
	context := best.Value("CONTEXT")

	n := len(ips)
	if n == 0 || len(macs) != n {
		return 0, errs.NewParseError("arp", vendorPrefix(device), best.Template, best.Score,
			"IP and MAC column counts did not align")
	}

	type key struct{ context, ip, mac string }
	seen := make(map[key]bool, n)
	loaded := 0

	for i := 0; i < n; i++ {
		rawIP := at(ips, i)
		rawMAC := at(macs, i)

		ip, err := netutil.NormalizeIPv4(rawIP)
		if err != nil {
			continue
		}
		mac, err := netutil.NormalizeMAC(rawMAC)
		if err != nil {
			continue
		}

		k := key{context, ip, mac}
		if seen[k] {
			continue
		}
		seen[k] = true

		if err := st.InsertArpEntry(models.ArpEntry{
			DeviceID:   device.ID,
			ContextID:  context,
			IPAddress:  ip,
			MACAddress: mac,
			Interface:  at(ifaces, i),
			EntryType:  "dynamic",
			CapturedAt: capturedAt,
		}); err != nil {
			return loaded, err
		}
		loaded++
	}

	return loaded, nil
}

func firstNonEmptyList(values map[string][]string, names ...string) []string {
	for _, name := range names {
		if vs, ok := values[name]; ok && len(vs) > 0 {
			return vs
		}
	}
	return nil
}

func hashContent(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
