package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/scottpeterman/velocitycmdb/internal/clitable"
	"github.com/scottpeterman/velocitycmdb/internal/collection"
	"github.com/scottpeterman/velocitycmdb/internal/inventory"
	"github.com/scottpeterman/velocitycmdb/internal/progress"
)

var collectOpts struct {
	inventoryPath string
	devices       string
	types         string
	username      string
	password      string
	maxWorkers    int
	timeout       time.Duration
	autoLoadDB    bool
}

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Capture one or more command outputs from a set of devices over SSH",
	RunE: func(cmd *cobra.Command, args []string) error {
		if collectOpts.inventoryPath == "" {
			collectOpts.inventoryPath = filepath.Join(app.dataDir, "discovery", "sessions.yaml")
		}
		if collectOpts.maxWorkers < 1 || collectOpts.maxWorkers > 50 {
			return newExitError(2, "collect: --max-workers must be between 1 and 50")
		}

		inv, err := inventory.Load(collectOpts.inventoryPath)
		if err != nil {
			return newExitError(2, "collect: %v", err)
		}

		selected, err := selectDevices(inv, collectOpts.devices)
		if err != nil {
			return newExitError(2, "collect: %v", err)
		}

		var types []string
		if collectOpts.types != "" {
			types = strings.Split(collectOpts.types, ",")
			for i := range types {
				types[i] = strings.TrimSpace(types[i])
			}
		}

		opts := collection.Options{
			MaxWorkers:   collectOpts.maxWorkers,
			PerDeviceTO:  collectOpts.timeout,
			CaptureTypes: types,
			AutoLoadDB:   collectOpts.autoLoadDB,
			Username:     collectOpts.username,
			Password:     collectOpts.password,
		}

		jobID, events, err := app.reg.Start(context.Background(), app.cc, app.st, captureRoot(app.dataDir), selected, app.cfg, opts)
		if err != nil {
			return newExitError(2, "collect: %v", err)
		}

		fmt.Printf("job %s started (%d device(s))\n", jobID, len(selected.AllSessions()))

		var summary *progress.Event
		for ev := range events {
			printCollectEvent(ev)
			if ev.Type == progress.TypeSummary {
				e := ev
				summary = &e
			}
		}

		if summary == nil {
			return newExitError(2, "collect: job ended without a summary event")
		}
		if summary.DevicesFailed > 0 && summary.DevicesSucceeded == 0 {
			return newExitError(2, "collect: all %d device(s) failed", summary.DevicesFailed)
		}
		if summary.DevicesFailed > 0 {
			return newExitError(1, "collect: %d of %d device(s) failed",
				summary.DevicesFailed, summary.DevicesFailed+summary.DevicesSucceeded)
		}
		return nil
	},
}

func printCollectEvent(ev progress.Event) {
	if app.jsonOut {
		data, _ := ev.Marshal()
		fmt.Println(string(data))
		return
	}
	switch ev.Type {
	case progress.TypeDeviceStart:
		fmt.Printf("  -> %s (%s)\n", ev.DeviceName, ev.IPAddress)
	case progress.TypeDeviceComplete:
		status := clitable.Green("ok")
		if ev.Success == nil || !*ev.Success {
			status = clitable.Red("FAILED: " + ev.Message)
		}
		fmt.Printf("  <- %s %s\n", clitable.DotPad(ev.DeviceName, 32), status)
	case progress.TypeProgress:
		fmt.Printf("     progress %d/%d (%.0f%%)\n", ev.Completed, ev.Total, ev.Percent)
	case progress.TypeSummary:
		fmt.Printf("summary: %d succeeded, %d failed, %dms\n", ev.DevicesSucceeded, ev.DevicesFailed, ev.ExecutionTimeMS)
		for ct, n := range ev.CapturesCreated {
			fmt.Printf("  %s: %d capture(s)\n", ct, n)
		}
	case progress.TypeError:
		fmt.Printf("%s %s\n", clitable.Red("error:"), ev.Err)
	}
}

// selectDevices narrows inv to a device selection: either a
// comma-separated list of hostnames, "all"/empty for the whole inventory, or
// a filter of key=value pairs (vendor=, site=) matched against each
// session's vendor and folder (site) grouping.
func selectDevices(inv *inventory.Inventory, sel string) (*inventory.Inventory, error) {
	sel = strings.TrimSpace(sel)
	if sel == "" || strings.EqualFold(sel, "all") {
		return inv, nil
	}

	if strings.Contains(sel, "=") {
		return selectByFilter(inv, sel)
	}

	wanted := make(map[string]bool)
	for _, name := range strings.Split(sel, ",") {
		name = strings.ToLower(strings.TrimSpace(name))
		if name != "" {
			wanted[name] = true
		}
	}

	out := &inventory.Inventory{}
	for _, f := range inv.Folders {
		for _, s := range f.Sessions {
			if wanted[s.NormalizedName()] {
				out.Upsert(f.FolderName, s)
			}
		}
	}
	if len(out.AllSessions()) == 0 {
		return nil, fmt.Errorf("no inventory entries matched %q", sel)
	}
	return out, nil
}

// selectByFilter parses a "vendor=cisco_ios,site=nyc" style filter and
// returns the sessions whose vendor and/or folder (site) match every
// supplied term.
func selectByFilter(inv *inventory.Inventory, sel string) (*inventory.Inventory, error) {
	terms := make(map[string]string)
	for _, term := range strings.Split(sel, ",") {
		kv := strings.SplitN(term, "=", 2)
		if len(kv) != 2 {
			return nil, fmt.Errorf("invalid filter term %q (want key=value)", term)
		}
		terms[strings.ToLower(strings.TrimSpace(kv[0]))] = strings.ToLower(strings.TrimSpace(kv[1]))
	}

	out := &inventory.Inventory{}
	for _, f := range inv.Folders {
		if site, ok := terms["site"]; ok && strings.ToLower(f.FolderName) != site {
			continue
		}
		for _, s := range f.Sessions {
			if vendor, ok := terms["vendor"]; ok && strings.ToLower(s.Vendor) != vendor {
				continue
			}
			out.Upsert(f.FolderName, s)
		}
	}
	if len(out.AllSessions()) == 0 {
		return nil, fmt.Errorf("no inventory entries matched filter %q", sel)
	}
	return out, nil
}

func init() {
	collectCmd.Flags().StringVar(&collectOpts.inventoryPath, "inventory", "", "Path to the inventory file (default DATA_DIR/discovery/sessions.yaml)")
	collectCmd.Flags().StringVar(&collectOpts.devices, "devices", "all", "Comma-separated device hostnames, or \"all\"")
	collectCmd.Flags().StringVar(&collectOpts.types, "types", "", "Comma-separated capture types (default: every catalog entry)")
	collectCmd.Flags().StringVar(&collectOpts.username, "username", "", "Fallback SSH username (used when a session has no matching CRED_N_*)")
	collectCmd.Flags().StringVar(&collectOpts.password, "password", "", "Fallback SSH password")
	collectCmd.Flags().IntVar(&collectOpts.maxWorkers, "max-workers", 5, "Maximum concurrent SSH sessions (1-50)")
	collectCmd.Flags().DurationVar(&collectOpts.timeout, "timeout", 30*time.Second, "Per-device SSH timeout")
	collectCmd.Flags().BoolVar(&collectOpts.autoLoadDB, "auto-load-db", false, "Run parse-and-load and change detection after the batch drains")
}
