package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/scottpeterman/velocitycmdb/internal/audit"
	"github.com/scottpeterman/velocitycmdb/internal/fingerprint"
	"github.com/scottpeterman/velocitycmdb/internal/inventory"
	"github.com/scottpeterman/velocitycmdb/internal/models"
)

var fingerprintOpts struct {
	inventoryPath string
	username      string
	password      string
	maxWorkers    int
	timeout       time.Duration
}

var fingerprintCmd = &cobra.Command{
	Use:   "fingerprint",
	Short: "SSH into every unfingerprinted inventory entry and identify its platform",
	RunE: func(cmd *cobra.Command, args []string) error {
		if fingerprintOpts.inventoryPath == "" {
			return newExitError(2, "fingerprint: --inventory is required")
		}
		if fingerprintOpts.username == "" {
			return newExitError(2, "fingerprint: --username is required")
		}

		inv, err := inventory.Load(fingerprintOpts.inventoryPath)
		if err != nil {
			return newExitError(2, "fingerprint: %v", err)
		}

		updated, summary, err := fingerprint.Run(context.Background(), app.cc, inv, fingerprintOpts.username, fingerprintOpts.password, fingerprint.Options{
			MaxWorkers:  fingerprintOpts.maxWorkers,
			PerDeviceTO: fingerprintOpts.timeout,
			MinScore:    app.cfg.Scores.Fingerprint,
		})
		if err != nil {
			return newExitError(2, "fingerprint: %v", err)
		}

		if err := inventory.Save(fingerprintOpts.inventoryPath, updated); err != nil {
			return newExitError(2, "fingerprint: saving inventory: %v", err)
		}

		now := time.Now()
		for _, r := range summary.Results {
			if r.Failed {
				continue
			}
			if _, err := app.st.UpsertDevice(models.Device{
				Name:            r.Session.Name,
				NormalizedName:  r.Session.NormalizedName(),
				ManagementIP:    r.Session.IP,
				VendorID:        string(r.Vendor),
				DeviceType:      string(r.Vendor),
				Platform:        string(r.Vendor),
				Model:           r.Result.Model(),
				SoftwareVersion: r.Result.SoftwareVersion(),
				Serial:          r.Result.Serial(),
				SourceSystem:    "fingerprint",
				FingerprintedAt: &now,
			}); err != nil {
				return newExitError(2, "fingerprint: recording device %s: %v", r.Session.Name, err)
			}
		}

		ev := audit.NewEvent(audit.EventTypeFingerprint, "").
			WithMessage(fmt.Sprintf("fingerprint run: %d identified, %d failed", summary.Identified, summary.Failed))
		if summary.Identified > 0 {
			ev = ev.WithSuccess()
		}
		if err := audit.Log(ev); err != nil {
			app.cc.Log.WithError(err).Warn("fingerprint: audit log write failed")
		}

		fmt.Printf("fingerprint summary: %d identified, %d failed\n", summary.Identified, summary.Failed)
		for _, f := range summary.FailedDevices {
			fmt.Printf("  FAILED %s (%s): %s\n", f.Session.Name, f.Session.IP, f.Reason)
		}

		switch {
		case summary.Identified == 0 && summary.Failed > 0:
			return newExitError(2, "fingerprint: all %d device(s) failed", summary.Failed)
		case summary.Failed > 0:
			return newExitError(1, "fingerprint: %d of %d device(s) failed", summary.Failed, summary.Identified+summary.Failed)
		}
		return nil
	},
}

func init() {
	fingerprintCmd.Flags().StringVar(&fingerprintOpts.inventoryPath, "inventory", "", "Path to the inventory file")
	fingerprintCmd.Flags().StringVar(&fingerprintOpts.username, "username", "", "SSH username")
	fingerprintCmd.Flags().StringVar(&fingerprintOpts.password, "password", "", "SSH password")
	fingerprintCmd.Flags().IntVar(&fingerprintOpts.maxWorkers, "max-workers", 8, "Maximum concurrent SSH sessions")
	fingerprintCmd.Flags().DurationVar(&fingerprintOpts.timeout, "timeout", 15*time.Second, "Per-device SSH timeout")
}
